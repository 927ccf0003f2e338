package ledger

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"strings"
	"time"

	"token-holders/internal/holders/config"
	"token-holders/internal/holders/model"
	"token-holders/internal/holders/monitor"
	"token-holders/pkg/utils"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const signaturesPageLimit = 1000

// RPCLedger reads holders straight from the SPL token program.
type RPCLedger struct {
	cfg       config.LedgerConfig
	endpoints *EndpointSelector
	limiter   *rate.Limiter
	// 首笔交易时间不会变化，只缓存成功的结果
	firstTx *gocache.Cache
	tl      *zap.Logger
}

func NewRPCLedger(cfg config.LedgerConfig, endpoints *EndpointSelector, tl *zap.Logger) *RPCLedger {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60), cfg.Concurrency+1)
	}
	ttl := cfg.CacheTTLDuration()
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &RPCLedger{
		cfg:       cfg,
		endpoints: endpoints,
		limiter:   limiter,
		firstTx:   gocache.New(ttl, 10*time.Minute),
		tl:        tl,
	}
}

func (l *RPCLedger) ValidateAddressSyntax(candidate string) bool {
	return ValidateAddressSyntax(l.cfg.Network, candidate)
}

// Endpoints exposes the selector so it can be probed on a schedule.
func (l *RPCLedger) Endpoints() *EndpointSelector {
	return l.endpoints
}

func (l *RPCLedger) CurrentEndpointInfo() model.EndpointInfo {
	return l.endpoints.Current()
}

func (l *RPCLedger) FetchTokenMetadata(ctx context.Context, address string) (model.TokenMetadata, error) {
	mint, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return model.TokenMetadata{}, newQueryError(OpMetadata, address, MsgInvalidAddress, err)
	}
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	supply, err := l.tokenSupply(ctx, mint)
	if err != nil {
		return model.TokenMetadata{}, newQueryError(OpMetadata, address, failureMessage(err, MsgMetadataFailed), err)
	}
	total, _ := utils.AdjustRawAmount(supply.Amount, supply.Decimals)
	return model.TokenMetadata{
		Address:     mint.String(),
		Symbol:      shortSymbol(mint),
		Decimals:    int(supply.Decimals),
		TotalSupply: total.InexactFloat64(),
	}, nil
}

func (l *RPCLedger) FetchHolders(ctx context.Context, address string, maxCount int) ([]model.RawHolder, error) {
	mint, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, newQueryError(OpHolders, address, MsgInvalidAddress, err)
	}
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	// 余额换算需要 decimals
	supply, err := l.tokenSupply(ctx, mint)
	if err != nil {
		return nil, newQueryError(OpHolders, address, failureMessage(err, MsgHoldersFailed), err)
	}

	accounts, err := l.tokenAccounts(ctx, mint)
	if err != nil {
		return nil, newQueryError(OpHolders, address, failureMessage(err, MsgHoldersFailed), err)
	}

	owners := aggregateByOwner(accounts)
	if maxCount > 0 && len(owners) > maxCount {
		owners = owners[:maxCount]
	}

	firstSeen := l.firstAcquisitions(ctx, owners)

	holders := make([]model.RawHolder, len(owners))
	for i, o := range owners {
		amount := utils.AdjustDecimals(new(big.Int).SetUint64(o.amount), supply.Decimals)
		holders[i] = model.RawHolder{
			Address:            o.owner.String(),
			Balance:            amount.InexactFloat64(),
			BalanceFormatted:   utils.FormatAmount(amount, int32(supply.Decimals)),
			FirstTransactionAt: firstSeen[i],
		}
	}
	l.tl.Debug("fetched holders",
		zap.String("token", address),
		zap.Int("accounts", len(accounts)),
		zap.Int("holders", len(holders)))
	return holders, nil
}

func (l *RPCLedger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := l.cfg.TimeoutDuration(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

func (l *RPCLedger) tokenSupply(ctx context.Context, mint solana.PublicKey) (*rpc.UiTokenAmount, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := l.endpoints.Client().GetTokenSupply(ctx, mint, rpc.CommitmentConfirmed)
	monitor.ObserveLedger("getTokenSupply", err)
	if err != nil {
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, errTokenNotFound
	}
	return out.Value, nil
}

func (l *RPCLedger) tokenAccounts(ctx context.Context, mint solana.PublicKey) ([]tokenAccount, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := l.endpoints.Client().GetProgramAccountsWithOpts(ctx, solana.TokenProgramID, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{DataSize: tokenAccountSize},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: mintOffset, Bytes: solana.Base58(mint.Bytes())}},
		},
	})
	monitor.ObserveLedger("getProgramAccounts", err)
	if err != nil {
		return nil, err
	}

	accounts := make([]tokenAccount, 0, len(out))
	for _, keyed := range out {
		if keyed == nil || keyed.Account == nil || keyed.Account.Data == nil {
			continue
		}
		acc, err := decodeTokenAccount(keyed.Pubkey, keyed.Account.Data.GetBinary())
		if err != nil {
			l.tl.Warn("skip undecodable token account", zap.String("account", keyed.Pubkey.String()), zap.Error(err))
			continue
		}
		if !acc.Mint.Equals(mint) {
			continue
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

type ownerBalance struct {
	owner   solana.PublicKey
	amount  uint64
	largest tokenAccount // 用于查询首笔交易
}

// aggregateByOwner sums token accounts per owner, drops empty owners and
// orders by descending amount, ties broken by owner address.
func aggregateByOwner(accounts []tokenAccount) []ownerBalance {
	index := make(map[solana.PublicKey]int, len(accounts))
	var owners []ownerBalance
	for _, acc := range accounts {
		if acc.Amount == 0 {
			continue
		}
		i, ok := index[acc.Owner]
		if !ok {
			index[acc.Owner] = len(owners)
			owners = append(owners, ownerBalance{owner: acc.Owner, amount: acc.Amount, largest: acc})
			continue
		}
		owners[i].amount += acc.Amount
		if acc.Amount > owners[i].largest.Amount {
			owners[i].largest = acc
		}
	}
	sort.SliceStable(owners, func(i, j int) bool {
		if owners[i].amount != owners[j].amount {
			return owners[i].amount > owners[j].amount
		}
		return owners[i].owner.String() < owners[j].owner.String()
	})
	return owners
}

// firstAcquisitions looks up the first transaction time for the top
// FirstTxLookups owners. Failures leave the entry nil.
func (l *RPCLedger) firstAcquisitions(ctx context.Context, owners []ownerBalance) []*time.Time {
	out := make([]*time.Time, len(owners))
	n := min(l.cfg.FirstTxLookups, len(owners))
	if n <= 0 {
		return out
	}

	p := pool.New().WithMaxGoroutines(max(l.cfg.Concurrency, 1))
	for i := 0; i < n; i++ {
		p.Go(func() {
			ts, err := l.firstTransactionAt(ctx, owners[i].largest.Address)
			if err != nil {
				l.tl.Debug("first transaction lookup failed",
					zap.String("account", owners[i].largest.Address.String()), zap.Error(err))
				return
			}
			out[i] = ts
		})
	}
	p.Wait()
	return out
}

// firstTransactionAt pages signatures backwards until the oldest one. When
// the page budget runs out first the time is unknown.
func (l *RPCLedger) firstTransactionAt(ctx context.Context, account solana.PublicKey) (*time.Time, error) {
	key := utils.FirstTxCacheKey(l.cfg.Network, account.String())
	if v, ok := l.firstTx.Get(key); ok {
		monitor.FirstTxCacheHits.WithLabelValues("hit").Inc()
		ts := v.(time.Time)
		return &ts, nil
	}
	monitor.FirstTxCacheHits.WithLabelValues("miss").Inc()

	limit := signaturesPageLimit
	opts := &rpc.GetSignaturesForAddressOpts{Limit: &limit, Commitment: rpc.CommitmentConfirmed}
	var oldest *rpc.TransactionSignature
	for page := 0; page < max(l.cfg.FirstTxMaxPages, 1); page++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		sigs, err := l.endpoints.Client().GetSignaturesForAddressWithOpts(ctx, account, opts)
		monitor.ObserveLedger("getSignaturesForAddress", err)
		if err != nil {
			return nil, err
		}
		if len(sigs) > 0 {
			oldest = sigs[len(sigs)-1]
		}
		if len(sigs) < limit {
			if oldest == nil || oldest.BlockTime == nil {
				return nil, errNoBlockTime
			}
			ts := oldest.BlockTime.Time().UTC()
			l.firstTx.SetDefault(key, ts)
			return &ts, nil
		}
		opts.Before = oldest.Signature
	}
	return nil, errPageBudget
}

var (
	errTokenNotFound = errors.New("token supply not available")
	errNoBlockTime   = errors.New("oldest signature has no block time")
	errPageBudget    = errors.New("signature page budget exhausted")
)

// failureMessage maps rpc errors for a non-mint account to MsgTokenNotFound.
func failureMessage(err error, fallback string) string {
	if errors.Is(err, errTokenNotFound) {
		return MsgTokenNotFound
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		msg := strings.ToLower(rpcErr.Message)
		if strings.Contains(msg, "not a token mint") || strings.Contains(msg, "could not find") || strings.Contains(msg, "invalid param") {
			return MsgTokenNotFound
		}
	}
	return fallback
}

// RPC 没有 symbol，用地址缩写代替
func shortSymbol(mint solana.PublicKey) string {
	return strings.ToUpper(mint.String()[:4])
}
