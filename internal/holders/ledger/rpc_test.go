package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"token-holders/internal/holders/config"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRPCLedger(t *testing.T, srv *fakeRPC, lookups int) *RPCLedger {
	t.Helper()
	selector, err := NewEndpointSelector([]config.EndpointConfig{{Name: "fake", URL: srv.URL}}, zap.NewNop())
	require.NoError(t, err)
	return NewRPCLedger(config.LedgerConfig{
		Network:         "SOLANA",
		FirstTxLookups:  lookups,
		FirstTxMaxPages: 2,
		Concurrency:     2,
		Timeout:         5,
		CacheTTL:        60,
	}, selector, zap.NewNop())
}

func TestRPCFetchTokenMetadata(t *testing.T) {
	srv := newFakeRPC(t)
	srv.handle("getTokenSupply", func([]json.RawMessage) (interface{}, *rpcFailure) {
		return tokenSupplyResult("1000000000000", 6), nil
	})
	mint := solana.NewWallet().PublicKey()

	meta, err := newTestRPCLedger(t, srv, 0).FetchTokenMetadata(context.Background(), mint.String())
	require.NoError(t, err)
	assert.Equal(t, mint.String(), meta.Address)
	assert.Equal(t, 6, meta.Decimals)
	assert.InDelta(t, 1_000_000.0, meta.TotalSupply, 1e-9)
	assert.Equal(t, strings.ToUpper(mint.String()[:4]), meta.Symbol)
}

func TestRPCFetchTokenMetadataNotAMint(t *testing.T) {
	srv := newFakeRPC(t)
	srv.handle("getTokenSupply", func([]json.RawMessage) (interface{}, *rpcFailure) {
		return nil, &rpcFailure{Code: -32602, Message: "Invalid param: not a Token mint"}
	})

	_, err := newTestRPCLedger(t, srv, 0).FetchTokenMetadata(context.Background(), solana.NewWallet().PublicKey().String())
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, MsgTokenNotFound, qe.Message)
	assert.Equal(t, OpMetadata, qe.Op)
}

func TestRPCInvalidAddressSkipsNetwork(t *testing.T) {
	srv := newFakeRPC(t)
	l := newTestRPCLedger(t, srv, 0)

	_, err := l.FetchHolders(context.Background(), "not-an-address", 10)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, MsgInvalidAddress, qe.Message)
	assert.Equal(t, 0, srv.count("getProgramAccounts"))
}

func TestRPCFetchHolders(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	otherMint := solana.NewWallet().PublicKey()
	whale := solana.NewWallet().PublicKey()
	fish := solana.NewWallet().PublicKey()
	empty := solana.NewWallet().PublicKey()

	whaleMain := solana.NewWallet().PublicKey()
	whaleSide := solana.NewWallet().PublicKey()

	srv := newFakeRPC(t)
	srv.handle("getTokenSupply", func([]json.RawMessage) (interface{}, *rpcFailure) {
		return tokenSupplyResult("100000", 2), nil
	})
	srv.handle("getProgramAccounts", func(params []json.RawMessage) (interface{}, *rpcFailure) {
		var program string
		_ = json.Unmarshal(params[0], &program)
		if program != solana.TokenProgramID.String() {
			return nil, &rpcFailure{Code: -32602, Message: "unexpected program"}
		}
		return []interface{}{
			keyedAccount(whaleSide, encodeTokenAccount(mint, whale, 200)),
			keyedAccount(solana.NewWallet().PublicKey(), encodeTokenAccount(mint, fish, 400)),
			keyedAccount(whaleMain, encodeTokenAccount(mint, whale, 300)),
			keyedAccount(solana.NewWallet().PublicKey(), encodeTokenAccount(mint, empty, 0)),
			keyedAccount(solana.NewWallet().PublicKey(), encodeTokenAccount(otherMint, empty, 999)),
		}, nil
	})
	oldest := int64(1_700_000_000)
	srv.handle("getSignaturesForAddress", func(params []json.RawMessage) (interface{}, *rpcFailure) {
		var account string
		_ = json.Unmarshal(params[0], &account)
		if account != whaleMain.String() {
			return nil, &rpcFailure{Code: -32602, Message: "unexpected account " + account}
		}
		return []interface{}{
			signatureEntry(solana.Signature{1}, oldest+3600),
			signatureEntry(solana.Signature{2}, oldest),
		}, nil
	})

	l := newTestRPCLedger(t, srv, 1)
	holders, err := l.FetchHolders(context.Background(), mint.String(), 10)
	require.NoError(t, err)

	require.Len(t, holders, 2)
	assert.Equal(t, whale.String(), holders[0].Address)
	assert.InDelta(t, 5.0, holders[0].Balance, 1e-9)
	assert.Equal(t, "5", holders[0].BalanceFormatted)
	require.NotNil(t, holders[0].FirstTransactionAt)
	assert.True(t, holders[0].FirstTransactionAt.Equal(time.Unix(oldest, 0)))

	assert.Equal(t, fish.String(), holders[1].Address)
	assert.InDelta(t, 4.0, holders[1].Balance, 1e-9)
	assert.Nil(t, holders[1].FirstTransactionAt, "only the top holder is looked up")

	capped, err := l.FetchHolders(context.Background(), mint.String(), 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, whale.String(), capped[0].Address)
	assert.NotNil(t, capped[0].FirstTransactionAt)
	assert.Equal(t, 1, srv.count("getSignaturesForAddress"), "second lookup is served from cache")
}

func TestRPCFirstTxPageBudget(t *testing.T) {
	srv := newFakeRPC(t)
	srv.handle("getSignaturesForAddress", func([]json.RawMessage) (interface{}, *rpcFailure) {
		page := make([]interface{}, signaturesPageLimit)
		for i := range page {
			page[i] = signatureEntry(solana.Signature{byte(i), byte(i >> 8), 7}, 1_700_000_000)
		}
		return page, nil
	})

	l := newTestRPCLedger(t, srv, 1)
	_, err := l.firstTransactionAt(context.Background(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, errPageBudget)
	assert.Equal(t, 2, srv.count("getSignaturesForAddress"))
}

func TestAggregateByOwner(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	owners := aggregateByOwner([]tokenAccount{
		{Owner: a, Amount: 5},
		{Owner: b, Amount: 0},
		{Owner: b, Amount: 3},
		{Owner: a, Amount: 1},
	})
	require.Len(t, owners, 2)
	assert.Equal(t, a, owners[0].owner)
	assert.Equal(t, uint64(6), owners[0].amount)
	assert.Equal(t, uint64(5), owners[0].largest.Amount)
	assert.Equal(t, uint64(3), owners[1].amount)
}

func TestDecodeTokenAccountShort(t *testing.T) {
	_, err := decodeTokenAccount(solana.PublicKey{}, make([]byte, 10))
	assert.ErrorIs(t, err, errShortAccount)
}
