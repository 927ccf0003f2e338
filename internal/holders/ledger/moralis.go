package ledger

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"token-holders/internal/holders/config"
	"token-holders/internal/holders/model"
	"token-holders/internal/holders/monitor"
	"token-holders/pkg/httpclient"
	"token-holders/pkg/moralis"
	"token-holders/pkg/utils"
	holdingutils "token-holders/pkg/utils/holding_utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const moralisEndpointName = "Moralis"

// MoralisLedger reads metadata and holders from the Moralis indexing API.
type MoralisLedger struct {
	cfg    config.LedgerConfig
	client *moralis.MoralisClient
	tl     *zap.Logger
}

func NewMoralisLedger(cfg config.LedgerConfig, mcfg config.MoralisConfig, tl *zap.Logger) *MoralisLedger {
	return &MoralisLedger{
		cfg:    cfg,
		client: moralis.NewMoralisClient(mcfg, tl),
		tl:     tl,
	}
}

func (l *MoralisLedger) ValidateAddressSyntax(candidate string) bool {
	return ValidateAddressSyntax(l.cfg.Network, candidate)
}

func (l *MoralisLedger) CurrentEndpointInfo() model.EndpointInfo {
	return model.EndpointInfo{Name: moralisEndpointName}
}

func (l *MoralisLedger) Close() error {
	return l.client.Close()
}

func (l *MoralisLedger) evm() bool {
	return utils.IsEvmNetwork(l.cfg.Network)
}

func (l *MoralisLedger) FetchTokenMetadata(ctx context.Context, address string) (model.TokenMetadata, error) {
	if !l.ValidateAddressSyntax(address) {
		return model.TokenMetadata{}, newQueryError(OpMetadata, address, MsgInvalidAddress, nil)
	}

	var (
		meta                    model.TokenMetadata
		rawDecimals, rawSupply  string
		formattedSupply, symbol string
		name, tokenAddress      string
	)
	if l.evm() {
		m, err := l.client.GetEvmTokenMetadata(ctx, l.cfg.Network, address)
		monitor.ObserveLedger("moralis_erc20_metadata", err)
		if err != nil {
			return meta, newQueryError(OpMetadata, address, moralisMessage(err, MsgMetadataFailed), err)
		}
		rawDecimals, rawSupply, formattedSupply = m.Decimals, m.TotalSupply, m.TotalSupplyFormatted
		symbol, name, tokenAddress = m.Symbol, m.Name, utils.ChecksumAddress(m.Address, l.cfg.Network)
	} else {
		m, err := l.client.GetSolanaTokenMetadata(ctx, address)
		monitor.ObserveLedger("moralis_spl_metadata", err)
		if err != nil {
			return meta, newQueryError(OpMetadata, address, moralisMessage(err, MsgMetadataFailed), err)
		}
		rawDecimals, rawSupply, formattedSupply = m.Decimals, m.TotalSupply, m.TotalSupplyFormatted
		symbol, name, tokenAddress = m.Symbol, m.Name, m.Mint
	}

	decimals, err := strconv.Atoi(strings.TrimSpace(rawDecimals))
	if err != nil || decimals < 0 || decimals > 255 {
		decimals = 0
	}
	if tokenAddress == "" {
		tokenAddress = address
	}
	meta = model.TokenMetadata{
		Address:     tokenAddress,
		Symbol:      symbol,
		Name:        name,
		Decimals:    decimals,
		TotalSupply: scaledAmount(rawSupply, formattedSupply, uint8(decimals)).InexactFloat64(),
	}
	return meta, nil
}

// FetchHolders never sets FirstTransactionAt: neither Moralis endpoint reports
// when a holder first received the token.
func (l *MoralisLedger) FetchHolders(ctx context.Context, address string, maxCount int) ([]model.RawHolder, error) {
	if !l.ValidateAddressSyntax(address) {
		return nil, newQueryError(OpHolders, address, MsgInvalidAddress, nil)
	}

	var holders []model.RawHolder
	if l.evm() {
		res, err := l.client.GetEvmTokenHolders(ctx, l.cfg.Network, address, maxCount)
		monitor.ObserveLedger("moralis_erc20_owners", err)
		if err != nil {
			return nil, newQueryError(OpHolders, address, moralisMessage(err, MsgHoldersFailed), err)
		}
		holders = make([]model.RawHolder, 0, len(res))
		for _, h := range res {
			holders = append(holders, toRawHolder(utils.ChecksumAddress(h.OwnerAddress, l.cfg.Network), h.BalanceFormatted))
		}
	} else {
		res, err := l.client.GetSolanaTopHolders(ctx, address, maxCount)
		monitor.ObserveLedger("moralis_spl_top_holders", err)
		if err != nil {
			return nil, newQueryError(OpHolders, address, moralisMessage(err, MsgHoldersFailed), err)
		}
		holders = make([]model.RawHolder, 0, len(res))
		for _, h := range res {
			holders = append(holders, toRawHolder(h.OwnerAddress, h.BalanceFormatted))
		}
	}
	return holdingutils.DeduplicateHolders(holders), nil
}

func toRawHolder(owner, balanceFormatted string) model.RawHolder {
	amount, err := decimal.NewFromString(strings.TrimSpace(balanceFormatted))
	if err != nil {
		amount = decimal.Zero
	}
	return model.RawHolder{
		Address:          owner,
		Balance:          amount.InexactFloat64(),
		BalanceFormatted: utils.FormatAmount(amount, 6),
	}
}

// scaledAmount prefers the raw integer supply and falls back to the
// formatted one.
func scaledAmount(raw, formatted string, decimals uint8) decimal.Decimal {
	if v, ok := utils.AdjustRawAmount(raw, decimals); ok {
		return v
	}
	if v, err := decimal.NewFromString(strings.TrimSpace(formatted)); err == nil {
		return v
	}
	return decimal.Zero
}

func moralisMessage(err error, fallback string) string {
	if errors.Is(err, moralis.ErrNotFound) {
		return MsgTokenNotFound
	}
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) && (httpErr.Code == http.StatusNotFound || httpErr.Code == http.StatusBadRequest) {
		return MsgTokenNotFound
	}
	return fallback
}
