package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"token-holders/internal/holders/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const splMint = "EBuTz34KVi94uoiggg8BuR5DFsDkiTM572AL2Qzepump"

func newTestMoralisLedger(t *testing.T, network string, h http.HandlerFunc) *MoralisLedger {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	l := NewMoralisLedger(
		config.LedgerConfig{Provider: config.ProviderMoralis, Network: network},
		config.MoralisConfig{BaseURL: srv.URL, GatewayURL: srv.URL, APIKey: "k", Timeout: 5},
		zap.NewNop(),
	)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestMoralisSolanaMetadataAndHolders(t *testing.T) {
	l := newTestMoralisLedger(t, "SOLANA", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token/mainnet/" + splMint + "/metadata":
			_, _ = w.Write([]byte(`{"mint":"` + splMint + `","symbol":"PUMP","name":"Pump","decimals":"6","totalSupply":"1000000000000000","totalSupplyFormatted":"1000000000"}`))
		case "/token/mainnet/" + splMint + "/top-holders":
			_, _ = w.Write([]byte(`{"cursor":"","result":[
				{"ownerAddress":"pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA","balanceFormatted":"200000000.5"},
				{"ownerAddress":"Wallet1","balanceFormatted":"1234.5"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	meta, err := l.FetchTokenMetadata(context.Background(), splMint)
	require.NoError(t, err)
	assert.Equal(t, "PUMP", meta.Symbol)
	assert.Equal(t, 6, meta.Decimals)
	assert.InDelta(t, 1e9, meta.TotalSupply, 1e-6)

	holders, err := l.FetchHolders(context.Background(), splMint, 1000)
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.InDelta(t, 200000000.5, holders[0].Balance, 1e-6)
	assert.Equal(t, "200,000,000.5", holders[0].BalanceFormatted)
	assert.Equal(t, "Wallet1", holders[1].Address)
	// Moralis 不返回首笔交易时间，持有天数在视图中始终为 N/A
	for _, h := range holders {
		assert.Nil(t, h.FirstTransactionAt, h.Address)
	}
}

func TestMoralisEvmMetadata(t *testing.T) {
	const token = "0x15272209c6996e7dfa88c7463b899f4754794444"
	l := newTestMoralisLedger(t, "BSC", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2.2/erc20/metadata", r.URL.Path)
		assert.Equal(t, "bsc", r.URL.Query().Get("chain"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"address":"` + token + `","symbol":"EVM","decimals":"18","total_supply":"5000000000000000000000"}]`))
	})

	meta, err := l.FetchTokenMetadata(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 18, meta.Decimals)
	assert.InDelta(t, 5000.0, meta.TotalSupply, 1e-9)
	assert.True(t, strings.EqualFold(token, meta.Address))
	assert.Len(t, meta.Address, 42)
}

func TestMoralisNotFound(t *testing.T) {
	l := newTestMoralisLedger(t, "SOLANA", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Token not found"}`))
	})

	_, err := l.FetchTokenMetadata(context.Background(), splMint)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, MsgTokenNotFound, qe.Message)

	_, err = l.FetchHolders(context.Background(), "bad address", 10)
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, MsgInvalidAddress, qe.Message)
}
