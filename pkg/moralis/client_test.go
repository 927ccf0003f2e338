package moralis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"token-holders/internal/holders/config"
	"token-holders/pkg/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, srv *httptest.Server) *MoralisClient {
	t.Helper()
	c := NewMoralisClient(config.MoralisConfig{
		BaseURL:    srv.URL,
		GatewayURL: srv.URL + "/",
		APIKey:     "test-key",
		Timeout:    5,
	}, zap.NewNop())
	c.backoff = 0
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetSolanaTokenMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token/mainnet/Mint111/metadata", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"mint":"Mint111","name":"Token","symbol":"TKN","decimals":"6","totalSupply":"1000000000000"}`))
	}))
	defer srv.Close()

	meta, err := newTestClient(t, srv).GetSolanaTokenMetadata(context.Background(), "Mint111")
	require.NoError(t, err)
	assert.Equal(t, "TKN", meta.Symbol)
	assert.Equal(t, "6", meta.Decimals)
	assert.Equal(t, "1000000000000", meta.TotalSupply)
}

func TestGetSolanaTopHoldersPagesUntilMax(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		page := SolanaHoldersResp{Cursor: fmt.Sprintf("c%d", n)}
		for i := 0; i < pageSize; i++ {
			page.Result = append(page.Result, SolanaTokenHolder{
				OwnerAddress: fmt.Sprintf("owner-%d-%d", n, i),
				Balance:      "1",
			})
		}
		if n > 1 {
			assert.Equal(t, fmt.Sprintf("c%d", n-1), r.URL.Query().Get("cursor"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	holders, err := newTestClient(t, srv).GetSolanaTopHolders(context.Background(), "Mint111", 150)
	require.NoError(t, err)
	assert.Len(t, holders, 150)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "owner-1-0", holders[0].OwnerAddress)
}

func TestGetEvmTokenHolders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2.2/erc20/0xabc/owners", r.URL.Path)
		assert.Equal(t, "bsc", r.URL.Query().Get("chain"))
		assert.Equal(t, "DESC", r.URL.Query().Get("order"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cursor":"","result":[{"owner_address":"0x1","balance":"5"},{"owner_address":"0x2","balance":"3"}]}`))
	}))
	defer srv.Close()

	holders, err := newTestClient(t, srv).GetEvmTokenHolders(context.Background(), "BSC", "0xabc", 1000)
	require.NoError(t, err)
	require.Len(t, holders, 2)
	assert.Equal(t, "0x1", holders[0].OwnerAddress)
}

func TestGetEvmTokenMetadataEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).GetEvmTokenMetadata(context.Background(), "ETH", "0xabc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Token not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).GetSolanaTokenMetadata(context.Background(), "Missing")
	require.Error(t, err)

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Equal(t, "Token not found", httpErr.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"mint":"M","symbol":"OK","decimals":"9"}`))
	}))
	defer srv.Close()

	meta, err := newTestClient(t, srv).GetSolanaTokenMetadata(context.Background(), "M")
	require.NoError(t, err)
	assert.Equal(t, "OK", meta.Symbol)
	assert.Equal(t, int32(3), calls.Load())
}
