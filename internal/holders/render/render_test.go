package render

import (
	"bytes"
	"strings"
	"testing"

	"token-holders/internal/holders/model"
	"token-holders/internal/holders/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatters(t *testing.T) {
	assert.Equal(t, "10.00%", Percent(10))
	assert.Equal(t, "0.12%", Percent(0.123))
	assert.Equal(t, NotAvailable, DaysHeld(nil))
	d := 7
	assert.Equal(t, "7", DaysHeld(&d))
	assert.Equal(t, NotAvailable, AvgDaysHeld(nil))
	avg := 2.26
	assert.Equal(t, "2.3", AvgDaysHeld(&avg))
	assert.Equal(t, "1,234.5", Balance(model.RawHolder{Balance: 1234.5}))
	assert.Equal(t, "as-is", Balance(model.RawHolder{Balance: 1, BalanceFormatted: "as-is"}))

	ms := int64(12)
	assert.Equal(t, "RPC (12ms)", Endpoint(model.EndpointInfo{Name: "RPC", LatencyMs: &ms}))
	assert.Equal(t, "RPC", Endpoint(model.EndpointInfo{Name: "RPC"}))
}

func TestTable(t *testing.T) {
	rows := []model.EnrichedHolder{
		{RawHolder: model.RawHolder{Address: "EBuTz34KVi94uoiggg8BuR5DFsDkiTM572AL2Qzepump", BalanceFormatted: "100,000"}, Rank: 1, Percentage: 10, IsPoolAccount: true},
		{RawHolder: model.RawHolder{Address: "B", BalanceFormatted: "50,000"}, Rank: 2, Percentage: 5},
	}
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, view.View{Rows: rows}, model.SortConfig{Field: model.SortByBalance, Direction: model.Desc}, 1))

	out := buf.String()
	assert.Contains(t, out, "BALANCE v")
	assert.Contains(t, out, "EBuT...pump")
	assert.Contains(t, out, "POOL")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "... 1 more")
	assert.NotContains(t, out, "50,000")

	buf.Reset()
	require.NoError(t, Table(&buf, view.View{}, model.DefaultSortConfig(), 0))
	assert.True(t, strings.HasSuffix(buf.String(), "no holders match\n"))
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	avg := 12.0
	require.NoError(t, Summary(&buf,
		model.TokenMetadata{Symbol: "TKN", Address: "Mint", Decimals: 6, TotalSupply: 1_000_000},
		model.ViewStats{TotalHolders: 2, Top10Concentration: 15, AvgDaysHeld: &avg},
		model.EndpointInfo{Name: "Solana Mainnet"}))

	out := buf.String()
	assert.Contains(t, out, "TKN")
	assert.Contains(t, out, "1,000,000")
	assert.Contains(t, out, "15.00%")
	assert.Contains(t, out, "12.0")
	assert.Contains(t, out, "Solana Mainnet")
}
