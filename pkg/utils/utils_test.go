package utils

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustRawAmount(t *testing.T) {
	got, ok := AdjustRawAmount("123456789", 6)
	require.True(t, ok)
	assert.Equal(t, "123.456789", got.String())

	_, ok = AdjustRawAmount("not-a-number", 6)
	assert.False(t, ok)
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1.500000", FormatUnits(big.NewInt(1_500_000), 6))
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   string
		frac int32
		want string
	}{
		{"0", 2, "0"},
		{"999", 2, "999"},
		{"1000", 2, "1,000"},
		{"1234567.891", 2, "1,234,567.89"},
		{"-1234.5", 2, "-1,234.5"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatAmount(decimal.RequireFromString(c.in), c.frac), c.in)
	}
}

func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "EBuT...pump", ShortenAddress("EBuTz34KVi94uoiggg8BuR5DFsDkiTM572AL2Qzepump"))
	assert.Equal(t, "abc", ShortenAddress("abc"))
}

func TestChecksumAddress(t *testing.T) {
	upper := ChecksumAddress("0x15272209C6996E7DFA88C7463B899F4754794444", "bsc")
	lower := ChecksumAddress("0x15272209c6996e7dfa88c7463b899f4754794444", "BSC")
	assert.Equal(t, lower, upper)
	assert.Len(t, upper, 42)
	assert.Equal(t, "0x", upper[:2])
	assert.Equal(t, "So11111111111111111111111111111111111111112", ChecksumAddress(" So11111111111111111111111111111111111111112 ", "SOLANA"))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "holders:first_tx:SOLANA:abc", FirstTxCacheKey("SOLANA", "abc"))
}
