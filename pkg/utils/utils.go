package utils

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// IsUnixSeconds 检查时间戳是否为秒级
func IsUnixSeconds(ts int64) bool {
	// 定义时间戳范围：1970-01-01 到 2100-01-01
	const maxUnix = 4_102_444_800 // 2100-01-01 00:00:00 UTC
	return ts >= 0 && ts < maxUnix
}

// IsEvmNetwork reports whether addresses on network use 0x hex encoding.
func IsEvmNetwork(network string) bool {
	switch strings.ToUpper(strings.TrimSpace(network)) {
	case "BSC", "ETH", "POLYGON", "BASE", "ARBITRUM":
		return true
	}
	return false
}

// ChecksumAddress 将 EVM 地址转换为 EIP-55 Checksum 格式
func ChecksumAddress(addr string, network string) string {
	if addr == "" {
		return ""
	}

	addr = strings.TrimSpace(addr)

	if IsEvmNetwork(network) {
		// 去掉前缀，统一小写处理
		addr = strings.TrimPrefix(strings.ToLower(addr), "0x")
		return common.HexToAddress("0x" + addr).Hex()
	}

	// 非 EVM 网络，直接返回原始地址
	return addr
}

// AdjustDecimals 调整精度显示
func AdjustDecimals(value *big.Int, decimals uint8) decimal.Decimal {
	decimalValue := decimal.NewFromBigInt(value, 0)
	divisor := decimal.New(1, int32(decimals))
	return decimalValue.Div(divisor)
}

// AdjustRawAmount parses a raw integer amount string and scales it by decimals.
func AdjustRawAmount(raw string, decimals uint8) (decimal.Decimal, bool) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return decimal.Zero, false
	}
	return AdjustDecimals(value, decimals), true
}

// FormatUnits 格式化单位转换
func FormatUnits(amount *big.Int, decimals uint8) string {
	decimalAmount := decimal.NewFromBigInt(amount, 0)
	divisor := decimal.New(1, int32(decimals))
	result := decimalAmount.Div(divisor)
	return result.StringFixed(int32(decimals))
}

// FormatAmount renders a scaled amount with thousands separators and at most
// maxFraction fractional digits, trailing zeros trimmed.
func FormatAmount(amount decimal.Decimal, maxFraction int32) string {
	s := amount.Round(maxFraction).String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}

// ShortenAddress 地址缩写，例如 EBuT...pump
func ShortenAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
