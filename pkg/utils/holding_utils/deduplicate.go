package holdingutils

import (
	"strings"

	"token-holders/internal/holders/model"
)

// DeduplicateHolders 根据地址去重，保留第一次出现的记录。
// 分页接口在余额变化时可能在相邻两页返回同一个地址。
func DeduplicateHolders(holders []model.RawHolder) []model.RawHolder {
	deduplicated := make([]model.RawHolder, 0, len(holders))
	seen := make(map[string]struct{}, len(holders))
	for _, holder := range holders {
		key := strings.ToLower(holder.Address)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			deduplicated = append(deduplicated, holder)
		}
	}
	return deduplicated
}
