package model

import "time"

// RawHolder 链上查询返回的原始持仓记录
type RawHolder struct {
	Address            string     `json:"address"`
	Balance            float64    `json:"balance"`           // 已按 decimals 换算
	BalanceFormatted   string     `json:"balance_formatted"` // 带千分位的展示字符串
	FirstTransactionAt *time.Time `json:"first_transaction_at,omitempty"`
}

// TokenMetadata token 基础信息
type TokenMetadata struct {
	Address      string  `json:"address"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name,omitempty"`
	Decimals     int     `json:"decimals"`
	TotalSupply  float64 `json:"total_supply"`
	HoldersCount int     `json:"holders_count"` // 由拉取到的持有人数量覆盖，不来自元数据接口
}

// EnrichedHolder 排名后的持有人
type EnrichedHolder struct {
	RawHolder
	Rank          int     `json:"rank"`
	Percentage    float64 `json:"percentage"`
	DaysHeld      *int    `json:"days_held,omitempty"`
	IsPoolAccount bool    `json:"is_pool_account"`
}

// EndpointInfo 当前使用的 RPC 节点
type EndpointInfo struct {
	Name      string `json:"name"`
	LatencyMs *int64 `json:"latency_ms,omitempty"`
}
