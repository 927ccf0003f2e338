package model

import (
	"fmt"
	"strings"
	"time"
)

// QueryResult 一次成功查询的结果，下一次查询时整体替换
type QueryResult struct {
	Identifier string           `json:"identifier"`
	Metadata   TokenMetadata    `json:"metadata"`
	Holders    []RawHolder      `json:"-"`
	Rows       []EnrichedHolder `json:"rows"`
	FetchedAt  time.Time        `json:"fetched_at"`
}

type SortField string

const (
	SortByRank       SortField = "rank"
	SortByAddress    SortField = "address"
	SortByBalance    SortField = "balance"
	SortByPercentage SortField = "percentage"
	SortByDaysHeld   SortField = "daysHeld"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// SortConfig 排序配置，由展示层持有
type SortConfig struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

func DefaultSortConfig() SortConfig {
	return SortConfig{Field: SortByRank, Direction: Asc}
}

// Toggle 同字段切换升降序，换字段重置为升序
func (s SortConfig) Toggle(field SortField) SortConfig {
	if s.Field == field && s.Direction == Asc {
		return SortConfig{Field: field, Direction: Desc}
	}
	return SortConfig{Field: field, Direction: Asc}
}

// ParseSortField accepts the canonical names plus snake_case spellings.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rank":
		return SortByRank, nil
	case "address":
		return SortByAddress, nil
	case "balance":
		return SortByBalance, nil
	case "percentage", "percent":
		return SortByPercentage, nil
	case "daysheld", "days_held", "days":
		return SortByDaysHeld, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// ViewStats 汇总统计，基于未过滤的全部持有人
type ViewStats struct {
	TotalHolders       int      `json:"total_holders"`
	Top10Concentration float64  `json:"top10_concentration"`
	AvgDaysHeld        *float64 `json:"avg_days_held"` // nil 表示 N/A
}
