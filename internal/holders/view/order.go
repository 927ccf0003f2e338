package view

import (
	"sort"
	"strings"

	"token-holders/internal/holders/model"
)

// Sort returns a stably ordered copy of rows; rows itself is untouched.
func Sort(rows []model.EnrichedHolder, cfg model.SortConfig) []model.EnrichedHolder {
	out := make([]model.EnrichedHolder, len(rows))
	copy(out, rows)

	cmp := comparator(cfg.Field)
	desc := cfg.Direction == model.Desc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

func comparator(field model.SortField) func(a, b model.EnrichedHolder) int {
	switch field {
	case model.SortByAddress:
		return func(a, b model.EnrichedHolder) int { return strings.Compare(a.Address, b.Address) }
	case model.SortByBalance:
		return func(a, b model.EnrichedHolder) int { return compareFloat(a.Balance, b.Balance) }
	case model.SortByPercentage:
		return func(a, b model.EnrichedHolder) int { return compareFloat(a.Percentage, b.Percentage) }
	case model.SortByDaysHeld:
		return compareDaysHeld
	default:
		return func(a, b model.EnrichedHolder) int { return a.Rank - b.Rank }
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// unknown days held sort before any known value
func compareDaysHeld(a, b model.EnrichedHolder) int {
	switch {
	case a.DaysHeld == nil && b.DaysHeld == nil:
		return 0
	case a.DaysHeld == nil:
		return -1
	case b.DaysHeld == nil:
		return 1
	}
	return *a.DaysHeld - *b.DaysHeld
}
