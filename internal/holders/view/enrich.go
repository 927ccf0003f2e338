// Package view derives the ranked, enriched and queryable holder view from a
// raw holder snapshot. Everything here is pure: no I/O and no goroutines.
package view

import (
	"math"
	"sort"
	"time"

	"token-holders/internal/holders/classifier"
	"token-holders/internal/holders/model"
)

const day = 24 * time.Hour

// EnrichOptions tune a single enrichment pass.
type EnrichOptions struct {
	IsPool classifier.Predicate
	// RankByBalance re-sorts by descending balance before ranking instead of
	// trusting the collaborator's order.
	RankByBalance bool
}

// Enrich ranks holders in input order and derives percentage, days held and
// the pool flag. now is read by the caller once so the whole pass shares it.
func Enrich(holders []model.RawHolder, meta model.TokenMetadata, opts EnrichOptions, now time.Time) []model.EnrichedHolder {
	isPool := opts.IsPool
	if isPool == nil {
		isPool = classifier.None
	}

	ordered := holders
	if opts.RankByBalance {
		ordered = make([]model.RawHolder, len(holders))
		copy(ordered, holders)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Balance > ordered[j].Balance
		})
	}

	rows := make([]model.EnrichedHolder, len(ordered))
	for i, h := range ordered {
		rows[i] = model.EnrichedHolder{
			RawHolder:     h,
			Rank:          i + 1,
			Percentage:    Percentage(h.Balance, meta.TotalSupply),
			DaysHeld:      DaysHeld(h.FirstTransactionAt, now),
			IsPoolAccount: isPool(h.Address, meta.Address),
		}
	}
	return rows
}

// Percentage returns balance as a percentage of supply. A zero (or
// non-finite) supply yields 0.
func Percentage(balance, totalSupply float64) float64 {
	if totalSupply == 0 || math.IsNaN(totalSupply) || math.IsInf(totalSupply, 0) {
		return 0
	}
	p := balance / totalSupply * 100
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

// DaysHeld returns whole elapsed days since first, or nil when unknown.
// Timestamps in the future count as 0 days.
func DaysHeld(first *time.Time, now time.Time) *int {
	if first == nil || first.IsZero() {
		return nil
	}
	elapsed := now.Sub(*first)
	days := 0
	if elapsed > 0 {
		days = int(elapsed / day)
	}
	return &days
}
