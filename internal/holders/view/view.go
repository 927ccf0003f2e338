package view

import (
	"time"

	"token-holders/internal/holders/model"
)

// View is what a presentation layer renders: the filtered, ordered rows and
// statistics over the whole set.
type View struct {
	Rows  []model.EnrichedHolder `json:"rows"`
	Stats model.ViewStats        `json:"stats"`
}

// ComputeView enriches holders and projects them through sort and search.
func ComputeView(holders []model.RawHolder, meta model.TokenMetadata, cfg model.SortConfig, term string, opts EnrichOptions, now time.Time) View {
	return Project(Enrich(holders, meta, opts, now), cfg, term)
}

// Project re-derives a view from already enriched rows. Filter runs before
// sort; stats ignore both.
func Project(rows []model.EnrichedHolder, cfg model.SortConfig, term string) View {
	return View{
		Rows:  Sort(Filter(rows, term), cfg),
		Stats: Summarize(rows),
	}
}
