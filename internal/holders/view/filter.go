package view

import (
	"strings"

	"token-holders/internal/holders/model"
)

// Filter keeps the holders whose address contains term, ignoring case.
// An empty term keeps everything.
func Filter(rows []model.EnrichedHolder, term string) []model.EnrichedHolder {
	if term == "" {
		out := make([]model.EnrichedHolder, len(rows))
		copy(out, rows)
		return out
	}
	needle := strings.ToLower(term)
	out := make([]model.EnrichedHolder, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Address), needle) {
			out = append(out, r)
		}
	}
	return out
}
