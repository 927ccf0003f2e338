package view

import "token-holders/internal/holders/model"

// ConcentrationTopN is the number of non-pool holders summed into
// Top10Concentration.
const ConcentrationTopN = 10

// Summarize computes the aggregate statistics over the full, unfiltered set.
func Summarize(rows []model.EnrichedHolder) model.ViewStats {
	return summarizeTopN(rows, ConcentrationTopN)
}

func summarizeTopN(rows []model.EnrichedHolder, topN int) model.ViewStats {
	stats := model.ViewStats{TotalHolders: len(rows)}

	// 先排除池子账户，再按排名取前 N，不重新排名
	taken := 0
	for _, r := range rows {
		if taken >= topN {
			break
		}
		if r.IsPoolAccount {
			continue
		}
		stats.Top10Concentration += r.Percentage
		taken++
	}

	var sum, n int
	for _, r := range rows {
		if r.DaysHeld == nil {
			continue
		}
		sum += *r.DaysHeld
		n++
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		stats.AvgDaysHeld = &avg
	}
	return stats
}
