// Package render prints holder views as plain text tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"token-holders/internal/holders/model"
	"token-holders/internal/holders/view"
	"token-holders/pkg/utils"

	"github.com/shopspring/decimal"
)

const NotAvailable = "N/A"

func Percent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + "%"
}

func DaysHeld(d *int) string {
	if d == nil {
		return NotAvailable
	}
	return strconv.Itoa(*d)
}

func AvgDaysHeld(avg *float64) string {
	if avg == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*avg, 'f', 1, 64)
}

func Balance(h model.RawHolder) string {
	if h.BalanceFormatted != "" {
		return h.BalanceFormatted
	}
	return utils.FormatAmount(decimal.NewFromFloat(h.Balance), 4)
}

func Endpoint(info model.EndpointInfo) string {
	if info.LatencyMs == nil {
		return info.Name
	}
	return fmt.Sprintf("%s (%dms)", info.Name, *info.LatencyMs)
}

// Summary prints token info and view statistics.
func Summary(w io.Writer, meta model.TokenMetadata, stats model.ViewStats, endpoint model.EndpointInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	name := meta.Symbol
	if meta.Name != "" {
		name = fmt.Sprintf("%s (%s)", meta.Name, meta.Symbol)
	}
	fmt.Fprintf(tw, "Token:\t%s\t%s\n", name, meta.Address)
	fmt.Fprintf(tw, "Total supply:\t%s\tdecimals %d\n", utils.FormatAmount(decimal.NewFromFloat(meta.TotalSupply), 4), meta.Decimals)
	fmt.Fprintf(tw, "Holders:\t%d\t\n", stats.TotalHolders)
	fmt.Fprintf(tw, "Top 10 concentration:\t%s\texcluding pool accounts\n", Percent(stats.Top10Concentration))
	fmt.Fprintf(tw, "Avg days held:\t%s\t\n", AvgDaysHeld(stats.AvgDaysHeld))
	fmt.Fprintf(tw, "Endpoint:\t%s\t\n", Endpoint(endpoint))
	return tw.Flush()
}

var columns = []struct {
	title string
	field model.SortField
	right bool
}{
	{"RANK", model.SortByRank, true},
	{"ADDRESS", model.SortByAddress, false},
	{"BALANCE", model.SortByBalance, true},
	{"%", model.SortByPercentage, true},
	{"DAYS HELD", model.SortByDaysHeld, true},
}

// Table prints rows with the active sort column marked.
func Table(w io.Writer, v view.View, cfg model.SortConfig, limit int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, col := range columns {
		title := col.title
		if col.field == cfg.Field {
			title += arrow(cfg.Direction)
		}
		fmt.Fprintf(tw, "%s\t", title)
	}
	fmt.Fprintln(tw, "\t")

	rows := v.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, r := range rows {
		pool := ""
		if r.IsPoolAccount {
			pool = "POOL"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Rank, utils.ShortenAddress(r.Address), Balance(r.RawHolder), Percent(r.Percentage), DaysHeld(r.DaysHeld), pool)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(rows) < len(v.Rows) {
		_, err := fmt.Fprintf(w, "... %d more\n", len(v.Rows)-len(rows))
		return err
	}
	if len(v.Rows) == 0 {
		_, err := fmt.Fprintln(w, "no holders match")
		return err
	}
	return nil
}

func arrow(d model.SortDirection) string {
	if d == model.Desc {
		return " v"
	}
	return " ^"
}
