package aggregate

import (
	"sort"

	"gagyebu/internal/core"
)

// DailyTotals sums monthTxs per calendar day, keyed by YYYY-MM-DD.
func DailyTotals(monthTxs []core.Transaction) map[string]core.DayTotals {
	out := make(map[string]core.DayTotals)
	for _, t := range monthTxs {
		day := t.Date.String()
		d := out[day]
		switch t.Kind {
		case core.Income:
			d.Income += t.Amount
		case core.Expense:
			d.Expense += t.Amount
		}
		d.Net = d.Income - d.Expense
		out[day] = d
	}
	return out
}

// DayGroups groups monthTxs by day, most recent day first. Transactions keep
// their relative input order within a day.
func DayGroups(monthTxs []core.Transaction) []core.DayGroup {
	totals := DailyTotals(monthTxs)
	byDay := make(map[string][]core.Transaction, len(totals))
	for _, t := range monthTxs {
		day := t.Date.String()
		byDay[day] = append(byDay[day], t)
	}

	out := make([]core.DayGroup, 0, len(byDay))
	for day, txs := range byDay {
		out = append(out, core.DayGroup{Date: day, Transactions: txs, Totals: totals[day]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
