package aggregate

import "gagyebu/internal/core"

// BuildMonthView computes everything shown for month k in one pass over the
// snapshot.
func BuildMonthView(txs []core.Transaction, fixed []core.FixedItemVersion, k core.MonthKey, window int) core.MonthView {
	monthTxs := TransactionsInMonth(txs, k)
	stats := MonthlyStats(txs, fixed, k)

	return core.MonthView{
		MonthKey:        k,
		Stats:           stats,
		BalanceLabel:    stats.BalanceLabel(),
		Categories:      CategoryBreakdown(monthTxs),
		Days:            DayGroups(monthTxs),
		DailyTotals:     DailyTotals(monthTxs),
		PrevDailyTotals: DailyTotals(TransactionsInMonth(txs, k.Prev())),
		FixedGroups:     GroupedFixedItems(ActiveFixed(fixed, k)),
		Comparison:      MonthComparison(txs, fixed, k.Year(), k.Month(), window),
	}
}
