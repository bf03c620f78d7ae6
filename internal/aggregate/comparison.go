package aggregate

import (
	"time"

	"gagyebu/internal/core"
)

// DefaultComparisonWindow is the number of months in a comparison series.
const DefaultComparisonWindow = 6

// MonthComparison returns window entries starting at the anchor month and
// walking backwards one month at a time. A window below 1 uses
// DefaultComparisonWindow.
func MonthComparison(txs []core.Transaction, fixed []core.FixedItemVersion, year int, month time.Month, window int) []core.MonthSummary {
	if window < 1 {
		window = DefaultComparisonWindow
	}
	out := make([]core.MonthSummary, 0, window)
	k := core.NewMonthKey(year, month)
	for i := 0; i < window; i++ {
		s := MonthlyStats(txs, fixed, k)
		out = append(out, core.MonthSummary{
			MonthKey: k,
			Income:   s.Income,
			Expense:  s.Expense,
			Net:      s.Balance,
		})
		k = k.Prev()
	}
	return out
}
