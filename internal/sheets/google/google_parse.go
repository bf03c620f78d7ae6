package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gagyebu/internal/core"
)

type summaryRow struct {
	// row is the 1-based sheet row number.
	row     int
	owner   string
	summary core.MonthSummary
}

type rowUpdate struct {
	row    int
	values []any
}

type writePlan struct {
	updates []rowUpdate
	appends [][]any
}

// parseRows reads summary rows, skipping the header and anything malformed.
func parseRows(values [][]any) []summaryRow {
	var out []summaryRow
	for i, raw := range values {
		cols := toStrings(raw)
		if len(cols) < 5 {
			continue
		}
		k, err := core.ParseMonthKey(cols[1])
		if err != nil {
			continue
		}
		income, ok1 := parseWon(cols[2])
		expense, ok2 := parseWon(cols[3])
		net, ok3 := parseWon(cols[4])
		if !ok1 || !ok2 || !ok3 || cols[0] == "" {
			continue
		}
		out = append(out, summaryRow{
			row:     i + 1,
			owner:   cols[0],
			summary: core.MonthSummary{MonthKey: k, Income: income, Expense: expense, Net: net},
		})
	}
	return out
}

// planWrites decides which summaries overwrite an existing row and which are
// appended. A header is prepended when the sheet is empty.
func planWrites(values [][]any, ownerID string, summaries []core.MonthSummary, now time.Time) writePlan {
	existing := map[core.MonthKey]int{}
	for _, r := range parseRows(values) {
		if r.owner == ownerID {
			existing[r.summary.MonthKey] = r.row
		}
	}

	stamp := now.UTC().Format(time.RFC3339)
	var plan writePlan
	if len(values) == 0 {
		plan.appends = append(plan.appends, header)
	}
	for _, m := range summaries {
		vals := []any{ownerID, m.MonthKey.String(), m.Income, m.Expense, m.Net, stamp}
		if row, ok := existing[m.MonthKey]; ok {
			plan.updates = append(plan.updates, rowUpdate{row: row, values: vals})
			continue
		}
		plan.appends = append(plan.appends, vals)
	}
	return plan
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// parseWon accepts plain or grouped integers ("1,250,000") and unformatted
// numbers rendered by the API ("1.25e+06").
func parseWon(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.Round(0).IntPart(), true
}
