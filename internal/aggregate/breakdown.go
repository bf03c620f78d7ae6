package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"gagyebu/internal/core"
)

const ratioPlaces = 4

type categoryKey struct {
	kind     core.Kind
	category string
}

// CategoryBreakdown totals monthTxs per (kind, category), largest first.
// Ratio is each total relative to the largest one. An empty input yields an
// empty, non-nil slice.
func CategoryBreakdown(monthTxs []core.Transaction) []core.CategoryTotal {
	totals := make(map[categoryKey]int64)
	for _, t := range monthTxs {
		totals[categoryKey{t.Kind, t.Category}] += t.Amount
	}

	out := make([]core.CategoryTotal, 0, len(totals))
	var max int64
	for k, total := range totals {
		out = append(out, core.CategoryTotal{Category: k.category, Kind: k.kind, Total: total})
		if total > max {
			max = total
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Kind < out[j].Kind
	})

	if max <= 0 {
		return out
	}
	denom := decimal.NewFromInt(max)
	for i := range out {
		out[i].Ratio = decimal.NewFromInt(out[i].Total).DivRound(denom, ratioPlaces)
	}
	return out
}
