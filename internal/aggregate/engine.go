// Package aggregate derives monthly figures from a snapshot of transactions
// and fixed item versions.
//
// Every function is pure: inputs are never mutated and the result depends
// only on the arguments, so callers may share snapshots across goroutines.
package aggregate

import "gagyebu/internal/core"

// TransactionsInMonth returns the transactions dated within k, in input order.
func TransactionsInMonth(txs []core.Transaction, k core.MonthKey) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.Date.MonthKey() == k {
			out = append(out, t)
		}
	}
	return out
}

// ActiveFixed returns the fixed item versions active for k, in input order.
func ActiveFixed(fixed []core.FixedItemVersion, k core.MonthKey) []core.FixedItemVersion {
	out := make([]core.FixedItemVersion, 0, len(fixed))
	for _, v := range fixed {
		if v.IsActiveFor(k) {
			out = append(out, v)
		}
	}
	return out
}

// MonthlyStats sums income and expense for month k. Transactions outside k
// and versions inactive for k are ignored; an empty month yields zeros.
func MonthlyStats(txs []core.Transaction, fixed []core.FixedItemVersion, k core.MonthKey) core.MonthStats {
	s := core.MonthStats{MonthKey: k}
	for _, t := range txs {
		if t.Date.MonthKey() != k {
			continue
		}
		switch t.Kind {
		case core.Income:
			s.TransactionIncome += t.Amount
		case core.Expense:
			s.TransactionExpense += t.Amount
		}
	}
	for _, v := range fixed {
		if !v.IsActiveFor(k) {
			continue
		}
		switch v.Kind {
		case core.Income:
			s.FixedIncome += v.Amount
		case core.Expense:
			s.FixedExpense += v.Amount
		}
	}
	s.Income = s.TransactionIncome + s.FixedIncome
	s.Expense = s.TransactionExpense + s.FixedExpense
	s.Balance = s.Income - s.Expense
	return s
}
