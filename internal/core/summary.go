package core

import "github.com/shopspring/decimal"

// MonthStats is the income/expense summary of a single month.
type MonthStats struct {
	MonthKey           MonthKey `json:"monthKey"`
	Income             int64    `json:"income"`
	Expense            int64    `json:"expense"`
	Balance            int64    `json:"balance"`
	FixedIncome        int64    `json:"fixedIncome"`
	FixedExpense       int64    `json:"fixedExpense"`
	TransactionIncome  int64    `json:"transactionIncome"`
	TransactionExpense int64    `json:"transactionExpense"`
}

// BalanceLabel is the presentation label for the sign of Balance.
func (s MonthStats) BalanceLabel() string {
	if s.Balance >= 0 {
		return "net savings"
	}
	return "net spend"
}

// CategoryTotal is the amount aggregated by category. Ratio is the total
// relative to the largest category of the same breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Kind     Kind            `json:"kind"`
	Total    int64           `json:"total"`
	Ratio    decimal.Decimal `json:"ratio"`
}

// DayTotals sums a single day.
type DayTotals struct {
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Net     int64 `json:"net"`
}

// DayGroup is the list of transactions recorded on one day.
type DayGroup struct {
	Date         string        `json:"date"`
	Transactions []Transaction `json:"transactions"`
	Totals       DayTotals     `json:"totals"`
}

// FixedGroup is a folder of active fixed items.
type FixedGroup struct {
	Name    string             `json:"name"`
	Items   []FixedItemVersion `json:"items"`
	Income  int64              `json:"income"`
	Expense int64              `json:"expense"`
}

// MonthSummary is one entry of a multi-month comparison.
type MonthSummary struct {
	MonthKey MonthKey `json:"monthKey"`
	Income   int64    `json:"income"`
	Expense  int64    `json:"expense"`
	Net      int64    `json:"net"`
}

// MonthView bundles every derived figure shown for a selected month.
type MonthView struct {
	MonthKey        MonthKey             `json:"monthKey"`
	Stats           MonthStats           `json:"stats"`
	BalanceLabel    string               `json:"balanceLabel"`
	Categories      []CategoryTotal      `json:"categories"`
	Days            []DayGroup           `json:"days"`
	DailyTotals     map[string]DayTotals `json:"dailyTotals"`
	PrevDailyTotals map[string]DayTotals `json:"prevDailyTotals"`
	FixedGroups     []FixedGroup         `json:"fixedGroups"`
	Comparison      []MonthSummary       `json:"comparison"`
}
