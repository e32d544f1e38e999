// Package core holds the pure domain model of the monthly ledger: months,
// transactions, goals, the savings history, and the derived metrics computed
// from them. Nothing in this package touches storage or performs I/O.
package core

import (
	"sort"
	"time"
)

// trailingDays is the window of the daily spending series.
const trailingDays = 7

type (
	// CategoryAmount is a per-category expense sum.
	CategoryAmount struct {
		Category Category `json:"category"`
		Amount   float64  `json:"amount"`
	}

	// DayAmount is the expense sum of a single calendar day.
	DayAmount struct {
		Date   string  `json:"date"`
		Label  string  `json:"label"` // short weekday, e.g. "Thu"
		Amount float64 `json:"amount"`
	}

	// Metrics is the full read-side view of one month. It is recomputed
	// from the transaction list on every read and never stored, so the
	// totals cannot drift from the transactions that back them.
	Metrics struct {
		Month                  MonthID          `json:"month"`
		Income                 float64          `json:"income"`
		TotalExpenses          float64          `json:"totalExpenses"`
		TotalGoalContributions float64          `json:"totalGoalContributions"`
		Leftover               float64          `json:"leftover"`
		TransactionCount       int              `json:"transactionCount"`
		ByCategory             []CategoryAmount `json:"byCategory"`
		MaxCategoryAmount      float64          `json:"maxCategoryAmount"`
		TrailingDays           []DayAmount      `json:"trailingDays"`
		MaxDailyAmount         float64          `json:"maxDailyAmount"`
		TopCategory            *CategoryAmount  `json:"topCategory,omitempty"`
		AverageDailySpend      float64          `json:"averageDailySpend"`
	}
)

// TotalExpenses sums the expense-type transaction amounts of a month.
func TotalExpenses(m MonthRecord) float64 {
	var sum float64
	for _, t := range m.Transactions {
		if t.Kind == KindExpense {
			sum += t.Amount
		}
	}
	return sum
}

// TotalGoalContributions sums the goal-contribution amounts of a month.
func TotalGoalContributions(m MonthRecord) float64 {
	var sum float64
	for _, t := range m.Transactions {
		if t.Kind == KindGoalContribution {
			sum += t.Amount
		}
	}
	return sum
}

// Leftover is income minus expenses minus goal contributions.
func Leftover(m MonthRecord) float64 {
	return m.Income - TotalExpenses(m) - TotalGoalContributions(m)
}

// CategoryBreakdown maps categories to summed expense amounts, sorted
// descending by amount. Goal contributions are excluded. Ties keep the order
// in which the categories appear in the transaction list.
func CategoryBreakdown(m MonthRecord) []CategoryAmount {
	sums := make(map[Category]float64)
	var order []Category
	for _, t := range m.Transactions {
		if t.Kind != KindExpense {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] += t.Amount
	}

	out := make([]CategoryAmount, 0, len(order))
	for _, c := range order {
		out = append(out, CategoryAmount{Category: c, Amount: sums[c]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	return out
}

// DailySeries returns the expense sums of the last seven calendar days,
// inclusive of today, ordered oldest to newest.
func DailySeries(m MonthRecord, today time.Time) []DayAmount {
	out := make([]DayAmount, 0, trailingDays)
	for i := trailingDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		date := day.Format(DateLayout)
		var sum float64
		for _, t := range m.Transactions {
			if t.Kind == KindExpense && t.Date == date {
				sum += t.Amount
			}
		}
		out = append(out, DayAmount{
			Date:   date,
			Label:  day.Format("Mon"),
			Amount: sum,
		})
	}
	return out
}

// ComputeMetrics derives the full read-side view of a month. It is a pure
// function of the record and the "today" anchor for the trailing-day series;
// calling it twice with unchanged inputs yields identical output.
func ComputeMetrics(id MonthID, m MonthRecord, today time.Time) Metrics {
	byCategory := CategoryBreakdown(m)
	series := DailySeries(m, today)

	// Chart maxima are floored at 1 so empty data still scales.
	maxCategory := 1.0
	for _, ca := range byCategory {
		if ca.Amount > maxCategory {
			maxCategory = ca.Amount
		}
	}
	var weekTotal float64
	maxDaily := 1.0
	for _, d := range series {
		weekTotal += d.Amount
		if d.Amount > maxDaily {
			maxDaily = d.Amount
		}
	}

	metrics := Metrics{
		Month:                  id,
		Income:                 m.Income,
		TotalExpenses:          TotalExpenses(m),
		TotalGoalContributions: TotalGoalContributions(m),
		Leftover:               Leftover(m),
		TransactionCount:       len(m.Transactions),
		ByCategory:             byCategory,
		MaxCategoryAmount:      maxCategory,
		TrailingDays:           series,
		MaxDailyAmount:         maxDaily,
		AverageDailySpend:      weekTotal / trailingDays,
	}
	if len(byCategory) > 0 {
		top := byCategory[0]
		metrics.TopCategory = &top
	}
	return metrics
}
