package core

import (
	"math"
	"testing"
	"time"
)

func expense(id int64, amount float64, cat Category, date string) Transaction {
	return Transaction{ID: id, Kind: KindExpense, Amount: amount, Category: cat, Date: date}
}

func contribution(id int64, amount float64, goalID, date string) Transaction {
	return Transaction{ID: id, Kind: KindGoalContribution, Amount: amount, GoalID: goalID, Date: date}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLeftoverDerivation(t *testing.T) {
	m := MonthRecord{
		Income: 5000,
		Transactions: []Transaction{
			expense(3, 1200, CategoryBills, "2026-08-10"),
			contribution(2, 500, "g1", "2026-08-05"),
			expense(1, 1800, CategoryFood, "2026-08-02"),
		},
		IsOpen: true,
	}

	if got := TotalExpenses(m); !almostEqual(got, 3000) {
		t.Errorf("TotalExpenses = %v, want 3000", got)
	}
	if got := TotalGoalContributions(m); !almostEqual(got, 500) {
		t.Errorf("TotalGoalContributions = %v, want 500", got)
	}
	if got := Leftover(m); !almostEqual(got, 1500) {
		t.Errorf("Leftover = %v, want 1500", got)
	}
}

func TestLeftover_EmptyMonth(t *testing.T) {
	m := MonthRecord{Income: 0, IsOpen: true}
	if got := Leftover(m); got != 0 {
		t.Errorf("Leftover of empty month = %v, want 0", got)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	tests := []struct {
		name string
		m    MonthRecord
		want []CategoryAmount
	}{
		{
			name: "sorted descending, contributions excluded",
			m: MonthRecord{
				Transactions: []Transaction{
					expense(4, 50, CategoryFood, "2026-08-20"),
					contribution(3, 999, "g1", "2026-08-15"),
					expense(2, 200, CategoryBills, "2026-08-10"),
					expense(1, 30, CategoryFood, "2026-08-01"),
				},
			},
			want: []CategoryAmount{
				{Category: CategoryBills, Amount: 200},
				{Category: CategoryFood, Amount: 80},
			},
		},
		{
			name: "ties keep input order",
			m: MonthRecord{
				Transactions: []Transaction{
					expense(3, 100, CategoryHealth, "2026-08-03"),
					expense(2, 100, CategoryTransport, "2026-08-02"),
					expense(1, 100, CategoryShopping, "2026-08-01"),
				},
			},
			want: []CategoryAmount{
				{Category: CategoryHealth, Amount: 100},
				{Category: CategoryTransport, Amount: 100},
				{Category: CategoryShopping, Amount: 100},
			},
		},
		{
			name: "no expenses",
			m:    MonthRecord{Transactions: []Transaction{contribution(1, 10, "g1", "2026-08-01")}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategoryBreakdown(tt.m)
			if len(got) != len(tt.want) {
				t.Fatalf("CategoryBreakdown len = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].Category != tt.want[i].Category || !almostEqual(got[i].Amount, tt.want[i].Amount) {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDailySeries(t *testing.T) {
	today := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	m := MonthRecord{
		Transactions: []Transaction{
			expense(5, 40, CategoryFood, "2026-08-28"),
			expense(4, 10, CategoryFood, "2026-08-28"),
			expense(3, 25, CategoryTransport, "2026-08-22"),
			expense(2, 99, CategoryBills, "2026-08-21"), // outside the window
			contribution(1, 500, "g1", "2026-08-28"),    // not an expense
		},
	}

	series := DailySeries(m, today)
	if len(series) != 7 {
		t.Fatalf("series length = %d, want 7", len(series))
	}
	if series[0].Date != "2026-08-22" || series[6].Date != "2026-08-28" {
		t.Fatalf("series spans %s..%s, want 2026-08-22..2026-08-28", series[0].Date, series[6].Date)
	}
	if !almostEqual(series[0].Amount, 25) {
		t.Errorf("oldest day amount = %v, want 25", series[0].Amount)
	}
	if !almostEqual(series[6].Amount, 50) {
		t.Errorf("today amount = %v, want 50", series[6].Amount)
	}
	for i := 1; i < 6; i++ {
		if series[i].Amount != 0 {
			t.Errorf("day %s amount = %v, want 0", series[i].Date, series[i].Amount)
		}
	}
}

func TestComputeMetrics(t *testing.T) {
	today := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	m := MonthRecord{
		Income: 5000,
		Transactions: []Transaction{
			expense(3, 350, CategoryShopping, "2026-08-27"),
			expense(2, 140, CategoryFood, "2026-08-26"),
			contribution(1, 500, "g1", "2026-08-25"),
		},
		IsOpen: true,
	}

	got := ComputeMetrics("2026-08", m, today)

	if got.Month != "2026-08" {
		t.Errorf("Month = %q", got.Month)
	}
	if !almostEqual(got.Leftover, 4010) {
		t.Errorf("Leftover = %v, want 4010", got.Leftover)
	}
	if got.TransactionCount != 3 {
		t.Errorf("TransactionCount = %d, want 3", got.TransactionCount)
	}
	if got.TopCategory == nil || got.TopCategory.Category != CategoryShopping {
		t.Errorf("TopCategory = %+v, want Shopping", got.TopCategory)
	}
	if !almostEqual(got.MaxCategoryAmount, 350) {
		t.Errorf("MaxCategoryAmount = %v, want 350", got.MaxCategoryAmount)
	}
	if !almostEqual(got.AverageDailySpend, 490.0/7) {
		t.Errorf("AverageDailySpend = %v, want %v", got.AverageDailySpend, 490.0/7)
	}

	// Idempotent: same inputs, same output.
	again := ComputeMetrics("2026-08", m, today)
	if again.Leftover != got.Leftover || again.TotalExpenses != got.TotalExpenses {
		t.Error("ComputeMetrics is not idempotent for unchanged state")
	}
}

func TestComputeMetrics_EmptyMonth(t *testing.T) {
	got := ComputeMetrics("2026-08", MonthRecord{IsOpen: true}, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC))

	if got.TopCategory != nil {
		t.Errorf("TopCategory = %+v, want nil for month with no expenses", got.TopCategory)
	}
	if got.MaxCategoryAmount != 1 || got.MaxDailyAmount != 1 {
		t.Errorf("chart maxima = %v/%v, want floored at 1", got.MaxCategoryAmount, got.MaxDailyAmount)
	}
	if got.AverageDailySpend != 0 {
		t.Errorf("AverageDailySpend = %v, want 0", got.AverageDailySpend)
	}
}
