package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindExpense          TransactionKind = "expense"
	KindGoalContribution TransactionKind = "goal-contribution"
)

const (
	SavingsManualEdit       SavingsAction = "manual-edit"
	SavingsBorrow           SavingsAction = "borrow"
	SavingsGoalContribution SavingsAction = "goal-contribution"
	SavingsCarryover        SavingsAction = "month-end-carryover"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DateLayout is the calendar date form used on transactions (YYYY-MM-DD).
const DateLayout = "2006-01-02"

type (
	TransactionKind string
	SavingsAction   string
	Theme           string

	// MonthID is the canonical YYYY-MM month identifier.
	MonthID string

	// Transaction is one ledger entry of the month that owns it. A
	// transaction belongs to exactly one month and is never moved.
	// GoalID is a weak reference: it is a lookup key only and may stop
	// resolving once the goal is deleted.
	Transaction struct {
		ID        int64           `json:"id"`
		Kind      TransactionKind `json:"type"`
		Amount    float64         `json:"amount"`
		Category  Category        `json:"category,omitempty"`
		Date      string          `json:"date"`
		Note      string          `json:"note,omitempty"`
		GoalID    string          `json:"goalId,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// MonthRecord holds one calendar month's income and transactions.
	// Transactions are kept newest-first. ClosingLeftover is set exactly
	// once, when the month is closed; an open month has it nil.
	MonthRecord struct {
		Income          float64       `json:"income"`
		Transactions    []Transaction `json:"transactions"`
		ClosingLeftover *float64      `json:"closingLeftover,omitempty"`
		IsOpen          bool          `json:"isOpen"`
		StartedAt       time.Time     `json:"startedAt"`
	}

	// Goal is a savings target. CollectedAmount is the single source of
	// truth for progress: savings-sourced contributions never appear as
	// month transactions, so progress is not derivable from them.
	Goal struct {
		ID              string    `json:"id"`
		Name            string    `json:"name"`
		TargetAmount    float64   `json:"targetAmount"`
		CollectedAmount float64   `json:"collectedAmount"`
		Image           string    `json:"image,omitempty"`
		Note            string    `json:"note,omitempty"`
		CreatedAt       time.Time `json:"createdAt"`
	}

	// SavingsEntry is one immutable record of the append-only savings
	// history, newest first.
	SavingsEntry struct {
		OldValue   float64       `json:"oldValue"`
		NewValue   float64       `json:"newValue"`
		Difference float64       `json:"difference"`
		Note       string        `json:"note,omitempty"`
		Action     SavingsAction `json:"action"`
		At         time.Time     `json:"at"`
	}

	// ExpenseTemplate pre-fills repeat expense entries. Templates are
	// month-independent and have no invariant tie to ledger totals.
	ExpenseTemplate struct {
		ID       string   `json:"id"`
		Category Category `json:"category"`
		Amount   float64  `json:"amount"`
		Note     string   `json:"note,omitempty"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyName         = errors.New("empty name")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNegativeSavings   = errors.New("savings cannot be negative")
	ErrNoSuchMonth       = errors.New("month not found")
	ErrNoSuchGoal        = errors.New("goal not found")
	ErrNoSuchTransaction = errors.New("transaction not found")
	ErrNoSuchTemplate    = errors.New("template not found")
	ErrInvalidSource     = errors.New("invalid contribution source")
	ErrInvalidTheme      = errors.New("invalid theme")
)

// MonthOf returns the month identifier for a point in time.
func MonthOf(t time.Time) MonthID {
	return MonthID(t.Format("2006-01"))
}

// ParseMonthID validates the canonical YYYY-MM form.
func ParseMonthID(s string) (MonthID, error) {
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", fmt.Errorf("parse month id %q: %w", s, ErrInvalidDate)
	}
	return MonthID(s), nil
}

// Time returns the first instant of the month in UTC.
func (id MonthID) Time() time.Time {
	t, err := time.Parse("2006-01", string(id))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Label returns a human-readable month name, e.g. "August 2026".
func (id MonthID) Label() string {
	t := id.Time()
	if t.IsZero() {
		return string(id)
	}
	return t.Format("January 2006")
}

func (t Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return ErrInvalidDate
	}
	switch t.Kind {
	case KindExpense:
		if !t.Category.Valid() {
			return ErrUnknownCategory
		}
	case KindGoalContribution:
		if strings.TrimSpace(t.GoalID) == "" {
			return ErrNoSuchGoal
		}
	default:
		return fmt.Errorf("unknown transaction kind %q", t.Kind)
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount <= 0 {
		return ErrInvalidAmount
	}
	if g.CollectedAmount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns goal completion as a percentage, capped at 100.
func (g Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	p := g.CollectedAmount / g.TargetAmount * 100
	if p > 100 {
		return 100
	}
	return p
}

func (tpl ExpenseTemplate) Validate() error {
	if tpl.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !tpl.Category.Valid() {
		return ErrUnknownCategory
	}
	return nil
}

// ParseTheme validates the persisted theme enum.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), nil
	}
	return "", ErrInvalidTheme
}

// Toggle flips between light and dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
