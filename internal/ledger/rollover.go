package ledger

import (
	"context"

	"takatrack/internal/core"
)

// CloseResult describes a completed month rollover.
type CloseResult struct {
	ClosedMonth     core.MonthID `json:"closedMonth"`
	ClosingLeftover float64      `json:"closingLeftover"`
	CarriedOver     float64      `json:"carriedOver"`
	NewMonth        core.MonthID `json:"newMonth"`
}

// CloseMonth runs the month-rollover state transition: the open month's
// leftover is computed and frozen, optionally carried into the savings pool,
// the month is marked closed, and a new active month is opened from the
// current calendar date. Goals and templates are month-independent and pass
// through untouched.
//
// When the calendar still points at the month being closed, the successor
// month is opened instead. When a record for the successor already exists
// (a stale month closed late), that record is reopened with its income and
// transactions intact rather than overwritten.
func (l *Ledger) CloseMonth(ctx context.Context, carryover bool) (CloseResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Closing freezes the month, so outstanding undo windows are void:
	// the deletions they were counting down to can no longer happen.
	l.discardPendingLocked()

	now := l.now()
	closing := l.current
	m := l.active()
	leftover := core.Leftover(*m)

	carried := 0.0
	if carryover && leftover > 0 {
		old := l.savings
		l.savings = old + leftover
		l.appendHistory(core.SavingsEntry{
			OldValue:   old,
			NewValue:   l.savings,
			Difference: l.savings - old,
			Note:       "Carryover from " + closing.Label(),
			Action:     core.SavingsCarryover,
			At:         now,
		})
		carried = leftover
		l.persistSavings(ctx)
	}

	m.ClosingLeftover = &leftover
	m.IsOpen = false

	next := core.MonthOf(now)
	if next == closing {
		next = nextMonth(closing)
	}
	if existing, ok := l.months[next]; ok {
		existing.IsOpen = true
		existing.ClosingLeftover = nil
	} else {
		l.months[next] = &core.MonthRecord{IsOpen: true, StartedAt: now}
	}
	l.current = next
	l.persistMonths(ctx)

	l.log.InfoContext(ctx, "month closed",
		"closed", string(closing),
		"leftover", leftover,
		"carried_over", carried,
		"opened", string(next))

	return CloseResult{
		ClosedMonth:     closing,
		ClosingLeftover: leftover,
		CarriedOver:     carried,
		NewMonth:        next,
	}, nil
}

func nextMonth(id core.MonthID) core.MonthID {
	return core.MonthOf(id.Time().AddDate(0, 1, 0))
}
