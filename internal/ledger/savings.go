package ledger

import (
	"context"
	"fmt"
	"strings"

	"takatrack/internal/core"
)

// appendHistory prepends an immutable entry to the savings history
// (newest first). Callers hold the ledger mutex.
func (l *Ledger) appendHistory(e core.SavingsEntry) {
	l.history = append([]core.SavingsEntry{e}, l.history...)
}

// AdjustSavings applies a delta to the global savings pool, flooring the
// result at zero, and records the change.
func (l *Ledger) AdjustSavings(ctx context.Context, delta float64, note string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.savings
	value := old + delta
	if value < 0 {
		value = 0
	}
	l.savings = value
	l.appendHistory(core.SavingsEntry{
		OldValue:   old,
		NewValue:   value,
		Difference: value - old,
		Note:       strings.TrimSpace(note),
		Action:     core.SavingsManualEdit,
		At:         l.now(),
	})
	l.persistSavings(ctx)
	l.log.InfoContext(ctx, "savings adjusted", "delta", delta, "savings", value)
	return value, nil
}

// SetSavings replaces the global savings pool balance. Negative values are
// rejected.
func (l *Ledger) SetSavings(ctx context.Context, value float64, note string) error {
	if value < 0 {
		return fmt.Errorf("set savings: %w", core.ErrNegativeSavings)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.savings
	l.savings = value
	l.appendHistory(core.SavingsEntry{
		OldValue:   old,
		NewValue:   value,
		Difference: value - old,
		Note:       strings.TrimSpace(note),
		Action:     core.SavingsManualEdit,
		At:         l.now(),
	})
	l.persistSavings(ctx)
	l.log.InfoContext(ctx, "savings set", "savings", value)
	return nil
}

// BorrowFromSavings withdraws from the pool, clamping at zero when the
// requested amount exceeds the balance. The history entry records the
// applied difference, not the requested amount.
func (l *Ledger) BorrowFromSavings(ctx context.Context, amount float64, note string) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("borrow from savings: %w", core.ErrInvalidAmount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.savings
	value := old - amount
	if value < 0 {
		value = 0
	}
	l.savings = value
	l.appendHistory(core.SavingsEntry{
		OldValue:   old,
		NewValue:   value,
		Difference: value - old,
		Note:       strings.TrimSpace(note),
		Action:     core.SavingsBorrow,
		At:         l.now(),
	})
	l.persistSavings(ctx)
	l.log.InfoContext(ctx, "savings borrowed", "requested", amount, "applied", old-value, "savings", value)
	return value, nil
}
