package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"takatrack/internal/core"
)

// Persisted state layout: one store key per top-level slice, JSON-encoded.
const (
	keyTheme            = "theme"
	keyMonths           = "months"
	keyCurrentMonth     = "currentMonth"
	keyGlobalSavings    = "globalSavings"
	keySavingsHistory   = "savingsHistory"
	keyExpenseTemplates = "expenseTemplates"
	keyGoals            = "goals"
)

// load reads every state slice. A missing or corrupt entry falls back to its
// documented default; a store I/O error is fatal, because starting from an
// empty ledger over a readable-but-failing store would clobber real data on
// the next write-through.
func (l *Ledger) load(ctx context.Context) error {
	var theme string
	if ok, err := l.getJSON(ctx, keyTheme, &theme); err != nil {
		return err
	} else if ok {
		if t, err := core.ParseTheme(theme); err == nil {
			l.theme = t
		} else {
			l.log.Warn("stored theme invalid, using light", "theme", theme)
		}
	}

	months := make(map[core.MonthID]*core.MonthRecord)
	if _, err := l.getJSON(ctx, keyMonths, &months); err != nil {
		return err
	}
	if months == nil {
		months = make(map[core.MonthID]*core.MonthRecord)
	}
	// A null entry is well-formed JSON and survives decoding as a nil
	// record; drop it so later invariant repair never dereferences it.
	for id, m := range months {
		if m == nil {
			l.log.Warn("stored month record null, dropping", "month", string(id))
			delete(months, id)
		}
	}
	l.months = months

	var current string
	if ok, err := l.getJSON(ctx, keyCurrentMonth, &current); err != nil {
		return err
	} else if ok {
		if id, err := core.ParseMonthID(current); err == nil {
			l.current = id
		} else {
			l.log.Warn("stored current month invalid, using calendar month", "value", current)
		}
	}

	if _, err := l.getJSON(ctx, keyGlobalSavings, &l.savings); err != nil {
		return err
	}
	if l.savings < 0 {
		l.log.Warn("stored savings negative, clamping to zero", "savings", l.savings)
		l.savings = 0
	}

	if _, err := l.getJSON(ctx, keySavingsHistory, &l.history); err != nil {
		return err
	}
	if _, err := l.getJSON(ctx, keyExpenseTemplates, &l.templates); err != nil {
		return err
	}
	if _, err := l.getJSON(ctx, keyGoals, &l.goals); err != nil {
		return err
	}
	return nil
}

// getJSON decodes the value under key into dst. The bool reports whether a
// usable value was present; corrupt JSON is logged and treated as absent so
// the caller's default stands.
func (l *Ledger) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		l.log.Warn("stored entry corrupt, falling back to default", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// setJSON is the write-through path. Failures are logged and swallowed:
// in-memory state stays authoritative for the session and the next
// successful mutation re-persists the slice.
func (l *Ledger) setJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.log.ErrorContext(ctx, "encode state slice", "key", key, "error", err)
		return
	}
	if err := l.store.Set(ctx, key, data); err != nil {
		l.log.ErrorContext(ctx, "persist state slice", "key", key, "error", err)
	}
}

// Each top-level slice persists independently whenever it changes; there is
// no transactional grouping across slices (accepted single-user limitation).

func (l *Ledger) persistMonths(ctx context.Context) {
	l.setJSON(ctx, keyMonths, l.months)
	l.setJSON(ctx, keyCurrentMonth, string(l.current))
}

func (l *Ledger) persistSavings(ctx context.Context) {
	l.setJSON(ctx, keyGlobalSavings, l.savings)
	l.setJSON(ctx, keySavingsHistory, l.history)
}

func (l *Ledger) persistGoals(ctx context.Context) {
	l.setJSON(ctx, keyGoals, l.goals)
}

func (l *Ledger) persistTemplates(ctx context.Context) {
	l.setJSON(ctx, keyExpenseTemplates, l.templates)
}

func (l *Ledger) persistTheme(ctx context.Context) {
	l.setJSON(ctx, keyTheme, string(l.theme))
}
