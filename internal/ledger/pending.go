package ledger

import (
	"context"
	"fmt"
	"time"

	"takatrack/internal/core"
)

// pendingDelete is a scheduled expense removal inside its undo window. The
// map entry, not the timer, is the source of truth: finalize and cancel both
// take the ledger mutex and check map membership first, so whichever runs
// second becomes a no-op.
type pendingDelete struct {
	id        int64
	expiresAt time.Time
	timer     *time.Timer
}

// DeleteExpense schedules removal of a transaction from the active month
// after the undo window elapses, returning the expiry. The transaction stays
// in place (and keeps counting toward totals) until the window fires.
// Scheduling an id already pending does not double-schedule; the existing
// expiry is returned.
func (l *Ledger) DeleteExpense(ctx context.Context, id int64) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.pending[id]; ok {
		return p.expiresAt, nil
	}

	found := false
	for _, t := range l.active().Transactions {
		if t.ID == id {
			found = true
			break
		}
	}
	if !found {
		return time.Time{}, fmt.Errorf("delete expense %d: %w", id, core.ErrNoSuchTransaction)
	}

	// Expiry and timer share one wall-clock instant so the advertised
	// deadline matches when the timer actually fires, even when the
	// ledger clock was replaced.
	p := &pendingDelete{id: id, expiresAt: time.Now().Add(l.undoWindow)}
	p.timer = time.AfterFunc(time.Until(p.expiresAt), func() {
		l.finalizeDelete(context.Background(), id)
	})
	l.pending[id] = p

	l.log.InfoContext(ctx, "expense delete scheduled", "id", id, "expires_at", p.expiresAt)
	return p.expiresAt, nil
}

// CancelDelete reverts a pending deletion. Canceling after the window has
// fired, or for an id that was never scheduled, is a no-op; the return value
// reports whether a pending deletion was actually reverted.
func (l *Ledger) CancelDelete(ctx context.Context, id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.pending[id]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(l.pending, id)
	l.log.InfoContext(ctx, "expense delete canceled", "id", id)
	return true
}

// finalizeDelete runs when the undo window elapses without cancellation.
func (l *Ledger) finalizeDelete(ctx context.Context, id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.pending[id]; !ok {
		return // canceled
	}
	delete(l.pending, id)

	m := l.active()
	for i, t := range m.Transactions {
		if t.ID == id {
			m.Transactions = append(m.Transactions[:i], m.Transactions[i+1:]...)
			l.persistMonths(ctx)
			l.log.InfoContext(ctx, "expense deleted", "month", string(l.current), "id", id)
			return
		}
	}
}

// discardPendingLocked stops every outstanding timer without applying the
// deletions. Callers hold the ledger mutex.
func (l *Ledger) discardPendingLocked() {
	for id, p := range l.pending {
		p.timer.Stop()
		delete(l.pending, id)
	}
}
