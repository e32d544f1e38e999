// Package ledger implements the monthly ledger and derived-balance engine:
// the single aggregate owning all months, the savings pool, goals and
// templates, together with the mutation rules that keep leftover money,
// total savings and goal progress mutually consistent.
//
// All mutations run under one mutex and are written through to the
// persistent store before returning. Persistence is best-effort: a failed
// write is logged and the in-memory state stays authoritative for the
// session (the next successful write-through is the de facto retry).
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"takatrack/internal/core"
	"takatrack/internal/log"
	"takatrack/internal/storage"
)

// DefaultUndoWindow is how long a deleted expense can still be restored.
const DefaultUndoWindow = 3 * time.Second

// ContributionSource selects which balance backs a goal contribution.
type ContributionSource string

const (
	SourceLeftover ContributionSource = "leftover"
	SourceSavings  ContributionSource = "savings"
)

// ParseSource validates a raw contribution source value.
func ParseSource(s string) (ContributionSource, error) {
	switch ContributionSource(s) {
	case SourceLeftover, SourceSavings:
		return ContributionSource(s), nil
	}
	return "", core.ErrInvalidSource
}

// Ledger is the in-memory aggregate of all ledger state. Exactly one month
// is open at any time; closed months are immutable history.
type Ledger struct {
	mu         sync.Mutex
	store      storage.Store
	log        *log.Logger
	now        func() time.Time
	undoWindow time.Duration

	theme     core.Theme
	months    map[core.MonthID]*core.MonthRecord
	current   core.MonthID
	savings   float64
	history   []core.SavingsEntry
	goals     []core.Goal
	templates []core.ExpenseTemplate

	pending  map[int64]*pendingDelete
	lastTxID int64
}

// Option configures a Ledger at construction time.
type Option func(*Ledger)

// WithClock replaces the clock behind domain timestamps and month
// resolution, used by tests. Deferred-delete timers always run on the wall
// clock regardless.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithUndoWindow overrides the deferred-delete delay.
func WithUndoWindow(d time.Duration) Option {
	return func(l *Ledger) { l.undoWindow = d }
}

// New loads ledger state from the store, repairing missing or corrupt slices
// with their documented defaults, and guarantees an open active month.
func New(ctx context.Context, store storage.Store, logger *log.Logger, opts ...Option) (*Ledger, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent("ledger")
	}
	l := &Ledger{
		store:      store,
		log:        logger,
		now:        time.Now,
		undoWindow: DefaultUndoWindow,
		months:     make(map[core.MonthID]*core.MonthRecord),
		theme:      core.ThemeLight,
		pending:    make(map[int64]*pendingDelete),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.load(ctx); err != nil {
		return nil, fmt.Errorf("load ledger state: %w", err)
	}
	l.normalize(ctx)
	return l, nil
}

// Close stops outstanding deferred-delete timers. Pending deletions that
// have not fired are discarded, leaving their transactions in place.
func (l *Ledger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.discardPendingLocked()
}

// normalize repairs cross-slice invariants after load: the active month
// exists, is open, and is the only open month.
func (l *Ledger) normalize(ctx context.Context) {
	now := l.now()
	if l.current == "" {
		l.current = core.MonthOf(now)
	}
	if _, ok := l.months[l.current]; !ok {
		l.months[l.current] = &core.MonthRecord{IsOpen: true, StartedAt: now}
	}
	for id, m := range l.months {
		if id == l.current {
			if !m.IsOpen {
				l.log.Warn("active month was stored closed, reopening", "month", string(id))
				m.IsOpen = true
				m.ClosingLeftover = nil
			}
			continue
		}
		if m.IsOpen {
			l.log.Warn("found stray open month, closing", "month", string(id))
			leftover := core.Leftover(*m)
			m.IsOpen = false
			m.ClosingLeftover = &leftover
		}
	}
	for _, m := range l.months {
		for _, t := range m.Transactions {
			if t.ID > l.lastTxID {
				l.lastTxID = t.ID
			}
		}
	}
	l.persistMonths(ctx)
}

// nextTxID derives a unique, monotonic transaction id from the creation
// time; two entries in the same millisecond bump past the last id.
func (l *Ledger) nextTxID() int64 {
	id := l.now().UnixMilli()
	if id <= l.lastTxID {
		id = l.lastTxID + 1
	}
	l.lastTxID = id
	return id
}

func (l *Ledger) active() *core.MonthRecord {
	return l.months[l.current]
}

// ActiveMonth returns the identifier and a copy of the open month.
func (l *Ledger) ActiveMonth() (core.MonthID, core.MonthRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, copyMonth(*l.active())
}

// Month returns a copy of the record for id, if it exists.
func (l *Ledger) Month(id core.MonthID) (core.MonthRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.months[id]
	if !ok {
		return core.MonthRecord{}, false
	}
	return copyMonth(*m), true
}

// MetricsFor computes the derived metrics of a month. The always-current
// "today" anchor comes from the ledger clock.
func (l *Ledger) MetricsFor(id core.MonthID) (core.Metrics, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.months[id]
	if !ok {
		return core.Metrics{}, fmt.Errorf("month %s: %w", id, core.ErrNoSuchMonth)
	}
	return core.ComputeMetrics(id, *m, l.now()), nil
}

// Savings returns the current global savings pool balance.
func (l *Ledger) Savings() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.savings
}

// SavingsHistory returns a copy of the append-only history, newest first.
func (l *Ledger) SavingsHistory() []core.SavingsEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.SavingsEntry(nil), l.history...)
}

// Goals returns a copy of the goal list in insertion order.
func (l *Ledger) Goals() []core.Goal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Goal(nil), l.goals...)
}

// Goal looks up a single goal by id.
func (l *Ledger) Goal(id string) (core.Goal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, g := range l.goals {
		if g.ID == id {
			return g, true
		}
	}
	return core.Goal{}, false
}

// Templates returns a copy of the expense template list.
func (l *Ledger) Templates() []core.ExpenseTemplate {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.ExpenseTemplate(nil), l.templates...)
}

// Theme returns the persisted UI theme.
func (l *Ledger) Theme() core.Theme {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.theme
}

// PendingDelete describes a scheduled expense deletion still inside its
// undo window.
type PendingDelete struct {
	ID        int64     `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Snapshot is a consistent read-side copy of the aggregate.
type Snapshot struct {
	Theme          core.Theme             `json:"theme"`
	CurrentMonth   core.MonthID           `json:"currentMonth"`
	ActiveMonth    core.MonthRecord       `json:"activeMonth"`
	MonthIDs       []core.MonthID         `json:"months"`
	Savings        float64                `json:"globalSavings"`
	Goals          []core.Goal            `json:"goals"`
	Templates      []core.ExpenseTemplate `json:"expenseTemplates"`
	PendingDeletes []PendingDelete        `json:"pendingDeletes,omitempty"`
}

// Snapshot returns a copy of the aggregate for presentation layers. Callers
// never see (or mutate) live internal state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]core.MonthID, 0, len(l.months))
	for id := range l.months {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var pend []PendingDelete
	for id, p := range l.pending {
		pend = append(pend, PendingDelete{ID: id, ExpiresAt: p.expiresAt})
	}
	sort.Slice(pend, func(i, j int) bool { return pend[i].ID < pend[j].ID })

	return Snapshot{
		Theme:          l.theme,
		CurrentMonth:   l.current,
		ActiveMonth:    copyMonth(*l.active()),
		MonthIDs:       ids,
		Savings:        l.savings,
		Goals:          append([]core.Goal(nil), l.goals...),
		Templates:      append([]core.ExpenseTemplate(nil), l.templates...),
		PendingDeletes: pend,
	}
}

// SetIncome replaces the active month's income. Negative amounts are
// rejected, not clamped.
func (l *Ledger) SetIncome(ctx context.Context, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("set income: %w", core.ErrInvalidAmount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active().Income = amount
	l.persistMonths(ctx)
	l.log.InfoContext(ctx, "income set", "month", string(l.current), "income", amount)
	return nil
}

// AdjustIncome applies a delta to the active month's income, flooring the
// result at zero. Used by quick increment/decrement controls.
func (l *Ledger) AdjustIncome(ctx context.Context, delta float64) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m := l.active()
	income := m.Income + delta
	if income < 0 {
		income = 0
	}
	m.Income = income
	l.persistMonths(ctx)
	l.log.InfoContext(ctx, "income adjusted", "month", string(l.current), "delta", delta, "income", income)
	return income, nil
}

// ExpenseInput carries the caller-supplied fields of a new expense.
type ExpenseInput struct {
	Amount       float64
	Category     string
	Date         string // YYYY-MM-DD; empty means today
	Note         string
	SaveTemplate bool
}

// AddExpense validates and records an expense at the front of the active
// month's transaction list. With SaveTemplate set and a non-empty note, the
// entry is also saved as a reusable template.
func (l *Ledger) AddExpense(ctx context.Context, in ExpenseInput) (core.Transaction, error) {
	category, err := core.ParseCategory(in.Category)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("add expense: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = now.Format(core.DateLayout)
	}
	tx := core.Transaction{
		ID:        l.nextTxID(),
		Kind:      core.KindExpense,
		Amount:    in.Amount,
		Category:  category,
		Date:      date,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: now,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("add expense: %w", err)
	}

	m := l.active()
	m.Transactions = append([]core.Transaction{tx}, m.Transactions...)
	l.persistMonths(ctx)

	if in.SaveTemplate && tx.Note != "" {
		l.templates = append(l.templates, core.ExpenseTemplate{
			ID:       uuid.NewString(),
			Category: category,
			Amount:   in.Amount,
			Note:     tx.Note,
		})
		l.persistTemplates(ctx)
	}

	l.log.InfoContext(ctx, "expense added",
		"month", string(l.current),
		"id", tx.ID,
		"amount", tx.Amount,
		"category", string(tx.Category))
	return tx, nil
}

// DeleteTemplate removes a saved expense template.
func (l *Ledger) DeleteTemplate(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, tpl := range l.templates {
		if tpl.ID == id {
			l.templates = append(l.templates[:i], l.templates[i+1:]...)
			l.persistTemplates(ctx)
			return nil
		}
	}
	return fmt.Errorf("delete template %s: %w", id, core.ErrNoSuchTemplate)
}

// SetTheme persists the UI theme choice.
func (l *Ledger) SetTheme(ctx context.Context, theme core.Theme) error {
	if _, err := core.ParseTheme(string(theme)); err != nil {
		return fmt.Errorf("set theme: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.theme = theme
	l.persistTheme(ctx)
	return nil
}

// ToggleTheme flips between light and dark and returns the new value.
func (l *Ledger) ToggleTheme(ctx context.Context) core.Theme {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.theme = l.theme.Toggle()
	l.persistTheme(ctx)
	return l.theme
}

func copyMonth(m core.MonthRecord) core.MonthRecord {
	out := m
	out.Transactions = append([]core.Transaction(nil), m.Transactions...)
	if m.ClosingLeftover != nil {
		v := *m.ClosingLeftover
		out.ClosingLeftover = &v
	}
	return out
}
