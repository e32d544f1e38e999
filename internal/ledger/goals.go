package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"takatrack/internal/core"
)

// GoalInput carries the caller-editable fields of a goal.
type GoalInput struct {
	Name         string
	TargetAmount float64
	Note         string
	Image        string
}

// AddGoal creates a goal with zero progress.
func (l *Ledger) AddGoal(ctx context.Context, in GoalInput) (core.Goal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g := core.Goal{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		TargetAmount: in.TargetAmount,
		Note:         strings.TrimSpace(in.Note),
		Image:        in.Image,
		CreatedAt:    l.now(),
	}
	if err := g.Validate(); err != nil {
		return core.Goal{}, fmt.Errorf("add goal: %w", err)
	}

	l.goals = append(l.goals, g)
	l.persistGoals(ctx)
	l.log.InfoContext(ctx, "goal added", "goal_id", g.ID, "name", g.Name, "target", g.TargetAmount)
	return g, nil
}

// EditGoal updates a goal's fields in place. CollectedAmount is untouchable
// through this path; it only moves via contributions.
func (l *Ledger) EditGoal(ctx context.Context, id string, in GoalInput) (core.Goal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.goals {
		if l.goals[i].ID != id {
			continue
		}
		updated := l.goals[i]
		updated.Name = strings.TrimSpace(in.Name)
		updated.TargetAmount = in.TargetAmount
		updated.Note = strings.TrimSpace(in.Note)
		updated.Image = in.Image
		if err := updated.Validate(); err != nil {
			return core.Goal{}, fmt.Errorf("edit goal: %w", err)
		}
		l.goals[i] = updated
		l.persistGoals(ctx)
		l.log.InfoContext(ctx, "goal edited", "goal_id", id)
		return updated, nil
	}
	return core.Goal{}, fmt.Errorf("edit goal %s: %w", id, core.ErrNoSuchGoal)
}

// DeleteGoal removes the goal record. Recorded goal-contribution
// transactions keep their goalId as an orphaned weak reference; history is
// not rewritten.
func (l *Ledger) DeleteGoal(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.goals {
		if l.goals[i].ID != id {
			continue
		}
		l.goals = append(l.goals[:i], l.goals[i+1:]...)
		l.persistGoals(ctx)
		l.log.InfoContext(ctx, "goal deleted", "goal_id", id)
		return nil
	}
	return fmt.Errorf("delete goal %s: %w", id, core.ErrNoSuchGoal)
}

// ContributeToGoal moves money from the chosen source into a goal. The
// source-specific side effect and the collectedAmount increment happen under
// one critical section, so no partial application is observable.
//
// A leftover-sourced contribution becomes a transaction on the active month
// (reducing its derived leftover); a savings-sourced one decrements the
// global pool and appends a history entry. Contributions exceeding the
// source's balance are rejected, unlike borrowFromSavings which clamps.
func (l *Ledger) ContributeToGoal(ctx context.Context, goalID string, amount float64, source ContributionSource) (core.Goal, error) {
	if amount <= 0 {
		return core.Goal{}, fmt.Errorf("contribute to goal: %w", core.ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.goals {
		if l.goals[i].ID == goalID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Goal{}, fmt.Errorf("contribute to goal %s: %w", goalID, core.ErrNoSuchGoal)
	}

	now := l.now()
	switch source {
	case SourceLeftover:
		m := l.active()
		if amount > core.Leftover(*m) {
			return core.Goal{}, fmt.Errorf("contribute %v from leftover: %w", amount, core.ErrInsufficientFunds)
		}
		tx := core.Transaction{
			ID:        l.nextTxID(),
			Kind:      core.KindGoalContribution,
			Amount:    amount,
			Date:      now.Format(core.DateLayout),
			GoalID:    goalID,
			CreatedAt: now,
		}
		m.Transactions = append([]core.Transaction{tx}, m.Transactions...)
		l.goals[idx].CollectedAmount += amount
		l.persistMonths(ctx)
		l.persistGoals(ctx)

	case SourceSavings:
		if amount > l.savings {
			return core.Goal{}, fmt.Errorf("contribute %v from savings: %w", amount, core.ErrInsufficientFunds)
		}
		old := l.savings
		l.savings = old - amount
		l.appendHistory(core.SavingsEntry{
			OldValue:   old,
			NewValue:   l.savings,
			Difference: l.savings - old,
			Note:       "Contribution to " + l.goals[idx].Name,
			Action:     core.SavingsGoalContribution,
			At:         now,
		})
		l.goals[idx].CollectedAmount += amount
		l.persistSavings(ctx)
		l.persistGoals(ctx)

	default:
		return core.Goal{}, fmt.Errorf("contribute to goal: %w", core.ErrInvalidSource)
	}

	l.log.InfoContext(ctx, "goal contribution",
		"goal_id", goalID,
		"amount", amount,
		"source", string(source),
		"collected", l.goals[idx].CollectedAmount)
	return l.goals[idx], nil
}
