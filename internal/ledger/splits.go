package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// SplitExpense computes obligations for an expense under policy and replaces
// any splits it already had. The caller must be the payer or, for a group
// expense, a member of its group.
//
// Every listed user must be a current member of the expense's group, or an
// existing user for a personal expense. The payer must be listed and never
// receives a split row.
func (l *Ledger) SplitExpense(ctx context.Context, expenseID string, policy calculator.Policy, shares []calculator.Share, actorID string) ([]*models.Split, error) {
	var (
		expense *models.Expense
		splits  []*models.Split
	)
	err := l.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		expense, err = tx.GetExpense(ctx, expenseID, true)
		if err != nil {
			return translate(err, "expense")
		}
		if err := l.canSplit(ctx, tx, expense, actorID); err != nil {
			return err
		}
		for _, sh := range shares {
			if !models.AmountInRange(sh.Amount) {
				return validationf("share amount for %s exceeds %s", sh.UserID, models.MaxAmount.StringFixed(2))
			}
		}

		obligations, err := calculator.CalculateSplit(policy, expense.Amount, expense.PayerID, shares)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		if err := checkParticipants(ctx, tx, expense, shares); err != nil {
			return err
		}

		now := l.now()
		splits = make([]*models.Split, len(obligations))
		for i, o := range obligations {
			splits[i] = &models.Split{
				UserID:     o.UserID,
				AmountOwed: o.Amount,
				CreatedAt:  now,
			}
		}
		return tx.ReplaceSplits(ctx, expense.ID, splits)
	})
	if err != nil {
		return nil, err
	}

	metrics.SplitsGenerated.WithLabelValues(string(policy)).Add(float64(len(splits)))
	l.publish(ctx, EventExpenseSplit, expense.GroupID, actorID, expense.ID)
	return splits, nil
}

func (l *Ledger) canSplit(ctx context.Context, tx storage.Tx, expense *models.Expense, actorID string) error {
	if expense.PayerID == actorID {
		return nil
	}
	if expense.GroupID == "" {
		return fmt.Errorf("%w: only the payer can split a personal expense", ErrForbidden)
	}
	_, err := authorize(ctx, tx, expense.GroupID, actorID)
	if errors.Is(err, ErrForbidden) {
		return fmt.Errorf("%w: not the payer or a group member", ErrForbidden)
	}
	return err
}

func checkParticipants(ctx context.Context, tx storage.Tx, expense *models.Expense, shares []calculator.Share) error {
	if expense.GroupID != "" {
		members, err := tx.ListMembers(ctx, expense.GroupID)
		if err != nil {
			return err
		}
		for _, s := range shares {
			isMember := slices.ContainsFunc(members, func(m *models.Member) bool { return m.UserID == s.UserID })
			if !isMember {
				return validationf("user %s is not a member of the group", s.UserID)
			}
		}
		return nil
	}

	ids := make([]string, len(shares))
	for i, s := range shares {
		ids[i] = s.UserID
	}
	users, err := tx.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return validationf("unknown user %s", id)
		}
	}
	return nil
}

// ListExpenseSplits returns an expense's current splits. The payer, any
// debtor and, for a group expense, any group member may read them.
func (l *Ledger) ListExpenseSplits(ctx context.Context, expenseID, actorID string) ([]*models.Split, error) {
	var splits []*models.Split
	err := l.store.WithReadTx(ctx, func(tx storage.Tx) error {
		expense, err := tx.GetExpense(ctx, expenseID, false)
		if err != nil {
			return translate(err, "expense")
		}
		splits, err = tx.ListSplitsByExpense(ctx, expenseID)
		if err != nil {
			return err
		}

		if expense.PayerID == actorID {
			return nil
		}
		if slices.ContainsFunc(splits, func(s *models.Split) bool { return s.UserID == actorID }) {
			return nil
		}
		if expense.GroupID != "" {
			_, err := authorize(ctx, tx, expense.GroupID, actorID)
			if !errors.Is(err, ErrForbidden) {
				return err
			}
		}
		return fmt.Errorf("%w: no access to this expense", ErrForbidden)
	})
	if err != nil {
		return nil, err
	}
	return splits, nil
}
