package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// ExpenseInput describes a new expense.
type ExpenseInput struct {
	Amount   decimal.Decimal
	Category string
	Date     time.Time
	Note     string

	// GroupID is optional. The payer must be a member of the group.
	GroupID string
}

// CreateExpense records an expense paid by payerID.
func (l *Ledger) CreateExpense(ctx context.Context, payerID string, in ExpenseInput) (*models.Expense, error) {
	if !in.Amount.IsPositive() {
		return nil, validationf("amount must be positive")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, validationf("amount has more than two decimal places")
	}
	if !models.AmountInRange(in.Amount) {
		return nil, validationf("amount exceeds %s", models.MaxAmount.StringFixed(2))
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return nil, validationf("category is required")
	}

	date := in.Date
	if date.IsZero() {
		date = l.now()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	expense := &models.Expense{
		Amount:    in.Amount,
		Category:  category,
		Date:      date,
		Note:      strings.TrimSpace(in.Note),
		PayerID:   payerID,
		GroupID:   in.GroupID,
		CreatedAt: l.now(),
	}

	err := l.store.WithTx(ctx, func(tx storage.Tx) error {
		if expense.GroupID != "" {
			if _, err := authorize(ctx, tx, expense.GroupID, payerID); err != nil {
				return err
			}
		}
		return tx.CreateExpense(ctx, expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// SetExpenseGroup attaches an expense to groupID, or detaches it when
// groupID is empty. Only the payer may move an expense, and only into a
// group they belong to.
//
// Moving an expense to a different group deletes its splits, settled or
// not. The old participants need not be members of the new group, so the
// expense has to be split again there.
func (l *Ledger) SetExpenseGroup(ctx context.Context, expenseID, groupID, actorID string) (*models.Expense, error) {
	var expense *models.Expense
	err := l.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		expense, err = tx.GetExpense(ctx, expenseID, true)
		if err != nil {
			return translate(err, "expense")
		}
		if expense.PayerID != actorID {
			return fmt.Errorf("%w: only the payer can move an expense", ErrForbidden)
		}
		if groupID != "" {
			if _, err := authorize(ctx, tx, groupID, actorID); err != nil {
				return err
			}
		}
		if groupID == expense.GroupID {
			return nil
		}
		if err := tx.ReplaceSplits(ctx, expenseID, nil); err != nil {
			return err
		}
		if err := tx.SetExpenseGroup(ctx, expenseID, groupID); err != nil {
			return err
		}
		expense.GroupID = groupID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense deletes an expense and its splits. Payer only.
func (l *Ledger) DeleteExpense(ctx context.Context, expenseID, actorID string) error {
	return l.store.WithTx(ctx, func(tx storage.Tx) error {
		expense, err := tx.GetExpense(ctx, expenseID, true)
		if err != nil {
			return translate(err, "expense")
		}
		if expense.PayerID != actorID {
			return fmt.Errorf("%w: only the payer can delete an expense", ErrForbidden)
		}
		return tx.DeleteExpense(ctx, expenseID)
	})
}

// GetGroupExpenses lists a group's expenses newest first with the payer
// resolved. Members only.
func (l *Ledger) GetGroupExpenses(ctx context.Context, groupID, userID string) ([]models.ExpenseView, error) {
	var views []models.ExpenseView
	err := l.store.WithReadTx(ctx, func(tx storage.Tx) error {
		if _, err := authorize(ctx, tx, groupID, userID); err != nil {
			return err
		}

		expenses, err := tx.ListExpensesByGroup(ctx, groupID)
		if err != nil {
			return err
		}

		payerIDs := make([]string, 0, len(expenses))
		for _, e := range expenses {
			payerIDs = append(payerIDs, e.PayerID)
		}
		payers, err := tx.GetUsersByIDs(ctx, payerIDs)
		if err != nil {
			return err
		}

		views = make([]models.ExpenseView, len(expenses))
		for i, e := range expenses {
			views[i] = models.ExpenseView{Expense: *e}
			if p, ok := payers[e.PayerID]; ok {
				views[i].PayerEmail = p.Email
				views[i].PayerName = p.DisplayName
			}
		}
		return nil
	})
	return views, err
}
