package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

const expenseColumns = `e.id, e.amount_cents, e.category, e.date, e.note, e.payer_id, e.group_id, e.created_at`

// CreateExpense persists a new expense. Amounts are stored as integer cents.
func (q *queries) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now()
	}

	_, err := q.exec(ctx,
		`INSERT INTO expenses (id, amount_cents, category, date, note, payer_id, group_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, models.DecimalToCents(expense.Amount), expense.Category,
		expense.Date.Format(models.DateLayout), nullString(expense.Note), expense.PayerID,
		nullString(expense.GroupID), expense.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (q *queries) GetExpense(ctx context.Context, expenseID string, forUpdate bool) (*models.Expense, error) {
	expense, err := scanExpense(q.queryRow(ctx,
		q.lock(`SELECT `+expenseColumns+` FROM expenses e WHERE e.id = ?`, forUpdate), expenseID))
	if err != nil {
		return nil, notFound(err, "expense", expenseID)
	}
	return expense, nil
}

// ListExpensesByGroup returns a group's expenses, newest date first.
func (q *queries) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := q.query(ctx,
		`SELECT `+expenseColumns+` FROM expenses e
		 WHERE e.group_id = ?
		 ORDER BY e.date DESC, e.created_at DESC, e.id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// CountExpensesByGroup counts a group's expenses.
func (q *queries) CountExpensesByGroup(ctx context.Context, groupID string) (int, error) {
	var n int
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM expenses WHERE group_id = ?`, groupID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return n, nil
}

// SetExpenseGroup attaches an expense to a group, or detaches it when
// groupID is empty.
func (q *queries) SetExpenseGroup(ctx context.Context, expenseID, groupID string) error {
	return q.execAffecting(ctx, "expense", expenseID,
		`UPDATE expenses SET group_id = ? WHERE id = ?`, nullString(groupID), expenseID)
}

// DeleteExpense removes an expense and, by cascade, its splits.
func (q *queries) DeleteExpense(ctx context.Context, expenseID string) error {
	return q.execAffecting(ctx, "expense", expenseID, `DELETE FROM expenses WHERE id = ?`, expenseID)
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var cents, createdAt int64
	var date string
	var note, groupID sql.NullString
	if err := row.Scan(&expense.ID, &cents, &expense.Category, &date, &note,
		&expense.PayerID, &groupID, &createdAt); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}

	expense.Amount = models.CentsToDecimal(cents)
	expense.Date = parsed
	expense.Note = note.String
	expense.GroupID = groupID.String
	expense.CreatedAt = time.Unix(createdAt, 0)
	return expense, nil
}
