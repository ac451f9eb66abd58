package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

const splitColumns = `id, expense_id, user_id, amount_owed_cents, is_settled, settled_at, created_at`

// ReplaceSplits swaps an expense's splits for a new set.
// Callers run it inside WithTx after locking the expense row, so readers see
// either the old set or the new one.
func (q *queries) ReplaceSplits(ctx context.Context, expenseID string, splits []*models.Split) error {
	if _, err := q.exec(ctx, `DELETE FROM expense_splits WHERE expense_id = ?`, expenseID); err != nil {
		return fmt.Errorf("failed to delete existing splits: %w", err)
	}

	now := time.Now()
	for _, split := range splits {
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		if split.CreatedAt.IsZero() {
			split.CreatedAt = now
		}
		split.ExpenseID = expenseID

		var settledAt sql.NullInt64
		if split.SettledAt != nil {
			settledAt = sql.NullInt64{Int64: split.SettledAt.Unix(), Valid: true}
		}

		_, err := q.exec(ctx,
			`INSERT INTO expense_splits (`+splitColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			split.ID, expenseID, split.UserID, models.DecimalToCents(split.AmountOwed),
			split.IsSettled, settledAt, split.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// ListSplitsByExpense returns an expense's splits ordered by user.
func (q *queries) ListSplitsByExpense(ctx context.Context, expenseID string) ([]*models.Split, error) {
	rows, err := q.query(ctx,
		`SELECT `+splitColumns+` FROM expense_splits WHERE expense_id = ? ORDER BY user_id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []*models.Split
	for rows.Next() {
		split, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

// GetSplit retrieves a split by ID.
func (q *queries) GetSplit(ctx context.Context, splitID string, forUpdate bool) (*models.Split, error) {
	split, err := scanSplit(q.queryRow(ctx,
		q.lock(`SELECT `+splitColumns+` FROM expense_splits WHERE id = ?`, forUpdate), splitID))
	if err != nil {
		return nil, notFound(err, "split", splitID)
	}
	return split, nil
}

// SettleSplit marks a split settled. An already settled split keeps its
// original settled_at.
func (q *queries) SettleSplit(ctx context.Context, splitID string, at time.Time) error {
	_, err := q.exec(ctx,
		`UPDATE expense_splits SET is_settled = ?, settled_at = ? WHERE id = ? AND is_settled = ?`,
		true, at.Unix(), splitID, false,
	)
	if err != nil {
		return fmt.Errorf("failed to settle split: %w", err)
	}
	return nil
}

const splitLineQuery = `
	SELECT s.id, e.id, e.group_id, s.user_id, e.payer_id, s.amount_owed_cents, e.category, e.date, e.note
	FROM expense_splits s
	JOIN expenses e ON e.id = s.expense_id
	WHERE s.is_settled = ? AND s.user_id <> e.payer_id`

// ListUnsettledByGroup returns the unsettled splits of a group's expenses.
func (q *queries) ListUnsettledByGroup(ctx context.Context, groupID string) ([]models.SplitLine, error) {
	return q.listLines(ctx, splitLineQuery+` AND e.group_id = ? ORDER BY e.date, s.id`, false, groupID)
}

// ListUnsettledByUser returns the unsettled splits where userID owes or is owed.
func (q *queries) ListUnsettledByUser(ctx context.Context, userID string) ([]models.SplitLine, error) {
	return q.listLines(ctx,
		splitLineQuery+` AND (s.user_id = ? OR e.payer_id = ?) ORDER BY e.date, s.id`,
		false, userID, userID)
}

func (q *queries) listLines(ctx context.Context, query string, args ...any) ([]models.SplitLine, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled splits: %w", err)
	}
	defer rows.Close()

	var lines []models.SplitLine
	for rows.Next() {
		var line models.SplitLine
		var cents int64
		var date string
		var groupID, note sql.NullString
		if err := rows.Scan(&line.SplitID, &line.ExpenseID, &groupID, &line.DebtorID,
			&line.CreditorID, &cents, &line.Category, &date, &note); err != nil {
			return nil, fmt.Errorf("failed to scan split line: %w", err)
		}
		parsed, err := time.Parse(models.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
		}
		line.GroupID = groupID.String
		line.Amount = models.CentsToDecimal(cents)
		line.Date = parsed
		line.Note = note.String
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate split lines: %w", err)
	}
	return lines, nil
}

func scanSplit(row rowScanner) (*models.Split, error) {
	split := &models.Split{}
	var cents, createdAt int64
	var settledAt sql.NullInt64
	if err := row.Scan(&split.ID, &split.ExpenseID, &split.UserID, &cents,
		&split.IsSettled, &settledAt, &createdAt); err != nil {
		return nil, err
	}
	split.AmountOwed = models.CentsToDecimal(cents)
	split.CreatedAt = time.Unix(createdAt, 0)
	if settledAt.Valid {
		t := time.Unix(settledAt.Int64, 0)
		split.SettledAt = &t
	}
	return split, nil
}
