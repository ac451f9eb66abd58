package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

const groupColumns = `g.id, g.name, g.description, g.created_by, g.created_at`

// CreateGroup persists a new group.
func (q *queries) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now()
	}

	_, err := q.exec(ctx,
		`INSERT INTO groups (id, name, description, created_by, created_at) VALUES (?, ?, ?, ?, ?)`,
		group.ID, group.Name, nullString(group.Description), group.CreatedBy, group.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (q *queries) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(q.queryRow(ctx,
		`SELECT `+groupColumns+` FROM groups g WHERE g.id = ?`, groupID))
	if err != nil {
		return nil, notFound(err, "group", groupID)
	}
	return group, nil
}

// ListGroupsForUser returns the groups userID is a member of, newest first.
func (q *queries) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := q.query(ctx,
		`SELECT `+groupColumns+`
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// DeleteGroup removes a group. Members, invites, group expenses and their
// splits are removed by ON DELETE CASCADE.
func (q *queries) DeleteGroup(ctx context.Context, groupID string) error {
	return q.execAffecting(ctx, "group", groupID, `DELETE FROM groups WHERE id = ?`, groupID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*models.Group, error) {
	group := &models.Group{}
	var description sql.NullString
	var createdAt int64
	if err := row.Scan(&group.ID, &group.Name, &description, &group.CreatedBy, &createdAt); err != nil {
		return nil, err
	}
	group.Description = description.String
	group.CreatedAt = time.Unix(createdAt, 0)
	return group, nil
}
