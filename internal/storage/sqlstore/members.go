package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

const memberColumns = `id, group_id, user_id, role, joined_at`

// CreateMember adds a user to a group.
func (q *queries) CreateMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.JoinedAt.IsZero() {
		member.JoinedAt = time.Now()
	}

	_, err := q.exec(ctx,
		`INSERT INTO group_members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?)`,
		member.ID, member.GroupID, member.UserID, string(member.Role), member.JoinedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// GetMemberByUser returns userID's membership in groupID.
func (q *queries) GetMemberByUser(ctx context.Context, groupID, userID string) (*models.Member, error) {
	member, err := scanMember(q.queryRow(ctx,
		`SELECT `+memberColumns+` FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID))
	if err != nil {
		return nil, notFound(err, "member", userID)
	}
	return member, nil
}

// GetMember returns a membership by its ID, scoped to groupID.
func (q *queries) GetMember(ctx context.Context, groupID, memberID string) (*models.Member, error) {
	member, err := scanMember(q.queryRow(ctx,
		`SELECT `+memberColumns+` FROM group_members WHERE group_id = ? AND id = ?`,
		groupID, memberID))
	if err != nil {
		return nil, notFound(err, "member", memberID)
	}
	return member, nil
}

// ListMembers returns a group's members in join order.
func (q *queries) ListMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	rows, err := q.query(ctx,
		`SELECT `+memberColumns+` FROM group_members WHERE group_id = ? ORDER BY joined_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// UpdateMemberRole changes a member's role.
func (q *queries) UpdateMemberRole(ctx context.Context, memberID string, role models.Role) error {
	return q.execAffecting(ctx, "member", memberID,
		`UPDATE group_members SET role = ? WHERE id = ?`, string(role), memberID)
}

// DeleteMember removes a membership.
func (q *queries) DeleteMember(ctx context.Context, memberID string) error {
	return q.execAffecting(ctx, "member", memberID,
		`DELETE FROM group_members WHERE id = ?`, memberID)
}

// CountMembersWithRole counts a group's members holding role.
func (q *queries) CountMembersWithRole(ctx context.Context, groupID string, role models.Role) (int, error) {
	var n int
	err := q.queryRow(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND role = ?`,
		groupID, string(role),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

func scanMember(row rowScanner) (*models.Member, error) {
	member := &models.Member{}
	var role string
	var joinedAt int64
	if err := row.Scan(&member.ID, &member.GroupID, &member.UserID, &role, &joinedAt); err != nil {
		return nil, err
	}
	member.Role = models.Role(role)
	member.JoinedAt = time.Unix(joinedAt, 0)
	return member, nil
}
