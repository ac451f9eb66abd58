package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const inviteColumns = `id, group_id, email, token, status, invited_by, created_at, expires_at`

// CreateInvite persists an invitation. At most one pending invite may exist
// per (group, email); a second one violates idx_group_invites_pending.
func (q *queries) CreateInvite(ctx context.Context, invite *models.Invite) error {
	if invite.ID == "" {
		invite.ID = uuid.New().String()
	}
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now()
	}

	_, err := q.exec(ctx,
		`INSERT INTO group_invites (`+inviteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		invite.ID, invite.GroupID, models.NormalizeEmail(invite.Email), invite.Token,
		string(invite.Status), invite.InvitedBy, invite.CreatedAt.Unix(), invite.ExpiresAt.Unix(),
	)
	if q.dialect.IsUniqueViolation(err) {
		return fmt.Errorf("pending invite for %s: %w", invite.Email, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert invite: %w", err)
	}
	return nil
}

// GetInviteByToken looks an invite up by its redemption token.
func (q *queries) GetInviteByToken(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := scanInvite(q.queryRow(ctx,
		q.lock(`SELECT `+inviteColumns+` FROM group_invites WHERE token = ?`, true), token))
	if err != nil {
		return nil, notFound(err, "invite", "for token")
	}
	return invite, nil
}

// FindPendingInvite returns the pending invite for (groupID, email).
func (q *queries) FindPendingInvite(ctx context.Context, groupID, email string) (*models.Invite, error) {
	invite, err := scanInvite(q.queryRow(ctx,
		q.lock(`SELECT `+inviteColumns+` FROM group_invites WHERE group_id = ? AND email = ? AND status = ?`, true),
		groupID, models.NormalizeEmail(email), string(models.InvitePending)))
	if err != nil {
		return nil, notFound(err, "pending invite", email)
	}
	return invite, nil
}

// UpdateInviteStatus moves an invite to status.
func (q *queries) UpdateInviteStatus(ctx context.Context, inviteID string, status models.InviteStatus) error {
	return q.execAffecting(ctx, "invite", inviteID,
		`UPDATE group_invites SET status = ? WHERE id = ?`, string(status), inviteID)
}

func scanInvite(row rowScanner) (*models.Invite, error) {
	invite := &models.Invite{}
	var status string
	var createdAt, expiresAt int64
	if err := row.Scan(&invite.ID, &invite.GroupID, &invite.Email, &invite.Token,
		&status, &invite.InvitedBy, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	invite.Status = models.InviteStatus(status)
	invite.CreatedAt = time.Unix(createdAt, 0)
	invite.ExpiresAt = time.Unix(expiresAt, 0)
	return invite, nil
}
