package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// CreateGroup creates a group with creatorID as its Owner, atomically.
func (l *Ledger) CreateGroup(ctx context.Context, creatorID, name, description string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("group name is required")
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   creatorID,
		CreatedAt:   l.now(),
	}

	err := l.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.CreateGroup(ctx, group); err != nil {
			return err
		}
		return tx.CreateMember(ctx, &models.Member{
			GroupID:  group.ID,
			UserID:   creatorID,
			Role:     models.RoleOwner,
			JoinedAt: group.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.GroupsCreated.Inc()
	return group, nil
}

// ListGroupsForUser returns every group userID belongs to.
func (l *Ledger) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	var groups []*models.Group
	err := l.store.WithReadTx(ctx, func(tx storage.Tx) error {
		var err error
		groups, err = tx.ListGroupsForUser(ctx, userID)
		return err
	})
	return groups, err
}

// GetGroupDetail returns the group with its members and expense count.
// Non-members get ErrNotAMember whether or not the group exists.
func (l *Ledger) GetGroupDetail(ctx context.Context, groupID, requesterID string) (*models.GroupDetail, error) {
	var detail *models.GroupDetail
	err := l.store.WithReadTx(ctx, func(tx storage.Tx) error {
		requester, err := authorize(ctx, tx, groupID, requesterID)
		if err != nil {
			return err
		}

		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return translate(err, "group")
		}
		members, err := tx.ListMembers(ctx, groupID)
		if err != nil {
			return err
		}
		count, err := tx.CountExpensesByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		views, err := resolveMembers(ctx, tx, members)
		if err != nil {
			return err
		}

		detail = &models.GroupDetail{
			Group:         *group,
			Members:       views,
			ExpenseCount:  count,
			RequesterRole: requester.Role,
		}
		return nil
	})
	return detail, err
}

func resolveMembers(ctx context.Context, tx storage.Tx, members []*models.Member) ([]models.MemberView, error) {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	users, err := tx.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.MemberView, len(members))
	for i, m := range members {
		views[i] = models.MemberView{Member: *m}
		if u, ok := users[m.UserID]; ok {
			views[i].Email = u.Email
			views[i].DisplayName = u.DisplayName
		}
	}
	return views, nil
}

// InviteMember invites email to the group. Only Owners and Admins may invite.
//
// A live pending invite for the same (group, email) is returned unchanged,
// including when a concurrent call created it first.
// A pending invite that has already expired is marked Expired and replaced.
// The invitation e-mail is sent after commit, and only for new invites.
func (l *Ledger) InviteMember(ctx context.Context, groupID, email, inviterID string) (*models.Invite, error) {
	email = models.NormalizeEmail(email)
	if err := validation.Email(email); err != nil {
		return nil, validationf("invalid email %q", email)
	}

	var (
		invite  *models.Invite
		created bool
		notice  InviteNotice
	)
	issue := func(tx storage.Tx) error {
		if _, err := authorize(ctx, tx, groupID, inviterID, models.RoleOwner, models.RoleAdmin); err != nil {
			return err
		}

		now := l.now()
		existing, err := tx.FindPendingInvite(ctx, groupID, email)
		switch {
		case err == nil && !existing.IsExpiredAt(now):
			invite = existing
			return nil
		case err == nil:
			if err := tx.UpdateInviteStatus(ctx, existing.ID, models.InviteExpired); err != nil {
				return err
			}
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		token, err := newInviteToken()
		if err != nil {
			return err
		}
		invite = &models.Invite{
			GroupID:   groupID,
			Email:     email,
			Token:     token,
			Status:    models.InvitePending,
			InvitedBy: inviterID,
			CreatedAt: now,
			ExpiresAt: now.Add(l.inviteTTL),
		}
		if err := tx.CreateInvite(ctx, invite); err != nil {
			return err
		}
		created = true

		group, err := tx.GetGroup(ctx, groupID)
		if err != nil {
			return translate(err, "group")
		}
		notice = InviteNotice{
			Email:     email,
			Token:     token,
			GroupName: group.Name,
			ExpiresAt: invite.ExpiresAt,
		}
		if inviter, err := tx.GetUserByID(ctx, inviterID); err == nil {
			notice.InviterEmail = inviter.Email
		}
		return nil
	}

	// Two first invites for the same address can race past
	// FindPendingInvite. The loser's insert conflicts with the winner's
	// committed row, and a second pass returns that row.
	err := l.store.WithTx(ctx, issue)
	if errors.Is(err, storage.ErrConflict) {
		created = false
		err = l.store.WithTx(ctx, issue)
	}
	if err != nil {
		return nil, err
	}

	if !created {
		metrics.InvitesIssued.WithLabelValues("reused").Inc()
		return invite, nil
	}

	metrics.InvitesIssued.WithLabelValues("created").Inc()
	if l.mailer != nil {
		if err := l.mailer.SendInvite(ctx, notice); err != nil {
			slog.Warn("Failed to send invite email", "group_id", groupID, "invite_id", invite.ID, "error", err)
		}
	}
	l.publish(ctx, EventInviteCreated, groupID, inviterID, invite.ID)
	return invite, nil
}

// AcceptInvite redeems token for userID and returns the resulting membership.
//
// Checks run in order: unknown token, not pending, expired, email mismatch.
// An expired invite is moved to Expired even though the call fails.
// Accepting while already a member marks the invite Accepted and returns
// the existing membership.
func (l *Ledger) AcceptInvite(ctx context.Context, token, userID string) (*models.Member, error) {
	var (
		member  *models.Member
		expired bool
		joined  bool
	)
	err := l.store.WithTx(ctx, func(tx storage.Tx) error {
		invite, err := tx.GetInviteByToken(ctx, token)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}

		if invite.Status != models.InvitePending {
			return fmt.Errorf("%w: status is %s", ErrNotPending, invite.Status)
		}

		now := l.now()
		if invite.IsExpiredAt(now) {
			// Commit the transition, then report the failure.
			expired = true
			return tx.UpdateInviteStatus(ctx, invite.ID, models.InviteExpired)
		}

		user, err := tx.GetUserByID(ctx, userID)
		if err != nil {
			return translate(err, "user")
		}
		if !strings.EqualFold(user.Email, invite.Email) {
			return ErrEmailMismatch
		}

		member, err = tx.GetMemberByUser(ctx, invite.GroupID, userID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			member = &models.Member{
				GroupID:  invite.GroupID,
				UserID:   userID,
				Role:     models.RoleMember,
				JoinedAt: now,
			}
			if err := tx.CreateMember(ctx, member); err != nil {
				return err
			}
			joined = true
		case err != nil:
			return err
		}

		return tx.UpdateInviteStatus(ctx, invite.ID, models.InviteAccepted)
	})
	if err != nil {
		return nil, err
	}
	if expired {
		metrics.InvitesRedeemed.WithLabelValues("expired").Inc()
		return nil, ErrExpired
	}

	if joined {
		metrics.InvitesRedeemed.WithLabelValues("joined").Inc()
		l.publish(ctx, EventMemberJoined, member.GroupID, userID, member.ID)
	} else {
		metrics.InvitesRedeemed.WithLabelValues("already_member").Inc()
	}
	return member, nil
}

// CheckInvite returns the invite for token. A pending invite past its
// expiry is moved to Expired before it is returned.
func (l *Ledger) CheckInvite(ctx context.Context, token string) (*models.Invite, error) {
	var invite *models.Invite
	err := l.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		invite, err = tx.GetInviteByToken(ctx, token)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}

		if invite.Status == models.InvitePending && invite.IsExpiredAt(l.now()) {
			if err := tx.UpdateInviteStatus(ctx, invite.ID, models.InviteExpired); err != nil {
				return err
			}
			invite.Status = models.InviteExpired
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// RemoveMember deletes a membership. Only Owners and Admins may remove, and
// an Owner can never be removed. Removing a member that does not exist
// succeeds with removed=false.
func (l *Ledger) RemoveMember(ctx context.Context, groupID, memberID, actorID string) (removed bool, err error) {
	err = l.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := authorize(ctx, tx, groupID, actorID, models.RoleOwner, models.RoleAdmin); err != nil {
			return err
		}

		target, err := tx.GetMember(ctx, groupID, memberID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if target.Role == models.RoleOwner {
			return fmt.Errorf("%w: the group owner cannot be removed", ErrForbidden)
		}

		if err := tx.DeleteMember(ctx, target.ID); err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

// UpdateMemberRole changes a member's role. Only Owners may do this, and the
// group always keeps at least one Owner.
func (l *Ledger) UpdateMemberRole(ctx context.Context, groupID, memberID string, role models.Role, actorID string) (*models.Member, error) {
	role, err := models.ParseRole(string(role))
	if err != nil {
		return nil, validationf("%v", err)
	}

	var target *models.Member
	err = l.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := authorize(ctx, tx, groupID, actorID, models.RoleOwner); err != nil {
			return err
		}

		var err error
		target, err = tx.GetMember(ctx, groupID, memberID)
		if err != nil {
			return translate(err, "member")
		}
		if target.Role == role {
			return nil
		}

		if target.Role == models.RoleOwner {
			owners, err := tx.CountMembersWithRole(ctx, groupID, models.RoleOwner)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return validationf("group must keep at least one owner")
			}
		}

		if err := tx.UpdateMemberRole(ctx, target.ID, role); err != nil {
			return err
		}
		target.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// DeleteGroup deletes a group and everything scoped to it. Owner only.
func (l *Ledger) DeleteGroup(ctx context.Context, groupID, actorID string) error {
	return l.store.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := authorize(ctx, tx, groupID, actorID, models.RoleOwner); err != nil {
			return err
		}
		return translate(tx.DeleteGroup(ctx, groupID), "group")
	})
}
