package models

import "time"

// InviteStatus is the state of an invitation.
//
//	Pending -> Accepted   on successful redemption
//	Pending -> Expired    when redeemed or checked after ExpiresAt
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteExpired  InviteStatus = "expired"
)

// Invite is an invitation for an email address to join a group.
type Invite struct {
	ID        string
	GroupID   string
	Email     string
	Token     string
	Status    InviteStatus
	InvitedBy string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpiredAt reports whether the invite's validity window has passed at now.
func (i *Invite) IsExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
