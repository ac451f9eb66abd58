package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is a member's capability level within a group.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole parses a role name, case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleOwner, RoleAdmin, RoleMember:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Group is a shared context that multiple users attach expenses to.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Work Lunch").
	Name string

	// Description is optional free text.
	Description string

	// CreatedBy is the user ID of the founding Owner.
	CreatedBy string

	CreatedAt time.Time
}

// Member pairs a user with a group.
type Member struct {
	ID       string
	GroupID  string
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// MemberView is a Member with the user's identity resolved.
type MemberView struct {
	Member
	Email       string
	DisplayName string
}

// GroupDetail is the member-only view of a group.
type GroupDetail struct {
	Group
	Members       []MemberView
	ExpenseCount  int
	RequesterRole Role
}
