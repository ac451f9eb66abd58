// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert hits a uniqueness constraint,
// typically because a concurrent transaction committed the same row first.
var ErrConflict = errors.New("conflict")

// UserStore covers the identity collaborator's persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail and GetUserByID return ErrNotFound for unknown users.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to User.
	// Users that don't exist are omitted from the result.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Store is the unit-of-work entry point.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the ledger.
type Store interface {
	UserStore

	// WithTx runs fn inside one read-write transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// WithReadTx runs fn against one consistent snapshot.
	WithReadTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	UserStore

	// Groups. CreateGroup populates ID and CreatedAt when unset.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// DeleteGroup cascades to members, invites, group expenses and their splits.
	DeleteGroup(ctx context.Context, groupID string) error

	// Members. CreateMember populates ID and JoinedAt when unset.
	CreateMember(ctx context.Context, member *models.Member) error
	GetMemberByUser(ctx context.Context, groupID, userID string) (*models.Member, error)
	GetMember(ctx context.Context, groupID, memberID string) (*models.Member, error)
	ListMembers(ctx context.Context, groupID string) ([]*models.Member, error)
	UpdateMemberRole(ctx context.Context, memberID string, role models.Role) error
	DeleteMember(ctx context.Context, memberID string) error
	CountMembersWithRole(ctx context.Context, groupID string, role models.Role) (int, error)

	// Invites. CreateInvite populates ID when unset and returns ErrConflict
	// when the (group, email) pair already has a pending invite.
	CreateInvite(ctx context.Context, invite *models.Invite) error
	GetInviteByToken(ctx context.Context, token string) (*models.Invite, error)
	FindPendingInvite(ctx context.Context, groupID, email string) (*models.Invite, error)
	UpdateInviteStatus(ctx context.Context, inviteID string, status models.InviteStatus) error

	// Expenses. CreateExpense populates ID and CreatedAt when unset.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense reads an expense; forUpdate takes a row lock where the
	// backend supports one.
	GetExpense(ctx context.Context, expenseID string, forUpdate bool) (*models.Expense, error)

	// ListExpensesByGroup returns a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	CountExpensesByGroup(ctx context.Context, groupID string) (int, error)
	SetExpenseGroup(ctx context.Context, expenseID, groupID string) error
	DeleteExpense(ctx context.Context, expenseID string) error

	// Splits. ReplaceSplits deletes every split of the expense, then inserts
	// splits, populating IDs and CreatedAt.
	ReplaceSplits(ctx context.Context, expenseID string, splits []*models.Split) error
	ListSplitsByExpense(ctx context.Context, expenseID string) ([]*models.Split, error)
	GetSplit(ctx context.Context, splitID string, forUpdate bool) (*models.Split, error)

	// SettleSplit marks an unsettled split settled at the given time.
	// Settled splits are left untouched.
	SettleSplit(ctx context.Context, splitID string, at time.Time) error

	// ListUnsettledByGroup returns the unsettled splits of a group's expenses.
	ListUnsettledByGroup(ctx context.Context, groupID string) ([]models.SplitLine, error)

	// ListUnsettledByUser returns the unsettled splits where userID is the
	// debtor or the payer, across all groups and personal expenses.
	ListUnsettledByUser(ctx context.Context, userID string) ([]models.SplitLine, error)
}
