// Package ledger implements the group expense-splitting and settlement ledger.
//
// Every operation runs in its own storage transaction and re-derives the
// caller's authorization from the current member table. Notifications and
// events go out only after the transaction commits.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/storage"
)

// DefaultInviteTTL is how long an invite stays redeemable.
const DefaultInviteTTL = 7 * 24 * time.Hour

// InviteNotice is what a Mailer needs to deliver an invitation.
type InviteNotice struct {
	Email        string
	Token        string
	GroupName    string
	InviterEmail string
	ExpiresAt    time.Time
}

// Mailer delivers invitations.
type Mailer interface {
	SendInvite(ctx context.Context, notice InviteNotice) error
}

// Event types published after a successful commit.
const (
	EventInviteCreated = "invite.created"
	EventMemberJoined  = "member.joined"
	EventExpenseSplit  = "expense.split"
	EventSplitSettled  = "split.settled"
)

// Event is a fact about committed ledger state.
type Event struct {
	Type       string    `json:"type"`
	GroupID    string    `json:"group_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	SubjectID  string    `json:"subject_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Ledger is the entry point for all group, split and balance operations.
type Ledger struct {
	store     storage.Store
	now       func() time.Time
	inviteTTL time.Duration
	mailer    Mailer
	events    Publisher
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithInviteTTL overrides DefaultInviteTTL.
func WithInviteTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		if ttl > 0 {
			l.inviteTTL = ttl
		}
	}
}

// WithMailer sets the invite mailer.
func WithMailer(m Mailer) Option {
	return func(l *Ledger) { l.mailer = m }
}

// WithPublisher sets the event publisher.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.events = p }
}

// New creates a Ledger over store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		now:       time.Now,
		inviteTTL: DefaultInviteTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) publish(ctx context.Context, eventType, groupID, actorID, subjectID string) {
	if l.events == nil {
		return
	}
	event := Event{
		Type:       eventType,
		GroupID:    groupID,
		ActorID:    actorID,
		SubjectID:  subjectID,
		OccurredAt: l.now(),
	}
	if err := l.events.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish event", "type", eventType, "subject_id", subjectID, "error", err)
	}
}
