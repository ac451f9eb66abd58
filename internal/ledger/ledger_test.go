package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingMailer struct {
	mu      sync.Mutex
	notices []InviteNotice
}

func (m *recordingMailer) SendInvite(_ context.Context, n InviteNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	ledger *Ledger
	store  *sqlstore.Store
	clock  *fakeClock
	mailer *recordingMailer
	events *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlstore.New(sqlstore.Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:  store,
		clock:  &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		mailer: &recordingMailer{},
		events: &recordingPublisher{},
	}
	f.ledger = New(store,
		WithClock(f.clock.Now),
		WithMailer(f.mailer),
		WithPublisher(f.events),
	)
	return f
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := models.NewUser(email, email, "hash")
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

// join invites and admits u into groupID on behalf of ownerID.
func (f *fixture) join(t *testing.T, groupID, ownerID string, u *models.User) *models.Member {
	t.Helper()
	ctx := context.Background()
	invite, err := f.ledger.InviteMember(ctx, groupID, u.Email, ownerID)
	require.NoError(t, err)
	member, err := f.ledger.AcceptInvite(ctx, invite.Token, u.ID)
	require.NoError(t, err)
	return member
}

func (f *fixture) expense(t *testing.T, payerID, groupID, amount string) *models.Expense {
	t.Helper()
	e, err := f.ledger.CreateExpense(context.Background(), payerID, ExpenseInput{
		Amount:   decimal.RequireFromString(amount),
		Category: "food",
		GroupID:  groupID,
	})
	require.NoError(t, err)
	return e
}

func equalShares(ids ...string) []calculator.Share {
	shares := make([]calculator.Share, len(ids))
	for i, id := range ids {
		shares[i] = calculator.Share{UserID: id}
	}
	return shares
}

func TestScenario_SplitAndSettle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")

	g, err := f.ledger.CreateGroup(ctx, a.ID, "G", "")
	require.NoError(t, err)
	f.join(t, g.ID, a.ID, b)

	e := f.expense(t, a.ID, g.ID, "300")
	splits, err := f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID), a.ID)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, b.ID, splits[0].UserID)
	assert.Equal(t, "150.00", splits[0].AmountOwed.StringFixed(2))
	assert.False(t, splits[0].IsSettled)

	bal, err := f.ledger.GetUserBalances(ctx, g.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, bal.Owes, 1)
	assert.Equal(t, a.ID, bal.Owes[0].UserID)
	assert.Equal(t, "a@example.com", bal.Owes[0].Email)
	assert.Equal(t, "150.00", bal.Owes[0].Amount.StringFixed(2))
	assert.Equal(t, "-150.00", bal.NetBalance.StringFixed(2))

	settled, err := f.ledger.SettleSplit(ctx, splits[0].ID, a.ID)
	require.NoError(t, err)
	assert.True(t, settled.IsSettled)

	bal, err = f.ledger.GetUserBalances(ctx, g.ID, b.ID)
	require.NoError(t, err)
	assert.Empty(t, bal.Owes)
	assert.Equal(t, "0.00", bal.NetBalance.StringFixed(2))

	assert.Contains(t, f.events.types(), EventExpenseSplit)
	assert.Contains(t, f.events.types(), EventSplitSettled)
}

func TestCreateGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")

	_, err := f.ledger.CreateGroup(ctx, a.ID, "   ", "")
	assert.ErrorIs(t, err, ErrValidation)

	g, err := f.ledger.CreateGroup(ctx, a.ID, "Flat", "rent and bills")
	require.NoError(t, err)

	detail, err := f.ledger.GetGroupDetail(ctx, g.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, models.RoleOwner, detail.Members[0].Role)
	assert.Equal(t, models.RoleOwner, detail.RequesterRole)
	assert.Equal(t, "a@example.com", detail.Members[0].Email)
	assert.Equal(t, 0, detail.ExpenseCount)

	groups, err := f.ledger.ListGroupsForUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, g.ID, groups[0].ID)
}

func TestGetGroupDetail_NoAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	outsider := f.user(t, "x@example.com")

	g, err := f.ledger.CreateGroup(ctx, a.ID, "G", "")
	require.NoError(t, err)

	_, err = f.ledger.GetGroupDetail(ctx, g.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotAMember)

	// A missing group looks the same as an inaccessible one.
	_, err = f.ledger.GetGroupDetail(ctx, "no-such-group", outsider.ID)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestInviteMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	member := f.user(t, "member@example.com")

	g, err := f.ledger.CreateGroup(ctx, owner.ID, "G", "")
	require.NoError(t, err)
	f.join(t, g.ID, owner.ID, member)

	t.Run("single flight", func(t *testing.T) {
		first, err := f.ledger.InviteMember(ctx, g.ID, "New@Example.com", owner.ID)
		require.NoError(t, err)
		second, err := f.ledger.InviteMember(ctx, g.ID, "new@example.com", owner.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Token, second.Token)
		assert.Equal(t, "new@example.com", first.Email)
		assert.GreaterOrEqual(t, len(first.Token), 43)
		assert.Equal(t, first.CreatedAt.Add(DefaultInviteTTL).Unix(), first.ExpiresAt.Unix())
	})

	t.Run("mail sent once per new invite", func(t *testing.T) {
		count := 0
		for _, n := range f.mailer.notices {
			if n.Email == "new@example.com" {
				count++
				assert.Equal(t, "G", n.GroupName)
				assert.Equal(t, "owner@example.com", n.InviterEmail)
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("plain members cannot invite", func(t *testing.T) {
		_, err := f.ledger.InviteMember(ctx, g.ID, "other@example.com", member.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := f.ledger.InviteMember(ctx, g.ID, "not-an-email", owner.ID)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("display-name address is rejected", func(t *testing.T) {
		for _, email := range []string{"Bob <b@example.com>", "<b@example.com>"} {
			_, err := f.ledger.InviteMember(ctx, g.ID, email, owner.ID)
			assert.ErrorIs(t, err, ErrValidation, email)
		}

		// The bare address is invited and redeemable by its owner.
		b := f.user(t, "b@example.com")
		invite, err := f.ledger.InviteMember(ctx, g.ID, "B@example.com", owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "b@example.com", invite.Email)
		_, err = f.ledger.AcceptInvite(ctx, invite.Token, b.ID)
		assert.NoError(t, err)
	})

	t.Run("stale pending invite is replaced", func(t *testing.T) {
		old, err := f.ledger.InviteMember(ctx, g.ID, "late@example.com", owner.ID)
		require.NoError(t, err)

		f.clock.Advance(DefaultInviteTTL + time.Hour)
		fresh, err := f.ledger.InviteMember(ctx, g.ID, "late@example.com", owner.ID)
		require.NoError(t, err)
		assert.NotEqual(t, old.Token, fresh.Token)

		checked, err := f.ledger.CheckInvite(ctx, old.Token)
		require.NoError(t, err)
		assert.Equal(t, models.InviteExpired, checked.Status)
	})
}

func TestAcceptInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	bob := f.user(t, "bob@example.com")
	eve := f.user(t, "eve@example.com")

	g, err := f.ledger.CreateGroup(ctx, owner.ID, "G", "")
	require.NoError(t, err)

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.ledger.AcceptInvite(ctx, "bogus", bob.ID)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	invite, err := f.ledger.InviteMember(ctx, g.ID, "BOB@example.com", owner.ID)
	require.NoError(t, err)

	t.Run("email mismatch", func(t *testing.T) {
		_, err := f.ledger.AcceptInvite(ctx, invite.Token, eve.ID)
		assert.ErrorIs(t, err, ErrEmailMismatch)
	})

	t.Run("success creates member", func(t *testing.T) {
		m, err := f.ledger.AcceptInvite(ctx, invite.Token, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleMember, m.Role)
		assert.Equal(t, g.ID, m.GroupID)
		assert.Contains(t, f.events.types(), EventMemberJoined)
	})

	t.Run("second redemption is not pending", func(t *testing.T) {
		_, err := f.ledger.AcceptInvite(ctx, invite.Token, bob.ID)
		assert.ErrorIs(t, err, ErrNotPending)
	})

	t.Run("already a member", func(t *testing.T) {
		again, err := f.ledger.InviteMember(ctx, g.ID, bob.Email, owner.ID)
		require.NoError(t, err)
		m, err := f.ledger.AcceptInvite(ctx, again.Token, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, bob.ID, m.UserID)

		checked, err := f.ledger.CheckInvite(ctx, again.Token)
		require.NoError(t, err)
		assert.Equal(t, models.InviteAccepted, checked.Status)

		detail, err := f.ledger.GetGroupDetail(ctx, g.ID, owner.ID)
		require.NoError(t, err)
		assert.Len(t, detail.Members, 2)
	})

	t.Run("expired invite transitions and fails", func(t *testing.T) {
		late, err := f.ledger.InviteMember(ctx, g.ID, eve.Email, owner.ID)
		require.NoError(t, err)

		f.clock.Advance(DefaultInviteTTL + time.Second)
		_, err = f.ledger.AcceptInvite(ctx, late.Token, eve.ID)
		assert.ErrorIs(t, err, ErrExpired)

		checked, err := f.ledger.CheckInvite(ctx, late.Token)
		require.NoError(t, err)
		assert.Equal(t, models.InviteExpired, checked.Status)

		_, err = f.ledger.AcceptInvite(ctx, late.Token, eve.ID)
		assert.ErrorIs(t, err, ErrNotPending)
	})
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	admin := f.user(t, "admin@example.com")
	bob := f.user(t, "bob@example.com")

	g, err := f.ledger.CreateGroup(ctx, owner.ID, "G", "")
	require.NoError(t, err)
	adminMember := f.join(t, g.ID, owner.ID, admin)
	bobMember := f.join(t, g.ID, owner.ID, bob)
	_, err = f.ledger.UpdateMemberRole(ctx, g.ID, adminMember.ID, models.RoleAdmin, owner.ID)
	require.NoError(t, err)

	detail, err := f.ledger.GetGroupDetail(ctx, g.ID, owner.ID)
	require.NoError(t, err)
	var ownerMemberID string
	for _, m := range detail.Members {
		if m.Role == models.RoleOwner {
			ownerMemberID = m.ID
		}
	}

	t.Run("owner can never be removed", func(t *testing.T) {
		for _, actor := range []*models.User{owner, admin, bob} {
			_, err := f.ledger.RemoveMember(ctx, g.ID, ownerMemberID, actor.ID)
			assert.ErrorIs(t, err, ErrForbidden, "actor %s", actor.Email)
		}
	})

	t.Run("plain member cannot remove", func(t *testing.T) {
		_, err := f.ledger.RemoveMember(ctx, g.ID, adminMember.ID, bob.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin removes member", func(t *testing.T) {
		removed, err := f.ledger.RemoveMember(ctx, g.ID, bobMember.ID, admin.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = f.ledger.GetGroupDetail(ctx, g.ID, bob.ID)
		assert.ErrorIs(t, err, ErrNotAMember)
	})

	t.Run("missing member is a no-op", func(t *testing.T) {
		removed, err := f.ledger.RemoveMember(ctx, g.ID, bobMember.ID, admin.ID)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestUpdateMemberRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	bob := f.user(t, "bob@example.com")

	g, err := f.ledger.CreateGroup(ctx, owner.ID, "G", "")
	require.NoError(t, err)
	bobMember := f.join(t, g.ID, owner.ID, bob)

	_, err = f.ledger.UpdateMemberRole(ctx, g.ID, bobMember.ID, models.RoleAdmin, bob.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.ledger.UpdateMemberRole(ctx, g.ID, bobMember.ID, models.Role("king"), owner.ID)
	assert.ErrorIs(t, err, ErrValidation)

	// Role names are case-insensitive and stored normalized.
	admin, err := f.ledger.UpdateMemberRole(ctx, g.ID, bobMember.ID, models.Role(" Admin"), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	detail, err := f.ledger.GetGroupDetail(ctx, g.ID, owner.ID)
	require.NoError(t, err)
	var ownerMemberID string
	for _, m := range detail.Members {
		if m.UserID == owner.ID {
			ownerMemberID = m.ID
		}
		if m.UserID == bob.ID {
			assert.Equal(t, models.RoleAdmin, m.Role)
		}
	}

	_, err = f.ledger.UpdateMemberRole(ctx, g.ID, ownerMemberID, models.RoleMember, owner.ID)
	assert.ErrorIs(t, err, ErrValidation, "the last owner cannot step down")

	updated, err := f.ledger.UpdateMemberRole(ctx, g.ID, bobMember.ID, models.RoleOwner, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, updated.Role)

	_, err = f.ledger.UpdateMemberRole(ctx, g.ID, ownerMemberID, models.RoleMember, owner.ID)
	assert.NoError(t, err, "a second owner allows the first to step down")

	_, err = f.ledger.UpdateMemberRole(ctx, g.ID, "no-such-member", models.RoleAdmin, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteGroup_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")
	bob := f.user(t, "bob@example.com")

	g, err := f.ledger.CreateGroup(ctx, owner.ID, "G", "")
	require.NoError(t, err)
	f.join(t, g.ID, owner.ID, bob)
	e := f.expense(t, owner.ID, g.ID, "40")
	_, err = f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyEqual, equalShares(owner.ID, bob.ID), owner.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.ledger.DeleteGroup(ctx, g.ID, bob.ID), ErrForbidden)
	require.NoError(t, f.ledger.DeleteGroup(ctx, g.ID, owner.ID))

	_, err = f.ledger.ListExpenseSplits(ctx, e.ID, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	splits, err := f.ledger.GetUserSplits(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, splits.Owes)
}

func TestSplitExpense_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	outsider := f.user(t, "x@example.com")

	g, err := f.ledger.CreateGroup(ctx, a.ID, "G", "")
	require.NoError(t, err)
	f.join(t, g.ID, a.ID, b)

	groupExpense := f.expense(t, a.ID, g.ID, "90")
	personal := f.expense(t, a.ID, "", "90")

	_, err = f.ledger.SplitExpense(ctx, groupExpense.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID), b.ID)
	assert.NoError(t, err, "group members may split")

	_, err = f.ledger.SplitExpense(ctx, groupExpense.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID), outsider.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.ledger.SplitExpense(ctx, personal.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID), b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.ledger.SplitExpense(ctx, personal.ID, calculator.PolicyEqual, equalShares(a.ID, outsider.ID), a.ID)
	assert.NoError(t, err, "personal expenses may include any user")

	_, err = f.ledger.SplitExpense(ctx, groupExpense.ID, calculator.PolicyEqual, equalShares(a.ID, outsider.ID), a.ID)
	assert.ErrorIs(t, err, ErrValidation, "group splits are limited to members")

	_, err = f.ledger.SplitExpense(ctx, "no-such-expense", calculator.PolicyEqual, equalShares(a.ID), a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSplitExpense_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	e := f.expense(t, a.ID, "", "100")

	_, err := f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyPercentage, []calculator.Share{
		{UserID: a.ID, Percentage: decimal.NewFromInt(50)},
		{UserID: b.ID, Percentage: decimal.NewFromInt(40)},
	}, a.ID)
	require.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, calculator.ErrPercentageSum)

	_, err = f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyEqual, equalShares(b.ID), a.ID)
	assert.ErrorIs(t, err, calculator.ErrPayerNotListed)

	splits, err := f.ledger.ListExpenseSplits(ctx, e.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, splits, "nothing is written when validation fails")
}

func TestSplitExpense_ReplacesPriorSplits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	c := f.user(t, "c@example.com")

	g, err := f.ledger.CreateGroup(ctx, a.ID, "G", "")
	require.NoError(t, err)
	f.join(t, g.ID, a.ID, b)
	f.join(t, g.ID, a.ID, c)
	e := f.expense(t, a.ID, g.ID, "120")

	first, err := f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID, c.ID), a.ID)
	require.NoError(t, err)
	_, err = f.ledger.SettleSplit(ctx, first[0].ID, a.ID)
	require.NoError(t, err)

	_, err = f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyCustom, []calculator.Share{
		{UserID: a.ID, Amount: decimal.NewFromInt(20)},
		{UserID: c.ID, Amount: decimal.NewFromInt(100)},
	}, a.ID)
	require.NoError(t, err)

	splits, err := f.ledger.ListExpenseSplits(ctx, e.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, c.ID, splits[0].UserID)
	assert.Equal(t, "100.00", splits[0].AmountOwed.StringFixed(2))
	assert.False(t, splits[0].IsSettled, "re-splitting resets settlement state")
}

func TestSplitExpense_ConcurrentReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	c := f.user(t, "c@example.com")

	g, err := f.ledger.CreateGroup(ctx, a.ID, "G", "")
	require.NoError(t, err)
	f.join(t, g.ID, a.ID, b)
	f.join(t, g.ID, a.ID, c)
	e := f.expense(t, a.ID, g.ID, "90")

	sets := [][]calculator.Share{
		equalShares(a.ID, b.ID),
		equalShares(a.ID, b.ID, c.ID),
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(shares []calculator.Share) {
			defer wg.Done()
			_, err := f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyEqual, shares, a.ID)
			assert.NoError(t, err)
		}(sets[i%2])
	}
	wg.Wait()

	splits, err := f.ledger.ListExpenseSplits(ctx, e.ID, a.ID)
	require.NoError(t, err)

	// The result is exactly one of the two sets, never a mix.
	switch len(splits) {
	case 1:
		assert.Equal(t, b.ID, splits[0].UserID)
		assert.Equal(t, "45.00", splits[0].AmountOwed.StringFixed(2))
	case 2:
		for _, s := range splits {
			assert.Equal(t, "30.00", s.AmountOwed.StringFixed(2))
		}
	default:
		t.Fatalf("unexpected split count %d", len(splits))
	}
}

func TestSettleSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	c := f.user(t, "c@example.com")
	e := f.expense(t, a.ID, "", "50")

	splits, err := f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID), a.ID)
	require.NoError(t, err)

	_, err = f.ledger.SettleSplit(ctx, splits[0].ID, c.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.ledger.SettleSplit(ctx, "no-such-split", a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := f.ledger.SettleSplit(ctx, splits[0].ID, b.ID)
	require.NoError(t, err)
	require.True(t, first.IsSettled)
	require.NotNil(t, first.SettledAt)

	f.clock.Advance(time.Hour)
	second, err := f.ledger.SettleSplit(ctx, splits[0].ID, a.ID)
	require.NoError(t, err)
	assert.True(t, second.IsSettled)
	assert.Equal(t, first.SettledAt.Unix(), second.SettledAt.Unix(), "re-settling keeps the first timestamp")
}

func TestGroupBalances_Conservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	c := f.user(t, "c@example.com")
	d := f.user(t, "d@example.com")

	g, err := f.ledger.CreateGroup(ctx, a.ID, "G", "")
	require.NoError(t, err)
	for _, u := range []*models.User{b, c, d} {
		f.join(t, g.ID, a.ID, u)
	}

	e1 := f.expense(t, a.ID, g.ID, "100")
	_, err = f.ledger.SplitExpense(ctx, e1.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID, c.ID), a.ID)
	require.NoError(t, err)

	e2 := f.expense(t, b.ID, g.ID, "80")
	s2, err := f.ledger.SplitExpense(ctx, e2.ID, calculator.PolicyPercentage, []calculator.Share{
		{UserID: b.ID, Percentage: decimal.NewFromInt(25)},
		{UserID: c.ID, Percentage: decimal.NewFromInt(25)},
		{UserID: d.ID, Percentage: decimal.NewFromInt(50)},
	}, b.ID)
	require.NoError(t, err)

	e3 := f.expense(t, d.ID, g.ID, "33.33")
	_, err = f.ledger.SplitExpense(ctx, e3.ID, calculator.PolicyCustom, []calculator.Share{
		{UserID: d.ID, Amount: decimal.RequireFromString("3.33")},
		{UserID: a.ID, Amount: decimal.RequireFromString("30")},
	}, d.ID)
	require.NoError(t, err)

	_, err = f.ledger.SettleSplit(ctx, s2[0].ID, b.ID)
	require.NoError(t, err)

	report, err := f.ledger.GetGroupBalances(ctx, g.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, report.Balances, 4)
	assert.Empty(t, report.Omitted)

	sum := decimal.Zero
	for _, bal := range report.Balances {
		sum = sum.Add(bal.NetBalance)
	}
	assert.True(t, sum.IsZero(), "net balances sum to %s", sum)

	// Applying the suggested plan zeroes every balance.
	nets := make(map[string]decimal.Decimal)
	for _, bal := range report.Balances {
		nets[bal.UserID] = bal.NetBalance
	}
	for _, tr := range report.SuggestedTransfers {
		nets[tr.FromUserID] = nets[tr.FromUserID].Add(tr.Amount)
		nets[tr.ToUserID] = nets[tr.ToUserID].Sub(tr.Amount)
	}
	for id, net := range nets {
		assert.True(t, net.IsZero(), "%s left with %s", id, net)
	}

	_, err = f.ledger.GetGroupBalances(ctx, g.ID, f.user(t, "x@example.com").ID)
	assert.ErrorIs(t, err, ErrNotAMember)
}

func TestGetUserSplits_CrossGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")

	g1, err := f.ledger.CreateGroup(ctx, a.ID, "One", "")
	require.NoError(t, err)
	g2, err := f.ledger.CreateGroup(ctx, b.ID, "Two", "")
	require.NoError(t, err)
	f.join(t, g1.ID, a.ID, b)
	f.join(t, g2.ID, b.ID, a)

	e1 := f.expense(t, a.ID, g1.ID, "20")
	_, err = f.ledger.SplitExpense(ctx, e1.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID), a.ID)
	require.NoError(t, err)

	e2 := f.expense(t, b.ID, g2.ID, "60")
	_, err = f.ledger.SplitExpense(ctx, e2.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID), b.ID)
	require.NoError(t, err)

	splits, err := f.ledger.GetUserSplits(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, splits.Owes, 1)
	require.Len(t, splits.Owed, 1)
	assert.Equal(t, g2.ID, splits.Owes[0].GroupID)
	assert.Equal(t, "b@example.com", splits.Owes[0].CounterpartyEmail)
	assert.Equal(t, "30.00", splits.TotalOwes.StringFixed(2))
	assert.Equal(t, "10.00", splits.TotalOwed.StringFixed(2))
}

func TestExpenses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	outsider := f.user(t, "x@example.com")

	g, err := f.ledger.CreateGroup(ctx, a.ID, "G", "")
	require.NoError(t, err)
	f.join(t, g.ID, a.ID, b)

	_, err = f.ledger.CreateExpense(ctx, a.ID, ExpenseInput{Amount: decimal.NewFromInt(-1), Category: "food"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.ledger.CreateExpense(ctx, a.ID, ExpenseInput{Amount: decimal.RequireFromString("1.005"), Category: "food"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.ledger.CreateExpense(ctx, outsider.ID, ExpenseInput{Amount: decimal.NewFromInt(5), Category: "food", GroupID: g.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	older, err := f.ledger.CreateExpense(ctx, a.ID, ExpenseInput{
		Amount: decimal.NewFromInt(10), Category: "food", GroupID: g.ID,
		Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	personal := f.expense(t, b.ID, "", "25")

	_, err = f.ledger.SetExpenseGroup(ctx, personal.ID, g.ID, a.ID)
	assert.ErrorIs(t, err, ErrForbidden, "only the payer can move an expense")
	moved, err := f.ledger.SetExpenseGroup(ctx, personal.ID, g.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, moved.GroupID)

	views, err := f.ledger.GetGroupExpenses(ctx, g.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, personal.ID, views[0].ID, "newest first")
	assert.Equal(t, older.ID, views[1].ID)
	assert.Equal(t, "b@example.com", views[0].PayerEmail)

	_, err = f.ledger.GetGroupExpenses(ctx, g.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotAMember)

	assert.ErrorIs(t, f.ledger.DeleteExpense(ctx, older.ID, b.ID), ErrForbidden)
	require.NoError(t, f.ledger.DeleteExpense(ctx, older.ID, a.ID))

	detail, err := f.ledger.GetGroupDetail(ctx, g.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.ExpenseCount)
}

// staleReadStore makes the first FindPendingInvite miss, the way a
// transaction that ran just before a concurrent insert committed would.
type staleReadStore struct {
	*sqlstore.Store
	misses atomic.Int32
}

func (s *staleReadStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Tx) error {
		return fn(&staleReadTx{Tx: tx, misses: &s.misses})
	})
}

type staleReadTx struct {
	storage.Tx
	misses *atomic.Int32
}

func (t *staleReadTx) FindPendingInvite(ctx context.Context, groupID, email string) (*models.Invite, error) {
	if t.misses.Add(-1) >= 0 {
		return nil, storage.ErrNotFound
	}
	return t.Tx.FindPendingInvite(ctx, groupID, email)
}

func TestInviteMember_LosesRaceToConcurrentInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@example.com")

	g, err := f.ledger.CreateGroup(ctx, owner.ID, "G", "")
	require.NoError(t, err)

	winner, err := f.ledger.InviteMember(ctx, g.ID, "new@example.com", owner.ID)
	require.NoError(t, err)

	stale := &staleReadStore{Store: f.store}
	stale.misses.Store(1)
	mailer := &recordingMailer{}
	loser := New(stale, WithClock(f.clock.Now), WithMailer(mailer))

	got, err := loser.InviteMember(ctx, g.ID, "new@example.com", owner.ID)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
	assert.Equal(t, winner.Token, got.Token)
	assert.Empty(t, mailer.notices, "the losing call sends no mail")
}

func TestCreateExpense_AmountBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")

	_, err := f.ledger.CreateExpense(ctx, a.ID, ExpenseInput{
		Amount:   decimal.RequireFromString("184467440737095516.17"),
		Category: "food",
	})
	assert.ErrorIs(t, err, ErrValidation)

	largest, err := f.ledger.CreateExpense(ctx, a.ID, ExpenseInput{Amount: models.MaxAmount, Category: "food"})
	require.NoError(t, err)
	err = f.store.WithReadTx(ctx, func(tx storage.Tx) error {
		stored, err := tx.GetExpense(ctx, largest.ID, false)
		if err != nil {
			return err
		}
		assert.True(t, stored.Amount.Equal(models.MaxAmount), "stored %s", stored.Amount)
		return nil
	})
	require.NoError(t, err)

	e := f.expense(t, a.ID, "", "100")
	_, err = f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyCustom, []calculator.Share{
		{UserID: a.ID, Amount: decimal.RequireFromString("184467440737095516.17")},
		{UserID: b.ID, Amount: decimal.RequireFromString("-184467440737095416.17")},
	}, a.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetExpenseGroup_ClearsSplits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a@example.com")
	b := f.user(t, "b@example.com")
	c := f.user(t, "c@example.com")

	g1, err := f.ledger.CreateGroup(ctx, a.ID, "One", "")
	require.NoError(t, err)
	f.join(t, g1.ID, a.ID, b)
	g2, err := f.ledger.CreateGroup(ctx, a.ID, "Two", "")
	require.NoError(t, err)
	f.join(t, g2.ID, a.ID, c)

	e := f.expense(t, a.ID, g1.ID, "100")
	_, err = f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyEqual, equalShares(a.ID, b.ID), a.ID)
	require.NoError(t, err)

	// Re-attaching to the same group is a no-op.
	_, err = f.ledger.SetExpenseGroup(ctx, e.ID, g1.ID, a.ID)
	require.NoError(t, err)
	splits, err := f.ledger.ListExpenseSplits(ctx, e.ID, a.ID)
	require.NoError(t, err)
	assert.Len(t, splits, 1)

	_, err = f.ledger.SetExpenseGroup(ctx, e.ID, g2.ID, a.ID)
	require.NoError(t, err)
	splits, err = f.ledger.ListExpenseSplits(ctx, e.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, splits)

	netSum := func(groupID string) (decimal.Decimal, []models.Transfer) {
		report, err := f.ledger.GetGroupBalances(ctx, groupID, a.ID)
		require.NoError(t, err)
		sum := decimal.Zero
		for _, bal := range report.Balances {
			sum = sum.Add(bal.NetBalance)
		}
		return sum, report.SuggestedTransfers
	}

	sum, transfers := netSum(g2.ID)
	assert.True(t, sum.IsZero(), "g2 nets sum to %s", sum)
	assert.Empty(t, transfers, "b is not a member of g2 and owes nothing there")

	sum, transfers = netSum(g1.ID)
	assert.True(t, sum.IsZero(), "g1 nets sum to %s", sum)
	assert.Empty(t, transfers)

	// Split again among the new group's members.
	_, err = f.ledger.SplitExpense(ctx, e.ID, calculator.PolicyEqual, equalShares(a.ID, c.ID), a.ID)
	require.NoError(t, err)
	sum, transfers = netSum(g2.ID)
	assert.True(t, sum.IsZero(), "g2 nets sum to %s", sum)
	require.Len(t, transfers, 1)
	assert.Equal(t, c.ID, transfers[0].FromUserID)
	assert.Equal(t, "50.00", transfers[0].Amount.StringFixed(2))
}
