package service

import (
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func userToAPI(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func groupToAPI(g *models.Group) *api.Group {
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt.Unix(),
	}
}

func memberToAPI(m *models.Member) *api.Member {
	return &api.Member{
		ID:       m.ID,
		GroupID:  m.GroupID,
		UserID:   m.UserID,
		Role:     string(m.Role),
		JoinedAt: m.JoinedAt.Unix(),
	}
}

func memberViewToAPI(v models.MemberView) *api.Member {
	m := memberToAPI(&v.Member)
	m.Email = v.Email
	m.DisplayName = v.DisplayName
	return m
}

// inviteToAPI omits the token unless withToken is set. Only the inviter
// gets to see it, and only through InviteMember.
func inviteToAPI(i *models.Invite, withToken bool) *api.Invite {
	out := &api.Invite{
		ID:        i.ID,
		GroupID:   i.GroupID,
		Email:     i.Email,
		Status:    string(i.Status),
		InvitedBy: i.InvitedBy,
		CreatedAt: i.CreatedAt.Unix(),
		ExpiresAt: i.ExpiresAt.Unix(),
	}
	if withToken {
		out.Token = i.Token
	}
	return out
}

func expenseToAPI(e *models.Expense) *api.Expense {
	return &api.Expense{
		ID:        e.ID,
		Amount:    e.Amount.StringFixed(2),
		Category:  e.Category,
		Date:      e.Date.Format(models.DateLayout),
		Note:      e.Note,
		PayerID:   e.PayerID,
		GroupID:   e.GroupID,
		CreatedAt: e.CreatedAt.Unix(),
	}
}

func expenseViewToAPI(v models.ExpenseView) *api.Expense {
	e := expenseToAPI(&v.Expense)
	e.PayerEmail = v.PayerEmail
	e.PayerName = v.PayerName
	return e
}

func splitToAPI(s *models.Split) *api.Split {
	out := &api.Split{
		ID:         s.ID,
		ExpenseID:  s.ExpenseID,
		UserID:     s.UserID,
		AmountOwed: s.AmountOwed.StringFixed(2),
		IsSettled:  s.IsSettled,
	}
	if s.SettledAt != nil {
		out.SettledAt = s.SettledAt.Unix()
	}
	return out
}

func splitsToAPI(splits []*models.Split) []*api.Split {
	out := make([]*api.Split, len(splits))
	for i, s := range splits {
		out[i] = splitToAPI(s)
	}
	return out
}

func counterpartiesToAPI(cs []models.Counterparty) []*api.Counterparty {
	out := make([]*api.Counterparty, len(cs))
	for i, c := range cs {
		out[i] = &api.Counterparty{
			UserID: c.UserID,
			Email:  c.Email,
			Amount: c.Amount.StringFixed(2),
		}
	}
	return out
}

func summaryToAPI(b *models.BalanceSummary) *api.BalanceSummary {
	return &api.BalanceSummary{
		UserID:     b.UserID,
		Email:      b.Email,
		GroupID:    b.GroupID,
		Owes:       counterpartiesToAPI(b.Owes),
		Owed:       counterpartiesToAPI(b.Owed),
		TotalOwes:  b.TotalOwes.StringFixed(2),
		TotalOwed:  b.TotalOwed.StringFixed(2),
		NetBalance: b.NetBalance.StringFixed(2),
	}
}

func splitItemsToAPI(items []models.SplitItem) []*api.SplitItem {
	out := make([]*api.SplitItem, len(items))
	for i, it := range items {
		out[i] = &api.SplitItem{
			SplitID:           it.SplitID,
			ExpenseID:         it.ExpenseID,
			GroupID:           it.GroupID,
			Amount:            it.Amount.StringFixed(2),
			Category:          it.Category,
			Date:              it.Date,
			Note:              it.Note,
			CounterpartyID:    it.CounterpartyID,
			CounterpartyEmail: it.CounterpartyEmail,
		}
	}
	return out
}
