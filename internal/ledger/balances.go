package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// SettleSplit marks a split paid. Only the debtor or the expense's payer may
// settle. Settling an already settled split succeeds and keeps the original
// settlement time.
func (l *Ledger) SettleSplit(ctx context.Context, splitID, actorID string) (*models.Split, error) {
	var (
		split   *models.Split
		expense *models.Expense
		settled bool
	)
	err := l.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		split, err = tx.GetSplit(ctx, splitID, true)
		if err != nil {
			return translate(err, "split")
		}
		expense, err = tx.GetExpense(ctx, split.ExpenseID, false)
		if err != nil {
			return translate(err, "expense")
		}
		if actorID != split.UserID && actorID != expense.PayerID {
			return fmt.Errorf("%w: only the debtor or the payer can settle a split", ErrForbidden)
		}
		if split.IsSettled {
			return nil
		}

		at := l.now()
		if err := tx.SettleSplit(ctx, split.ID, at); err != nil {
			return err
		}
		split.IsSettled = true
		split.SettledAt = &at
		settled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled {
		metrics.SplitsSettled.Inc()
		l.publish(ctx, EventSplitSettled, expense.GroupID, actorID, split.ID)
	}
	return split, nil
}

// GetUserBalances returns userID's unsettled position within a group.
// Members only.
func (l *Ledger) GetUserBalances(ctx context.Context, groupID, userID string) (*models.BalanceSummary, error) {
	var summary *models.BalanceSummary
	err := l.store.WithReadTx(ctx, func(tx storage.Tx) error {
		if _, err := authorize(ctx, tx, groupID, userID); err != nil {
			return err
		}

		lines, err := tx.ListUnsettledByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		users, err := tx.GetUsersByIDs(ctx, partiesOf(lines, userID))
		if err != nil {
			return err
		}

		pos := calculator.CalculatePosition(userID, toCalcLines(lines))
		summary = buildSummary(groupID, pos, users)
		return nil
	})
	return summary, err
}

// GetGroupBalances returns one summary per current member, all computed from
// one snapshot. Members whose identity can no longer be resolved are left
// out, logged and listed in Omitted; the rest of the report is still
// returned. SuggestedTransfers is a short plan that settles every
// outstanding line.
func (l *Ledger) GetGroupBalances(ctx context.Context, groupID, userID string) (*models.GroupBalances, error) {
	var report *models.GroupBalances
	err := l.store.WithReadTx(ctx, func(tx storage.Tx) error {
		if _, err := authorize(ctx, tx, groupID, userID); err != nil {
			return err
		}

		members, err := tx.ListMembers(ctx, groupID)
		if err != nil {
			return err
		}
		lines, err := tx.ListUnsettledByGroup(ctx, groupID)
		if err != nil {
			return err
		}

		ids := partiesOf(lines)
		for _, m := range members {
			ids = append(ids, m.UserID)
		}
		users, err := tx.GetUsersByIDs(ctx, ids)
		if err != nil {
			return err
		}

		calcLines := toCalcLines(lines)
		report = &models.GroupBalances{GroupID: groupID}
		for _, m := range members {
			if _, ok := users[m.UserID]; !ok {
				slog.Warn("Omitting member from group balances", "group_id", groupID, "user_id", m.UserID,
					"error", "user identity could not be resolved")
				metrics.BalanceOmissions.Inc()
				report.Omitted = append(report.Omitted, m.UserID)
				continue
			}
			pos := calculator.CalculatePosition(m.UserID, calcLines)
			report.Balances = append(report.Balances, *buildSummary(groupID, pos, users))
		}

		for _, e := range calculator.SimplifyDebts(calculator.NetBalances(calcLines)) {
			report.SuggestedTransfers = append(report.SuggestedTransfers, models.Transfer{
				FromUserID: e.From,
				ToUserID:   e.To,
				Amount:     e.Amount,
			})
		}
		return nil
	})
	return report, err
}

// GetUserSplits returns every unsettled split userID owes or is owed,
// across all groups and personal expenses.
func (l *Ledger) GetUserSplits(ctx context.Context, userID string) (*models.UserSplits, error) {
	var result *models.UserSplits
	err := l.store.WithReadTx(ctx, func(tx storage.Tx) error {
		lines, err := tx.ListUnsettledByUser(ctx, userID)
		if err != nil {
			return err
		}
		users, err := tx.GetUsersByIDs(ctx, partiesOf(lines, userID))
		if err != nil {
			return err
		}

		result = &models.UserSplits{TotalOwes: decimal.Zero, TotalOwed: decimal.Zero}
		for _, line := range lines {
			item := models.SplitItem{
				SplitID:   line.SplitID,
				ExpenseID: line.ExpenseID,
				GroupID:   line.GroupID,
				Amount:    line.Amount,
				Category:  line.Category,
				Date:      line.Date.Format(models.DateLayout),
				Note:      line.Note,
			}
			if line.DebtorID == userID {
				item.CounterpartyID = line.CreditorID
				item.CounterpartyEmail = emailOf(users, line.CreditorID)
				result.Owes = append(result.Owes, item)
				result.TotalOwes = result.TotalOwes.Add(line.Amount)
			} else {
				item.CounterpartyID = line.DebtorID
				item.CounterpartyEmail = emailOf(users, line.DebtorID)
				result.Owed = append(result.Owed, item)
				result.TotalOwed = result.TotalOwed.Add(line.Amount)
			}
		}
		return nil
	})
	return result, err
}

func toCalcLines(lines []models.SplitLine) []calculator.Line {
	out := make([]calculator.Line, len(lines))
	for i, l := range lines {
		out[i] = calculator.Line{DebtorID: l.DebtorID, CreditorID: l.CreditorID, Amount: l.Amount}
	}
	return out
}

// partiesOf returns the distinct user IDs that appear in lines plus extra.
func partiesOf(lines []models.SplitLine, extra ...string) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, id := range extra {
		add(id)
	}
	for _, l := range lines {
		add(l.DebtorID)
		add(l.CreditorID)
	}
	return ids
}

func emailOf(users map[string]*models.User, id string) string {
	if u, ok := users[id]; ok {
		return u.Email
	}
	return ""
}

func buildSummary(groupID string, pos calculator.Position, users map[string]*models.User) *models.BalanceSummary {
	summary := &models.BalanceSummary{
		UserID:     pos.UserID,
		Email:      emailOf(users, pos.UserID),
		GroupID:    groupID,
		TotalOwes:  pos.TotalOwes,
		TotalOwed:  pos.TotalOwed,
		NetBalance: pos.NetBalance,
	}
	for _, c := range pos.Owes {
		summary.Owes = append(summary.Owes, models.Counterparty{UserID: c.UserID, Email: emailOf(users, c.UserID), Amount: c.Amount})
	}
	for _, c := range pos.Owed {
		summary.Owed = append(summary.Owed, models.Counterparty{UserID: c.UserID, Email: emailOf(users, c.UserID), Amount: c.Amount})
	}
	return summary
}
