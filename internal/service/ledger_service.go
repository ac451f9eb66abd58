package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// LedgerService implements the Connect LedgerService: expenses, splits,
// settlement and balances.
type LedgerService struct {
	apiconnect.UnimplementedLedgerServiceHandler
	ledger *ledger.Ledger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// CreateExpense records an expense paid by the caller.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("CreateExpense request received",
		"user_id", userID,
		"amount", req.Msg.Amount,
		"group_id", req.Msg.GroupID,
	)

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, invalidArgument(err)
	}

	var date time.Time
	if req.Msg.Date != "" {
		date, err = time.Parse(models.DateLayout, req.Msg.Date)
		if err != nil {
			return nil, invalidArgument(fmt.Errorf("date must be YYYY-MM-DD: %w", err))
		}
	}

	expense, err := s.ledger.CreateExpense(ctx, userID, ledger.ExpenseInput{
		Amount:   amount,
		Category: req.Msg.Category,
		Date:     date,
		Note:     req.Msg.Note,
		GroupID:  req.Msg.GroupID,
	})
	if err != nil {
		return nil, toConnectError("CreateExpense", err)
	}

	slog.Info("Expense created", "expense_id", expense.ID)
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// SetExpenseGroup moves an expense into a group or back to personal.
func (s *LedgerService) SetExpenseGroup(ctx context.Context, req *connect.Request[api.SetExpenseGroupRequest]) (*connect.Response[api.SetExpenseGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("SetExpenseGroup request received",
		"user_id", userID,
		"expense_id", req.Msg.ExpenseID,
		"group_id", req.Msg.GroupID,
	)

	expense, err := s.ledger.SetExpenseGroup(ctx, req.Msg.ExpenseID, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError("SetExpenseGroup", err)
	}

	return connect.NewResponse(&api.SetExpenseGroupResponse{Expense: expenseToAPI(expense)}), nil
}

// DeleteExpense deletes an expense and its splits. Payer only.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("DeleteExpense request received", "user_id", userID, "expense_id", req.Msg.ExpenseID)

	if err := s.ledger.DeleteExpense(ctx, req.Msg.ExpenseID, userID); err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// SplitExpense replaces an expense's splits according to a policy.
func (s *LedgerService) SplitExpense(ctx context.Context, req *connect.Request[api.SplitExpenseRequest]) (*connect.Response[api.SplitExpenseResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("SplitExpense request received",
		"user_id", userID,
		"expense_id", req.Msg.ExpenseID,
		"policy", req.Msg.Policy,
		"participants", len(req.Msg.Shares),
	)

	policy, err := calculator.ParsePolicy(req.Msg.Policy)
	if err != nil {
		return nil, invalidArgument(err)
	}

	shares := make([]calculator.Share, 0, len(req.Msg.Shares))
	for _, sh := range req.Msg.Shares {
		if sh == nil {
			continue
		}
		share := calculator.Share{UserID: sh.UserID}
		if share.Percentage, err = parseOptional("percentage", sh.Percentage); err != nil {
			return nil, invalidArgument(err)
		}
		if share.Amount, err = parseOptional("amount", sh.Amount); err != nil {
			return nil, invalidArgument(err)
		}
		shares = append(shares, share)
	}

	splits, err := s.ledger.SplitExpense(ctx, req.Msg.ExpenseID, policy, shares, userID)
	if err != nil {
		return nil, toConnectError("SplitExpense", err)
	}

	slog.Info("Expense split", "expense_id", req.Msg.ExpenseID, "splits", len(splits))
	return connect.NewResponse(&api.SplitExpenseResponse{Splits: splitsToAPI(splits)}), nil
}

// ListExpenseSplits lists an expense's splits.
func (s *LedgerService) ListExpenseSplits(ctx context.Context, req *connect.Request[api.ListExpenseSplitsRequest]) (*connect.Response[api.ListExpenseSplitsResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("ListExpenseSplits request received", "user_id", userID, "expense_id", req.Msg.ExpenseID)

	splits, err := s.ledger.ListExpenseSplits(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, toConnectError("ListExpenseSplits", err)
	}

	return connect.NewResponse(&api.ListExpenseSplitsResponse{Splits: splitsToAPI(splits)}), nil
}

// SettleSplit marks a split settled.
func (s *LedgerService) SettleSplit(ctx context.Context, req *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("SettleSplit request received", "user_id", userID, "split_id", req.Msg.SplitID)

	split, err := s.ledger.SettleSplit(ctx, req.Msg.SplitID, userID)
	if err != nil {
		return nil, toConnectError("SettleSplit", err)
	}

	return connect.NewResponse(&api.SettleSplitResponse{Split: splitToAPI(split)}), nil
}

// GetUserBalances returns the caller's position within a group.
func (s *LedgerService) GetUserBalances(ctx context.Context, req *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("GetUserBalances request received", "user_id", userID, "group_id", req.Msg.GroupID)

	summary, err := s.ledger.GetUserBalances(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError("GetUserBalances", err)
	}

	return connect.NewResponse(&api.GetUserBalancesResponse{Balance: summaryToAPI(summary)}), nil
}

// GetGroupBalances returns every member's position plus a transfer plan.
func (s *LedgerService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("GetGroupBalances request received", "user_id", userID, "group_id", req.Msg.GroupID)

	report, err := s.ledger.GetGroupBalances(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError("GetGroupBalances", err)
	}

	balances := make([]*api.BalanceSummary, len(report.Balances))
	for i := range report.Balances {
		balances[i] = summaryToAPI(&report.Balances[i])
	}
	transfers := make([]*api.Transfer, len(report.SuggestedTransfers))
	for i, t := range report.SuggestedTransfers {
		transfers[i] = &api.Transfer{
			FromUserID: t.FromUserID,
			ToUserID:   t.ToUserID,
			Amount:     t.Amount.StringFixed(2),
		}
	}

	return connect.NewResponse(&api.GetGroupBalancesResponse{
		Balances:           balances,
		Omitted:            report.Omitted,
		SuggestedTransfers: transfers,
	}), nil
}

// GetMySplits lists the caller's unsettled splits across all groups.
func (s *LedgerService) GetMySplits(ctx context.Context, req *connect.Request[api.GetMySplitsRequest]) (*connect.Response[api.GetMySplitsResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("GetMySplits request received", "user_id", userID)

	splits, err := s.ledger.GetUserSplits(ctx, userID)
	if err != nil {
		return nil, toConnectError("GetMySplits", err)
	}

	return connect.NewResponse(&api.GetMySplitsResponse{
		Owes:      splitItemsToAPI(splits.Owes),
		Owed:      splitItemsToAPI(splits.Owed),
		TotalOwes: splits.TotalOwes.StringFixed(2),
		TotalOwed: splits.TotalOwed.StringFixed(2),
	}), nil
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a decimal number", field, s)
	}
	return d, nil
}

func parseOptional(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return parseAmount(field, s)
}
