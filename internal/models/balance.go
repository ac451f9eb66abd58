package models

import "github.com/shopspring/decimal"

// Counterparty is an aggregated amount owed to or by another user.
type Counterparty struct {
	UserID string
	Email  string
	Amount decimal.Decimal
}

// BalanceSummary is one user's unsettled position within a group.
// NetBalance = TotalOwed - TotalOwes; positive means the group owes the user.
type BalanceSummary struct {
	UserID     string
	Email      string
	GroupID    string
	Owes       []Counterparty
	Owed       []Counterparty
	TotalOwes  decimal.Decimal
	TotalOwed  decimal.Decimal
	NetBalance decimal.Decimal
}

// Transfer is one payment in a suggested settlement plan.
type Transfer struct {
	FromUserID string
	ToUserID   string
	Amount     decimal.Decimal
}

// GroupBalances is the per-member balance report for a group.
// Omitted lists members whose summary could not be built.
type GroupBalances struct {
	GroupID            string
	Balances           []BalanceSummary
	Omitted            []string
	SuggestedTransfers []Transfer
}

// SplitItem is one unsettled split as seen by one party, with the
// counterparty's identity resolved.
type SplitItem struct {
	SplitID           string
	ExpenseID         string
	GroupID           string
	Amount            decimal.Decimal
	Category          string
	Date              string
	Note              string
	CounterpartyID    string
	CounterpartyEmail string
}

// UserSplits is the cross-group view of a user's unsettled splits.
type UserSplits struct {
	Owes      []SplitItem
	Owed      []SplitItem
	TotalOwes decimal.Decimal
	TotalOwed decimal.Decimal
}
