package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Split is one non-payer's obligation derived from an expense.
//
// A split is Unsettled until SettledAt is set; settling is terminal.
type Split struct {
	ID         string
	ExpenseID  string
	UserID     string
	AmountOwed decimal.Decimal
	IsSettled  bool
	SettledAt  *time.Time
	CreatedAt  time.Time
}

// SplitLine is an unsettled split joined with its parent expense.
// It is the raw material for balance computations.
type SplitLine struct {
	SplitID    string
	ExpenseID  string
	GroupID    string
	DebtorID   string
	CreditorID string
	Amount     decimal.Decimal
	Category   string
	Date       time.Time
	Note       string
}
