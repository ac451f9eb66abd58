package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the storage and wire format of Expense.Date.
const DateLayout = "2006-01-02"

// Expense is an amount paid by one user. When GroupID is set the expense is
// shared with that group and can be split among its members.
type Expense struct {
	ID       string
	Amount   decimal.Decimal
	Category string
	Date     time.Time
	Note     string

	// PayerID is the user who paid. The payer never owes their own share.
	PayerID string

	// GroupID is empty for personal expenses.
	GroupID string

	CreatedAt time.Time
}

// ExpenseView is an Expense with the payer's identity resolved.
type ExpenseView struct {
	Expense
	PayerEmail string
	PayerName  string
}
