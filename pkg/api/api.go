// Package api defines the splitledger.v1 wire messages.
//
// Messages are plain structs encoded as JSON by the apiconnect codec.
// Amounts are decimal strings with two fraction digits, dates are
// "YYYY-MM-DD" and timestamps are unix seconds.
package api

// User is a registered account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

// Group is a shared context for expenses.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
}

// Member is a user's membership in a group.
type Member struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
	JoinedAt    int64  `json:"joined_at"`
}

// Invite is an invitation to join a group.
type Invite struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	Email     string `json:"email"`
	Token     string `json:"token,omitempty"`
	Status    string `json:"status"`
	InvitedBy string `json:"invited_by"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Expense is an amount paid by one user.
type Expense struct {
	ID         string `json:"id"`
	Amount     string `json:"amount"`
	Category   string `json:"category"`
	Date       string `json:"date"`
	Note       string `json:"note,omitempty"`
	PayerID    string `json:"payer_id"`
	PayerEmail string `json:"payer_email,omitempty"`
	PayerName  string `json:"payer_name,omitempty"`
	GroupID    string `json:"group_id,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

// Split is one user's obligation for an expense.
type Split struct {
	ID         string `json:"id"`
	ExpenseID  string `json:"expense_id"`
	UserID     string `json:"user_id"`
	AmountOwed string `json:"amount_owed"`
	IsSettled  bool   `json:"is_settled"`
	SettledAt  int64  `json:"settled_at,omitempty"`
}

// Share is one participant in a split request. Percentage is read by the
// percentage policy and Amount by the custom policy.
type Share struct {
	UserID     string `json:"user_id"`
	Percentage string `json:"percentage,omitempty"`
	Amount     string `json:"amount,omitempty"`
}

// Counterparty is an aggregated amount with one other user.
type Counterparty struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Amount string `json:"amount"`
}

// BalanceSummary is one user's unsettled position within a group.
type BalanceSummary struct {
	UserID     string          `json:"user_id"`
	Email      string          `json:"email,omitempty"`
	GroupID    string          `json:"group_id"`
	Owes       []*Counterparty `json:"owes"`
	Owed       []*Counterparty `json:"owed"`
	TotalOwes  string          `json:"total_owes"`
	TotalOwed  string          `json:"total_owed"`
	NetBalance string          `json:"net_balance"`
}

// Transfer is one payment in a suggested settlement plan.
type Transfer struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
}

// SplitItem is an unsettled split seen from one side.
type SplitItem struct {
	SplitID           string `json:"split_id"`
	ExpenseID         string `json:"expense_id"`
	GroupID           string `json:"group_id,omitempty"`
	Amount            string `json:"amount"`
	Category          string `json:"category"`
	Date              string `json:"date"`
	Note              string `json:"note,omitempty"`
	CounterpartyID    string `json:"counterparty_id"`
	CounterpartyEmail string `json:"counterparty_email,omitempty"`
}
