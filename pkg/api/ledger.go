package api

type CreateExpenseRequest struct {
	Amount   string `json:"amount"`
	Category string `json:"category"`
	// Date defaults to today when empty.
	Date    string `json:"date,omitempty"`
	Note    string `json:"note,omitempty"`
	GroupID string `json:"group_id,omitempty"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

// SetExpenseGroupRequest attaches an expense to a group, or detaches it
// when GroupID is empty.
type SetExpenseGroupRequest struct {
	ExpenseID string `json:"expense_id"`
	GroupID   string `json:"group_id,omitempty"`
}

type SetExpenseGroupResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type SplitExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
	// Policy is one of equal, percentage or custom.
	Policy string   `json:"policy"`
	Shares []*Share `json:"shares"`
}

type SplitExpenseResponse struct {
	Splits []*Split `json:"splits"`
}

type ListExpenseSplitsRequest struct {
	ExpenseID string `json:"expense_id"`
}

type ListExpenseSplitsResponse struct {
	Splits []*Split `json:"splits"`
}

type SettleSplitRequest struct {
	SplitID string `json:"split_id"`
}

type SettleSplitResponse struct {
	Split *Split `json:"split"`
}

type GetUserBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetUserBalancesResponse struct {
	Balance *BalanceSummary `json:"balance"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id"`
}

// GetGroupBalancesResponse may be partial: members whose balance could not
// be computed are listed in Omitted instead of Balances.
type GetGroupBalancesResponse struct {
	Balances           []*BalanceSummary `json:"balances"`
	Omitted            []string          `json:"omitted,omitempty"`
	SuggestedTransfers []*Transfer       `json:"suggested_transfers"`
}

type GetMySplitsRequest struct{}

type GetMySplitsResponse struct {
	Owes      []*SplitItem `json:"owes"`
	Owed      []*SplitItem `json:"owed"`
	TotalOwes string       `json:"total_owes"`
	TotalOwed string       `json:"total_owed"`
}
