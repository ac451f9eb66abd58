package api

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group         *Group    `json:"group"`
	Members       []*Member `json:"members"`
	MemberCount   int       `json:"member_count"`
	ExpenseCount  int       `json:"expense_count"`
	RequesterRole string    `json:"requester_role"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type InviteMemberRequest struct {
	GroupID string `json:"group_id"`
	Email   string `json:"email"`
}

type InviteMemberResponse struct {
	Invite *Invite `json:"invite"`
}

type AcceptInviteRequest struct {
	Token string `json:"token"`
}

type AcceptInviteResponse struct {
	Member *Member `json:"member"`
}

type CheckInviteRequest struct {
	Token string `json:"token"`
}

type CheckInviteResponse struct {
	Invite *Invite `json:"invite"`
}

type RemoveMemberRequest struct {
	GroupID  string `json:"group_id"`
	MemberID string `json:"member_id"`
}

// RemoveMemberResponse reports whether a member row was deleted. Removing a
// member that does not exist succeeds with Removed=false.
type RemoveMemberResponse struct {
	Removed bool `json:"removed"`
}

type UpdateMemberRoleRequest struct {
	GroupID  string `json:"group_id"`
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
}

type UpdateMemberRoleResponse struct {
	Member *Member `json:"member"`
}

type ListGroupExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListGroupExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}
