package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// GroupService implements the Connect GroupService over the membership
// directory. Every call acts as the authenticated caller.
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	ledger *ledger.Ledger
}

// NewGroupService creates a new GroupService.
func NewGroupService(l *ledger.Ledger) *GroupService {
	return &GroupService{ledger: l}
}

// CreateGroup creates a group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("CreateGroup request received", "user_id", userID, "name", req.Msg.Name)

	group, err := s.ledger.CreateGroup(ctx, userID, req.Msg.Name, req.Msg.Description)
	if err != nil {
		return nil, toConnectError("CreateGroup", err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(group)}), nil
}

// ListGroups lists the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("ListGroups request received", "user_id", userID)

	groups, err := s.ledger.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, toConnectError("ListGroups", err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = groupToAPI(g)
	}
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// GetGroup returns the member-only view of a group.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("GetGroup request received", "user_id", userID, "group_id", req.Msg.GroupID)

	detail, err := s.ledger.GetGroupDetail(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError("GetGroup", err)
	}

	members := make([]*api.Member, len(detail.Members))
	for i, m := range detail.Members {
		members[i] = memberViewToAPI(m)
	}
	return connect.NewResponse(&api.GetGroupResponse{
		Group:         groupToAPI(&detail.Group),
		Members:       members,
		MemberCount:   len(members),
		ExpenseCount:  detail.ExpenseCount,
		RequesterRole: string(detail.RequesterRole),
	}), nil
}

// DeleteGroup deletes a group and everything attached to it. Owner only.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("DeleteGroup request received", "user_id", userID, "group_id", req.Msg.GroupID)

	if err := s.ledger.DeleteGroup(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError("DeleteGroup", err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// InviteMember invites an email address to the group.
func (s *GroupService) InviteMember(ctx context.Context, req *connect.Request[api.InviteMemberRequest]) (*connect.Response[api.InviteMemberResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("InviteMember request received", "user_id", userID, "group_id", req.Msg.GroupID)

	invite, err := s.ledger.InviteMember(ctx, req.Msg.GroupID, req.Msg.Email, userID)
	if err != nil {
		return nil, toConnectError("InviteMember", err)
	}

	return connect.NewResponse(&api.InviteMemberResponse{Invite: inviteToAPI(invite, true)}), nil
}

// AcceptInvite redeems an invite token for the caller.
func (s *GroupService) AcceptInvite(ctx context.Context, req *connect.Request[api.AcceptInviteRequest]) (*connect.Response[api.AcceptInviteResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("AcceptInvite request received", "user_id", userID)

	member, err := s.ledger.AcceptInvite(ctx, req.Msg.Token, userID)
	if err != nil {
		return nil, toConnectError("AcceptInvite", err)
	}

	slog.Info("Invite accepted", "group_id", member.GroupID, "member_id", member.ID)
	return connect.NewResponse(&api.AcceptInviteResponse{Member: memberToAPI(member)}), nil
}

// CheckInvite reports an invite's state without redeeming it.
func (s *GroupService) CheckInvite(ctx context.Context, req *connect.Request[api.CheckInviteRequest]) (*connect.Response[api.CheckInviteResponse], error) {
	slog.Info("CheckInvite request received")

	invite, err := s.ledger.CheckInvite(ctx, req.Msg.Token)
	if err != nil {
		return nil, toConnectError("CheckInvite", err)
	}

	return connect.NewResponse(&api.CheckInviteResponse{Invite: inviteToAPI(invite, false)}), nil
}

// RemoveMember removes a member from the group.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("RemoveMember request received",
		"user_id", userID,
		"group_id", req.Msg.GroupID,
		"member_id", req.Msg.MemberID,
	)

	removed, err := s.ledger.RemoveMember(ctx, req.Msg.GroupID, req.Msg.MemberID, userID)
	if err != nil {
		return nil, toConnectError("RemoveMember", err)
	}

	return connect.NewResponse(&api.RemoveMemberResponse{Removed: removed}), nil
}

// UpdateMemberRole changes a member's role. Owner only.
func (s *GroupService) UpdateMemberRole(ctx context.Context, req *connect.Request[api.UpdateMemberRoleRequest]) (*connect.Response[api.UpdateMemberRoleResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("UpdateMemberRole request received",
		"user_id", userID,
		"group_id", req.Msg.GroupID,
		"member_id", req.Msg.MemberID,
		"role", req.Msg.Role,
	)

	role, err := models.ParseRole(req.Msg.Role)
	if err != nil {
		return nil, invalidArgument(err)
	}

	member, err := s.ledger.UpdateMemberRole(ctx, req.Msg.GroupID, req.Msg.MemberID, role, userID)
	if err != nil {
		return nil, toConnectError("UpdateMemberRole", err)
	}

	return connect.NewResponse(&api.UpdateMemberRoleResponse{Member: memberToAPI(member)}), nil
}

// ListGroupExpenses lists a group's expenses, newest first.
func (s *GroupService) ListGroupExpenses(ctx context.Context, req *connect.Request[api.ListGroupExpensesRequest]) (*connect.Response[api.ListGroupExpensesResponse], error) {
	userID := middleware.GetUserID(ctx)
	slog.Info("ListGroupExpenses request received", "user_id", userID, "group_id", req.Msg.GroupID)

	views, err := s.ledger.GetGroupExpenses(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError("ListGroupExpenses", err)
	}

	out := make([]*api.Expense, len(views))
	for i, v := range views {
		out[i] = expenseViewToAPI(v)
	}
	return connect.NewResponse(&api.ListGroupExpensesResponse{Expenses: out}), nil
}
