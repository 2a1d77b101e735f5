package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/internal/auth"
	"github.com/hisaabdost/backend/internal/cache"
	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/storage"
	"github.com/hisaabdost/backend/pkg/api"
	"github.com/hisaabdost/backend/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService: families and their members.
type GroupService struct {
	store storage.Store
	inv   *cache.Invalidator
}

// NewGroupService creates a new GroupService with the given storage backend.
// Membership changes are announced through inv.
func NewGroupService(store storage.Store, inv *cache.Invalidator) *GroupService {
	return &GroupService{store: store, inv: inv}
}

// CreateGroup creates a new group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	slog.Info("CreateGroup request received", "user_id", userID, "name", name)

	if name == "" {
		return nil, invalidArgument("name is required")
	}

	group := &models.Group{Name: name, CreatedBy: userID}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	s.inv.Invalidate(context.WithoutCancel(ctx), userID, cache.Groups)

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group, models.RoleOwner)}), nil
}

// AddMember adds a registered user to a group by email, or reactivates a
// former member. Only the owner or an admin may add members.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("AddMember request received", "user_id", userID, "group_id", req.Msg.GroupID, "email", req.Msg.Email)

	if req.Msg.GroupID == "" || req.Msg.Email == "" {
		return nil, invalidArgument("group_id and email are required")
	}
	role := req.Msg.Role
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() || role == models.RoleOwner {
		return nil, invalidArgument("role must be %q or %q", models.RoleAdmin, models.RoleMember)
	}

	if err := s.requireManager(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(err)
	}

	user, err := s.store.GetUserByEmail(ctx, auth.NormalizeEmail(req.Msg.Email))
	if err != nil {
		slog.Error("AddMember failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if user == nil {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("no user with email %s", req.Msg.Email))
	}

	existing, err := s.store.GetMembership(ctx, req.Msg.GroupID, user.ID)
	switch {
	case err == nil && existing.IsActive:
		return nil, connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("%s is already a member", user.Email))
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, toConnectError(err)
	}

	m := &models.Membership{GroupID: req.Msg.GroupID, UserID: user.ID, Role: role}
	if err := s.store.UpsertMembership(ctx, m); err != nil {
		slog.Error("AddMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	s.membershipChanged(ctx, req.Msg.GroupID, user.ID)

	slog.Info("Member added", "group_id", req.Msg.GroupID, "member_id", user.ID, "role", role)
	return connect.NewResponse(&api.AddMemberResponse{
		Member: toAPIMember(models.Member{Membership: *m, User: user.Summary(), Known: true}),
	}), nil
}

// RemoveMember deactivates a membership. Members may remove themselves;
// removing anyone else takes the owner or an admin. The owner stays.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RemoveMember request received", "user_id", userID, "group_id", req.Msg.GroupID, "member_id", req.Msg.UserID)

	if req.Msg.GroupID == "" || req.Msg.UserID == "" {
		return nil, invalidArgument("group_id and user_id are required")
	}

	if req.Msg.UserID == userID {
		if err := s.requireMember(ctx, req.Msg.GroupID, userID); err != nil {
			return nil, toConnectError(err)
		}
	} else if err := s.requireManager(ctx, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(err)
	}

	target, err := s.store.GetMembership(ctx, req.Msg.GroupID, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if target.Role == models.RoleOwner {
		return nil, toConnectError(ErrOwnerRemoval)
	}

	// Everyone who could see the group before the removal hears about it.
	audience, err := s.store.ListGroupMemberships(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeactivateMembership(ctx, req.Msg.GroupID, req.Msg.UserID); err != nil {
		slog.Error("RemoveMember failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	bg := context.WithoutCancel(ctx)
	s.inv.Invalidate(bg, req.Msg.UserID, cache.Groups, cache.Members)
	for _, m := range audience {
		if m.UserID != req.Msg.UserID {
			s.inv.Invalidate(bg, m.UserID, cache.Members)
		}
	}

	slog.Info("Member removed", "group_id", req.Msg.GroupID, "member_id", req.Msg.UserID)
	return connect.NewResponse(&api.RemoveMemberResponse{}), nil
}

// requireMember fails with scope.ErrNotMember unless userID is an active member.
func (s *GroupService) requireMember(ctx context.Context, groupID, userID string) error {
	_, err := s.activeMembership(ctx, groupID, userID)
	return err
}

// requireManager fails unless userID is an active owner or admin.
func (s *GroupService) requireManager(ctx context.Context, groupID, userID string) error {
	m, err := s.activeMembership(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !m.Role.CanManage() {
		return ErrNotGroupAdmin
	}
	return nil
}

func (s *GroupService) activeMembership(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m, err := s.store.GetMembership(ctx, groupID, userID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !m.IsActive) {
		return nil, fmt.Errorf("group %s: %w", groupID, scope.ErrNotMember)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// membershipChanged tells the new member its groups changed and every member
// that the member list did.
func (s *GroupService) membershipChanged(ctx context.Context, groupID, memberID string) {
	bg := context.WithoutCancel(ctx)
	s.inv.Invalidate(bg, memberID, cache.Groups)

	members, err := s.store.ListGroupMemberships(bg, groupID)
	if err != nil {
		slog.Warn("Failed to list members for invalidation", "group_id", groupID, "error", err)
		s.inv.Invalidate(bg, memberID, cache.Members)
		return
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	s.inv.InvalidateUsers(bg, ids, cache.Members)
}
