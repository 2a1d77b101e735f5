package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/internal/models"
	"github.com/hisaabdost/backend/internal/scope"
	"github.com/hisaabdost/backend/internal/session"
	"github.com/hisaabdost/backend/internal/storage"
	"github.com/hisaabdost/backend/pkg/api"
	"github.com/hisaabdost/backend/pkg/api/apiconnect"
)

var _ apiconnect.ContextServiceHandler = (*ContextService)(nil)

// ContextService exposes the caller's active context and switches it.
type ContextService struct {
	sessions *session.Manager
	groups   storage.GroupStore
}

// NewContextService creates a ContextService.
func NewContextService(sessions *session.Manager, groups storage.GroupStore) *ContextService {
	return &ContextService{sessions: sessions, groups: groups}
}

// describe renders a context for the wire, naming the group when it can.
func describe(ctx context.Context, groups storage.GroupStore, c scope.Context) api.ActiveContext {
	if c.Mode != scope.Group {
		return api.ActiveContext{Mode: api.ModePersonal}
	}
	out := api.ActiveContext{Mode: api.ModeGroup, GroupID: c.GroupID}
	if g, err := groups.GetGroup(ctx, c.GroupID); err == nil {
		out.GroupName = g.Name
	}
	return out
}

// GetActiveContext returns the caller's active context.
func (s *ContextService) GetActiveContext(ctx context.Context, req *connect.Request[api.GetActiveContextRequest]) (*connect.Response[api.GetActiveContextResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.sessions.Session(userID).Store.ActiveContext(ctx)
	if err != nil {
		slog.Error("GetActiveContext failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetActiveContextResponse{Context: describe(ctx, s.groups, active)}), nil
}

// SwitchToGroup makes a group the caller's active context.
func (s *ContextService) SwitchToGroup(ctx context.Context, req *connect.Request[api.SwitchToGroupRequest]) (*connect.Response[api.SwitchToGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("SwitchToGroup request received", "user_id", userID, "group_id", req.Msg.GroupID)

	if req.Msg.GroupID == "" {
		return nil, invalidArgument("group_id is required")
	}
	if err := s.sessions.Session(userID).Switcher.SwitchToGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.SwitchToGroupResponse{
		Context: describe(ctx, s.groups, scope.GroupContext(req.Msg.GroupID)),
	}), nil
}

// SwitchToPersonal makes the caller's personal space the active context.
func (s *ContextService) SwitchToPersonal(ctx context.Context, req *connect.Request[api.SwitchToPersonalRequest]) (*connect.Response[api.SwitchToPersonalResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("SwitchToPersonal request received", "user_id", userID)

	if err := s.sessions.Session(userID).Switcher.SwitchToPersonal(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.SwitchToPersonalResponse{
		Context: api.ActiveContext{Mode: api.ModePersonal},
	}), nil
}

// ListMemberships lists the groups the caller actively belongs to, by name.
func (s *ContextService) ListMemberships(ctx context.Context, req *connect.Request[api.ListMembershipsRequest]) (*connect.Response[api.ListMembershipsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.sessions.Session(userID).Store.Memberships(ctx)
	if err != nil {
		slog.Error("ListMemberships failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}
	memberships, err := s.groups.ListMemberships(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	roles := make(map[string]models.Role, len(memberships))
	for _, m := range memberships {
		roles[m.GroupID] = m.Role
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g, roles[g.ID])
	}
	return connect.NewResponse(&api.ListMembershipsResponse{Groups: out}), nil
}

// ListMembers lists the members of the caller's active group. In personal
// mode the list is empty.
func (s *ContextService) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	store := s.sessions.Session(userID).Store
	active, err := store.ActiveContext(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	if active.Mode != scope.Group {
		return connect.NewResponse(&api.ListMembersResponse{Members: []*api.Member{}}), nil
	}

	members, err := store.Members(ctx, active.GroupID)
	if err != nil {
		slog.Warn("ListMembers failed", "user_id", userID, "group_id", active.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	out := make([]*api.Member, len(members))
	for i, m := range members {
		out[i] = toAPIMember(m)
	}
	return connect.NewResponse(&api.ListMembersResponse{GroupID: active.GroupID, Members: out}), nil
}

func toAPIGroup(g *models.Group, role models.Role) *api.Group {
	return &api.Group{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
		Role:      role,
	}
}

func toAPIMember(m models.Member) *api.Member {
	return &api.Member{
		UserID:      m.Membership.UserID,
		Email:       m.User.Email,
		DisplayName: m.User.DisplayName,
		Role:        m.Membership.Role,
		JoinedAt:    m.Membership.JoinedAt,
		Known:       m.Known,
	}
}
