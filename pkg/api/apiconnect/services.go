package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/hisaabdost/backend/pkg/api"
)

// AuthServiceHandler is implemented by the server.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return route(AuthServiceName, map[string]*connect.Handler{
		"Register": unary(AuthServiceName, "Register", svc.Register, opts),
		"Login":    unary(AuthServiceName, "Login", svc.Login, opts),
	})
}

// AuthServiceClient calls AuthService.
type AuthServiceClient struct {
	register *connect.Client[api.RegisterRequest, api.RegisterResponse]
	login    *connect.Client[api.LoginRequest, api.LoginResponse]
}

// NewAuthServiceClient constructs a client for AuthService at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	return &AuthServiceClient{
		register: client[api.RegisterRequest, api.RegisterResponse](httpClient, baseURL, AuthServiceName, "Register", opts),
		login:    client[api.LoginRequest, api.LoginResponse](httpClient, baseURL, AuthServiceName, "Login", opts),
	}
}

func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

// ContextServiceHandler is implemented by the server.
type ContextServiceHandler interface {
	GetActiveContext(context.Context, *connect.Request[api.GetActiveContextRequest]) (*connect.Response[api.GetActiveContextResponse], error)
	SwitchToGroup(context.Context, *connect.Request[api.SwitchToGroupRequest]) (*connect.Response[api.SwitchToGroupResponse], error)
	SwitchToPersonal(context.Context, *connect.Request[api.SwitchToPersonalRequest]) (*connect.Response[api.SwitchToPersonalResponse], error)
	ListMemberships(context.Context, *connect.Request[api.ListMembershipsRequest]) (*connect.Response[api.ListMembershipsResponse], error)
	ListMembers(context.Context, *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error)
}

func NewContextServiceHandler(svc ContextServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return route(ContextServiceName, map[string]*connect.Handler{
		"GetActiveContext": unary(ContextServiceName, "GetActiveContext", svc.GetActiveContext, opts),
		"SwitchToGroup":    unary(ContextServiceName, "SwitchToGroup", svc.SwitchToGroup, opts),
		"SwitchToPersonal": unary(ContextServiceName, "SwitchToPersonal", svc.SwitchToPersonal, opts),
		"ListMemberships":  unary(ContextServiceName, "ListMemberships", svc.ListMemberships, opts),
		"ListMembers":      unary(ContextServiceName, "ListMembers", svc.ListMembers, opts),
	})
}

// ContextServiceClient calls ContextService.
type ContextServiceClient struct {
	getActiveContext *connect.Client[api.GetActiveContextRequest, api.GetActiveContextResponse]
	switchToGroup    *connect.Client[api.SwitchToGroupRequest, api.SwitchToGroupResponse]
	switchToPersonal *connect.Client[api.SwitchToPersonalRequest, api.SwitchToPersonalResponse]
	listMemberships  *connect.Client[api.ListMembershipsRequest, api.ListMembershipsResponse]
	listMembers      *connect.Client[api.ListMembersRequest, api.ListMembersResponse]
}

func NewContextServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ContextServiceClient {
	return &ContextServiceClient{
		getActiveContext: client[api.GetActiveContextRequest, api.GetActiveContextResponse](httpClient, baseURL, ContextServiceName, "GetActiveContext", opts),
		switchToGroup:    client[api.SwitchToGroupRequest, api.SwitchToGroupResponse](httpClient, baseURL, ContextServiceName, "SwitchToGroup", opts),
		switchToPersonal: client[api.SwitchToPersonalRequest, api.SwitchToPersonalResponse](httpClient, baseURL, ContextServiceName, "SwitchToPersonal", opts),
		listMemberships:  client[api.ListMembershipsRequest, api.ListMembershipsResponse](httpClient, baseURL, ContextServiceName, "ListMemberships", opts),
		listMembers:      client[api.ListMembersRequest, api.ListMembersResponse](httpClient, baseURL, ContextServiceName, "ListMembers", opts),
	}
}

func (c *ContextServiceClient) GetActiveContext(ctx context.Context, req *connect.Request[api.GetActiveContextRequest]) (*connect.Response[api.GetActiveContextResponse], error) {
	return c.getActiveContext.CallUnary(ctx, req)
}

func (c *ContextServiceClient) SwitchToGroup(ctx context.Context, req *connect.Request[api.SwitchToGroupRequest]) (*connect.Response[api.SwitchToGroupResponse], error) {
	return c.switchToGroup.CallUnary(ctx, req)
}

func (c *ContextServiceClient) SwitchToPersonal(ctx context.Context, req *connect.Request[api.SwitchToPersonalRequest]) (*connect.Response[api.SwitchToPersonalResponse], error) {
	return c.switchToPersonal.CallUnary(ctx, req)
}

func (c *ContextServiceClient) ListMemberships(ctx context.Context, req *connect.Request[api.ListMembershipsRequest]) (*connect.Response[api.ListMembershipsResponse], error) {
	return c.listMemberships.CallUnary(ctx, req)
}

func (c *ContextServiceClient) ListMembers(ctx context.Context, req *connect.Request[api.ListMembersRequest]) (*connect.Response[api.ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}

// GroupServiceHandler is implemented by the server.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error)
	AddMember(context.Context, *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error)
}

func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return route(GroupServiceName, map[string]*connect.Handler{
		"CreateGroup":  unary(GroupServiceName, "CreateGroup", svc.CreateGroup, opts),
		"AddMember":    unary(GroupServiceName, "AddMember", svc.AddMember, opts),
		"RemoveMember": unary(GroupServiceName, "RemoveMember", svc.RemoveMember, opts),
	})
}

// GroupServiceClient calls GroupService.
type GroupServiceClient struct {
	createGroup  *connect.Client[api.CreateGroupRequest, api.CreateGroupResponse]
	addMember    *connect.Client[api.AddMemberRequest, api.AddMemberResponse]
	removeMember *connect.Client[api.RemoveMemberRequest, api.RemoveMemberResponse]
}

func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	return &GroupServiceClient{
		createGroup:  client[api.CreateGroupRequest, api.CreateGroupResponse](httpClient, baseURL, GroupServiceName, "CreateGroup", opts),
		addMember:    client[api.AddMemberRequest, api.AddMemberResponse](httpClient, baseURL, GroupServiceName, "AddMember", opts),
		removeMember: client[api.RemoveMemberRequest, api.RemoveMemberResponse](httpClient, baseURL, GroupServiceName, "RemoveMember", opts),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

// InsightsServiceHandler is implemented by the server.
type InsightsServiceHandler interface {
	GetDashboard(context.Context, *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.GetDashboardResponse], error)
}

func NewInsightsServiceHandler(svc InsightsServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	return route(InsightsServiceName, map[string]*connect.Handler{
		"GetDashboard": unary(InsightsServiceName, "GetDashboard", svc.GetDashboard, opts),
	})
}

// InsightsServiceClient calls InsightsService.
type InsightsServiceClient struct {
	getDashboard *connect.Client[api.GetDashboardRequest, api.GetDashboardResponse]
}

func NewInsightsServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *InsightsServiceClient {
	return &InsightsServiceClient{
		getDashboard: client[api.GetDashboardRequest, api.GetDashboardResponse](httpClient, baseURL, InsightsServiceName, "GetDashboard", opts),
	}
}

func (c *InsightsServiceClient) GetDashboard(ctx context.Context, req *connect.Request[api.GetDashboardRequest]) (*connect.Response[api.GetDashboardResponse], error) {
	return c.getDashboard.CallUnary(ctx, req)
}
