package api

import (
	"github.com/hisaabdost/backend/internal/calculator"
	"github.com/hisaabdost/backend/internal/models"
)

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Context modes as sent on the wire.
const (
	ModePersonal = "personal"
	ModeGroup    = "group"
)

// ActiveContext is the viewing context of the caller.
type ActiveContext struct {
	Mode      string `json:"mode"`
	GroupID   string `json:"group_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
}

// IsPersonal reports whether the context is the caller's personal space.
func (c ActiveContext) IsPersonal() bool { return c.Mode == ModePersonal }

type GetActiveContextRequest struct{}

type GetActiveContextResponse struct {
	Context ActiveContext `json:"context"`
}

type SwitchToGroupRequest struct {
	GroupID string `json:"group_id"`
}

type SwitchToGroupResponse struct {
	Context ActiveContext `json:"context"`
}

type SwitchToPersonalRequest struct{}

type SwitchToPersonalResponse struct {
	Context ActiveContext `json:"context"`
}

// Group is a group the caller belongs to.
type Group struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	CreatedBy string      `json:"created_by"`
	CreatedAt int64       `json:"created_at"`
	Role      models.Role `json:"role,omitempty"`
}

type ListMembershipsRequest struct{}

type ListMembershipsResponse struct {
	Groups []*Group `json:"groups"`
}

// Member is a member of the active group. Known is false when the member's
// account could not be found.
type Member struct {
	UserID      string      `json:"user_id"`
	Email       string      `json:"email,omitempty"`
	DisplayName string      `json:"display_name"`
	Role        models.Role `json:"role"`
	JoinedAt    int64       `json:"joined_at"`
	Known       bool        `json:"known"`
}

type ListMembersRequest struct{}

type ListMembersResponse struct {
	GroupID string    `json:"group_id"`
	Members []*Member `json:"members"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type AddMemberRequest struct {
	GroupID string      `json:"group_id"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role,omitempty"`
}

type AddMemberResponse struct {
	Member *Member `json:"member"`
}

// RemoveMemberRequest removes UserID from the group. Members may remove themselves.
type RemoveMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type RemoveMemberResponse struct{}

// Record services share these messages; T is the record type.

type ListRequest struct{}

type ListResponse[T any] struct {
	Context ActiveContext `json:"context"`
	Items   []*T          `json:"items"`
}

type CreateRequest[T any] struct {
	Record *T `json:"record"`
}

type CreateResponse[T any] struct {
	Record *T `json:"record"`
}

// UpdateRequest replaces the data fields of Record, identified by its ID.
type UpdateRequest[T any] struct {
	Record *T `json:"record"`
}

type UpdateResponse[T any] struct {
	Record *T `json:"record"`
}

type DeleteRequest struct {
	ID string `json:"id"`
}

type DeleteResponse struct{}

type GetDashboardRequest struct {
	// Month is "YYYY-MM"; empty means the current month.
	Month string `json:"month"`
}

type GetDashboardResponse struct {
	Context   ActiveContext         `json:"context"`
	Dashboard *calculator.Dashboard `json:"dashboard"`
}
