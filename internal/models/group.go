package models

// Group is a family: a named set of users sharing expenses, budgets and the rest.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Khan Family").
	Name string `json:"name"`

	// CreatedBy is the user who created the group. The creator is its owner.
	CreatedBy string `json:"created_by"`

	CreatedAt int64 `json:"created_at"`
}

// Role is a member's role inside a group.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManage reports whether the role may add or remove members.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Membership links a user to a group. There is exactly one row per (group, user);
// leaving a group flips IsActive instead of deleting the row.
type Membership struct {
	GroupID  string `json:"group_id"`
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
	IsActive bool   `json:"is_active"`
	JoinedAt int64  `json:"joined_at"`
}

// Member is a membership joined with the member's user summary.
// Known is false when no user record matched the membership's user ID.
type Member struct {
	Membership Membership  `json:"membership"`
	User       UserSummary `json:"user"`
	Known      bool        `json:"known"`
}
