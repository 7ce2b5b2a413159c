package domain

import "time"

// Role is a member's permission level inside a project.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// rank orders roles by privilege. editor and member are aliases.
var rank = map[Role]int{
	RoleOwner:  4,
	RoleAdmin:  3,
	RoleEditor: 2,
	RoleMember: 2,
	RoleViewer: 1,
}

func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return rank[r] >= rank[min] && rank[r] > 0
}

// MemberStatus is the state of a membership row.
type MemberStatus string

const (
	MemberActive  MemberStatus = "active"
	MemberInvited MemberStatus = "invited"
	MemberRemoved MemberStatus = "removed"
)

// ProjectMember links a user to a project. Its identity is the
// (ProjectID, UserID) pair.
type ProjectMember struct {
	ProjectID string       `json:"projectId"`
	UserID    string       `json:"userId"`
	Role      Role         `json:"role"`
	Status    MemberStatus `json:"status"`
	InvitedBy string       `json:"invitedBy,omitempty"`
	JoinedAt  time.Time    `json:"joinedAt"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Version   int64        `json:"version"`
}
