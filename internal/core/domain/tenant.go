package domain

import (
	"regexp"
	"time"
)

// Tenant is the organisation that owns a set of projects. Users belong to a
// tenant through TenantMember rows; a project optionally names its tenant.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int64     `json:"version"`
}

// TenantRole is a user's permission level inside a tenant.
type TenantRole string

const (
	TenantOwner  TenantRole = "owner"
	TenantAdmin  TenantRole = "admin"
	TenantMember TenantRole = "member"
)

var tenantRank = map[TenantRole]int{
	TenantOwner:  3,
	TenantAdmin:  2,
	TenantMember: 1,
}

func (r TenantRole) Valid() bool {
	_, ok := tenantRank[r]
	return ok
}

// AtLeast reports whether r grants at least the privileges of min.
func (r TenantRole) AtLeast(min TenantRole) bool {
	return tenantRank[r] >= tenantRank[min] && tenantRank[r] > 0
}

// TenantMembership links a user to a tenant.
type TenantMembership struct {
	TenantID  string     `json:"tenantId"`
	UserID    string     `json:"userId"`
	Role      TenantRole `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Version   int64      `json:"version"`
}

// ActionItem is an entry of a project's action catalog. Matrix cells refer
// to it by Key.
type ActionItem struct {
	Key         string    `json:"key"`
	ProjectID   string    `json:"projectId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Version     int64     `json:"version"`
}

var actionKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidActionKey reports whether key is a lowercase slug of at most 64
// characters.
func ValidActionKey(key string) bool {
	return actionKeyPattern.MatchString(key)
}
