package domain

import "time"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectArchived:
		return true
	}
	return false
}

// ProjectSettings holds the visibility flags of a project.
type ProjectSettings struct {
	IsPublic         bool `json:"isPublic"`
	AllowGuestAccess bool `json:"allowGuestAccess"`
}

// Project is the unit of access control: tasks, stages, targets, members,
// invitations and the action catalog all live in the project's partition.
// OwnerID is the single source of truth for ownership. TenantID is set at
// creation and never changes.
type Project struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	OwnerID     string          `json:"ownerId"`
	TenantID    string          `json:"tenantId,omitempty"`
	Status      ProjectStatus   `json:"status"`
	Settings    ProjectSettings `json:"settings"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Version     int64           `json:"version"`
}
