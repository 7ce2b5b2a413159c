package ports

import (
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
)

// Pointer fields in the *Patch types follow PATCH semantics: nil leaves the
// attribute untouched. ExpectedVersion, when positive, guards the write.

// CreateUserInput carries the data needed to register a user.
type CreateUserInput struct {
	ID    string // optional; generated when empty
	Email string
	Name  string
	Plan  domain.SubscriptionPlan
}

type UserPatch struct {
	Email           *string
	Name            *string
	Subscription    *domain.Subscription
	ExpectedVersion int64
}

type CreateProjectInput struct {
	Name           string
	Description    string
	OwnerID        string
	Settings       *domain.ProjectSettings
	IdempotencyKey string
	// TenantID files the project under a tenant the owner belongs to.
	TenantID       string
}

type CreateTenantInput struct {
	Name    string
	OwnerID string
}

type TenantPatch struct {
	Name            *string
	ExpectedVersion int64
}

type AddTenantMemberInput struct {
	TenantID string
	UserID   string
	Role     domain.TenantRole
}

type ProjectPatch struct {
	Name            *string
	Description     *string
	Status          *domain.ProjectStatus
	Settings        *domain.ProjectSettings
	ExpectedVersion int64
}

type AddMemberInput struct {
	ProjectID string
	UserID    string
	Role      domain.Role
	InvitedBy string
}

type CreateTaskInput struct {
	ProjectID      string
	Title          string
	Description    string
	Status         domain.TaskStatus
	Priority       domain.Priority
	AssigneeID     string
	DueDate        string
	Tags           []string
	Matrix         *domain.MatrixPosition
	CreatedBy      string
	IdempotencyKey string
}

type TaskPatch struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *domain.Priority
	// AssigneeID set to "" unassigns the task.
	AssigneeID *string
	// DueDate set to "" clears the due date.
	DueDate         *string
	Tags            *[]string
	Matrix          *domain.MatrixPosition
	ExpectedVersion int64
	// ActorID is the user performing the change; used for notifications.
	ActorID string
}

// TaskFilter narrows ListByProject. Empty fields match everything.
type TaskFilter struct {
	Status     domain.TaskStatus
	Priority   domain.Priority
	AssigneeID string
	Tag        string
	Limit      int
}

type CreateStageInput struct {
	ProjectID   string
	Name        string
	Description string
	Color       string
	Order       *int
	IsActive    *bool
}

type StagePatch struct {
	Name            *string
	Description     *string
	Color           *string
	Order           *int
	IsActive        *bool
	ExpectedVersion int64
}

type CreateTargetInput struct {
	ProjectID   string
	Name        string
	DisplayName string
	Email       string
	Phone       string
	Order       *int
	Metadata    map[string]string
}

type TargetPatch struct {
	Name            *string
	DisplayName     *string
	Email           *string
	Phone           *string
	Order           *int
	Archived        *bool
	Metadata        *map[string]string
	ExpectedVersion int64
}

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Created []domain.Target `json:"created"`
	Skipped int             `json:"skipped"`
}

// UpsertCellInput creates the (stage, target) cell or patches it in place.
type UpsertCellInput struct {
	ProjectID       string
	TargetID        string
	StageID         string
	Status          *domain.CellStatus
	DueDate         *string
	Assignees       *[]string
	ActionKey       *string
	Note            *string
	Attachments     *[]domain.Attachment
	ExpectedVersion int64
	ActorID         string
}

// AssignmentQuery lists the cells whose primary assignee is UserID, ordered
// by due date. DueFrom/DueTo bound the due date (YYYY-MM-DD, inclusive);
// undated cells are included only when both bounds are empty.
type AssignmentQuery struct {
	UserID  string
	DueFrom string
	DueTo   string
	Limit   int
}

// MatrixView is the composed stage x target grid of a project.
type MatrixView struct {
	Project       domain.Project         `json:"project"`
	Stages        []domain.Stage         `json:"stages"`
	Targets       []domain.Target        `json:"targets"`
	Cells         []domain.MatrixTask    `json:"cells"`
	Members       []domain.ProjectMember `json:"members"`
	ActionCatalog []domain.ActionItem    `json:"actionCatalog"`
}

type CreateActionInput struct {
	ProjectID   string
	Key         string
	Name        string
	Description string
	Category    string
	IsDefault   bool
}

type ActionPatch struct {
	Name            *string
	Description     *string
	Category        *string
	IsDefault       *bool
	ExpectedVersion int64
}

type CreateInvitationInput struct {
	ProjectID string
	InviterID string
	Email     string
	Role      domain.Role
}

// NotifyInput is a notification event. It is also the unit of work of the
// notification dispatcher.
type NotifyInput struct {
	UserID    string
	Type      domain.NotificationType
	Title     string
	Message   string
	RelatedID string
	ActionURL string
}

type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}
