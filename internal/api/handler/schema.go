package handler

import (
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
)

// --- Users ---

type createUserRequest struct {
	ID    string `json:"id"`
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=100"`
	Plan  string `json:"plan" validate:"omitempty,oneof=free pro enterprise"`
}

type updateUserRequest struct {
	Email        *string              `json:"email" validate:"omitempty,email"`
	Name         *string              `json:"name" validate:"omitempty,min=1,max=100"`
	Subscription *domain.Subscription `json:"subscription"`
	Version      int64                `json:"version"`
}

// --- Projects and members ---

type createProjectRequest struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Description string                  `json:"description" validate:"max=2000"`
	Settings    *domain.ProjectSettings `json:"settings"`
	TenantID    string                  `json:"tenantId"`
}

type updateProjectRequest struct {
	Name        *string                 `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string                 `json:"description" validate:"omitempty,max=2000"`
	Status      *string                 `json:"status" validate:"omitempty,oneof=active completed archived"`
	Settings    *domain.ProjectSettings `json:"settings"`
	Version     int64                   `json:"version"`
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required,role"`
}

type updateMemberRequest struct {
	Role    string `json:"role" validate:"required,role"`
	Version int64  `json:"version"`
}

// --- Tenants ---

type createTenantRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type updateTenantRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Version int64   `json:"version"`
}

type addTenantMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=admin member"`
}

// --- Tasks ---

type matrixRequest struct {
	Importance string `json:"importance" validate:"required,oneof=high low"`
	Urgency    string `json:"urgency" validate:"required,oneof=high low"`
}

func (m *matrixRequest) position() *domain.MatrixPosition {
	if m == nil {
		return nil
	}
	return &domain.MatrixPosition{Importance: domain.Level(m.Importance), Urgency: domain.Level(m.Urgency)}
}

type createTaskRequest struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description" validate:"max=5000"`
	Status      string         `json:"status" validate:"omitempty,oneof=todo in_progress done archived"`
	Priority    string         `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  string         `json:"assigneeId"`
	DueDate     string         `json:"dueDate" validate:"omitempty,date"`
	Tags        []string       `json:"tags" validate:"max=20"`
	Matrix      *matrixRequest `json:"matrix"`
}

type updateTaskRequest struct {
	Title       *string        `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string        `json:"description" validate:"omitempty,max=5000"`
	Status      *string        `json:"status" validate:"omitempty,oneof=todo in_progress done archived"`
	Priority    *string        `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	AssigneeID  *string        `json:"assigneeId"`
	DueDate     *string        `json:"dueDate" validate:"omitempty,date"`
	Tags        *[]string      `json:"tags" validate:"omitempty,max=20"`
	Matrix      *matrixRequest `json:"matrix"`
	Version     int64          `json:"version"`
}

// --- Stages and targets ---

type createStageRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Color       string `json:"color" validate:"max=32"`
	Order       *int   `json:"order" validate:"omitempty,min=0"`
	IsActive    *bool  `json:"isActive"`
}

type updateStageRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Color       *string `json:"color" validate:"omitempty,max=32"`
	Order       *int    `json:"order" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"isActive"`
	Version     int64   `json:"version"`
}

type createTargetRequest struct {
	Name        string            `json:"name" validate:"required,max=200"`
	DisplayName string            `json:"displayName" validate:"max=200"`
	Email       string            `json:"email" validate:"omitempty,email"`
	Phone       string            `json:"phone" validate:"max=32"`
	Order       *int              `json:"order" validate:"omitempty,min=0"`
	Metadata    map[string]string `json:"metadata"`
}

type updateTargetRequest struct {
	Name        *string            `json:"name" validate:"omitempty,min=1,max=200"`
	DisplayName *string            `json:"displayName" validate:"omitempty,max=200"`
	Email       *string            `json:"email" validate:"omitempty,email"`
	Phone       *string            `json:"phone" validate:"omitempty,max=32"`
	Order       *int               `json:"order" validate:"omitempty,min=0"`
	Archived    *bool              `json:"archived"`
	Metadata    *map[string]string `json:"metadata"`
	Version     int64              `json:"version"`
}

// --- Matrix ---

type upsertCellRequest struct {
	Status      *string              `json:"status" validate:"omitempty,oneof=not_started in_progress on_hold completed error"`
	DueDate     *string              `json:"dueDate" validate:"omitempty,date"`
	Assignees   *[]string            `json:"assignees" validate:"omitempty,max=20"`
	ActionKey   *string              `json:"actionKey" validate:"omitempty,max=100"`
	Note        *string              `json:"note" validate:"omitempty,max=5000"`
	Attachments *[]domain.Attachment `json:"attachments"`
	Version     int64                `json:"version"`
}

// --- Action catalog ---

type createActionRequest struct {
	Key         string `json:"key" validate:"required,actionkey"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"max=50"`
	IsDefault   bool   `json:"isDefault"`
}

type updateActionRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
	IsDefault   *bool   `json:"isDefault"`
	Version     int64   `json:"version"`
}

// --- Invitations ---

type createInvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,role"`
}

type createInvitationResponse struct {
	Invitation *domain.Invitation `json:"invitation"`
	// Token is shown once; only its hash is stored.
	Token string `json:"token"`
}

type respondInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

// --- Me ---

type meResponse struct {
	User        *domain.User `json:"user"`
	UnreadCount int          `json:"unreadCount"`
}
