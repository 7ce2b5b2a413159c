package ports

import (
	"context"
	"io"
	"time"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
)

type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit int) ([]domain.User, error)
	SearchByName(ctx context.Context, query string, limit int) ([]domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	Deactivate(ctx context.Context, id string) error
}

type ProjectService interface {
	Create(ctx context.Context, in CreateProjectInput) (*domain.Project, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Project, error)
	ListOwned(ctx context.Context, userID string) ([]domain.Project, error)
	Update(ctx context.Context, id string, patch ProjectPatch) (*domain.Project, error)
	Delete(ctx context.Context, id string) error
}

// TenantService manages tenants, their memberships and the projects filed
// under them.
type TenantService interface {
	Create(ctx context.Context, in CreateTenantInput) (*domain.Tenant, error)
	Get(ctx context.Context, id string) (*domain.Tenant, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Tenant, error)
	Update(ctx context.Context, id string, patch TenantPatch) (*domain.Tenant, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, in AddTenantMemberInput) (*domain.TenantMembership, error)
	GetMember(ctx context.Context, tenantID, userID string) (*domain.TenantMembership, error)
	ListMembers(ctx context.Context, tenantID string) ([]domain.TenantMembership, error)
	RemoveMember(ctx context.Context, tenantID, userID string) error
	ListProjects(ctx context.Context, tenantID string) ([]domain.Project, error)
}

type MemberService interface {
	Add(ctx context.Context, in AddMemberInput) (*domain.ProjectMember, error)
	Get(ctx context.Context, projectID, userID string) (*domain.ProjectMember, error)
	List(ctx context.Context, projectID string) ([]domain.ProjectMember, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ProjectMember, error)
	UpdateRole(ctx context.Context, projectID, userID string, role domain.Role, expectedVersion int64) (*domain.ProjectMember, error)
	Remove(ctx context.Context, projectID, userID string) error
}

type TaskService interface {
	Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error)
	Get(ctx context.Context, projectID, taskID string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string, filter TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, projectID, taskID string, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, projectID, taskID string) error
	Quadrants(ctx context.Context, projectID string) (map[domain.Quadrant][]domain.Task, error)
}

type StageService interface {
	Create(ctx context.Context, in CreateStageInput) (*domain.Stage, error)
	Get(ctx context.Context, projectID, stageID string) (*domain.Stage, error)
	List(ctx context.Context, projectID string) ([]domain.Stage, error)
	Update(ctx context.Context, projectID, stageID string, patch StagePatch) (*domain.Stage, error)
	Delete(ctx context.Context, projectID, stageID string) error
}

type TargetService interface {
	Create(ctx context.Context, in CreateTargetInput) (*domain.Target, error)
	Get(ctx context.Context, projectID, targetID string) (*domain.Target, error)
	List(ctx context.Context, projectID string, includeArchived bool) ([]domain.Target, error)
	Update(ctx context.Context, projectID, targetID string, patch TargetPatch) (*domain.Target, error)
	Delete(ctx context.Context, projectID, targetID string) error
	ImportCSV(ctx context.Context, projectID string, r io.Reader) (*ImportResult, error)
}

type MatrixService interface {
	UpsertCell(ctx context.Context, in UpsertCellInput) (*domain.MatrixTask, error)
	GetCell(ctx context.Context, projectID, targetID, stageID string) (*domain.MatrixTask, error)
	DeleteCell(ctx context.Context, projectID, targetID, stageID string) error
	ListByTarget(ctx context.Context, projectID, targetID string) ([]domain.MatrixTask, error)
	ListByAssignee(ctx context.Context, q AssignmentQuery) ([]domain.MatrixTask, error)
	View(ctx context.Context, projectID string) (*MatrixView, error)
}

// ActionCatalogService manages the actions a project's matrix cells may
// reference.
type ActionCatalogService interface {
	Create(ctx context.Context, in CreateActionInput) (*domain.ActionItem, error)
	Get(ctx context.Context, projectID, key string) (*domain.ActionItem, error)
	List(ctx context.Context, projectID string) ([]domain.ActionItem, error)
	Update(ctx context.Context, projectID, key string, patch ActionPatch) (*domain.ActionItem, error)
	Delete(ctx context.Context, projectID, key string) error
}

type InvitationService interface {
	// Create returns the invitation and its plaintext token. The token is
	// not recoverable afterwards.
	Create(ctx context.Context, in CreateInvitationInput) (*domain.Invitation, string, error)
	Get(ctx context.Context, projectID, invitationID string) (*domain.Invitation, error)
	List(ctx context.Context, projectID string) ([]domain.Invitation, error)
	ListForEmail(ctx context.Context, email string) ([]domain.Invitation, error)
	Accept(ctx context.Context, projectID, invitationID, token, userID string) (*domain.ProjectMember, error)
	Decline(ctx context.Context, projectID, invitationID, token string) (*domain.Invitation, error)
	Revoke(ctx context.Context, projectID, invitationID string) error
}

type NotificationService interface {
	Notify(ctx context.Context, in NotifyInput) (*domain.Notification, error)
	List(ctx context.Context, userID string, filter NotificationFilter) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, notificationID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type ReminderService interface {
	// SendDueReminders notifies assignees of incomplete cells due on or
	// before now plus the configured lead window. It returns the number of
	// reminders published.
	SendDueReminders(ctx context.Context, now time.Time) (int, error)
}

// NotificationPublisher hands notification events to asynchronous delivery.
type NotificationPublisher interface {
	Publish(ctx context.Context, in NotifyInput)
}
