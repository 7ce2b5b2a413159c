package domain

import "time"

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation offers a project role to an email address. The token is handed
// to the inviter once; only its hash is persisted.
type Invitation struct {
	ID            string           `json:"id"`
	ProjectID     string           `json:"projectId"`
	InviterUserID string           `json:"inviterUserId"`
	InviteeEmail  string           `json:"inviteeEmail"`
	Role          Role             `json:"role"`
	Status        InvitationStatus `json:"status"`
	TokenHash     string           `json:"tokenHash,omitempty"`
	ExpiresAt     time.Time        `json:"expiresAt"`
	RespondedAt   *time.Time       `json:"respondedAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Version       int64            `json:"version"`
}

// EffectiveStatus reports expired for a pending invitation past its expiry.
func (i Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == InvitationPending && !now.Before(i.ExpiresAt) {
		return InvitationExpired
	}
	return i.Status
}

// NotificationType enumerates the events a user can be notified about.
type NotificationType string

const (
	NotifyTaskAssigned    NotificationType = "task_assigned"
	NotifyTaskCompleted   NotificationType = "task_completed"
	NotifyProjectInvited  NotificationType = "project_invited"
	NotifyDueDateReminder NotificationType = "due_date_reminder"
	NotifyCommentAdded    NotificationType = "comment_added"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifyTaskAssigned, NotifyTaskCompleted, NotifyProjectInvited, NotifyDueDateReminder, NotifyCommentAdded:
		return true
	}
	return false
}

// Notification is a message in a user's inbox.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"isRead"`
	RelatedID string           `json:"relatedId,omitempty"`
	ActionURL string           `json:"actionUrl,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Version   int64            `json:"version"`
}
