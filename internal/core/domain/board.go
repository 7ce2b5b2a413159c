package domain

import "time"

// Stage is a column of the matrix view. Order is advisory; duplicates are
// allowed and resolved by creation time when sorting.
type Stage struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Version     int64     `json:"version"`
}

// Target is a customer or subject of work: a row of the matrix view.
// Metadata holds free-form fields, typically columns of an imported CSV.
type Target struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"projectId"`
	Name        string            `json:"name"`
	DisplayName string            `json:"displayName,omitempty"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Order       int               `json:"order"`
	Archived    bool              `json:"archived"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Version     int64             `json:"version"`
}

// CellStatus is the progress state of a matrix cell.
type CellStatus string

const (
	CellNotStarted CellStatus = "not_started"
	CellInProgress CellStatus = "in_progress"
	CellOnHold     CellStatus = "on_hold"
	CellCompleted  CellStatus = "completed"
	CellError      CellStatus = "error"
)

func (s CellStatus) Valid() bool {
	switch s {
	case CellNotStarted, CellInProgress, CellOnHold, CellCompleted, CellError:
		return true
	}
	return false
}

// Attachment is a file reference attached to a matrix cell. The file body
// lives in object storage under S3Key.
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileSize   int64     `json:"fileSize"`
	MimeType   string    `json:"mimeType"`
	S3Key      string    `json:"s3Key"`
	UploadedBy string    `json:"uploadedBy"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// MatrixTask is one (stage, target) cell of a project's matrix. It is
// identified by (ProjectID, TargetID, StageID), which never changes.
type MatrixTask struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"projectId"`
	TargetID    string       `json:"targetId"`
	StageID     string       `json:"stageId"`
	Status      CellStatus   `json:"status"`
	DueDate     string       `json:"dueDate,omitempty"`
	Assignees   []string     `json:"assignees"`
	ActionKey   string       `json:"actionKey,omitempty"`
	Note        string       `json:"note,omitempty"`
	Attachments []Attachment `json:"attachments"`
	CreatedBy   string       `json:"createdBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Version     int64        `json:"version"`
}

// PrimaryAssignee is the assignee the cell is indexed under, or "".
func (m MatrixTask) PrimaryAssignee() string {
	if len(m.Assignees) == 0 {
		return ""
	}
	return m.Assignees[0]
}
