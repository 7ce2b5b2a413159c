package domain

import (
	"slices"
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a flat task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskArchived   TaskStatus = "archived"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskDone, TaskArchived:
		return true
	}
	return false
}

// Priority ranks how pressing a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MatrixPosition places a task in one of the four priority-matrix quadrants.
type MatrixPosition struct {
	Importance Level `json:"importance"`
	Urgency    Level `json:"urgency"`
}

// Quadrant is the classification of the position.
func (m MatrixPosition) Quadrant() (Quadrant, error) {
	return Classify(m.Importance, m.Urgency)
}

// Task belongs to exactly one project for its whole life.
type Task struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"projectId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      TaskStatus     `json:"status"`
	Priority    Priority       `json:"priority"`
	AssigneeID  string         `json:"assigneeId,omitempty"`
	CreatedBy   string         `json:"createdBy"`
	DueDate     string         `json:"dueDate,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Tags        []string       `json:"tags"`
	Matrix      MatrixPosition `json:"matrix"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Version     int64          `json:"version"`
}

// NormalizeTags trims, deduplicates and sorts tags. Tags are a set, so their
// stored order carries no meaning.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// DateLayout is the calendar-date format used for due dates.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is empty or a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
