package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

// defaultCreator is recorded when a task is created without an actor.
const defaultCreator = "system"

type TaskService struct {
	store     ports.Store
	idem      ports.IdempotencyStore
	publisher ports.NotificationPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewTaskService(store ports.Store, idem ports.IdempotencyStore, publisher ports.NotificationPublisher, logger zerolog.Logger) *TaskService {
	return &TaskService{store: store, idem: idem, publisher: publisher, logger: logger, now: systemClock}
}

// Create adds a task to a project. Missing fields default to status todo,
// priority medium and the urgent-important quadrant.
func (s *TaskService) Create(ctx context.Context, in ports.CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Validationf("title is required")
	}
	if in.Status == "" {
		in.Status = domain.TaskTodo
	}
	if !in.Status.Valid() {
		return nil, domain.Validationf("unknown task status %q", in.Status)
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, domain.Validationf("unknown priority %q", in.Priority)
	}
	matrix := domain.MatrixPosition{Importance: domain.LevelHigh, Urgency: domain.LevelHigh}
	if in.Matrix != nil {
		matrix = *in.Matrix
	}
	if _, err := matrix.Quadrant(); err != nil {
		return nil, err
	}
	if !domain.ValidDate(in.DueDate) {
		return nil, domain.Validationf("dueDate must be YYYY-MM-DD")
	}
	if in.CreatedBy == "" {
		in.CreatedBy = defaultCreator
	}
	if _, err := projectExists(ctx, s.store, in.ProjectID); err != nil {
		return nil, err
	}

	idemKey := ""
	if in.IdempotencyKey != "" && s.idem != nil {
		idemKey = "task:" + in.ProjectID + ":" + in.IdempotencyKey
	}
	id, replay, err := claimIdempotency(ctx, s.idem, idemKey, domain.NewID())
	if err != nil {
		return nil, err
	}
	if replay {
		existing, err := s.Get(ctx, in.ProjectID, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrIdempotencyBusy
		}
		return existing, err
	}

	now := s.now()
	task := &domain.Task{
		ID:          id,
		ProjectID:   in.ProjectID,
		Title:       title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		AssigneeID:  in.AssigneeID,
		CreatedBy:   in.CreatedBy,
		DueDate:     in.DueDate,
		Tags:        domain.NormalizeTags(in.Tags),
		Matrix:      matrix,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if task.Status == domain.TaskDone {
		task.CompletedAt = &now
	}

	item, err := toItem(task, keyAttrs(taskKey(in.ProjectID, id), "", ""))
	if err == nil {
		err = s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true})
	}
	if err != nil {
		if idemKey != "" {
			_ = s.idem.Release(ctx, idemKey)
		}
		logger.FromContext(ctx, s.logger).Error().Err(err).Str("project_id", in.ProjectID).Msg("failed to create task")
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info().Str("project_id", in.ProjectID).Str("task_id", id).Msg("task created")
	if task.AssigneeID != "" && task.AssigneeID != in.CreatedBy {
		publish(ctx, s.publisher, assignedNotice(task))
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, projectID, taskID string) (*domain.Task, error) {
	return getEntity[domain.Task](ctx, s.store, taskKey(projectID, taskID), domain.ErrTaskNotFound)
}

// ListByProject returns the project's tasks in creation order.
func (s *TaskService) ListByProject(ctx context.Context, projectID string, filter ports.TaskFilter) ([]domain.Task, error) {
	tasks, err := queryEntities[domain.Task](ctx, s.store, ports.QueryInput{PK: keys.Project(projectID), SKPrefix: keys.PrefixTask})
	if err != nil {
		return nil, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if !matchTask(t, filter) {
			continue
		}
		out = append(out, t)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func matchTask(t domain.Task, f ports.TaskFilter) bool {
	switch {
	case f.Status != "" && t.Status != f.Status:
		return false
	case f.Priority != "" && t.Priority != f.Priority:
		return false
	case f.AssigneeID != "" && t.AssigneeID != f.AssigneeID:
		return false
	case f.Tag != "" && !slices.Contains(t.Tags, f.Tag):
		return false
	}
	return true
}

// Update patches a task. Moving to done stamps completedAt; moving away
// from done clears it.
func (s *TaskService) Update(ctx context.Context, projectID, taskID string, patch ports.TaskPatch) (*domain.Task, error) {
	current, err := s.Get(ctx, projectID, taskID)
	if err != nil {
		return nil, err
	}
	now := s.now()

	c := newChanges()
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, domain.Validationf("title cannot be empty")
		}
		c.put("title", title)
	}
	if patch.Description != nil {
		c.put("description", *patch.Description)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, domain.Validationf("unknown task status %q", *patch.Status)
		}
		c.put("status", *patch.Status)
		switch {
		case *patch.Status == domain.TaskDone && current.Status != domain.TaskDone:
			c.put("completedAt", stamp(now))
		case *patch.Status != domain.TaskDone && current.Status == domain.TaskDone:
			c.drop("completedAt")
		}
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, domain.Validationf("unknown priority %q", *patch.Priority)
		}
		c.put("priority", *patch.Priority)
	}
	if patch.AssigneeID != nil {
		if *patch.AssigneeID == "" {
			c.drop("assigneeId")
		} else {
			c.put("assigneeId", *patch.AssigneeID)
		}
	}
	if patch.DueDate != nil {
		if !domain.ValidDate(*patch.DueDate) {
			return nil, domain.Validationf("dueDate must be YYYY-MM-DD")
		}
		if *patch.DueDate == "" {
			c.drop("dueDate")
		} else {
			c.put("dueDate", *patch.DueDate)
		}
	}
	if patch.Tags != nil {
		c.put("tags", domain.NormalizeTags(*patch.Tags))
	}
	if patch.Matrix != nil {
		if _, err := patch.Matrix.Quadrant(); err != nil {
			return nil, err
		}
		c.put("matrix", patch.Matrix)
	}

	updated, err := updateEntity[domain.Task](ctx, s.store, taskKey(projectID, taskID), c.input(now, patch.ExpectedVersion), domain.ErrTaskNotFound)
	if err != nil {
		return nil, err
	}

	if updated.AssigneeID != "" && updated.AssigneeID != current.AssigneeID && updated.AssigneeID != patch.ActorID {
		publish(ctx, s.publisher, assignedNotice(updated))
	}
	if updated.Status == domain.TaskDone && current.Status != domain.TaskDone &&
		updated.CreatedBy != defaultCreator && updated.CreatedBy != patch.ActorID {
		publish(ctx, s.publisher, ports.NotifyInput{
			UserID:    updated.CreatedBy,
			Type:      domain.NotifyTaskCompleted,
			Title:     "Task completed",
			Message:   updated.Title,
			RelatedID: updated.ID,
			ActionURL: "/projects/" + updated.ProjectID + "/tasks/" + updated.ID,
		})
	}
	return updated, nil
}

// Delete removes a task. Deleting a missing task is not an error.
func (s *TaskService) Delete(ctx context.Context, projectID, taskID string) error {
	return s.store.DeleteItem(ctx, taskKey(projectID, taskID))
}

// Quadrants groups the project's non-archived tasks by priority-matrix
// quadrant. Every quadrant is present in the result, possibly empty.
func (s *TaskService) Quadrants(ctx context.Context, projectID string) (map[domain.Quadrant][]domain.Task, error) {
	tasks, err := s.ListByProject(ctx, projectID, ports.TaskFilter{})
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Quadrant][]domain.Task, len(domain.Quadrants))
	for _, q := range domain.Quadrants {
		out[q] = []domain.Task{}
	}
	for _, t := range tasks {
		if t.Status == domain.TaskArchived {
			continue
		}
		q, err := t.Matrix.Quadrant()
		if err != nil {
			logger.FromContext(ctx, s.logger).Warn().Err(err).Str("task_id", t.ID).Msg("task has an invalid matrix position")
			continue
		}
		out[q] = append(out[q], t)
	}
	return out, nil
}

func assignedNotice(t *domain.Task) ports.NotifyInput {
	return ports.NotifyInput{
		UserID:    t.AssigneeID,
		Type:      domain.NotifyTaskAssigned,
		Title:     "New task assigned",
		Message:   t.Title,
		RelatedID: t.ID,
		ActionURL: "/projects/" + t.ProjectID + "/tasks/" + t.ID,
	}
}
