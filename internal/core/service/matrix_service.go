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

// MatrixService manages the (stage, target) cells of a project. A cell is
// indexed under its first assignee, sorted by due date, so "my assignments"
// and due-date reminders are a single index query.
type MatrixService struct {
	store     ports.Store
	stages    ports.StageService
	targets   ports.TargetService
	members   ports.MemberService
	catalog   ports.ActionCatalogService
	publisher ports.NotificationPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewMatrixService(store ports.Store, stages ports.StageService, targets ports.TargetService, members ports.MemberService, catalog ports.ActionCatalogService, publisher ports.NotificationPublisher, logger zerolog.Logger) *MatrixService {
	return &MatrixService{
		store:     store,
		stages:    stages,
		targets:   targets,
		members:   members,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
		now:       systemClock,
	}
}

// cellIndex returns the GSI1 attributes of a cell, or empty strings when the
// cell has no assignee and must stay out of the index.
func cellIndex(c *domain.MatrixTask) (string, string) {
	assignee := c.PrimaryAssignee()
	if assignee == "" {
		return "", ""
	}
	return keys.Assignee(assignee), keys.Due(c.DueDate, c.ProjectID, c.TargetID, c.StageID)
}

// normalizeAssignees drops blanks and duplicates, keeping the first
// occurrence so the primary assignee stays first.
func normalizeAssignees(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a != "" && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func (s *MatrixService) prepareAttachments(in []domain.Attachment, actor string, now time.Time) []domain.Attachment {
	out := make([]domain.Attachment, len(in))
	for i, a := range in {
		if a.ID == "" {
			a.ID = domain.NewID()
		}
		if a.UploadedBy == "" {
			a.UploadedBy = actor
		}
		if a.UploadedAt.IsZero() {
			a.UploadedAt = now
		}
		out[i] = a
	}
	return out
}

// UpsertCell creates the cell on first write and patches it afterwards.
func (s *MatrixService) UpsertCell(ctx context.Context, in ports.UpsertCellInput) (*domain.MatrixTask, error) {
	if in.ProjectID == "" || in.TargetID == "" || in.StageID == "" {
		return nil, domain.Validationf("projectId, targetId and stageId are required")
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, domain.Validationf("unknown cell status %q", *in.Status)
	}
	if in.DueDate != nil && !domain.ValidDate(*in.DueDate) {
		return nil, domain.Validationf("dueDate must be YYYY-MM-DD")
	}
	if _, err := s.targets.Get(ctx, in.ProjectID, in.TargetID); err != nil {
		return nil, err
	}
	if _, err := s.stages.Get(ctx, in.ProjectID, in.StageID); err != nil {
		return nil, err
	}
	if in.ActionKey != nil && *in.ActionKey != "" {
		if err := s.checkAction(ctx, in.ProjectID, *in.ActionKey); err != nil {
			return nil, err
		}
	}

	current, err := s.GetCell(ctx, in.ProjectID, in.TargetID, in.StageID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if in.ExpectedVersion > 0 {
			return nil, domain.ErrCellNotFound
		}
		return s.createCell(ctx, in)
	case err != nil:
		return nil, err
	}
	return s.updateCell(ctx, current, in)
}

// checkAction rejects action keys missing from the project's catalog.
func (s *MatrixService) checkAction(ctx context.Context, projectID, key string) error {
	_, err := s.catalog.Get(ctx, projectID, key)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Validationf("actionKey %q is not in the project's action catalog", key)
	}
	return err
}

func (s *MatrixService) createCell(ctx context.Context, in ports.UpsertCellInput) (*domain.MatrixTask, error) {
	now := s.now()
	cell := &domain.MatrixTask{
		ID:          domain.NewID(),
		ProjectID:   in.ProjectID,
		TargetID:    in.TargetID,
		StageID:     in.StageID,
		Status:      domain.CellNotStarted,
		Assignees:   []string{},
		Attachments: []domain.Attachment{},
		CreatedBy:   in.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if in.Status != nil {
		cell.Status = *in.Status
	}
	if in.DueDate != nil {
		cell.DueDate = *in.DueDate
	}
	if in.Assignees != nil {
		cell.Assignees = normalizeAssignees(*in.Assignees)
	}
	if in.ActionKey != nil {
		cell.ActionKey = *in.ActionKey
	}
	if in.Note != nil {
		cell.Note = *in.Note
	}
	if in.Attachments != nil {
		cell.Attachments = s.prepareAttachments(*in.Attachments, in.ActorID, now)
	}

	gsiPK, gsiSK := cellIndex(cell)
	item, err := toItem(cell, keyAttrs(cellKey(cell.ProjectID, cell.TargetID, cell.StageID), gsiPK, gsiSK))
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info().Str("project_id", cell.ProjectID).Str("target_id", cell.TargetID).Str("stage_id", cell.StageID).Msg("matrix cell created")
	s.notifyAssigned(ctx, cell, nil, in.ActorID)
	return cell, nil
}

func (s *MatrixService) updateCell(ctx context.Context, current *domain.MatrixTask, in ports.UpsertCellInput) (*domain.MatrixTask, error) {
	now := s.now()
	merged := *current
	c := newChanges()

	if in.Status != nil {
		merged.Status = *in.Status
		c.put("status", *in.Status)
	}
	if in.DueDate != nil {
		merged.DueDate = *in.DueDate
		if *in.DueDate == "" {
			c.drop("dueDate")
		} else {
			c.put("dueDate", *in.DueDate)
		}
	}
	if in.Assignees != nil {
		merged.Assignees = normalizeAssignees(*in.Assignees)
		c.put("assignees", merged.Assignees)
	}
	if in.ActionKey != nil {
		if *in.ActionKey == "" {
			c.drop("actionKey")
		} else {
			c.put("actionKey", *in.ActionKey)
		}
	}
	if in.Note != nil {
		c.put("note", *in.Note)
	}
	if in.Attachments != nil {
		c.put("attachments", s.prepareAttachments(*in.Attachments, in.ActorID, now))
	}

	if gsiPK, gsiSK := cellIndex(&merged); gsiPK != "" {
		c.put(ports.AttrGSI1PK, gsiPK)
		c.put(ports.AttrGSI1SK, gsiSK)
	} else {
		c.drop(ports.AttrGSI1PK)
		c.drop(ports.AttrGSI1SK)
	}

	key := cellKey(current.ProjectID, current.TargetID, current.StageID)
	updated, err := updateEntity[domain.MatrixTask](ctx, s.store, key, c.input(now, in.ExpectedVersion), domain.ErrCellNotFound)
	if err != nil {
		return nil, err
	}
	s.notifyAssigned(ctx, updated, current.Assignees, in.ActorID)
	return updated, nil
}

func (s *MatrixService) notifyAssigned(ctx context.Context, cell *domain.MatrixTask, before []string, actor string) {
	for _, a := range cell.Assignees {
		if a == actor || slices.Contains(before, a) {
			continue
		}
		publish(ctx, s.publisher, ports.NotifyInput{
			UserID:    a,
			Type:      domain.NotifyTaskAssigned,
			Title:     "New matrix task assigned",
			Message:   "You were assigned a task due " + orNone(cell.DueDate),
			RelatedID: cell.ID,
			ActionURL: "/projects/" + cell.ProjectID + "/matrix",
		})
	}
}

func orNone(date string) string {
	if date == "" {
		return "without a due date"
	}
	return date
}

func (s *MatrixService) GetCell(ctx context.Context, projectID, targetID, stageID string) (*domain.MatrixTask, error) {
	return getEntity[domain.MatrixTask](ctx, s.store, cellKey(projectID, targetID, stageID), domain.ErrCellNotFound)
}

// DeleteCell removes a cell. Deleting an empty cell is not an error.
func (s *MatrixService) DeleteCell(ctx context.Context, projectID, targetID, stageID string) error {
	return s.store.DeleteItem(ctx, cellKey(projectID, targetID, stageID))
}

func (s *MatrixService) ListByTarget(ctx context.Context, projectID, targetID string) ([]domain.MatrixTask, error) {
	return queryEntities[domain.MatrixTask](ctx, s.store, ports.QueryInput{PK: keys.Cell(projectID, targetID), SKPrefix: keys.PrefixTask})
}

// ListByAssignee returns cells whose primary assignee is q.UserID, earliest
// due date first.
func (s *MatrixService) ListByAssignee(ctx context.Context, q ports.AssignmentQuery) ([]domain.MatrixTask, error) {
	if q.UserID == "" {
		return nil, domain.Validationf("userId is required")
	}
	if !domain.ValidDate(q.DueFrom) || !domain.ValidDate(q.DueTo) {
		return nil, domain.Validationf("due date bounds must be YYYY-MM-DD")
	}
	in := ports.QueryInput{PK: keys.Assignee(q.UserID), Limit: q.Limit}
	if q.DueFrom != "" || q.DueTo != "" {
		in.SKFrom, in.SKTo = keys.DueRange(q.DueFrom, q.DueTo)
	}
	return queryIndexEntities[domain.MatrixTask](ctx, s.store, in)
}

// View composes the whole grid: active stages, unarchived targets, every
// cell of those targets, the project members and the action catalog.
func (s *MatrixService) View(ctx context.Context, projectID string) (*ports.MatrixView, error) {
	project, err := projectExists(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	stages, err := s.stages.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	activeStages := make([]domain.Stage, 0, len(stages))
	for _, st := range stages {
		if st.IsActive {
			activeStages = append(activeStages, st)
		}
	}
	targets, err := s.targets.List(ctx, projectID, false)
	if err != nil {
		return nil, err
	}
	members, err := s.members.List(ctx, projectID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalog.List(ctx, projectID)
	if err != nil {
		return nil, err
	}

	view := &ports.MatrixView{
		Project:       *project,
		Stages:        activeStages,
		Targets:       targets,
		Cells:         []domain.MatrixTask{},
		Members:       members,
		ActionCatalog: catalog,
	}
	for _, t := range targets {
		cells, err := s.ListByTarget(ctx, projectID, t.ID)
		if err != nil {
			return nil, err
		}
		view.Cells = append(view.Cells, cells...)
	}
	return view, nil
}
