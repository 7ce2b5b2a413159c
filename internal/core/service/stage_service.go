package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

type StageService struct {
	store  ports.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewStageService(store ports.Store, logger zerolog.Logger) *StageService {
	return &StageService{store: store, logger: logger, now: systemClock}
}

// Create appends a stage. Without an explicit order it is placed after the
// existing stages.
func (s *StageService) Create(ctx context.Context, in ports.CreateStageInput) (*domain.Stage, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	if _, err := projectExists(ctx, s.store, in.ProjectID); err != nil {
		return nil, err
	}

	order := 0
	if in.Order != nil {
		order = *in.Order
	} else {
		existing, err := s.List(ctx, in.ProjectID)
		if err != nil {
			return nil, err
		}
		order = len(existing)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	now := s.now()
	stage := &domain.Stage{
		ID:          domain.NewID(),
		ProjectID:   in.ProjectID,
		Name:        name,
		Description: in.Description,
		Color:       in.Color,
		Order:       order,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	item, err := toItem(stage, keyAttrs(stageKey(in.ProjectID, stage.ID), "", ""))
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *StageService) Get(ctx context.Context, projectID, stageID string) (*domain.Stage, error) {
	return getEntity[domain.Stage](ctx, s.store, stageKey(projectID, stageID), domain.ErrStageNotFound)
}

// List returns stages by order, then by creation time. Equal orders are
// kept, never collapsed.
func (s *StageService) List(ctx context.Context, projectID string) ([]domain.Stage, error) {
	stages, err := queryEntities[domain.Stage](ctx, s.store, ports.QueryInput{PK: keys.Project(projectID), SKPrefix: keys.PrefixStage})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(stages, func(i, j int) bool {
		if stages[i].Order != stages[j].Order {
			return stages[i].Order < stages[j].Order
		}
		return stages[i].CreatedAt.Before(stages[j].CreatedAt)
	})
	return stages, nil
}

func (s *StageService) Update(ctx context.Context, projectID, stageID string, patch ports.StagePatch) (*domain.Stage, error) {
	c := newChanges()
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.Validationf("name cannot be empty")
		}
		c.put("name", name)
	}
	if patch.Description != nil {
		c.put("description", *patch.Description)
	}
	if patch.Color != nil {
		c.put("color", *patch.Color)
	}
	if patch.Order != nil {
		c.put("order", *patch.Order)
	}
	if patch.IsActive != nil {
		c.put("isActive", *patch.IsActive)
	}
	return updateEntity[domain.Stage](ctx, s.store, stageKey(projectID, stageID), c.input(s.now(), patch.ExpectedVersion), domain.ErrStageNotFound)
}

// Delete removes the stage and its cell in every target row.
func (s *StageService) Delete(ctx context.Context, projectID, stageID string) error {
	targets, err := s.store.Query(ctx, ports.QueryInput{PK: keys.Project(projectID), SKPrefix: keys.PrefixTarget})
	if err != nil {
		return err
	}
	for _, t := range targets {
		if err := s.store.DeleteItem(ctx, cellKey(projectID, t.String(ports.AttrID), stageID)); err != nil {
			return err
		}
	}
	if err := s.store.DeleteItem(ctx, stageKey(projectID, stageID)); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info().Str("project_id", projectID).Str("stage_id", stageID).Msg("stage deleted")
	return nil
}
