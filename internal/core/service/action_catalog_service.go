package service

import (
	"cmp"
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

// ActionCatalogService manages a project's action catalog. Each action is an
// ACTION#{key} row of the project partition; the key is what matrix cells
// store in actionKey.
type ActionCatalogService struct {
	store  ports.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewActionCatalogService(store ports.Store, logger zerolog.Logger) *ActionCatalogService {
	return &ActionCatalogService{store: store, logger: logger, now: systemClock}
}

func (s *ActionCatalogService) Create(ctx context.Context, in ports.CreateActionInput) (*domain.ActionItem, error) {
	key := strings.TrimSpace(in.Key)
	if !domain.ValidActionKey(key) {
		return nil, domain.Validationf("key must be a lowercase slug (a-z, 0-9, '-', '_')")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	if _, err := projectExists(ctx, s.store, in.ProjectID); err != nil {
		return nil, err
	}

	now := s.now()
	action := &domain.ActionItem{
		Key:         key,
		ProjectID:   in.ProjectID,
		Name:        name,
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		IsDefault:   in.IsDefault,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	item, err := toItem(action, keyAttrs(actionKey(in.ProjectID, key), "", ""))
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrActionExists
		}
		return nil, err
	}
	logger.FromContext(ctx, s.logger).Info().Str("project_id", in.ProjectID).Str("action_key", key).Msg("catalog action created")
	return action, nil
}

func (s *ActionCatalogService) Get(ctx context.Context, projectID, key string) (*domain.ActionItem, error) {
	return getEntity[domain.ActionItem](ctx, s.store, actionKey(projectID, key), domain.ErrActionNotFound)
}

// List returns the catalog with default actions first, then by category and
// name.
func (s *ActionCatalogService) List(ctx context.Context, projectID string) ([]domain.ActionItem, error) {
	actions, err := queryEntities[domain.ActionItem](ctx, s.store, ports.QueryInput{PK: keys.Project(projectID), SKPrefix: keys.PrefixAction})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(actions, func(a, b domain.ActionItem) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return actions, nil
}

func (s *ActionCatalogService) Update(ctx context.Context, projectID, key string, patch ports.ActionPatch) (*domain.ActionItem, error) {
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
	if patch.Category != nil {
		c.put("category", strings.TrimSpace(*patch.Category))
	}
	if patch.IsDefault != nil {
		c.put("isDefault", *patch.IsDefault)
	}
	return updateEntity[domain.ActionItem](ctx, s.store, actionKey(projectID, key), c.input(s.now(), patch.ExpectedVersion), domain.ErrActionNotFound)
}

// Delete removes an action no matrix cell refers to.
func (s *ActionCatalogService) Delete(ctx context.Context, projectID, key string) error {
	if _, err := s.Get(ctx, projectID, key); err != nil {
		return err
	}
	inUse, err := s.referenced(ctx, projectID, key)
	if err != nil {
		return err
	}
	if inUse {
		return domain.ErrActionInUse
	}
	if err := s.store.DeleteItem(ctx, actionKey(projectID, key)); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info().Str("project_id", projectID).Str("action_key", key).Msg("catalog action deleted")
	return nil
}

// referenced scans the cells of every target, archived ones included.
func (s *ActionCatalogService) referenced(ctx context.Context, projectID, key string) (bool, error) {
	targets, err := queryEntities[domain.Target](ctx, s.store, ports.QueryInput{PK: keys.Project(projectID), SKPrefix: keys.PrefixTarget})
	if err != nil {
		return false, err
	}
	for _, t := range targets {
		cells, err := queryEntities[domain.MatrixTask](ctx, s.store, ports.QueryInput{PK: keys.Cell(projectID, t.ID), SKPrefix: keys.PrefixTask})
		if err != nil {
			return false, err
		}
		for _, c := range cells {
			if c.ActionKey == key {
				return true, nil
			}
		}
	}
	return false, nil
}
