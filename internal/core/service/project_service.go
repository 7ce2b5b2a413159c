package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

type ProjectService struct {
	store  ports.Store
	idem   ports.IdempotencyStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewProjectService(store ports.Store, idem ports.IdempotencyStore, logger zerolog.Logger) *ProjectService {
	return &ProjectService{store: store, idem: idem, logger: logger, now: systemClock}
}

// Create writes the project and its owner membership row. If an idempotency
// key is provided and already seen, the project created by the first request
// is returned without side effects.
func (s *ProjectService) Create(ctx context.Context, in ports.CreateProjectInput) (*domain.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	if in.OwnerID == "" {
		return nil, domain.Validationf("ownerId is required")
	}
	if in.TenantID != "" {
		if err := s.checkTenant(ctx, in.TenantID, in.OwnerID); err != nil {
			return nil, err
		}
	}

	idemKey := ""
	if in.IdempotencyKey != "" && s.idem != nil {
		idemKey = "project:" + in.OwnerID + ":" + in.IdempotencyKey
	}
	id, replay, err := claimIdempotency(ctx, s.idem, idemKey, domain.NewID())
	if err != nil {
		return nil, err
	}
	if replay {
		existing, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrIdempotencyBusy
		}
		if err == nil {
			logger.FromContext(ctx, s.logger).Info().Str("idempotency_key", in.IdempotencyKey).Str("project_id", id).Msg("idempotent replay")
		}
		return existing, err
	}

	project, err := s.create(ctx, id, name, in)
	if err != nil && idemKey != "" {
		_ = s.idem.Release(ctx, idemKey)
	}
	return project, err
}

// checkTenant requires the tenant to exist and the owner to belong to it.
func (s *ProjectService) checkTenant(ctx context.Context, tenantID, ownerID string) error {
	if _, err := getEntity[domain.Tenant](ctx, s.store, tenantKey(tenantID), domain.ErrTenantNotFound); err != nil {
		return err
	}
	_, err := getEntity[domain.TenantMembership](ctx, s.store, tenantMemberKey(tenantID, ownerID), domain.ErrTenantMemberNotFound)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: owner is not a member of tenant %s", domain.ErrForbidden, tenantID)
	}
	return err
}

func (s *ProjectService) create(ctx context.Context, id, name string, in ports.CreateProjectInput) (*domain.Project, error) {
	now := s.now()
	project := &domain.Project{
		ID:          id,
		Name:        name,
		Description: in.Description,
		OwnerID:     in.OwnerID,
		TenantID:    in.TenantID,
		Status:      domain.ProjectActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if in.Settings != nil {
		project.Settings = *in.Settings
	}

	item, err := toItem(project, keyAttrs(projectKey(id), keys.User(in.OwnerID), keys.Project(id)))
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		logger.FromContext(ctx, s.logger).Error().Err(err).Str("project_id", id).Msg("failed to create project")
		return nil, err
	}

	owner := &domain.ProjectMember{
		ProjectID: id,
		UserID:    in.OwnerID,
		Role:      domain.RoleOwner,
		Status:    domain.MemberActive,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	ownerItem, err := memberItem(owner)
	if err == nil {
		err = s.store.PutItem(ctx, ownerItem, ports.PutOptions{IfNotExists: true})
	}
	if err != nil {
		logger.FromContext(ctx, s.logger).Error().Err(err).Str("project_id", id).Msg("failed to write owner membership, rolling back project")
		s.rollback(ctx, id, projectKey(id))
		return nil, err
	}

	if in.TenantID != "" {
		link, err := tenantLinkItem(in.TenantID, id)
		if err == nil {
			err = s.store.PutItem(ctx, link, ports.PutOptions{})
		}
		if err != nil {
			logger.FromContext(ctx, s.logger).Error().Err(err).Str("project_id", id).Str("tenant_id", in.TenantID).Msg("failed to file project under tenant, rolling back project")
			s.rollback(ctx, id, memberKey(id, in.OwnerID), projectKey(id))
			return nil, err
		}
	}

	logger.FromContext(ctx, s.logger).Info().Str("project_id", id).Str("owner_id", in.OwnerID).Msg("project created")
	return project, nil
}

func (s *ProjectService) rollback(ctx context.Context, projectID string, ks ...ports.Key) {
	for _, k := range ks {
		if err := s.store.DeleteItem(ctx, k); err != nil {
			logger.FromContext(ctx, s.logger).Error().Err(err).Str("project_id", projectID).Str("sk", k.SK).Msg("rollback failed")
		}
	}
}

func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return getEntity[domain.Project](ctx, s.store, projectKey(id), domain.ErrProjectNotFound)
}

// ListByUser returns every project userID is a member of, owner included.
// Memberships pointing at deleted projects are skipped.
func (s *ProjectService) ListByUser(ctx context.Context, userID string) ([]domain.Project, error) {
	memberships, err := s.store.QueryIndex(ctx, ports.IndexGSI1, ports.QueryInput{PK: keys.User(userID), SKPrefix: keys.PrefixMember})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(memberships))
	for _, m := range memberships {
		projectID := m.String(ports.AttrProjectID)
		p, err := s.Get(ctx, projectID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.FromContext(ctx, s.logger).Warn().Str("project_id", projectID).Str("user_id", userID).Msg("membership references missing project")
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// ListOwned returns the projects whose owner is userID.
func (s *ProjectService) ListOwned(ctx context.Context, userID string) ([]domain.Project, error) {
	return queryIndexEntities[domain.Project](ctx, s.store, ports.QueryInput{PK: keys.User(userID), SKPrefix: keys.PrefixProject})
}

func (s *ProjectService) Update(ctx context.Context, id string, patch ports.ProjectPatch) (*domain.Project, error) {
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
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, domain.Validationf("unknown project status %q", *patch.Status)
		}
		c.put("status", *patch.Status)
	}
	if patch.Settings != nil {
		c.put("settings", patch.Settings)
	}
	return updateEntity[domain.Project](ctx, s.store, projectKey(id), c.input(s.now(), patch.ExpectedVersion), domain.ErrProjectNotFound)
}

// Delete removes the project with every child item: members, tasks, stages,
// targets, invitations, catalog actions and the matrix cells of each target.
// The tenant link and then the metadata row go last so an interrupted delete
// can be retried.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	pk := keys.Project(id)
	children, err := s.store.Query(ctx, ports.QueryInput{PK: pk})
	if err != nil {
		return err
	}

	removed := 0
	tenantID := ""
	for _, child := range children {
		sk := child.String(ports.AttrSK)
		if sk == keys.MetadataSK {
			tenantID = child.String(ports.AttrTenantID)
			continue
		}
		if targetID, ok := strings.CutPrefix(sk, keys.PrefixTarget); ok {
			n, err := deletePartition(ctx, s.store, keys.Cell(id, targetID), "")
			if err != nil {
				return err
			}
			removed += n
		}
		if err := s.store.DeleteItem(ctx, child.Key()); err != nil {
			return err
		}
		removed++
	}
	if tenantID != "" {
		if err := s.store.DeleteItem(ctx, tenantProjectKey(tenantID, id)); err != nil {
			return err
		}
	}
	if err := s.store.DeleteItem(ctx, projectKey(id)); err != nil {
		return err
	}

	logger.FromContext(ctx, s.logger).Info().Str("project_id", id).Int("children_removed", removed).Msg("project deleted")
	return nil
}
