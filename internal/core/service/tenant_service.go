package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

// TenantService manages tenants. A tenant's partition holds its metadata,
// one MEMBER# row per user and one PROJECT# link row per project filed
// under it. Membership rows are indexed under the user so "my tenants" is a
// single index query.
type TenantService struct {
	store  ports.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewTenantService(store ports.Store, logger zerolog.Logger) *TenantService {
	return &TenantService{store: store, logger: logger, now: systemClock}
}

func tenantMemberItem(m *domain.TenantMembership) (ports.Item, error) {
	return toItem(m, keyAttrs(tenantMemberKey(m.TenantID, m.UserID), keys.User(m.UserID), keys.Tenant(m.TenantID)))
}

// tenantLink is the row filing a project under a tenant.
type tenantLink struct {
	TenantID  string `json:"tenantId"`
	ProjectID string `json:"projectId"`
}

func tenantLinkItem(tenantID, projectID string) (ports.Item, error) {
	return toItem(tenantLink{TenantID: tenantID, ProjectID: projectID}, keyAttrs(tenantProjectKey(tenantID, projectID), "", ""))
}

// Create writes the tenant and the owner's membership.
func (s *TenantService) Create(ctx context.Context, in ports.CreateTenantInput) (*domain.Tenant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	if in.OwnerID == "" {
		return nil, domain.Validationf("ownerId is required")
	}

	now := s.now()
	tenant := &domain.Tenant{
		ID:        domain.NewID(),
		Name:      name,
		OwnerID:   in.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	item, err := toItem(tenant, keyAttrs(tenantKey(tenant.ID), "", ""))
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		return nil, err
	}

	owner := &domain.TenantMembership{
		TenantID:  tenant.ID,
		UserID:    in.OwnerID,
		Role:      domain.TenantOwner,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	ownerItem, err := tenantMemberItem(owner)
	if err == nil {
		err = s.store.PutItem(ctx, ownerItem, ports.PutOptions{IfNotExists: true})
	}
	if err != nil {
		logger.FromContext(ctx, s.logger).Error().Err(err).Str("tenant_id", tenant.ID).Msg("failed to write tenant owner, rolling back tenant")
		if derr := s.store.DeleteItem(ctx, tenantKey(tenant.ID)); derr != nil {
			logger.FromContext(ctx, s.logger).Error().Err(derr).Str("tenant_id", tenant.ID).Msg("rollback failed")
		}
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info().Str("tenant_id", tenant.ID).Str("owner_id", in.OwnerID).Msg("tenant created")
	return tenant, nil
}

func (s *TenantService) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	if id == "" {
		return nil, domain.Validationf("tenantId is required")
	}
	return getEntity[domain.Tenant](ctx, s.store, tenantKey(id), domain.ErrTenantNotFound)
}

// ListByUser returns the tenants userID belongs to. Memberships of deleted
// tenants are skipped.
func (s *TenantService) ListByUser(ctx context.Context, userID string) ([]domain.Tenant, error) {
	memberships, err := queryIndexEntities[domain.TenantMembership](ctx, s.store, ports.QueryInput{PK: keys.User(userID), SKPrefix: keys.PrefixTenant})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Tenant, 0, len(memberships))
	for _, m := range memberships {
		t, err := s.Get(ctx, m.TenantID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func (s *TenantService) Update(ctx context.Context, id string, patch ports.TenantPatch) (*domain.Tenant, error) {
	c := newChanges()
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.Validationf("name cannot be empty")
		}
		c.put("name", name)
	}
	return updateEntity[domain.Tenant](ctx, s.store, tenantKey(id), c.input(s.now(), patch.ExpectedVersion), domain.ErrTenantNotFound)
}

// Delete removes an empty tenant and its memberships. Projects must be
// deleted first.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	links, err := s.store.Query(ctx, ports.QueryInput{PK: keys.Tenant(id), SKPrefix: keys.PrefixProject, Limit: 1})
	if err != nil {
		return err
	}
	if len(links) > 0 {
		return domain.ErrTenantNotEmpty
	}
	n, err := deletePartition(ctx, s.store, keys.Tenant(id), keys.PrefixMember)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, tenantKey(id)); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info().Str("tenant_id", id).Int("members_removed", n).Msg("tenant deleted")
	return nil
}

func (s *TenantService) AddMember(ctx context.Context, in ports.AddTenantMemberInput) (*domain.TenantMembership, error) {
	if in.UserID == "" {
		return nil, domain.Validationf("userId is required")
	}
	if in.Role == "" {
		in.Role = domain.TenantMember
	}
	if !in.Role.Valid() {
		return nil, domain.Validationf("unknown tenant role %q", in.Role)
	}
	if in.Role == domain.TenantOwner {
		return nil, domain.Validationf("the tenant owner is fixed at creation")
	}
	if _, err := s.Get(ctx, in.TenantID); err != nil {
		return nil, err
	}

	now := s.now()
	m := &domain.TenantMembership{
		TenantID:  in.TenantID,
		UserID:    in.UserID,
		Role:      in.Role,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	item, err := tenantMemberItem(m)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrMemberExists
		}
		return nil, err
	}
	logger.FromContext(ctx, s.logger).Info().Str("tenant_id", in.TenantID).Str("user_id", in.UserID).Str("role", string(in.Role)).Msg("tenant member added")
	return m, nil
}

func (s *TenantService) GetMember(ctx context.Context, tenantID, userID string) (*domain.TenantMembership, error) {
	return getEntity[domain.TenantMembership](ctx, s.store, tenantMemberKey(tenantID, userID), domain.ErrTenantMemberNotFound)
}

func (s *TenantService) ListMembers(ctx context.Context, tenantID string) ([]domain.TenantMembership, error) {
	return queryEntities[domain.TenantMembership](ctx, s.store, ports.QueryInput{PK: keys.Tenant(tenantID), SKPrefix: keys.PrefixMember})
}

// RemoveMember deletes a membership. The owner cannot be removed; removing a
// non-member is not an error.
func (s *TenantService) RemoveMember(ctx context.Context, tenantID, userID string) error {
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant.OwnerID == userID {
		return domain.Validationf("the tenant owner cannot be removed")
	}
	return s.store.DeleteItem(ctx, tenantMemberKey(tenantID, userID))
}

// ListProjects returns the projects filed under tenantID. Links to deleted
// projects are skipped.
func (s *TenantService) ListProjects(ctx context.Context, tenantID string) ([]domain.Project, error) {
	if _, err := s.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	links, err := queryEntities[tenantLink](ctx, s.store, ports.QueryInput{PK: keys.Tenant(tenantID), SKPrefix: keys.PrefixProject})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(links))
	for _, l := range links {
		p, err := getEntity[domain.Project](ctx, s.store, projectKey(l.ProjectID), domain.ErrProjectNotFound)
		if errors.Is(err, domain.ErrNotFound) {
			logger.FromContext(ctx, s.logger).Warn().Str("tenant_id", tenantID).Str("project_id", l.ProjectID).Msg("tenant link references missing project")
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
