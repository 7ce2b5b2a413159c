package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

// MemberService manages project membership. The owner row is written by
// ProjectService.Create and mirrors Project.OwnerID: it can be neither
// demoted nor removed, and no other member may hold the owner role.
type MemberService struct {
	store  ports.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewMemberService(store ports.Store, logger zerolog.Logger) *MemberService {
	return &MemberService{store: store, logger: logger, now: systemClock}
}

func memberItem(m *domain.ProjectMember) (ports.Item, error) {
	return toItem(m, keyAttrs(memberKey(m.ProjectID, m.UserID), keys.User(m.UserID), keys.MemberOf(m.ProjectID)))
}

func (s *MemberService) Add(ctx context.Context, in ports.AddMemberInput) (*domain.ProjectMember, error) {
	if in.UserID == "" {
		return nil, domain.Validationf("userId is required")
	}
	if in.Role == "" {
		in.Role = domain.RoleMember
	}
	if !in.Role.Valid() {
		return nil, domain.Validationf("unknown role %q", in.Role)
	}
	if in.Role == domain.RoleOwner {
		return nil, domain.ErrOwnerImmutable
	}
	project, err := projectExists(ctx, s.store, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID == in.UserID {
		return nil, domain.ErrMemberExists
	}

	now := s.now()
	m := &domain.ProjectMember{
		ProjectID: in.ProjectID,
		UserID:    in.UserID,
		Role:      in.Role,
		Status:    domain.MemberActive,
		InvitedBy: in.InvitedBy,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	item, err := memberItem(m)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrMemberExists
		}
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info().Str("project_id", in.ProjectID).Str("user_id", in.UserID).Str("role", string(in.Role)).Msg("member added")
	return m, nil
}

func (s *MemberService) Get(ctx context.Context, projectID, userID string) (*domain.ProjectMember, error) {
	return getEntity[domain.ProjectMember](ctx, s.store, memberKey(projectID, userID), domain.ErrMemberNotFound)
}

func (s *MemberService) List(ctx context.Context, projectID string) ([]domain.ProjectMember, error) {
	return queryEntities[domain.ProjectMember](ctx, s.store, ports.QueryInput{PK: keys.Project(projectID), SKPrefix: keys.PrefixMember})
}

// ListByUser returns every membership of userID across projects.
func (s *MemberService) ListByUser(ctx context.Context, userID string) ([]domain.ProjectMember, error) {
	return queryIndexEntities[domain.ProjectMember](ctx, s.store, ports.QueryInput{PK: keys.User(userID), SKPrefix: keys.PrefixMember})
}

func (s *MemberService) UpdateRole(ctx context.Context, projectID, userID string, role domain.Role, expectedVersion int64) (*domain.ProjectMember, error) {
	if !role.Valid() {
		return nil, domain.Validationf("unknown role %q", role)
	}
	if role == domain.RoleOwner {
		return nil, domain.ErrOwnerImmutable
	}
	project, err := projectExists(ctx, s.store, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID == userID {
		return nil, domain.ErrOwnerImmutable
	}

	c := newChanges()
	c.put("role", role)
	return updateEntity[domain.ProjectMember](ctx, s.store, memberKey(projectID, userID), c.input(s.now(), expectedVersion), domain.ErrMemberNotFound)
}

// Remove deletes a membership. Removing a non-member is not an error.
func (s *MemberService) Remove(ctx context.Context, projectID, userID string) error {
	project, err := projectExists(ctx, s.store, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID == userID {
		return domain.ErrOwnerImmutable
	}
	if err := s.store.DeleteItem(ctx, memberKey(projectID, userID)); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info().Str("project_id", projectID).Str("user_id", userID).Msg("member removed")
	return nil
}
