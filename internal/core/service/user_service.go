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

type UserService struct {
	store  ports.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewUserService(store ports.Store, logger zerolog.Logger) *UserService {
	return &UserService{store: store, logger: logger, now: systemClock}
}

// Create registers a user. Emails are unique across active and inactive
// users, compared case-insensitively.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.Validationf("a valid email is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	plan := in.Plan
	if plan == "" {
		plan = domain.PlanFree
	}
	if !plan.Valid() {
		return nil, domain.Validationf("unknown subscription plan %q", plan)
	}

	if _, err := s.findByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	id := in.ID
	if id == "" {
		id = domain.NewID()
	}
	now := s.now()
	user := &domain.User{
		ID:           id,
		Email:        email,
		Name:         name,
		IsActive:     true,
		Subscription: domain.Subscription{Plan: plan, Status: domain.SubscriptionActive},
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}

	item, err := toItem(user, keyAttrs(userKey(id), keys.UsersPK, keys.Email(email)))
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrUserExists
		}
		logger.FromContext(ctx, s.logger).Error().Err(err).Str("user_id", id).Msg("failed to create user")
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info().Str("user_id", id).Msg("user created")
	return user, nil
}

// Get returns an active user. Deactivated users are reported as not found.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := getEntity[domain.User](ctx, s.store, userKey(id), domain.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// findByEmail includes inactive users.
func (s *UserService) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	sk := keys.Email(email)
	users, err := queryIndexEntities[domain.User](ctx, s.store, ports.QueryInput{PK: keys.UsersPK, SKFrom: sk, SKTo: sk, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return &users[0], nil
}

// List returns active users ordered by email.
func (s *UserService) List(ctx context.Context, limit int) ([]domain.User, error) {
	return s.filter(ctx, limit, func(domain.User) bool { return true })
}

// SearchByName matches a case-insensitive substring of the name.
func (s *UserService) SearchByName(ctx context.Context, query string, limit int) ([]domain.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.filter(ctx, limit, func(u domain.User) bool {
		return strings.Contains(strings.ToLower(u.Name), q)
	})
}

func (s *UserService) filter(ctx context.Context, limit int, keep func(domain.User) bool) ([]domain.User, error) {
	users, err := queryIndexEntities[domain.User](ctx, s.store, ports.QueryInput{PK: keys.UsersPK, SKPrefix: keys.PrefixEmail})
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if !u.IsActive || !keep(u) {
			continue
		}
		out = append(out, u)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *UserService) Update(ctx context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	c := newChanges()
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.Validationf("name cannot be empty")
		}
		c.put("name", name)
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email == "" || !strings.Contains(email, "@") {
			return nil, domain.Validationf("a valid email is required")
		}
		other, err := s.findByEmail(ctx, email)
		switch {
		case err == nil && other.ID != id:
			return nil, domain.ErrUserExists
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		c.put("email", email)
		c.put(ports.AttrGSI1SK, keys.Email(email))
	}
	if patch.Subscription != nil {
		if !patch.Subscription.Plan.Valid() || !patch.Subscription.Status.Valid() {
			return nil, domain.Validationf("invalid subscription")
		}
		c.put("subscription", patch.Subscription)
	}

	return updateEntity[domain.User](ctx, s.store, userKey(id), c.input(s.now(), patch.ExpectedVersion), domain.ErrUserNotFound)
}

// Deactivate soft-deletes a user. Deactivating twice is not an error.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	u, err := getEntity[domain.User](ctx, s.store, userKey(id), domain.ErrUserNotFound)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return nil
	}
	c := newChanges()
	c.put("isActive", false)
	if _, err := s.store.UpdateItem(ctx, userKey(id), c.input(s.now(), 0)); err != nil {
		return err
	}
	logger.FromContext(ctx, s.logger).Info().Str("user_id", id).Msg("user deactivated")
	return nil
}
