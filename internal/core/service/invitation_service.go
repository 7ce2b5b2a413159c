package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

const defaultInvitationTTL = 7 * 24 * time.Hour

// InvitationService issues project invitations and turns accepted ones into
// memberships. Pending invitations past their expiry are reported, and on
// first touch persisted, as expired.
type InvitationService struct {
	store     ports.Store
	members   ports.MemberService
	users     ports.UserService
	publisher ports.NotificationPublisher
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewInvitationService(store ports.Store, members ports.MemberService, users ports.UserService, publisher ports.NotificationPublisher, ttl time.Duration, logger zerolog.Logger) *InvitationService {
	if ttl <= 0 {
		ttl = defaultInvitationTTL
	}
	return &InvitationService{
		store:     store,
		members:   members,
		users:     users,
		publisher: publisher,
		ttl:       ttl,
		logger:    logger,
		now:       systemClock,
	}
}

func (s *InvitationService) Create(ctx context.Context, in ports.CreateInvitationInput) (*domain.Invitation, string, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", domain.Validationf("a valid email is required")
	}
	if in.Role == "" {
		in.Role = domain.RoleMember
	}
	if !in.Role.Valid() {
		return nil, "", domain.Validationf("unknown role %q", in.Role)
	}
	if in.Role == domain.RoleOwner {
		return nil, "", domain.ErrOwnerImmutable
	}
	project, err := projectExists(ctx, s.store, in.ProjectID)
	if err != nil {
		return nil, "", err
	}

	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	inv := &domain.Invitation{
		ID:            domain.NewID(),
		ProjectID:     in.ProjectID,
		InviterUserID: in.InviterID,
		InviteeEmail:  email,
		Role:          in.Role,
		Status:        domain.InvitationPending,
		TokenHash:     string(hash),
		ExpiresAt:     now.Add(s.ttl),
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	item, err := toItem(inv, keyAttrs(invitationKey(inv.ProjectID, inv.ID), keys.Invitee(email), keys.Invitation(inv.ID)))
	if err != nil {
		return nil, "", err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{IfNotExists: true}); err != nil {
		return nil, "", err
	}

	logger.FromContext(ctx, s.logger).Info().Str("project_id", inv.ProjectID).Str("invitation_id", inv.ID).Msg("invitation created")

	if s.users != nil {
		if invitee, err := s.users.GetByEmail(ctx, email); err == nil {
			publish(ctx, s.publisher, ports.NotifyInput{
				UserID:    invitee.ID,
				Type:      domain.NotifyProjectInvited,
				Title:     "Project invitation",
				Message:   "You were invited to " + project.Name,
				RelatedID: inv.ID,
				ActionURL: "/invitations",
			})
		}
	}
	return redact(inv, now), token, nil
}

// redact hides the token hash and reports the effective status.
func redact(inv *domain.Invitation, now time.Time) *domain.Invitation {
	out := *inv
	out.TokenHash = ""
	out.Status = inv.EffectiveStatus(now)
	return &out
}

func (s *InvitationService) load(ctx context.Context, projectID, invitationID string) (*domain.Invitation, error) {
	inv, err := getEntity[domain.Invitation](ctx, s.store, invitationKey(projectID, invitationID), domain.ErrInvitationNotFound)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if inv.Status == domain.InvitationPending && inv.EffectiveStatus(now) == domain.InvitationExpired {
		c := newChanges()
		c.put("status", domain.InvitationExpired)
		if expired, err := updateEntity[domain.Invitation](ctx, s.store, invitationKey(projectID, invitationID), c.input(now, inv.Version), domain.ErrInvitationNotFound); err == nil {
			return expired, nil
		}
		inv.Status = domain.InvitationExpired
	}
	return inv, nil
}

func (s *InvitationService) Get(ctx context.Context, projectID, invitationID string) (*domain.Invitation, error) {
	inv, err := s.load(ctx, projectID, invitationID)
	if err != nil {
		return nil, err
	}
	return redact(inv, s.now()), nil
}

func (s *InvitationService) List(ctx context.Context, projectID string) ([]domain.Invitation, error) {
	invs, err := queryEntities[domain.Invitation](ctx, s.store, ports.QueryInput{PK: keys.Project(projectID), SKPrefix: keys.PrefixInvitation})
	if err != nil {
		return nil, err
	}
	return s.redactAll(invs), nil
}

// ListForEmail returns every invitation ever sent to email.
func (s *InvitationService) ListForEmail(ctx context.Context, email string) ([]domain.Invitation, error) {
	invs, err := queryIndexEntities[domain.Invitation](ctx, s.store, ports.QueryInput{PK: keys.Invitee(email), SKPrefix: keys.PrefixInvitation})
	if err != nil {
		return nil, err
	}
	return s.redactAll(invs), nil
}

func (s *InvitationService) redactAll(invs []domain.Invitation) []domain.Invitation {
	now := s.now()
	for i := range invs {
		invs[i] = *redact(&invs[i], now)
	}
	return invs
}

// respond moves a pending invitation to status after checking the token. The
// version guard makes concurrent responses to one invitation mutually
// exclusive.
func (s *InvitationService) respond(ctx context.Context, projectID, invitationID, token string, status domain.InvitationStatus) (*domain.Invitation, error) {
	inv, err := s.load(ctx, projectID, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvitationPending {
		return nil, domain.ErrInvitationGone
	}
	if bcrypt.CompareHashAndPassword([]byte(inv.TokenHash), []byte(token)) != nil {
		return nil, domain.ErrInvalidToken
	}

	now := s.now()
	c := newChanges()
	c.put("status", status)
	c.put("respondedAt", stamp(now))
	updated, err := updateEntity[domain.Invitation](ctx, s.store, invitationKey(projectID, invitationID), c.input(now, inv.Version), domain.ErrInvitationNotFound)
	if errors.Is(err, domain.ErrConflict) {
		return nil, domain.ErrInvitationGone
	}
	return updated, err
}

// Accept consumes the invitation and adds userID to the project with the
// invited role. Accepting when already a member returns the existing row.
func (s *InvitationService) Accept(ctx context.Context, projectID, invitationID, token, userID string) (*domain.ProjectMember, error) {
	if userID == "" {
		return nil, domain.Validationf("userId is required")
	}
	inv, err := s.respond(ctx, projectID, invitationID, token, domain.InvitationAccepted)
	if err != nil {
		return nil, err
	}

	member, err := s.members.Add(ctx, ports.AddMemberInput{
		ProjectID: projectID,
		UserID:    userID,
		Role:      inv.Role,
		InvitedBy: inv.InviterUserID,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return s.members.Get(ctx, projectID, userID)
	}
	if err != nil {
		c := newChanges()
		c.put("status", domain.InvitationPending)
		c.drop("respondedAt")
		if _, rerr := s.store.UpdateItem(ctx, invitationKey(projectID, invitationID), c.input(s.now(), inv.Version)); rerr != nil {
			logger.FromContext(ctx, s.logger).Error().Err(rerr).Str("invitation_id", invitationID).Msg("failed to reopen invitation")
		}
		return nil, err
	}

	logger.FromContext(ctx, s.logger).Info().Str("project_id", projectID).Str("invitation_id", invitationID).Str("user_id", userID).Msg("invitation accepted")
	return member, nil
}

func (s *InvitationService) Decline(ctx context.Context, projectID, invitationID, token string) (*domain.Invitation, error) {
	inv, err := s.respond(ctx, projectID, invitationID, token, domain.InvitationDeclined)
	if err != nil {
		return nil, err
	}
	return redact(inv, s.now()), nil
}

// Revoke deletes an invitation regardless of its status.
func (s *InvitationService) Revoke(ctx context.Context, projectID, invitationID string) error {
	return s.store.DeleteItem(ctx, invitationKey(projectID, invitationID))
}
