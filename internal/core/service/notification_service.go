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

// NotificationService stores notifications in the recipient's partition.
// Ids are time-ordered, so a descending query is newest first.
type NotificationService struct {
	store  ports.Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewNotificationService(store ports.Store, logger zerolog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger, now: systemClock}
}

func (s *NotificationService) Notify(ctx context.Context, in ports.NotifyInput) (*domain.Notification, error) {
	if in.UserID == "" {
		return nil, domain.Validationf("userId is required")
	}
	if !in.Type.Valid() {
		return nil, domain.Validationf("unknown notification type %q", in.Type)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.Validationf("title is required")
	}

	now := s.now()
	n := &domain.Notification{
		ID:        domain.NewIDAt(now),
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		RelatedID: in.RelatedID,
		ActionURL: in.ActionURL,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	item, err := toItem(n, keyAttrs(notificationKey(n.UserID, n.ID), "", ""))
	if err != nil {
		return nil, err
	}
	if err := s.store.PutItem(ctx, item, ports.PutOptions{}); err != nil {
		return nil, err
	}
	logger.FromContext(ctx, s.logger).Debug().Str("user_id", n.UserID).Str("type", string(n.Type)).Msg("notification stored")
	return n, nil
}

// List returns notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID string, filter ports.NotificationFilter) ([]domain.Notification, error) {
	in := ports.QueryInput{PK: keys.User(userID), SKPrefix: keys.PrefixNotification, Descending: true}
	if !filter.UnreadOnly {
		in.Limit = filter.Limit
	}
	all, err := queryEntities[domain.Notification](ctx, s.store, in)
	if err != nil {
		return nil, err
	}
	if !filter.UnreadOnly {
		return all, nil
	}
	out := make([]domain.Notification, 0, len(all))
	for _, n := range all {
		if n.IsRead {
			continue
		}
		out = append(out, n)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	c := newChanges()
	c.put("isRead", true)
	return updateEntity[domain.Notification](ctx, s.store, notificationKey(userID, notificationID), c.input(s.now(), 0), domain.ErrNotificationNotFound)
}

// MarkAllRead marks every unread notification of userID as read and returns
// how many it changed. On error the count still covers the ones already
// marked. Notifications deleted meanwhile are skipped.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := s.List(ctx, userID, ports.NotificationFilter{UnreadOnly: true})
	if err != nil {
		return 0, err
	}
	marked := 0
	for _, n := range unread {
		if _, err := s.MarkRead(ctx, userID, n.ID); err != nil {
			if errors.Is(err, domain.ErrNotificationNotFound) {
				continue
			}
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// Delete removes a notification. Deleting a missing one is not an error.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	return s.store.DeleteItem(ctx, notificationKey(userID, notificationID))
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	unread, err := s.List(ctx, userID, ports.NotificationFilter{UnreadOnly: true})
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

// InlinePublisher delivers notifications synchronously on the caller's
// goroutine. Delivery failures are logged, never returned.
type InlinePublisher struct {
	notifications ports.NotificationService
	logger        zerolog.Logger
}

func NewInlinePublisher(notifications ports.NotificationService, logger zerolog.Logger) *InlinePublisher {
	return &InlinePublisher{notifications: notifications, logger: logger}
}

func (p *InlinePublisher) Publish(ctx context.Context, in ports.NotifyInput) {
	if _, err := p.notifications.Notify(ctx, in); err != nil {
		logger.FromContext(ctx, p.logger).Error().Err(err).Str("user_id", in.UserID).Str("type", string(in.Type)).Msg("notification delivery failed")
	}
}
