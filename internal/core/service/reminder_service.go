package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

// ReminderService sends due_date_reminder notifications for matrix cells
// that are assigned, not completed and due within the lead window. Overdue
// cells are included. A cell is found once, through the index entry of its
// first assignee, and every assignee is reminded.
type ReminderService struct {
	users     ports.UserService
	matrix    ports.MatrixService
	publisher ports.NotificationPublisher
	leadDays  int
	loc       *time.Location
	logger    zerolog.Logger
}

func NewReminderService(users ports.UserService, matrix ports.MatrixService, publisher ports.NotificationPublisher, leadDays int, loc *time.Location, logger zerolog.Logger) *ReminderService {
	if leadDays < 0 {
		leadDays = 0
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{
		users:     users,
		matrix:    matrix,
		publisher: publisher,
		leadDays:  leadDays,
		loc:       loc,
		logger:    logger,
	}
}

func (s *ReminderService) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	until := now.In(s.loc).AddDate(0, 0, s.leadDays).Format(domain.DateLayout)

	users, err := s.users.List(ctx, 0)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		cells, err := s.matrix.ListByAssignee(ctx, ports.AssignmentQuery{UserID: u.ID, DueTo: until})
		if err != nil {
			logger.FromContext(ctx, s.logger).Error().Err(err).Str("user_id", u.ID).Msg("failed to list assignments")
			continue
		}
		for _, c := range cells {
			if c.Status == domain.CellCompleted {
				continue
			}
			for _, assignee := range reminderRecipients(u.ID, c.Assignees) {
				publish(ctx, s.publisher, ports.NotifyInput{
					UserID:    assignee,
					Type:      domain.NotifyDueDateReminder,
					Title:     "Task due " + c.DueDate,
					Message:   "A matrix task assigned to you is due on " + c.DueDate,
					RelatedID: c.ID,
					ActionURL: "/projects/" + c.ProjectID + "/matrix",
				})
				sent++
			}
		}
	}

	logger.FromContext(ctx, s.logger).Info().Int("reminders", sent).Str("due_until", until).Msg("due-date reminders sent")
	return sent, nil
}

// reminderRecipients returns indexed followed by the other assignees, without
// duplicates or blanks.
func reminderRecipients(indexed string, assignees []string) []string {
	out := []string{indexed}
	seen := map[string]bool{indexed: true}
	for _, a := range assignees {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
