// Package scheduler runs the periodic background jobs of the service.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
	"github.com/wolvesgale/ToDo-Appli/pkg/logger"
)

const defaultRunTimeout = 5 * time.Minute

// Scheduler wraps a cron runner whose schedules include a seconds field and are
// evaluated in one time zone.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func New(loc *time.Location, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log: logger.Component(log, "scheduler"),
	}
}

// ScheduleReminders registers the due-date reminder job under schedule, e.g.
// "0 0 9 * * *" for 09:00 every day.
func (s *Scheduler) ScheduleReminders(schedule string, reminders ports.ReminderService) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(schedule, func() { s.runReminders(context.Background(), reminders, time.Now()) })
	if err != nil {
		return 0, fmt.Errorf("schedule reminders %q: %w", schedule, err)
	}
	return id, nil
}

func (s *Scheduler) runReminders(ctx context.Context, reminders ports.ReminderService, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	sent, err := reminders.SendDueReminders(ctx, now)
	metrics.RemindersSentTotal.Add(float64(sent))
	if err != nil {
		metrics.ReminderRunsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Int("sent", sent).Msg("reminder run failed")
		return
	}
	metrics.ReminderRunsTotal.WithLabelValues("ok").Inc()
}

// Next reports when the entry runs next; zero when unknown.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
