// Package app wires configuration, storage, services, background workers and
// the HTTP server into a runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/wolvesgale/ToDo-Appli/internal/api"
	"github.com/wolvesgale/ToDo-Appli/internal/api/middleware"
	"github.com/wolvesgale/ToDo-Appli/internal/core/service"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/config"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/queue"
	"github.com/wolvesgale/ToDo-Appli/internal/infrastructure/scheduler"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	cfg        *config.Config
	log        zerolog.Logger
	storage    *storage
	echo       *echo.Echo
	dispatcher *queue.Dispatcher
	scheduler  *scheduler.Scheduler
	// workerCtx outlives the HTTP server so queued notifications from the
	// last requests are still delivered during shutdown.
	workerCtx    context.Context
	stopWorkers  context.CancelFunc
	reminderNext func() time.Time
}

// New builds the application. ctx bounds startup work and background key
// refresh for JWKS.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	users := service.NewUserService(st.store, log)
	members := service.NewMemberService(st.store, log)
	notifications := service.NewNotificationService(st.store, log)
	dispatcher := queue.NewDispatcher(cfg.Notifications.Workers, notifications, log)

	stages := service.NewStageService(st.store, log)
	targets := service.NewTargetService(st.store, log)
	catalog := service.NewActionCatalogService(st.store, log)
	matrix := service.NewMatrixService(st.store, stages, targets, members, catalog, dispatcher, log)
	svc := api.Services{
		Users:         users,
		Tenants:       service.NewTenantService(st.store, log),
		Projects:      service.NewProjectService(st.store, st.idem, log),
		Members:       members,
		Tasks:         service.NewTaskService(st.store, st.idem, dispatcher, log),
		Stages:        stages,
		Targets:       targets,
		Matrix:        matrix,
		Actions:       catalog,
		Invitations:   service.NewInvitationService(st.store, members, users, dispatcher, cfg.Notifications.InvitationTTL, log),
		Notifications: notifications,
	}

	if cfg.SeedSample {
		if st.backend != config.BackendMemory {
			log.Warn().Str("backend", st.backend).Msg("SEED_SAMPLE_DATA only applies to the memory backend, skipping")
		} else if err := Seed(ctx, svc); err != nil {
			st.close(context.Background(), log)
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	identity, err := newIdentity(ctx, cfg.Auth)
	if err != nil {
		st.close(context.Background(), log)
		return nil, err
	}

	loc := cfg.ReminderLocation()
	sched := scheduler.New(loc, log)
	reminders := service.NewReminderService(users, matrix, dispatcher, cfg.Notifications.ReminderLeadDays, loc, log)
	entry, err := sched.ScheduleReminders(cfg.Notifications.ReminderSchedule, reminders)
	if err != nil {
		st.close(context.Background(), log)
		return nil, err
	}

	e := api.NewRouter(svc, api.RouterConfig{
		Identity:     identity,
		RateLimitRPS: cfg.RateLimitRPS,
		Checks:       st.checks,
		Log:          log,
	})

	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	return &App{
		cfg:          cfg,
		log:          log,
		storage:      st,
		echo:         e,
		dispatcher:   dispatcher,
		scheduler:    sched,
		workerCtx:    workerCtx,
		stopWorkers:  stopWorkers,
		reminderNext: func() time.Time { return sched.Next(entry) },
	}, nil
}

func newIdentity(ctx context.Context, cfg config.AuthConfig) (echo.MiddlewareFunc, error) {
	switch cfg.Mode {
	case config.AuthHS256:
		return middleware.BearerIdentity(middleware.HS256Keyfunc(cfg.JWTSecret), middleware.TokenOptions{
			Issuer:   cfg.Issuer,
			Audience: cfg.ClientID,
		}), nil
	case config.AuthJWKS:
		kf, err := middleware.JWKSKeyfunc(ctx, cfg.JWKSURL)
		if err != nil {
			return nil, err
		}
		return middleware.BearerIdentity(kf, middleware.TokenOptions{Issuer: cfg.Issuer, Audience: cfg.ClientID}), nil
	default:
		return middleware.DevIdentity(cfg.DevUserID), nil
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler { return a.echo }

// Run serves HTTP and runs the background workers until ctx is cancelled,
// then shuts down in order: HTTP server, scheduler, notification queue,
// storage.
func (a *App) Run(ctx context.Context) error {
	a.dispatcher.Start(a.workerCtx)
	a.scheduler.Start()
	a.log.Info().Time("next_reminder_run", a.reminderNext()).Msg("reminder job scheduled")

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + a.cfg.Port
		a.log.Info().Str("addr", addr).Str("env", a.cfg.Env).Msg("http server listening")
		if err := a.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = fmt.Errorf("http server: %w", err)
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("http shutdown")
	}
	a.scheduler.Stop()
	a.stopWorkers()
	a.dispatcher.Wait()
	a.storage.close(shutdownCtx, a.log)

	a.log.Info().Msg("shutdown complete")
	return runErr
}
