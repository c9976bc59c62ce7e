// Package scheduler triggers the daily question cycle for every active
// user at the configured local time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/devprep/interview-bot/internal/domain"
	"github.com/devprep/interview-bot/internal/service/delivery"
	"github.com/devprep/interview-bot/internal/store"
)

// perUserTimeout bounds one user's delivery so a wedged send cannot stall
// the whole daily run.
const perUserTimeout = 30 * time.Second

// Scheduler runs the daily delivery job on a cron timetable.
type Scheduler struct {
	cron     *cron.Cron
	users    store.UserStore
	delivery *delivery.Service
	logger   *slog.Logger
}

// New creates a scheduler firing daily at hour:minute in the given
// timezone.
func New(
	users store.UserStore,
	deliverySvc *delivery.Service,
	hour, minute int,
	timezone string,
	log *slog.Logger,
) (*Scheduler, error) {
	if users == nil {
		return nil, fmt.Errorf("user store cannot be nil")
	}
	if deliverySvc == nil {
		return nil, fmt.Errorf("delivery service cannot be nil")
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid daily time %d:%d", hour, minute)
	}
	if log == nil {
		log = slog.Default()
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		users:    users,
		delivery: deliverySvc,
		logger:   log.With(slog.String("component", "scheduler")),
	}

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := s.cron.AddFunc(spec, s.RunDaily); err != nil {
		return nil, fmt.Errorf("failed to schedule daily job: %w", err)
	}

	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunDaily delivers a fresh cycle to every active user. Each user is
// isolated: one failure is logged and the run moves on.
func (s *Scheduler) RunDaily() {
	ctx := context.Background()

	users, err := s.users.ListActive(ctx)
	if err != nil {
		s.logger.Error("daily run failed to list active users",
			slog.String("error", err.Error()))
		return
	}

	s.logger.Info("daily run started", slog.Int("user_count", len(users)))

	delivered := 0
	for i := range users {
		if s.deliverTo(ctx, &users[i]) {
			delivered++
		}
	}

	s.logger.Info("daily run finished",
		slog.Int("user_count", len(users)),
		slog.Int("delivered", delivered))
}

// deliverTo starts one user's cycle, recovering from panics so a single
// bad user state cannot kill the scheduler goroutine.
func (s *Scheduler) deliverTo(ctx context.Context, user *domain.User) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("panic during daily delivery",
				slog.Int64("user_id", user.ID),
				slog.Any("panic", p))
			ok = false
		}
	}()

	userCtx, cancel := context.WithTimeout(ctx, perUserTimeout)
	defer cancel()

	err := s.delivery.StartCycle(userCtx, user)
	if err == nil {
		return true
	}
	if errors.Is(err, delivery.ErrNoQuestionsLeft) {
		s.logger.Info("user has exhausted the catalog",
			slog.Int64("user_id", user.ID))
		return false
	}

	s.logger.Error("failed to deliver daily cycle",
		slog.Int64("user_id", user.ID),
		slog.String("error", err.Error()))
	return false
}
