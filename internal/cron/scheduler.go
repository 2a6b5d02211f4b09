package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jiopay/internal/repository"
)

// callbackLogRetention is how long raw gateway payloads are kept.
const callbackLogRetention = 90 * 24 * time.Hour

// Scheduler manages the maintenance jobs.
type Scheduler struct {
	cron         *cron.Cron
	sessions     *repository.CheckoutSessionRepository
	callbackLogs *repository.CallbackLogRepository
	logger       *zap.Logger
}

// New creates a new cron scheduler.
func New(
	sessions *repository.CheckoutSessionRepository,
	callbackLogs *repository.CallbackLogRepository,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithSeconds()),
		sessions:     sessions,
		callbackLogs: callbackLogs,
		logger:       logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Purge expired checkout sessions - every 10 minutes
	s.cron.AddFunc("0 */10 * * * *", func() {
		s.logger.Debug("Running: purge expired sessions")
		s.purgeExpiredSessions()
	})

	// Prune old callback logs - daily at 3 AM
	s.cron.AddFunc("0 0 3 * * *", func() {
		s.logger.Debug("Running: prune callback logs")
		s.pruneCallbackLogs()
	})

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron scheduler stopped")
}

func (s *Scheduler) purgeExpiredSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("Failed to purge expired sessions", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("Purged expired checkout sessions", zap.Int64("count", removed))
	}
}

func (s *Scheduler) pruneCallbackLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	removed, err := s.callbackLogs.PruneOlderThan(ctx, time.Now().Add(-callbackLogRetention))
	if err != nil {
		s.logger.Error("Failed to prune callback logs", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("Pruned old callback logs", zap.Int64("count", removed))
	}
}
