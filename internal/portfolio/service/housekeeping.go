package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/session"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/store"
)

// HousekeepingService periodically drops expired sessions and stale
// password reset tokens. Expiry is always enforced at use time; this
// worker only keeps the stores from growing without bound.
type HousekeepingService struct {
	Store    store.Store
	Sessions session.Registry
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the worker. An interval of zero or
// less defaults to 1 hour.
func NewHousekeepingService(store store.Store, sessions session.Registry, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress cleanup
// finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup runs each task independently so one failure does not stop the
// others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	if err := s.Sessions.Sweep(ctx); err != nil {
		s.Logger.Error("failed to sweep sessions", "error", err)
	}

	if err := s.Store.Users().ClearExpiredResetTokens(ctx); err != nil {
		s.Logger.Error("failed to clear expired reset tokens", "error", err)
	}
}
