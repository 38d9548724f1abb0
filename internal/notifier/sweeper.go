package notifier

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
)

// SweepService times out overdue pending bookings.
type SweepService interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper runs the expiry sweep on a cron schedule. A semaphore keeps runs
// from overlapping when a sweep outlasts the tick interval.
type Sweeper struct {
	cron   *cron.Cron
	sem    *semaphore.Weighted
	svc    SweepService
	spec   string
	logger *slog.Logger
}

func NewSweeper(svc SweepService, spec string, logger *slog.Logger) *Sweeper {
	if spec == "" {
		spec = "@every 1m"
	}
	return &Sweeper{
		cron:   cron.New(),
		sem:    semaphore.NewWeighted(1),
		svc:    svc,
		spec:   spec,
		logger: logger,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.run(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Expiry sweeper started", slog.String("schedule", s.spec))
	return nil
}

func (s *Sweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Expiry sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	if !s.sem.TryAcquire(1) {
		s.logger.Warn("Expiry sweep still running, skipping tick")
		return
	}
	defer s.sem.Release(1)

	swept, err := s.svc.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("Expiry sweep failed", slog.String("error", err.Error()))
		return
	}
	if swept > 0 {
		s.logger.Info("Expiry sweep completed", slog.Int("swept", swept))
	}
}
