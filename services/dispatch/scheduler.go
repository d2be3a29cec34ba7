package dispatch

import (
	"context"
	"time"

	"travelops-dispatch/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Scheduler owns the polling loop. It carries its own lifecycle so multiple
// instances (or tests) can run isolated schedulers.
type Scheduler struct {
	worker   *Worker
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewScheduler(w *Worker, cfg *config.Config) *Scheduler {
	return &Scheduler{
		worker:   w,
		interval: cfg.Dispatch.Interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// StartScheduler wires the polling loop to the fx application lifecycle.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Stop(ctx)
		},
	})
}

func (s *Scheduler) run() {
	defer close(s.done)

	zap.L().Info("[Scheduler] dispatch scheduler started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce()
	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stop:
			zap.L().Info("[Scheduler] dispatch scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) runOnce() {
	start := time.Now()
	stats, err := s.worker.RunCycle(context.Background())
	if err != nil {
		zap.L().Error("[Scheduler] dispatch cycle failed", zap.Error(err))
		return
	}

	zap.L().Info("[Scheduler] dispatch cycle finished",
		zap.Int("due", stats.Due),
		zap.Int("sent", stats.Sent),
		zap.Int("retried", stats.Retried),
		zap.Int("failed", stats.Failed),
		zap.Int("deactivated", stats.Deactivated),
		zap.Int("claim_misses", stats.ClaimMisses),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Scheduler) Stop(ctx context.Context) error {
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
