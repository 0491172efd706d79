package services

import (
	"context"
	"time"

	"facerate-go/internal/runner"

	"go.uber.org/zap"
)

// Sweeper evicts survey runs that have been idle longer than the TTL so
// abandoned sessions do not accumulate in memory.
type Sweeper struct {
	log      *zap.Logger
	registry *runner.Registry
	ttl      func() time.Duration
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
}

// NewSweeper reads ttl on every pass so configuration reloads take effect.
func NewSweeper(log *zap.Logger, registry *runner.Registry, ttl func() time.Duration, interval time.Duration) *Sweeper {
	return &Sweeper{
		log:      log,
		registry: registry,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start runs the sweeper in a goroutine until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("Starting idle run sweeper", zap.Duration("interval", s.interval))
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// Wait blocks until the goroutine started by Start has returned.
func (s *Sweeper) Wait() {
	<-s.done
}

func (s *Sweeper) sweep() int {
	ttl := s.ttl()
	if ttl <= 0 {
		return 0
	}
	removed := s.registry.Sweep(s.now().Add(-ttl))
	if removed > 0 {
		s.log.Info("Evicted idle survey runs", zap.Int("removed", removed), zap.Int("remaining", s.registry.Len()))
	} else {
		s.log.Debug("Idle run sweep found nothing", zap.Int("active", s.registry.Len()))
	}
	return removed
}
