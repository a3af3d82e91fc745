package cooldown

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultSweepInterval = 120 * time.Second

// Sweeper prunes the tracker on a fixed interval. Passes run on a single
// goroutine, so a slow pass delays the next one instead of overlapping it.
type Sweeper struct {
	tracker  *Tracker
	interval time.Duration
	clock    func() time.Time
}

func NewSweeper(tracker *Tracker, interval time.Duration, clock func() time.Time) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if clock == nil {
		clock = time.Now
	}
	return &Sweeper{
		tracker:  tracker,
		interval: interval,
		clock:    clock,
	}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	zap.L().Info("[Sweeper] started cooldown sweeper", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-ctx.Done():
			zap.L().Info("[Sweeper] stopped")
			return
		}
	}
}

func (s *Sweeper) sweep() {
	start := time.Now()
	removed := s.tracker.Sweep(s.clock())

	zap.L().Debug("[Sweeper] swept cooldowns",
		zap.Int("removed", removed),
		zap.Int("remaining", s.tracker.Len()),
		zap.Duration("duration", time.Since(start)),
	)
}
