package cooldown

import (
	"context"
	"time"

	"community-points/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Module("cooldown",
	fx.Provide(ProvideTracker, ProvideSweeper),
	fx.Invoke(StartSweeper),
)

type TrackerParams struct {
	fx.In

	Config     *config.Config
	Registerer prometheus.Registerer `optional:"true"`
}

func ProvideTracker(p TrackerParams) *Tracker {
	return NewTracker(Options{
		Windows: map[Kind]time.Duration{
			Message:  p.Config.Points.Message.Cooldown,
			Reaction: p.Config.Points.Reaction.Cooldown,
		},
		Shards:     p.Config.Points.Shards,
		Registerer: p.Registerer,
	})
}

func ProvideSweeper(cfg *config.Config, tracker *Tracker) *Sweeper {
	return NewSweeper(tracker, cfg.Points.SweepInterval, time.Now)
}

// StartSweeper ties the sweep loop to the application lifecycle.
func StartSweeper(lc fx.Lifecycle, s *Sweeper) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
