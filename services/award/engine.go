package award

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"community-points/pkg/errutil"
	"community-points/services/cooldown"
	"community-points/services/ledger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type Drawer interface {
	Draw(min, max int64) int64
}

type DrawerFunc func(min, max int64) int64

func (f DrawerFunc) Draw(min, max int64) int64 {
	return f(min, max)
}

// UniformDrawer draws uniformly from [min, max].
func UniformDrawer() Drawer {
	return DrawerFunc(func(min, max int64) int64 {
		if max <= min {
			return min
		}
		return min + rand.Int64N(max-min+1)
	})
}

type Options struct {
	Ranges     map[cooldown.Kind]Range
	Drawer     Drawer
	Clock      func() time.Time
	Registerer prometheus.Registerer
}

// Engine turns activity into points. It reserves the member's cooldown,
// increments the ledger and only then records the cooldown, so a failed
// increment leaves the member eligible for the next event.
type Engine struct {
	store   ledger.Store
	tracker *cooldown.Tracker
	ranges  map[cooldown.Kind]Range
	drawer  Drawer
	clock   func() time.Time

	awards *prometheus.CounterVec
	points *prometheus.CounterVec
}

func NewEngine(store ledger.Store, tracker *cooldown.Tracker, opts Options) *Engine {
	if opts.Drawer == nil {
		opts.Drawer = UniformDrawer()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	factory := promauto.With(opts.Registerer)
	return &Engine{
		store:   store,
		tracker: tracker,
		ranges:  opts.Ranges,
		drawer:  opts.Drawer,
		clock:   opts.Clock,
		awards: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "points_awards_total",
			Help: "Activities handled by outcome",
		}, []string{"kind", "outcome"}),
		points: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Points granted",
		}, []string{"kind"}),
	}
}

func (e *Engine) HandleActivity(ctx context.Context, a Activity) (Result, error) {
	log := zap.L().With(
		zap.String("kind", string(a.Kind)),
		zap.Int64("community_id", a.CommunityID),
		zap.Int64("user_id", a.UserID),
	)

	rng, ok := e.ranges[a.Kind]
	if !ok {
		return Result{}, errutil.BadRequest("kind must be message or reaction", fmt.Errorf("%w: %q", cooldown.ErrUnknownKind, a.Kind))
	}

	if a.Bot || a.Direct || a.CommunityID == 0 {
		log.Debug("activity not awardable", zap.Bool("bot", a.Bot), zap.Bool("direct", a.Direct))
		return e.done(a.Kind, Result{Outcome: OutcomeRejected}), nil
	}

	now := a.OccurredAt
	if now.IsZero() {
		now = e.clock()
	}

	claim, ok := e.tracker.Acquire(a.Kind, a.CommunityID, a.UserID, now)
	if !ok {
		log.Debug("activity within cooldown", zap.Duration("window", e.tracker.Window(a.Kind)))
		return e.done(a.Kind, Result{Outcome: OutcomeCooldown}), nil
	}
	defer claim.Release()

	value := e.drawer.Draw(rng.Min, rng.Max)
	rec, err := e.store.Increment(ctx, a.CommunityID, a.UserID, value)
	if err != nil {
		log.Error("failed to award points", zap.Int64("value", value), zap.Error(err))
		e.done(a.Kind, Result{Outcome: OutcomeFailed})
		return Result{Outcome: OutcomeFailed}, err
	}
	claim.Record(now)

	e.points.WithLabelValues(string(a.Kind)).Add(float64(value))
	log.Debug("points awarded", zap.Int64("value", value), zap.Int64("points", rec.Points))

	return e.done(a.Kind, Result{Outcome: OutcomeAwarded, Value: value, Points: rec.Points}), nil
}

func (e *Engine) done(kind cooldown.Kind, r Result) Result {
	e.awards.WithLabelValues(string(kind), string(r.Outcome)).Inc()
	return r
}
