package award

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"community-points/pkg/errutil"
	"community-points/services/cooldown"
	"community-points/services/ledger"
	"community-points/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// flakyStore fails the first n increments.
type flakyStore struct {
	ledger.Store
	failures atomic.Int32
}

func (s *flakyStore) Increment(ctx context.Context, communityID, userID, delta int64) (*ledger.ScoreRecord, error) {
	if s.failures.Add(-1) >= 0 {
		return nil, errutil.ServiceUnavailable("ledger storage unavailable",
			fmt.Errorf("%w: connection refused", ledger.ErrStorageUnavailable))
	}
	return s.Store.Increment(ctx, communityID, userID, delta)
}

func newStore(t *testing.T) ledger.Store {
	t.Helper()

	db := testutil.NewTestDB(t, &ledger.ScoreRecord{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return ledger.NewSQLStore(db, node, time.Second)
}

func newEngine(t *testing.T, store ledger.Store) (*Engine, *cooldown.Tracker) {
	t.Helper()

	reg := prometheus.NewRegistry()
	tracker := cooldown.NewTracker(cooldown.Options{
		Windows: map[cooldown.Kind]time.Duration{
			cooldown.Message:  60 * time.Second,
			cooldown.Reaction: 30 * time.Second,
		},
		Shards:     4,
		Registerer: reg,
	})

	engine := NewEngine(store, tracker, Options{
		Ranges: map[cooldown.Kind]Range{
			cooldown.Message:  {Min: 20, Max: 30},
			cooldown.Reaction: {Min: 5, Max: 10},
		},
		Drawer:     DrawerFunc(func(min, _ int64) int64 { return min }),
		Clock:      func() time.Time { return t0 },
		Registerer: reg,
	})

	return engine, tracker
}

func message(communityID, userID int64, at time.Time) Activity {
	return Activity{Kind: cooldown.Message, CommunityID: communityID, UserID: userID, OccurredAt: at}
}

func TestEngineAwardsThenCoolsDown(t *testing.T) {
	store := newStore(t)
	engine, _ := newEngine(t, store)
	ctx := context.Background()

	res, err := engine.HandleActivity(ctx, message(7, 42, t0))
	require.NoError(t, err)
	require.Equal(t, Result{Outcome: OutcomeAwarded, Value: 20, Points: 20}, res)

	rank, err := store.Rank(ctx, 7, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), rank)

	res, err = engine.HandleActivity(ctx, message(7, 42, t0.Add(30*time.Second)))
	require.NoError(t, err)
	require.Equal(t, OutcomeCooldown, res.Outcome)

	rec, err := store.Get(ctx, 7, 42)
	require.NoError(t, err)
	require.Equal(t, int64(20), rec.Points)

	res, err = engine.HandleActivity(ctx, message(7, 42, t0.Add(61*time.Second)))
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, res.Outcome)
	require.Equal(t, int64(40), res.Points)

	require.Equal(t, 2.0, promtest.ToFloat64(engine.awards.WithLabelValues("message", "awarded")))
	require.Equal(t, 1.0, promtest.ToFloat64(engine.awards.WithLabelValues("message", "cooldown")))
	require.Equal(t, 40.0, promtest.ToFloat64(engine.points.WithLabelValues("message")))
}

func TestEngineKindsHaveSeparateCooldowns(t *testing.T) {
	store := newStore(t)
	engine, _ := newEngine(t, store)
	ctx := context.Background()

	res, err := engine.HandleActivity(ctx, message(7, 42, t0))
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, res.Outcome)

	reaction := Activity{Kind: cooldown.Reaction, CommunityID: 7, UserID: 42, OccurredAt: t0.Add(time.Second)}
	res, err = engine.HandleActivity(ctx, reaction)
	require.NoError(t, err)
	require.Equal(t, Result{Outcome: OutcomeAwarded, Value: 5, Points: 25}, res)

	reaction.OccurredAt = t0.Add(31 * time.Second)
	res, err = engine.HandleActivity(ctx, reaction)
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, res.Outcome)
	require.Equal(t, int64(30), res.Points)
}

func TestEngineRejectsUnawardableActivity(t *testing.T) {
	store := newStore(t)
	engine, tracker := newEngine(t, store)
	ctx := context.Background()

	for name, a := range map[string]Activity{
		"bot":          {Kind: cooldown.Message, CommunityID: 7, UserID: 42, Bot: true, OccurredAt: t0},
		"direct":       {Kind: cooldown.Message, CommunityID: 7, UserID: 42, Direct: true, OccurredAt: t0},
		"no community": {Kind: cooldown.Message, UserID: 42, OccurredAt: t0},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := engine.HandleActivity(ctx, a)
			require.NoError(t, err)
			require.Equal(t, OutcomeRejected, res.Outcome)
		})
	}

	rec, err := store.Get(ctx, 7, 42)
	require.NoError(t, err)
	require.Nil(t, rec)
	require.Zero(t, tracker.Len())
}

func TestEngineUnknownKind(t *testing.T) {
	engine, _ := newEngine(t, newStore(t))

	_, err := engine.HandleActivity(context.Background(), Activity{Kind: "voice", CommunityID: 7, UserID: 42})
	require.ErrorIs(t, err, cooldown.ErrUnknownKind)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusBadRequest, be.Code)
}

func TestEngineStorageFailureKeepsMemberEligible(t *testing.T) {
	store := &flakyStore{Store: newStore(t)}
	store.failures.Store(1)
	engine, tracker := newEngine(t, store)
	ctx := context.Background()

	res, err := engine.HandleActivity(ctx, message(7, 42, t0))
	require.ErrorIs(t, err, ledger.ErrStorageUnavailable)
	require.Equal(t, OutcomeFailed, res.Outcome)
	require.True(t, tracker.IsEligible(cooldown.Message, 7, 42, t0.Add(time.Second)))

	res, err = engine.HandleActivity(ctx, message(7, 42, t0.Add(time.Second)))
	require.NoError(t, err)
	require.Equal(t, Result{Outcome: OutcomeAwarded, Value: 20, Points: 20}, res)
	require.Equal(t, 1.0, promtest.ToFloat64(engine.awards.WithLabelValues("message", "failed")))
}

func TestEngineConcurrentActivityAwardsOnce(t *testing.T) {
	store := newStore(t)
	engine, _ := newEngine(t, store)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		awarded atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := engine.HandleActivity(ctx, message(7, 42, t0))
			if err == nil && res.Outcome == OutcomeAwarded {
				awarded.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), awarded.Load())

	rec, err := store.Get(ctx, 7, 42)
	require.NoError(t, err)
	require.Equal(t, int64(20), rec.Points)
}

func TestEngineDefaultsToClock(t *testing.T) {
	engine, tracker := newEngine(t, newStore(t))

	res, err := engine.HandleActivity(context.Background(), message(7, 42, time.Time{}))
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, res.Outcome)
	require.False(t, tracker.IsEligible(cooldown.Message, 7, 42, t0.Add(59*time.Second)))
	require.True(t, tracker.IsEligible(cooldown.Message, 7, 42, t0.Add(60*time.Second)))
}

func TestUniformDrawerBounds(t *testing.T) {
	d := UniformDrawer()
	seen := map[int64]bool{}
	for i := 0; i < 1000; i++ {
		v := d.Draw(10, 15)
		require.GreaterOrEqual(t, v, int64(10))
		require.LessOrEqual(t, v, int64(15))
		seen[v] = true
	}
	require.Len(t, seen, 6)
	require.Equal(t, int64(3), d.Draw(3, 3))
}
