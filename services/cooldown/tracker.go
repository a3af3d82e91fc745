package cooldown

import (
	"hash/maphash"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultShards = 32

type Options struct {
	Windows    map[Kind]time.Duration
	Shards     int
	Registerer prometheus.Registerer
}

type shard struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

// Tracker holds the last award time of every member still inside a cooldown
// window. Keys are spread over independently locked shards so unrelated
// communities never wait on each other. Nothing here is persisted; losing it
// only makes everyone eligible again.
type Tracker struct {
	windows map[Kind]time.Duration
	seed    maphash.Seed
	shards  []*shard
	sweepMu sync.Mutex

	live  prometheus.Gauge
	swept prometheus.Counter
}

func NewTracker(opts Options) *Tracker {
	n := opts.Shards
	if n <= 0 {
		n = defaultShards
	}

	windows := make(map[Kind]time.Duration, len(opts.Windows))
	for k, w := range opts.Windows {
		windows[k] = w
	}

	factory := promauto.With(opts.Registerer)
	t := &Tracker{
		windows: windows,
		seed:    maphash.MakeSeed(),
		shards:  make([]*shard, n),
		live: factory.NewGauge(prometheus.GaugeOpts{
			Name: "points_cooldown_entries",
			Help: "Cooldown entries currently tracked",
		}),
		swept: factory.NewCounter(prometheus.CounterOpts{
			Name: "points_cooldown_swept_total",
			Help: "Expired cooldown entries removed by sweeps",
		}),
	}
	for i := range t.shards {
		t.shards[i] = &shard{entries: make(map[Key]*entry)}
	}

	return t
}

// Window returns the cooldown of kind; kinds without one are never throttled.
func (t *Tracker) Window(kind Kind) time.Duration {
	return t.windows[kind]
}

func (t *Tracker) shardFor(key Key) *shard {
	return t.shards[maphash.Comparable(t.seed, key)%uint64(len(t.shards))]
}

// IsEligible reports whether no award of kind was recorded for the member
// within the window ending at now.
func (t *Tracker) IsEligible(kind Kind, communityID, userID int64, now time.Time) bool {
	key := Key{Kind: kind, CommunityID: communityID, UserID: userID}
	s := t.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entries[key].eligible(t.windows[kind], now)
}

// RecordAward starts a new cooldown window at now.
func (t *Tracker) RecordAward(kind Kind, communityID, userID int64, now time.Time) {
	key := Key{Kind: kind, CommunityID: communityID, UserID: userID}
	s := t.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	t.record(s, key, now)
}

// record requires s.mu.
func (t *Tracker) record(s *shard, key Key, now time.Time) {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
		t.live.Inc()
	}
	e.lastAwardAt = now
	e.awarded = true
}

// Acquire checks eligibility and reserves the key in one step. While the
// claim is open the key reports ineligible, so concurrent events for the same
// member cannot both be awarded.
func (t *Tracker) Acquire(kind Kind, communityID, userID int64, now time.Time) (*Claim, bool) {
	key := Key{Kind: kind, CommunityID: communityID, UserID: userID}
	s := t.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !e.eligible(t.windows[kind], now) {
		return nil, false
	}
	if !ok {
		e = &entry{}
		s.entries[key] = e
		t.live.Inc()
	}
	e.pending = true

	return &Claim{tracker: t, key: key}, true
}

// Sweep drops every entry whose window has elapsed at now and returns how
// many were removed. Concurrent calls run one after another.
func (t *Tracker) Sweep(now time.Time) int {
	t.sweepMu.Lock()
	defer t.sweepMu.Unlock()

	removed := 0
	for _, s := range t.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			if e.expired(t.windows[key.Kind], now) {
				delete(s.entries, key)
				removed++
			}
		}
		s.mu.Unlock()
	}

	t.live.Sub(float64(removed))
	t.swept.Add(float64(removed))

	return removed
}

// Len counts the tracked entries, pending claims included.
func (t *Tracker) Len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Claim is an open reservation returned by Acquire. It is owned by a single
// goroutine and must end with Record or Release.
type Claim struct {
	tracker *Tracker
	key     Key
	done    bool
}

// Record closes the claim and starts the cooldown window at now.
func (c *Claim) Record(now time.Time) {
	if c.done {
		return
	}
	c.done = true

	s := c.tracker.shardFor(c.key)
	s.mu.Lock()
	defer s.mu.Unlock()

	c.tracker.record(s, c.key, now)
	if e, ok := s.entries[c.key]; ok {
		e.pending = false
	}
}

// Release closes the claim without an award, restoring the previous state.
// It is a no-op after Record.
func (c *Claim) Release() {
	if c.done {
		return
	}
	c.done = true

	s := c.tracker.shardFor(c.key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[c.key]
	if !ok {
		return
	}
	e.pending = false
	if !e.awarded {
		delete(s.entries, c.key)
		c.tracker.live.Dec()
	}
}
