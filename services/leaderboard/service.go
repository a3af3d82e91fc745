package leaderboard

import (
	"context"
	"fmt"
	"math"
	"time"

	"community-points/pkg/db/pagination"
	"community-points/services/ledger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service answers rank and page queries straight from the ledger. It keeps no
// state of its own beyond coalescing identical in-flight page reads.
type Service struct {
	store ledger.Store
	group singleflight.Group

	duration *prometheus.HistogramVec
	shared   prometheus.Counter
}

func NewService(store ledger.Store, reg prometheus.Registerer) *Service {
	factory := promauto.With(reg)
	return &Service{
		store: store,
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "points_leaderboard_query_duration_seconds",
			Help:    "Leaderboard query latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		shared: factory.NewCounter(prometheus.CounterOpts{
			Name: "points_leaderboard_shared_pages_total",
			Help: "Page queries whose result was shared with an identical in-flight query",
		}),
	}
}

// TopOrBottom returns one page of the community board. A page past the end is
// empty with HasMore unset.
func (s *Service) TopOrBottom(ctx context.Context, communityID int64, order ledger.Order, limit, offset int) (*Page, error) {
	defer s.observe("page", time.Now())

	if err := ledger.ValidatePage(order, limit, offset); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%d:%s:%d:%d", communityID, order, limit, offset)
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		// one caller's cancellation must not fail the others sharing the result
		return s.page(context.WithoutCancel(ctx), communityID, order, limit, offset)
	})
	if shared {
		s.shared.Inc()
	}
	if err != nil {
		zap.L().Warn("leaderboard page failed",
			zap.Int64("community_id", communityID),
			zap.String("order", string(order)),
			zap.Error(err),
		)
		return nil, err
	}

	return v.(*Page), nil
}

func (s *Service) page(ctx context.Context, communityID int64, order ledger.Order, limit, offset int) (*Page, error) {
	// one extra row tells whether another page exists
	fetch := limit
	if limit < math.MaxInt {
		fetch++
	}

	records, err := s.store.Page(ctx, communityID, order, fetch, offset)
	if err != nil {
		return nil, err
	}

	records, info := pagination.BuildOffsetPageInfo(records, limit, offset)
	entries := make([]Entry, len(records))
	for i, rec := range records {
		entries[i] = Entry{
			Position: int64(offset + i + 1),
			UserID:   rec.UserID,
			Points:   rec.Points,
		}
	}

	return &Page{
		CommunityID: communityID,
		Order:       order,
		Entries:     entries,
		PageInfo:    info,
	}, nil
}

// RankOf returns nil for a member without a record.
func (s *Service) RankOf(ctx context.Context, communityID, userID int64) (*int64, error) {
	defer s.observe("rank", time.Now())

	rec, err := s.store.Get(ctx, communityID, userID)
	if err != nil || rec == nil {
		return nil, err
	}

	rank, err := s.store.Rank(ctx, communityID, rec.Points)
	if err != nil {
		return nil, err
	}
	return &rank, nil
}

// GetScore reports zero points and no rank for unknown members.
func (s *Service) GetScore(ctx context.Context, communityID, userID int64) (*Standing, error) {
	defer s.observe("score", time.Now())

	standing := &Standing{UserID: userID}

	rec, err := s.store.Get(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return standing, nil
	}
	standing.Points = rec.Points

	rank, err := s.store.Rank(ctx, communityID, rec.Points)
	if err != nil {
		return nil, err
	}
	standing.Rank = &rank

	return standing, nil
}

func (s *Service) observe(query string, start time.Time) {
	s.duration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
