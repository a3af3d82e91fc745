package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"community-points/pkg/rediskey"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps one sorted set per community. ZINCRBY is atomic, so
// increments of the same member never overwrite each other.
type RedisStore struct {
	rdb     redis.UniversalClient
	timeout time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, timeout time.Duration) *RedisStore {
	return &RedisStore{
		rdb:     rdb,
		timeout: timeout,
	}
}

func (s *RedisStore) Get(ctx context.Context, communityID, userID int64) (*ScoreRecord, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	score, err := s.rdb.ZScore(ctx, rediskey.BuildCommunityKey(communityID), rediskey.Member(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to read score", zap.Int64("community_id", communityID), zap.Int64("user_id", userID), zap.Error(err))
		return nil, unavailable(err)
	}

	return &ScoreRecord{CommunityID: communityID, UserID: userID, Points: int64(score)}, nil
}

func (s *RedisStore) Increment(ctx context.Context, communityID, userID, delta int64) (*ScoreRecord, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	score, err := s.rdb.ZIncrBy(ctx, rediskey.BuildCommunityKey(communityID), float64(delta), rediskey.Member(userID)).Result()
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to increment score",
			zap.Int64("community_id", communityID),
			zap.Int64("user_id", userID),
			zap.Int64("delta", delta),
			zap.Error(err),
		)
		return nil, unavailable(err)
	}

	return &ScoreRecord{CommunityID: communityID, UserID: userID, Points: int64(score), UpdatedAt: time.Now()}, nil
}

func (s *RedisStore) Rank(ctx context.Context, communityID, points int64) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	above, err := s.rdb.ZCount(ctx, rediskey.BuildCommunityKey(communityID), "("+strconv.FormatInt(points, 10), "+inf").Result()
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to count scores", zap.Int64("community_id", communityID), zap.Error(err))
		return 0, unavailable(err)
	}

	return above + 1, nil
}

// Page relies on redis ordering equal scores by member; members are fixed
// width ids, so the tie-break matches the SQL store.
func (s *RedisStore) Page(ctx context.Context, communityID int64, order Order, limit, offset int) ([]*ScoreRecord, error) {
	if err := ValidatePage(order, limit, offset); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []*ScoreRecord{}, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	key := rediskey.BuildCommunityKey(communityID)
	// stop -1 is the end of the set, used when offset+limit would overflow
	start, stop := int64(offset), int64(-1)
	if int64(limit) <= math.MaxInt64-start {
		stop = start + int64(limit) - 1
	}

	var (
		members []redis.Z
		err     error
	)
	if order == Descending {
		members, err = s.rdb.ZRevRangeWithScores(ctx, key, start, stop).Result()
	} else {
		members, err = s.rdb.ZRangeWithScores(ctx, key, start, stop).Result()
	}
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to page scores", zap.Int64("community_id", communityID), zap.Error(err))
		return nil, unavailable(err)
	}

	records := make([]*ScoreRecord, 0, len(members))
	for _, z := range members {
		member, ok := z.Member.(string)
		if !ok {
			return nil, unavailable(fmt.Errorf("unexpected member type %T", z.Member))
		}
		userID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, unavailable(err)
		}
		records = append(records, &ScoreRecord{CommunityID: communityID, UserID: userID, Points: int64(z.Score)})
	}

	return records, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}
