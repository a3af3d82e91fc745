package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps scores in the points_scores table. Increments are a single
// native upsert, so concurrent awards serialize on the row in the database.
type SQLStore struct {
	db      *gorm.DB
	node    *snowflake.Node
	timeout time.Duration
}

func NewSQLStore(db *gorm.DB, node *snowflake.Node, timeout time.Duration) *SQLStore {
	return &SQLStore{
		db:      db,
		node:    node,
		timeout: timeout,
	}
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&ScoreRecord{}); err != nil {
		zap.L().Error("failed to migrate score table", zap.Error(err))
		return err
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, communityID, userID int64) (*ScoreRecord, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var rec ScoreRecord
	err := s.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to query score", zap.Int64("community_id", communityID), zap.Int64("user_id", userID), zap.Error(err))
		return nil, unavailable(err)
	}

	return &rec, nil
}

func (s *SQLStore) Increment(ctx context.Context, communityID, userID, delta int64) (*ScoreRecord, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now()
	var out ScoreRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := &ScoreRecord{
			ID:          s.node.Generate().String(),
			CommunityID: communityID,
			UserID:      userID,
			Points:      delta,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"points":     gorm.Expr(scoreTable+".points + ?", delta),
				"updated_at": now,
			}),
		}).Create(rec).Error; err != nil {
			return err
		}

		return tx.Where("community_id = ? AND user_id = ?", communityID, userID).Take(&out).Error
	})
	if err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to increment score",
			zap.Int64("community_id", communityID),
			zap.Int64("user_id", userID),
			zap.Int64("delta", delta),
			zap.Error(err),
		)
		return nil, unavailable(err)
	}

	return &out, nil
}

func (s *SQLStore) Rank(ctx context.Context, communityID, points int64) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var above int64
	if err := s.db.WithContext(ctx).Model(&ScoreRecord{}).
		Where("community_id = ? AND points > ?", communityID, points).
		Count(&above).Error; err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to count scores", zap.Int64("community_id", communityID), zap.Error(err))
		return 0, unavailable(err)
	}

	return above + 1, nil
}

func (s *SQLStore) Page(ctx context.Context, communityID int64, order Order, limit, offset int) ([]*ScoreRecord, error) {
	if err := ValidatePage(order, limit, offset); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []*ScoreRecord{}, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	desc := order == Descending
	records := make([]*ScoreRecord, 0, min(limit, maxPrealloc))
	if err := s.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "points"}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "user_id"}, Desc: desc}).
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		zap.L().With(logFields(ctx)...).Error("failed to page scores", zap.Int64("community_id", communityID), zap.Error(err))
		return nil, unavailable(err)
	}

	return records, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err != nil {
		return unavailable(err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func logFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
