package ledger

import (
	"context"
	"time"
)

// Store owns the durable community scores. Every mutation goes through
// Increment, which must not lose concurrent updates of the same member.
type Store interface {
	// Get returns nil without error when the member was never awarded.
	Get(ctx context.Context, communityID, userID int64) (*ScoreRecord, error)
	// Increment adds delta to the member score, creating it from zero.
	Increment(ctx context.Context, communityID, userID, delta int64) (*ScoreRecord, error)
	// Rank is one plus the number of members scoring strictly more than points.
	Rank(ctx context.Context, communityID, points int64) (int64, error)
	// Page returns at most limit records ordered by (points, user id) in the
	// requested direction, skipping offset records.
	Page(ctx context.Context, communityID int64, order Order, limit, offset int) ([]*ScoreRecord, error)
	Ping(ctx context.Context) error
}

const (
	defaultStorageTimeout = 3 * time.Second
	// maxPrealloc bounds the slice reserved up front for a page; limit is
	// caller supplied and may be far larger than the board.
	maxPrealloc = 256
)

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultStorageTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// ValidatePage rejects unknown orders and negative bounds.
func ValidatePage(order Order, limit, offset int) error {
	if !order.Valid() {
		return invalidOrder(string(order))
	}
	if limit < 0 || offset < 0 {
		return invalidPage(limit, offset)
	}
	return nil
}
