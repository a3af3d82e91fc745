package ledger

import (
	"errors"
	"fmt"
	"time"

	"community-points/pkg/errutil"
)

var (
	// ErrStorageUnavailable marks I/O, connectivity and timeout failures of
	// the backing store. Callers decide whether to retry.
	ErrStorageUnavailable = errors.New("ledger storage unavailable")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrInvalidPage        = errors.New("invalid page bounds")
)

const scoreTable = "points_scores"

// ScoreRecord is the accrued score of one member of one community.
type ScoreRecord struct {
	ID          string    `gorm:"column:id;primaryKey"`
	CommunityID int64     `gorm:"column:community_id;uniqueIndex:idx_points_scores_member,priority:1;index:idx_points_scores_board,priority:1"`
	UserID      int64     `gorm:"column:user_id;uniqueIndex:idx_points_scores_member,priority:2"`
	Points      int64     `gorm:"column:points;not null;default:0;index:idx_points_scores_board,priority:2"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (ScoreRecord) TableName() string {
	return scoreTable
}

type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

func (o Order) Valid() bool {
	return o == Ascending || o == Descending
}

// ParseOrder accepts exactly "asc" and "desc".
func ParseOrder(s string) (Order, error) {
	o := Order(s)
	if !o.Valid() {
		return "", invalidOrder(s)
	}
	return o, nil
}

func invalidOrder(s string) error {
	return errutil.BadRequest("order must be asc or desc", fmt.Errorf("%w: %q", ErrInvalidOrder, s),
		errutil.WithDetails(errutil.Detail{Field: "order", Message: "must be asc or desc"}))
}

func invalidPage(limit, offset int) error {
	return errutil.BadRequest("limit and offset must not be negative",
		fmt.Errorf("%w: limit=%d offset=%d", ErrInvalidPage, limit, offset))
}

func unavailable(err error) error {
	return errutil.ServiceUnavailable("ledger storage unavailable", fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
}
