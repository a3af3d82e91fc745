package pagination

import "fmt"

// Move is a navigation step relative to the current page.
type Move string

const (
	MoveNone  Move = ""
	MoveFirst Move = "first"
	MovePrev  Move = "prev"
	MoveNext  Move = "next"
)

type Pagination struct {
	Order  string `form:"order,default=desc"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
	Move   Move   `form:"move"`
}

type PageInfo struct {
	Offset         int  `json:"offset"`
	Limit          int  `json:"limit"`
	NextOffset     int  `json:"next_offset"`
	PreviousOffset int  `json:"previous_offset"`
	HasMore        bool `json:"has_more"`
	HasPrevious    bool `json:"has_previous"`
}

// Normalize fills the default limit, caps it and rejects negative offsets.
func (p Pagination) Normalize(defaultLimit, maxLimit int) (Pagination, error) {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		return p, fmt.Errorf("offset %d must not be negative", p.Offset)
	}
	return p, nil
}

// Apply resolves Move against the current offset. A step before the first
// page reports false and leaves p untouched.
func (p Pagination) Apply() (Pagination, bool) {
	switch p.Move {
	case MoveFirst:
		p.Offset = 0
	case MovePrev:
		if p.Offset-p.Limit < 0 {
			return p, false
		}
		p.Offset -= p.Limit
	case MoveNext:
		p.Offset += p.Limit
	case MoveNone:
	default:
		return p, false
	}
	p.Move = MoveNone
	return p, true
}

// BuildOffsetPageInfo expects data fetched with limit+1 rows; the extra row
// only signals that another page exists and is cut off.
func BuildOffsetPageInfo[T any](data []T, limit, offset int) ([]T, *PageInfo) {
	info := &PageInfo{
		Offset:      offset,
		Limit:       limit,
		NextOffset:  offset,
		HasPrevious: offset > 0,
	}

	if offset > 0 {
		info.PreviousOffset = max(offset-limit, 0)
	}

	if len(data) > limit {
		info.HasMore = true
		data = data[:limit]
	}

	if info.HasMore {
		info.NextOffset = offset + limit
	}

	return data, info
}
