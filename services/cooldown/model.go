package cooldown

import (
	"errors"
	"fmt"
	"time"

	"community-points/pkg/errutil"
)

var ErrUnknownKind = errors.New("unknown activity kind")

// Kind is the category of activity that can earn points.
type Kind string

const (
	Message  Kind = "message"
	Reaction Kind = "reaction"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Message, Reaction:
		return k, nil
	default:
		return "", errutil.BadRequest("kind must be message or reaction", fmt.Errorf("%w: %q", ErrUnknownKind, s),
			errutil.WithDetails(errutil.Detail{Field: "kind", Message: "must be message or reaction"}))
	}
}

// Key identifies one cooldown: a kind of activity by one member of one
// community.
type Key struct {
	Kind        Kind
	CommunityID int64
	UserID      int64
}

type entry struct {
	lastAwardAt time.Time
	awarded     bool
	pending     bool
}

func (e *entry) eligible(window time.Duration, now time.Time) bool {
	if e == nil {
		return true
	}
	if e.pending {
		return false
	}
	return !e.awarded || now.Sub(e.lastAwardAt) >= window
}

func (e *entry) expired(window time.Duration, now time.Time) bool {
	return !e.pending && (!e.awarded || now.Sub(e.lastAwardAt) >= window)
}
