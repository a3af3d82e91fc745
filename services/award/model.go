package award

import (
	"time"

	"community-points/services/cooldown"
)

// Activity is one message or reaction reported by the chat transport.
type Activity struct {
	Kind        cooldown.Kind `json:"kind"`
	CommunityID int64         `json:"community_id"`
	UserID      int64         `json:"user_id"`
	Bot         bool          `json:"bot"`
	Direct      bool          `json:"direct"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

type Outcome string

const (
	OutcomeRejected Outcome = "rejected"
	OutcomeCooldown Outcome = "cooldown"
	OutcomeAwarded  Outcome = "awarded"
	OutcomeFailed   Outcome = "failed"
)

type Result struct {
	Outcome Outcome `json:"outcome"`
	Value   int64   `json:"value"`
	Points  int64   `json:"points"`
}

// Range is the inclusive interval an award value is drawn from.
type Range struct {
	Min int64
	Max int64
}
