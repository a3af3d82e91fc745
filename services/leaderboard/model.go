package leaderboard

import (
	"community-points/pkg/db/pagination"
	"community-points/services/ledger"
)

type Entry struct {
	Position int64 `json:"position"`
	UserID   int64 `json:"user_id"`
	Points   int64 `json:"points"`
}

type Page struct {
	CommunityID int64                `json:"community_id"`
	Order       ledger.Order         `json:"order"`
	Entries     []Entry              `json:"entries"`
	PageInfo    *pagination.PageInfo `json:"page_info"`
}

// Standing is a member's score and rank. Rank is nil for members that were
// never awarded.
type Standing struct {
	UserID int64  `json:"user_id"`
	Points int64  `json:"points"`
	Rank   *int64 `json:"rank"`
}

func (p *Page) contains(userID int64) bool {
	for _, e := range p.Entries {
		if e.UserID == userID {
			return true
		}
	}
	return false
}
