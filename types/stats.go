package types

import "time"

type CollectionStats struct {
	LastUpdate    time.Time `json:"last_update"`
	LastHumanTime string    `json:"last_human_time,omitempty"`
	TotalPolls    int64     `json:"total_polls"`
	Matches       int64     `json:"matches"`
	Applied       int64     `json:"applied"`
	NoMatch       int64     `json:"no_match"`
	ParseErrors   int64     `json:"parse_errors"`
	FetchErrors   int64     `json:"fetch_errors"`
	ActiveMission string    `json:"active_mission"`
	StartTime     time.Time `json:"start_time"`
}
