package dto

import "time"

// SessionWindowDTO is the computed play window for a team session. It is a
// value object only; persisted session fields live on the external team
// record. LengthInMinutes is truncated toward zero.
type SessionWindowDTO struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	LengthInMinutes int       `json:"length_in_minutes"`
	IsLateStart     bool      `json:"is_late_start"`
}

// SessionWindowRequest asks for the window a session starting now (or at the
// given instant) would get.
type SessionWindowRequest struct {
	SessionStart  *time.Time `json:"session_start,omitempty"`
	AdminOverride bool       `json:"admin_override"`
}

// CumulativeTimeDTO is a team's summed active engagement time.
type CumulativeTimeDTO struct {
	TeamID           uint  `json:"team_id"`
	GameID           uint  `json:"game_id"`
	CumulativeTimeMs int64 `json:"cumulative_time_ms"`
}
