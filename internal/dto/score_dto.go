package dto

import "time"

// AwardedBonusDTO is one consumed solve-rank bonus as shown in score views.
type AwardedBonusDTO struct {
	BonusID    uint    `json:"bonus_id"`
	SolveRank  int     `json:"solve_rank"`
	PointValue float64 `json:"point_value"`
}

// ManualBonusDTO is an administrator-entered adjustment as shown in score views.
type ManualBonusDTO struct {
	ID              uint      `json:"id"`
	Description     string    `json:"description"`
	PointValue      float64   `json:"point_value"`
	EnteredByUserID uint      `json:"entered_by_user_id"`
	EnteredOn       time.Time `json:"entered_on"`
}

// UnclaimedBonusDTO is a solve-rank bonus no team has earned yet, so clients
// can show "N points still available" per challenge.
type UnclaimedBonusDTO struct {
	BonusID    uint    `json:"bonus_id"`
	SolveRank  int     `json:"solve_rank"`
	PointValue float64 `json:"point_value"`
}

// TeamChallengeScoreDTO is the per-attempt score view: base points plus every
// bonus attached to the attempt. Recomputed from source rows on each read.
type TeamChallengeScoreDTO struct {
	ChallengeID  uint              `json:"challenge_id"`
	SpecID       uint              `json:"spec_id"`
	SpecName     string            `json:"spec_name"`
	TeamID       uint              `json:"team_id"`
	BaseScore    float64           `json:"base_score"`
	BonusScore   float64           `json:"bonus_score"`
	TotalScore   float64           `json:"total_score"`
	Result       string            `json:"result"`
	AutoBonuses  []AwardedBonusDTO `json:"auto_bonuses,omitempty"`
	ManualBonuses []ManualBonusDTO `json:"manual_bonuses,omitempty"`
}

// TeamGameScoreDTO is one team's standing within a game.
type TeamGameScoreDTO struct {
	TeamID           uint                    `json:"team_id"`
	GameID           uint                    `json:"game_id"`
	Rank             int                     `json:"rank,omitempty"`
	TotalScore       float64                 `json:"total_score"`
	CumulativeTimeMs int64                   `json:"cumulative_time_ms"`
	Challenges       []TeamChallengeScoreDTO `json:"challenges,omitempty"`
	TeamBonuses      []ManualBonusDTO        `json:"team_bonuses,omitempty"`
}

// SpecBonusStatusDTO reports, per challenge spec, which solve-rank bonuses
// are still up for grabs game-wide.
type SpecBonusStatusDTO struct {
	SpecID           uint                `json:"spec_id"`
	SpecName         string              `json:"spec_name"`
	UnclaimedBonuses []UnclaimedBonusDTO `json:"unclaimed_bonuses"`
}

// GameScoreDTO is the full scoreboard for a game.
type GameScoreDTO struct {
	GameID uint                 `json:"game_id"`
	Teams  []TeamGameScoreDTO   `json:"teams"`
	Specs  []SpecBonusStatusDTO `json:"specs,omitempty"`
}
