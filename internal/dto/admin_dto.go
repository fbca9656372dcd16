package dto

import "time"

// BonusRuleInputDTO is one automatic bonus rule in a reconfigure request.
type BonusRuleInputDTO struct {
	SolveRank  int     `json:"solve_rank" binding:"required,min=1"`
	PointValue float64 `json:"point_value" binding:"required"`
}

// ReconfigureBonusesDTO replaces the full rule set of a spec atomically.
type ReconfigureBonusesDTO struct {
	Rules []BonusRuleInputDTO `json:"rules" binding:"dive"`
}

// BonusRuleDTO is a configured rule as returned to admins.
type BonusRuleDTO struct {
	ID         uint    `json:"id"`
	SpecID     uint    `json:"spec_id"`
	SolveRank  int     `json:"solve_rank"`
	PointValue float64 `json:"point_value"`
}

// ManualBonusInputDTO creates a manual bonus against a challenge or a team.
// Exactly one of ChallengeID / TeamID must be set.
type ManualBonusInputDTO struct {
	ChallengeID     *uint   `json:"challenge_id,omitempty"`
	TeamID          *uint   `json:"team_id,omitempty"`
	GameID          uint    `json:"game_id" binding:"required"`
	Description     string  `json:"description" binding:"required"`
	PointValue      float64 `json:"point_value"`
	EnteredByUserID uint    `json:"entered_by_user_id" binding:"required"`
}

// UpdateScoreDTO sets a challenge attempt's base score.
type UpdateScoreDTO struct {
	Score float64 `json:"score"`
}

// CreateGameDTO creates a game shell for specs and attempts to hang off.
type CreateGameDTO struct {
	Name           string    `json:"name" binding:"required"`
	Competitive    bool      `json:"competitive"`
	GameStart      time.Time `json:"game_start" binding:"required"`
	GameEnd        time.Time `json:"game_end" binding:"required"`
	SessionMinutes int       `json:"session_minutes" binding:"required,min=1"`
}

// CreateSpecDTO adds a challenge spec to a game.
type CreateSpecDTO struct {
	Name      string  `json:"name" binding:"required"`
	MaxPoints float64 `json:"max_points" binding:"required"`
}

// DeployChallengeDTO creates a team's attempt of a spec.
type DeployChallengeDTO struct {
	TeamID uint `json:"team_id" binding:"required"`
	SpecID uint `json:"spec_id" binding:"required"`
}

// ErrorResponse is the uniform error envelope for all handlers.
type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
