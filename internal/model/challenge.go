package model

import (
	"time"

	"gorm.io/gorm"
)

// ChallengeResult describes how far a team's attempt has progressed.
type ChallengeResult string

const (
	ResultNone    ChallengeResult = "none"
	ResultPartial ChallengeResult = "partial"
	ResultSuccess ChallengeResult = "success"
)

// Challenge is one team's deployed instance of a ChallengeSpec. Score is
// mutated only through the score-update operation; rows are never deleted
// while their game exists.
type Challenge struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	TeamID        uint            `json:"team_id" gorm:"not null;index:idx_challenges_team_game"`
	SpecID        uint            `json:"spec_id" gorm:"not null;index:idx_challenges_spec_game"`
	GameID        uint            `json:"game_id" gorm:"not null;index:idx_challenges_spec_game;index:idx_challenges_team_game"`
	Spec          ChallengeSpec   `json:"spec,omitempty" gorm:"foreignKey:SpecID"`
	Game          Game            `json:"game,omitempty" gorm:"foreignKey:GameID"`
	Score         float64         `json:"score" gorm:"not null;default:0"`
	StartTime     *time.Time      `json:"start_time,omitempty"`
	LastScoreTime *time.Time      `json:"last_score_time,omitempty"`
	Result        ChallengeResult `json:"result" gorm:"default:'none'"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// FullySolved reports whether this attempt has reached its spec's maximum.
func (c *Challenge) FullySolved(spec *ChallengeSpec) bool {
	return c.Result == ResultSuccess && c.Score >= spec.MaxPoints
}

// TeamChallengeTime is the input projection for cumulative-time accounting.
// Unset sentinels (nil times) contribute nothing to a sum.
type TeamChallengeTime struct {
	TeamID        uint
	ChallengeID   uint
	StartTime     *time.Time
	LastScoreTime *time.Time
}
