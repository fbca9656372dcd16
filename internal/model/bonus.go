package model

import (
	"time"

	"gorm.io/gorm"
)

// ChallengeBonus is an automatic solve-rank bonus rule: the SolveRank-th team
// to fully solve the owning spec earns PointValue extra points.
type ChallengeBonus struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	SpecID     uint           `json:"spec_id" gorm:"not null;uniqueIndex:idx_bonus_spec_rank"`
	SolveRank  int            `json:"solve_rank" gorm:"not null;uniqueIndex:idx_bonus_spec_rank"`
	PointValue float64        `json:"point_value" gorm:"not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// AwardedBonus links a ChallengeBonus to the Challenge that consumed it.
// The unique index on ChallengeBonusID is the exactly-once guarantee: two
// concurrent solvers can both attempt the insert, the database admits one.
type AwardedBonus struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	ChallengeBonusID uint           `json:"challenge_bonus_id" gorm:"not null;uniqueIndex"`
	ChallengeID      uint           `json:"challenge_id" gorm:"not null;index"`
	Bonus            ChallengeBonus `json:"bonus,omitempty" gorm:"foreignKey:ChallengeBonusID"`
	CreatedAt        time.Time      `json:"created_at"`
}

// ManualBonus is an administrator-entered adjustment attached either to a
// single challenge or to a team as a whole. Append-only; no update path.
type ManualBonus struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	ChallengeID     *uint     `json:"challenge_id,omitempty" gorm:"index"`
	TeamID          *uint     `json:"team_id,omitempty" gorm:"index"`
	GameID          uint      `json:"game_id" gorm:"not null;index"`
	Description     string    `json:"description" gorm:"not null"`
	PointValue      float64   `json:"point_value" gorm:"not null"`
	EnteredByUserID uint      `json:"entered_by_user_id" gorm:"not null"`
	EnteredOn       time.Time `json:"entered_on" gorm:"autoCreateTime"`
}
