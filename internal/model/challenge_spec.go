package model

import (
	"time"

	"gorm.io/gorm"
)

// ChallengeSpec is the template a team's Challenge is deployed from. It owns
// the automatic bonus rules for its solve ranks.
type ChallengeSpec struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	GameID    uint             `json:"game_id" gorm:"not null;index"`
	Name      string           `json:"name" gorm:"not null"`
	MaxPoints float64          `json:"max_points" gorm:"not null"`
	Bonuses   []ChallengeBonus `json:"bonuses,omitempty" gorm:"foreignKey:SpecID"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
}
