package model

import (
	"time"

	"gorm.io/gorm"
)

// Game is the competition container. Competitive games award solve-rank
// bonuses; practice games never do.
type Game struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	Name           string          `json:"name" gorm:"not null;uniqueIndex"`
	Competitive    bool            `json:"competitive" gorm:"default:true"`
	GameStart      time.Time       `json:"game_start" gorm:"not null"`
	GameEnd        time.Time       `json:"game_end" gorm:"not null"`
	SessionMinutes int             `json:"session_minutes" gorm:"not null"`
	Specs          []ChallengeSpec `json:"specs,omitempty" gorm:"foreignKey:GameID"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}
