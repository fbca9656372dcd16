package repository

import (
	"context"

	"github.com/ferrith/scorekeep/internal/model"
	"gorm.io/gorm"
)

type ManualBonusRepository interface {
	Create(ctx context.Context, bonus *model.ManualBonus) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.ManualBonus, error)
	ForChallenges(ctx context.Context, challengeIDs []uint) ([]model.ManualBonus, error)
	// ForTeam returns team-level bonuses only (challenge_id IS NULL).
	ForTeam(ctx context.Context, teamID, gameID uint) ([]model.ManualBonus, error)
	ForGame(ctx context.Context, gameID uint) ([]model.ManualBonus, error)
}

type manualBonusRepository struct {
	db *gorm.DB
}

func NewManualBonusRepository(db *gorm.DB) ManualBonusRepository {
	return &manualBonusRepository{db: db}
}

func (r *manualBonusRepository) Create(ctx context.Context, bonus *model.ManualBonus) error {
	return r.db.WithContext(ctx).Create(bonus).Error
}

func (r *manualBonusRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.ManualBonus{}, id).Error
}

func (r *manualBonusRepository) FindByID(ctx context.Context, id uint) (*model.ManualBonus, error) {
	var bonus model.ManualBonus
	if err := r.db.WithContext(ctx).First(&bonus, id).Error; err != nil {
		return nil, err
	}
	return &bonus, nil
}

func (r *manualBonusRepository) ForChallenges(ctx context.Context, challengeIDs []uint) ([]model.ManualBonus, error) {
	if len(challengeIDs) == 0 {
		return nil, nil
	}
	var bonuses []model.ManualBonus
	err := r.db.WithContext(ctx).
		Where("challenge_id IN ?", challengeIDs).
		Order("entered_on ASC").
		Find(&bonuses).Error
	return bonuses, err
}

func (r *manualBonusRepository) ForTeam(ctx context.Context, teamID, gameID uint) ([]model.ManualBonus, error) {
	var bonuses []model.ManualBonus
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND game_id = ? AND challenge_id IS NULL", teamID, gameID).
		Order("entered_on ASC").
		Find(&bonuses).Error
	return bonuses, err
}

func (r *manualBonusRepository) ForGame(ctx context.Context, gameID uint) ([]model.ManualBonus, error) {
	var bonuses []model.ManualBonus
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("entered_on ASC").
		Find(&bonuses).Error
	return bonuses, err
}
