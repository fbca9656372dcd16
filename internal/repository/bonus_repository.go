package repository

import (
	"context"

	"github.com/ferrith/scorekeep/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BonusRepository interface {
	WithTx(tx *gorm.DB) BonusRepository

	// RulesForSpec returns the spec's rules ordered by solve rank ascending.
	RulesForSpec(ctx context.Context, specID uint) ([]model.ChallengeBonus, error)
	AwardsForSpec(ctx context.Context, specID uint) ([]model.AwardedBonus, error)
	AwardsForChallenges(ctx context.Context, challengeIDs []uint) ([]model.AwardedBonus, error)
	HasAwardsForSpec(ctx context.Context, specID uint) (bool, error)
	// InsertAwardIfUnclaimed inserts the award unless the rule is already
	// consumed. Returns false when the unique index rejected the row, i.e.
	// another team won the race.
	InsertAwardIfUnclaimed(ctx context.Context, award *model.AwardedBonus) (bool, error)
	// ReplaceRulesForSpec swaps the spec's entire rule set in one statement
	// batch. Callers must hold a transaction and have checked the award guard.
	ReplaceRulesForSpec(ctx context.Context, specID uint, rules []model.ChallengeBonus) error
}

type bonusRepository struct {
	db *gorm.DB
}

func NewBonusRepository(db *gorm.DB) BonusRepository {
	return &bonusRepository{db: db}
}

func (r *bonusRepository) WithTx(tx *gorm.DB) BonusRepository {
	if tx == nil {
		return r
	}
	return &bonusRepository{db: tx}
}

func (r *bonusRepository) RulesForSpec(ctx context.Context, specID uint) ([]model.ChallengeBonus, error) {
	var rules []model.ChallengeBonus
	err := r.db.WithContext(ctx).
		Where("spec_id = ?", specID).
		Order("solve_rank ASC").
		Find(&rules).Error
	return rules, err
}

func (r *bonusRepository) AwardsForSpec(ctx context.Context, specID uint) ([]model.AwardedBonus, error) {
	var awards []model.AwardedBonus
	err := r.db.WithContext(ctx).
		Preload("Bonus").
		Joins("JOIN challenge_bonuses ON challenge_bonuses.id = awarded_bonuses.challenge_bonus_id").
		Where("challenge_bonuses.spec_id = ?", specID).
		Find(&awards).Error
	return awards, err
}

func (r *bonusRepository) AwardsForChallenges(ctx context.Context, challengeIDs []uint) ([]model.AwardedBonus, error) {
	if len(challengeIDs) == 0 {
		return nil, nil
	}
	var awards []model.AwardedBonus
	err := r.db.WithContext(ctx).
		Preload("Bonus").
		Where("challenge_id IN ?", challengeIDs).
		Find(&awards).Error
	return awards, err
}

func (r *bonusRepository) HasAwardsForSpec(ctx context.Context, specID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AwardedBonus{}).
		Joins("JOIN challenge_bonuses ON challenge_bonuses.id = awarded_bonuses.challenge_bonus_id").
		Where("challenge_bonuses.spec_id = ?", specID).
		Count(&count).Error
	return count > 0, err
}

func (r *bonusRepository) InsertAwardIfUnclaimed(ctx context.Context, award *model.AwardedBonus) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "challenge_bonus_id"}},
			DoNothing: true,
		}).
		Create(award)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bonusRepository) ReplaceRulesForSpec(ctx context.Context, specID uint, rules []model.ChallengeBonus) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Unscoped().Where("spec_id = ?", specID).Delete(&model.ChallengeBonus{}).Error; err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}
	return tx.Create(&rules).Error
}
