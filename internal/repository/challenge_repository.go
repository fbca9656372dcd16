package repository

import (
	"context"
	"time"

	"github.com/ferrith/scorekeep/internal/model"
	"gorm.io/gorm"
)

type ChallengeRepository interface {
	// WithTx rebinds the repository to a transaction handle so callers can
	// group writes atomically.
	WithTx(tx *gorm.DB) ChallengeRepository

	Create(ctx context.Context, challenge *model.Challenge) error
	FindByID(ctx context.Context, id uint) (*model.Challenge, error)
	FindByIDWithGameAndSpec(ctx context.Context, id uint) (*model.Challenge, error)
	// FindSolvedSiblings returns fully-solved attempts of the same spec in the
	// same game belonging to other teams.
	FindSolvedSiblings(ctx context.Context, specID, gameID, excludeTeamID uint) ([]model.Challenge, error)
	FindByGame(ctx context.Context, gameID uint) ([]model.Challenge, error)
	FindByTeamAndGame(ctx context.Context, teamID, gameID uint) ([]model.Challenge, error)
	UpdateScore(ctx context.Context, id uint, score float64, lastScoreTime time.Time, result model.ChallengeResult) error
}

type challengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) WithTx(tx *gorm.DB) ChallengeRepository {
	if tx == nil {
		return r
	}
	return &challengeRepository{db: tx}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *challengeRepository) FindByID(ctx context.Context, id uint) (*model.Challenge, error) {
	var challenge model.Challenge
	if err := r.db.WithContext(ctx).First(&challenge, id).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) FindByIDWithGameAndSpec(ctx context.Context, id uint) (*model.Challenge, error) {
	var challenge model.Challenge
	err := r.db.WithContext(ctx).
		Preload("Game").
		Preload("Spec.Bonuses", func(db *gorm.DB) *gorm.DB {
			return db.Order("challenge_bonuses.solve_rank ASC")
		}).
		Preload("Spec").
		First(&challenge, id).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) FindSolvedSiblings(ctx context.Context, specID, gameID, excludeTeamID uint) ([]model.Challenge, error) {
	var siblings []model.Challenge
	err := r.db.WithContext(ctx).
		Where("spec_id = ? AND game_id = ? AND team_id <> ? AND result = ?",
			specID, gameID, excludeTeamID, model.ResultSuccess).
		Order("last_score_time ASC").
		Find(&siblings).Error
	return siblings, err
}

func (r *challengeRepository) FindByGame(ctx context.Context, gameID uint) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.db.WithContext(ctx).
		Preload("Spec").
		Where("game_id = ?", gameID).
		Order("id ASC").
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) FindByTeamAndGame(ctx context.Context, teamID, gameID uint) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.db.WithContext(ctx).
		Preload("Spec").
		Where("team_id = ? AND game_id = ?", teamID, gameID).
		Order("id ASC").
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) UpdateScore(ctx context.Context, id uint, score float64, lastScoreTime time.Time, result model.ChallengeResult) error {
	return r.db.WithContext(ctx).
		Model(&model.Challenge{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":           score,
			"last_score_time": lastScoreTime,
			"result":          result,
		}).Error
}
