package repository

import (
	"context"

	"github.com/ferrith/scorekeep/internal/model"
	"gorm.io/gorm"
)

type GameRepository interface {
	Create(ctx context.Context, game *model.Game) error
	FindByID(ctx context.Context, id uint) (*model.Game, error)
	FindByIDWithSpecs(ctx context.Context, id uint) (*model.Game, error)
	CreateSpec(ctx context.Context, spec *model.ChallengeSpec) error
	FindSpecByID(ctx context.Context, id uint) (*model.ChallengeSpec, error)
}

type gameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

func (r *gameRepository) Create(ctx context.Context, game *model.Game) error {
	return r.db.WithContext(ctx).Create(game).Error
}

func (r *gameRepository) FindByID(ctx context.Context, id uint) (*model.Game, error) {
	var game model.Game
	if err := r.db.WithContext(ctx).First(&game, id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) FindByIDWithSpecs(ctx context.Context, id uint) (*model.Game, error) {
	var game model.Game
	err := r.db.WithContext(ctx).
		Preload("Specs", func(db *gorm.DB) *gorm.DB {
			return db.Order("challenge_specs.id ASC")
		}).
		Preload("Specs.Bonuses", func(db *gorm.DB) *gorm.DB {
			return db.Order("challenge_bonuses.solve_rank ASC")
		}).
		First(&game, id).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (r *gameRepository) CreateSpec(ctx context.Context, spec *model.ChallengeSpec) error {
	return r.db.WithContext(ctx).Create(spec).Error
}

func (r *gameRepository) FindSpecByID(ctx context.Context, id uint) (*model.ChallengeSpec, error) {
	var spec model.ChallengeSpec
	err := r.db.WithContext(ctx).
		Preload("Bonuses", func(db *gorm.DB) *gorm.DB {
			return db.Order("challenge_bonuses.solve_rank ASC")
		}).
		First(&spec, id).Error
	if err != nil {
		return nil, err
	}
	return &spec, nil
}
