package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ferrith/scorekeep/internal/dto"
	"github.com/ferrith/scorekeep/internal/model"
	"github.com/ferrith/scorekeep/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GameService is the thin CRUD surface for games and challenge specs. Real
// game administration lives in an external system; this is just enough to
// feed the scoring engine.
type GameService interface {
	CreateGame(ctx context.Context, req dto.CreateGameDTO) (*model.Game, error)
	GetGame(ctx context.Context, id uint) (*model.Game, error)
	CreateSpec(ctx context.Context, gameID uint, req dto.CreateSpecDTO) (*model.ChallengeSpec, error)
}

type gameService struct {
	gameRepo repository.GameRepository
}

func NewGameService(gameRepo repository.GameRepository) GameService {
	return &gameService{gameRepo: gameRepo}
}

func (s *gameService) CreateGame(ctx context.Context, req dto.CreateGameDTO) (*model.Game, error) {
	if !req.GameEnd.After(req.GameStart) {
		return nil, fmt.Errorf("game end must come after game start: %w", ErrInvalidGameWindow)
	}
	game := &model.Game{
		Name:           req.Name,
		Competitive:    req.Competitive,
		GameStart:      req.GameStart,
		GameEnd:        req.GameEnd,
		SessionMinutes: req.SessionMinutes,
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("creating game %q: %w", req.Name, err)
	}
	log.Info().Uint("gameID", game.ID).Str("name", game.Name).Bool("competitive", game.Competitive).
		Msg("game created")
	return game, nil
}

func (s *gameService) GetGame(ctx context.Context, id uint) (*model.Game, error) {
	game, err := s.gameRepo.FindByIDWithSpecs(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("loading game %d: %w", id, err)
	}
	return game, nil
}

func (s *gameService) CreateSpec(ctx context.Context, gameID uint, req dto.CreateSpecDTO) (*model.ChallengeSpec, error) {
	if req.MaxPoints <= 0 {
		return nil, fmt.Errorf("spec max points must be positive: %w", ErrNegativePointValue)
	}
	if _, err := s.gameRepo.FindByID(ctx, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("loading game %d: %w", gameID, err)
	}
	spec := &model.ChallengeSpec{
		GameID:    gameID,
		Name:      req.Name,
		MaxPoints: req.MaxPoints,
	}
	if err := s.gameRepo.CreateSpec(ctx, spec); err != nil {
		return nil, fmt.Errorf("creating spec %q: %w", req.Name, err)
	}
	return spec, nil
}
