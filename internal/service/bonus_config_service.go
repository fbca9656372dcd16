package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ferrith/scorekeep/internal/dto"
	"github.com/ferrith/scorekeep/internal/model"
	"github.com/ferrith/scorekeep/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// BonusConfigService manages the automatic bonus rule sets and manual
// bonuses. Authorization happens upstream; this service enforces the
// data-level invariants only: positive point values, unique 1-based solve
// ranks, and no reconfiguration once any rule has been consumed.
type BonusConfigService interface {
	ReconfigureSpecBonuses(ctx context.Context, specID uint, req dto.ReconfigureBonusesDTO) ([]dto.BonusRuleDTO, error)
	ListSpecBonuses(ctx context.Context, specID uint) ([]dto.BonusRuleDTO, error)
	AddManualBonus(ctx context.Context, req dto.ManualBonusInputDTO) (*model.ManualBonus, error)
	DeleteManualBonus(ctx context.Context, id uint) error
	ListManualBonuses(ctx context.Context, teamID, gameID uint) ([]dto.ManualBonusDTO, error)
}

type bonusConfigService struct {
	bonusRepo       repository.BonusRepository
	manualBonusRepo repository.ManualBonusRepository
	gameRepo        repository.GameRepository
	challengeRepo   repository.ChallengeRepository
	transactor      repository.Transactor
	clock           Clock
}

func NewBonusConfigService(
	bonusRepo repository.BonusRepository,
	manualBonusRepo repository.ManualBonusRepository,
	gameRepo repository.GameRepository,
	challengeRepo repository.ChallengeRepository,
	transactor repository.Transactor,
	clock Clock,
) BonusConfigService {
	return &bonusConfigService{
		bonusRepo:       bonusRepo,
		manualBonusRepo: manualBonusRepo,
		gameRepo:        gameRepo,
		challengeRepo:   challengeRepo,
		transactor:      transactor,
		clock:           clock,
	}
}

// ReconfigureSpecBonuses atomically replaces the spec's whole rule set. The
// replace is forbidden once any rule under the spec has an award: granted
// bonuses are immutable facts about the game's history.
func (s *bonusConfigService) ReconfigureSpecBonuses(ctx context.Context, specID uint, req dto.ReconfigureBonusesDTO) ([]dto.BonusRuleDTO, error) {
	if _, err := s.gameRepo.FindSpecByID(ctx, specID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecNotFound
		}
		return nil, fmt.Errorf("loading spec %d: %w", specID, err)
	}

	seenRanks := make(map[int]bool, len(req.Rules))
	rules := make([]model.ChallengeBonus, 0, len(req.Rules))
	for _, in := range req.Rules {
		if in.PointValue <= 0 {
			return nil, fmt.Errorf("bonus for solve rank %d: %w", in.SolveRank, ErrNegativePointValue)
		}
		if in.SolveRank < 1 || seenRanks[in.SolveRank] {
			return nil, ErrInvalidSolveRank
		}
		seenRanks[in.SolveRank] = true
		rules = append(rules, model.ChallengeBonus{
			SpecID:     specID,
			SolveRank:  in.SolveRank,
			PointValue: in.PointValue,
		})
	}

	err := s.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		bonusRepo := s.bonusRepo.WithTx(tx)
		awarded, err := bonusRepo.HasAwardsForSpec(ctx, specID)
		if err != nil {
			return fmt.Errorf("checking awards for spec %d: %w", specID, err)
		}
		if awarded {
			return ErrBonusAlreadyAwarded
		}
		return bonusRepo.ReplaceRulesForSpec(ctx, specID, rules)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("specID", specID).Int("ruleCount", len(rules)).Msg("bonus rules reconfigured")
	return s.ListSpecBonuses(ctx, specID)
}

func (s *bonusConfigService) ListSpecBonuses(ctx context.Context, specID uint) ([]dto.BonusRuleDTO, error) {
	rules, err := s.bonusRepo.RulesForSpec(ctx, specID)
	if err != nil {
		return nil, fmt.Errorf("loading rules for spec %d: %w", specID, err)
	}
	dtos := make([]dto.BonusRuleDTO, 0, len(rules))
	if err := copier.Copy(&dtos, rules); err != nil {
		return nil, fmt.Errorf("mapping bonus rules of spec %d: %w", specID, err)
	}
	return dtos, nil
}

// AddManualBonus appends an administrator adjustment. Manual bonuses are
// records, never mutations: there is no update path, only add and delete.
func (s *bonusConfigService) AddManualBonus(ctx context.Context, req dto.ManualBonusInputDTO) (*model.ManualBonus, error) {
	if (req.ChallengeID == nil) == (req.TeamID == nil) {
		return nil, ErrInvalidManualBonusTarget
	}
	if req.ChallengeID != nil {
		challenge, err := s.challengeRepo.FindByID(ctx, *req.ChallengeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrChallengeNotFound
			}
			return nil, fmt.Errorf("loading challenge %d: %w", *req.ChallengeID, err)
		}
		if challenge.GameID != req.GameID {
			return nil, fmt.Errorf("challenge %d is not part of game %d: %w", challenge.ID, req.GameID, ErrChallengeNotFound)
		}
	} else if _, err := s.gameRepo.FindByID(ctx, req.GameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("loading game %d: %w", req.GameID, err)
	}

	bonus := &model.ManualBonus{
		ChallengeID:     req.ChallengeID,
		TeamID:          req.TeamID,
		GameID:          req.GameID,
		Description:     req.Description,
		PointValue:      req.PointValue,
		EnteredByUserID: req.EnteredByUserID,
		EnteredOn:       s.clock.Now(),
	}
	if err := s.manualBonusRepo.Create(ctx, bonus); err != nil {
		return nil, fmt.Errorf("creating manual bonus: %w", err)
	}
	log.Info().Uint("bonusID", bonus.ID).Float64("pointValue", bonus.PointValue).
		Uint("enteredBy", bonus.EnteredByUserID).Msg("manual bonus entered")
	return bonus, nil
}

func (s *bonusConfigService) DeleteManualBonus(ctx context.Context, id uint) error {
	if _, err := s.manualBonusRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBonusNotFound
		}
		return fmt.Errorf("loading manual bonus %d: %w", id, err)
	}
	return s.manualBonusRepo.Delete(ctx, id)
}

func (s *bonusConfigService) ListManualBonuses(ctx context.Context, teamID, gameID uint) ([]dto.ManualBonusDTO, error) {
	bonuses, err := s.manualBonusRepo.ForTeam(ctx, teamID, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading manual bonuses for team %d: %w", teamID, err)
	}
	dtos := make([]dto.ManualBonusDTO, 0, len(bonuses))
	for _, b := range bonuses {
		dtos = append(dtos, dto.ManualBonusDTO{
			ID:              b.ID,
			Description:     b.Description,
			PointValue:      b.PointValue,
			EnteredByUserID: b.EnteredByUserID,
			EnteredOn:       b.EnteredOn,
		})
	}
	return dtos, nil
}
