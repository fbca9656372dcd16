package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ferrith/scorekeep/internal/dto"
	"github.com/ferrith/scorekeep/internal/model"
	"github.com/ferrith/scorekeep/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ScoreAggregatorService composes read-only score views. Nothing is cached:
// every view is recomputed from challenge, manual-bonus, and awarded-bonus
// rows on each call, so views can never go stale.
type ScoreAggregatorService interface {
	GetChallengeScore(ctx context.Context, challengeID uint) (*dto.TeamChallengeScoreDTO, error)
	GetTeamGameScore(ctx context.Context, teamID, gameID uint) (*dto.TeamGameScoreDTO, error)
	GetGameScore(ctx context.Context, gameID uint) (*dto.GameScoreDTO, error)
}

type scoreAggregatorService struct {
	challengeRepo   repository.ChallengeRepository
	bonusRepo       repository.BonusRepository
	manualBonusRepo repository.ManualBonusRepository
	gameRepo        repository.GameRepository
	timeService     TimeService
}

func NewScoreAggregatorService(
	challengeRepo repository.ChallengeRepository,
	bonusRepo repository.BonusRepository,
	manualBonusRepo repository.ManualBonusRepository,
	gameRepo repository.GameRepository,
	timeService TimeService,
) ScoreAggregatorService {
	return &scoreAggregatorService{
		challengeRepo:   challengeRepo,
		bonusRepo:       bonusRepo,
		manualBonusRepo: manualBonusRepo,
		gameRepo:        gameRepo,
		timeService:     timeService,
	}
}

func (s *scoreAggregatorService) GetChallengeScore(ctx context.Context, challengeID uint) (*dto.TeamChallengeScoreDTO, error) {
	challenge, err := s.challengeRepo.FindByIDWithGameAndSpec(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("loading challenge %d: %w", challengeID, err)
	}

	awards, err := s.bonusRepo.AwardsForChallenges(ctx, []uint{challenge.ID})
	if err != nil {
		return nil, fmt.Errorf("loading awards of challenge %d: %w", challenge.ID, err)
	}
	manual, err := s.manualBonusRepo.ForChallenges(ctx, []uint{challenge.ID})
	if err != nil {
		return nil, fmt.Errorf("loading manual bonuses of challenge %d: %w", challenge.ID, err)
	}

	view := buildChallengeScore(challenge, awards, manual)
	return &view, nil
}

func (s *scoreAggregatorService) GetTeamGameScore(ctx context.Context, teamID, gameID uint) (*dto.TeamGameScoreDTO, error) {
	if _, err := s.gameRepo.FindByID(ctx, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("loading game %d: %w", gameID, err)
	}

	challenges, err := s.challengeRepo.FindByTeamAndGame(ctx, teamID, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading challenges of team %d: %w", teamID, err)
	}
	ids := challengeIDs(challenges)
	awards, err := s.bonusRepo.AwardsForChallenges(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading awards for team %d: %w", teamID, err)
	}
	challengeBonuses, err := s.manualBonusRepo.ForChallenges(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading challenge bonuses for team %d: %w", teamID, err)
	}
	teamBonuses, err := s.manualBonusRepo.ForTeam(ctx, teamID, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading team bonuses for team %d: %w", teamID, err)
	}

	view := buildTeamGameScore(teamID, gameID, challenges, awards, challengeBonuses, teamBonuses)
	cumulative, err := s.timeService.TeamCumulativeTimeMs(ctx, teamID, gameID)
	if err != nil {
		return nil, err
	}
	view.CumulativeTimeMs = cumulative
	return &view, nil
}

func (s *scoreAggregatorService) GetGameScore(ctx context.Context, gameID uint) (*dto.GameScoreDTO, error) {
	game, err := s.gameRepo.FindByIDWithSpecs(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("loading game %d: %w", gameID, err)
	}

	challenges, err := s.challengeRepo.FindByGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading challenges of game %d: %w", gameID, err)
	}
	awards, err := s.bonusRepo.AwardsForChallenges(ctx, challengeIDs(challenges))
	if err != nil {
		return nil, fmt.Errorf("loading awards of game %d: %w", gameID, err)
	}
	manual, err := s.manualBonusRepo.ForGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("loading manual bonuses of game %d: %w", gameID, err)
	}

	byTeam := make(map[uint][]model.Challenge)
	for _, c := range challenges {
		byTeam[c.TeamID] = append(byTeam[c.TeamID], c)
	}
	var challengeBonuses, teamBonuses []model.ManualBonus
	teamBonusOwners := make(map[uint][]model.ManualBonus)
	for _, mb := range manual {
		if mb.ChallengeID != nil {
			challengeBonuses = append(challengeBonuses, mb)
		} else if mb.TeamID != nil {
			teamBonuses = append(teamBonuses, mb)
			teamBonusOwners[*mb.TeamID] = append(teamBonusOwners[*mb.TeamID], mb)
		}
	}

	teams := make([]dto.TeamGameScoreDTO, 0, len(byTeam))
	for teamID, teamChallenges := range byTeam {
		view := buildTeamGameScore(teamID, gameID, teamChallenges, awards, challengeBonuses, teamBonusOwners[teamID])
		cumulative, err := s.timeService.TeamCumulativeTimeMs(ctx, teamID, gameID)
		if err != nil {
			return nil, err
		}
		view.CumulativeTimeMs = cumulative
		teams = append(teams, view)
	}
	// Teams with only team-level bonuses and no deployed challenges still rank.
	for teamID, bonuses := range teamBonusOwners {
		if _, seen := byTeam[teamID]; seen {
			continue
		}
		view := buildTeamGameScore(teamID, gameID, nil, nil, nil, bonuses)
		teams = append(teams, view)
	}

	rankTeams(teams)

	specs := buildSpecBonusStatus(game.Specs, awards)
	log.Debug().Uint("gameID", gameID).Int("teams", len(teams)).Msg("game score computed")
	return &dto.GameScoreDTO{GameID: gameID, Teams: teams, Specs: specs}, nil
}

func challengeIDs(challenges []model.Challenge) []uint {
	ids := make([]uint, 0, len(challenges))
	for _, c := range challenges {
		ids = append(ids, c.ID)
	}
	return ids
}

func buildChallengeScore(challenge *model.Challenge, awards []model.AwardedBonus, manual []model.ManualBonus) dto.TeamChallengeScoreDTO {
	view := dto.TeamChallengeScoreDTO{
		ChallengeID: challenge.ID,
		SpecID:      challenge.SpecID,
		SpecName:    challenge.Spec.Name,
		TeamID:      challenge.TeamID,
		BaseScore:   challenge.Score,
		Result:      string(challenge.Result),
	}
	for _, a := range awards {
		if a.ChallengeID != challenge.ID {
			continue
		}
		view.BonusScore += a.Bonus.PointValue
		view.AutoBonuses = append(view.AutoBonuses, dto.AwardedBonusDTO{
			BonusID:    a.ChallengeBonusID,
			SolveRank:  a.Bonus.SolveRank,
			PointValue: a.Bonus.PointValue,
		})
	}
	for _, mb := range manual {
		if mb.ChallengeID == nil || *mb.ChallengeID != challenge.ID {
			continue
		}
		view.BonusScore += mb.PointValue
		view.ManualBonuses = append(view.ManualBonuses, dto.ManualBonusDTO{
			ID:              mb.ID,
			Description:     mb.Description,
			PointValue:      mb.PointValue,
			EnteredByUserID: mb.EnteredByUserID,
			EnteredOn:       mb.EnteredOn,
		})
	}
	view.TotalScore = view.BaseScore + view.BonusScore
	return view
}

func buildTeamGameScore(
	teamID, gameID uint,
	challenges []model.Challenge,
	awards []model.AwardedBonus,
	challengeBonuses []model.ManualBonus,
	teamBonuses []model.ManualBonus,
) dto.TeamGameScoreDTO {
	view := dto.TeamGameScoreDTO{TeamID: teamID, GameID: gameID}
	for i := range challenges {
		cs := buildChallengeScore(&challenges[i], awards, challengeBonuses)
		view.TotalScore += cs.TotalScore
		view.Challenges = append(view.Challenges, cs)
	}
	for _, mb := range teamBonuses {
		if mb.TeamID == nil || *mb.TeamID != teamID {
			continue
		}
		view.TotalScore += mb.PointValue
		view.TeamBonuses = append(view.TeamBonuses, dto.ManualBonusDTO{
			ID:              mb.ID,
			Description:     mb.Description,
			PointValue:      mb.PointValue,
			EnteredByUserID: mb.EnteredByUserID,
			EnteredOn:       mb.EnteredOn,
		})
	}
	return view
}

// rankTeams orders by total score descending, cumulative time ascending, then
// team ID ascending, and stamps 1-based ranks.
func rankTeams(teams []dto.TeamGameScoreDTO) {
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].TotalScore != teams[j].TotalScore {
			return teams[i].TotalScore > teams[j].TotalScore
		}
		if teams[i].CumulativeTimeMs != teams[j].CumulativeTimeMs {
			return teams[i].CumulativeTimeMs < teams[j].CumulativeTimeMs
		}
		return teams[i].TeamID < teams[j].TeamID
	})
	for i := range teams {
		teams[i].Rank = i + 1
	}
}

// buildSpecBonusStatus lists, per spec, the rules no team has claimed yet. A
// rule is unclaimed game-wide or not at all.
func buildSpecBonusStatus(specs []model.ChallengeSpec, awards []model.AwardedBonus) []dto.SpecBonusStatusDTO {
	claimed := make(map[uint]bool, len(awards))
	for _, a := range awards {
		claimed[a.ChallengeBonusID] = true
	}
	statuses := make([]dto.SpecBonusStatusDTO, 0, len(specs))
	for _, spec := range specs {
		status := dto.SpecBonusStatusDTO{
			SpecID:           spec.ID,
			SpecName:         spec.Name,
			UnclaimedBonuses: []dto.UnclaimedBonusDTO{},
		}
		for _, rule := range spec.Bonuses {
			if claimed[rule.ID] {
				continue
			}
			status.UnclaimedBonuses = append(status.UnclaimedBonuses, dto.UnclaimedBonusDTO{
				BonusID:    rule.ID,
				SolveRank:  rule.SolveRank,
				PointValue: rule.PointValue,
			})
		}
		statuses = append(statuses, status)
	}
	return statuses
}
