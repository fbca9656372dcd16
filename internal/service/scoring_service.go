package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ferrith/scorekeep/internal/dto"
	"github.com/ferrith/scorekeep/internal/model"
	"github.com/ferrith/scorekeep/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ScoringService owns the score-update operation: it persists a challenge's
// base score and, when the attempt becomes fully solved in a competitive
// game, hands out the next unclaimed solve-rank bonus. The exactly-once
// guarantee for awards rests on the unique index over
// awarded_bonuses.challenge_bonus_id; a lost insert race is a benign no-op,
// never an error for the losing team.
type ScoringService interface {
	UpdateChallengeScore(ctx context.Context, challengeID uint, newScore float64) (*model.Challenge, error)
	DeployChallenge(ctx context.Context, gameID uint, req dto.DeployChallengeDTO) (*model.Challenge, error)
}

type scoringService struct {
	challengeRepo repository.ChallengeRepository
	bonusRepo     repository.BonusRepository
	gameRepo      repository.GameRepository
	transactor    repository.Transactor
	clock         Clock
	notifier      ScoreNotifier
}

func NewScoringService(
	challengeRepo repository.ChallengeRepository,
	bonusRepo repository.BonusRepository,
	gameRepo repository.GameRepository,
	transactor repository.Transactor,
	clock Clock,
	notifier ScoreNotifier,
) ScoringService {
	return &scoringService{
		challengeRepo: challengeRepo,
		bonusRepo:     bonusRepo,
		gameRepo:      gameRepo,
		transactor:    transactor,
		clock:         clock,
		notifier:      notifier,
	}
}

// DeployChallenge creates a team's attempt of a spec with its start time
// stamped. Scores always begin at zero.
func (s *scoringService) DeployChallenge(ctx context.Context, gameID uint, req dto.DeployChallengeDTO) (*model.Challenge, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("loading game %d: %w", gameID, err)
	}
	spec, err := s.gameRepo.FindSpecByID(ctx, req.SpecID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecNotFound
		}
		return nil, fmt.Errorf("loading spec %d: %w", req.SpecID, err)
	}
	if spec.GameID != game.ID {
		return nil, fmt.Errorf("spec %d does not belong to game %d: %w", spec.ID, game.ID, ErrSpecNotFound)
	}

	now := s.clock.Now()
	challenge := &model.Challenge{
		TeamID:    req.TeamID,
		SpecID:    spec.ID,
		GameID:    game.ID,
		Score:     0,
		StartTime: &now,
		Result:    model.ResultNone,
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("creating challenge for team %d, spec %d: %w", req.TeamID, spec.ID, err)
	}
	log.Info().Uint("teamID", req.TeamID).Uint("specID", spec.ID).Uint("gameID", game.ID).
		Uint("challengeID", challenge.ID).Msg("challenge deployed")
	return challenge, nil
}

// UpdateChallengeScore sets the attempt's base score. Validation failures
// (negative score, protected rescore) are rejected before anything is
// written; the write and any resulting bonus award commit atomically.
func (s *scoringService) UpdateChallengeScore(ctx context.Context, challengeID uint, newScore float64) (*model.Challenge, error) {
	if newScore < 0 {
		return nil, ErrNegativePointValue
	}

	challenge, err := s.challengeRepo.FindByIDWithGameAndSpec(ctx, challengeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("loading challenge %d: %w", challengeID, err)
	}

	if newScore < challenge.Score {
		protected, err := s.holdsNonZeroAward(ctx, challenge.ID)
		if err != nil {
			return nil, err
		}
		if protected {
			return nil, ErrScoreDecreaseWithBonus
		}
	}

	// Scores above the spec max count as the max; anything at the max is a
	// full solve.
	score := newScore
	if score > challenge.Spec.MaxPoints {
		score = challenge.Spec.MaxPoints
	}
	result := model.ResultPartial
	switch {
	case score >= challenge.Spec.MaxPoints && challenge.Spec.MaxPoints > 0:
		result = model.ResultSuccess
	case score == 0:
		result = model.ResultNone
	}

	now := s.clock.Now()
	err = s.transactor.Transaction(ctx, func(tx *gorm.DB) error {
		challengeRepo := s.challengeRepo.WithTx(tx)
		bonusRepo := s.bonusRepo.WithTx(tx)

		if err := challengeRepo.UpdateScore(ctx, challenge.ID, score, now, result); err != nil {
			return fmt.Errorf("updating score of challenge %d: %w", challenge.ID, err)
		}
		if result == model.ResultSuccess && challenge.Game.Competitive {
			if err := s.awardSolveRankBonus(ctx, challengeRepo, bonusRepo, challenge, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyTeamScoreChanged(ctx, challenge.TeamID, challenge.GameID)

	updated, err := s.challengeRepo.FindByIDWithGameAndSpec(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading challenge %d: %w", challenge.ID, err)
	}
	return updated, nil
}

func (s *scoringService) holdsNonZeroAward(ctx context.Context, challengeID uint) (bool, error) {
	awards, err := s.bonusRepo.AwardsForChallenges(ctx, []uint{challengeID})
	if err != nil {
		return false, fmt.Errorf("loading awards of challenge %d: %w", challengeID, err)
	}
	for _, a := range awards {
		if a.Bonus.PointValue > 0 {
			return true, nil
		}
	}
	return false, nil
}

// awardSolveRankBonus hands the attempt the next unclaimed bonus rule if its
// solve ordinal matches that rule's rank. Elapsed solve time is measured from
// the game start, not wall clock; equal elapsed times order by challenge ID.
func (s *scoringService) awardSolveRankBonus(
	ctx context.Context,
	challengeRepo repository.ChallengeRepository,
	bonusRepo repository.BonusRepository,
	challenge *model.Challenge,
	scoredAt time.Time,
) error {
	rules := challenge.Spec.Bonuses
	if len(rules) == 0 {
		return nil
	}

	awards, err := bonusRepo.AwardsForSpec(ctx, challenge.SpecID)
	if err != nil {
		return fmt.Errorf("loading awards for spec %d: %w", challenge.SpecID, err)
	}
	claimed := make(map[uint]bool, len(awards))
	holders := make(map[uint]bool, len(awards))
	for _, a := range awards {
		claimed[a.ChallengeBonusID] = true
		holders[a.ChallengeID] = true
	}
	// Re-running the check for a team that already holds an award must not
	// mint a second one.
	if holders[challenge.ID] {
		return nil
	}

	siblings, err := challengeRepo.FindSolvedSiblings(ctx, challenge.SpecID, challenge.GameID, challenge.TeamID)
	if err != nil {
		return fmt.Errorf("loading solved siblings of spec %d: %w", challenge.SpecID, err)
	}
	sort.Slice(siblings, func(i, j int) bool {
		ti, tj := siblings[i].LastScoreTime, siblings[j].LastScoreTime
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		if ti.Equal(*tj) {
			return siblings[i].ID < siblings[j].ID
		}
		return ti.Before(*tj)
	})

	ourElapsed := scoredAt.Sub(challenge.Game.GameStart)
	ordinal := 1
	for _, sib := range siblings {
		if !holders[sib.ID] || sib.LastScoreTime == nil {
			continue
		}
		sibElapsed := sib.LastScoreTime.Sub(challenge.Game.GameStart)
		if sibElapsed < ourElapsed || (sibElapsed == ourElapsed && sib.ID < challenge.ID) {
			ordinal++
		}
	}

	var next *model.ChallengeBonus
	for i := range rules {
		if !claimed[rules[i].ID] {
			next = &rules[i]
			break
		}
	}
	if next == nil || next.SolveRank != ordinal {
		// Nothing configured for this ordinal; not an error.
		return nil
	}

	inserted, err := bonusRepo.InsertAwardIfUnclaimed(ctx, &model.AwardedBonus{
		ChallengeBonusID: next.ID,
		ChallengeID:      challenge.ID,
	})
	if err != nil {
		return fmt.Errorf("awarding bonus %d to challenge %d: %w", next.ID, challenge.ID, err)
	}
	if !inserted {
		// Another team took this rank between our read and write. The losing
		// team simply gets no bonus.
		log.Debug().Uint("challengeID", challenge.ID).Uint("bonusID", next.ID).
			Msg("lost solve-rank bonus race")
		return nil
	}
	log.Info().Uint("challengeID", challenge.ID).Uint("teamID", challenge.TeamID).
		Uint("bonusID", next.ID).Int("solveRank", next.SolveRank).
		Float64("pointValue", next.PointValue).Msg("solve-rank bonus awarded")
	return nil
}
