package service

import (
	"context"
	"fmt"

	"github.com/ferrith/scorekeep/internal/model"
	"github.com/ferrith/scorekeep/internal/repository"
)

// TimeService sums a team's active engagement time across challenge attempts.
// The sum is commutative and never negative: entries missing either timestamp
// contribute zero, as does an entry whose last score precedes its start.
type TimeService interface {
	CalculateCumulativeTimeMs(entries []model.TeamChallengeTime) int64
	TeamCumulativeTimeMs(ctx context.Context, teamID, gameID uint) (int64, error)
}

type timeService struct {
	challengeRepo repository.ChallengeRepository
}

func NewTimeService(challengeRepo repository.ChallengeRepository) TimeService {
	return &timeService{challengeRepo: challengeRepo}
}

func (s *timeService) CalculateCumulativeTimeMs(entries []model.TeamChallengeTime) int64 {
	var total int64
	for _, e := range entries {
		if e.StartTime == nil || e.LastScoreTime == nil {
			continue
		}
		span := e.LastScoreTime.Sub(*e.StartTime).Milliseconds()
		if span > 0 {
			total += span
		}
	}
	return total
}

func (s *timeService) TeamCumulativeTimeMs(ctx context.Context, teamID, gameID uint) (int64, error) {
	challenges, err := s.challengeRepo.FindByTeamAndGame(ctx, teamID, gameID)
	if err != nil {
		return 0, fmt.Errorf("loading challenges for team %d in game %d: %w", teamID, gameID, err)
	}
	entries := make([]model.TeamChallengeTime, 0, len(challenges))
	for _, c := range challenges {
		entries = append(entries, model.TeamChallengeTime{
			TeamID:        c.TeamID,
			ChallengeID:   c.ID,
			StartTime:     c.StartTime,
			LastScoreTime: c.LastScoreTime,
		})
	}
	return s.CalculateCumulativeTimeMs(entries), nil
}
