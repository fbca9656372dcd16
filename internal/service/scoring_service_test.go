package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ferrith/scorekeep/internal/dto"
	"github.com/ferrith/scorekeep/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoringFixture struct {
	store    *fakeStore
	clock    *fakeClock
	notifier *countingNotifier
	svc      ScoringService
}

func newScoringFixture(t *testing.T) *scoringFixture {
	t.Helper()
	store := newFakeStore()
	clock := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	notifier := &countingNotifier{}
	svc := NewScoringService(
		fakeChallengeRepo{store: store},
		fakeBonusRepo{store: store},
		store,
		store,
		clock,
		notifier,
	)
	return &scoringFixture{store: store, clock: clock, notifier: notifier, svc: svc}
}

func (f *scoringFixture) addCompetitiveGame() *model.Game {
	start := f.clock.Now().Add(-time.Hour)
	return f.store.addGame(model.Game{
		Name:           "game",
		Competitive:    true,
		GameStart:      start,
		GameEnd:        start.Add(9 * time.Hour),
		SessionMinutes: 480,
	})
}

func (f *scoringFixture) awardCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.awards)
}

func (f *scoringFixture) awardsFor(challengeID uint) []model.AwardedBonus {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []model.AwardedBonus
	for _, a := range f.store.awards {
		if a.ChallengeID == challengeID {
			out = append(out, *a)
		}
	}
	return out
}

func TestUpdateChallengeScoreRejectsNegative(t *testing.T) {
	f := newScoringFixture(t)
	_, err := f.svc.UpdateChallengeScore(context.Background(), 1, -10)
	assert.ErrorIs(t, err, ErrNegativePointValue)
	assert.Equal(t, 0, f.notifier.count())
}

func TestUpdateChallengeScoreUnknownChallenge(t *testing.T) {
	f := newScoringFixture(t)
	_, err := f.svc.UpdateChallengeScore(context.Background(), 42, 10)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestUpdateChallengeScoreClampsToSpecMax(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})
	challenge := f.store.addChallenge(model.Challenge{TeamID: 1, SpecID: spec.ID, GameID: game.ID})

	updated, err := f.svc.UpdateChallengeScore(context.Background(), challenge.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, float64(100), updated.Score)
	assert.Equal(t, model.ResultSuccess, updated.Result)
	require.NotNil(t, updated.LastScoreTime)
	assert.Equal(t, 1, f.notifier.count())
}

func TestUpdateChallengeScorePartialDoesNotAward(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})
	f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 1, PointValue: 100})
	challenge := f.store.addChallenge(model.Challenge{TeamID: 1, SpecID: spec.ID, GameID: game.ID})

	updated, err := f.svc.UpdateChallengeScore(context.Background(), challenge.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, model.ResultPartial, updated.Result)
	assert.Equal(t, 0, f.awardCount())
}

func TestSolveRankBonusesAwardedInOrder(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})
	first := f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 1, PointValue: 100})
	second := f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 2, PointValue: 50})

	a := f.store.addChallenge(model.Challenge{TeamID: 1, SpecID: spec.ID, GameID: game.ID})
	b := f.store.addChallenge(model.Challenge{TeamID: 2, SpecID: spec.ID, GameID: game.ID})
	c := f.store.addChallenge(model.Challenge{TeamID: 3, SpecID: spec.ID, GameID: game.ID})

	_, err := f.svc.UpdateChallengeScore(context.Background(), a.ID, 100)
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)
	_, err = f.svc.UpdateChallengeScore(context.Background(), b.ID, 100)
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)
	_, err = f.svc.UpdateChallengeScore(context.Background(), c.ID, 100)
	require.NoError(t, err)

	awardsA := f.awardsFor(a.ID)
	require.Len(t, awardsA, 1)
	assert.Equal(t, first.ID, awardsA[0].ChallengeBonusID)

	awardsB := f.awardsFor(b.ID)
	require.Len(t, awardsB, 1)
	assert.Equal(t, second.ID, awardsB[0].ChallengeBonusID)

	assert.Empty(t, f.awardsFor(c.ID))
	assert.Equal(t, 2, f.awardCount())
}

func TestSolveRankBonusIdempotentOnRescore(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})
	f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 1, PointValue: 100})
	f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 2, PointValue: 50})
	challenge := f.store.addChallenge(model.Challenge{TeamID: 1, SpecID: spec.ID, GameID: game.ID})

	_, err := f.svc.UpdateChallengeScore(context.Background(), challenge.ID, 100)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.svc.UpdateChallengeScore(context.Background(), challenge.ID, 100)
	require.NoError(t, err)

	assert.Equal(t, 1, f.awardCount())
	assert.Len(t, f.awardsFor(challenge.ID), 1)
}

func TestScoreDecreaseBlockedByAwardedBonus(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})
	f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 1, PointValue: 100})
	challenge := f.store.addChallenge(model.Challenge{TeamID: 1, SpecID: spec.ID, GameID: game.ID})

	_, err := f.svc.UpdateChallengeScore(context.Background(), challenge.ID, 100)
	require.NoError(t, err)

	_, err = f.svc.UpdateChallengeScore(context.Background(), challenge.ID, 50)
	assert.ErrorIs(t, err, ErrScoreDecreaseWithBonus)

	reloaded, err := fakeChallengeRepo{store: f.store}.FindByID(context.Background(), challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(100), reloaded.Score)
}

func TestScoreDecreaseAllowedWithoutBonus(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})
	challenge := f.store.addChallenge(model.Challenge{TeamID: 1, SpecID: spec.ID, GameID: game.ID})

	_, err := f.svc.UpdateChallengeScore(context.Background(), challenge.ID, 80)
	require.NoError(t, err)
	updated, err := f.svc.UpdateChallengeScore(context.Background(), challenge.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, float64(30), updated.Score)
}

func TestPracticeGameNeverAwards(t *testing.T) {
	f := newScoringFixture(t)
	start := f.clock.Now().Add(-time.Hour)
	game := f.store.addGame(model.Game{
		Name: "practice", Competitive: false,
		GameStart: start, GameEnd: start.Add(9 * time.Hour), SessionMinutes: 480,
	})
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})
	f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 1, PointValue: 100})
	challenge := f.store.addChallenge(model.Challenge{TeamID: 1, SpecID: spec.ID, GameID: game.ID})

	updated, err := f.svc.UpdateChallengeScore(context.Background(), challenge.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, model.ResultSuccess, updated.Result)
	assert.Equal(t, 0, f.awardCount())
}

func TestNoAwardWhenNextUnclaimedRankDoesNotMatch(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})
	// Only a second-solver bonus is configured; the first solver gets nothing.
	f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 2, PointValue: 50})

	a := f.store.addChallenge(model.Challenge{TeamID: 1, SpecID: spec.ID, GameID: game.ID})
	b := f.store.addChallenge(model.Challenge{TeamID: 2, SpecID: spec.ID, GameID: game.ID})

	_, err := f.svc.UpdateChallengeScore(context.Background(), a.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, f.awardCount())

	// The second solver's ordinal is 2 only once the first solver holds an
	// award, which it does not here; rank 2 stays unclaimed.
	f.clock.Advance(time.Minute)
	_, err = f.svc.UpdateChallengeScore(context.Background(), b.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, f.awardCount())
}

func TestFirstTwoSolversScenario(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "S", MaxPoints: 100})
	rule := f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 1, PointValue: 100})

	a := f.store.addChallenge(model.Challenge{TeamID: 1, SpecID: spec.ID, GameID: game.ID})
	b := f.store.addChallenge(model.Challenge{TeamID: 2, SpecID: spec.ID, GameID: game.ID})

	_, err := f.svc.UpdateChallengeScore(context.Background(), a.ID, 100)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)
	_, err = f.svc.UpdateChallengeScore(context.Background(), b.ID, 100)
	require.NoError(t, err)

	awardsA := f.awardsFor(a.ID)
	require.Len(t, awardsA, 1)
	assert.Equal(t, rule.ID, awardsA[0].ChallengeBonusID)
	assert.Empty(t, f.awardsFor(b.ID))

	// Once A holds the award the spec shows no unclaimed bonuses game-wide.
	awards, err := fakeBonusRepo{store: f.store}.AwardsForSpec(context.Background(), spec.ID)
	require.NoError(t, err)
	assert.Len(t, awards, 1)
}

func TestDeployChallenge(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})

	challenge, err := f.svc.DeployChallenge(context.Background(), game.ID, dto.DeployChallengeDTO{TeamID: 5, SpecID: spec.ID})
	require.NoError(t, err)
	assert.Equal(t, uint(5), challenge.TeamID)
	assert.Equal(t, float64(0), challenge.Score)
	assert.Equal(t, model.ResultNone, challenge.Result)
	require.NotNil(t, challenge.StartTime)
	assert.Equal(t, f.clock.Now(), *challenge.StartTime)
}

func TestDeployChallengeSpecMustBelongToGame(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	other := f.store.addGame(model.Game{Name: "other", GameStart: game.GameStart, GameEnd: game.GameEnd, SessionMinutes: 60})
	spec := f.store.addSpec(model.ChallengeSpec{GameID: other.ID, Name: "s", MaxPoints: 100})

	_, err := f.svc.DeployChallenge(context.Background(), game.ID, dto.DeployChallengeDTO{TeamID: 5, SpecID: spec.ID})
	assert.ErrorIs(t, err, ErrSpecNotFound)
}

func TestConcurrentSolvesAwardExactlyOnce(t *testing.T) {
	f := newScoringFixture(t)
	game := f.addCompetitiveGame()
	spec := f.store.addSpec(model.ChallengeSpec{GameID: game.ID, Name: "s", MaxPoints: 100})
	f.store.addRule(model.ChallengeBonus{SpecID: spec.ID, SolveRank: 1, PointValue: 100})

	const teams = 8
	challengeIDs := make([]uint, 0, teams)
	for i := 0; i < teams; i++ {
		c := f.store.addChallenge(model.Challenge{TeamID: uint(i + 1), SpecID: spec.ID, GameID: game.ID})
		challengeIDs = append(challengeIDs, c.ID)
	}

	var wg sync.WaitGroup
	for _, id := range challengeIDs {
		wg.Add(1)
		go func(challengeID uint) {
			defer wg.Done()
			_, err := f.svc.UpdateChallengeScore(context.Background(), challengeID, 100)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	// All eight raced for one first-solver bonus; the unique claim admits one.
	assert.Equal(t, 1, f.awardCount())
}
