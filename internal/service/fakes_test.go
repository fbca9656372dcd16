package service

import (
	"context"
	"sync"
	"time"

	"github.com/ferrith/scorekeep/internal/model"
	"github.com/ferrith/scorekeep/internal/repository"
	"gorm.io/gorm"
)

// fakeStore is an in-memory stand-in for the postgres-backed repositories.
// Every method takes the store lock, and InsertAwardIfUnclaimed enforces the
// same one-award-per-rule uniqueness the real unique index does, so the award
// race behaves like production under concurrent callers.
type fakeStore struct {
	mu sync.Mutex

	games      map[uint]*model.Game
	specs      map[uint]*model.ChallengeSpec
	challenges map[uint]*model.Challenge
	rules      map[uint]*model.ChallengeBonus
	awards     map[uint]*model.AwardedBonus
	claimed    map[uint]uint // rule ID -> award ID
	manual     map[uint]*model.ManualBonus

	nextID uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:      make(map[uint]*model.Game),
		specs:      make(map[uint]*model.ChallengeSpec),
		challenges: make(map[uint]*model.Challenge),
		rules:      make(map[uint]*model.ChallengeBonus),
		awards:     make(map[uint]*model.AwardedBonus),
		claimed:    make(map[uint]uint),
		manual:     make(map[uint]*model.ManualBonus),
	}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addGame(game model.Game) *model.Game {
	f.mu.Lock()
	defer f.mu.Unlock()
	game.ID = f.id()
	f.games[game.ID] = &game
	return &game
}

func (f *fakeStore) addSpec(spec model.ChallengeSpec) *model.ChallengeSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	spec.ID = f.id()
	f.specs[spec.ID] = &spec
	return &spec
}

func (f *fakeStore) addRule(rule model.ChallengeBonus) *model.ChallengeBonus {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule.ID = f.id()
	f.rules[rule.ID] = &rule
	return &rule
}

func (f *fakeStore) addChallenge(challenge model.Challenge) *model.Challenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge.ID = f.id()
	f.challenges[challenge.ID] = &challenge
	return &challenge
}

func (f *fakeStore) specRulesLocked(specID uint) []model.ChallengeBonus {
	var rules []model.ChallengeBonus
	for _, r := range f.rules {
		if r.SpecID == specID {
			rules = append(rules, *r)
		}
	}
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			if rules[j].SolveRank < rules[i].SolveRank {
				rules[i], rules[j] = rules[j], rules[i]
			}
		}
	}
	return rules
}

// --- repository.Transactor ---

func (f *fakeStore) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// --- repository.GameRepository ---

func (f *fakeStore) Create(ctx context.Context, game *model.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	game.ID = f.id()
	stored := *game
	f.games[game.ID] = &stored
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id uint) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.games[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *game
	return &out, nil
}

func (f *fakeStore) FindByIDWithSpecs(ctx context.Context, id uint) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.games[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *game
	out.Specs = nil
	for _, spec := range f.specs {
		if spec.GameID != id {
			continue
		}
		s := *spec
		s.Bonuses = f.specRulesLocked(spec.ID)
		out.Specs = append(out.Specs, s)
	}
	return &out, nil
}

func (f *fakeStore) CreateSpec(ctx context.Context, spec *model.ChallengeSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	spec.ID = f.id()
	stored := *spec
	f.specs[spec.ID] = &stored
	return nil
}

func (f *fakeStore) FindSpecByID(ctx context.Context, id uint) (*model.ChallengeSpec, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	spec, ok := f.specs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *spec
	out.Bonuses = f.specRulesLocked(id)
	return &out, nil
}

// --- repository.ChallengeRepository ---

type fakeChallengeRepo struct{ store *fakeStore }

func (r fakeChallengeRepo) WithTx(tx *gorm.DB) repository.ChallengeRepository { return r }

func (r fakeChallengeRepo) Create(ctx context.Context, challenge *model.Challenge) error {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge.ID = f.id()
	stored := *challenge
	f.challenges[challenge.ID] = &stored
	return nil
}

func (r fakeChallengeRepo) FindByID(ctx context.Context, id uint) (*model.Challenge, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *challenge
	return &out, nil
}

func (r fakeChallengeRepo) FindByIDWithGameAndSpec(ctx context.Context, id uint) (*model.Challenge, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *challenge
	if game, ok := f.games[out.GameID]; ok {
		out.Game = *game
	}
	if spec, ok := f.specs[out.SpecID]; ok {
		s := *spec
		s.Bonuses = f.specRulesLocked(s.ID)
		out.Spec = s
	}
	return &out, nil
}

func (r fakeChallengeRepo) FindSolvedSiblings(ctx context.Context, specID, gameID, excludeTeamID uint) ([]model.Challenge, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	var siblings []model.Challenge
	for _, c := range f.challenges {
		if c.SpecID == specID && c.GameID == gameID && c.TeamID != excludeTeamID && c.Result == model.ResultSuccess {
			siblings = append(siblings, *c)
		}
	}
	return siblings, nil
}

func (r fakeChallengeRepo) FindByGame(ctx context.Context, gameID uint) ([]model.Challenge, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Challenge
	for _, c := range f.challenges {
		if c.GameID == gameID {
			cc := *c
			if spec, ok := f.specs[c.SpecID]; ok {
				cc.Spec = *spec
			}
			out = append(out, cc)
		}
	}
	return out, nil
}

func (r fakeChallengeRepo) FindByTeamAndGame(ctx context.Context, teamID, gameID uint) ([]model.Challenge, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Challenge
	for _, c := range f.challenges {
		if c.TeamID == teamID && c.GameID == gameID {
			cc := *c
			if spec, ok := f.specs[c.SpecID]; ok {
				cc.Spec = *spec
			}
			out = append(out, cc)
		}
	}
	return out, nil
}

func (r fakeChallengeRepo) UpdateScore(ctx context.Context, id uint, score float64, lastScoreTime time.Time, result model.ChallengeResult) error {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	challenge, ok := f.challenges[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	challenge.Score = score
	t := lastScoreTime
	challenge.LastScoreTime = &t
	challenge.Result = result
	return nil
}

// --- repository.BonusRepository ---

type fakeBonusRepo struct{ store *fakeStore }

func (r fakeBonusRepo) WithTx(tx *gorm.DB) repository.BonusRepository { return r }

func (r fakeBonusRepo) RulesForSpec(ctx context.Context, specID uint) ([]model.ChallengeBonus, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.specRulesLocked(specID), nil
}

func (r fakeBonusRepo) AwardsForSpec(ctx context.Context, specID uint) ([]model.AwardedBonus, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AwardedBonus
	for _, a := range f.awards {
		rule, ok := f.rules[a.ChallengeBonusID]
		if !ok || rule.SpecID != specID {
			continue
		}
		aa := *a
		aa.Bonus = *rule
		out = append(out, aa)
	}
	return out, nil
}

func (r fakeBonusRepo) AwardsForChallenges(ctx context.Context, challengeIDs []uint) ([]model.AwardedBonus, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uint]bool, len(challengeIDs))
	for _, id := range challengeIDs {
		wanted[id] = true
	}
	var out []model.AwardedBonus
	for _, a := range f.awards {
		if !wanted[a.ChallengeID] {
			continue
		}
		aa := *a
		if rule, ok := f.rules[a.ChallengeBonusID]; ok {
			aa.Bonus = *rule
		}
		out = append(out, aa)
	}
	return out, nil
}

func (r fakeBonusRepo) HasAwardsForSpec(ctx context.Context, specID uint) (bool, error) {
	awards, _ := r.AwardsForSpec(ctx, specID)
	return len(awards) > 0, nil
}

func (r fakeBonusRepo) InsertAwardIfUnclaimed(ctx context.Context, award *model.AwardedBonus) (bool, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.claimed[award.ChallengeBonusID]; taken {
		return false, nil
	}
	award.ID = f.id()
	stored := *award
	f.awards[award.ID] = &stored
	f.claimed[award.ChallengeBonusID] = award.ID
	return true, nil
}

func (r fakeBonusRepo) ReplaceRulesForSpec(ctx context.Context, specID uint, rules []model.ChallengeBonus) error {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, rule := range f.rules {
		if rule.SpecID == specID {
			delete(f.rules, id)
		}
	}
	for i := range rules {
		rule := rules[i]
		rule.ID = f.id()
		f.rules[rule.ID] = &rule
	}
	return nil
}

// --- repository.ManualBonusRepository ---

type fakeManualBonusRepo struct{ store *fakeStore }

func (r fakeManualBonusRepo) Create(ctx context.Context, bonus *model.ManualBonus) error {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	bonus.ID = f.id()
	stored := *bonus
	f.manual[bonus.ID] = &stored
	return nil
}

func (r fakeManualBonusRepo) Delete(ctx context.Context, id uint) error {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.manual, id)
	return nil
}

func (r fakeManualBonusRepo) FindByID(ctx context.Context, id uint) (*model.ManualBonus, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	bonus, ok := f.manual[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *bonus
	return &out, nil
}

func (r fakeManualBonusRepo) ForChallenges(ctx context.Context, challengeIDs []uint) ([]model.ManualBonus, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uint]bool, len(challengeIDs))
	for _, id := range challengeIDs {
		wanted[id] = true
	}
	var out []model.ManualBonus
	for _, mb := range f.manual {
		if mb.ChallengeID != nil && wanted[*mb.ChallengeID] {
			out = append(out, *mb)
		}
	}
	return out, nil
}

func (r fakeManualBonusRepo) ForTeam(ctx context.Context, teamID, gameID uint) ([]model.ManualBonus, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ManualBonus
	for _, mb := range f.manual {
		if mb.ChallengeID == nil && mb.TeamID != nil && *mb.TeamID == teamID && mb.GameID == gameID {
			out = append(out, *mb)
		}
	}
	return out, nil
}

func (r fakeManualBonusRepo) ForGame(ctx context.Context, gameID uint) ([]model.ManualBonus, error) {
	f := r.store
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ManualBonus
	for _, mb := range f.manual {
		if mb.GameID == gameID {
			out = append(out, *mb)
		}
	}
	return out, nil
}

// --- clock and notifier ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNotifier) NotifyTeamScoreChanged(ctx context.Context, teamID, gameID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = n.calls + 1
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}
