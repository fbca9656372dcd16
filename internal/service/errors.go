package service

import "errors"

// Sentinel errors for the scoring engine. Controllers map these to HTTP
// statuses with errors.Is; services wrap them with fmt.Errorf and %w when
// extra context helps.
var (
	// ErrNegativePointValue rejects negative base scores and non-positive
	// automatic bonus values.
	ErrNegativePointValue = errors.New("point value cannot be negative")

	// ErrScoreDecreaseWithBonus rejects lowering a challenge's score while it
	// holds an awarded bonus worth points. Awards are immutable history.
	ErrScoreDecreaseWithBonus = errors.New("cannot rescore a challenge that holds a non-zero bonus")

	// ErrBonusAlreadyAwarded rejects reconfiguring a spec's bonus rules once
	// any of them has been consumed.
	ErrBonusAlreadyAwarded = errors.New("bonus rules cannot be changed after an award exists")

	// ErrInvalidSolveRank rejects rule sets with non-positive or duplicate
	// solve ranks.
	ErrInvalidSolveRank = errors.New("solve ranks must be unique positive integers")

	ErrInvalidManualBonusTarget = errors.New("manual bonus must target exactly one of challenge or team")

	ErrInvalidGameWindow = errors.New("invalid game execution window")

	ErrGameNotFound      = errors.New("game not found")
	ErrSpecNotFound      = errors.New("challenge spec not found")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrBonusNotFound     = errors.New("manual bonus not found")
)
