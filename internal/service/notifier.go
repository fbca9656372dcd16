package service

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ScoreNotifier publishes "team score changed" events after a successful
// score mutation. The real consumer is an external notification service; the
// default implementation just logs the event.
type ScoreNotifier interface {
	NotifyTeamScoreChanged(ctx context.Context, teamID, gameID uint)
}

type logScoreNotifier struct{}

func NewLogScoreNotifier() ScoreNotifier {
	return logScoreNotifier{}
}

func (logScoreNotifier) NotifyTeamScoreChanged(ctx context.Context, teamID, gameID uint) {
	log.Info().
		Uint("teamID", teamID).
		Uint("gameID", gameID).
		Msg("team score changed")
}
