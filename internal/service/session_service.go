package service

import (
	"time"

	"github.com/ferrith/scorekeep/internal/dto"
	"github.com/ferrith/scorekeep/internal/model"
)

// SessionService computes the effective play window for a team session. Pure;
// callers supply the start instant (usually from the Clock).
type SessionService interface {
	CalculateSessionWindow(game *model.Game, sessionStart time.Time, adminOverride bool) dto.SessionWindowDTO
}

type sessionService struct{}

func NewSessionService() SessionService {
	return &sessionService{}
}

// CalculateSessionWindow derives the session end from the game's configured
// session length. Non-admin sessions are truncated at GameEnd (a "late
// start"); an admin-initiated session keeps its nominal length even past the
// game's end, so support sessions are never cut short. LengthInMinutes is
// truncated toward zero and can be non-positive when the session starts at or
// after GameEnd; callers must treat that as "session cannot start".
func (s *sessionService) CalculateSessionWindow(game *model.Game, sessionStart time.Time, adminOverride bool) dto.SessionWindowDTO {
	nominalEnd := sessionStart.Add(time.Duration(game.SessionMinutes) * time.Minute)

	end := nominalEnd
	lateStart := false
	if !adminOverride && nominalEnd.After(game.GameEnd) {
		end = game.GameEnd
		lateStart = true
	}

	return dto.SessionWindowDTO{
		Start:           sessionStart,
		End:             end,
		LengthInMinutes: int(end.Sub(sessionStart).Minutes()),
		IsLateStart:     lateStart,
	}
}
