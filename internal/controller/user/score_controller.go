package user

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ferrith/scorekeep/internal/dto"
	"github.com/ferrith/scorekeep/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ScoreController exposes the read-only score, time, and session views.
type ScoreController struct {
	aggregator     service.ScoreAggregatorService
	sessionService service.SessionService
	timeService    service.TimeService
	gameService    service.GameService
	clock          service.Clock
}

func NewScoreController(
	aggregator service.ScoreAggregatorService,
	sessionService service.SessionService,
	timeService service.TimeService,
	gameService service.GameService,
	clock service.Clock,
) *ScoreController {
	return &ScoreController{
		aggregator:     aggregator,
		sessionService: sessionService,
		timeService:    timeService,
		gameService:    gameService,
		clock:          clock,
	}
}

// GetGameScore godoc
// @Summary (User) Full scoreboard for a game
// @Description Every team's total with rank, plus the solve-rank bonuses still unclaimed per challenge spec.
// @Tags User - Scores & Sessions
// @Produce json
// @Param game_id path int true "Game ID"
// @Success 200 {object} dto.GameScoreDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /games/{game_id}/score [get]
func (c *ScoreController) GetGameScore(ctx *gin.Context) {
	gameID, ok := pathID(ctx, "game_id")
	if !ok {
		return
	}
	score, err := c.aggregator.GetGameScore(ctx.Request.Context(), gameID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, score)
}

// GetTeamGameScore godoc
// @Summary (User) One team's score within a game
// @Tags User - Scores & Sessions
// @Produce json
// @Param game_id path int true "Game ID"
// @Param team_id path int true "Team ID"
// @Success 200 {object} dto.TeamGameScoreDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /games/{game_id}/teams/{team_id}/score [get]
func (c *ScoreController) GetTeamGameScore(ctx *gin.Context) {
	gameID, ok := pathID(ctx, "game_id")
	if !ok {
		return
	}
	teamID, ok := pathID(ctx, "team_id")
	if !ok {
		return
	}
	score, err := c.aggregator.GetTeamGameScore(ctx.Request.Context(), teamID, gameID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, score)
}

// GetChallengeScore godoc
// @Summary (User) Score breakdown for a single challenge attempt
// @Tags User - Scores & Sessions
// @Produce json
// @Param challenge_id path int true "Challenge ID"
// @Success 200 {object} dto.TeamChallengeScoreDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /challenges/{challenge_id}/score [get]
func (c *ScoreController) GetChallengeScore(ctx *gin.Context) {
	challengeID, ok := pathID(ctx, "challenge_id")
	if !ok {
		return
	}
	score, err := c.aggregator.GetChallengeScore(ctx.Request.Context(), challengeID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, score)
}

// GetTeamCumulativeTime godoc
// @Summary (User) A team's cumulative active time in a game
// @Tags User - Scores & Sessions
// @Produce json
// @Param game_id path int true "Game ID"
// @Param team_id path int true "Team ID"
// @Success 200 {object} dto.CumulativeTimeDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /games/{game_id}/teams/{team_id}/time [get]
func (c *ScoreController) GetTeamCumulativeTime(ctx *gin.Context) {
	gameID, ok := pathID(ctx, "game_id")
	if !ok {
		return
	}
	teamID, ok := pathID(ctx, "team_id")
	if !ok {
		return
	}
	ms, err := c.timeService.TeamCumulativeTimeMs(ctx.Request.Context(), teamID, gameID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.CumulativeTimeDTO{TeamID: teamID, GameID: gameID, CumulativeTimeMs: ms})
}

// PreviewSessionWindow godoc
// @Summary (User) Compute the session window a start would get
// @Description Applies the game's session length and end-of-game truncation. A non-positive length means the session cannot start.
// @Tags User - Scores & Sessions
// @Accept json
// @Produce json
// @Param game_id path int true "Game ID"
// @Param request body dto.SessionWindowRequest true "Start instant (defaults to now) and admin override flag"
// @Success 200 {object} dto.SessionWindowDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /games/{game_id}/session-window [post]
func (c *ScoreController) PreviewSessionWindow(ctx *gin.Context) {
	gameID, ok := pathID(ctx, "game_id")
	if !ok {
		return
	}
	var req dto.SessionWindowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	game, err := c.gameService.GetGame(ctx.Request.Context(), gameID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	var start time.Time
	if req.SessionStart != nil {
		start = *req.SessionStart
	} else {
		start = c.clock.Now()
	}
	window := c.sessionService.CalculateSessionWindow(game, start, req.AdminOverride)
	ctx.JSON(http.StatusOK, window)
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGameNotFound),
		errors.Is(err, service.ErrSpecNotFound),
		errors.Is(err, service.ErrChallengeNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Msg("score handler: internal error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error", Details: []string{err.Error()}})
	}
}
