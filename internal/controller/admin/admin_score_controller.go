package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ferrith/scorekeep/internal/dto"
	"github.com/ferrith/scorekeep/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AdminScoreController exposes the configuration and mutation surface:
// games, specs, bonus rules, manual bonuses, deployments, and rescoring.
// Authorization is assumed to have passed in upstream middleware.
type AdminScoreController struct {
	gameService        service.GameService
	scoringService     service.ScoringService
	bonusConfigService service.BonusConfigService
}

func NewAdminScoreController(
	gameService service.GameService,
	scoringService service.ScoringService,
	bonusConfigService service.BonusConfigService,
) *AdminScoreController {
	return &AdminScoreController{
		gameService:        gameService,
		scoringService:     scoringService,
		bonusConfigService: bonusConfigService,
	}
}

// CreateGame godoc
// @Summary (Admin) Create a game
// @Tags Admin - Games & Scoring
// @Accept json
// @Produce json
// @Param game body dto.CreateGameDTO true "Game configuration"
// @Success 201 {object} model.Game
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/games [post]
func (c *AdminScoreController) CreateGame(ctx *gin.Context) {
	var req dto.CreateGameDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	game, err := c.gameService.CreateGame(ctx.Request.Context(), req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, game)
}

// CreateSpec godoc
// @Summary (Admin) Add a challenge spec to a game
// @Tags Admin - Games & Scoring
// @Accept json
// @Produce json
// @Param game_id path int true "Game ID"
// @Param spec body dto.CreateSpecDTO true "Spec configuration"
// @Success 201 {object} model.ChallengeSpec
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/games/{game_id}/specs [post]
func (c *AdminScoreController) CreateSpec(ctx *gin.Context) {
	gameID, ok := pathID(ctx, "game_id")
	if !ok {
		return
	}
	var req dto.CreateSpecDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	spec, err := c.gameService.CreateSpec(ctx.Request.Context(), gameID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, spec)
}

// DeployChallenge godoc
// @Summary (Admin) Deploy a challenge attempt for a team
// @Tags Admin - Games & Scoring
// @Accept json
// @Produce json
// @Param game_id path int true "Game ID"
// @Param deployment body dto.DeployChallengeDTO true "Team and spec"
// @Success 201 {object} model.Challenge
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/games/{game_id}/challenges [post]
func (c *AdminScoreController) DeployChallenge(ctx *gin.Context) {
	gameID, ok := pathID(ctx, "game_id")
	if !ok {
		return
	}
	var req dto.DeployChallengeDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	challenge, err := c.scoringService.DeployChallenge(ctx.Request.Context(), gameID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, challenge)
}

// UpdateChallengeScore godoc
// @Summary (Admin) Set a challenge attempt's base score
// @Description Persists the score and runs solve-rank bonus awarding when the attempt becomes fully solved. Decreasing a score that holds a non-zero bonus is rejected.
// @Tags Admin - Games & Scoring
// @Accept json
// @Produce json
// @Param challenge_id path int true "Challenge ID"
// @Param score body dto.UpdateScoreDTO true "New base score"
// @Success 200 {object} model.Challenge
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Score decrease blocked by an awarded bonus"
// @Router /admin/challenges/{challenge_id}/score [put]
func (c *AdminScoreController) UpdateChallengeScore(ctx *gin.Context) {
	challengeID, ok := pathID(ctx, "challenge_id")
	if !ok {
		return
	}
	var req dto.UpdateScoreDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	challenge, err := c.scoringService.UpdateChallengeScore(ctx.Request.Context(), challengeID, req.Score)
	if err != nil {
		log.Warn().Err(err).Uint("challengeID", challengeID).Msg("UpdateChallengeScore failed")
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, challenge)
}

// ReconfigureSpecBonuses godoc
// @Summary (Admin) Replace a spec's automatic bonus rules
// @Description Atomic delete-and-recreate of the rule set. Rejected once any rule of the spec has been awarded.
// @Tags Admin - Games & Scoring
// @Accept json
// @Produce json
// @Param spec_id path int true "Spec ID"
// @Param rules body dto.ReconfigureBonusesDTO true "New rule set"
// @Success 200 {array} dto.BonusRuleDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "An award already exists"
// @Router /admin/specs/{spec_id}/bonuses [put]
func (c *AdminScoreController) ReconfigureSpecBonuses(ctx *gin.Context) {
	specID, ok := pathID(ctx, "spec_id")
	if !ok {
		return
	}
	var req dto.ReconfigureBonusesDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	rules, err := c.bonusConfigService.ReconfigureSpecBonuses(ctx.Request.Context(), specID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rules)
}

// ListSpecBonuses godoc
// @Summary (Admin) List a spec's automatic bonus rules
// @Tags Admin - Games & Scoring
// @Produce json
// @Param spec_id path int true "Spec ID"
// @Success 200 {array} dto.BonusRuleDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/specs/{spec_id}/bonuses [get]
func (c *AdminScoreController) ListSpecBonuses(ctx *gin.Context) {
	specID, ok := pathID(ctx, "spec_id")
	if !ok {
		return
	}
	rules, err := c.bonusConfigService.ListSpecBonuses(ctx.Request.Context(), specID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rules)
}

// AddManualBonus godoc
// @Summary (Admin) Enter a manual bonus
// @Tags Admin - Games & Scoring
// @Accept json
// @Produce json
// @Param bonus body dto.ManualBonusInputDTO true "Bonus targeting a challenge or a team"
// @Success 201 {object} model.ManualBonus
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/bonuses/manual [post]
func (c *AdminScoreController) AddManualBonus(ctx *gin.Context) {
	var req dto.ManualBonusInputDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	bonus, err := c.bonusConfigService.AddManualBonus(ctx.Request.Context(), req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, bonus)
}

// ListManualBonuses godoc
// @Summary (Admin) List a team's manual bonuses in a game
// @Tags Admin - Games & Scoring
// @Produce json
// @Param game_id query int true "Game ID"
// @Param team_id query int true "Team ID"
// @Success 200 {array} dto.ManualBonusDTO
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/bonuses/manual [get]
func (c *AdminScoreController) ListManualBonuses(ctx *gin.Context) {
	gameID, ok := queryID(ctx, "game_id")
	if !ok {
		return
	}
	teamID, ok := queryID(ctx, "team_id")
	if !ok {
		return
	}
	bonuses, err := c.bonusConfigService.ListManualBonuses(ctx.Request.Context(), teamID, gameID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, bonuses)
}

// DeleteManualBonus godoc
// @Summary (Admin) Delete a manual bonus
// @Tags Admin - Games & Scoring
// @Produce json
// @Param bonus_id path int true "Manual bonus ID"
// @Success 204 "Deleted"
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/bonuses/manual/{bonus_id} [delete]
func (c *AdminScoreController) DeleteManualBonus(ctx *gin.Context) {
	id, ok := pathID(ctx, "bonus_id")
	if !ok {
		return
	}
	if err := c.bonusConfigService.DeleteManualBonus(ctx.Request.Context(), id); err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

func queryID(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Query(name), 10, 32)
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
		errors.Is(err, service.ErrChallengeNotFound),
		errors.Is(err, service.ErrBonusNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrScoreDecreaseWithBonus),
		errors.Is(err, service.ErrBonusAlreadyAwarded):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrNegativePointValue),
		errors.Is(err, service.ErrInvalidSolveRank),
		errors.Is(err, service.ErrInvalidManualBonusTarget),
		errors.Is(err, service.ErrInvalidGameWindow):
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
	default:
		log.Error().Err(err).Msg("admin handler: internal error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Internal server error", Details: []string{err.Error()}})
	}
}
