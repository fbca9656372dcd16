package main

import (
	"context"
	"net/http"
	"time"

	"github.com/ferrith/scorekeep/config"
	"github.com/ferrith/scorekeep/database"
	adminctrl "github.com/ferrith/scorekeep/internal/controller/admin"
	userctrl "github.com/ferrith/scorekeep/internal/controller/user"
	"github.com/ferrith/scorekeep/internal/logger"
	"github.com/ferrith/scorekeep/internal/model"
	"github.com/ferrith/scorekeep/internal/repository"
	"github.com/ferrith/scorekeep/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Scorekeep API
// @version 1.0
// @description Team scoring and session accounting engine: base scores, solve-rank bonuses, manual bonuses, session windows, and cumulative time.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewGinEngine,         // Provides *gin.Engine
		),

		// Repositories Layer
		fx.Provide(
			repository.NewTransactor,
			repository.NewGameRepository,
			repository.NewChallengeRepository,
			repository.NewBonusRepository,
			repository.NewManualBonusRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewSystemClock,
			service.NewLogScoreNotifier,
			service.NewGameService,
			service.NewTimeService,
			service.NewSessionService,
			service.NewScoringService,
			service.NewBonusConfigService,
			service.NewScoreAggregatorService,
		),

		// API Controllers Layer
		fx.Provide(
			adminctrl.NewAdminScoreController,
			userctrl.NewScoreController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	// Route gin request logging through zerolog.
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminScoreCtrl *adminctrl.AdminScoreController,
	scoreCtrl *userctrl.ScoreController,
) {
	// Admin Routes (prefixed with /api/v1/admin). Authorization middleware for
	// these routes is owned by the external identity service deployment.
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		adminAPIGroup.POST("/games", adminScoreCtrl.CreateGame)
		adminAPIGroup.POST("/games/:game_id/specs", adminScoreCtrl.CreateSpec)
		adminAPIGroup.POST("/games/:game_id/challenges", adminScoreCtrl.DeployChallenge)
		adminAPIGroup.PUT("/challenges/:challenge_id/score", adminScoreCtrl.UpdateChallengeScore)
		adminAPIGroup.PUT("/specs/:spec_id/bonuses", adminScoreCtrl.ReconfigureSpecBonuses)
		adminAPIGroup.GET("/specs/:spec_id/bonuses", adminScoreCtrl.ListSpecBonuses)
		adminAPIGroup.POST("/bonuses/manual", adminScoreCtrl.AddManualBonus)
		adminAPIGroup.GET("/bonuses/manual", adminScoreCtrl.ListManualBonuses)
		adminAPIGroup.DELETE("/bonuses/manual/:bonus_id", adminScoreCtrl.DeleteManualBonus)
	}

	// User Routes (prefixed with /api/v1)
	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/games/:game_id/score", scoreCtrl.GetGameScore)
		userAPIGroup.GET("/games/:game_id/teams/:team_id/score", scoreCtrl.GetTeamGameScore)
		userAPIGroup.GET("/games/:game_id/teams/:team_id/time", scoreCtrl.GetTeamCumulativeTime)
		userAPIGroup.POST("/games/:game_id/session-window", scoreCtrl.PreviewSessionWindow)
		userAPIGroup.GET("/challenges/:challenge_id/score", scoreCtrl.GetChallengeScore)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Scorekeep server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Game{},
		&model.ChallengeSpec{},
		&model.ChallengeBonus{},
		&model.Challenge{},
		&model.AwardedBonus{},
		&model.ManualBonus{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
