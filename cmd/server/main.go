package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/database"
	"github.com/algobucks/platform/internal/handler"
	"github.com/algobucks/platform/internal/judge"
	"github.com/algobucks/platform/internal/logger"
	"github.com/algobucks/platform/internal/repository"
	"github.com/algobucks/platform/internal/router"
	"github.com/algobucks/platform/internal/service"
	"github.com/algobucks/platform/internal/validator"
	"github.com/algobucks/platform/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting AlgoBucks Platform")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Judge Client ──────────────────────────────────────────────────
	judgeClient := judge.New(cfg.JudgeBaseURL, cfg.JudgeToken, cfg.JudgeTimeout, log)

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	contestRepo := repository.NewContestRepository(pool)
	problemRepo := repository.NewProblemRepository(pool)
	sessionRepo := repository.NewContestSessionRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	clarificationRepo := repository.NewClarificationRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool, rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo)
	adminService := service.NewAdminService(adminRepo)
	contestService := service.NewContestService(contestRepo, problemRepo, rdb, log)
	sessionService := service.NewContestSessionService(sessionRepo, contestRepo, regRepo, feedbackRepo, userRepo, rdb)
	problemService := service.NewProblemService(problemRepo)
	submissionService := service.NewSubmissionService(submissionRepo, sessionRepo, contestRepo, judgeClient, rdb, log)
	leaderboardService := service.NewLeaderboardService(submissionRepo, contestRepo, rdb, log)
	clarificationService := service.NewClarificationService(clarificationRepo, sessionRepo, rdb, log)
	monitorService := service.NewMonitorService(monitorRepo)
	dashboardService := service.NewDashboardService(dashboardRepo)
	settingService := service.NewSettingService(settingRepo, log)
	mediaService := service.NewMediaService(cfg)
	adminUserService := service.NewAdminUserService(pool)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, userService, adminService, settingService),
		ContestPortal: handler.NewContestPortalHandler(sessionService, contestService, leaderboardService, clarificationService),
		Contest:       handler.NewContestHandler(contestService, sessionService),
		Problem:       handler.NewProblemHandler(problemService),
		Submission:    handler.NewSubmissionHandler(submissionService, authService, rdb, log),
		Clarification: handler.NewClarificationHandler(clarificationService),
		UserMgmt:      handler.NewUserManagementHandler(userService, authService),
		AdminUser:     handler.NewAdminUserHandler(adminUserService),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		Setting:       handler.NewSettingHandler(settingService),
		Media:         handler.NewMediaHandler(mediaService),
		Monitor:       handler.NewMonitorHandler(rdb, contestService, sessionService, monitorService, log),
		System:        handler.NewSystemHandler(rdb, log),
		WS:            handler.NewWSHandler(rdb, sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autoSubmitWorker := worker.NewAutoSubmitWorker(pool, rdb, judgeClient, log)
	scoringWorker := worker.NewScoringWorker(rdb, leaderboardService, log)
	activityWorker := worker.NewActivityWorker(pool, rdb, log)

	go autoSubmitWorker.Start(workerCtx)
	go scoringWorker.Start(workerCtx)
	go activityWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load all published contests into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := contestService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
