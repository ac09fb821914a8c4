package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/uicourseai/courseai-backend/internal/config"
	"github.com/uicourseai/courseai-backend/internal/database"
	"github.com/uicourseai/courseai-backend/internal/handler"
	"github.com/uicourseai/courseai-backend/internal/intent"
	"github.com/uicourseai/courseai-backend/internal/logger"
	"github.com/uicourseai/courseai-backend/internal/repository"
	"github.com/uicourseai/courseai-backend/internal/router"
	"github.com/uicourseai/courseai-backend/internal/service"
	"github.com/uicourseai/courseai-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Bool("llm_enabled", cfg.LLMEnabled).
		Msg("Starting CourseAI Backend")

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

	// ─── Initialize Repositories ───────────────────────────────────────
	gradeRepo := repository.NewGradeRepository(pool)

	// ─── Initialize Intent Parsers ─────────────────────────────────────
	ruleParser := intent.NewRuleParser(cfg.SubjectCodes)
	var llmParser intent.Parser
	if cfg.LLMEnabled {
		llmParser = intent.NewLLMParser(intent.LLMConfig{
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
			APIKey:  cfg.LLMAPIKey,
			Timeout: cfg.LLMTimeout,
		}, log)
	}
	resolver := intent.NewResolver(ruleParser, llmParser, log)

	// ─── Initialize Services ──────────────────────────────────────────
	rankingCfg := service.RankingConfig{
		RecencyYears:      cfg.RecencyYears,
		MinEnrollment:     cfg.MinEnrollment,
		MaxResults:        cfg.MaxResults,
		DetailResultLimit: cfg.DetailResultLimit,
	}
	queryService := service.NewQueryService(gradeRepo, resolver, rdb, rankingCfg, cfg.QueryCacheTTL, log)
	catalogService := service.NewCatalogService(gradeRepo, rdb, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Query:   handler.NewQueryHandler(queryService),
		Catalog: handler.NewCatalogHandler(catalogService),
	}

	// ─── Prewarm Catalog Cache ────────────────────────────────────────
	// Load subject/semester pickers into Redis before accepting traffic.
	if err := catalogService.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Catalog cache warmup failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
