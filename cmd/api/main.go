// BioAge Reset API
//
// Questionnaire-driven longevity reports with PDF rendering.
//
//	@title			BioAge Reset API
//	@version		1.0
//	@description	Questionnaire-driven 90-day longevity reports with PDF rendering.
//
//	@BasePath	/v1
//
//	@tag.name			questions
//	@tag.description	Questionnaire catalog
//
//	@tag.name			reports
//	@tag.description	Report generation, storage and PDF rendering
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blaisecz/bioage-reset/internal/api"
	"github.com/blaisecz/bioage-reset/internal/api/handler"
	"github.com/blaisecz/bioage-reset/internal/config"
	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/langfuse"
	"github.com/blaisecz/bioage-reset/internal/llm"
	"github.com/blaisecz/bioage-reset/internal/logger"
	"github.com/blaisecz/bioage-reset/internal/render"
	"github.com/blaisecz/bioage-reset/internal/repository"
	"github.com/blaisecz/bioage-reset/internal/seed"
	"github.com/blaisecz/bioage-reset/internal/service"
	"github.com/blaisecz/bioage-reset/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg := config.Load()

	appLog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg, "bioage-report")
	if err != nil {
		appLog.Fatal("failed to init tracer", "error", err)
	}

	// Connect to database
	db, err := config.NewDatabase(cfg, appLog)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}

	// Auto-migrate database schema
	if err := db.AutoMigrate(&domain.Report{}); err != nil {
		appLog.Fatal("failed to migrate database", "error", err)
	}
	appLog.Info("database migration completed")

	reportRepo := repository.NewReportRepository(db)

	langfuseClient := langfuse.NewClient(langfuse.Config{
		BaseURL:     cfg.LangfuseBaseURL,
		PublicKey:   cfg.LangfusePublicKey,
		SecretKey:   cfg.LangfuseSecretKey,
		Environment: cfg.LangfuseEnv,
		Logger:      appLog,
	})

	systemPrompt, promptSource := langfuse.ResolvePrompt(ctx, langfuse.PromptLoaderConfig{
		BaseURL:     cfg.LangfuseBaseURL,
		PublicKey:   cfg.LangfusePublicKey,
		SecretKey:   cfg.LangfuseSecretKey,
		PromptName:  cfg.LangfuseReportPromptName,
		PromptLabel: cfg.LangfuseReportPromptLabel,
		SavePath:    cfg.ReportPromptCachePath,
		Logger:      appLog,
	}, llm.DefaultSystemPrompt)
	appLog.Info("report prompt resolved", "source", promptSource)

	// Initialize OpenAI client (nil if not configured)
	var reportLLM llm.ReportLLM
	if openaiClient := llm.NewOpenAIClient(llm.Config{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIReportModel,
		Timeout:      cfg.OpenAITimeout,
		SystemPrompt: systemPrompt,
	}); openaiClient != nil {
		reportLLM = openaiClient
		appLog.Info("generative reports enabled", "model", openaiClient.Model())
	} else {
		appLog.Warn("OpenAI API key not configured, all reports use the deterministic generator")
	}

	// Initialize services
	reportService := service.NewReportService(reportLLM, appLog, service.WithLangfuse(langfuseClient))
	reportStore := service.NewReportStore(reportService, reportRepo)

	if cfg.Seed {
		appLog.Info("seeding database with sample reports (SEED=true)")
		if err := seed.Run(ctx, db, reportService, appLog); err != nil {
			appLog.Fatal("failed to seed database", "error", err)
		}
	}

	renderer := render.New(
		render.WithFonts(render.SharedFonts(cfg.ReportFontDir)),
		render.WithLogger(appLog),
	)
	appLog.Info("pdf fonts selected", "family", renderer.Fonts().Family, "unicode", renderer.Fonts().Unicode())

	// Initialize handlers
	questionHandler := handler.NewQuestionHandler()
	reportHandler := handler.NewReportHandler(reportStore, reportService, renderer, langfuseClient, appLog)

	// Setup router
	router := api.NewRouter(questionHandler, reportHandler, appLog)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server shutdown failed", "error", err)
	}
	if flusher, ok := langfuseClient.(langfuse.Flusher); ok {
		if err := flusher.Flush(shutdownCtx); err != nil {
			appLog.Warn("langfuse flush incomplete", "error", err)
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		appLog.Warn("tracer shutdown failed", "error", err)
	}
}
