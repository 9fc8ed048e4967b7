// Script to store the sample reports without starting the API.
// Usage: go run scripts/seed/main.go
package main

import (
	"context"
	"log"

	"github.com/blaisecz/bioage-reset/internal/config"
	"github.com/blaisecz/bioage-reset/internal/logger"
	"github.com/blaisecz/bioage-reset/internal/seed"
	"github.com/blaisecz/bioage-reset/internal/service"
)

func main() {
	cfg := config.Load()

	appLog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	db, err := config.NewDatabase(cfg, appLog)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}

	// Seeded reports always use the deterministic generator.
	reports := service.NewReportService(nil, appLog)
	if err := seed.Run(context.Background(), db, reports, appLog); err != nil {
		appLog.Fatal("seed failed", "error", err)
	}

	for _, s := range seed.Samples() {
		appLog.Info("report ready", "report_id", s.ID, "language", s.Language)
	}
}
