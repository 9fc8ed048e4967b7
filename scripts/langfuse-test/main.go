// Script to check the Langfuse setup: ingestion credentials and the managed
// report prompt. It sends one trace with a rating score for a sample report.
// Usage: go run scripts/langfuse-test/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/blaisecz/bioage-reset/internal/config"
	"github.com/blaisecz/bioage-reset/internal/langfuse"
	"github.com/blaisecz/bioage-reset/internal/llm"
	"github.com/blaisecz/bioage-reset/internal/seed"
	"github.com/blaisecz/bioage-reset/internal/service"
)

func main() {
	cfg := config.Load()

	fmt.Println("=== Langfuse Check ===")
	fmt.Printf("Base URL:    %s\n", cfg.LangfuseBaseURL)
	fmt.Printf("Public Key:  %s\n", maskKey(cfg.LangfusePublicKey))
	fmt.Printf("Secret Key:  %s\n", maskKey(cfg.LangfuseSecretKey))
	fmt.Printf("Environment: %s\n", cfg.LangfuseEnv)
	fmt.Println()

	client := langfuse.NewClient(langfuse.Config{
		BaseURL:     cfg.LangfuseBaseURL,
		PublicKey:   cfg.LangfusePublicKey,
		SecretKey:   cfg.LangfuseSecretKey,
		Environment: cfg.LangfuseEnv,
	})
	if !client.IsEnabled() {
		log.Fatal("Langfuse client is disabled. Check LANGFUSE_* env vars.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	prompt, source := langfuse.ResolvePrompt(ctx, langfuse.PromptLoaderConfig{
		BaseURL:     cfg.LangfuseBaseURL,
		PublicKey:   cfg.LangfusePublicKey,
		SecretKey:   cfg.LangfuseSecretKey,
		PromptName:  cfg.LangfuseReportPromptName,
		PromptLabel: cfg.LangfuseReportPromptLabel,
		SavePath:    cfg.ReportPromptCachePath,
	}, llm.DefaultSystemPrompt)
	fmt.Printf("Prompt %q (%s): %d chars\n", cfg.LangfuseReportPromptName, source, len(prompt))

	sample := seed.Samples()[0]
	doc := service.NewReportService(nil, nil).Generate(ctx, sample.Answers, sample.Language)

	traceID, err := client.CreateTrace(ctx, langfuse.TraceInput{
		Name:   "bioage-report-check",
		Input:  sample.Answers,
		Output: doc.Summary,
		Tags:   []string{"check", string(doc.Generator)},
		Metadata: map[string]any{
			"language": sample.Language,
		},
	})
	if err != nil {
		log.Fatalf("Failed to create trace: %v", err)
	}
	if err := client.CreateScore(ctx, langfuse.ScoreInput{
		TraceID: traceID,
		Name:    "user_rating",
		Value:   5,
		Comment: "langfuse-test script",
	}); err != nil {
		log.Fatalf("Failed to create score: %v", err)
	}

	if flusher, ok := client.(langfuse.Flusher); ok {
		if err := flusher.Flush(ctx); err != nil {
			log.Fatalf("Events not delivered: %v", err)
		}
	}

	fmt.Println("✓ Trace and score sent")
	fmt.Printf("  Trace ID: %s\n", traceID)
	fmt.Printf("  View at:  %s/trace/%s\n", cfg.LangfuseBaseURL, traceID)
}

func maskKey(key string) string {
	if len(key) < 8 {
		if key == "" {
			return "(empty)"
		}
		return "***"
	}
	return key[:8] + "..."
}
