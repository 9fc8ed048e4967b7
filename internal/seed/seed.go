package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/logger"
	"github.com/blaisecz/bioage-reset/internal/service"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sample is a questionnaire submission stored under a fixed report ID.
type Sample struct {
	ID       uuid.UUID
	Language domain.Language
	Answers  domain.AnswerSet
}

// Samples returns the seeded questionnaire submissions.
func Samples() []Sample {
	return []Sample{
		{
			ID:       uuid.MustParse("11111111-1111-1111-1111-111111111111"),
			Language: domain.LanguageEN,
			Answers: domain.AnswerSet{
				"age": "45", "sex": "male", "height_cm": "180", "weight_kg": "90",
				"sleep_hours": "6", "training": "3x gym", "nutrition": "balanced",
				"stress": "4", "smoking": "no", "alcohol": "rarely",
				"conditions": "", "goal": "lose fat",
			},
		},
		{
			ID:       uuid.MustParse("22222222-2222-2222-2222-222222222222"),
			Language: domain.LanguageUK,
			Answers: domain.AnswerSet{
				"age": "38", "sex": "female", "height_cm": "165", "weight_kg": "61,5",
				"sleep_hours": "7.5", "training": "2 runs", "nutrition": "keto",
				"stress": "6", "smoking": "no", "alcohol": "weekly",
				"conditions": "", "goal": "more energy",
			},
		},
		{
			ID:       uuid.MustParse("33333333-3333-3333-3333-333333333333"),
			Language: domain.LanguageRU,
			Answers: domain.AnswerSet{
				"age": "52", "sex": "male", "height_cm": "175", "weight_kg": "98",
				"sleep_hours": "5", "training": "walks", "nutrition": "fast food",
				"stress": "8", "smoking": "yes", "alcohol": "daily",
				"conditions": "hypertension", "goal": "longevity",
			},
		},
		{
			ID:       uuid.MustParse("44444444-4444-4444-4444-444444444444"),
			Language: domain.LanguageEN,
			Answers: domain.AnswerSet{
				"age": "29", "sex": "female", "height_cm": "170", "weight_kg": "64",
				"sleep_hours": "8", "training": "5x mixed", "nutrition": "high protein",
				"stress": "3", "smoking": "no", "alcohol": "never",
				"conditions": "", "goal": "build muscle",
			},
		},
	}
}

// Run generates and stores a report for every sample. Safe to call multiple
// times: samples that already exist are left untouched.
func Run(ctx context.Context, db *gorm.DB, reports service.ReportService, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	if err := db.AutoMigrate(&domain.Report{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	for _, sample := range Samples() {
		record, err := Build(ctx, reports, sample)
		if err != nil {
			return err
		}
		result := db.WithContext(ctx).Where("id = ?", record.ID).FirstOrCreate(record)
		if result.Error != nil {
			return fmt.Errorf("failed to create report %s: %w", sample.ID, result.Error)
		}
		log.Debug("seed report ready", "report_id", sample.ID, "created", result.RowsAffected > 0)
	}

	log.Info("seed completed", "reports", len(Samples()))
	return nil
}

// Build generates the stored form of sample.
func Build(ctx context.Context, reports service.ReportService, sample Sample) (*domain.Report, error) {
	answers, err := json.Marshal(sample.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers for %s: %w", sample.ID, err)
	}
	doc := reports.Generate(ctx, sample.Answers, sample.Language)
	content, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report %s: %w", sample.ID, err)
	}
	return &domain.Report{
		ID:             sample.ID,
		Status:         domain.ReportStatusReady,
		Language:       sample.Language,
		CatalogVersion: domain.CatalogVersion,
		Generator:      doc.Generator,
		Answers:        answers,
		Content:        content,
	}, nil
}
