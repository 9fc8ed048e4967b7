package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/langfuse"
	"github.com/blaisecz/bioage-reset/internal/llm"
	"github.com/blaisecz/bioage-reset/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const traceName = "bioage-report"

// ReportService turns questionnaire answers into a ReportDocument.
type ReportService interface {
	// Generate builds a report in lang. It never fails: any problem with the
	// generative strategy resolves to the deterministic report.
	Generate(ctx context.Context, answers domain.AnswerSet, lang domain.Language) *domain.ReportDocument
}

// ReportServiceOption customizes a ReportService.
type ReportServiceOption func(*reportService)

// WithClock overrides the generation timestamp source.
func WithClock(now func() time.Time) ReportServiceOption {
	return func(s *reportService) { s.now = now }
}

// WithLangfuse records each generation as a Langfuse trace.
func WithLangfuse(client langfuse.Client) ReportServiceOption {
	return func(s *reportService) { s.langfuse = client }
}

type reportService struct {
	deterministic Strategy
	generative    Strategy
	langfuse      langfuse.Client
	log           *logger.Logger
	now           func() time.Time
}

// NewReportService creates a ReportService. A nil llmClient selects the
// deterministic strategy for every report.
func NewReportService(llmClient llm.ReportLLM, log *logger.Logger, opts ...ReportServiceOption) ReportService {
	if log == nil {
		log = logger.Nop()
	}
	s := &reportService{
		deterministic: NewDeterministicStrategy(),
		log:           log,
		now:           time.Now,
	}
	if llmClient != nil {
		s.generative = NewGenerativeStrategy(llmClient)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *reportService) Generate(ctx context.Context, answers domain.AnswerSet, lang domain.Language) *domain.ReportDocument {
	if !lang.IsSupported() {
		lang = domain.DefaultLanguage
	}
	if answers == nil {
		answers = domain.AnswerSet{}
	}

	ctx, span := otel.Tracer("bioage-report/service").Start(ctx, "report.generate",
		trace.WithAttributes(attribute.String("report.language", string(lang))),
	)
	defer span.End()

	metrics := Normalize(answers)
	in := &ReportInput{
		Answers:     answers,
		Language:    lang,
		Metrics:     metrics,
		Scores:      ScoreSections(answers, metrics, lang),
		GeneratedAt: s.now().UTC().Truncate(time.Second),
	}

	strategy := s.deterministic
	if s.generative != nil {
		strategy = s.generative
	}

	var fallbackReason string
	doc, err := strategy.Build(ctx, in)
	if err != nil {
		fallbackReason = err.Error()
		s.log.Warn("generative report rejected, using deterministic report",
			"language", lang,
			"reason", fallbackReason,
		)
		span.SetAttributes(attribute.String("report.fallback_reason", fallbackReason))
		doc, _ = s.deterministic.Build(ctx, in)
	}

	span.SetAttributes(
		attribute.String("report.generator", string(doc.Generator)),
		attribute.Int("report.weeks", len(doc.Plan90Days)),
	)
	if inJSON, err := json.Marshal(in.Scores); err == nil {
		span.SetAttributes(attribute.String("langfuse.observation.input", string(inJSON)))
	}
	if outJSON, err := json.Marshal(doc.Summary); err == nil {
		span.SetAttributes(attribute.String("langfuse.observation.output", string(outJSON)))
	}

	s.recordTrace(ctx, span, in, doc, fallbackReason)
	s.log.Info("report generated",
		"language", lang,
		"generator", doc.Generator,
		"weeks", len(doc.Plan90Days),
	)
	return doc
}

func (s *reportService) recordTrace(ctx context.Context, span trace.Span, in *ReportInput, doc *domain.ReportDocument, fallbackReason string) {
	if s.langfuse == nil || !s.langfuse.IsEnabled() {
		return
	}
	var traceID string
	if sc := span.SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
	}
	metadata := map[string]any{
		"generator": string(doc.Generator),
		"language":  string(in.Language),
	}
	if fallbackReason != "" {
		metadata["fallback_reason"] = fallbackReason
	}
	if _, err := s.langfuse.CreateTrace(ctx, langfuse.TraceInput{
		ID:       traceID,
		Name:     traceName,
		Input:    map[string]any{"metrics": in.Metrics, "section_scores": in.Scores},
		Output:   map[string]any{"summary": doc.Summary, "priority_actions": doc.PriorityActions},
		Tags:     []string{string(doc.Generator), string(in.Language)},
		Metadata: metadata,
	}); err != nil {
		s.log.Warn("langfuse trace failed", "error", err)
	}
}
