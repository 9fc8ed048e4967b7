package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/llm"
)

// Rejection reasons for generative output. Every one of them resolves to the
// deterministic report.
var (
	ErrNotAnObject      = errors.New("generative output is not a JSON object")
	ErrMissingPlan      = errors.New("generative output has no plan_90_days")
	ErrWrongLanguage    = errors.New("generative output is not in the requested script")
	ErrUndecodableDraft = errors.New("generative output does not decode into a report")
)

var narrativeListFields = []string{
	"executive_summary", "priority_actions", "phases", "risk_flags", "warnings", "next_steps",
}

// generativeStrategy asks an LLM for the narrative and grafts it onto the
// deterministic report's core-owned fields.
type generativeStrategy struct {
	llm      llm.ReportLLM
	baseline *deterministicStrategy
}

// NewGenerativeStrategy returns the LLM-backed Strategy.
func NewGenerativeStrategy(client llm.ReportLLM) Strategy {
	return &generativeStrategy{
		llm:      client,
		baseline: NewDeterministicStrategy().(*deterministicStrategy),
	}
}

func (s *generativeStrategy) Kind() domain.GeneratorKind {
	return domain.GeneratorGenerative
}

func (s *generativeStrategy) Build(ctx context.Context, in *ReportInput) (*domain.ReportDocument, error) {
	reportCtx := domain.NewReportContext(in.Answers, in.Metrics, in.Scores, in.Language, in.GeneratedAt)

	raw, err := s.llm.GenerateReport(ctx, reportCtx)
	if err != nil {
		return nil, err
	}
	draft, err := decodeDraft(raw)
	if err != nil {
		return nil, err
	}

	if in.Language.UsesCyrillic() {
		translated, err := s.llm.TranslateReport(ctx, raw, in.Language)
		if err != nil {
			return nil, err
		}
		if draft, err = decodeDraft(translated); err != nil {
			return nil, err
		}
		if !containsCyrillic(draft) {
			return nil, fmt.Errorf("%w: %s", ErrWrongLanguage, in.Language)
		}
	}

	baseline := s.baseline.build(in)
	backfill(draft, baseline)
	if err := injectCoreFields(draft, baseline); err != nil {
		return nil, err
	}

	doc, err := decodeDocument(draft)
	if err != nil {
		return nil, err
	}
	doc.Generator = domain.GeneratorGenerative
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// decodeDraft enforces the object gate: a JSON object carrying plan_90_days.
func decodeDraft(raw json.RawMessage) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}
	draft, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotAnObject
	}
	if _, ok := draft["plan_90_days"]; !ok {
		return nil, ErrMissingPlan
	}
	return draft, nil
}

// containsCyrillic reports whether any narrative string value holds a
// Cyrillic letter.
func containsCyrillic(draft map[string]any) bool {
	for _, key := range llm.NarrativeFields() {
		if anyStringMatches(draft[key], func(r rune) bool { return unicode.Is(unicode.Cyrillic, r) }) {
			return true
		}
	}
	return false
}

func anyStringMatches(v any, f func(rune) bool) bool {
	switch t := v.(type) {
	case string:
		for _, r := range t {
			if f(r) {
				return true
			}
		}
	case []any:
		for _, e := range t {
			if anyStringMatches(e, f) {
				return true
			}
		}
	case map[string]any:
		for _, e := range t {
			if anyStringMatches(e, f) {
				return true
			}
		}
	}
	return false
}

// backfill repairs missing or mistyped narrative fields in place.
func backfill(draft map[string]any, baseline *domain.ReportDocument) {
	if s, ok := draft["title"].(string); !ok || s == "" {
		draft["title"] = baseline.Title
	}
	if s, ok := draft["disclaimer"].(string); !ok || s == "" {
		draft["disclaimer"] = baseline.Disclaimer
	}
	for _, key := range narrativeListFields {
		if _, ok := draft[key].([]any); !ok {
			draft[key] = []any{}
		}
	}
	summary, ok := draft["summary"].(map[string]any)
	if !ok {
		summary = map[string]any{"bioage_estimate": "N/A", "key_focus": []any{}}
	}
	if _, ok := summary["bioage_estimate"].(string); !ok {
		summary["bioage_estimate"] = "N/A"
	}
	if _, ok := summary["key_focus"].([]any); !ok {
		summary["key_focus"] = []any{}
	}
	draft["summary"] = summary
	if _, ok := draft["plan_90_days"].([]any); !ok {
		draft["plan_90_days"] = []any{}
	}
}

// injectCoreFields overwrites the fields the core owns with the
// deterministic values, whatever the model returned for them.
func injectCoreFields(draft map[string]any, baseline *domain.ReportDocument) error {
	core := struct {
		SchemaVersion int                   `json:"schema_version"`
		Language      domain.Language       `json:"language"`
		GeneratedAt   time.Time             `json:"generated_at"`
		Profile       domain.Profile        `json:"profile"`
		SectionScores []domain.SectionScore `json:"section_scores"`
		Answers       domain.AnswerSet      `json:"answers"`
	}{
		SchemaVersion: baseline.SchemaVersion,
		Language:      baseline.Language,
		GeneratedAt:   baseline.GeneratedAt,
		Profile:       baseline.Profile,
		SectionScores: baseline.SectionScores,
		Answers:       baseline.Answers,
	}
	raw, err := json.Marshal(core)
	if err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for k, v := range fields {
		draft[k] = v
	}
	return nil
}

// decodeDocument decodes the merged draft. Keys outside the document
// schema are dropped; known keys must still have the schema's types.
func decodeDocument(draft map[string]any) (*domain.ReportDocument, error) {
	raw, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableDraft, err)
	}
	var doc domain.ReportDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableDraft, err)
	}
	return &doc, nil
}
