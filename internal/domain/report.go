package domain

import (
	"fmt"
	"time"
)

// ReportSchemaVersion is bumped whenever the ReportDocument layout changes.
const ReportSchemaVersion = 2

// SectionKey identifies one of the five scored life domains.
type SectionKey string

const (
	SectionSleep     SectionKey = "sleep"
	SectionActivity  SectionKey = "activity"
	SectionNutrition SectionKey = "nutrition"
	SectionRecovery  SectionKey = "recovery"
	SectionRisk      SectionKey = "risk"
)

// SectionOrder is the fixed order of section scores in every report.
var SectionOrder = []SectionKey{SectionSleep, SectionActivity, SectionNutrition, SectionRecovery, SectionRisk}

// GeneratorKind records which strategy produced a report.
type GeneratorKind string

const (
	GeneratorDeterministic GeneratorKind = "deterministic"
	GeneratorGenerative    GeneratorKind = "generative"
)

// SectionScore is a 0-100 score for a life domain with a localized note.
// @Description Score for one life domain.
type SectionScore struct {
	Key   SectionKey `json:"key" example:"sleep" enums:"sleep,activity,nutrition,recovery,risk"`
	Label string     `json:"label" example:"Sleep"`
	Score int        `json:"score" example:"75" minimum:"0" maximum:"100"`
	Note  string     `json:"note" example:"Slightly below the 7-9 hour target."`
}

// Profile summarizes the client for the report header.
type Profile struct {
	Goal    string         `json:"goal" example:"lose fat"`
	Sex     string         `json:"sex,omitempty" example:"male"`
	Metrics DerivedMetrics `json:"metrics"`
}

// Summary carries the BioAge estimate and key focus tags.
type Summary struct {
	BioAgeEstimate string   `json:"bioage_estimate" example:"~44 years (chronological age 45)"`
	KeyFocus       []string `json:"key_focus"`
}

// WeekPlan is one week of the 90-day plan.
type WeekPlan struct {
	Week    int      `json:"week" example:"1"`
	Focus   string   `json:"focus" example:"Foundation: sleep"`
	Actions []string `json:"actions"`
}

// Phase is one of the Foundation/Progression/Optimization blocks.
type Phase struct {
	Name      string   `json:"name" example:"Foundation"`
	Objective string   `json:"objective"`
	Habits    []string `json:"habits"`
	Training  []string `json:"training"`
	Nutrition []string `json:"nutrition"`
	Recovery  []string `json:"recovery"`
}

// ReportDocument is the complete structured wellness report. It is the unit
// handed to the renderer and persisted by callers.
// @Description Structured 90-day wellness report.
type ReportDocument struct {
	SchemaVersion    int            `json:"schema_version" example:"2"`
	Generator        GeneratorKind  `json:"generator" example:"deterministic"`
	Title            string         `json:"title" example:"BioAge Reset Protocol"`
	GeneratedAt      time.Time      `json:"generated_at" example:"2024-05-01T10:00:00Z"`
	Language         Language       `json:"language" example:"en" enums:"en,uk,ru"`
	Disclaimer       string         `json:"disclaimer"`
	Profile          Profile        `json:"profile"`
	ExecutiveSummary []string       `json:"executive_summary"`
	PriorityActions  []string       `json:"priority_actions"`
	SectionScores    []SectionScore `json:"section_scores"`
	Summary          Summary        `json:"summary"`
	Plan90Days       []WeekPlan     `json:"plan_90_days"`
	Phases           []Phase        `json:"phases"`
	RiskFlags        []string       `json:"risk_flags"`
	Warnings         []string       `json:"warnings"`
	NextSteps        []string       `json:"next_steps"`
	Answers          AnswerSet      `json:"answers"`
}

// Validate checks the structural contract every report must satisfy before
// it is rendered or persisted.
func (r *ReportDocument) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: report is nil", ErrInvalidReport)
	}
	if !r.Language.IsSupported() {
		return fmt.Errorf("%w: unsupported language %q", ErrInvalidReport, r.Language)
	}
	if r.GeneratedAt.IsZero() {
		return fmt.Errorf("%w: generated_at is missing", ErrInvalidReport)
	}
	if len(r.SectionScores) != len(SectionOrder) {
		return fmt.Errorf("%w: expected %d section scores, got %d", ErrInvalidReport, len(SectionOrder), len(r.SectionScores))
	}
	for i, s := range r.SectionScores {
		if s.Key != SectionOrder[i] {
			return fmt.Errorf("%w: section %d is %q, want %q", ErrInvalidReport, i, s.Key, SectionOrder[i])
		}
		if s.Score < 0 || s.Score > 100 {
			return fmt.Errorf("%w: section %q score %d out of range", ErrInvalidReport, s.Key, s.Score)
		}
	}
	lists := map[string][]string{
		"executive_summary": r.ExecutiveSummary,
		"priority_actions":  r.PriorityActions,
		"risk_flags":        r.RiskFlags,
		"warnings":          r.Warnings,
		"next_steps":        r.NextSteps,
		"summary.key_focus": r.Summary.KeyFocus,
	}
	for name, l := range lists {
		if l == nil {
			return fmt.Errorf("%w: %s must be a list", ErrInvalidReport, name)
		}
	}
	if r.Plan90Days == nil || r.Phases == nil {
		return fmt.Errorf("%w: plan_90_days and phases must be lists", ErrInvalidReport)
	}
	return nil
}

// Score returns the section score for key, if present.
func (r *ReportDocument) Score(key SectionKey) (SectionScore, bool) {
	for _, s := range r.SectionScores {
		if s.Key == key {
			return s, true
		}
	}
	return SectionScore{}, false
}

// SafetyNotes is the union of risk flags and warnings, in that order, without
// duplicates.
func (r *ReportDocument) SafetyNotes() []string {
	seen := make(map[string]bool, len(r.RiskFlags)+len(r.Warnings))
	var out []string
	for _, group := range [][]string{r.RiskFlags, r.Warnings} {
		for _, n := range group {
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// RenderedDocument is the binary PDF produced from a ReportDocument.
type RenderedDocument struct {
	Content     []byte
	Filename    string
	ContentType string
}

// PDFContentType is the MIME type of every RenderedDocument.
const PDFContentType = "application/pdf"
