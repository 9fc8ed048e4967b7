package domain

import "time"

// LabeledAnswer pairs a raw answer with its English question label.
type LabeledAnswer struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ReportContext is the context object sent to the LLM for generative
// narratives.
// @Description Context data for LLM report generation.
type ReportContext struct {
	Language      Language        `json:"language"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Answers       []LabeledAnswer `json:"answers"`
	Metrics       DerivedMetrics  `json:"metrics"`
	SectionScores []SectionScore  `json:"section_scores"`
}

// NewReportContext labels answers in catalog order; answers for unknown
// question IDs are appended in key order.
func NewReportContext(answers AnswerSet, metrics DerivedMetrics, scores []SectionScore, lang Language, at time.Time) *ReportContext {
	return &ReportContext{
		Language:      lang,
		GeneratedAt:   at,
		Answers:       answers.Labeled(LanguageEN),
		Metrics:       metrics,
		SectionScores: scores,
	}
}
