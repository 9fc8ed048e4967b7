package domain

import (
	"sort"
	"strings"
)

// AnswerSet maps question IDs to raw answer strings as captured by the
// questionnaire. It is treated as read-only input.
type AnswerSet map[string]string

// Get returns the trimmed answer for key, or "" when absent.
func (a AnswerSet) Get(key string) string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a[key])
}

// Lower returns the trimmed, lower-cased answer for key.
func (a AnswerSet) Lower(key string) string {
	return strings.ToLower(a.Get(key))
}

// Clone returns an independent copy of the answer set.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// DerivedMetrics holds the numeric facts parsed from an AnswerSet.
// A nil field means the answer was missing or unparsable.
// @Description Numeric facts derived from questionnaire answers.
type DerivedMetrics struct {
	Age        *float64 `json:"age" example:"45"`
	HeightCM   *float64 `json:"height_cm" example:"180"`
	WeightKG   *float64 `json:"weight_kg" example:"90"`
	SleepHours *float64 `json:"sleep_hours" example:"6"`
	Stress     *float64 `json:"stress" example:"4"`
	// Body-mass index rounded to one decimal; null without height and weight
	BMI *float64 `json:"bmi" example:"27.8"`
}

// Labeled returns the answers in catalog order with question labels in lang.
// Answers for unknown question IDs follow, sorted by ID and labeled with the
// ID itself.
func (a AnswerSet) Labeled(lang Language) []LabeledAnswer {
	out := make([]LabeledAnswer, 0, len(a))
	known := make(map[string]bool, len(catalog))
	for _, q := range catalog {
		known[q.ID] = true
		if v, ok := a[q.ID]; ok {
			out = append(out, LabeledAnswer{ID: q.ID, Question: q.Label(lang), Answer: strings.TrimSpace(v)})
		}
	}
	var extra []string
	for k := range a {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, LabeledAnswer{ID: k, Question: k, Answer: strings.TrimSpace(a[k])})
	}
	return out
}
