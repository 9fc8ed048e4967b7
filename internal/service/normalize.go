package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/blaisecz/bioage-reset/internal/domain"
)

// Normalize derives numeric metrics from raw answers. Absent or unparsable
// answers yield nil fields; it never fails.
func Normalize(answers domain.AnswerSet) domain.DerivedMetrics {
	m := domain.DerivedMetrics{
		Age:        parseNumber(answers.Get(domain.QuestionAge)),
		HeightCM:   parseNumber(answers.Get(domain.QuestionHeightCM)),
		WeightKG:   parseNumber(answers.Get(domain.QuestionWeightKG)),
		SleepHours: parseNumber(answers.Get(domain.QuestionSleepHours)),
		Stress:     parseNumber(answers.Get(domain.QuestionStress)),
	}
	if m.HeightCM != nil && m.WeightKG != nil && *m.HeightCM > 0 && *m.WeightKG > 0 {
		h := *m.HeightCM / 100
		bmi := math.Round(*m.WeightKG/(h*h)*10) / 10
		m.BMI = &bmi
	}
	return m
}

// ParseNumber reports whether raw is a finite number and returns it.
func ParseNumber(raw string) (float64, bool) {
	v := parseNumber(raw)
	if v == nil {
		return 0, false
	}
	return *v, true
}

// parseNumber accepts both "." and "," as the decimal separator.
func parseNumber(raw string) *float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
