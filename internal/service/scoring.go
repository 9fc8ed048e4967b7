package service

import (
	"strings"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/i18n"
)

// Score buckets and adjustments for the five life domains.
const (
	sleepOptimalScore = 90
	sleepNearScore    = 75
	sleepShortScore   = 55
	sleepPoorScore    = 40
	sleepUnknownScore = 60

	activityHighScore     = 85
	activityModerateScore = 72
	activityLowScore      = 62
	activityUnknownScore  = 60

	nutritionBaseScore   = 65
	nutritionGoodScore   = 82
	nutritionKetoFloor   = 75
	nutritionAlcoholCost = 18

	recoveryLowScore      = 88
	recoveryModerateScore = 72
	recoveryHighScore     = 55
	recoverySevereScore   = 42
	recoveryUnknownScore  = 65

	riskNoneScore       = 80
	riskOccasionalScore = 62
	riskSmokerScore     = 40
)

type scoredNote struct {
	score int
	note  string
}

// ScoreSections scores the five life domains in domain.SectionOrder with
// labels and notes in lang. It never fails.
func ScoreSections(answers domain.AnswerSet, metrics domain.DerivedMetrics, lang domain.Language) []domain.SectionScore {
	if !lang.IsSupported() {
		lang = domain.DefaultLanguage
	}
	table := i18n.Default()

	results := map[domain.SectionKey]scoredNote{
		domain.SectionSleep:     scoreSleep(metrics.SleepHours),
		domain.SectionActivity:  scoreActivity(answers.Lower(domain.QuestionTraining)),
		domain.SectionNutrition: scoreNutrition(answers.Lower(domain.QuestionNutrition), answers.Lower(domain.QuestionAlcohol)),
		domain.SectionRecovery:  scoreRecovery(metrics.Stress),
		domain.SectionRisk:      scoreRisk(answers.Lower(domain.QuestionSmoking)),
	}

	scores := make([]domain.SectionScore, 0, len(domain.SectionOrder))
	for _, key := range domain.SectionOrder {
		r := results[key]
		scores = append(scores, domain.SectionScore{
			Key:   key,
			Label: table.T(lang, "section."+string(key)),
			Score: clampScore(r.score),
			Note:  table.T(lang, r.note),
		})
	}
	return scores
}

func scoreSleep(hours *float64) scoredNote {
	if hours == nil {
		return scoredNote{sleepUnknownScore, "note.sleep.unknown"}
	}
	h := *hours
	switch {
	case h >= 7 && h <= 9:
		return scoredNote{sleepOptimalScore, "note.sleep.optimal"}
	case (h >= 6 && h < 7) || (h > 9 && h <= 10):
		return scoredNote{sleepNearScore, "note.sleep.near"}
	case h >= 5 && h < 6:
		return scoredNote{sleepShortScore, "note.sleep.short"}
	default:
		return scoredNote{sleepPoorScore, "note.sleep.poor"}
	}
}

func scoreActivity(training string) scoredNote {
	switch {
	case strings.ContainsAny(training, "345"):
		return scoredNote{activityHighScore, "note.activity.high"}
	case strings.Contains(training, "2"):
		return scoredNote{activityModerateScore, "note.activity.moderate"}
	case training != "":
		return scoredNote{activityLowScore, "note.activity.low"}
	default:
		return scoredNote{activityUnknownScore, "note.activity.unknown"}
	}
}

// scoreNutrition applies the keto floor before the alcohol penalty.
func scoreNutrition(style, alcohol string) scoredNote {
	r := scoredNote{nutritionBaseScore, "note.nutrition.base"}
	if strings.Contains(style, "protein") || strings.Contains(style, "balanced") {
		r = scoredNote{nutritionGoodScore, "note.nutrition.good"}
	}
	if strings.Contains(style, "keto") {
		r.score = max(r.score, nutritionKetoFloor)
		r.note = "note.nutrition.keto"
	}
	if drinksDaily(alcohol) {
		r.score = max(r.score-nutritionAlcoholCost, 0)
		r.note = "note.nutrition.alcohol"
	}
	return r
}

func scoreRecovery(stress *float64) scoredNote {
	if stress == nil {
		return scoredNote{recoveryUnknownScore, "note.recovery.unknown"}
	}
	switch s := *stress; {
	case s <= 3:
		return scoredNote{recoveryLowScore, "note.recovery.low"}
	case s <= 6:
		return scoredNote{recoveryModerateScore, "note.recovery.moderate"}
	case s <= 8:
		return scoredNote{recoveryHighScore, "note.recovery.high"}
	default:
		return scoredNote{recoverySevereScore, "note.recovery.severe"}
	}
}

func scoreRisk(smoking string) scoredNote {
	r := scoredNote{riskNoneScore, "note.risk.none"}
	if smoking == "sometimes" {
		r = scoredNote{riskOccasionalScore, "note.risk.occasional"}
	}
	if smoking == "yes" {
		r = scoredNote{riskSmokerScore, "note.risk.smoker"}
	}
	return r
}

func clampScore(v int) int {
	return min(max(v, 0), 100)
}
