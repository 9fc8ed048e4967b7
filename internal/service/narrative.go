package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/i18n"
)

const (
	// PlanWeeks is the length of the weekly plan.
	PlanWeeks = 13
	// priorityThreshold is the score below which a section earns a priority action.
	priorityThreshold = 80

	minPriorityActions = 2
	keyFocusCount      = 3

	// BioAge adjustment: one year per five points away from the reference
	// average, clamped.
	bioAgeReference = 75.0
	bioAgeStep      = 5.0
	bioAgeMinDelta  = -5
	bioAgeMaxDelta  = 8

	bmiObese       = 30.0
	bmiUnderweight = 18.5
	bmiOverweight  = 25.0
	shortSleep     = 6.0
	highStress     = 8.0
)

// ReportInput is everything a Strategy needs to build a report. It is built
// once per generation and shared by the strategies so a fallback reuses the
// same timestamp and scores.
type ReportInput struct {
	Answers     domain.AnswerSet
	Language    domain.Language
	Metrics     domain.DerivedMetrics
	Scores      []domain.SectionScore
	GeneratedAt time.Time
}

// Strategy builds a ReportDocument from scored input.
type Strategy interface {
	Kind() domain.GeneratorKind
	Build(ctx context.Context, in *ReportInput) (*domain.ReportDocument, error)
}

type phaseSpec struct {
	key   string
	first int
	last  int
}

var planPhases = []phaseSpec{
	{key: "foundation", first: 1, last: 4},
	{key: "progression", first: 5, last: 8},
	{key: "optimization", first: 9, last: PlanWeeks},
}

// deterministicStrategy assembles the report from localized templates. It is
// pure: the same input always yields the same document.
type deterministicStrategy struct {
	table *i18n.Table
}

// NewDeterministicStrategy returns the template-based Strategy.
func NewDeterministicStrategy() Strategy {
	return &deterministicStrategy{table: i18n.Default()}
}

func (s *deterministicStrategy) Kind() domain.GeneratorKind {
	return domain.GeneratorDeterministic
}

func (s *deterministicStrategy) Build(_ context.Context, in *ReportInput) (*domain.ReportDocument, error) {
	return s.build(in), nil
}

func (s *deterministicStrategy) build(in *ReportInput) *domain.ReportDocument {
	lang := in.Language
	ranked := rankWeakestFirst(in.Scores)

	return &domain.ReportDocument{
		SchemaVersion: domain.ReportSchemaVersion,
		Generator:     domain.GeneratorDeterministic,
		Title:         s.table.T(lang, "report.title"),
		GeneratedAt:   in.GeneratedAt,
		Language:      lang,
		Disclaimer:    s.table.T(lang, "report.disclaimer"),
		Profile: domain.Profile{
			Goal:    in.Answers.Get(domain.QuestionGoal),
			Sex:     in.Answers.Get(domain.QuestionSex),
			Metrics: in.Metrics,
		},
		ExecutiveSummary: s.executiveSummary(in, ranked),
		PriorityActions:  s.priorityActions(lang, ranked),
		SectionScores:    append([]domain.SectionScore(nil), in.Scores...),
		Summary:          s.summary(in, ranked),
		Plan90Days:       s.weeklyPlan(lang, ranked),
		Phases:           s.phases(lang),
		RiskFlags:        s.riskFlags(in),
		Warnings:         s.warnings(in),
		NextSteps:        s.table.List(lang, "next_steps"),
		Answers:          in.Answers.Clone(),
	}
}

// rankWeakestFirst orders scores ascending; ties keep section order.
func rankWeakestFirst(scores []domain.SectionScore) []domain.SectionScore {
	ranked := append([]domain.SectionScore(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score < ranked[j].Score })
	return ranked
}

func averageScore(scores []domain.SectionScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s.Score
	}
	return float64(total) / float64(len(scores))
}

func (s *deterministicStrategy) executiveSummary(in *ReportInput, ranked []domain.SectionScore) []string {
	lang := in.Language
	out := []string{s.table.F(lang, "summary.overview", int(math.Round(averageScore(in.Scores))))}
	if len(ranked) > 0 {
		weakest, strongest := ranked[0], ranked[len(ranked)-1]
		out = append(out,
			s.table.F(lang, "summary.weakest", weakest.Label, weakest.Score),
			s.table.F(lang, "summary.strongest", strongest.Label, strongest.Score),
		)
	}
	if bmi := in.Metrics.BMI; bmi != nil {
		out = append(out, s.table.F(lang, "summary.bmi", *bmi, s.table.T(lang, bmiCategory(*bmi))))
	}
	if goal := in.Answers.Get(domain.QuestionGoal); goal != "" {
		out = append(out, s.table.F(lang, "summary.goal", goal))
	}
	return out
}

func bmiCategory(bmi float64) string {
	switch {
	case bmi < bmiUnderweight:
		return "bmi.under"
	case bmi < bmiOverweight:
		return "bmi.normal"
	case bmi < bmiObese:
		return "bmi.over"
	default:
		return "bmi.obese"
	}
}

// priorityActions yields one action per section below the threshold, weakest
// first, topped up from the ranking to at least minPriorityActions.
func (s *deterministicStrategy) priorityActions(lang domain.Language, ranked []domain.SectionScore) []string {
	out := make([]string, 0, len(ranked))
	for i, sc := range ranked {
		if sc.Score < priorityThreshold || i < minPriorityActions {
			out = append(out, s.table.T(lang, "action."+string(sc.Key)))
		}
	}
	return out
}

func (s *deterministicStrategy) summary(in *ReportInput, ranked []domain.SectionScore) domain.Summary {
	focus := make([]string, 0, keyFocusCount)
	for i := 0; i < len(ranked) && i < keyFocusCount; i++ {
		focus = append(focus, ranked[i].Label)
	}
	return domain.Summary{
		BioAgeEstimate: s.bioAgeEstimate(in),
		KeyFocus:       focus,
	}
}

func (s *deterministicStrategy) bioAgeEstimate(in *ReportInput) string {
	if in.Metrics.Age == nil || *in.Metrics.Age <= 0 {
		return s.table.T(in.Language, "bioage.na")
	}
	age := int(math.Round(*in.Metrics.Age))
	delta := int(math.Round((bioAgeReference - averageScore(in.Scores)) / bioAgeStep))
	delta = min(max(delta, bioAgeMinDelta), bioAgeMaxDelta)
	return s.table.F(in.Language, "bioage.estimate", age+delta, age)
}

// weeklyPlan rotates the three weakest sections through the weeks and draws
// actions from the active phase's templates.
func (s *deterministicStrategy) weeklyPlan(lang domain.Language, ranked []domain.SectionScore) []domain.WeekPlan {
	focusCount := min(keyFocusCount, len(ranked))
	plan := make([]domain.WeekPlan, 0, PlanWeeks)
	for week := 1; week <= PlanWeeks; week++ {
		p := phaseForWeek(week)
		i := week - p.first
		prefix := "phase." + p.key

		var focusLabel string
		actions := make([]string, 0, 4)
		if focusCount > 0 {
			focus := ranked[(week-1)%focusCount]
			focusLabel = focus.Label
			actions = appendPick(actions, s.table.List(lang, "tip."+string(focus.Key)), week-1)
		}
		actions = appendPick(actions, s.table.List(lang, prefix+".habits"), i)
		actions = appendPick(actions, s.table.List(lang, prefix+".training"), i)
		if week%2 == 1 {
			actions = appendPick(actions, s.table.List(lang, prefix+".nutrition"), i)
		} else {
			actions = appendPick(actions, s.table.List(lang, prefix+".recovery"), i)
		}

		plan = append(plan, domain.WeekPlan{
			Week:    week,
			Focus:   s.table.F(lang, "week.focus", s.table.T(lang, prefix), focusLabel),
			Actions: actions,
		})
	}
	return plan
}

func phaseForWeek(week int) phaseSpec {
	for _, p := range planPhases {
		if week <= p.last {
			return p
		}
	}
	return planPhases[len(planPhases)-1]
}

func appendPick(dst, list []string, i int) []string {
	if len(list) == 0 {
		return dst
	}
	return append(dst, list[i%len(list)])
}

func (s *deterministicStrategy) phases(lang domain.Language) []domain.Phase {
	out := make([]domain.Phase, 0, len(planPhases))
	for _, p := range planPhases {
		prefix := "phase." + p.key
		out = append(out, domain.Phase{
			Name:      s.table.T(lang, prefix),
			Objective: s.table.T(lang, prefix+".objective"),
			Habits:    s.table.List(lang, prefix+".habits"),
			Training:  s.table.List(lang, prefix+".training"),
			Nutrition: s.table.List(lang, prefix+".nutrition"),
			Recovery:  s.table.List(lang, prefix+".recovery"),
		})
	}
	return out
}

func (s *deterministicStrategy) riskFlags(in *ReportInput) []string {
	lang, m := in.Language, in.Metrics
	flags := []string{}
	switch in.Answers.Lower(domain.QuestionSmoking) {
	case "yes":
		flags = append(flags, s.table.T(lang, "risk.smoking"))
	case "sometimes":
		flags = append(flags, s.table.T(lang, "risk.smoking_occasional"))
	}
	if m.BMI != nil {
		if *m.BMI >= bmiObese {
			flags = append(flags, s.table.T(lang, "risk.bmi_high"))
		} else if *m.BMI < bmiUnderweight {
			flags = append(flags, s.table.T(lang, "risk.bmi_low"))
		}
	}
	if m.SleepHours != nil && *m.SleepHours < shortSleep {
		flags = append(flags, s.table.T(lang, "risk.sleep_short"))
	}
	if m.Stress != nil && *m.Stress >= highStress {
		flags = append(flags, s.table.T(lang, "risk.stress_high"))
	}
	if drinksDaily(in.Answers.Lower(domain.QuestionAlcohol)) {
		flags = append(flags, s.table.T(lang, "risk.alcohol_daily"))
	}
	if hasConditions(in.Answers) {
		flags = append(flags, s.table.T(lang, "risk.conditions"))
	}
	return flags
}

func (s *deterministicStrategy) warnings(in *ReportInput) []string {
	if hasConditions(in.Answers) {
		return []string{s.table.T(in.Language, "warning.medical")}
	}
	return []string{}
}

func drinksDaily(alcohol string) bool {
	return strings.Contains(alcohol, "daily") || strings.Contains(alcohol, "every day")
}

// noConditionAnswers are answers to the optional conditions question that
// mean "nothing to report".
var noConditionAnswers = map[string]bool{
	"-": true, "no": true, "none": true, "n/a": true, "na": true,
	"ні": true, "немає": true, "нет": true,
}

func hasConditions(answers domain.AnswerSet) bool {
	c := answers.Lower(domain.QuestionConditions)
	return c != "" && !noConditionAnswers[c]
}
