package domain

// CatalogVersion identifies the current questionnaire revision. Stored with
// every report so historical answer sets can be interpreted later.
const CatalogVersion = "2024-1"

// QuestionKind describes how an answer is validated and parsed.
// @Description Question input kind.
type QuestionKind string

const (
	QuestionKindNumber QuestionKind = "number"
	QuestionKindText   QuestionKind = "text"
	QuestionKindChoice QuestionKind = "choice"
)

// Question identifiers used by the scoring rules.
const (
	QuestionAge        = "age"
	QuestionSex        = "sex"
	QuestionHeightCM   = "height_cm"
	QuestionWeightKG   = "weight_kg"
	QuestionSleepHours = "sleep_hours"
	QuestionTraining   = "training"
	QuestionNutrition  = "nutrition"
	QuestionStress     = "stress"
	QuestionSmoking    = "smoking"
	QuestionAlcohol    = "alcohol"
	QuestionConditions = "conditions"
	QuestionGoal       = "goal"
)

// Question is one entry of the questionnaire catalog.
type Question struct {
	ID       string
	Kind     QuestionKind
	Required bool
	Choices  []string
	labels   map[Language]string
}

// Label returns the question label in lang, falling back to English.
func (q Question) Label(lang Language) string {
	if l, ok := q.labels[lang]; ok && l != "" {
		return l
	}
	return q.labels[LanguageEN]
}

// QuestionResponse is the localized catalog entry served to clients.
// @Description Questionnaire entry.
type QuestionResponse struct {
	ID       string       `json:"id" example:"sleep_hours"`
	Label    string       `json:"label" example:"Average sleep per night (hours)"`
	Kind     QuestionKind `json:"kind" example:"number" enums:"number,text,choice"`
	Required bool         `json:"required" example:"true"`
	Choices  []string     `json:"choices,omitempty"`
}

// ToResponse localizes the question for lang.
func (q Question) ToResponse(lang Language) QuestionResponse {
	return QuestionResponse{
		ID:       q.ID,
		Label:    q.Label(lang),
		Kind:     q.Kind,
		Required: q.Required,
		Choices:  q.Choices,
	}
}

func question(id string, kind QuestionKind, en, uk, ru string, choices ...string) Question {
	return Question{
		ID:       id,
		Kind:     kind,
		Required: true,
		Choices:  choices,
		labels:   map[Language]string{LanguageEN: en, LanguageUK: uk, LanguageRU: ru},
	}
}

func optional(q Question) Question {
	q.Required = false
	return q
}

var catalog = []Question{
	question(QuestionAge, QuestionKindNumber, "Your age", "Ваш вік", "Ваш возраст"),
	question(QuestionSex, QuestionKindChoice, "Sex", "Стать", "Пол", "male", "female"),
	question(QuestionHeightCM, QuestionKindNumber, "Height (cm)", "Зріст (см)", "Рост (см)"),
	question(QuestionWeightKG, QuestionKindNumber, "Weight (kg)", "Вага (кг)", "Вес (кг)"),
	question(QuestionSleepHours, QuestionKindNumber, "Average sleep per night (hours)", "Сон за ніч (год)", "Сон за ночь (часов)"),
	question(QuestionTraining, QuestionKindText, "Training per week (e.g., 3x gym + 2x cardio)", "Тренування на тиждень", "Тренировки в неделю"),
	question(QuestionNutrition, QuestionKindText, "Main nutrition style (e.g., high-protein, keto, balanced)", "Стиль харчування", "Стиль питания"),
	question(QuestionStress, QuestionKindNumber, "Stress level (1-10)", "Рівень стресу (1-10)", "Уровень стресса (1-10)"),
	question(QuestionSmoking, QuestionKindChoice, "Do you smoke?", "Курите?", "Курите?", "no", "sometimes", "yes"),
	question(QuestionAlcohol, QuestionKindText, "Alcohol per week", "Алкоголь на тиждень", "Алкоголь в неделю"),
	optional(question(QuestionConditions, QuestionKindText, "Known conditions / meds (optional)", "Хвороби / ліки (необов'язково)", "Болезни / лекарства (опционально)")),
	question(QuestionGoal, QuestionKindText, "Your 90-day goal (e.g., lose fat, improve sleep)", "Ціль на 90 днів", "Цель на 90 дней"),
}

// Questions returns the questionnaire catalog in display order.
func Questions() []Question {
	out := make([]Question, len(catalog))
	copy(out, catalog)
	return out
}

// LookupQuestion finds a catalog entry by ID.
func LookupQuestion(id string) (Question, bool) {
	for _, q := range catalog {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionnaireResponse is the localized catalog.
// @Description Localized questionnaire catalog.
type QuestionnaireResponse struct {
	Language       Language           `json:"language" example:"en"`
	CatalogVersion string             `json:"catalog_version" example:"2024-1"`
	Questions      []QuestionResponse `json:"questions"`
}

// Questionnaire returns the catalog localized for lang.
func Questionnaire(lang Language) QuestionnaireResponse {
	resp := QuestionnaireResponse{
		Language:       lang,
		CatalogVersion: CatalogVersion,
		Questions:      make([]QuestionResponse, 0, len(catalog)),
	}
	for _, q := range catalog {
		resp.Questions = append(resp.Questions, q.ToResponse(lang))
	}
	return resp
}
