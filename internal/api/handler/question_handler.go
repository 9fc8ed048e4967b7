package handler

import (
	"encoding/json"
	"net/http"

	"github.com/blaisecz/bioage-reset/internal/domain"
)

// QuestionHandler serves the questionnaire catalog.
type QuestionHandler struct{}

func NewQuestionHandler() *QuestionHandler {
	return &QuestionHandler{}
}

// List handles GET /v1/questions
// @Summary List questionnaire
// @Description Return the questionnaire catalog with labels in the requested language. Unsupported codes fall back to English.
// @Tags questions
// @Produce json
// @Param lang query string false "Label language" Enums(en, uk, ru) default(en)
// @Success 200 {object} domain.QuestionnaireResponse
// @Router /questions [get]
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := domain.ParseLanguage(r.URL.Query().Get("lang"))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(domain.Questionnaire(lang))
}
