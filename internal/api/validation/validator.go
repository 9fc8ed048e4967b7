package validation

import (
	"sort"
	"strconv"
	"strings"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/service"
	"github.com/blaisecz/bioage-reset/pkg/problem"
	"github.com/go-playground/validator/v10"
)

// MaxAnswerLength bounds free-text answers.
const MaxAnswerLength = 500

var (
	validate *validator.Validate
	textTag  = "max=" + strconv.Itoa(MaxAnswerLength)
)

func init() {
	validate = validator.New()

	// Numbers accept "," as the decimal separator.
	validate.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, ok := service.ParseNumber(fl.Field().String())
		return ok
	})
}

// Validate validates a struct and returns field errors
func Validate(s interface{}) []problem.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors []problem.FieldError
	for _, err := range err.(validator.ValidationErrors) {
		fieldErrors = append(fieldErrors, problem.FieldError{
			Field:   toSnakeCase(err.Field()),
			Message: getValidationMessage(err),
		})
	}
	return fieldErrors
}

// ValidateAnswers checks answers against the questionnaire catalog and
// returns the trimmed answer set. Choice answers are lower-cased. Answers to
// unknown questions are kept as text.
func ValidateAnswers(answers map[string]string) (domain.AnswerSet, []problem.FieldError) {
	clean := make(domain.AnswerSet, len(answers))
	var fieldErrors []problem.FieldError

	for _, q := range domain.Questions() {
		value := strings.TrimSpace(answers[q.ID])
		if q.Kind == domain.QuestionKindChoice {
			value = strings.ToLower(value)
		}
		if value == "" {
			if q.Required {
				fieldErrors = append(fieldErrors, problem.FieldError{Field: "answers." + q.ID, Message: "is required"})
			} else if _, ok := answers[q.ID]; ok {
				clean[q.ID] = ""
			}
			continue
		}
		if err := validate.Var(value, answerTag(q)); err != nil {
			for _, fe := range err.(validator.ValidationErrors) {
				fieldErrors = append(fieldErrors, problem.FieldError{
					Field:   "answers." + q.ID,
					Message: getValidationMessage(fe),
				})
			}
			continue
		}
		clean[q.ID] = value
	}

	var extra []string
	for id := range answers {
		if _, ok := domain.LookupQuestion(id); !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		value := strings.TrimSpace(answers[id])
		if err := validate.Var(value, textTag); err != nil {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "answers." + id,
				Message: getValidationMessage(err.(validator.ValidationErrors)[0]),
			})
			continue
		}
		clean[id] = value
	}

	return clean, fieldErrors
}

func answerTag(q domain.Question) string {
	switch q.Kind {
	case domain.QuestionKindNumber:
		return "decimal"
	case domain.QuestionKindChoice:
		return "oneof=" + strings.Join(q.Choices, " ")
	default:
		return textTag
	}
}

func getValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + err.Param()
	case "max":
		if err.Kind().String() == "string" {
			return "must be at most " + err.Param() + " characters"
		}
		return "must be at most " + err.Param()
	case "oneof":
		return "must be one of: " + err.Param()
	case "decimal":
		return "must be a number"
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var result []byte
	for i, c := range s {
		if c >= 'A' && c <= 'Z' {
			if i > 0 {
				result = append(result, '_')
			}
			result = append(result, byte(c+'a'-'A'))
		} else {
			result = append(result, byte(c))
		}
	}
	return string(result)
}
