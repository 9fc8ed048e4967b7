package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/kaptinlin/jsonrepair"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var (
	// ErrOpenAIUnavailable indicates the OpenAI service is not configured or unavailable.
	ErrOpenAIUnavailable = errors.New("OpenAI service unavailable")
	// ErrOpenAIRequest indicates an error during the OpenAI API request.
	ErrOpenAIRequest = errors.New("OpenAI request failed")
	// ErrOpenAIResponse indicates an error parsing the OpenAI response.
	ErrOpenAIResponse = errors.New("failed to parse OpenAI response")
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second
	schemaName     = "bioage_report"
)

// DefaultSystemPrompt is used when no prompt is loaded from Langfuse.
const DefaultSystemPrompt = `You are a longevity coach writing a founder-led, clean medical style 90-day plan.

You receive a client's questionnaire answers, derived metrics (age, height, weight, BMI, sleep hours, stress) and five section scores from 0 to 100 (sleep, activity, nutrition, recovery, risk). Base every statement only on the provided data.

Your goals:
- Summarize the client's current state in 3-5 short executive summary sentences.
- List 2-5 priority actions, weakest section first.
- Estimate a BioAge as free text, or "N/A" when age is missing, and list 3 key focus areas.
- Write a 13-week plan: weeks 1-4 Foundation, 5-8 Progression, 9-13 Optimization, 3-4 concrete actions per week.
- Describe the three phases with habits, training, nutrition and recovery items.
- Flag risks (smoking, BMI, short sleep, high stress, daily alcohol, reported conditions) and add warnings where medical supervision is needed.

Rules:
- This is education, not medical advice. Never diagnose or prescribe medication.
- Write every value in the requested language.
- Be concise and concrete.

Respond as strict JSON matching the provided schema. No extra fields. No comments. No backticks.`

const userPromptTemplate = `Language: %s

Here is JSON describing this client:

- "answers" lists each question with the raw answer,
- "metrics" holds derived numbers (null when unknown),
- "section_scores" holds the five 0-100 scores,
- "generated_at" is the report timestamp.

JSON:

%s

Based on this data, respond in the required JSON format.`

const translatePromptTemplate = `Translate every string value of the JSON report below into %s.
Keep all keys, the structure, numbers and week indices unchanged. Do not add or drop items.
Respond with the translated JSON only.

JSON:

%s`

var languageNames = map[domain.Language]string{
	domain.LanguageEN: "English",
	domain.LanguageUK: "Ukrainian",
	domain.LanguageRU: "Russian",
}

// ReportLLM is the interface for generating report narratives using an LLM.
type ReportLLM interface {
	// GenerateReport returns the narrative fields of a report as a JSON object.
	GenerateReport(ctx context.Context, reportCtx *domain.ReportContext) (json.RawMessage, error)
	// TranslateReport rewrites the values of a narrative JSON object in lang.
	TranslateReport(ctx context.Context, report json.RawMessage, lang domain.Language) (json.RawMessage, error)
}

// Config configures the OpenAI client.
type Config struct {
	APIKey       string
	Model        string
	Timeout      time.Duration
	BaseURL      string
	SystemPrompt string
}

// OpenAIClient implements ReportLLM using the OpenAI API.
type OpenAIClient struct {
	client       openai.Client
	model        string
	systemPrompt string
}

// NewOpenAIClient creates a new OpenAI client for generating reports.
// Returns nil if APIKey is empty. Requests are never retried.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
	}
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// GenerateReport calls OpenAI to write the report narrative.
func (c *OpenAIClient) GenerateReport(ctx context.Context, reportCtx *domain.ReportContext) (json.RawMessage, error) {
	if c == nil {
		return nil, ErrOpenAIUnavailable
	}

	contextJSON, err := json.MarshalIndent(reportCtx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to serialize context: %v", ErrOpenAIRequest, err)
	}

	userPrompt := fmt.Sprintf(userPromptTemplate, languageName(reportCtx.Language), string(contextJSON))
	return c.complete(ctx, c.systemPrompt, userPrompt)
}

// TranslateReport asks OpenAI to translate a narrative object in place.
func (c *OpenAIClient) TranslateReport(ctx context.Context, report json.RawMessage, lang domain.Language) (json.RawMessage, error) {
	if c == nil {
		return nil, ErrOpenAIUnavailable
	}

	userPrompt := fmt.Sprintf(translatePromptTemplate, languageName(lang), string(report))
	return c.complete(ctx, "You are a professional medical-wellness translator. Return JSON only.", userPrompt)
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (json.RawMessage, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: ReportSchema(),
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenAIRequest, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrOpenAIResponse)
	}

	return parseContent(resp.Choices[0].Message.Content)
}

// parseContent returns the message content as a JSON object, repairing
// minor syntax damage such as trailing commas or unquoted keys.
func parseContent(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "{") {
		return nil, fmt.Errorf("%w: content is not a JSON object", ErrOpenAIResponse)
	}
	if json.Valid([]byte(content)) {
		return json.RawMessage(content), nil
	}
	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil || !json.Valid([]byte(repaired)) {
		return nil, fmt.Errorf("%w: content is not JSON", ErrOpenAIResponse)
	}
	return json.RawMessage(repaired), nil
}

func languageName(lang domain.Language) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return languageNames[domain.DefaultLanguage]
}
