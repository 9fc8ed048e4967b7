package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/langfuse"
	"github.com/google/uuid"
)

// MockReportRepository is an in-memory ReportRepository.
type MockReportRepository struct {
	reports   map[uuid.UUID]*domain.Report
	createErr error
	updateErr error
	clock     time.Time
}

func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{
		reports: make(map[uuid.UUID]*domain.Report),
		clock:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (m *MockReportRepository) Create(ctx context.Context, report *domain.Report) error {
	if m.createErr != nil {
		return m.createErr
	}
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Minute)
	report.CreatedAt = m.clock
	stored := *report
	m.reports[report.ID] = &stored
	return nil
}

func (m *MockReportRepository) Update(ctx context.Context, report *domain.Report) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.reports[report.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *report
	m.reports[report.ID] = &stored
	return nil
}

func (m *MockReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (m *MockReportRepository) List(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	var out []domain.Report
	for _, r := range m.reports {
		if filter.Language != "" && r.Language != filter.Language {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(out) > limit+1 {
		out = out[:limit+1]
	}
	return out, nil
}

// mockReportLLM returns canned responses for generation and translation.
type mockReportLLM struct {
	generate       json.RawMessage
	generateErr    error
	translate      json.RawMessage
	translateErr   error
	generateCalls  int
	translateCalls int
	lastContext    *domain.ReportContext
}

func (m *mockReportLLM) GenerateReport(ctx context.Context, reportCtx *domain.ReportContext) (json.RawMessage, error) {
	m.generateCalls++
	m.lastContext = reportCtx
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return m.generate, nil
}

func (m *mockReportLLM) TranslateReport(ctx context.Context, report json.RawMessage, lang domain.Language) (json.RawMessage, error) {
	m.translateCalls++
	if m.translateErr != nil {
		return nil, m.translateErr
	}
	return m.translate, nil
}

// mockLangfuse records traces.
type mockLangfuse struct {
	mu     sync.Mutex
	traces []langfuse.TraceInput
	scores []langfuse.ScoreInput
}

func (m *mockLangfuse) IsEnabled() bool { return true }

func (m *mockLangfuse) CreateTrace(ctx context.Context, in langfuse.TraceInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces = append(m.traces, in)
	return in.ID, nil
}

func (m *mockLangfuse) CreateScore(ctx context.Context, in langfuse.ScoreInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, in)
	return nil
}

// scenarioAnswers is a complete, realistic questionnaire.
func scenarioAnswers() domain.AnswerSet {
	return domain.AnswerSet{
		"age":         "45",
		"sex":         "male",
		"height_cm":   "180",
		"weight_kg":   "90",
		"sleep_hours": "6",
		"training":    "3x gym",
		"nutrition":   "balanced",
		"stress":      "4",
		"smoking":     "no",
		"alcohol":     "rarely",
		"conditions":  "",
		"goal":        "lose fat",
	}
}

var fixedNow = time.Date(2024, 5, 1, 10, 30, 15, 123456789, time.UTC)

func fixedClock() time.Time { return fixedNow }
