package handler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/langfuse"
	"github.com/blaisecz/bioage-reset/internal/render"
	"github.com/blaisecz/bioage-reset/internal/service"
	"github.com/google/uuid"
)

var testNow = time.Date(2024, 5, 1, 10, 30, 15, 0, time.UTC)

func testReportService() service.ReportService {
	return service.NewReportService(nil, nil, service.WithClock(func() time.Time { return testNow }))
}

func testRenderer() *render.Renderer {
	return render.New(render.WithFonts(render.CoreFonts()))
}

func validAnswers() map[string]string {
	return map[string]string{
		"age":         "45",
		"sex":         "Male",
		"height_cm":   "180",
		"weight_kg":   "90,5",
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

func createBody(t *testing.T, answers map[string]string, lang string) string {
	t.Helper()
	body, err := json.Marshal(domain.CreateReportRequest{Answers: answers, Language: lang})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return string(body)
}

// storedReport builds a ready report with generated content.
func storedReport(t *testing.T, lang domain.Language) *domain.Report {
	t.Helper()
	doc := testReportService().Generate(context.Background(), domain.AnswerSet(validAnswers()), lang)
	content, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	return &domain.Report{
		ID:             uuid.New(),
		Status:         domain.ReportStatusReady,
		Language:       lang,
		CatalogVersion: domain.CatalogVersion,
		Generator:      doc.Generator,
		Content:        content,
		TraceID:        "4bf92f3577b34da6a3ce929d0e0e4736",
		CreatedAt:      testNow,
	}
}

// MockReportStore is a mock implementation of ReportStore
type MockReportStore struct {
	createFunc  func(ctx context.Context, req *domain.CreateReportRequest) (*domain.Report, error)
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	listFunc    func(ctx context.Context, filter domain.ReportFilter) (*domain.ReportListResponse, error)
}

func (m *MockReportStore) Create(ctx context.Context, req *domain.CreateReportRequest) (*domain.Report, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &domain.Report{
		ID:        uuid.New(),
		Status:    domain.ReportStatusReady,
		Language:  domain.ParseLanguage(req.Language),
		Generator: domain.GeneratorDeterministic,
		CreatedAt: testNow,
	}, nil
}

func (m *MockReportStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockReportStore) List(ctx context.Context, filter domain.ReportFilter) (*domain.ReportListResponse, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return &domain.ReportListResponse{
		Data:       []domain.ReportResponse{},
		Pagination: domain.PaginationResponse{HasMore: false},
	}, nil
}

// MockLangfuse records scores.
type MockLangfuse struct {
	mu       sync.Mutex
	enabled  bool
	scores   []langfuse.ScoreInput
	scoreErr error
}

func (m *MockLangfuse) IsEnabled() bool { return m.enabled }

func (m *MockLangfuse) CreateTrace(ctx context.Context, in langfuse.TraceInput) (string, error) {
	return in.ID, nil
}

func (m *MockLangfuse) CreateScore(ctx context.Context, in langfuse.ScoreInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, in)
	return m.scoreErr
}
