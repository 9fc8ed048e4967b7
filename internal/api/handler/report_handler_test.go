package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/pkg/problem"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func newTestHandler(store *MockReportStore, lf *MockLangfuse) *ReportHandler {
	if lf == nil {
		lf = &MockLangfuse{enabled: true}
	}
	return NewReportHandler(store, testReportService(), testRenderer(), lf, nil)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) problem.Problem {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != problem.ContentType {
		t.Fatalf("Content-Type = %q, want %q", ct, problem.ContentType)
	}
	var p problem.Problem
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return p
}

func hasFieldError(p problem.Problem, field string) bool {
	for _, fe := range p.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func TestReportHandler_Create(t *testing.T) {
	missingAge := validAnswers()
	delete(missingAge, "age")
	badNumber := validAnswers()
	badNumber["stress"] = "high"
	badChoice := validAnswers()
	badChoice["smoking"] = "maybe"

	tests := []struct {
		name           string
		body           string
		store          *MockReportStore
		wantStatusCode int
		wantField      string
	}{
		{
			name:           "valid answers",
			body:           createBody(t, validAnswers(), "uk"),
			store:          &MockReportStore{},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "missing answers object",
			body:           `{"language": "en"}`,
			store:          &MockReportStore{},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantField:      "answers",
		},
		{
			name:           "missing required answer",
			body:           createBody(t, missingAge, "en"),
			store:          &MockReportStore{},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantField:      "answers.age",
		},
		{
			name:           "non-numeric answer",
			body:           createBody(t, badNumber, "en"),
			store:          &MockReportStore{},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantField:      "answers.stress",
		},
		{
			name:           "unknown choice",
			body:           createBody(t, badChoice, "en"),
			store:          &MockReportStore{},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantField:      "answers.smoking",
		},
		{
			name:           "invalid JSON",
			body:           `{"answers": `,
			store:          &MockReportStore{},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store rejects input",
			body: createBody(t, validAnswers(), "en"),
			store: &MockReportStore{
				createFunc: func(ctx context.Context, req *domain.CreateReportRequest) (*domain.Report, error) {
					return nil, domain.ErrInvalidInput
				},
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store failure",
			body: createBody(t, validAnswers(), "en"),
			store: &MockReportStore{
				createFunc: func(ctx context.Context, req *domain.CreateReportRequest) (*domain.Report, error) {
					return nil, errors.New("connection refused")
				},
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(tt.store, nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			h.Create(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
			if tt.wantField != "" {
				p := decodeProblem(t, rec)
				if !hasFieldError(p, tt.wantField) {
					t.Errorf("errors = %+v, want field %q", p.Errors, tt.wantField)
				}
			}
		})
	}
}

func TestReportHandler_Create_PassesCleanAnswers(t *testing.T) {
	var got *domain.CreateReportRequest
	store := &MockReportStore{
		createFunc: func(ctx context.Context, req *domain.CreateReportRequest) (*domain.Report, error) {
			got = req
			return &domain.Report{ID: uuid.New(), Status: domain.ReportStatusReady, Language: domain.LanguageUK}, nil
		},
	}
	h := newTestHandler(store, nil)

	answers := validAnswers()
	answers["goal"] = "  lose fat  "
	answers["favourite_color"] = " blue "
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(createBody(t, answers, "uk")))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	if got == nil {
		t.Fatal("store was not called")
	}
	if got.Answers["sex"] != "male" {
		t.Errorf("sex = %q, want lower-cased choice", got.Answers["sex"])
	}
	if got.Answers["goal"] != "lose fat" {
		t.Errorf("goal = %q, want trimmed", got.Answers["goal"])
	}
	if got.Answers["favourite_color"] != "blue" {
		t.Errorf("unknown answer = %q, want kept and trimmed", got.Answers["favourite_color"])
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/v1/reports/") {
		t.Errorf("Location = %q", loc)
	}
}

func TestReportHandler_Create_BodyTooLarge(t *testing.T) {
	h := newTestHandler(&MockReportStore{}, nil)

	answers := validAnswers()
	answers["goal"] = strings.Repeat("a", maxRequestBytes)
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(createBody(t, answers, "en")))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestReportHandler_GetByID(t *testing.T) {
	stored := storedReport(t, domain.LanguageEN)

	tests := []struct {
		name           string
		reportID       string
		wantStatusCode int
	}{
		{name: "found", reportID: stored.ID.String(), wantStatusCode: http.StatusOK},
		{name: "not found", reportID: uuid.New().String(), wantStatusCode: http.StatusNotFound},
		{name: "invalid UUID", reportID: "not-a-uuid", wantStatusCode: http.StatusBadRequest},
	}

	store := &MockReportStore{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
			if id == stored.ID {
				return stored, nil
			}
			return nil, domain.ErrNotFound
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(store, nil)

			req := withURLParam(httptest.NewRequest(http.MethodGet, "/v1/reports/"+tt.reportID, nil), "reportId", tt.reportID)
			rec := httptest.NewRecorder()

			h.GetByID(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatusCode)
			}
			if tt.wantStatusCode != http.StatusOK {
				return
			}
			var resp domain.ReportResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Report == nil || len(resp.Report.SectionScores) != 5 {
				t.Errorf("report content missing: %+v", resp.Report)
			}
		})
	}
}

func TestReportHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		listErr        error
		wantStatusCode int
		wantFilter     domain.ReportFilter
	}{
		{
			name:           "defaults",
			query:          "",
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "language and limit",
			query:          "?language=ru&limit=5&cursor=abc",
			wantStatusCode: http.StatusOK,
			wantFilter:     domain.ReportFilter{Language: domain.LanguageRU, Limit: 5, Cursor: "abc"},
		},
		{
			name:           "limit out of range",
			query:          "?limit=500",
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "unsupported language",
			query:          "?language=de",
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "invalid cursor",
			query:          "?cursor=garbage",
			listErr:        domain.ErrInvalidInput,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "store failure",
			query:          "",
			listErr:        errors.New("boom"),
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.ReportFilter
			store := &MockReportStore{
				listFunc: func(ctx context.Context, filter domain.ReportFilter) (*domain.ReportListResponse, error) {
					got = filter
					if tt.listErr != nil {
						return nil, tt.listErr
					}
					return &domain.ReportListResponse{Data: []domain.ReportResponse{}}, nil
				},
			}
			h := newTestHandler(store, nil)

			req := httptest.NewRequest(http.MethodGet, "/v1/reports"+tt.query, nil)
			rec := httptest.NewRecorder()

			h.List(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
			if tt.wantStatusCode == http.StatusOK && got != tt.wantFilter {
				t.Errorf("filter = %+v, want %+v", got, tt.wantFilter)
			}
		})
	}
}

func TestReportHandler_DownloadPDF(t *testing.T) {
	ready := storedReport(t, domain.LanguageUK)
	pending := &domain.Report{ID: uuid.New(), Status: domain.ReportStatusGenerating, Language: domain.LanguageEN}

	store := &MockReportStore{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
			switch id {
			case ready.ID:
				return ready, nil
			case pending.ID:
				return pending, nil
			}
			return nil, domain.ErrNotFound
		},
	}

	tests := []struct {
		name            string
		reportID        uuid.UUID
		query           string
		wantStatusCode  int
		wantDisposition string
	}{
		{
			name:            "attachment by default",
			reportID:        ready.ID,
			wantStatusCode:  http.StatusOK,
			wantDisposition: `attachment; filename="bioage_report_20240501_103015.pdf"`,
		},
		{
			name:            "inline view with label override",
			reportID:        ready.ID,
			query:           "?inline=true&lang=en",
			wantStatusCode:  http.StatusOK,
			wantDisposition: `inline; filename="bioage_report_20240501_103015.pdf"`,
		},
		{name: "not ready", reportID: pending.ID, wantStatusCode: http.StatusConflict},
		{name: "not found", reportID: uuid.New(), wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(store, nil)

			path := "/v1/reports/" + tt.reportID.String() + "/pdf" + tt.query
			req := withURLParam(httptest.NewRequest(http.MethodGet, path, nil), "reportId", tt.reportID.String())
			rec := httptest.NewRecorder()

			h.DownloadPDF(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
			if tt.wantStatusCode != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != domain.PDFContentType {
				t.Errorf("Content-Type = %q", ct)
			}
			if cd := rec.Header().Get("Content-Disposition"); cd != tt.wantDisposition {
				t.Errorf("Content-Disposition = %q, want %q", cd, tt.wantDisposition)
			}
			if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
				t.Error("body is not a PDF")
			}
		})
	}
}

func TestReportHandler_Preview(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		h := newTestHandler(&MockReportStore{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/reports/preview", strings.NewReader(createBody(t, validAnswers(), "ru")))
		rec := httptest.NewRecorder()

		h.Preview(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
		}
		var doc domain.ReportDocument
		if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if err := doc.Validate(); err != nil {
			t.Errorf("preview is not a valid report: %v", err)
		}
		if doc.Language != domain.LanguageRU {
			t.Errorf("language = %q, want ru", doc.Language)
		}
	})

	t.Run("pdf", func(t *testing.T) {
		h := newTestHandler(&MockReportStore{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/reports/preview?format=pdf", strings.NewReader(createBody(t, validAnswers(), "en")))
		rec := httptest.NewRecorder()

		h.Preview(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
			t.Error("body is not a PDF")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		h := newTestHandler(&MockReportStore{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/v1/reports/preview?format=xml", strings.NewReader(createBody(t, validAnswers(), "en")))
		rec := httptest.NewRecorder()

		h.Preview(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
	})
}

func TestReportHandler_Render(t *testing.T) {
	doc := testReportService().Generate(context.Background(), domain.AnswerSet(validAnswers()), domain.LanguageEN)
	valid, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(valid, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	fields["mood"] = "great"
	extra, _ := json.Marshal(fields)

	tests := []struct {
		name           string
		body           []byte
		wantStatusCode int
		wantType       string
	}{
		{name: "valid document", body: valid, wantStatusCode: http.StatusOK},
		{name: "unknown field", body: extra, wantStatusCode: http.StatusUnprocessableEntity, wantType: problem.BaseURI + "/invalid-report"},
		{name: "not an object", body: []byte(`"report"`), wantStatusCode: http.StatusUnprocessableEntity, wantType: problem.BaseURI + "/invalid-report"},
		{name: "too large", body: bytes.Repeat([]byte(" "), maxDocumentBytes+1), wantStatusCode: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&MockReportStore{}, nil)
			req := httptest.NewRequest(http.MethodPost, "/v1/reports/render?lang=uk", bytes.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Render(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
			if tt.wantType != "" {
				if p := decodeProblem(t, rec); p.Type != tt.wantType {
					t.Errorf("type = %q, want %q", p.Type, tt.wantType)
				}
			}
		})
	}
}

func TestReportHandler_PostFeedback(t *testing.T) {
	traced := storedReport(t, domain.LanguageEN)
	untraced := storedReport(t, domain.LanguageEN)
	untraced.TraceID = ""

	store := &MockReportStore{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
			switch id {
			case traced.ID:
				return traced, nil
			case untraced.ID:
				return untraced, nil
			}
			return nil, domain.ErrNotFound
		},
	}

	tests := []struct {
		name           string
		reportID       string
		body           string
		scoreErr       error
		wantStatusCode int
		wantScores     int
	}{
		{name: "valid rating", reportID: traced.ID.String(), body: `{"score": 4, "comment": "useful"}`, wantStatusCode: http.StatusNoContent, wantScores: 1},
		{name: "ingestion error is not fatal", reportID: traced.ID.String(), body: `{"score": 2}`, scoreErr: errors.New("timeout"), wantStatusCode: http.StatusNoContent, wantScores: 1},
		{name: "score out of range", reportID: traced.ID.String(), body: `{"score": 6}`, wantStatusCode: http.StatusUnprocessableEntity},
		{name: "invalid JSON", reportID: traced.ID.String(), body: `{`, wantStatusCode: http.StatusBadRequest},
		{name: "report without trace", reportID: untraced.ID.String(), body: `{"score": 3}`, wantStatusCode: http.StatusConflict},
		{name: "unknown report", reportID: uuid.New().String(), body: `{"score": 3}`, wantStatusCode: http.StatusNotFound},
		{name: "invalid UUID", reportID: "abc", body: `{"score": 3}`, wantStatusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lf := &MockLangfuse{enabled: true, scoreErr: tt.scoreErr}
			h := newTestHandler(store, lf)

			req := withURLParam(
				httptest.NewRequest(http.MethodPost, "/v1/reports/"+tt.reportID+"/feedback", strings.NewReader(tt.body)),
				"reportId", tt.reportID,
			)
			rec := httptest.NewRecorder()

			h.PostFeedback(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
			if len(lf.scores) != tt.wantScores {
				t.Fatalf("scores = %d, want %d", len(lf.scores), tt.wantScores)
			}
			if tt.wantScores > 0 {
				score := lf.scores[0]
				if score.TraceID != traced.TraceID || score.Name != feedbackScore {
					t.Errorf("score = %+v", score)
				}
			}
		})
	}
}
