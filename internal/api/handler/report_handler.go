package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/blaisecz/bioage-reset/internal/api/validation"
	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/langfuse"
	"github.com/blaisecz/bioage-reset/internal/logger"
	"github.com/blaisecz/bioage-reset/internal/service"
	"github.com/blaisecz/bioage-reset/pkg/problem"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	maxRequestBytes  = 64 << 10
	maxDocumentBytes = 1 << 20
	feedbackScore    = "user_rating"
)

// Renderer produces PDF documents from reports.
type Renderer interface {
	Render(doc *domain.ReportDocument, lang domain.Language) (*domain.RenderedDocument, error)
	RenderJSON(raw []byte, lang domain.Language) (*domain.RenderedDocument, error)
}

// ReportHandler handles report generation, retrieval and rendering.
type ReportHandler struct {
	store          service.ReportStore
	reports        service.ReportService
	renderer       Renderer
	langfuseClient langfuse.Client
	log            *logger.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(
	store service.ReportStore,
	reports service.ReportService,
	renderer Renderer,
	langfuseClient langfuse.Client,
	log *logger.Logger,
) *ReportHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportHandler{
		store:          store,
		reports:        reports,
		renderer:       renderer,
		langfuseClient: langfuseClient,
		log:            log,
	}
}

// Create handles POST /v1/reports
// @Summary Generate a report
// @Description Validate questionnaire answers, generate the 90-day report and store it. Generation never fails: provider problems resolve to the deterministic report.
// @Tags reports
// @Accept json
// @Produce json
// @Param request body domain.CreateReportRequest true "Answers and language"
// @Success 201 {object} domain.ReportResponse "Report generated"
// @Failure 400 {object} problem.Problem "Invalid JSON body"
// @Failure 413 {object} problem.Problem "Body too large"
// @Failure 422 {object} problem.Problem "Invalid answers"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /reports [post]
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeCreateRequest(w, r)
	if !ok {
		return
	}

	report, err := h.store.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			problem.BadRequest("Answers could not be stored").Write(w)
			return
		}
		h.log.Error("create report failed", "error", err)
		problem.InternalError("Failed to create report").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/v1/reports/"+report.ID.String())
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(report.ToResponse())
}

// Preview handles POST /v1/reports/preview
// @Summary Preview a report
// @Description Generate a report without storing it. format=pdf returns the rendered document.
// @Tags reports
// @Accept json
// @Produce json
// @Produce application/pdf
// @Param request body domain.CreateReportRequest true "Answers and language"
// @Param format query string false "Response format" Enums(json, pdf) default(json)
// @Param inline query boolean false "Show the PDF in the browser instead of downloading it"
// @Success 200 {object} domain.ReportDocument "Generated report"
// @Failure 400 {object} problem.Problem "Invalid JSON body"
// @Failure 422 {object} problem.Problem "Invalid answers"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /reports/preview [post]
func (h *ReportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "pdf" {
		problem.ValidationError("Invalid query parameters", []problem.FieldError{
			{Field: "format", Message: "must be one of: json pdf"},
		}).Write(w)
		return
	}

	req, ok := h.decodeCreateRequest(w, r)
	if !ok {
		return
	}

	lang := domain.ParseLanguage(req.Language)
	doc := h.reports.Generate(r.Context(), domain.AnswerSet(req.Answers), lang)

	if format == "pdf" {
		h.renderPDF(w, r, func() (*domain.RenderedDocument, error) { return h.renderer.Render(doc, lang) })
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// Render handles POST /v1/reports/render
// @Summary Render a report document
// @Description Render a serialized report document to PDF. Fields outside the document schema are rejected.
// @Tags reports
// @Accept json
// @Produce application/pdf
// @Param request body domain.ReportDocument true "Report document"
// @Param lang query string false "Label language; defaults to the document language" Enums(en, uk, ru)
// @Param inline query boolean false "Show the PDF in the browser instead of downloading it"
// @Success 200 {file} file "PDF document"
// @Failure 413 {object} problem.Problem "Body too large"
// @Failure 422 {object} problem.Problem "Document violates the report schema"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /reports/render [post]
func (h *ReportHandler) Render(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			problem.PayloadTooLarge(fmt.Sprintf("Report documents are limited to %d bytes", maxDocumentBytes)).Write(w)
			return
		}
		problem.BadRequest("Could not read request body").Write(w)
		return
	}

	var lang domain.Language
	if code := r.URL.Query().Get("lang"); code != "" {
		lang = domain.ParseLanguage(code)
	}
	h.renderPDF(w, r, func() (*domain.RenderedDocument, error) { return h.renderer.RenderJSON(raw, lang) })
}

// GetByID handles GET /v1/reports/{reportId}
// @Summary Get a report
// @Description Fetch a stored report with its structured content.
// @Tags reports
// @Produce json
// @Param reportId path string true "Report UUID" format(uuid) example(550e8400-e29b-41d4-a716-446655440000)
// @Success 200 {object} domain.ReportResponse
// @Failure 400 {object} problem.Problem "Invalid report ID"
// @Failure 404 {object} problem.Problem "Report not found"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /reports/{reportId} [get]
func (h *ReportHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report.ToResponse())
}

// List handles GET /v1/reports
// @Summary List reports
// @Description Fetch stored reports, newest first, with cursor pagination.
// @Tags reports
// @Produce json
// @Param language query string false "Only reports in this language" Enums(en, uk, ru)
// @Param limit query integer false "Results per page (1-100)" default(20) minimum(1) maximum(100)
// @Param cursor query string false "Cursor from previous response's next_cursor"
// @Success 200 {object} domain.ReportListResponse
// @Failure 400 {object} problem.Problem "Invalid cursor"
// @Failure 422 {object} problem.Problem "Invalid query parameters"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /reports [get]
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, fieldErrors := parseReportFilter(r)
	if fieldErrors != nil {
		problem.ValidationError("Invalid query parameters", fieldErrors).Write(w)
		return
	}

	response, err := h.store.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			problem.BadRequest("Invalid cursor").Write(w)
			return
		}
		h.log.Error("list reports failed", "error", err)
		problem.InternalError("Failed to list reports").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// DownloadPDF handles GET /v1/reports/{reportId}/pdf
// @Summary Download report PDF
// @Description Render a stored report to PDF. Labels follow lang, or the report language when lang is omitted.
// @Tags reports
// @Produce application/pdf
// @Param reportId path string true "Report UUID" format(uuid) example(550e8400-e29b-41d4-a716-446655440000)
// @Param lang query string false "Label language" Enums(en, uk, ru)
// @Param inline query boolean false "Show the PDF in the browser instead of downloading it"
// @Success 200 {file} file "PDF document"
// @Failure 400 {object} problem.Problem "Invalid report ID"
// @Failure 404 {object} problem.Problem "Report not found"
// @Failure 409 {object} problem.Problem "Report is not ready"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /reports/{reportId}/pdf [get]
func (h *ReportHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	if report.Status != domain.ReportStatusReady {
		problem.Conflict(fmt.Sprintf("Report is %s", report.Status)).Write(w)
		return
	}

	lang := report.Language
	if code := r.URL.Query().Get("lang"); code != "" {
		lang = domain.ParseLanguage(code)
	}
	h.renderPDF(w, r, func() (*domain.RenderedDocument, error) { return h.renderer.RenderJSON(report.Content, lang) })
}

// FeedbackRequest is the request body for report feedback.
// @Description Rating for a generated report.
type FeedbackRequest struct {
	// Rating score (1-5)
	Score int `json:"score" validate:"min=1,max=5" example:"4" minimum:"1" maximum:"5"`
	// Optional comment
	Comment string `json:"comment,omitempty" validate:"max=1000" example:"The weekly plan is easy to follow."`
}

// PostFeedback handles POST /v1/reports/{reportId}/feedback
// @Summary Rate a report
// @Description Attach a user rating to the trace of a stored report.
// @Tags reports
// @Accept json
// @Param reportId path string true "Report UUID" format(uuid) example(550e8400-e29b-41d4-a716-446655440000)
// @Param body body FeedbackRequest true "Feedback"
// @Success 204 "Feedback accepted"
// @Failure 400 {object} problem.Problem "Invalid request"
// @Failure 404 {object} problem.Problem "Report not found"
// @Failure 409 {object} problem.Problem "Report has no trace"
// @Failure 422 {object} problem.Problem "Invalid fields"
// @Failure 500 {object} problem.Problem "Server error"
// @Router /reports/{reportId}/feedback [post]
func (h *ReportHandler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		problem.BadRequest("Invalid JSON body").Write(w)
		return
	}
	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return
	}

	report, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	if report.TraceID == "" {
		problem.Conflict("Report was generated without tracing").Write(w)
		return
	}

	if err := h.langfuseClient.CreateScore(r.Context(), langfuse.ScoreInput{
		TraceID: report.TraceID,
		Name:    feedbackScore,
		Value:   float64(req.Score),
		Comment: req.Comment,
	}); err != nil {
		h.log.Warn("feedback score failed", "report_id", report.ID, "error", err)
	}
	h.log.Info("report feedback", "report_id", report.ID, "score", req.Score, "traced", h.langfuseClient.IsEnabled())

	w.WriteHeader(http.StatusNoContent)
}

func (h *ReportHandler) decodeCreateRequest(w http.ResponseWriter, r *http.Request) (*domain.CreateReportRequest, bool) {
	var req domain.CreateReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			problem.PayloadTooLarge(fmt.Sprintf("Requests are limited to %d bytes", maxRequestBytes)).Write(w)
			return nil, false
		}
		problem.BadRequest("Invalid JSON body").Write(w)
		return nil, false
	}

	if fieldErrors := validation.Validate(req); fieldErrors != nil {
		problem.ValidationError("Request body contains invalid fields", fieldErrors).Write(w)
		return nil, false
	}
	answers, fieldErrors := validation.ValidateAnswers(req.Answers)
	if fieldErrors != nil {
		problem.ValidationError("Answers do not match the questionnaire", fieldErrors).Write(w)
		return nil, false
	}
	req.Answers = answers
	return &req, true
}

func (h *ReportHandler) loadReport(w http.ResponseWriter, r *http.Request) (*domain.Report, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "reportId"))
	if err != nil {
		problem.BadRequest("Invalid report ID format").Write(w)
		return nil, false
	}

	report, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			problem.NotFound("Report not found").Write(w)
			return nil, false
		}
		h.log.Error("load report failed", "report_id", id, "error", err)
		problem.InternalError("Failed to load report").Write(w)
		return nil, false
	}
	return report, true
}

// renderPDF runs render inside a span and writes the document.
func (h *ReportHandler) renderPDF(w http.ResponseWriter, r *http.Request, render func() (*domain.RenderedDocument, error)) {
	_, span := otel.Tracer("bioage-report/render").Start(r.Context(), "report.render")
	defer span.End()

	out, err := render()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		if errors.Is(err, domain.ErrInvalidReport) {
			problem.InvalidDocument(err.Error()).Write(w)
			return
		}
		h.log.Error("render report failed", "error", err)
		problem.InternalError("Failed to render report").Write(w)
		return
	}
	span.SetAttributes(
		attribute.Int("report.pdf_bytes", len(out.Content)),
		attribute.String("report.filename", out.Filename),
	)

	disposition := "attachment"
	if inline, _ := strconv.ParseBool(r.URL.Query().Get("inline")); inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Content)))
	w.WriteHeader(http.StatusOK)
	w.Write(out.Content)
}

func parseReportFilter(r *http.Request) (domain.ReportFilter, []problem.FieldError) {
	var filter domain.ReportFilter
	var fieldErrors []problem.FieldError

	if code := r.URL.Query().Get("language"); code != "" {
		lang := domain.Language(code)
		if !lang.IsSupported() {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "language",
				Message: "must be one of: en uk ru",
			})
		} else {
			filter.Language = lang
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			fieldErrors = append(fieldErrors, problem.FieldError{
				Field:   "limit",
				Message: "must be an integer between 1 and 100",
			})
		} else {
			filter.Limit = limit
		}
	}

	filter.Cursor = r.URL.Query().Get("cursor")

	if len(fieldErrors) > 0 {
		return filter, fieldErrors
	}
	return filter, nil
}
