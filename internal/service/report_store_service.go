package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/repository"
	"github.com/blaisecz/bioage-reset/pkg/pagination"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ReportStore generates reports and keeps them in the repository.
type ReportStore interface {
	Create(ctx context.Context, req *domain.CreateReportRequest) (*domain.Report, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error)
	List(ctx context.Context, filter domain.ReportFilter) (*domain.ReportListResponse, error)
}

type reportStore struct {
	reports ReportService
	repo    repository.ReportRepository
}

func NewReportStore(reports ReportService, repo repository.ReportRepository) ReportStore {
	return &reportStore{reports: reports, repo: repo}
}

// Create stores the answers, generates the report and stores its content.
// The record is marked failed when the content cannot be saved.
func (s *reportStore) Create(ctx context.Context, req *domain.CreateReportRequest) (*domain.Report, error) {
	answers := domain.AnswerSet(req.Answers)
	lang := domain.ParseLanguage(req.Language)

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	record := &domain.Report{
		ID:             uuid.New(),
		Status:         domain.ReportStatusGenerating,
		Language:       lang,
		CatalogVersion: domain.CatalogVersion,
		Answers:        answersJSON,
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		record.TraceID = sc.TraceID().String()
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	doc := s.reports.Generate(ctx, answers, lang)
	content, err := json.Marshal(doc)
	if err != nil {
		record.Status = domain.ReportStatusFailed
		_ = s.repo.Update(ctx, record)
		return nil, err
	}

	record.Status = domain.ReportStatusReady
	record.Generator = doc.Generator
	record.Content = content
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *reportStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *reportStore) List(ctx context.Context, filter domain.ReportFilter) (*domain.ReportListResponse, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page, next, hasMore := pagination.Page(records, filter.Limit, func(r domain.Report) pagination.Cursor {
		return pagination.Cursor{ID: r.ID, CreatedAt: r.CreatedAt}
	})

	resp := &domain.ReportListResponse{
		Data: make([]domain.ReportResponse, 0, len(page)),
		Pagination: domain.PaginationResponse{
			NextCursor: next,
			HasMore:    hasMore,
		},
	}
	for i := range page {
		resp.Data = append(resp.Data, page[i].ToResponse())
	}
	return resp, nil
}
