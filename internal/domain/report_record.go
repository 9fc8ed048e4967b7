package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReportStatus tracks a stored report through generation.
// @Description Lifecycle status of a stored report.
type ReportStatus string

const (
	ReportStatusGenerating ReportStatus = "generating"
	ReportStatusReady      ReportStatus = "ready"
	ReportStatusFailed     ReportStatus = "failed"
)

// Report is the persisted form of a generated ReportDocument.
type Report struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Status         ReportStatus   `gorm:"type:varchar(16);not null;index" json:"status"`
	Language       Language       `gorm:"type:varchar(8);not null;default:'en'" json:"language"`
	CatalogVersion string         `gorm:"type:varchar(16);not null" json:"catalog_version"`
	Generator      GeneratorKind  `gorm:"type:varchar(16)" json:"generator"`
	Answers        datatypes.JSON `gorm:"type:jsonb;not null" json:"answers"`
	Content        datatypes.JSON `gorm:"type:jsonb" json:"content,omitempty"`
	TraceID        string         `gorm:"type:varchar(64)" json:"trace_id,omitempty"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index:idx_reports_created,sort:desc" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Report) TableName() string {
	return "reports"
}

// Document decodes the stored report content.
func (r *Report) Document() (*ReportDocument, error) {
	if len(r.Content) == 0 {
		return nil, fmt.Errorf("%w: report %s has no content", ErrInvalidReport, r.ID)
	}
	var doc ReportDocument
	if err := json.Unmarshal(r.Content, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	return &doc, nil
}

// CreateReportRequest is the request body for generating a report.
// @Description Questionnaire answers and target language.
type CreateReportRequest struct {
	// Answers keyed by question ID (see GET /questions)
	Answers map[string]string `json:"answers" validate:"required"`
	// Report language; unsupported codes fall back to en
	Language string `json:"language" validate:"omitempty,max=8" example:"en"`
}

// ReportResponse is the response body for stored reports.
// @Description Stored report with its structured content.
type ReportResponse struct {
	ID        uuid.UUID       `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Status    ReportStatus    `json:"status" example:"ready"`
	Language  Language        `json:"language" example:"en"`
	Generator GeneratorKind   `json:"generator" example:"deterministic"`
	CreatedAt time.Time       `json:"created_at" example:"2024-05-01T10:00:00Z"`
	TraceID   string          `json:"trace_id,omitempty"`
	Report    *ReportDocument `json:"report,omitempty"`
}

// ToResponse builds the API representation; content decoding errors leave
// Report empty.
func (r *Report) ToResponse() ReportResponse {
	resp := ReportResponse{
		ID:        r.ID,
		Status:    r.Status,
		Language:  r.Language,
		Generator: r.Generator,
		CreatedAt: r.CreatedAt,
		TraceID:   r.TraceID,
	}
	if doc, err := r.Document(); err == nil {
		resp.Report = doc
	}
	return resp
}

// ReportListResponse is a page of stored reports.
// @Description Paginated list of reports.
type ReportListResponse struct {
	Data       []ReportResponse   `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// PaginationResponse contains pagination metadata.
// @Description Cursor-based pagination info.
type PaginationResponse struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more" example:"true"`
}

// ReportFilter contains list parameters for stored reports.
type ReportFilter struct {
	Language Language
	Limit    int
	Cursor   string
}
