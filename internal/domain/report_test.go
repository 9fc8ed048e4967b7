package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func validDocument() *ReportDocument {
	scores := make([]SectionScore, 0, len(SectionOrder))
	for _, key := range SectionOrder {
		scores = append(scores, SectionScore{Key: key, Score: 70})
	}
	return &ReportDocument{
		SchemaVersion:    ReportSchemaVersion,
		Generator:        GeneratorDeterministic,
		GeneratedAt:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Language:         LanguageEN,
		ExecutiveSummary: []string{},
		PriorityActions:  []string{},
		SectionScores:    scores,
		Summary:          Summary{KeyFocus: []string{}},
		Plan90Days:       []WeekPlan{},
		Phases:           []Phase{},
		RiskFlags:        []string{},
		Warnings:         []string{},
		NextSteps:        []string{},
	}
}

func TestReportDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ReportDocument)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *ReportDocument) {}},
		{name: "unsupported language", mutate: func(r *ReportDocument) { r.Language = "de" }, wantErr: true},
		{name: "missing generated_at", mutate: func(r *ReportDocument) { r.GeneratedAt = time.Time{} }, wantErr: true},
		{name: "four scores", mutate: func(r *ReportDocument) { r.SectionScores = r.SectionScores[:4] }, wantErr: true},
		{
			name: "scores out of order",
			mutate: func(r *ReportDocument) {
				r.SectionScores[0], r.SectionScores[1] = r.SectionScores[1], r.SectionScores[0]
			},
			wantErr: true,
		},
		{name: "score above 100", mutate: func(r *ReportDocument) { r.SectionScores[2].Score = 101 }, wantErr: true},
		{name: "nil warnings", mutate: func(r *ReportDocument) { r.Warnings = nil }, wantErr: true},
		{name: "nil key focus", mutate: func(r *ReportDocument) { r.Summary.KeyFocus = nil }, wantErr: true},
		{name: "nil phases", mutate: func(r *ReportDocument) { r.Phases = nil }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDocument()
			tt.mutate(doc)

			err := doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidReport) {
				t.Errorf("error %v does not wrap ErrInvalidReport", err)
			}
		})
	}

	var nilDoc *ReportDocument
	if err := nilDoc.Validate(); !errors.Is(err, ErrInvalidReport) {
		t.Errorf("nil report: got %v", err)
	}
}

func TestReportDocument_SafetyNotes(t *testing.T) {
	doc := validDocument()
	doc.RiskFlags = []string{"Smoking", "High stress", ""}
	doc.Warnings = []string{"High stress", "Consult a physician"}

	got := doc.SafetyNotes()
	want := []string{"Smoking", "High stress", "Consult a physician"}
	if len(got) != len(want) {
		t.Fatalf("SafetyNotes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SafetyNotes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if notes := validDocument().SafetyNotes(); len(notes) != 0 {
		t.Errorf("empty report notes = %v", notes)
	}
}

func TestReportDocument_Score(t *testing.T) {
	doc := validDocument()
	doc.SectionScores[3].Score = 42

	s, ok := doc.Score(SectionRecovery)
	if !ok || s.Score != 42 {
		t.Errorf("Score(recovery) = %+v, %v", s, ok)
	}
	if _, ok := doc.Score("mood"); ok {
		t.Error("unknown section should not be found")
	}
}

func TestReport_Document(t *testing.T) {
	doc := validDocument()
	content, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	record := &Report{ID: uuid.New(), Status: ReportStatusReady, Language: LanguageEN, Content: content}
	got, err := record.Document()
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if !got.GeneratedAt.Equal(doc.GeneratedAt) || len(got.SectionScores) != 5 {
		t.Errorf("Document() = %+v", got)
	}

	resp := record.ToResponse()
	if resp.Report == nil || resp.ID != record.ID {
		t.Errorf("ToResponse() = %+v", resp)
	}

	empty := &Report{ID: uuid.New(), Status: ReportStatusGenerating}
	if _, err := empty.Document(); !errors.Is(err, ErrInvalidReport) {
		t.Errorf("empty content: got %v", err)
	}
	if resp := empty.ToResponse(); resp.Report != nil {
		t.Error("report without content should have no document")
	}
}
