package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/i18n"
	"github.com/blaisecz/bioage-reset/internal/logger"
)

const filenameLayout = "20060102_150405"

// Renderer turns a ReportDocument into a paginated A4 PDF.
// A Renderer is safe for concurrent use; every call builds its own document.
type Renderer struct {
	fonts  *FontSet
	labels *i18n.Table
	log    *logger.Logger
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithFonts sets the font pair instead of the process-wide probe result.
func WithFonts(fonts *FontSet) Option {
	return func(r *Renderer) { r.fonts = fonts }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Renderer) { r.log = log }
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{labels: i18n.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.fonts == nil {
		r.fonts = SharedFonts("")
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	return r
}

// Fonts returns the font set documents are typeset with.
func (r *Renderer) Fonts() *FontSet {
	return r.fonts
}

// Filename returns the download name of doc, stamped with its generation time.
func Filename(doc *domain.ReportDocument) string {
	return "bioage_report_" + doc.GeneratedAt.UTC().Format(filenameLayout) + ".pdf"
}

// Render lays out doc with labels in lang. An unsupported lang falls back to
// the document's own language.
func (r *Renderer) Render(doc *domain.ReportDocument, lang domain.Language) (*domain.RenderedDocument, error) {
	content, layout, err := r.render(doc, lang)
	if err != nil {
		return nil, err
	}
	r.log.Debug("report rendered",
		"pages", layout.Pages,
		"bytes", len(content),
		"font", r.fonts.Family,
	)
	return &domain.RenderedDocument{
		Content:     content,
		Filename:    Filename(doc),
		ContentType: domain.PDFContentType,
	}, nil
}

// RenderJSON strictly decodes a serialized ReportDocument and renders it.
func (r *Renderer) RenderJSON(raw []byte, lang domain.Language) (*domain.RenderedDocument, error) {
	doc, err := DecodeDocument(raw)
	if err != nil {
		return nil, err
	}
	return r.Render(doc, lang)
}

// DecodeDocument decodes raw into a ReportDocument, rejecting unknown fields.
func DecodeDocument(raw []byte) (*domain.ReportDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var doc domain.ReportDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidReport, err)
	}
	return &doc, nil
}

func (r *Renderer) render(doc *domain.ReportDocument, lang domain.Language) ([]byte, *Layout, error) {
	if err := doc.Validate(); err != nil {
		return nil, nil, err
	}
	if !lang.IsSupported() {
		lang = doc.Language
	}

	w := newWriter(r.fonts, r.labels, lang)
	title := doc.Title
	if strings.TrimSpace(title) == "" {
		title = w.label("report.title")
	}
	w.pdf.SetTitle(title, true)
	w.pdf.SetAuthor("BioAge Reset", true)
	w.pdf.SetCreator("bioage-reset", true)
	w.pdf.SetCreationDate(doc.GeneratedAt)
	w.footer(title)

	w.cover(doc, title)
	w.titleBlock(doc, title)
	w.profile(doc)
	w.heading("executive_summary", "pdf.executive_summary")
	w.bullets(doc.ExecutiveSummary)
	w.heading("priority_actions", "pdf.priority_actions")
	w.bullets(doc.PriorityActions)
	w.scores(doc)
	w.summary(doc)
	w.plan(doc)
	w.phases(doc)
	if notes := doc.SafetyNotes(); len(notes) > 0 {
		w.heading("safety", "pdf.safety")
		w.bullets(notes)
	}
	if len(doc.NextSteps) > 0 {
		w.heading("next_steps", "pdf.next_steps")
		w.bullets(doc.NextSteps)
	}
	w.answers(doc)

	if err := w.pdf.Error(); err != nil {
		return nil, nil, fmt.Errorf("render report: %w", err)
	}
	w.layout.Pages = w.pdf.PageNo()

	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), &w.layout, nil
}

func (w *writer) cover(doc *domain.ReportDocument, title string) {
	w.pdf.AddPage()
	w.mark("cover")
	pageW, pageH := w.pdf.GetPageSize()

	w.setFillColor(colorAccent)
	w.pdf.Rect(0, 0, pageW, 78, "F")
	w.pdf.SetY(30)
	w.setTextColor(colorWhite)
	w.centered(title, "B", 24, 11)
	w.pdf.Ln(2)
	w.centered(w.label("report.subtitle"), "", 12, 7)

	w.setTextColor(colorText)
	w.pdf.SetY(100)
	w.centered(w.label("pdf.generated")+": "+doc.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"), "", 11, 7)
	w.centered(w.label("pdf.goal")+": "+orDash(doc.Profile.Goal), "", 11, 7)
	w.centered(w.label("pdf.bioage")+": "+orDash(doc.Summary.BioAgeEstimate), "B", 12, 8)

	w.pdf.Ln(6)
	for _, s := range doc.SectionScores {
		w.centered(fmt.Sprintf("%s: %d/100", w.sectionLabel(s), s.Score), "", 11, 6.5)
	}

	w.pdf.SetY(pageH - 62)
	w.setTextColor(colorMuted)
	w.paragraph(doc.Disclaimer, "", 9, 4.5)
	w.setTextColor(colorText)
}

func (w *writer) titleBlock(doc *domain.ReportDocument, title string) {
	w.pdf.AddPage()
	w.mark("title")
	w.setTextColor(colorAccent)
	w.paragraph(title, "B", 18, 9)
	w.setTextColor(colorMuted)
	w.paragraph(doc.Disclaimer, "", 8.5, 4.2)
	w.setTextColor(colorText)
	w.pdf.Ln(2)
}

func (w *writer) profile(doc *domain.ReportDocument) {
	w.heading("profile", "pdf.profile")
	w.paragraph(w.label("pdf.goal")+": "+orDash(doc.Profile.Goal), "", bodyFontSize, bodyLineH)
	w.pdf.Ln(1.5)

	m := doc.Profile.Metrics
	rows := [][]string{
		{w.label("metric.age"), formatMetric(m.Age)},
		{w.label("metric.height"), formatMetric(m.HeightCM)},
		{w.label("metric.weight"), formatMetric(m.WeightKG)},
		{w.label("metric.bmi"), formatMetric(m.BMI)},
		{w.label("metric.sleep"), formatMetric(m.SleepHours)},
		{w.label("metric.stress"), formatMetric(m.Stress)},
	}
	w.table([]float64{70, w.contentW - 70}, []string{w.label("pdf.metric"), w.label("pdf.value")}, rows)
}

func (w *writer) scores(doc *domain.ReportDocument) {
	w.heading("section_scores", "pdf.scores")
	rows := make([][]string, 0, len(doc.SectionScores))
	for _, s := range doc.SectionScores {
		rows = append(rows, []string{w.sectionLabel(s), strconv.Itoa(s.Score), orDash(s.Note)})
	}
	w.table([]float64{38, 18, w.contentW - 56},
		[]string{w.label("pdf.section"), w.label("pdf.score"), w.label("pdf.note")}, rows)
}

func (w *writer) summary(doc *domain.ReportDocument) {
	w.heading("summary", "pdf.summary")
	rows := [][]string{
		{w.label("pdf.bioage"), orDash(doc.Summary.BioAgeEstimate)},
		{w.label("pdf.key_focus"), bulletText(doc.Summary.KeyFocus)},
	}
	w.table([]float64{50, w.contentW - 50}, []string{w.label("pdf.summary"), w.label("pdf.value")}, rows)
}

func (w *writer) plan(doc *domain.ReportDocument) {
	w.heading("plan", "pdf.plan")
	rows := make([][]string, 0, len(doc.Plan90Days))
	for _, week := range doc.Plan90Days {
		rows = append(rows, []string{strconv.Itoa(week.Week), orDash(week.Focus), bulletText(week.Actions)})
	}
	w.table([]float64{16, 48, w.contentW - 64},
		[]string{w.label("pdf.week"), w.label("pdf.focus"), w.label("pdf.actions")}, rows)
}

func (w *writer) phases(doc *domain.ReportDocument) {
	if len(doc.Phases) == 0 {
		return
	}
	w.heading("phases", "pdf.phases")
	for _, p := range doc.Phases {
		w.subheading(p.Name)
		if p.Objective != "" {
			w.paragraph(w.label("pdf.objective")+": "+p.Objective, "", bodyFontSize, bodyLineH)
			w.pdf.Ln(1.5)
		}
		rows := [][]string{
			{w.label("pdf.habits"), bulletText(p.Habits)},
			{w.label("pdf.training"), bulletText(p.Training)},
			{w.label("pdf.nutrition"), bulletText(p.Nutrition)},
			{w.label("pdf.recovery"), bulletText(p.Recovery)},
		}
		w.table([]float64{38, w.contentW - 38}, []string{w.label("pdf.focus"), w.label("pdf.actions")}, rows)
	}
}

func (w *writer) answers(doc *domain.ReportDocument) {
	labeled := doc.Answers.Labeled(w.lang)
	if len(labeled) == 0 {
		return
	}
	w.heading("answers", "pdf.answers")
	rows := make([][]string, 0, len(labeled))
	for _, a := range labeled {
		rows = append(rows, []string{a.Question, orDash(a.Answer)})
	}
	w.table([]float64{80, w.contentW - 80}, []string{w.label("pdf.question"), w.label("pdf.answer")}, rows)
}

func (w *writer) sectionLabel(s domain.SectionScore) string {
	if s.Label != "" {
		return s.Label
	}
	return w.label("section." + string(s.Key))
}

func formatMetric(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
