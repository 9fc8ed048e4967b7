package render

import (
	"strings"
	"unicode"

	"github.com/blaisecz/bioage-reset/internal/domain"
	"github.com/blaisecz/bioage-reset/internal/i18n"
	"github.com/jung-kurt/gofpdf"
)

const (
	pageMargin    = 18.0
	bottomMargin  = 18.0
	bodyFontSize  = 10.0
	bodyLineH     = 5.0
	tableFontSize = 9.0
	tableLineH    = 4.6
	cellPad       = 1.6
	footerHeight  = 12.0
)

type rgb struct{ r, g, b int }

var (
	colorAccent = rgb{26, 82, 118}
	colorText   = rgb{33, 37, 41}
	colorMuted  = rgb{108, 117, 125}
	colorStripe = rgb{242, 246, 249}
	colorBorder = rgb{206, 212, 218}
	colorWhite  = rgb{255, 255, 255}
)

type rowKind int

const (
	rowPlain rowKind = iota
	rowStriped
	rowHeader
)

// SectionMark records the page a document section starts on.
type SectionMark struct {
	Key  string
	Page int
}

// RowMark records where a table row, or a chunk of a split row, was drawn.
type RowMark struct {
	Section string
	Page    int
	Top     float64
	Bottom  float64
	Header  bool
}

// Layout describes where the content of a rendered document landed.
type Layout struct {
	Pages      int
	Sections   []SectionMark
	HeaderRows int
	Rows       []RowMark
}

// Has reports whether a section with key was rendered.
func (l *Layout) Has(key string) bool {
	for _, s := range l.Sections {
		if s.Key == key {
			return true
		}
	}
	return false
}

// writer typesets one document. It is not safe for concurrent use.
type writer struct {
	pdf      *gofpdf.Fpdf
	labels   *i18n.Table
	lang     domain.Language
	fonts    *FontSet
	text     func(string) string
	contentW float64
	bottom   float64
	layout   Layout
}

func newWriter(fonts *FontSet, labels *i18n.Table, lang domain.Language) *writer {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		SizeStr:        "A4",
	})
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetCellMargin(0)
	pdf.AliasNbPages("")
	pdf.SetCatalogSort(true)

	w := &writer{pdf: pdf, labels: labels, lang: lang, fonts: fonts}
	if fonts.Unicode() {
		pdf.AddUTF8FontFromBytes(fonts.Family, "", fonts.Regular)
		pdf.AddUTF8FontFromBytes(fonts.Family, "B", fonts.Bold)
		w.text = sanitizeUnicode
	} else {
		// The translator shares a buffer, so each document gets its own.
		w.text = pdf.UnicodeTranslatorFromDescriptor("cp1252")
	}

	pageW, pageH := pdf.GetPageSize()
	w.contentW = pageW - 2*pageMargin
	w.bottom = pageH - bottomMargin
	return w
}

func (w *writer) label(key string) string {
	return w.labels.T(w.lang, key)
}

func (w *writer) setFont(style string, size float64) {
	w.pdf.SetFont(w.fonts.Family, style, size)
}

func (w *writer) setTextColor(c rgb) {
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

func (w *writer) setFillColor(c rgb) {
	w.pdf.SetFillColor(c.r, c.g, c.b)
}

// section returns the key of the section being written.
func (w *writer) section() string {
	if n := len(w.layout.Sections); n > 0 {
		return w.layout.Sections[n-1].Key
	}
	return ""
}

func (w *writer) mark(key string) {
	w.layout.Sections = append(w.layout.Sections, SectionMark{Key: key, Page: w.pdf.PageNo()})
}

// ensure starts a new page unless h more millimetres fit on the current one.
func (w *writer) ensure(h float64) {
	if w.pdf.GetY()+h > w.bottom {
		w.pdf.AddPage()
	}
}

func (w *writer) footer(title string) {
	w.pdf.SetFooterFunc(func() {
		w.pdf.SetY(-footerHeight)
		w.setFont("", 8)
		w.setTextColor(colorMuted)
		half := w.contentW / 2
		w.pdf.CellFormat(half, 6, w.fit(w.text(title), half-2), "", 0, "L", false, 0, "")
		page := w.labels.F(w.lang, "pdf.page", w.pdf.PageNo())
		w.pdf.CellFormat(half, 6, w.text(page), "", 0, "R", false, 0, "")
	})
}

// heading starts a section, keeping room for the first lines of its body.
func (w *writer) heading(key, labelKey string) {
	w.ensure(8 + 4*bodyLineH)
	w.mark(key)
	w.pdf.Ln(2)
	w.setFont("B", 13)
	w.setTextColor(colorAccent)
	w.pdf.CellFormat(w.contentW, 8, w.text(w.label(labelKey)), "", 1, "L", false, 0, "")
	x, y := w.pdf.GetX(), w.pdf.GetY()
	w.pdf.SetDrawColor(colorAccent.r, colorAccent.g, colorAccent.b)
	w.pdf.Line(x, y, x+w.contentW, y)
	w.pdf.Ln(2.5)
	w.setTextColor(colorText)
}

func (w *writer) subheading(s string) {
	w.ensure(6 + 3*bodyLineH)
	w.setFont("B", 11)
	w.setTextColor(colorAccent)
	for _, line := range w.wrap(w.text(s), w.contentW) {
		w.pdf.CellFormat(w.contentW, 6, line, "", 1, "L", false, 0, "")
	}
	w.setTextColor(colorText)
}

func (w *writer) paragraph(s string, style string, size, lineH float64) {
	w.setFont(style, size)
	for _, line := range w.wrap(w.text(s), w.contentW) {
		w.ensure(lineH)
		w.pdf.CellFormat(w.contentW, lineH, line, "", 1, "L", false, 0, "")
	}
}

func (w *writer) centered(s string, style string, size, lineH float64) {
	w.setFont(style, size)
	for _, line := range w.wrap(w.text(s), w.contentW) {
		w.pdf.CellFormat(w.contentW, lineH, line, "", 1, "C", false, 0, "")
	}
}

func (w *writer) bullets(items []string) {
	w.paragraph(bulletText(items), "", bodyFontSize, bodyLineH)
	w.pdf.Ln(1.5)
}

// table draws a header row and body rows. A row that fits on a page is
// never split; a row taller than a page continues in page-sized chunks.
// The header repeats on every page the table continues on.
func (w *writer) table(widths []float64, header []string, rows [][]string) {
	// Rows are placed explicitly, so gofpdf must not break pages mid-row.
	auto, margin := w.pdf.GetAutoPageBreak()
	w.pdf.SetAutoPageBreak(false, margin)
	defer w.pdf.SetAutoPageBreak(auto, margin)

	w.setFont("B", tableFontSize)
	head := w.cellLines(widths, header)
	headerH := linesHeight(head)
	w.ensure(headerH + tableLineH + 2*cellPad)
	w.drawRow(widths, head, headerH, rowHeader)

	pageRoom := w.bottom - pageMargin - headerH
	for i, row := range rows {
		kind := rowPlain
		if i%2 == 1 {
			kind = rowStriped
		}
		w.setFont("", tableFontSize)
		cells := w.cellLines(widths, row)

		h := linesHeight(cells)
		if w.pdf.GetY()+h <= w.bottom {
			w.drawRow(widths, cells, h, kind)
			continue
		}
		if h <= pageRoom {
			w.continueTable(widths, head, headerH)
			w.drawRow(widths, cells, h, kind)
			continue
		}

		for {
			fit := int((w.bottom - w.pdf.GetY() - 2*cellPad) / tableLineH)
			if fit < 2 {
				w.continueTable(widths, head, headerH)
				continue
			}
			chunk, rest := splitLines(cells, fit)
			w.drawRow(widths, chunk, linesHeight(chunk), kind)
			if rest == nil {
				break
			}
			cells = rest
			w.continueTable(widths, head, headerH)
		}
	}
	w.pdf.Ln(3)
}

// continueTable starts a new page and repeats the table header on it.
func (w *writer) continueTable(widths []float64, head [][]string, headerH float64) {
	w.pdf.AddPage()
	w.setFont("B", tableFontSize)
	w.drawRow(widths, head, headerH, rowHeader)
	w.setFont("", tableFontSize)
}

// cellLines wraps every cell of a row to its column width.
func (w *writer) cellLines(widths []float64, cells []string) [][]string {
	out := make([][]string, len(cells))
	for i, cell := range cells {
		out[i] = w.wrap(w.text(cell), widths[i]-2*cellPad)
	}
	return out
}

func linesHeight(cells [][]string) float64 {
	lines := 1
	for _, c := range cells {
		if len(c) > lines {
			lines = len(c)
		}
	}
	return float64(lines)*tableLineH + 2*cellPad
}

// splitLines cuts every cell after n lines. rest is nil once nothing is left.
func splitLines(cells [][]string, n int) (chunk, rest [][]string) {
	chunk = make([][]string, len(cells))
	rest = make([][]string, len(cells))
	left := false
	for i, c := range cells {
		if len(c) <= n {
			chunk[i] = c
			continue
		}
		chunk[i], rest[i] = c[:n], c[n:]
		left = true
	}
	if !left {
		return chunk, nil
	}
	return chunk, rest
}

func (w *writer) drawRow(widths []float64, cells [][]string, h float64, kind rowKind) {
	x, y := pageMargin, w.pdf.GetY()
	w.pdf.SetDrawColor(colorBorder.r, colorBorder.g, colorBorder.b)
	w.pdf.SetLineWidth(0.2)

	textColor := colorText
	switch kind {
	case rowHeader:
		w.setFillColor(colorAccent)
		textColor = colorWhite
	case rowStriped:
		w.setFillColor(colorStripe)
	default:
		w.setFillColor(colorWhite)
	}
	w.setTextColor(textColor)
	if kind == rowHeader {
		w.layout.HeaderRows++
	}
	w.layout.Rows = append(w.layout.Rows, RowMark{
		Section: w.section(),
		Page:    w.pdf.PageNo(),
		Top:     y,
		Bottom:  y + h,
		Header:  kind == rowHeader,
	})

	for i, lines := range cells {
		cw := widths[i]
		w.pdf.Rect(x, y, cw, h, "FD")
		for j, line := range lines {
			w.pdf.SetXY(x+cellPad, y+cellPad+float64(j)*tableLineH)
			w.pdf.CellFormat(cw-2*cellPad, tableLineH, line, "", 0, "L", false, 0, "")
		}
		x += cw
	}
	w.pdf.SetXY(pageMargin, y+h)
	w.setTextColor(colorText)
}

// wrap breaks an already encoded string into lines no wider than width.
// Explicit newlines are kept and words longer than a line are split.
func (w *writer) wrap(s string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if w.pdf.GetStringWidth(candidate) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			if w.pdf.GetStringWidth(word) <= width {
				line = word
				continue
			}
			parts := w.breakWord(word, width)
			lines = append(lines, parts[:len(parts)-1]...)
			line = parts[len(parts)-1]
		}
		lines = append(lines, line)
	}
	return lines
}

func (w *writer) breakWord(word string, width float64) []string {
	var parts []string
	var cur strings.Builder
	for _, u := range w.units(word) {
		if cur.Len() > 0 && w.pdf.GetStringWidth(cur.String()+u) > width {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteString(u)
	}
	return append(parts, cur.String())
}

// units splits s into glyph-sized pieces: runes for embedded fonts, bytes
// for the single-byte core encoding.
func (w *writer) units(s string) []string {
	var out []string
	if w.fonts.Unicode() {
		for _, r := range s {
			out = append(out, string(r))
		}
		return out
	}
	for i := 0; i < len(s); i++ {
		out = append(out, s[i:i+1])
	}
	return out
}

// fit truncates s with an ellipsis so it is no wider than width.
func (w *writer) fit(s string, width float64) string {
	if w.pdf.GetStringWidth(s) <= width {
		return s
	}
	units := w.units(s)
	for n := len(units) - 1; n > 0; n-- {
		cut := strings.Join(units[:n], "") + "..."
		if w.pdf.GetStringWidth(cut) <= width {
			return cut
		}
	}
	return "..."
}

func bulletText(items []string) string {
	var lines []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			lines = append(lines, "• "+item)
		}
	}
	if len(lines) == 0 {
		return "-"
	}
	return strings.Join(lines, "\n")
}

// sanitizeUnicode keeps text inside the Basic Multilingual Plane and turns
// control characters other than newline into spaces.
func sanitizeUnicode(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r > 0xFFFF:
			return '?'
		case unicode.IsControl(r):
			return ' '
		}
		return r
	}, s)
}
