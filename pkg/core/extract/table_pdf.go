package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// Gaps between consecutive text runs on a row are measured in multiples of
// the font size: wider than cellGapEms starts a new cell, wider than
// wordGapEms inserts a space.
const (
	cellGapEms      = 1.0
	wordGapEms      = 0.2
	defaultFontSize = 10.0
)

// PDFRowSource rebuilds table rows from positioned text blocks.
type PDFRowSource struct{}

func (PDFRowSource) Name() string            { return "pdf_rows" }
func (PDFRowSource) Supports(kind Kind) bool { return kind == KindPDF }
func (PDFRowSource) Available() error        { return nil }

func (PDFRowSource) Tables(ctx context.Context, doc Document) (tables []Table, err error) {
	// the reader panics on malformed streams
	defer func() {
		if r := recover(); r != nil {
			tables, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return tables, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			continue
		}
		t := Table{Page: i}
		for _, row := range rows {
			cells := rowCells(row.Content)
			if len(cells) > 0 {
				t.Rows = append(t.Rows, cells)
			}
		}
		if len(t.Rows) > 0 {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

// rowCells merges the text runs of one row into cells, left to right.
func rowCells(texts pdf.TextHorizontal) []string {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			cells = append(cells, s)
		}
		cur.Reset()
	}

	end := 0.0
	for i, t := range sorted {
		if i > 0 {
			size := t.FontSize
			if size <= 0 {
				size = defaultFontSize
			}
			switch gap := t.X - end; {
			case gap > cellGapEms*size:
				flush()
			case gap > wordGapEms*size:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		if e := t.X + t.W; i == 0 || e > end {
			end = e
		}
	}
	flush()
	return cells
}

var layoutCellSplit = regexp.MustCompile(`\s{2,}`)

// PDFLayoutSource reads tables from `pdftotext -layout`, where columns are
// separated by runs of two or more spaces.
type PDFLayoutSource struct {
	Timeout time.Duration
}

func (PDFLayoutSource) Name() string            { return "pdf_layout" }
func (PDFLayoutSource) Supports(kind Kind) bool { return kind == KindPDF }

func (PDFLayoutSource) Available() error {
	if !hasBinary("pdftotext") {
		return unavailablef("pdftotext not found on PATH")
	}
	return nil
}

func (s PDFLayoutSource) Tables(ctx context.Context, doc Document) ([]Table, error) {
	out, err := runTool(ctx, s.Timeout, "pdftotext", "-layout", doc.Path, "-")
	if err != nil {
		return nil, err
	}
	return layoutTables(string(out)), nil
}

// layoutTables splits layout text into one table per form-feed separated page.
func layoutTables(text string) []Table {
	var tables []Table
	for i, page := range strings.Split(text, "\f") {
		t := Table{Page: i + 1}
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			t.Rows = append(t.Rows, layoutCellSplit.Split(line, -1))
		}
		if len(t.Rows) > 0 {
			tables = append(tables, t)
		}
	}
	return tables
}
