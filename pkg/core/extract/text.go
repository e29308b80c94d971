package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/models"
)

// TextBackend searches linear document text for the fixed label list.
type TextBackend struct {
	MaxPages    int
	WindowChars int
	Confidence  float64
	Labels      []string
	Logger      *zap.Logger
}

var _ Backend = (*TextBackend)(nil)

func NewTextBackend(maxPages, windowChars int, confidence float64, logger *zap.Logger) *TextBackend {
	return &TextBackend{
		MaxPages:    maxPages,
		WindowChars: windowChars,
		Confidence:  confidence,
		Labels:      TextLabels,
		Logger:      logging.OrNop(logger),
	}
}

func (b *TextBackend) Method() models.Method { return models.MethodText }

func (b *TextBackend) Availability(doc Document) error {
	switch doc.Kind {
	case KindPDF, KindHTML, KindText, KindXLSX:
		return nil
	}
	return unavailablef("no text layer for %s documents", doc.Kind)
}

func (b *TextBackend) Extract(ctx context.Context, doc Document) Outcome {
	if err := b.Availability(doc); err != nil {
		return Unavailable(err)
	}
	text, err := b.ReadText(ctx, doc)
	if err != nil {
		return Failed(err)
	}
	hits := WindowSearch(text, b.Labels, b.WindowChars, b.Confidence)
	return Ok(hits, utf8.RuneCountInString(text))
}

// ReadText returns the linear text of doc, limited to MaxPages for PDFs.
func (b *TextBackend) ReadText(ctx context.Context, doc Document) (string, error) {
	switch doc.Kind {
	case KindPDF:
		return readPDFText(ctx, doc.Path, b.MaxPages)
	case KindHTML:
		return readHTMLText(doc.Path)
	case KindXLSX:
		return readWorkbookText(doc.Path)
	case KindText:
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return string(data), nil
	}
	return "", unavailablef("no text layer for %s documents", doc.Kind)
}

func readPDFText(ctx context.Context, path string, maxPages int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()
	return collectPages(ctx, pdfPages{r}, maxPages)
}

// pageTexts is the page access collectPages needs from a PDF reader.
type pageTexts interface {
	NumPage() int
	// PlainText returns the text of 1-based page i; ok is false for
	// null or unreadable pages.
	PlainText(i int) (text string, ok bool)
}

type pdfPages struct{ r *pdf.Reader }

func (p pdfPages) NumPage() int { return p.r.NumPage() }

func (p pdfPages) PlainText(i int) (string, bool) {
	page := p.r.Page(i)
	if page.V.IsNull() {
		return "", false
	}
	text, err := page.GetPlainText(nil)
	return text, err == nil
}

// collectPages joins the text of the first maxPages pages (all when maxPages <= 0).
func collectPages(ctx context.Context, pages pageTexts, maxPages int) (string, error) {
	n := pages.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}

	var sb strings.Builder
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}
		text, ok := pages.PlainText(i)
		if !ok {
			continue
		}
		sb.WriteString("\n\n")
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func readHTMLText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open html: %w", err)
	}
	defer f.Close()

	dom, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	dom.Find("script, style").Remove()
	return strings.Join(strings.Fields(dom.Text()), " "), nil
}

func readWorkbookText(path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			sb.WriteString(strings.Join(row, " "))
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
