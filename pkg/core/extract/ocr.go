package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/models"
)

// Rasterizer renders PDF pages to image files.
type Rasterizer interface {
	Available() error
	// Rasterize writes at most maxPages page images into dir and returns
	// their paths in page order.
	Rasterize(ctx context.Context, pdfPath, dir string, dpi, maxPages int) ([]string, error)
}

// Recognizer turns one page image into text.
type Recognizer interface {
	Available() error
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// OCRBackend rasterizes a bounded number of pages, recognizes them and runs
// the same window search as the text backend.
type OCRBackend struct {
	Rasterizer  Rasterizer
	Recognizer  Recognizer
	MaxPages    int
	DPI         int
	WindowChars int
	Confidence  float64
	Labels      []string
	Logger      *zap.Logger
}

var _ Backend = (*OCRBackend)(nil)

func NewOCRBackend(raster Rasterizer, recognizer Recognizer, maxPages, dpi, windowChars int, confidence float64, logger *zap.Logger) *OCRBackend {
	return &OCRBackend{
		Rasterizer:  raster,
		Recognizer:  recognizer,
		MaxPages:    maxPages,
		DPI:         dpi,
		WindowChars: windowChars,
		Confidence:  confidence,
		Labels:      TextLabels,
		Logger:      logging.OrNop(logger),
	}
}

func (b *OCRBackend) Method() models.Method { return models.MethodOCR }

func (b *OCRBackend) Availability(doc Document) error {
	if b.Recognizer == nil {
		return unavailablef("no OCR recognizer configured")
	}
	switch doc.Kind {
	case KindImage:
		return b.Recognizer.Available()
	case KindPDF:
		if b.Rasterizer == nil {
			return unavailablef("no PDF rasterizer configured")
		}
		if err := b.Rasterizer.Available(); err != nil {
			return err
		}
		return b.Recognizer.Available()
	}
	return unavailablef("OCR does not apply to %s documents", doc.Kind)
}

func (b *OCRBackend) Extract(ctx context.Context, doc Document) Outcome {
	if err := b.Availability(doc); err != nil {
		return Unavailable(err)
	}

	images := []string{doc.Path}
	if doc.Kind == KindPDF {
		dir, err := os.MkdirTemp("", "docintel-ocr-*")
		if err != nil {
			return Failed(fmt.Errorf("failed to create raster dir: %w", err))
		}
		defer os.RemoveAll(dir)

		images, err = b.Rasterizer.Rasterize(ctx, doc.Path, dir, b.DPI, b.MaxPages)
		if err != nil {
			return Failed(err)
		}
	}
	if b.MaxPages > 0 && len(images) > b.MaxPages {
		images = images[:b.MaxPages]
	}

	var sb strings.Builder
	recognized := 0
	var lastErr error
	for i, img := range images {
		text, err := b.Recognizer.Recognize(ctx, img)
		if err != nil {
			b.Logger.Warn("page recognition failed", zap.String("path", doc.Path), zap.Int("page", i+1), zap.Error(err))
			lastErr = err
			continue
		}
		recognized++
		sb.WriteString("\n\n")
		sb.WriteString(text)
	}
	if recognized == 0 && lastErr != nil {
		return Failed(lastErr)
	}

	text := sb.String()
	hits := WindowSearch(text, b.Labels, b.WindowChars, b.Confidence)
	return Ok(hits, utf8.RuneCountInString(text))
}

// PdftoppmRasterizer shells out to poppler's pdftoppm.
type PdftoppmRasterizer struct {
	Timeout time.Duration
}

func (PdftoppmRasterizer) Available() error {
	if !hasBinary("pdftoppm") {
		return unavailablef("pdftoppm not found on PATH")
	}
	return nil
}

func (r PdftoppmRasterizer) Rasterize(ctx context.Context, pdfPath, dir string, dpi, maxPages int) ([]string, error) {
	prefix := filepath.Join(dir, "page")
	if _, err := runTool(ctx, r.Timeout, "pdftoppm", pdftoppmArgs(pdfPath, prefix, dpi, maxPages)...); err != nil {
		return nil, err
	}

	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rasterized pages: %w", err)
	}
	sortPageImages(images)
	return images, nil
}

// pdftoppmArgs renders pages 1..maxPages as PNG; maxPages <= 0 renders all.
func pdftoppmArgs(pdfPath, prefix string, dpi, maxPages int) []string {
	args := []string{"-png", "-r", strconv.Itoa(dpi), "-f", "1"}
	if maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(maxPages))
	}
	return append(args, pdfPath, prefix)
}

// sortPageImages orders page-N.png files by N; pdftoppm zero-pads by page count.
func sortPageImages(paths []string) {
	pageNum := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		return n
	}
	sort.SliceStable(paths, func(i, j int) bool { return pageNum(paths[i]) < pageNum(paths[j]) })
}
