package extract

import (
	"time"

	"go.uber.org/zap"

	"quarterly_intel/pkg/core/config"
)

// NewDefaultBackends wires the production table, text and OCR backends from config.
// External tools (pdftotext, pdftoppm, tesseract) are probed lazily per document,
// so a missing binary surfaces as an unavailable stage rather than an error here.
func NewDefaultBackends(cfg config.ExtractionConfig, logger *zap.Logger) Backends {
	toolTimeout := cfg.StageTimeout
	if toolTimeout <= 0 {
		toolTimeout = 2 * time.Minute
	}

	table := NewTableBackend(
		[]TableSource{
			PDFRowSource{},
			PDFLayoutSource{Timeout: toolTimeout},
			HTMLTableSource{},
			XLSXSource{},
		},
		GridReach{Right: cfg.TableMaxRight, Down: cfg.TableMaxDown},
		cfg.TableConfidence,
		logger,
	)
	text := NewTextBackend(cfg.TextMaxPages, cfg.WindowChars, cfg.TextConfidence, logger)
	ocr := NewOCRBackend(
		PdftoppmRasterizer{Timeout: toolTimeout},
		NewRecognizer(toolTimeout),
		cfg.OCRMaxPages,
		cfg.OCRDPI,
		cfg.WindowChars,
		cfg.OCRConfidence,
		logger,
	)
	return Backends{Table: table, Text: text, OCR: ocr}
}

// NewDefaultCascade builds a Cascade over NewDefaultBackends with the configured
// worker count and stage timeout.
func NewDefaultCascade(cfg config.ExtractionConfig, logger *zap.Logger) *Cascade {
	// backends are never nil here
	c, _ := NewCascade(NewDefaultBackends(cfg, logger))
	c.SetLogger(logger)
	c.SetWorkers(cfg.Workers)
	c.SetStageTimeout(cfg.StageTimeout)
	return c
}
