//go:build !ocr

package extract

import (
	"context"
	"strings"
	"time"
)

// TesseractCLI runs the tesseract binary. Build with -tags ocr to link
// libtesseract through gosseract instead.
type TesseractCLI struct {
	Language string
	Timeout  time.Duration
}

// NewRecognizer returns the recognizer selected at build time.
func NewRecognizer(timeout time.Duration) Recognizer {
	return &TesseractCLI{Language: "eng", Timeout: timeout}
}

func (t *TesseractCLI) Available() error {
	if !hasBinary("tesseract") {
		return unavailablef("tesseract not found on PATH")
	}
	return nil
}

func (t *TesseractCLI) Recognize(ctx context.Context, imagePath string) (string, error) {
	out, err := runTool(ctx, t.Timeout, "tesseract", imagePath, "stdout", "-l", t.Language)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
