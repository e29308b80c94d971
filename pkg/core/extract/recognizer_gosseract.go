//go:build ocr

package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// GosseractRecognizer links libtesseract through cgo.
type GosseractRecognizer struct {
	Language string
}

// NewRecognizer returns the recognizer selected at build time.
func NewRecognizer(_ time.Duration) Recognizer {
	return &GosseractRecognizer{Language: "eng"}
}

func (g *GosseractRecognizer) Available() error {
	if _, err := gosseract.GetAvailableLanguages(); err != nil {
		return unavailablef("tesseract data not found: %v", err)
	}
	return nil
}

func (g *GosseractRecognizer) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(g.Language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("failed to load page image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}
	return text, nil
}
