// Package extract turns quarterly report files into normalized metrics.
//
// Three backends of falling reliability (table, text, OCR) produce raw
// candidates. The Cascade runs them in that order, escalating only while
// required metrics are still missing, and merges candidates so that a key set
// by an earlier stage is never overwritten.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"quarterly_intel/pkg/models"
)

// Kind is the file format of a document, derived from its extension.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindHTML    Kind = "html"
	KindXLSX    Kind = "xlsx"
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindUnknown Kind = "unknown"
)

// Document is a local file handed to the backends.
type Document struct {
	Path string
	Kind Kind
}

func NewDocument(path string) Document {
	return Document{Path: path, Kind: DetectKind(path)}
}

func DetectKind(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF
	case ".html", ".htm", ".xhtml":
		return KindHTML
	case ".xlsx", ".xlsm":
		return KindXLSX
	case ".txt", ".md", ".markdown", ".text":
		return KindText
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return KindImage
	}
	return KindUnknown
}

// Backend is one extraction method.
type Backend interface {
	Method() models.Method
	// Availability returns nil when the backend can handle doc, or an error
	// wrapping models.ErrBackendUnavailable naming what is missing.
	Availability(doc Document) error
	Extract(ctx context.Context, doc Document) Outcome
}

// Outcome is the typed result of one backend call.
type Outcome struct {
	Status     models.AttemptStatus
	Candidates []models.RawCandidate
	// TextLength is the amount of text the backend read, when it reads text.
	TextLength int
	Err        error
}

func Ok(candidates []models.RawCandidate, textLength int) Outcome {
	return Outcome{Status: models.StatusOK, Candidates: candidates, TextLength: textLength}
}

func Unavailable(err error) Outcome {
	return Outcome{Status: models.StatusUnavailable, Err: err}
}

func Failed(err error) Outcome {
	return Outcome{Status: models.StatusFailed, Err: err}
}

func unavailablef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", models.ErrBackendUnavailable, fmt.Sprintf(format, args...))
}
