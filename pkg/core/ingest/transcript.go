// Package ingest loads earnings-call transcripts from local files into plain text.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/utils"
	"quarterly_intel/pkg/models"
)

// TranscriptLoader reads one transcript into plain text.
type TranscriptLoader interface {
	Load(ctx context.Context, t models.TranscriptDescriptor) (string, error)
}

// FileLoader dispatches on file extension. Text files are decoded as UTF-8
// with invalid sequences dropped.
type FileLoader struct {
	logger *zap.Logger
}

var _ TranscriptLoader = (*FileLoader)(nil)

func NewFileLoader(logger *zap.Logger) *FileLoader {
	return &FileLoader{logger: logging.OrNop(logger)}
}

func (l *FileLoader) Load(ctx context.Context, t models.TranscriptDescriptor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(t.LocalPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", models.ErrFileNotFound, t.LocalPath)
		}
		return "", fmt.Errorf("failed to read transcript %s: %w", t.LocalPath, err)
	}

	ext := strings.ToLower(filepath.Ext(t.LocalPath))
	var text string
	switch ext {
	case ".md", ".markdown":
		text = utils.PlainText(data)
	case ".pdf":
		text, err = pdfText(data)
	case ".docx", ".doc", ".odt", ".rtf", ".pages", ".html", ".htm":
		text, err = convert(data, t.LocalPath)
	default:
		text = string(data)
	}
	if err != nil {
		return "", err
	}

	text = strings.ToValidUTF8(text, "")
	l.logger.Debug("transcript loaded",
		zap.String("transcript", t.Name),
		zap.String("format", ext),
		zap.Int("chars", len(text)))
	return text, nil
}

func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to create pdf reader: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func convert(data []byte, path string) (string, error) {
	mimeType := docconv.MimeTypeByExtension(path)
	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", filepath.Base(path), err)
	}
	return res.Body, nil
}
