package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quarterly_intel/pkg/models"
)

func TestFileLoader_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q1.txt")
	require.NoError(t, os.WriteFile(path, []byte("Demand stayed strong.\xff Attrition eased."), 0o644))

	text, err := NewFileLoader(nil).Load(context.Background(), models.TranscriptDescriptor{Name: "q1", LocalPath: path})
	require.NoError(t, err)
	assert.Equal(t, "Demand stayed strong. Attrition eased.", text)
}

func TestFileLoader_Markdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q2.md")
	src := "# Q2 call\n\n**CEO:** we expect *growth* next quarter.\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	text, err := NewFileLoader(nil).Load(context.Background(), models.TranscriptDescriptor{Name: "q2", LocalPath: path})
	require.NoError(t, err)
	assert.Contains(t, text, "Q2 call")
	assert.Contains(t, text, "we expect growth next quarter.")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "#")
}

func TestFileLoader_Missing(t *testing.T) {
	_, err := NewFileLoader(nil).Load(context.Background(), models.TranscriptDescriptor{LocalPath: "/nope/missing.txt"})
	assert.ErrorIs(t, err, models.ErrFileNotFound)
}

func TestFileLoader_BrokenPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	_, err := NewFileLoader(nil).Load(context.Background(), models.TranscriptDescriptor{LocalPath: path})
	assert.Error(t, err)
}

func TestFileLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileLoader(nil).Load(ctx, models.TranscriptDescriptor{LocalPath: "x.txt"})
	assert.ErrorIs(t, err, context.Canceled)
}
