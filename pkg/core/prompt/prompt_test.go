package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_RendersEnrichmentPrompt(t *testing.T) {
	r := NewDefaultRegistry()
	system, user, err := r.Render(EnrichmentPromptID, Vars{
		"MetricsJSON": `{"total_revenue":100}`,
		"ReportText":  "Revenue grew 12%",
	})
	require.NoError(t, err)
	assert.Contains(t, system, "valid JSON")
	assert.Contains(t, user, `{"total_revenue":100}`)
	assert.Contains(t, user, "Revenue grew 12%")
}

func TestRender_MissingVariable(t *testing.T) {
	_, _, err := NewDefaultRegistry().Render(EnrichmentPromptID, Vars{"MetricsJSON": "{}"})
	assert.ErrorContains(t, err, "missing variables ReportText")
}

func TestRender_UndeclaredFieldFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Template{ID: "x", User: "{{.Missing}}"}))
	_, _, err := r.Render("x", Vars{})
	assert.Error(t, err)
}

func TestRegistry_Unknown(t *testing.T) {
	_, _, err := NewRegistry().Render("nope", nil)
	assert.Error(t, err)
	assert.Error(t, NewRegistry().Register(Template{}))
}

func TestLoadDir_OverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "enrichment"), 0o755))
	body := `{"system_prompt": "custom system", "user_prompt_template": "metrics={{.MetricsJSON}}"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enrichment", "validate_metrics.json"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	r := NewDefaultRegistry()
	n, err := LoadDir(r, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{EnrichmentPromptID}, r.IDs())

	tmpl, ok := r.Lookup(EnrichmentPromptID)
	require.True(t, ok)
	assert.Equal(t, "enrichment", tmpl.Category)

	system, user, err := r.Render(EnrichmentPromptID, Vars{"MetricsJSON": "{}"})
	require.NoError(t, err)
	assert.Equal(t, "custom system", system)
	assert.Equal(t, "metrics={}", user)
}

func TestLoadDir_YAML(t *testing.T) {
	dir := t.TempDir()
	body := "id: qualitative.summary\nsystem_prompt: be brief\nuser_prompt_template: \"{{.Text}}\"\nrequired: [Text]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summary.yaml"), []byte(body), 0o644))

	r := NewRegistry()
	n, err := LoadDir(r, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tmpl, ok := r.Lookup("qualitative.summary")
	require.True(t, ok)
	assert.Equal(t, "default", tmpl.Category)
	_, user, err := r.Render("qualitative.summary", Vars{"Text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", user)
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(NewRegistry(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
