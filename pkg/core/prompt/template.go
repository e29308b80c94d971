// Package prompt holds the LLM prompt templates. Built-in templates are
// compiled in; files in a prompts directory replace them by ID.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Template is one system prompt plus a text/template user prompt.
type Template struct {
	ID          string   `json:"id" yaml:"id"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	System      string   `json:"system_prompt" yaml:"system_prompt"`
	User        string   `json:"user_prompt_template" yaml:"user_prompt_template"`
	Required    []string `json:"required" yaml:"required"`
	Version     string   `json:"version" yaml:"version"`
}

// Vars are the values a user template is executed with.
type Vars map[string]interface{}

// execute checks required variables, then runs the user template. Unknown
// template fields are errors.
func (t Template) execute(vars Vars) (string, error) {
	var missing []string
	for _, name := range t.Required {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing variables %s", strings.Join(missing, ", "))
	}
	if t.User == "" {
		return "", nil
	}

	tmpl, err := template.New(t.ID).Option("missingkey=error").Parse(t.User)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]interface{}(vars)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
