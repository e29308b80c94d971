// Package llm holds the language model providers used for metric enrichment.
package llm

import (
	"context"
	"errors"
)

// ErrProviderUnavailable is returned when a provider is missing credentials
// or cannot be constructed. Callers fall back to deterministic logic.
var ErrProviderUnavailable = errors.New("llm provider unavailable")

// Request is one completion call.
type Request struct {
	System string
	Prompt string
	// JSON asks the model for a JSON object answer.
	JSON bool
	// Temperature is used when non-nil; providers apply their own default otherwise.
	Temperature *float32
	// Model overrides the provider's configured model.
	Model string
}

// Provider produces a single text completion.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(t float32) *float32 { return &t }

func (r Request) model(fallback string) string {
	if r.Model != "" {
		return r.Model
	}
	return fallback
}
