package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel       = "gemini-1.5-flash"
	defaultGeminiTemperature = float32(0.1)
)

// GeminiProvider calls generateContent through the GenAI SDK.
type GeminiProvider struct {
	model  string
	client *genai.Client
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider builds a Gemini API client. An empty key is
// ErrProviderUnavailable so that enrichment can fall back.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no gemini api key", ErrProviderUnavailable)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiProvider{model: model, client: client}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	temperature := defaultGeminiTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	gc := &genai.GenerateContentConfig{Temperature: &temperature}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	model := req.model(p.model)
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), gc)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", model, err)
	}
	if out := resp.Text(); out != "" {
		return out, nil
	}
	return "", fmt.Errorf("gemini %s: empty response", model)
}
