package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "llama3.1:8b"
)

// OllamaProvider talks to a local Ollama server through /api/generate.
type OllamaProvider struct {
	Host       string
	Model      string
	HTTPClient *http.Client
}

var _ Provider = (*OllamaProvider)(nil)

type generateRequest struct {
	Model   string             `json:"model"`
	Prompt  string             `json:"prompt"`
	System  string             `json:"system,omitempty"`
	Stream  bool               `json:"stream"`
	Format  string             `json:"format,omitempty"`
	Options map[string]float32 `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func NewOllamaProvider(host, model string, timeout time.Duration) *OllamaProvider {
	if host == "" {
		host = defaultOllamaHost
	}
	if model == "" {
		model = defaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &OllamaProvider{
		Host:       strings.TrimRight(host, "/"),
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

// Complete posts a non-streaming /api/generate call.
func (p *OllamaProvider) Complete(ctx context.Context, req Request) (string, error) {
	body := generateRequest{
		Model:  req.model(p.Model),
		Prompt: req.Prompt,
		System: req.System,
	}
	if req.JSON {
		body.Format = "json"
	}
	if req.Temperature != nil {
		body.Options = map[string]float32{"temperature": *req.Temperature}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ollama: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := p.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("ollama: read response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: status %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama: %s", out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}
