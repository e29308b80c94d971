package llm

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"quarterly_intel/pkg/core/config"
	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/core/retry"
)

// ProviderNone disables LLM enrichment.
const ProviderNone = "none"

// Manager owns the configured providers and resolves the active one.
type Manager struct {
	active    string
	providers map[string]Provider
	logger    *zap.Logger
}

// NewManager registers every provider the configuration allows, each wrapped
// in a Guarded decorator. Gemini is only registered when an API key is set.
func NewManager(ctx context.Context, cfg config.LLMConfig, policy retry.Config, logger *zap.Logger) *Manager {
	m := &Manager{
		active:    cfg.Provider,
		providers: make(map[string]Provider),
		logger:    logging.OrNop(logger),
	}

	if gemini, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err != nil {
		m.logger.Info("gemini provider not registered", zap.Error(err))
	} else {
		m.Register(NewGuarded(gemini, cfg.RequestsPerMinute, policy, m.logger))
	}
	m.Register(NewGuarded(NewOllamaProvider(cfg.OllamaHost, cfg.OllamaModel, cfg.Timeout), 0, policy, m.logger))

	if m.Provider() == nil && m.active != ProviderNone {
		m.logger.Warn("active llm provider not available, enrichment will use fallback",
			zap.String("provider", m.active),
			zap.Strings("registered", m.Names()))
	}
	return m
}

// Register adds or replaces a provider under its own name.
func (m *Manager) Register(p Provider) {
	m.providers[p.Name()] = p
}

// Provider returns the active provider, or nil when none is usable.
func (m *Manager) Provider() Provider {
	if m == nil || m.active == ProviderNone {
		return nil
	}
	return m.providers[m.active]
}

// Active returns the configured provider name, registered or not.
func (m *Manager) Active() string { return m.active }

// Names lists the registered providers, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.providers))
	for n := range m.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
