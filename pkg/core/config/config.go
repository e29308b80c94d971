package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Extraction ExtractionConfig
	Enrichment EnrichmentConfig
	Embedding  EmbeddingConfig
	Retrieval  RetrievalConfig
	LLM        LLMConfig
	Retry      RetryConfig
	Store      StoreConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
}

type ExtractionConfig struct {
	TableConfidence float64
	TextConfidence  float64
	OCRConfidence   float64
	TextMaxPages    int
	OCRMaxPages     int
	OCRDPI          int
	WindowChars     int
	TableMaxRight   int
	TableMaxDown    int
	Workers         int
	StageTimeout    time.Duration
}

type EnrichmentConfig struct {
	LLMConfidence        float64
	DerivedConfidence    float64
	BestEffortConfidence float64
	PromptTextChars      int
	// PromptsDir holds template files that replace built-ins by ID.
	PromptsDir string
}

type EmbeddingConfig struct {
	// Backend is one of "openai", "gemini" or "hash".
	Backend       string
	Model         string
	BaseURL       string
	APIKey        string
	GeminiModel   string
	GeminiAPIKey  string
	ForceFake     string
	HashDimension int
	ProbeTimeout  time.Duration
	RedisURL      string
	CacheTTL      time.Duration
}

type RetrievalConfig struct {
	ChunkWords    int
	SnippetChars  int
	ThemeTopK     int
	SentimentTopK int
	GuidanceTopK  int
	IndexKind     string
	QueriesFile   string
}

type LLMConfig struct {
	Provider          string
	GeminiAPIKey      string
	GeminiModel       string
	OllamaHost        string
	OllamaModel       string
	RequestsPerMinute int
	Timeout           time.Duration
}

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

type StoreConfig struct {
	DatabaseURL string
	FileDir     string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type MetricsConfig struct {
	Addr string
}

// Load reads defaults, an optional docintel.yaml, .env and the environment.
// An explicit path overrides the config search locations.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("docintel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DOCINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindAliases(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Extraction.Workers <= 0 {
		cfg.Extraction.Workers = runtime.NumCPU()
	}
	return &cfg, nil
}

// Default returns the configuration with every default applied and nothing read from disk or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults only contain primitive values, decode cannot fail.
	_ = v.Unmarshal(&cfg)
	if cfg.Extraction.Workers <= 0 {
		cfg.Extraction.Workers = runtime.NumCPU()
	}
	return &cfg
}

// FakeForced reports whether the deterministic hash embedder must be used.
// Accepts 1, true and yes in any case.
func (e EmbeddingConfig) FakeForced() bool {
	switch strings.ToLower(strings.TrimSpace(e.ForceFake)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// bindAliases maps the bare environment names used by deployments onto config keys.
func bindAliases(v *viper.Viper) error {
	aliases := map[string][]string{
		"embedding.model":        {"DOCINTEL_EMBEDDING_MODEL", "EMBEDDING_MODEL"},
		"embedding.forceFake":    {"DOCINTEL_EMBEDDING_FORCEFAKE", "FORCE_FAKE_EMBEDDER"},
		"embedding.apiKey":       {"DOCINTEL_EMBEDDING_APIKEY", "OPENAI_API_KEY"},
		"embedding.baseURL":      {"DOCINTEL_EMBEDDING_BASEURL", "OPENAI_BASE_URL"},
		"embedding.redisURL":     {"DOCINTEL_EMBEDDING_REDISURL", "REDIS_URL"},
		"embedding.geminiAPIKey": {"DOCINTEL_EMBEDDING_GEMINIAPIKEY", "GEMINI_API_KEY"},
		"llm.geminiAPIKey":       {"DOCINTEL_LLM_GEMINIAPIKEY", "GEMINI_API_KEY"},
		"llm.geminiModel":        {"DOCINTEL_LLM_GEMINIMODEL", "GEMINI_MODEL"},
		"llm.ollamaHost":         {"DOCINTEL_LLM_OLLAMAHOST", "OLLAMA_HOST"},
		"store.databaseURL":      {"DOCINTEL_STORE_DATABASEURL", "DATABASE_URL"},
	}
	for key, envs := range aliases {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("extraction.tableConfidence", 0.85)
	v.SetDefault("extraction.textConfidence", 0.65)
	v.SetDefault("extraction.ocrConfidence", 0.45)
	v.SetDefault("extraction.textMaxPages", 10)
	v.SetDefault("extraction.ocrMaxPages", 5)
	v.SetDefault("extraction.ocrDPI", 200)
	v.SetDefault("extraction.windowChars", 300)
	v.SetDefault("extraction.tableMaxRight", 4)
	v.SetDefault("extraction.tableMaxDown", 2)
	v.SetDefault("extraction.workers", 0)
	v.SetDefault("extraction.stageTimeout", 2*time.Minute)

	v.SetDefault("enrichment.llmConfidence", 0.5)
	v.SetDefault("enrichment.derivedConfidence", 0.5)
	v.SetDefault("enrichment.bestEffortConfidence", 0.4)
	v.SetDefault("enrichment.promptTextChars", 4000)
	v.SetDefault("enrichment.promptsDir", "")

	v.SetDefault("embedding.backend", "openai")
	v.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	v.SetDefault("embedding.baseURL", "http://localhost:8080/v1")
	v.SetDefault("embedding.geminiModel", "text-embedding-004")
	v.SetDefault("embedding.forceFake", "")
	v.SetDefault("embedding.hashDimension", 64)
	v.SetDefault("embedding.probeTimeout", 5*time.Second)
	v.SetDefault("embedding.cacheTTL", 24*time.Hour)

	v.SetDefault("retrieval.chunkWords", 300)
	v.SetDefault("retrieval.snippetChars", 600)
	v.SetDefault("retrieval.themeTopK", 5)
	v.SetDefault("retrieval.sentimentTopK", 3)
	v.SetDefault("retrieval.guidanceTopK", 5)
	v.SetDefault("retrieval.indexKind", "flat")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.geminiModel", "gemini-1.5-flash")
	v.SetDefault("llm.ollamaHost", "http://localhost:11434")
	v.SetDefault("llm.ollamaModel", "llama3.1:8b")
	v.SetDefault("llm.requestsPerMinute", 10)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("retry.maxAttempts", 3)
	v.SetDefault("retry.initialDelay", time.Second)
	v.SetDefault("retry.maxDelay", 10*time.Second)
	v.SetDefault("retry.multiplier", 2.0)

	v.SetDefault("store.fileDir", ".cache/docintel/runs")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.outputPath", "stdout")
}
