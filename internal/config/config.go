package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the transcribe gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Public base URL for this service (e.g. https://xxx.ngrok-free.dev when behind ngrok).
	// Used for logging the WebSocket endpoint; clients connect to wss://<this-host>/ws.
	// Optional; if unset, logs ws://localhost:PORT/ws.
	PublicURL string `envconfig:"PUBLIC_URL" default:""`

	// Upstream speech-to-text configuration. The API key is injected by the
	// relay because browser WebSocket clients cannot set custom headers.
	// An empty key is allowed at startup; the relay refuses sessions until set.
	STTUpstreamURL string `envconfig:"STT_UPSTREAM_URL" default:"wss://api.deepgram.com/v2/listen"`
	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY" default:""`

	// Streaming client configuration
	ConnectTimeout int `envconfig:"CONNECT_TIMEOUT" default:"10"` // seconds

	// Summarization configuration. The base URL points at any OpenAI-compatible
	// chat-completions endpoint; the default is the local Docker Model Runner.
	SummaryBaseURL      string `envconfig:"SUMMARY_BASE_URL" default:"http://localhost:12434/engines/v1"`
	SummaryAPIKey       string `envconfig:"SUMMARY_API_KEY" default:""`                 // optional; local runners ignore it
	SummaryModel        string `envconfig:"SUMMARY_MODEL" default:"ai/smollm2:135M-Q4_K_M"`
	SummaryInterval     int    `envconfig:"SUMMARY_INTERVAL" default:"60"`              // seconds between scheduled summaries
	SummaryMaxSentences int    `envconfig:"SUMMARY_MAX_SENTENCES" default:"3"`          // sentence cap on each summary
	SummaryTimeout      int    `envconfig:"SUMMARY_TIMEOUT" default:"30"`               // seconds, model request
	SummaryHTTPTimeout  int    `envconfig:"SUMMARY_HTTP_TIMEOUT" default:"35"`          // seconds, transport-inclusive

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate value ranges
	if cfg.SummaryInterval < 1 {
		return nil, fmt.Errorf("SUMMARY_INTERVAL must be at least 1 second")
	}
	if cfg.SummaryMaxSentences < 1 {
		return nil, fmt.Errorf("SUMMARY_MAX_SENTENCES must be at least 1")
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate value ranges
	if cfg.SummaryInterval < 1 {
		return nil, fmt.Errorf("SUMMARY_INTERVAL must be at least 1 second")
	}
	if cfg.SummaryMaxSentences < 1 {
		return nil, fmt.Errorf("SUMMARY_MAX_SENTENCES must be at least 1")
	}

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
