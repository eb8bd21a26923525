package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort = 8000

	DefaultChatEndpoint = "https://api.openai.com/v1"
	DefaultChatModel    = "gpt-4o-mini"
	DefaultChatKeyEnv   = "OPENAI_API_KEY"

	DefaultPredictionBaseURLEnv     = "API_BASE_URL"
	DefaultPredictionTimeoutSeconds = 3
)

// Config holds the configuration parsed from the `server:` section of
// config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the HTTP API and alert hub listen on (default 8000).
	HTTPPort int `yaml:"http_port"`

	// Chat configures the conversational proxy's text-generation provider.
	Chat ChatConfig `yaml:"chat"`

	// Prediction configures the external risk-prediction gateway.
	Prediction PredictionConfig `yaml:"prediction"`
}

// ChatConfig configures the chat proxy. Without a resolvable credential the
// proxy serves canned development-mode replies.
type ChatConfig struct {
	// Endpoint is the OpenAI-compatible API base (default https://api.openai.com/v1).
	Endpoint string `yaml:"endpoint"`

	// Model is the completion model name (default gpt-4o-mini).
	Model string `yaml:"model"`

	// KeyEnv is the name of the environment variable that holds the provider
	// API key (default OPENAI_API_KEY).
	KeyEnv string `yaml:"key_env"`
}

// Key returns the provider credential resolved from the environment.
func (c ChatConfig) Key() string {
	if c.KeyEnv == "" {
		return ""
	}
	return os.Getenv(c.KeyEnv)
}

// PredictionConfig configures the risk-prediction gateway. An empty resolved
// base URL leaves the gateway disabled.
type PredictionConfig struct {
	// BaseURLEnv is the name of the environment variable that holds the
	// prediction service base URL (default API_BASE_URL).
	BaseURLEnv string `yaml:"base_url_env"`

	// TimeoutSeconds bounds each prediction call (default 3).
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// BaseURL returns the prediction endpoint base URL resolved from the
// environment, or "" when unset.
func (p PredictionConfig) BaseURL() string {
	if p.BaseURLEnv == "" {
		return ""
	}
	return os.Getenv(p.BaseURLEnv)
}

// Timeout returns the per-call timeout as a duration.
func (p PredictionConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Load reads and parses the config file at path. A missing file is not an
// error: the server runs on defaults plus environment variables, matching
// the original env-only deployment surface.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Chat: ChatConfig{
				Endpoint: DefaultChatEndpoint,
				Model:    DefaultChatModel,
				KeyEnv:   DefaultChatKeyEnv,
			},
			Prediction: PredictionConfig{
				BaseURLEnv:     DefaultPredictionBaseURLEnv,
				TimeoutSeconds: DefaultPredictionTimeoutSeconds,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.Prediction.TimeoutSeconds < 0 {
		return fmt.Errorf("server.prediction.timeout_seconds must not be negative")
	}
	return nil
}
