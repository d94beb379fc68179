package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Pressroom server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Report    ReportConfig
	Generate  GenerateConfig
	Providers ProvidersConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// ReportConfig controls the external report generator subprocess and the
// lifecycle of the jobs that wrap it.
type ReportConfig struct {
	Command       string
	WorkDir       string
	SectionCount  int
	Timeout       time.Duration
	JobTTL        time.Duration
	SweepInterval time.Duration
}

// GenerateConfig controls the text generation pipeline: channel topology,
// variant grouping, and the retry policy for model calls.
type GenerateConfig struct {
	PrimaryChannel   string
	SharedPair       [2]string
	AutoThreshold    float64
	MaxParallelCalls int
	MaxAttempts      int
	RetryBaseDelay   time.Duration
}

type ProvidersConfig struct {
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Ollama    OllamaConfig
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Models  []string
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Models  []string
}

type OllamaConfig struct {
	BaseURL string
	Models  []string
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PRESSROOM_PORT", 8080),
			Env:  envString("PRESSROOM_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Report: ReportConfig{
			Command:       os.Getenv("REPORT_COMMAND"),
			WorkDir:       envString("REPORT_WORKDIR", ""),
			SectionCount:  envInt("REPORT_SECTION_COUNT", 5),
			Timeout:       envDurationSecs("REPORT_TIMEOUT_SECS", 60*time.Second),
			JobTTL:        envDuration("REPORT_JOB_TTL", 24*time.Hour),
			SweepInterval: envDuration("REPORT_SWEEP_INTERVAL", time.Hour),
		},
		Generate: GenerateConfig{
			PrimaryChannel:   envString("GENERATE_PRIMARY_CHANNEL", "paid"),
			SharedPair:       envChannelPair("GENERATE_SHARED_PAIR", [2]string{"unpaid", "crawler"}),
			AutoThreshold:    envFloat("GENERATE_AUTO_THRESHOLD", 0.10),
			MaxParallelCalls: envInt("GENERATE_MAX_PARALLEL_CALLS", 3),
			MaxAttempts:      envInt("GENERATE_MAX_ATTEMPTS", 3),
			RetryBaseDelay:   envDuration("GENERATE_RETRY_BASE_DELAY", 500*time.Millisecond),
		},
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				BaseURL: os.Getenv("OPENAI_BASE_URL"),
				Models:  envStringList("OPENAI_MODELS", []string{"gpt-4o", "gpt-4o-mini"}),
			},
			Anthropic: AnthropicConfig{
				APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
				BaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
				Models:  envStringList("ANTHROPIC_MODELS", []string{"claude-sonnet-4-5-20250929"}),
			},
			Ollama: OllamaConfig{
				BaseURL: os.Getenv("OLLAMA_BASE_URL"),
				Models:  envStringList("OLLAMA_MODELS", nil),
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Report.Command == "" {
		return fmt.Errorf("REPORT_COMMAND is required")
	}
	if c.Report.SectionCount < 1 {
		return fmt.Errorf("REPORT_SECTION_COUNT must be at least 1, got %d", c.Report.SectionCount)
	}

	if c.Generate.PrimaryChannel == "" {
		return fmt.Errorf("GENERATE_PRIMARY_CHANNEL is required")
	}
	for _, ch := range c.Generate.SharedPair {
		if ch == c.Generate.PrimaryChannel {
			return fmt.Errorf("GENERATE_SHARED_PAIR must not contain the primary channel %q", ch)
		}
	}
	if c.Generate.AutoThreshold < 0 || c.Generate.AutoThreshold > 1 {
		return fmt.Errorf("GENERATE_AUTO_THRESHOLD must be between 0 and 1, got %g", c.Generate.AutoThreshold)
	}
	if c.Generate.MaxParallelCalls < 1 {
		return fmt.Errorf("GENERATE_MAX_PARALLEL_CALLS must be at least 1, got %d", c.Generate.MaxParallelCalls)
	}
	if c.Generate.MaxAttempts < 1 {
		return fmt.Errorf("GENERATE_MAX_ATTEMPTS must be at least 1, got %d", c.Generate.MaxAttempts)
	}

	hasProvider := c.Providers.OpenAI.APIKey != "" ||
		c.Providers.Anthropic.APIKey != "" ||
		(c.Providers.Ollama.BaseURL != "" && len(c.Providers.Ollama.Models) > 0)
	if !hasProvider {
		return fmt.Errorf("at least one provider must be configured: set OPENAI_API_KEY, ANTHROPIC_API_KEY, or OLLAMA_BASE_URL with OLLAMA_MODELS")
	}
	if c.Providers.Ollama.BaseURL != "" &&
		!strings.HasPrefix(c.Providers.Ollama.BaseURL, "http://") &&
		!strings.HasPrefix(c.Providers.Ollama.BaseURL, "https://") {
		return fmt.Errorf("OLLAMA_BASE_URL must start with http:// or https://, got %q", c.Providers.Ollama.BaseURL)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

// envStringList parses a comma-separated list; empty entries are dropped.
func envStringList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

// envChannelPair parses "a,b" into a two-element pair; anything else keeps the default.
func envChannelPair(key string, defaultVal [2]string) [2]string {
	parts := envStringList(key, nil)
	if len(parts) != 2 {
		return defaultVal
	}
	return [2]string{parts[0], parts[1]}
}
