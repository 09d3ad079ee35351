package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds defaults for command flags, read from the environment.
type Config struct {
	FFmpegPath  string `env:"STREAMCAP_FFMPEG_PATH"`
	FFprobePath string `env:"STREAMCAP_FFPROBE_PATH"`
	YtDlpPath   string `env:"STREAMCAP_YTDLP_PATH"`

	OutputDir   string        `env:"STREAMCAP_OUTPUT_DIR"   envDefault:"."`
	Interval    time.Duration `env:"STREAMCAP_INTERVAL"     envDefault:"5s"`
	JPEGQuality int           `env:"STREAMCAP_JPEG_QUALITY" envDefault:"95"`
	MaxScan     int           `env:"STREAMCAP_MAX_SCAN"     envDefault:"0"`
	MetricsAddr string        `env:"STREAMCAP_METRICS_ADDR"`

	DescribeProvider string `env:"STREAMCAP_DESCRIBE_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
}

// Load reads env files and then the environment, applying defaults where unset.
// Without envFiles it reads ./.env if present; named files must exist.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Interval <= 0 {
		return nil, errors.New("STREAMCAP_INTERVAL must be positive")
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("STREAMCAP_JPEG_QUALITY must be between 1 and 100, got %d", cfg.JPEGQuality)
	}
	if cfg.MaxScan < 0 {
		return nil, fmt.Errorf("STREAMCAP_MAX_SCAN must not be negative, got %d", cfg.MaxScan)
	}
	switch cfg.DescribeProvider {
	case "gemini", "openai", "anthropic":
	default:
		return nil, fmt.Errorf("unsupported STREAMCAP_DESCRIBE_PROVIDER %q", cfg.DescribeProvider)
	}

	return cfg, nil
}

// APIKey returns the configured key for a caption provider.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	}
	return ""
}
