package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds settings for the primary (multi-agent) provider.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	// BaseURL overrides the SDK's API endpoint. Empty uses the SDK default.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// GeminiConfig holds settings for the secondary (fallback) provider.
type GeminiConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// AnalysisConfig configures the analysis pipeline and its fallback behavior.
type AnalysisConfig struct {
	PrimaryRows          int     `yaml:"primary_rows" mapstructure:"primary_rows"`
	FallbackRows         int     `yaml:"fallback_rows" mapstructure:"fallback_rows"`
	MaxAttempts          int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs     int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	BackoffMultiplier    float64 `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	PrimaryTimeoutSecs   int     `yaml:"primary_timeout_secs" mapstructure:"primary_timeout_secs"`
	SecondaryTimeoutSecs int     `yaml:"secondary_timeout_secs" mapstructure:"secondary_timeout_secs"`
	SectionMaxLen        int     `yaml:"section_max_len" mapstructure:"section_max_len"`
	DefaultQuestion      string  `yaml:"default_question" mapstructure:"default_question"`
}

// PrimaryTimeout returns the per-attempt deadline for the primary run.
func (a AnalysisConfig) PrimaryTimeout() time.Duration {
	return time.Duration(a.PrimaryTimeoutSecs) * time.Second
}

// SecondaryTimeout returns the deadline for the secondary provider call.
func (a AnalysisConfig) SecondaryTimeout() time.Duration {
	return time.Duration(a.SecondaryTimeoutSecs) * time.Second
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	StaticDir      string   `yaml:"static_dir" mapstructure:"static_dir"`
	// RequestsPerMinute caps /analyze across all clients. 0 disables the limit.
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultQuestion is asked when an upload arrives without a question.
const DefaultQuestion = "What are the most important insights from this data?"

// Load reads configuration from .env, file, and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ANALYST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Empty defaults register the key so AutomaticEnv reaches it on Unmarshal.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("gemini.key", "")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.temperature", 0.2)
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("analysis.primary_rows", 10)
	v.SetDefault("analysis.fallback_rows", 500)
	v.SetDefault("analysis.max_attempts", 2)
	v.SetDefault("analysis.initial_backoff_ms", 1500)
	v.SetDefault("analysis.backoff_multiplier", 1.5)
	v.SetDefault("analysis.primary_timeout_secs", 180)
	v.SetDefault("analysis.secondary_timeout_secs", 90)
	v.SetDefault("analysis.section_max_len", 1200)
	v.SetDefault("analysis.default_question", DefaultQuestion)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.requests_per_minute", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Conventional provider variables, used when the prefixed ones are unset.
	if cfg.Anthropic.Key == "" {
		cfg.Anthropic.Key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.Gemini.Key == "" {
		cfg.Gemini.Key = os.Getenv("GOOGLE_API_KEY")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable for the given mode
// ("serve" or "analyze").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be > 0")
		}
		if c.Server.RequestsPerMinute < 0 {
			errs = append(errs, "server.requests_per_minute must be >= 0")
		}
	case "analyze":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Anthropic.Temperature < 0 || c.Anthropic.Temperature > 1 {
		errs = append(errs, "anthropic.temperature must be between 0 and 1")
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		errs = append(errs, "gemini.temperature must be between 0 and 2")
	}

	a := c.Analysis
	if a.PrimaryRows < 1 {
		errs = append(errs, "analysis.primary_rows must be >= 1")
	}
	if a.FallbackRows < 1 {
		errs = append(errs, "analysis.fallback_rows must be >= 1")
	}
	if a.MaxAttempts < 1 || a.MaxAttempts > 10 {
		errs = append(errs, "analysis.max_attempts must be between 1 and 10")
	}
	if a.BackoffMultiplier < 1 {
		errs = append(errs, "analysis.backoff_multiplier must be >= 1")
	}
	if a.PrimaryTimeoutSecs <= 0 || a.SecondaryTimeoutSecs <= 0 {
		errs = append(errs, "analysis timeouts must be > 0")
	}
	if a.SectionMaxLen <= 0 {
		errs = append(errs, "analysis.section_max_len must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
