// Package cli wires configuration, stores, and the generation client
// into ready-to-run pieces for the commands in cmd/vellum.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/softgrove/vellum/internal/logging"
	"github.com/softgrove/vellum/pkg/session"
)

// Options is the full CLI configuration. Every field can be set from
// the environment; commands layer flag overrides on top.
type Options struct {
	// SavesDir is where sessions, chapters, and link indexes live.
	SavesDir string `env:"VELLUM_SAVES_DIR" envDefault:".vellum/saves"`

	// RedisAddr switches world-state storage to Redis when non-empty.
	// Chapter documents stay on disk either way.
	RedisAddr     string `env:"VELLUM_REDIS_ADDR"`
	RedisPassword string `env:"VELLUM_REDIS_PASSWORD"`
	RedisDB       int    `env:"VELLUM_REDIS_DB"`

	// APIBase points at any OpenAI-compatible server.
	APIBase string `env:"VELLUM_API_BASE" envDefault:"https://api.openai.com"`
	APIKey  string `env:"OPENAI_API_KEY"`
	Model   string `env:"VELLUM_MODEL" envDefault:"gpt-4o-mini"`

	// GeneratorCmd switches generation to a local command when non-empty.
	// The prompt arrives on stdin, the reply is read from stdout.
	GeneratorCmd  string   `env:"VELLUM_GENERATOR_CMD"`
	GeneratorArgs []string `env:"VELLUM_GENERATOR_ARGS" envSeparator:" "`

	MaxChapters int     `env:"VELLUM_MAX_CHAPTERS" envDefault:"50"`
	MaxChoices  int     `env:"VELLUM_MAX_CHOICES" envDefault:"4"`
	AutoSave    bool    `env:"VELLUM_AUTOSAVE" envDefault:"true"`
	Temperature float64 `env:"VELLUM_TEMPERATURE" envDefault:"0.7"`

	// EncryptionKey enables encryption at rest when set. Hex-encoded,
	// 32 bytes once decoded. Old keys can follow comma-separated in
	// EncryptionFallbacks for rotation.
	EncryptionKey       string   `env:"VELLUM_ENCRYPTION_KEY"`
	EncryptionFallbacks []string `env:"VELLUM_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`

	// MaskPatterns lists key regexes whose fact values are masked
	// before saves hit the backend.
	MaskPatterns []string `env:"VELLUM_MASK_PATTERNS" envSeparator:","`

	LogLevel string `env:"VELLUM_LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"VELLUM_DEBUG"`
}

// LoadOptions reads the configuration from the environment.
func LoadOptions() (Options, error) {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		return Options{}, fmt.Errorf("parse environment: %w", err)
	}
	return opts, nil
}

// SessionConfig maps the options onto the controller configuration.
func (o Options) SessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.MaxChapters = o.MaxChapters
	cfg.MaxChoices = o.MaxChoices
	cfg.AutoSave = o.AutoSave
	cfg.Generate.Model = o.Model
	cfg.Generate.Temperature = o.Temperature
	return cfg
}

// Logger builds the application logger. Debug forces the debug level;
// otherwise LogLevel decides, falling back to info on unknown values.
func (o Options) Logger() *slog.Logger {
	if o.Debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(logging.ParseLevel(o.LogLevel))
}
