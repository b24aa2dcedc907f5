package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"gamebook/internal/codec"
	"gamebook/shared/logger"
)

// Save slot storage backends.
const (
	SaveBackendFile   = "file"
	SaveBackendBadger = "badger"
)

// Config содержит конфигурацию gamebook CLI
type Config struct {
	// Логирование
	LogLevel    string `envconfig:"GAMEBOOK_LOG_LEVEL" default:"warn"`
	LogEncoding string `envconfig:"GAMEBOOK_LOG_ENCODING" default:"console"`
	LogFile     string `envconfig:"GAMEBOOK_LOG_FILE"`

	// Хранилище историй
	StoryDir    string `envconfig:"GAMEBOOK_STORY_DIR" default:"stories"`
	StoryFormat string `envconfig:"GAMEBOOK_STORY_FORMAT" default:"json"`

	// Хранилище сохранений
	SaveDir     string `envconfig:"GAMEBOOK_SAVE_DIR" default:"saves"`
	SaveBackend string `envconfig:"GAMEBOOK_SAVE_BACKEND" default:"file"`
	BadgerPath  string `envconfig:"GAMEBOOK_BADGER_PATH"`

	// Пусто = метрики не выгружаются
	MetricsFile string `envconfig:"GAMEBOOK_METRICS_FILE"`

	// При true фатальные диагностики запрещают сохранение черновика
	StrictValidation bool `envconfig:"GAMEBOOK_STRICT_VALIDATION" default:"false"`
}

// LoadConfig загружает конфигурацию из переменных окружения и проверяет её.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации gamebook: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backends and formats.
func (c *Config) Validate() error {
	if _, err := codec.ParseFormat(c.StoryFormat); err != nil {
		return fmt.Errorf("GAMEBOOK_STORY_FORMAT: %w", err)
	}
	switch strings.ToLower(c.SaveBackend) {
	case SaveBackendFile, SaveBackendBadger:
	default:
		return fmt.Errorf("GAMEBOOK_SAVE_BACKEND: unknown backend %q (want %s or %s)", c.SaveBackend, SaveBackendFile, SaveBackendBadger)
	}
	if c.StoryDir == "" {
		return fmt.Errorf("GAMEBOOK_STORY_DIR must not be empty")
	}
	return nil
}

// Format returns the document format for new stories and file save slots.
func (c *Config) Format() codec.Format {
	format, err := codec.ParseFormat(c.StoryFormat)
	if err != nil {
		return codec.FormatJSON
	}
	return format
}

// Backend returns the normalised save backend name.
func (c *Config) Backend() string {
	return strings.ToLower(c.SaveBackend)
}

// BadgerDir returns the badger database directory, defaulting to <save dir>/badger.
func (c *Config) BadgerDir() string {
	if c.BadgerPath != "" {
		return c.BadgerPath
	}
	return filepath.Join(c.SaveDir, "badger")
}

// Logger returns the logger settings.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:      c.LogLevel,
		Encoding:   c.LogEncoding,
		OutputPath: c.LogFile,
		Name:       "gamebook",
	}
}
