// Package logger — единая настройка zerolog для CLI и компонентов.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.Nop()
	inited bool
)

// Config — настройки журнала.
type Config struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // json | console
	Output   string `yaml:"output"` // stdout | stderr | file
	FilePath string `yaml:"file_path,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// Init настраивает глобальный журнал. Повторный вызов перенастраивает его.
func Init(cfg Config) error {
	var out io.Writer
	switch cfg.Output {
	case "stdout":
		out = os.Stdout
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		out = f
	default:
		out = os.Stderr
	}
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	Set(zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger())
	return nil
}

// Set подменяет глобальный журнал (используется в тестах).
func Set(l zerolog.Logger) {
	mu.Lock()
	logger = l
	inited = true
	mu.Unlock()
}

// ParseLevel разбирает уровень журнала; неизвестный уровень — info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get возвращает глобальный журнал. До Init журнал молчит.
func Get() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// Initialized сообщает, вызывался ли Init или Set.
func Initialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return inited
}

// Component возвращает журнал компонента.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}
