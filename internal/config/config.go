// Package config — YAML-конфигурация конвейера.
//
// Неизвестные ключи и недопустимые значения отклоняются при запуске с
// кодом INVALID_CONFIG. Отсутствующие ключи получают значения по
// умолчанию; в строгом режиме (LoadStrict) они тоже дают INVALID_CONFIG.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"commonDue/internal/errs"
	"commonDue/internal/fixopt"
	"commonDue/internal/logger"
	"commonDue/internal/lp"
	"commonDue/internal/sa"
)

// Config — полная конфигурация прогона.
type Config struct {
	Annealing                sa.Config     `yaml:"annealing"`
	FixAndOptimize           fixopt.Config `yaml:"fix_and_optimize"`
	UseConstructiveHeuristic bool          `yaml:"use_constructive_heuristic"`
	Solver                   SolverConfig  `yaml:"solver"`
	Log                      logger.Config `yaml:"log"`
}

// SolverConfig — настройки встроенного решателя.
type SolverConfig struct {
	Tolerance    float64 `yaml:"tolerance"`
	IntTolerance float64 `yaml:"int_tolerance"`
	// 0 — без ограничения
	MaxNodes int `yaml:"max_nodes"`
}

// DefaultMaxNodes — лимит узлов ветвления на окно по умолчанию.
const DefaultMaxNodes = 50000

func Default() Config {
	return Config{
		Annealing:                sa.DefaultConfig(),
		FixAndOptimize:           fixopt.DefaultConfig(),
		UseConstructiveHeuristic: true,
		Solver: SolverConfig{
			Tolerance:    lp.DefaultTolerance,
			IntTolerance: lp.DefaultIntTolerance,
			MaxNodes:     DefaultMaxNodes,
		},
		Log: logger.DefaultConfig(),
	}
}

// Load читает конфигурацию из файла. Пустой путь — значения по
// умолчанию. Переменные окружения COMMONDUE_LOG_LEVEL и
// COMMONDUE_LOG_FORMAT переопределяют журнал.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errs.Wrap(err, errs.CodeInvalidConfig, "read config %s", path)
		}
		cfg, err = Parse(bytes.NewReader(data))
		if err != nil {
			return Config{}, err
		}
	}
	return withEnv(cfg)
}

func withEnv(cfg Config) (Config, error) {
	cfg.Log.Level = getEnv("COMMONDUE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("COMMONDUE_LOG_FORMAT", cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse разбирает YAML поверх значений по умолчанию.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errs.Wrap(err, errs.CodeInvalidConfig, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Annealing.Validate(); err != nil {
		return err
	}
	if err := c.FixAndOptimize.Validate(); err != nil {
		return err
	}
	if c.Solver.Tolerance < 0 || c.Solver.IntTolerance < 0 {
		return errs.InvalidConfig(
			"допуски решателя должны быть >= 0 (получено %g, %g)",
			c.Solver.Tolerance, c.Solver.IntTolerance,
		)
	}
	if c.Solver.MaxNodes < 0 {
		return errs.InvalidConfig(
			"max_nodes должно быть >= 0 (получено %d)",
			c.Solver.MaxNodes,
		)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errs.InvalidConfig("неизвестный формат журнала %q", c.Log.Format)
	}
	switch c.Log.Output {
	case "stdout", "stderr":
	case "file":
		if c.Log.FilePath == "" {
			return errs.InvalidConfig("log.file_path обязателен при output: file")
		}
	default:
		return errs.InvalidConfig("неизвестный вывод журнала %q", c.Log.Output)
	}
	return nil
}

// LP — решатель для оценки последовательностей.
func (c Config) LP() lp.Simplex {
	return lp.Simplex{Tol: c.Solver.Tolerance}
}

// MILP — решатель окон fix-and-optimize.
func (c Config) MILP() lp.BranchAndBound {
	return lp.BranchAndBound{
		LP:       c.LP(),
		MaxNodes: c.Solver.MaxNodes,
		IntTol:   c.Solver.IntTolerance,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
