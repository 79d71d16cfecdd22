package fixopt

import "commonDue/internal/errs"

type Config struct {
	// Число свободных работ в окне
	WindowSize int `yaml:"window_size"`
	// Сдвиг начала окна между итерациями
	Jump    int  `yaml:"jump"`
	Enabled bool `yaml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		WindowSize: 10,
		Jump:       5,
		Enabled:    true,
	}
}

func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return errs.InvalidConfig(
			"window_size должно быть > 0 (получено %d)",
			c.WindowSize,
		)
	}
	if c.Jump <= 0 {
		return errs.InvalidConfig(
			"jump должно быть > 0 (получено %d)",
			c.Jump,
		)
	}
	return nil
}
