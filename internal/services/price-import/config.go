// internal/services/price-import/config.go
package priceimport

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	Endpoint   string        `mapstructure:"endpoint"`
	MaxSize    int64         `mapstructure:"max_size"`
	Extensions []string      `mapstructure:"extensions"`
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    2 * time.Minute,
		Endpoint:   "v1/import/valuations",
		MaxSize:    20 << 20,
		Extensions: []string{".xlsx", ".xls", ".csv"},
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.MaxSize <= 0 {
		return fmt.Errorf("max_size must be positive")
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("at least one extension is required")
	}
	return nil
}
