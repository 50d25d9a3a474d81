// internal/services/reference-data/config.go
package referencedata

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	BasePath string        `mapstructure:"base_path"`
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		BasePath: "v1/seized-property-items",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.BasePath == "" {
		return fmt.Errorf("base_path is required")
	}
	return nil
}
