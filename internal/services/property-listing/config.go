// internal/services/property-listing/config.go
package propertylisting

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Endpoint  string        `mapstructure:"endpoint"`
	MaxBrands int           `mapstructure:"max_brands"`
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		Endpoint:  "v1/seized-property-items",
		MaxBrands: 3,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.MaxBrands <= 0 {
		return fmt.Errorf("max_brands must be positive")
	}
	return nil
}
