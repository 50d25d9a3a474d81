// internal/services/property-detail/config.go
package propertydetail

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	ItemsPath      string        `mapstructure:"items_path"`
	ClassifiedPath string        `mapstructure:"classified_path"`
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		ItemsPath:      "v1/seized-property-items",
		ClassifiedPath: "v1/seized-property/classified-ads",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ItemsPath == "" {
		return fmt.Errorf("items_path is required")
	}
	return nil
}
