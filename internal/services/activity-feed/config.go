// internal/services/activity-feed/config.go
package activityfeed

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Endpoint string        `mapstructure:"endpoint"`
	PerPage  int           `mapstructure:"per_page"`
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		Endpoint: "v1/feed",
		PerPage:  50,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.PerPage <= 0 {
		return fmt.Errorf("per_page must be positive")
	}
	return nil
}
