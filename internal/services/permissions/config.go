// internal/services/permissions/config.go
package permissions

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Endpoint string        `mapstructure:"endpoint"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		Endpoint: "v1/users/{user}/permissions",
		CacheTTL: 10 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if !strings.Contains(c.Endpoint, "{user}") {
		return fmt.Errorf("endpoint must contain {user}")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	return nil
}
