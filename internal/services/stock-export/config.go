// internal/services/stock-export/config.go
package stockexport

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Endpoint  string        `mapstructure:"endpoint"`
	Dir       string        `mapstructure:"dir"`
	PerPage   int           `mapstructure:"per_page"`
	MaxBrands int           `mapstructure:"max_brands"`
	SheetName string        `mapstructure:"sheet_name"`
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   2 * time.Minute,
		Endpoint:  "v1/seized-property-items/xlsx",
		Dir:       ".",
		PerPage:   100,
		MaxBrands: 3,
		SheetName: "Сток",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	return nil
}
