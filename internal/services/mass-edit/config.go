// internal/services/mass-edit/config.go
package massedit

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	EditableEndpoint string        `mapstructure:"editable_endpoint"`
	MassEndpoint     string        `mapstructure:"mass_endpoint"`
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          30 * time.Second,
		EditableEndpoint: "v1/seized-property/editable-rows",
		MassEndpoint:     "v1/seized-property-items/mass",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.EditableEndpoint == "" || c.MassEndpoint == "" {
		return fmt.Errorf("endpoints are required")
	}
	return nil
}
