// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	API           APIConfig          `mapstructure:"api"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Requests      RequestsConfig     `mapstructure:"requests"`
	Search        SearchConfig       `mapstructure:"search"`
	Feed          FeedConfig         `mapstructure:"feed"`
	Export        ExportConfig       `mapstructure:"export"`
	Import        ImportConfig       `mapstructure:"import"`
	Permissions   PermissionsConfig  `mapstructure:"permissions"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig points at the stock REST backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// AuthConfig holds credential settings. Either a static bearer token or a
// Keycloak realm is used.
type AuthConfig struct {
	Token      string `mapstructure:"token"`
	ExpirySkew int    `mapstructure:"expiry_skew"` // seconds

	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		Username     string `mapstructure:"username"`
		Password     string `mapstructure:"password"`
	} `mapstructure:"keycloak"`
}

// StorageConfig selects the persistent key-value backend.
type StorageConfig struct {
	Backend   string         `mapstructure:"backend"` // memory | file | redis | postgres
	Dir       string         `mapstructure:"dir"`
	Namespace string         `mapstructure:"namespace"`
	Redis     RedisConfig    `mapstructure:"redis"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	Table          string `mapstructure:"table"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// CacheConfig tunes the search result cache.
type CacheConfig struct {
	TTL        int `mapstructure:"ttl"` // milliseconds
	MaxEntries int `mapstructure:"max_entries"`
	Sweep      int `mapstructure:"sweep"` // milliseconds
}

// RequestsConfig tunes the in-flight request map of the request client.
type RequestsConfig struct {
	Grace  int `mapstructure:"grace"`   // milliseconds
	Sweep  int `mapstructure:"sweep"`   // milliseconds
	MaxAge int `mapstructure:"max_age"` // milliseconds
}

// SearchConfig holds the debounce window of free-text search.
type SearchConfig struct {
	Debounce int `mapstructure:"debounce"` // milliseconds
	MaxWait  int `mapstructure:"max_wait"` // milliseconds
}

// FeedConfig holds the activity feed settings.
type FeedConfig struct {
	PerPage      int `mapstructure:"per_page"`
	PollInterval int `mapstructure:"poll_interval"` // milliseconds
	ReadDebounce int `mapstructure:"read_debounce"` // milliseconds
}

// ExportConfig holds spreadsheet export settings.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// ImportConfig holds price import settings.
type ImportConfig struct {
	Timeout int   `mapstructure:"timeout"` // milliseconds
	MaxSize int64 `mapstructure:"max_size"`
}

// PermissionsConfig holds how long a user's permissions stay cached.
type PermissionsConfig struct {
	CacheTTL int `mapstructure:"cache_ttl"` // milliseconds
}

// NotificationConfig selects where user-visible failures are delivered.
type NotificationConfig struct {
	Channel string `mapstructure:"channel"` // log | sns | ses
	AWS     struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SNS struct {
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	SES struct {
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"ses"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the metrics/health listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
