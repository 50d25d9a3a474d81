// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads config.yaml and config.<APP_ENVIRONMENT>.yaml from the usual
// locations, applies .env and environment overrides and validates the result.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// STOCK_API_BASE_URL overrides api.base_url
	v.SetEnvPrefix("STOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("STOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	bindEnvKeys(v)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// bindEnvKeys makes AutomaticEnv see keys that are absent from every
// config file, so a bare environment is enough to run.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"api.base_url", "api.timeout",
		"auth.token", "auth.keycloak.url", "auth.keycloak.realm",
		"auth.keycloak.client_id", "auth.keycloak.client_secret",
		"auth.keycloak.username", "auth.keycloak.password",
		"storage.backend", "storage.dir",
		"storage.redis.address", "storage.redis.password",
		"storage.postgres.host", "storage.postgres.database",
		"storage.postgres.user", "storage.postgres.password",
		"logging.level", "logging.format",
		"metrics.address",
	} {
		_ = v.BindEnv(key)
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.API.BaseURL == "" {
		if val := os.Getenv("API_URL"); val != "" {
			cfg.API.BaseURL = val
		}
	}
	if cfg.Auth.Token == "" {
		if val := os.Getenv("STOCK_TOKEN"); val != "" {
			cfg.Auth.Token = val
		}
	}
	if cfg.Auth.Keycloak.ClientSecret == "" {
		if val := os.Getenv("KEYCLOAK_CLIENT_SECRET"); val != "" {
			cfg.Auth.Keycloak.ClientSecret = val
		}
	}
	if cfg.Storage.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Storage.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "stock-backoffice"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30000
	}
	if cfg.Auth.ExpirySkew == 0 {
		cfg.Auth.ExpirySkew = 30
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "file"
	}
	if cfg.Storage.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Storage.Dir = filepath.Join(home, ".stockctl")
		} else {
			cfg.Storage.Dir = ".stockctl"
		}
	}
	if cfg.Storage.Namespace == "" {
		cfg.Storage.Namespace = "stock"
	}
	if cfg.Storage.Postgres.MaxConnections == 0 {
		cfg.Storage.Postgres.MaxConnections = 5
	}
	if cfg.Storage.Postgres.MaxIdle == 0 {
		cfg.Storage.Postgres.MaxIdle = 2
	}
	if cfg.Storage.Postgres.SSLMode == "" {
		cfg.Storage.Postgres.SSLMode = "disable"
	}
	if cfg.Storage.Postgres.Table == "" {
		cfg.Storage.Postgres.Table = "client_storage"
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * 60 * 1000
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 50
	}
	if cfg.Cache.Sweep == 0 {
		cfg.Cache.Sweep = 60 * 1000
	}

	if cfg.Requests.Grace == 0 {
		cfg.Requests.Grace = 100
	}
	if cfg.Requests.Sweep == 0 {
		cfg.Requests.Sweep = 30 * 1000
	}
	if cfg.Requests.MaxAge == 0 {
		cfg.Requests.MaxAge = 30 * 1000
	}

	if cfg.Search.Debounce == 0 {
		cfg.Search.Debounce = 500
	}
	if cfg.Search.MaxWait == 0 {
		cfg.Search.MaxWait = 1500
	}

	if cfg.Feed.PerPage == 0 {
		cfg.Feed.PerPage = 50
	}
	if cfg.Feed.PollInterval == 0 {
		cfg.Feed.PollInterval = 2 * 60 * 1000
	}
	if cfg.Feed.ReadDebounce == 0 {
		cfg.Feed.ReadDebounce = 3000
	}

	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "."
	}

	if cfg.Import.Timeout == 0 {
		cfg.Import.Timeout = 2 * 60 * 1000
	}
	if cfg.Import.MaxSize == 0 {
		cfg.Import.MaxSize = 20 << 20
	}
	if cfg.Permissions.CacheTTL == 0 {
		cfg.Permissions.CacheTTL = 10 * 60 * 1000
	}

	if cfg.Notifications.Channel == "" {
		cfg.Notifications.Channel = "log"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":8080"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	switch cfg.Storage.Backend {
	case "memory", "file":
	case "redis":
		if cfg.Storage.Redis.Address == "" {
			return fmt.Errorf("storage.redis.address is required for the redis backend")
		}
	case "postgres":
		if cfg.Storage.Postgres.Host == "" || cfg.Storage.Postgres.Database == "" {
			return fmt.Errorf("storage.postgres.host and storage.postgres.database are required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", cfg.Storage.Backend)
	}

	switch cfg.Notifications.Channel {
	case "log":
	case "sns":
		if cfg.Notifications.SNS.TopicARN == "" {
			return fmt.Errorf("notifications.sns.topic_arn is required for the sns channel")
		}
	case "ses":
		if cfg.Notifications.SES.FromEmail == "" || len(cfg.Notifications.SES.To) == 0 {
			return fmt.Errorf("notifications.ses.from_email and notifications.ses.to are required for the ses channel")
		}
	default:
		return fmt.Errorf("unknown notifications.channel %q", cfg.Notifications.Channel)
	}

	if cfg.Search.MaxWait < cfg.Search.Debounce {
		return fmt.Errorf("search.max_wait must not be less than search.debounce")
	}

	return nil
}
