// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} expansion
//  2. Environment variables (fallback), optionally seeded from a .env file
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	alice, err := cfg.User("alice") // password falls back to ZENMONEY_ALICE_PASSWORD
//	secret := cfg.GetAPIKey(cfg.Zenmoney.ClientSecret, "ZENMONEY_CLIENT_SECRET")
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Zenmoney      ZenmoneyConfig      `yaml:"zenmoney"`
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ZenmoneyConfig holds remote ledger API configuration
type ZenmoneyConfig struct {
	BaseURL        string                `yaml:"base_url"`
	ClientID       string                `yaml:"client_id"`
	ClientSecret   string                `yaml:"client_secret"`
	TimeoutSeconds int                   `yaml:"timeout_seconds"`
	MaxRetries     int                   `yaml:"max_retries"`
	Users          map[string]UserConfig `yaml:"users"`
}

// UserConfig holds the credentials of one ledger user
type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ReconcileConfig holds matching and synthesis settings
type ReconcileConfig struct {
	BankDateTolerance int    `yaml:"bank_date_tolerance"`
	PeerDateTolerance int    `yaml:"peer_date_tolerance"`
	DebtAccountTitle  string `yaml:"debt_account_title"`
	JitterMinSeconds  int    `yaml:"jitter_min_seconds"`
	JitterMaxSeconds  int    `yaml:"jitter_max_seconds"`
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ZENMONEY_PASSWORD})
	expanded := os.ExpandEnv(string(data))

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Defaults returns a config with every default filled in
func Defaults() *Config {
	return &Config{
		Zenmoney: ZenmoneyConfig{
			BaseURL:        "https://api.zenmoney.ru",
			TimeoutSeconds: 30,
			MaxRetries:     3,
			Users:          map[string]UserConfig{},
		},
		Reconcile: ReconcileConfig{
			BankDateTolerance: 2,
			PeerDateTolerance: 1,
			DebtAccountTitle:  "Debts",
			JitterMinSeconds:  5,
			JitterMaxSeconds:  14,
		},
		Storage: StorageConfig{
			DatabasePath: "zenrecon.db",
		},
		API: APIConfig{
			Port:           8085,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "maven"},
			Metrics: MetricsConfig{Enabled: true, Namespace: "zenrecon"},
		},
	}
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := Defaults()

	cfg.Zenmoney.BaseURL = getEnv("ZENMONEY_BASE_URL", cfg.Zenmoney.BaseURL)
	cfg.Zenmoney.ClientID = os.Getenv("ZENMONEY_CLIENT_ID")
	cfg.Zenmoney.ClientSecret = os.Getenv("ZENMONEY_CLIENT_SECRET")
	cfg.Zenmoney.TimeoutSeconds = getEnvInt("ZENMONEY_TIMEOUT_SECONDS", cfg.Zenmoney.TimeoutSeconds)
	cfg.Zenmoney.MaxRetries = getEnvInt("ZENMONEY_MAX_RETRIES", cfg.Zenmoney.MaxRetries)

	// ZENMONEY_USERS=alice,bob reads ZENMONEY_ALICE_USERNAME / ZENMONEY_ALICE_PASSWORD
	for _, name := range strings.Split(os.Getenv("ZENMONEY_USERS"), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		prefix := "ZENMONEY_" + strings.ToUpper(name) + "_"
		cfg.Zenmoney.Users[name] = UserConfig{
			Username: getEnv(prefix+"USERNAME", name),
			Password: os.Getenv(prefix + "PASSWORD"),
		}
	}

	cfg.Reconcile.BankDateTolerance = getEnvInt("RECONCILE_BANK_DATE_TOLERANCE", cfg.Reconcile.BankDateTolerance)
	cfg.Reconcile.PeerDateTolerance = getEnvInt("RECONCILE_PEER_DATE_TOLERANCE", cfg.Reconcile.PeerDateTolerance)
	cfg.Reconcile.DebtAccountTitle = getEnv("RECONCILE_DEBT_ACCOUNT_TITLE", cfg.Reconcile.DebtAccountTitle)
	cfg.Reconcile.JitterMinSeconds = getEnvInt("RECONCILE_JITTER_MIN_SECONDS", cfg.Reconcile.JitterMinSeconds)
	cfg.Reconcile.JitterMaxSeconds = getEnvInt("RECONCILE_JITTER_MAX_SECONDS", cfg.Reconcile.JitterMaxSeconds)

	cfg.Storage.DatabasePath = getEnv("ZENRECON_DB_PATH", cfg.Storage.DatabasePath)
	cfg.API.Port = getEnvInt("ZENRECON_API_PORT", cfg.API.Port)
	if origins := os.Getenv("ZENRECON_ALLOWED_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = strings.Split(origins, ",")
	}

	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)
	cfg.Observability.Metrics.Namespace = getEnv("METRICS_NAMESPACE", cfg.Observability.Metrics.Namespace)

	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables.
// A .env file in the working directory, when present, seeds the environment first.
func LoadOrEnv_WithPath(path string) *Config {
	_ = godotenv.Load()

	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// User returns the credentials configured for name. Passwords left empty
// in the file are looked up as ZENMONEY_<NAME>_PASSWORD.
func (c *Config) User(name string) (UserConfig, error) {
	user, ok := c.Zenmoney.Users[name]
	if !ok {
		return UserConfig{}, fmt.Errorf("user %q is not configured", name)
	}
	if user.Username == "" {
		user.Username = name
	}
	user.Password = c.GetAPIKey(user.Password, "ZENMONEY_"+strings.ToUpper(name)+"_PASSWORD")
	return user, nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// GetAPIKey retrieves a secret from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.Zenmoney.ClientSecret, "ZENMONEY_CLIENT_SECRET")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	// First, try the config value
	if configValue != "" {
		return configValue
	}

	// Then try each environment variable in order
	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}
