package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/phishguard/")
	v.AddConfigPath("$HOME/.phishguard")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// HTTP API defaults
	v.SetDefault("api.listen_address", "0.0.0.0:8080")
	v.SetDefault("api.cors_origins", []string{"*"})
	v.SetDefault("api.default_owner", "local")

	// SMTP filter defaults
	v.SetDefault("server.filter_type", "postfix")
	v.SetDefault("server.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.block_phishing", false)
	v.SetDefault("server.owner", "mailflow")
	v.SetDefault("server.headers.status", "X-Phishing-Status")
	v.SetDefault("server.headers.score", "X-Phishing-Score")
	v.SetDefault("server.headers.reason", "X-Phishing-Reason")
	v.SetDefault("server.subject_prefix", "")
	v.SetDefault("server.modify_subject", false)
	v.SetDefault("server.postfix.enabled", true)
	v.SetDefault("server.postfix.address", "127.0.0.1")
	v.SetDefault("server.postfix.port", 10026)
	v.SetDefault("server.max_body_size", 1048576)

	// Model defaults
	v.SetDefault("model.artifact_path", "")

	// Document store defaults
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.sqlite_path", "/data/phishguard.db")

	// OSINT cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/osint_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/phishguard")
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "phishguard:osint:")

	// Threat-intel provider defaults
	v.SetDefault("osint.timeout", "20s")
	v.SetDefault("osint.virustotal.api_key", "")
	v.SetDefault("osint.whois.api_key", "")
	v.SetDefault("osint.phishtank.app_key", "")
	v.SetDefault("osint.dns.server", "8.8.8.8:53")
	v.SetDefault("osint.dns.timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
