package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for sqlgate.
// All configuration is loaded from YAML or TOML and can be overridden by environment variables.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway" toml:"gateway"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	API      APIConfig      `yaml:"api" toml:"api"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	InfluxDB InfluxDBConfig `yaml:"influxdb" toml:"influxdb"`
	MQTT     MQTTConfig     `yaml:"mqtt" toml:"mqtt"`
	Security SecurityConfig `yaml:"security" toml:"security"`
}

// GatewayConfig contains the SQL endpoint settings.
type GatewayConfig struct {
	// Route is the path the SQL endpoint is mounted on.
	Route string `yaml:"route" toml:"route"`

	// AllowedIPs restricts which client addresses may call the endpoint.
	// Empty means every address is accepted.
	AllowedIPs []string `yaml:"allowed_ips" toml:"allowed_ips"`

	// AllowedPasswords lists accepted shared secrets, plaintext or Argon2id PHC strings.
	// Empty means no password is required.
	AllowedPasswords []string `yaml:"allowed_passwords" toml:"allowed_passwords"`

	// MaxQueryLength caps the query text in characters. 0 disables the limit.
	MaxQueryLength int `yaml:"max_query_length" toml:"max_query_length"`

	// QueryTimeout bounds statement execution in seconds. 0 disables the limit.
	QueryTimeout int `yaml:"query_timeout" toml:"query_timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path          string `yaml:"path" toml:"path"`
	WALMode       bool   `yaml:"wal_mode" toml:"wal_mode"`
	BusyTimeout   int    `yaml:"busy_timeout" toml:"busy_timeout"`
	StartupScript string `yaml:"startup_script" toml:"startup_script"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Host     string           `yaml:"host" toml:"host"`
	Port     int              `yaml:"port" toml:"port"`
	TLS      TLSConfig        `yaml:"tls" toml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts" toml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors" toml:"cors"`

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable behind a reverse proxy that sets these headers.
	TrustProxy bool `yaml:"trust_proxy" toml:"trust_proxy"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	CertFile string `yaml:"cert_file" toml:"cert_file"`
	KeyFile  string `yaml:"key_file" toml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read" toml:"read"`
	Write int `yaml:"write" toml:"write"`
	Idle  int `yaml:"idle" toml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" toml:"allowed_headers"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	Output string `yaml:"output" toml:"output"`
}

// InfluxDBConfig contains InfluxDB connection settings for execution metrics.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled" toml:"enabled"`
	URL           string `yaml:"url" toml:"url"`
	Token         string `yaml:"token" toml:"token"`
	Org           string `yaml:"org" toml:"org"`
	Bucket        string `yaml:"bucket" toml:"bucket"`
	BatchSize     int    `yaml:"batch_size" toml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval" toml:"flush_interval"`
}

// MQTTConfig contains MQTT broker settings for the execution audit feed.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled" toml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker" toml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth" toml:"auth"`
	QoS         int                 `yaml:"qos" toml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix" toml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect" toml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	TLS      bool   `yaml:"tls" toml:"tls"`
	ClientID string `yaml:"client_id" toml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay" toml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay" toml:"max_delay"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// RateLimitConfig contains per-client rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" toml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute" toml:"requests_per_minute"`
	Burst             int  `yaml:"burst" toml:"burst"`
}

// Load reads configuration from a YAML or TOML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. File values (override defaults); the format is chosen by extension
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SQLGATE_SECTION_KEY
// For example: SQLGATE_DATABASE_PATH, SQLGATE_API_PORT
//
// Parameters:
//   - path: Path to the .yaml, .yml or .toml configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("parsing config file: unsupported format %q (use .yaml or .toml)", filepath.Ext(path))
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
// It is used when no configuration file exists.
func Default() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Route: "/database",
		},
		Database: DatabaseConfig{
			Path:          "./data/sqlgate.db",
			WALMode:       true,
			BusyTimeout:   5,
			StartupScript: "startup.sql",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 60,
				Idle:  120,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "sqlgate",
			BatchSize:     100,
			FlushInterval: 10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "sqlgate",
			},
			QoS:         1,
			TopicPrefix: "sqlgate",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 600,
				Burst:             20,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SQLGATE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("SQLGATE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("SQLGATE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("SQLGATE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Gateway allow-lists (comma separated)
	if v := os.Getenv("SQLGATE_ALLOWED_IPS"); v != "" {
		cfg.Gateway.AllowedIPs = splitList(v)
	}
	if v := os.Getenv("SQLGATE_ALLOWED_PASSWORDS"); v != "" {
		cfg.Gateway.AllowedPasswords = splitList(v)
	}

	// InfluxDB
	if v := os.Getenv("SQLGATE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// MQTT
	if v := os.Getenv("SQLGATE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SQLGATE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Gateway validation
	if !strings.HasPrefix(c.Gateway.Route, "/") {
		errs = append(errs, "gateway.route must start with /")
	}
	if c.Gateway.MaxQueryLength < 0 {
		errs = append(errs, "gateway.max_query_length must not be negative")
	}
	if c.Gateway.QueryTimeout < 0 {
		errs = append(errs, "gateway.query_timeout must not be negative")
	}
	for _, pw := range c.Gateway.AllowedPasswords {
		if pw == "" {
			errs = append(errs, "gateway.allowed_passwords must not contain empty entries")
			break
		}
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, "database.busy_timeout must not be negative")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.TLS.Enabled && (c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "") {
		errs = append(errs, "api.tls.cert_file and api.tls.key_file are required when TLS is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	// Rate limit validation
	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, "security.rate_limit.requests_per_minute must be positive when rate limiting is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SecretRequired reports whether callers must present a shared secret.
func (c *Config) SecretRequired() bool {
	return len(c.Gateway.AllowedPasswords) > 0
}

// GetQueryTimeout returns the query timeout as a Duration (0 means no timeout).
func (c *Config) GetQueryTimeout() time.Duration {
	return time.Duration(c.Gateway.QueryTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
