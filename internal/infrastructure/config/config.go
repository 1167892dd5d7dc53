package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the UPS monitor.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	NUT       NUTConfig       `yaml:"nut"`
	Rooms     Rooms           `yaml:"rooms"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NUTConfig contains the upsd connection settings.
type NUTConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// ConnectTimeout and ReadTimeout are in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`
	ReadTimeout    int `yaml:"read_timeout"`
}

// Address returns host:port for dialling upsd.
func (n NUTConfig) Address() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// SchedulerConfig contains the periodic action intervals.
type SchedulerConfig struct {
	// LogInterval is how often readings are written to history.
	LogInterval time.Duration `yaml:"log_interval"`

	// BroadcastInterval is how often a fresh snapshot is pushed to live subscribers.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	// TickTimeout bounds a single tick. Zero derives it from the shorter interval.
	TickTimeout time.Duration `yaml:"tick_timeout"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
	MCP      MCPConfig        `yaml:"mcp"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// MCPConfig controls the Model Context Protocol endpoint.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WebSocketConfig contains live-update channel settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the event relay.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings for the history mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the file at path, falling back to defaults when the file
// is missing, unreadable or invalid. The returned error describes why the
// fallback happened so the caller can log it once; the config is never nil.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	fallback := Default()
	applyEnvOverrides(fallback)
	if vErr := fallback.Validate(); vErr != nil {
		// Env overrides broke the defaults; drop them.
		fallback = Default()
	}
	return fallback, errors.Join(ErrFallback, err)
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		NUT: NUTConfig{
			Host:           DefaultNUTHost,
			Port:           DefaultNUTPort,
			ConnectTimeout: 5,
			ReadTimeout:    10,
		},
		Rooms: Rooms{},
		Scheduler: SchedulerConfig{
			LogInterval:       5 * time.Minute,
			BroadcastInterval: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:        "./data/db/ups_data.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  120,
			},
			MCP: MCPConfig{
				Enabled: true,
				Path:    "/mcp",
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 4096,
			PingInterval:   25,
			PongTimeout:    60,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "upsmonitor",
			},
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Default upsd endpoint used when nothing else is configured.
const (
	DefaultNUTHost = "localhost"
	DefaultNUTPort = 3493
)

// applyEnvOverrides applies environment variable overrides to the configuration.
// UPSMON_SECTION_KEY variables win over the bare NUT_HOST / NUT_PORT pair.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NUT_HOST"); v != "" {
		cfg.NUT.Host = v
	}
	if v := os.Getenv("NUT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NUT.Port = port
		}
	}
	if v := os.Getenv("UPSMON_NUT_HOST"); v != "" {
		cfg.NUT.Host = v
	}
	if v := os.Getenv("UPSMON_NUT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NUT.Port = port
		}
	}

	if v := os.Getenv("UPSMON_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("UPSMON_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	if v := os.Getenv("UPSMON_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("UPSMON_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("UPSMON_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("UPSMON_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.NUT.Host == "" {
		errs = append(errs, "nut.host is required")
	}
	if c.NUT.Port < 1 || c.NUT.Port > 65535 {
		errs = append(errs, "nut.port must be between 1 and 65535")
	}

	if c.Scheduler.LogInterval <= 0 {
		errs = append(errs, "scheduler.log_interval must be positive")
	}
	if c.Scheduler.BroadcastInterval <= 0 {
		errs = append(errs, "scheduler.broadcast_interval must be positive")
	}
	if c.Scheduler.TickTimeout < 0 {
		errs = append(errs, "scheduler.tick_timeout must not be negative")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (a APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (a APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (a APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}
