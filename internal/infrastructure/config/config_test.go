package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
nut:
  host: "nut.lan"
  port: 3494
rooms:
  UPS-Server: "Rack A"
  ups2: "Office"
scheduler:
  log_interval: "1m"
  broadcast_interval: "5s"
database:
  path: "/tmp/test.db"
api:
  port: 8080
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.NUT.Address() != "nut.lan:3494" {
		t.Errorf("NUT.Address() = %q, want %q", cfg.NUT.Address(), "nut.lan:3494")
	}
	if cfg.Scheduler.LogInterval != time.Minute {
		t.Errorf("Scheduler.LogInterval = %v, want 1m", cfg.Scheduler.LogInterval)
	}
	if cfg.Scheduler.BroadcastInterval != 5*time.Second {
		t.Errorf("Scheduler.BroadcastInterval = %v, want 5s", cfg.Scheduler.BroadcastInterval)
	}
	if got := cfg.Rooms.Lookup("ups-server"); got != "Rack A" {
		t.Errorf("Rooms.Lookup(ups-server) = %q, want %q", got, "Rack A")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
nut:
  port: 0
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for nut.port 0, got nil")
	}
}

func TestLoadOrDefault(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantErr  bool
		wantHost string
	}{
		{
			name:     "missing file falls back",
			path:     "/nonexistent/path/config.yaml",
			wantErr:  true,
			wantHost: DefaultNUTHost,
		},
		{
			name:     "malformed file falls back",
			path:     writeConfig(t, "nut: [broken"),
			wantErr:  true,
			wantHost: DefaultNUTHost,
		},
		{
			name:     "valid file is used",
			path:     writeConfig(t, "nut:\n  host: \"ups.lan\"\n"),
			wantErr:  false,
			wantHost: "ups.lan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadOrDefault(tt.path)
			if cfg == nil {
				t.Fatal("LoadOrDefault() returned nil config")
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadOrDefault() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrFallback) {
				t.Errorf("LoadOrDefault() error = %v, want ErrFallback", err)
			}
			if cfg.NUT.Host != tt.wantHost {
				t.Errorf("NUT.Host = %q, want %q", cfg.NUT.Host, tt.wantHost)
			}
			if cfg.NUT.Port != DefaultNUTPort {
				t.Errorf("NUT.Port = %d, want %d", cfg.NUT.Port, DefaultNUTPort)
			}
			if cfg.Rooms == nil {
				t.Error("Rooms should be non-nil")
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return Default() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "missing nut host", mutate: func(c *Config) { c.NUT.Host = "" }, wantErr: true},
		{name: "invalid nut port", mutate: func(c *Config) { c.NUT.Port = 70000 }, wantErr: true},
		{name: "zero log interval", mutate: func(c *Config) { c.Scheduler.LogInterval = 0 }, wantErr: true},
		{name: "negative broadcast interval", mutate: func(c *Config) { c.Scheduler.BroadcastInterval = -time.Second }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid api port", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "influx enabled without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAPIConfig_GetTimeouts(t *testing.T) {
	cfg := APIConfig{
		Timeouts: APITimeoutConfig{
			Read:  30,
			Write: 45,
			Idle:  60,
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("NUT_HOST", "bare-host")
	t.Setenv("NUT_PORT", "4000")
	t.Setenv("UPSMON_NUT_HOST", "prefixed-host")
	t.Setenv("UPSMON_DATABASE_PATH", "/custom/path.db")
	t.Setenv("UPSMON_MQTT_HOST", "mqtt.example.com")
	t.Setenv("UPSMON_MQTT_USERNAME", "testuser")
	t.Setenv("UPSMON_MQTT_PASSWORD", "testpass")
	t.Setenv("UPSMON_API_HOST", "192.168.1.1")
	t.Setenv("UPSMON_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.NUT.Host != "prefixed-host" {
		t.Errorf("NUT.Host = %q, want %q", cfg.NUT.Host, "prefixed-host")
	}
	if cfg.NUT.Port != 4000 {
		t.Errorf("NUT.Port = %d, want 4000", cfg.NUT.Port)
	}
	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.NUT.Address() != "localhost:3493" {
		t.Errorf("Default NUT.Address() = %q, want localhost:3493", cfg.NUT.Address())
	}
	if cfg.Scheduler.LogInterval != 5*time.Minute {
		t.Errorf("Default LogInterval = %v, want 5m", cfg.Scheduler.LogInterval)
	}
	if cfg.Scheduler.BroadcastInterval != 10*time.Second {
		t.Errorf("Default BroadcastInterval = %v, want 10s", cfg.Scheduler.BroadcastInterval)
	}
	if len(cfg.Rooms) != 0 {
		t.Errorf("Default Rooms = %v, want empty", cfg.Rooms)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestRooms_Lookup(t *testing.T) {
	rooms := NewRooms(map[string]string{"UPS1": "Server Room"})

	tests := []struct {
		id   string
		want string
	}{
		{"ups1", "Server Room"},
		{"UPS1", "Server Room"},
		{"Ups1", "Server Room"},
		{"ups2", RoomNotAvailable},
		{"", RoomNotAvailable},
	}

	for _, tt := range tests {
		if got := rooms.Lookup(tt.id); got != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
