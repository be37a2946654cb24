package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() fails validation: %v", err)
	}
	if cfg.Database.Backend != BackendSQLite {
		t.Errorf("default backend = %q, want sqlite", cfg.Database.Backend)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
database:
  backend: memory
api:
  port: 9090
probe:
  attempt_timeout: 2
  tcp_ports: [22, 443]
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Backend != BackendMemory {
		t.Errorf("backend = %q, want memory", cfg.Database.Backend)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.API.Port)
	}
	if len(cfg.Probe.TCPPorts) != 2 || cfg.Probe.TCPPorts[0] != 22 {
		t.Errorf("tcp_ports = %v, want [22 443]", cfg.Probe.TCPPorts)
	}
	// Untouched sections keep their defaults.
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("host = %q, want default", cfg.API.Host)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() on missing file succeeded, want error")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "database: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Error("Load() on malformed yaml succeeded, want error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NETREGISTRY_DATABASE_BACKEND", "memory")
	t.Setenv("NETREGISTRY_API_PORT", "9191")
	t.Setenv("NETREGISTRY_INFLUXDB_TOKEN", "secret-token")

	path := writeConfigFile(t, "api:\n  port: 8081\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Backend != BackendMemory {
		t.Errorf("backend = %q, env override not applied", cfg.Database.Backend)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("port = %d, env should override file", cfg.API.Port)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("token = %q, env override not applied", cfg.InfluxDB.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Database.Backend = "postgres" },
			wantErr: "database.backend",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Database.Backend = BackendSQLite
				c.Database.Path = ""
			},
			wantErr: "database.path",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name:    "bad probe port",
			mutate:  func(c *Config) { c.Probe.TCPPorts = []int{0} },
			wantErr: "probe.tcp_ports",
		},
		{
			name: "mqtt enabled without host",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.Broker.Host = ""
			},
			wantErr: "mqtt.broker.host",
		},
		{
			name: "mqtt qos out of range",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.QoS = 3
			},
			wantErr: "mqtt.qos",
		},
		{
			name: "influx enabled without org",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Org = ""
			},
			wantErr: "influxdb.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestTimeoutHelpers(t *testing.T) {
	cfg := Default()
	if cfg.GetReadTimeout().Seconds() != 30 {
		t.Errorf("read timeout = %v", cfg.GetReadTimeout())
	}
	if cfg.ProbeAttemptTimeout().Seconds() != 1 {
		t.Errorf("probe timeout = %v", cfg.ProbeAttemptTimeout())
	}
}
