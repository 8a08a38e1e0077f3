package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := load(env(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.RequestTimeout != 30*time.Second || cfg.HourOffset != 7 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TelemetryInterval != 0 {
		t.Fatalf("polling should be off by default")
	}
	if len(cfg.Missions) != 5 || cfg.Missions[0].Name != "SSI-95" || cfg.Missions[0].ID != 68 {
		t.Fatalf("unexpected mission table: %+v", cfg.Missions)
	}
}

func TestFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
simulator_url = "http://sim.internal:5000"
request_timeout = 10
telemetry_interval = 60
forecast_window_start = 2024-12-31T12:00:00Z
forecast_window_end = 2025-01-15T00:00:00Z

[[missions]]
name = "SSI-100"
id = 80

[[missions]]
name = "SSI-101"
id = 81
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := load(env(map[string]string{
		"CONFIG_FILE":     path,
		"REQUEST_TIMEOUT": "5",
		"KAFKA_BROKERS":   "k1:9092, k2:9092,",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SimulatorURL != "http://sim.internal:5000" {
		t.Fatalf("file value not applied: %s", cfg.SimulatorURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("environment should win over file, got %v", cfg.RequestTimeout)
	}
	if cfg.TelemetryInterval != time.Minute {
		t.Fatalf("unexpected interval %v", cfg.TelemetryInterval)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("undefined key overrode default: %q", cfg.ListenAddr)
	}
	if want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC); !cfg.ForecastEnd.Equal(want) {
		t.Fatalf("unexpected forecast end %v", cfg.ForecastEnd)
	}
	if len(cfg.Missions) != 2 || cfg.Missions[1].ID != 81 {
		t.Fatalf("unexpected missions: %+v", cfg.Missions)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad timeout":   {"REQUEST_TIMEOUT": "soon"},
		"bad offset":    {"TELEMETRY_HOUR_OFFSET": "25"},
		"bad window":    {"FORECAST_WINDOW_START": "2025-01-15T00:00:00Z", "FORECAST_WINDOW_END": "2025-01-01T00:00:00Z"},
		"bad timezone":  {"DISPLAY_TIMEZONE": "Mars/Olympus"},
		"missing file":  {"CONFIG_FILE": filepath.Join(t.TempDir(), "absent.toml")},
		"bad timestamp": {"FORECAST_WINDOW_END": "next week"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := load(env(vars)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`simulater_url = "typo"`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg := Default()
	if err := cfg.LoadFile(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
