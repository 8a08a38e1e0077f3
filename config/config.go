// Package config loads service settings from defaults, an optional TOML file
// and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vainnor/ensemble-predict/missions"
	"github.com/vainnor/ensemble-predict/reconcile"
	jsonfetcher "github.com/vainnor/ensemble-predict/services/json_fetcher"
)

type Config struct {
	ListenAddr        string
	SimulatorURL      string
	TelemetryURL      string
	TelemetryInterval time.Duration
	RequestTimeout    time.Duration
	HourOffset        int
	DisplayTimezone   string
	ForecastStart     time.Time
	ForecastEnd       time.Time
	KafkaBrokers      []string
	KafkaTopic        string
	MasterAPIKey      string
	LogLevel          string
	LogFile           string
	Missions          []missions.Entry
}

func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		SimulatorURL:   "http://localhost:5000",
		TelemetryURL:   jsonfetcher.DefaultFeedURL,
		RequestTimeout: 30 * time.Second,
		HourOffset:     reconcile.DefaultHourOffset,
		KafkaTopic:     "ensemble-sweeps",
		LogLevel:       "info",
		Missions:       append([]missions.Entry(nil), missions.DefaultTable...),
	}
}

// Location resolves DisplayTimezone, falling back to the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.DisplayTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("display timezone: %w", err)
	}
	return loc, nil
}

// Load reads CONFIG_FILE when set, then applies environment overrides.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path, ok := lookup("CONFIG_FILE"); ok && strings.TrimSpace(path) != "" {
		if err := cfg.LoadFile(strings.TrimSpace(path)); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// config.toml key mapping. Durations are whole seconds.
type fileConfig struct {
	ListenAddr        string           `toml:"listen_addr"`
	SimulatorURL      string           `toml:"simulator_url"`
	TelemetryURL      string           `toml:"telemetry_url"`
	TelemetryInterval int              `toml:"telemetry_interval"`
	RequestTimeout    int              `toml:"request_timeout"`
	HourOffset        int              `toml:"telemetry_hour_offset"`
	DisplayTimezone   string           `toml:"display_timezone"`
	ForecastStart     time.Time        `toml:"forecast_window_start"`
	ForecastEnd       time.Time        `toml:"forecast_window_end"`
	KafkaBrokers      []string         `toml:"kafka_brokers"`
	KafkaTopic        string           `toml:"kafka_topic"`
	LogLevel          string           `toml:"log_level"`
	LogFile           string           `toml:"log_file"`
	Missions          []missions.Entry `toml:"missions"`
}

// LoadFile overlays the keys defined in a TOML file.
func (c *Config) LoadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("listen_addr") {
		c.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("simulator_url") {
		c.SimulatorURL = strings.TrimSpace(raw.SimulatorURL)
	}
	if meta.IsDefined("telemetry_url") {
		c.TelemetryURL = strings.TrimSpace(raw.TelemetryURL)
	}
	if meta.IsDefined("telemetry_interval") {
		c.TelemetryInterval = time.Duration(raw.TelemetryInterval) * time.Second
	}
	if meta.IsDefined("request_timeout") {
		c.RequestTimeout = time.Duration(raw.RequestTimeout) * time.Second
	}
	if meta.IsDefined("telemetry_hour_offset") {
		c.HourOffset = raw.HourOffset
	}
	if meta.IsDefined("display_timezone") {
		c.DisplayTimezone = strings.TrimSpace(raw.DisplayTimezone)
	}
	if meta.IsDefined("forecast_window_start") {
		c.ForecastStart = raw.ForecastStart
	}
	if meta.IsDefined("forecast_window_end") {
		c.ForecastEnd = raw.ForecastEnd
	}
	if meta.IsDefined("kafka_brokers") {
		c.KafkaBrokers = raw.KafkaBrokers
	}
	if meta.IsDefined("kafka_topic") {
		c.KafkaTopic = strings.TrimSpace(raw.KafkaTopic)
	}
	if meta.IsDefined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_file") {
		c.LogFile = strings.TrimSpace(raw.LogFile)
	}
	if meta.IsDefined("missions") {
		c.Missions = raw.Missions
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	seconds := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("%s: %q is not a number of seconds", key, v)
		}
		*dst = time.Duration(n) * time.Second
		return nil
	}
	instant := func(key string, dst *time.Time) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = t
		return nil
	}

	str("LISTEN_ADDR", &c.ListenAddr)
	str("SIMULATOR_URL", &c.SimulatorURL)
	str("TELEMETRY_URL", &c.TelemetryURL)
	str("DISPLAY_TIMEZONE", &c.DisplayTimezone)
	str("KAFKA_TOPIC", &c.KafkaTopic)
	str("MASTER_API_KEY", &c.MasterAPIKey)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)

	if err := seconds("TELEMETRY_INTERVAL", &c.TelemetryInterval); err != nil {
		return err
	}
	if err := seconds("REQUEST_TIMEOUT", &c.RequestTimeout); err != nil {
		return err
	}
	if err := instant("FORECAST_WINDOW_START", &c.ForecastStart); err != nil {
		return err
	}
	if err := instant("FORECAST_WINDOW_END", &c.ForecastEnd); err != nil {
		return err
	}
	if v, ok := lookup("TELEMETRY_HOUR_OFFSET"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("TELEMETRY_HOUR_OFFSET: %q is not an integer", v)
		}
		c.HourOffset = n
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && strings.TrimSpace(v) != "" {
		c.KafkaBrokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, b)
			}
		}
	}
	return nil
}

func (c Config) validate() error {
	if c.SimulatorURL == "" {
		return fmt.Errorf("simulator url is required")
	}
	if c.HourOffset < 0 || c.HourOffset > 23 {
		return fmt.Errorf("telemetry hour offset %d out of range 0-23", c.HourOffset)
	}
	if !c.ForecastStart.IsZero() && !c.ForecastEnd.IsZero() && c.ForecastEnd.Before(c.ForecastStart) {
		return fmt.Errorf("forecast window ends before it starts")
	}
	if len(c.Missions) == 0 {
		return fmt.Errorf("at least one mission is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
