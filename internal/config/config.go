package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the sentinel engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Buffer    BufferConfig    `yaml:"buffer"`
	Detectors DetectorsConfig `yaml:"detectors"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// BufferConfig sizes the per-source telemetry windows.
type BufferConfig struct {
	Capacity int `yaml:"capacity"`
}

// DetectorsConfig toggles detectors and overrides threshold limits. Zero
// threshold values fall back to the built-in defaults.
type DetectorsConfig struct {
	SystemOutlier  bool            `yaml:"systemOutlier"`
	NetworkOutlier bool            `yaml:"networkOutlier"`
	Threshold      bool            `yaml:"threshold"`
	Trend          bool            `yaml:"trend"`
	Limits         ThresholdLimits `yaml:"limits"`
}

// ThresholdLimits overrides the static breach limits.
type ThresholdLimits struct {
	CPUHigh        float64 `yaml:"cpuHigh"`
	CPUCritical    float64 `yaml:"cpuCritical"`
	MemoryHigh     float64 `yaml:"memoryHigh"`
	MemoryCritical float64 `yaml:"memoryCritical"`
	DiskHigh       float64 `yaml:"diskHigh"`
	DiskCritical   float64 `yaml:"diskCritical"`
	LatencyMs      float64 `yaml:"latencyMs"`
}

// AlertsConfig controls alert retention and purge cadence.
type AlertsConfig struct {
	Retention     time.Duration `yaml:"retention"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// NotifierConfig controls the Valkey-backed critical alert channel.
type NotifierConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Channel      string        `yaml:"channel"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
}

// MonitorConfig controls the background health monitor loop.
type MonitorConfig struct {
	HealthInterval time.Duration `yaml:"healthInterval"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PULSE_SENTINEL_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8000",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Buffer: BufferConfig{Capacity: 1000},
		Detectors: DetectorsConfig{
			SystemOutlier:  true,
			NetworkOutlier: true,
			Threshold:      true,
			Trend:          true,
		},
		Alerts: AlertsConfig{
			Retention:     24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Notifier: NotifierConfig{
			Enabled:      false,
			Channel:      "pulse-sentinel:critical-alerts",
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
		Monitor: MonitorConfig{HealthInterval: 30 * time.Second},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PULSE_SENTINEL_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("PULSE_SENTINEL_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("PULSE_SENTINEL_BUFFER_CAPACITY"); v != "" {
		if capacity, err := strconv.Atoi(v); err == nil {
			cfg.Buffer.Capacity = capacity
		}
	}
	if v := os.Getenv("PULSE_SENTINEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PULSE_SENTINEL_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("PULSE_SENTINEL_ALERT_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Alerts.Retention = d
		}
	}
	if v := os.Getenv("PULSE_SENTINEL_ALERT_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Alerts.SweepInterval = d
		}
	}
	if v := os.Getenv("PULSE_SENTINEL_HEALTH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Monitor.HealthInterval = d
		}
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_ENABLED"); v != "" {
		cfg.Notifier.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_ADDR"); v != "" {
		cfg.Notifier.Addr = v
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_USERNAME"); v != "" {
		cfg.Notifier.Username = v
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_PASSWORD"); v != "" {
		cfg.Notifier.Password = v
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Notifier.DB = db
		}
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_CHANNEL"); v != "" {
		cfg.Notifier.Channel = v
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Notifier.TLS = true
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Notifier.DialTimeout = d
		}
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Notifier.ReadTimeout = d
		}
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Notifier.WriteTimeout = d
		}
	}
	if v := os.Getenv("PULSE_SENTINEL_NOTIFIER_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Notifier.MaxRetries = retry
		}
	}
}
