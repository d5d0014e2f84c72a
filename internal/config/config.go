package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all server settings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig selects the storage backend. Driver is "sqlite" or
// "postgres".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SMTPConfig holds outbound mail settings for the daily notification.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// NotifyConfig controls the over-threshold daily notification job.
type NotifyConfig struct {
	Enabled              bool    `yaml:"enabled"`
	ThresholdHours       float64 `yaml:"threshold_hours"`
	CheckIntervalMinutes int     `yaml:"check_interval_minutes"`
}

// Default returns default settings, with TICKBOOK_* environment
// variables applied on top.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Addr: getEnv("TICKBOOK_ADDR", ":8080"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("TICKBOOK_DB_DRIVER", "sqlite"),
			DSN:    getEnv("TICKBOOK_DB_DSN", "tickbook.db"),
		},
		Log: LogConfig{
			Level:  getEnv("TICKBOOK_LOG_LEVEL", "info"),
			Format: getEnv("TICKBOOK_LOG_FORMAT", "console"),
		},
		SMTP: SMTPConfig{
			Host: getEnv("TICKBOOK_SMTP_HOST", ""),
			Port: getEnvInt("TICKBOOK_SMTP_PORT", 587),
			From: getEnv("TICKBOOK_SMTP_FROM", "no-reply@tickbook.local"),
		},
		Notify: NotifyConfig{
			Enabled:              getEnv("TICKBOOK_NOTIFY_ENABLED", "true") == "true",
			ThresholdHours:       8,
			CheckIntervalMinutes: 15,
		},
	}
	cfg.SMTP.Username = getEnv("TICKBOOK_SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("TICKBOOK_SMTP_PASSWORD", "")
	return cfg
}

// Load reads a YAML config file over the defaults. A missing path (or a
// path that does not exist) returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
