// Package config loads application configuration from an optional YAML
// file and SAFETYDESK_-prefixed environment variables. The resulting
// Config is built once at startup and passed into constructors.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/safetydesk/safetydesk/internal/domain"
)

const envPrefix = "SAFETYDESK_"

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Log           LogConfig           `koanf:"log"`
	JWT           JWTConfig           `koanf:"jwt"`
	CORS          CORSConfig          `koanf:"cors"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Reports       ReportsConfig       `koanf:"reports"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	Migrate         bool          `koanf:"migrate"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// JWTConfig contains token signing settings.
type JWTConfig struct {
	SecretKey           string        `koanf:"secret_key"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
}

// CORSConfig contains cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// NotificationsConfig contains notification dispatch settings.
type NotificationsConfig struct {
	Enabled   bool         `koanf:"enabled"`
	QueueSize int          `koanf:"queue_size"`
	Email     EmailConfig  `koanf:"email"`
	Alerts    AlertsConfig `koanf:"alerts"`
	Digest    DigestConfig `koanf:"digest"`
}

// EmailConfig contains SMTP transport settings.
type EmailConfig struct {
	SMTPHost     string  `koanf:"smtp_host"`
	SMTPPort     int     `koanf:"smtp_port"`
	SMTPUser     string  `koanf:"smtp_user"`
	SMTPPassword string  `koanf:"smtp_password"`
	UseTLS       bool    `koanf:"use_tls"`
	FromAddress  string  `koanf:"from_address"`
	FromName     string  `koanf:"from_name"`
	RateLimit    float64 `koanf:"rate_limit"`
}

// AlertsConfig controls synchronous critical-incident alerts.
type AlertsConfig struct {
	CriticalThreshold int      `koanf:"critical_threshold"`
	Recipients        []string `koanf:"recipients"`
}

// DigestConfig controls the daily overdue-actions digest.
type DigestConfig struct {
	Schedule string `koanf:"schedule"`
}

// ReportsConfig contains report rendering settings.
type ReportsConfig struct {
	ExportRowLimit int `koanf:"export_row_limit"`
}

// Default returns the configuration defaults. Values not overridden by
// file or environment keep these.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  60 * time.Second,
			ConnectAttempts: 5,
			Migrate:         true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		JWT: JWTConfig{
			AccessTokenDuration: 15 * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Notifications: NotificationsConfig{
			Enabled:   true,
			QueueSize: 256,
			Email: EmailConfig{
				SMTPPort:  587,
				RateLimit: 1,
			},
			Alerts: AlertsConfig{
				CriticalThreshold: 4,
			},
			Digest: DigestConfig{
				Schedule: "0 7 * * *",
			},
		},
		Reports: ReportsConfig{
			ExportRowLimit: 10000,
		},
	}
}

// Load reads configuration from the optional YAML file at path, then
// applies environment overrides. Keys nest with double underscores, e.g.
// SAFETYDESK_SERVER__PORT=8081.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.JWT.SecretKey == "" {
		return fmt.Errorf("jwt.secret_key is required")
	}
	if c.Notifications.Alerts.CriticalThreshold < domain.SeverityMin || c.Notifications.Alerts.CriticalThreshold > domain.SeverityMax {
		return fmt.Errorf("notifications.alerts.critical_threshold must be between %d and %d", domain.SeverityMin, domain.SeverityMax)
	}
	return nil
}
