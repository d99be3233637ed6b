package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Log      LogConfig      `mapstructure:"log"`
	Access   AccessConfig   `mapstructure:"access"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Church   ChurchConfig   `mapstructure:"church"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`       // "development" or "production"
	StaticDir string `mapstructure:"static_dir"` // Built single-page front end
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // "sqlite" or "postgres"
	DSN             string `mapstructure:"dsn"`               // Connection string
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // Maximum idle connections (Postgres)
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // Maximum open connections (Postgres)
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // Connection max lifetime in minutes (Postgres)
	LogLevel        string `mapstructure:"log_level"`         // gorm log level; defaults to log.level
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`     // Secret for JWT signing
	TokenDuration time.Duration `mapstructure:"token_duration"` // e.g. "24h"
}

// QueueConfig holds report job queue configuration
type QueueConfig struct {
	Type       string `mapstructure:"type"`        // "memory" or "valkey"
	ValkeyAddr string `mapstructure:"valkey_addr"` // Valkey address (if type=valkey), e.g., "localhost:6379"
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format"` // "json" or "text"
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
}

// AccessConfig holds access control configuration
type AccessConfig struct {
	TableFile    string `mapstructure:"table_file"`    // Optional YAML permission table
	FallbackPath string `mapstructure:"fallback_path"` // Where denied page navigations land
}

// ReportsConfig holds report generation configuration
type ReportsConfig struct {
	Dir      string `mapstructure:"dir"`      // Directory where generated reports are written
	Schedule string `mapstructure:"schedule"` // Cron spec for the monthly donation report; empty disables
	Timezone string `mapstructure:"timezone"` // IANA zone used for scheduling and calendar months
}

// ChurchConfig holds details shown in exports and the calendar feed
type ChurchConfig struct {
	Name string `mapstructure:"name"`
}

// Location resolves the configured reporting timezone, defaulting to UTC.
func (c ReportsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reports.timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for local development
	v.SetDefault("server.port", 8470)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.static_dir", "./web/dist")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./shepherd.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60) // 60 minutes
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_duration", "24h")
	v.SetDefault("queue.type", "memory")
	v.SetDefault("queue.valkey_addr", "localhost:6379")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("access.table_file", "")
	v.SetDefault("access.fallback_path", "/dashboard")
	v.SetDefault("reports.dir", "./data/reports")
	v.SetDefault("reports.schedule", "0 6 1 * *") // 06:00 on the 1st of every month
	v.SetDefault("reports.timezone", "UTC")
	v.SetDefault("church.name", "Shepherd Church")

	// Read from config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/shepherd/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, using defaults
	}

	// Environment variables override
	v.SetEnvPrefix("SHEPHERD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Auth.TokenDuration <= 0 {
		cfg.Auth.TokenDuration = 24 * time.Hour
	}

	return &cfg, nil
}
