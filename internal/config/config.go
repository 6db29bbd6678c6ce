package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Tables binds the entity names to concrete table names in the store.
type Tables struct {
	Departures  string `yaml:"departures" validate:"required"`
	Stations    string `yaml:"stations" validate:"required"`
	Lines       string `yaml:"lines" validate:"required"`
	Transitions string `yaml:"transitions" validate:"required"`
}

// Config holds all configuration for the tracker service. It is built once
// at startup and passed into each component by value.
type Config struct {
	// Database
	DatabasePath string `validate:"required"`
	Tables       Tables

	// Feed
	FeedURLTemplate string `validate:"required,contains=%s"`
	ChunkSize       int    `validate:"min=1"`
	RequestTimeout  time.Duration

	// Scheduling
	RefreshInterval  time.Duration `validate:"min=1s"`
	SaveInterval     time.Duration `validate:"min=1s"`
	SleepThreshold   time.Duration
	SleepMargin      time.Duration
	DepartureHorizon time.Duration `validate:"min=1m"`

	// Backup
	BackupDir  string `validate:"required"`
	BackupHour int    `validate:"min=0,max=23"`
}

// fileConfig is the optional YAML overlay. Durations are given in seconds
// so the file stays plain scalars.
type fileConfig struct {
	DatabasePath        string  `yaml:"database_path"`
	Tables              *Tables `yaml:"tables"`
	FeedURLTemplate     string  `yaml:"feed_url_template"`
	ChunkSize           int     `yaml:"chunk_size"`
	RequestTimeoutSec   int     `yaml:"request_timeout_seconds"`
	RefreshIntervalSec  int     `yaml:"refresh_interval_seconds"`
	SaveIntervalSec     int     `yaml:"save_interval_seconds"`
	SleepThresholdSec   int     `yaml:"sleep_threshold_seconds"`
	SleepMarginSec      int     `yaml:"sleep_margin_seconds"`
	DepartureHorizonSec int     `yaml:"departure_horizon_seconds"`
	BackupDir           string  `yaml:"backup_dir"`
	BackupHour          *int    `yaml:"backup_hour"`
}

// DefaultTables returns the table bindings matching the embedded schema.
func DefaultTables() Tables {
	return Tables{
		Departures:  "departures",
		Stations:    "stations",
		Lines:       "lines",
		Transitions: "transitions",
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DatabasePath:     "/data/mvg.db",
		Tables:           DefaultTables(),
		FeedURLTemplate:  "https://www.mvg.de/api/fib/v2/departure?globalId=%s",
		ChunkSize:        30,
		RequestTimeout:   15 * time.Second,
		RefreshInterval:  30 * time.Second,
		SaveInterval:     15 * time.Minute,
		SleepThreshold:   5 * time.Minute,
		SleepMargin:      30 * time.Second,
		DepartureHorizon: time.Hour,
		BackupDir:        "/data/backup",
		BackupHour:       3,
	}
}

// Load builds the configuration: defaults, then the optional YAML file
// named by TRACKER_CONFIG, then environment variable overrides (a .env
// file is honored if present). The result is validated before use.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()

	if path := os.Getenv("TRACKER_CONFIG"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.Tables != nil {
		cfg.Tables = *fc.Tables
	}
	if fc.FeedURLTemplate != "" {
		cfg.FeedURLTemplate = fc.FeedURLTemplate
	}
	if fc.ChunkSize > 0 {
		cfg.ChunkSize = fc.ChunkSize
	}
	if fc.RequestTimeoutSec > 0 {
		cfg.RequestTimeout = time.Duration(fc.RequestTimeoutSec) * time.Second
	}
	if fc.RefreshIntervalSec > 0 {
		cfg.RefreshInterval = time.Duration(fc.RefreshIntervalSec) * time.Second
	}
	if fc.SaveIntervalSec > 0 {
		cfg.SaveInterval = time.Duration(fc.SaveIntervalSec) * time.Second
	}
	if fc.SleepThresholdSec > 0 {
		cfg.SleepThreshold = time.Duration(fc.SleepThresholdSec) * time.Second
	}
	if fc.SleepMarginSec > 0 {
		cfg.SleepMargin = time.Duration(fc.SleepMarginSec) * time.Second
	}
	if fc.DepartureHorizonSec > 0 {
		cfg.DepartureHorizon = time.Duration(fc.DepartureHorizonSec) * time.Second
	}
	if fc.BackupDir != "" {
		cfg.BackupDir = fc.BackupDir
	}
	if fc.BackupHour != nil {
		cfg.BackupHour = *fc.BackupHour
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DatabasePath = getEnv("SQLITE_DATABASE", cfg.DatabasePath)
	cfg.FeedURLTemplate = getEnv("FEED_URL_TEMPLATE", cfg.FeedURLTemplate)
	cfg.ChunkSize = getEnvInt("FEED_CHUNK_SIZE", cfg.ChunkSize)
	cfg.RequestTimeout = getEnvSeconds("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RefreshInterval = getEnvSeconds("REFRESH_INTERVAL", cfg.RefreshInterval)
	cfg.SaveInterval = getEnvSeconds("SAVE_INTERVAL", cfg.SaveInterval)
	cfg.SleepThreshold = getEnvSeconds("SLEEP_THRESHOLD", cfg.SleepThreshold)
	cfg.SleepMargin = getEnvSeconds("SLEEP_MARGIN", cfg.SleepMargin)
	cfg.DepartureHorizon = getEnvSeconds("DEPARTURE_HORIZON", cfg.DepartureHorizon)
	cfg.BackupDir = getEnv("BACKUP_DIR", cfg.BackupDir)
	cfg.BackupHour = getEnvInt("BACKUP_HOUR", cfg.BackupHour)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return time.Duration(intValue) * time.Second
		}
	}
	return defaultValue
}
