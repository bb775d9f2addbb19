// Package config contains everything related to configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Goals are the per-surface daily step goals. The in-app ring and the widget
// intentionally use different targets.
type Goals struct {
	InApp  int
	Widget int
}

// Cadence controls the widget timeline policy.
type Cadence struct {
	DayInterval     time.Duration
	NightInterval   time.Duration
	ActiveStartHour int
	ActiveEndHour   int
}

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	ImportDir    string
	WidgetDir    string
	LogFile      string
	LogLevel     string

	RefreshInterval         time.Duration
	WidgetCadence           Cadence
	WidgetReloadMinInterval time.Duration
	WidgetsEnabled          bool
	WidgetGapPolicy         string

	Goals             Goals
	GoalNotifications bool
}

// Default values
const (
	defaultRefreshInterval         = 5 * time.Minute
	defaultWidgetDayInterval       = 5 * time.Minute
	defaultWidgetNightInterval     = 30 * time.Minute
	defaultWidgetActiveStartHour   = 6
	defaultWidgetActiveEndHour     = 23
	defaultWidgetReloadMinInterval = 10 * time.Second
	defaultInAppStepsGoal          = 5000
	defaultWidgetStepsGoal         = 12000
	defaultGapPolicy               = "skip"
	defaultLogLevel                = "info"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	dataDir := getDefaultDataDir()

	cfg := &Config{
		DatabasePath: getEnvString("DATABASE_PATH", filepath.Join(dataDir, "health.db")),
		ImportDir:    getEnvString("IMPORT_DIR", filepath.Join(dataDir, "imports")),
		WidgetDir:    getEnvString("WIDGET_DIR", filepath.Join(dataDir, "widgets")),
		LogFile:      getEnvString("LOG_FILE", filepath.Join(dataDir, "steps.log")),
		LogLevel:     strings.ToLower(getEnvString("LOG_LEVEL", defaultLogLevel)),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		WidgetCadence: Cadence{
			DayInterval:     getEnvDuration("WIDGET_DAY_INTERVAL", defaultWidgetDayInterval),
			NightInterval:   getEnvDuration("WIDGET_NIGHT_INTERVAL", defaultWidgetNightInterval),
			ActiveStartHour: getEnvInt("WIDGET_ACTIVE_START_HOUR", defaultWidgetActiveStartHour),
			ActiveEndHour:   getEnvInt("WIDGET_ACTIVE_END_HOUR", defaultWidgetActiveEndHour),
		},
		WidgetReloadMinInterval: getEnvDuration("WIDGET_RELOAD_MIN_INTERVAL", defaultWidgetReloadMinInterval),
		WidgetsEnabled:          getEnvBool("WIDGETS_ENABLED", true),
		WidgetGapPolicy:         strings.ToLower(getEnvString("WIDGET_GAP_POLICY", defaultGapPolicy)),

		Goals: Goals{
			InApp:  getEnvInt("IN_APP_STEPS_GOAL", defaultInAppStepsGoal),
			Widget: getEnvInt("WIDGET_STEPS_GOAL", defaultWidgetStepsGoal),
		},
		GoalNotifications: getEnvBool("GOAL_NOTIFICATIONS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, dir := range []string{filepath.Dir(cfg.DatabasePath), cfg.ImportDir, cfg.WidgetDir, filepath.Dir(cfg.LogFile)} {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.Goals.InApp <= 0 {
		errs = append(errs, fmt.Errorf("IN_APP_STEPS_GOAL must be positive, got %d", c.Goals.InApp))
	}
	if c.Goals.Widget <= 0 {
		errs = append(errs, fmt.Errorf("WIDGET_STEPS_GOAL must be positive, got %d", c.Goals.Widget))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval))
	}
	if c.WidgetCadence.DayInterval <= 0 || c.WidgetCadence.NightInterval <= 0 {
		errs = append(errs, errors.New("widget intervals must be positive"))
	}
	if !validHour(c.WidgetCadence.ActiveStartHour) || !validHour(c.WidgetCadence.ActiveEndHour) {
		errs = append(errs, fmt.Errorf("widget active hours must be within 0..23, got %d..%d",
			c.WidgetCadence.ActiveStartHour, c.WidgetCadence.ActiveEndHour))
	}
	if c.WidgetReloadMinInterval < 0 {
		errs = append(errs, fmt.Errorf("WIDGET_RELOAD_MIN_INTERVAL must not be negative, got %s", c.WidgetReloadMinInterval))
	}
	switch c.WidgetGapPolicy {
	case "skip", "zero":
	default:
		errs = append(errs, fmt.Errorf("WIDGET_GAP_POLICY must be skip or zero, got %q", c.WidgetGapPolicy))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "steps-dashboard", ".env"),
			filepath.Join(home, ".steps", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// getDefaultDataDir returns the directory holding the database, imports and
// widget files.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".steps"
	}
	return filepath.Join(home, ".config", "steps-dashboard")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
