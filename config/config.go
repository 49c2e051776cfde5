// Package config provides YAML configuration parsing for CadenceBoard.
//
// This package enables running CadenceBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Garage Bike
//	port: 5000
//	data_file: ${CADENCE_HOME:-.}/log/cycling_data.json
//	reset_file: cycling_reset.flag
//	log_file: log/cycling_web.log
//	loop_interval: 100ms
//	fresh_threshold: 10s
//	reset_window: 5s
//	wheel_circumference: 4.45
//	calorie_factor: 0.065
//	simulate: false
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort               = 5000
	defaultDataFile           = "log/cycling_data.json"
	defaultResetFile          = "cycling_reset.flag"
	defaultLoopInterval       = 100 * time.Millisecond
	defaultFreshThreshold     = 10 * time.Second
	defaultResetWindow        = 5 * time.Second
	defaultWheelCircumference = 4.45
	defaultCalorieFactor      = 0.065
	defaultLogLevel           = "info"
)

// The calculator must look at the clock more than once a second or it
// skips seconds.
const (
	minLoopInterval = 10 * time.Millisecond
	maxLoopInterval = time.Second
)

// Config is the root configuration structure for CadenceBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "CadenceBoard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 5000.
	Port int `yaml:"port"`

	// DataFile is where snapshots are saved.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	DataFile string `yaml:"data_file"`

	// ResetFile is the reset request flag. Supports env substitution.
	ResetFile string `yaml:"reset_file"`

	// LogFile receives the JSON log and is served by /api/log.
	// Empty logs to stderr. Supports env substitution.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// LoopInterval is how often the calculator checks the clock.
	// Accepts duration strings like "100ms". Must be between 10ms and 1s.
	LoopInterval Duration `yaml:"loop_interval"`

	// FreshThreshold is the data age below which /api/data reports is_fresh.
	FreshThreshold Duration `yaml:"fresh_threshold"`

	// ResetWindow is how long a reset request stays valid.
	ResetWindow Duration `yaml:"reset_window"`

	// WheelCircumference is metres per rotation. Defaults to 4.45.
	WheelCircumference float64 `yaml:"wheel_circumference"`

	// CalorieFactor is kcal per rotation. Defaults to 0.065 when absent;
	// 0 disables calorie counting.
	CalorieFactor float64 `yaml:"calorie_factor"`

	// Simulate invents rotations for running without a sensor.
	Simulate bool `yaml:"simulate"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the file path fields. Zero values
// take the defaults of the original bike: port 5000, 100ms loop, 10s
// freshness, 5s reset window and a 4.45 m wheel. An absent calorie_factor
// is 0.065 kcal per rotation; an explicit 0 turns calorie counting off.
// An empty document is a valid configuration.
func Parse(data []byte) (*Config, error) {
	// zero is a meaningful calorie factor, so its default is set before
	// decoding rather than in applyDefaults
	cfg := Config{CalorieFactor: defaultCalorieFactor}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.DataFile == "" {
		c.DataFile = defaultDataFile
	}
	if c.ResetFile == "" {
		c.ResetFile = defaultResetFile
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LoopInterval == 0 {
		c.LoopInterval = Duration(defaultLoopInterval)
	}
	if c.FreshThreshold == 0 {
		c.FreshThreshold = Duration(defaultFreshThreshold)
	}
	if c.ResetWindow == 0 {
		c.ResetWindow = Duration(defaultResetWindow)
	}
	if c.WheelCircumference == 0 {
		c.WheelCircumference = defaultWheelCircumference
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	paths := []struct {
		name  string
		value *string
	}{
		{"data_file", &c.DataFile},
		{"reset_file", &c.ResetFile},
		{"log_file", &c.LogFile},
	}
	for _, p := range paths {
		expanded, err := expandEnvVars(*p.value)
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		*p.value = expanded
	}
	if c.DataFile == "" {
		return errors.New("data_file is empty after environment expansion")
	}
	if c.ResetFile == "" {
		return errors.New("reset_file is empty after environment expansion")
	}
	if c.DataFile == c.ResetFile {
		return fmt.Errorf("data_file and reset_file must differ, both are %q", c.DataFile)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	if d := c.LoopInterval.Duration(); d < minLoopInterval || d > maxLoopInterval {
		return fmt.Errorf("loop_interval must be between %s and %s, got %s", minLoopInterval, maxLoopInterval, d)
	}
	if d := c.FreshThreshold.Duration(); d < 0 {
		return fmt.Errorf("fresh_threshold cannot be negative, got %s", d)
	}
	if d := c.ResetWindow.Duration(); d < 0 {
		return fmt.Errorf("reset_window cannot be negative, got %s", d)
	}

	if c.WheelCircumference < 0 {
		return fmt.Errorf("wheel_circumference must be positive, got %v", c.WheelCircumference)
	}
	if c.CalorieFactor < 0 {
		return fmt.Errorf("calorie_factor cannot be negative, got %v", c.CalorieFactor)
	}

	return nil
}

// ParseLevel maps a log_level value to a [slog.Level].
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
	}
}
