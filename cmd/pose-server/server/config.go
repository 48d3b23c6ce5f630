package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pion/logging"
	"gopkg.in/yaml.v3"
)

// Config holds server configuration options.
//
// Example YAML file:
//
//	addr: ":8080"
//	read_timeout: 30s
//	write_timeout: 30s
//	log_level: info
//	min_visibility: 0.5
type Config struct {
	Addr          string        `yaml:"addr"`           // Listen address (e.g., ":8080" or ":0" for random port)
	ReadTimeout   time.Duration `yaml:"read_timeout"`   // HTTP read timeout
	WriteTimeout  time.Duration `yaml:"write_timeout"`  // HTTP write timeout
	LogLevel      string        `yaml:"log_level"`      // disable, error, warn, info, debug or trace
	MinVisibility float64       `yaml:"min_visibility"` // Landmarks less visible than this are treated as missing
}

// DefaultConfig returns a configuration suitable for testing.
// Uses ":0" to bind to a random available port.
func DefaultConfig() Config {
	return Config{
		Addr:         ":0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		LogLevel:     "info",
	}
}

// LoadConfig reads a YAML configuration file. Keys present in the file
// override DefaultConfig; unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MinVisibility < 0 || c.MinVisibility > 1 {
		return fmt.Errorf("min_visibility %v outside [0, 1]", c.MinVisibility)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// LoggerFactory returns a pion logger factory writing to stderr at the
// configured level. Per-scope PION_LOG_* environment overrides still apply.
func (c Config) LoggerFactory() (*logging.DefaultLoggerFactory, error) {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	factory := logging.NewDefaultLoggerFactory()
	factory.DefaultLogLevel = level
	return factory, nil
}

var logLevels = map[string]logging.LogLevel{
	"disable": logging.LogLevelDisabled,
	"error":   logging.LogLevelError,
	"warn":    logging.LogLevelWarn,
	"info":    logging.LogLevelInfo,
	"debug":   logging.LogLevelDebug,
	"trace":   logging.LogLevelTrace,
}

// ParseLogLevel converts a level name, case-insensitively, to a pion log level.
func ParseLogLevel(name string) (logging.LogLevel, error) {
	level, ok := logLevels[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
