// Package config loads server settings from an optional YAML or TOML file
// and environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfig    = "TRACKNOTES_CONFIG"
	EnvPort      = "TRACKNOTES_PORT"
	EnvDBPath    = "TRACKNOTES_DB_PATH"
	EnvLogLevel  = "TRACKNOTES_LOG_LEVEL"
	EnvLogFormat = "TRACKNOTES_LOG_FORMAT"
	EnvStaticDir = "TRACKNOTES_STATIC_DIR"
)

type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

type ServerConfig struct {
	Port               string `yaml:"port" toml:"port"`
	StaticDir          string `yaml:"static_dir" toml:"static_dir"`
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`
}

type DatabaseConfig struct {
	Path            string `yaml:"path" toml:"path"`
	ConnectAttempts int    `yaml:"connect_attempts" toml:"connect_attempts"`
	ConnectDelayRaw string `yaml:"connect_delay" toml:"connect_delay"`

	ConnectDelay time.Duration `yaml:"-" toml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               "3000",
			ShutdownTimeoutRaw: "5s",
		},
		Database: DatabaseConfig{
			Path:            "tracknotes.db",
			ConnectAttempts: 5,
			ConnectDelayRaw: "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file named by TRACKNOTES_CONFIG, if set, then applies
// environment overrides.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvConfig))
}

// LoadFile reads config from path, expanding ${VAR} references first. An
// empty path skips the file. Files ending in .toml are TOML; anything else
// is YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		expanded := expandEnvVars(string(data))

		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(expanded, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		} else {
			dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
			dec.KnownFields(true)
			if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envRef.FindStringSubmatch(match)[1])
	})
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvPort); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("%s must be a number: %q", EnvPort, v)
		}
		cfg.Server.Port = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvStaticDir); v != "" {
		cfg.Server.StaticDir = v
	}
	return nil
}

func parseDurations(cfg *Config) error {
	var err error
	if cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw); err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}
	if cfg.Database.ConnectDelay, err = time.ParseDuration(cfg.Database.ConnectDelayRaw); err != nil {
		return fmt.Errorf("database.connect_delay: %w", err)
	}
	return nil
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.ConnectAttempts < 1 {
		return fmt.Errorf("database.connect_attempts must be at least 1")
	}
	switch c.Logging.Format {
	case "text", "json", "color":
	default:
		return fmt.Errorf("logging.format must be text, json or color, got %q", c.Logging.Format)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
