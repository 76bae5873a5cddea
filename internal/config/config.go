// Package config provides configuration loading and validation for srpauth.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/fzdarsky/srpauth/internal/logging"
	"github.com/fzdarsky/srpauth/pkg/srp"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvRecordFile = "SRPAUTH_RECORD_FILE"
	EnvLogLevel   = "SRPAUTH_LOG_LEVEL"
)

// DefaultPath is where the CLI looks for a configuration file.
const DefaultPath = "/etc/srpauth/config.yaml"

// Config represents the srpauth configuration.
type Config struct {
	Handshake HandshakeSettings `yaml:"handshake"`
	KDF       KDFSettings       `yaml:"kdf"`
	Directory DirectorySettings `yaml:"directory"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`
	Logging   LoggingSettings   `yaml:"logging"`
}

// HandshakeSettings controls the lifetime of pending handshakes.
type HandshakeSettings struct {
	TTL           string `yaml:"ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// KDFSettings contains the Argon2 password hashing cost.
type KDFSettings struct {
	Time      uint32 `yaml:"time"`
	MemoryKiB uint32 `yaml:"memory_kib"`
	Threads   uint8  `yaml:"threads"`
}

// DirectorySettings locates the registered user record.
type DirectorySettings struct {
	RecordFile string `yaml:"record_file"`
}

// RateLimitSettings contains the per-connection lockout policy.
type RateLimitSettings struct {
	MaxFailures int    `yaml:"max_failures"`
	Lockout     string `yaml:"lockout"`
}

// LoggingSettings contains logging configuration.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a valid baseline configuration.
func Default() *Config {
	argon := srp.DefaultArgon2()

	return &Config{
		Handshake: HandshakeSettings{
			TTL:           "30s",
			SweepInterval: "1m",
		},
		KDF: KDFSettings{
			Time:      argon.Time,
			MemoryKiB: argon.MemoryKiB,
			Threads:   argon.Threads,
		},
		Directory: DirectorySettings{
			RecordFile: "/etc/srpauth/record.yaml",
		},
		RateLimit: RateLimitSettings{
			MaxFailures: 3,
			Lockout:     "60s",
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads and parses the configuration file on top of Default.
// A missing file at DefaultPath is not an error; the defaults are used.
//
//nolint:gosec // G304: Config path is from command-line argument
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if recordFile := os.Getenv(EnvRecordFile); recordFile != "" {
		c.Directory.RecordFile = recordFile
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}

// GetHandshakeTTL parses and returns the pending handshake lifetime.
func (c *Config) GetHandshakeTTL() (time.Duration, error) {
	ttl, err := time.ParseDuration(c.Handshake.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid handshake.ttl: %w", err)
	}

	if ttl < time.Second {
		return 0, fmt.Errorf("handshake.ttl must be at least 1 second")
	}
	if ttl > 10*time.Minute {
		return 0, fmt.Errorf("handshake.ttl must not exceed 10 minutes")
	}

	return ttl, nil
}

// GetSweepInterval parses and returns how often expired handshakes are removed.
func (c *Config) GetSweepInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Handshake.SweepInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid handshake.sweep_interval: %w", err)
	}

	if interval < time.Second {
		return 0, fmt.Errorf("handshake.sweep_interval must be at least 1 second")
	}

	return interval, nil
}

// GetLockout parses and returns the rate limiter lockout window.
func (c *Config) GetLockout() (time.Duration, error) {
	lockout, err := time.ParseDuration(c.RateLimit.Lockout)
	if err != nil {
		return 0, fmt.Errorf("invalid rate_limit.lockout: %w", err)
	}

	if lockout <= 0 {
		return 0, fmt.Errorf("rate_limit.lockout must be positive")
	}

	return lockout, nil
}

// Argon2 returns the password hasher configured by the kdf section.
func (c *Config) Argon2() srp.Argon2 {
	argon := srp.DefaultArgon2()
	argon.Time = c.KDF.Time
	argon.MemoryKiB = c.KDF.MemoryKiB
	argon.Threads = c.KDF.Threads
	return argon
}

// Suite returns the SRP hash suite built from the configured KDF.
func (c *Config) Suite() srp.Suite {
	suite := srp.DefaultSuite()
	suite.Password = c.Argon2()
	return suite
}

// NewLogger builds the logger described by the logging section.
func (c *Config) NewLogger() (*logging.Logger, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format), nil
}
