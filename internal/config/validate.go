package config

import (
	"fmt"
	"path/filepath"

	"github.com/fzdarsky/srpauth/internal/logging"
)

// Validate performs comprehensive validation on the configuration.
func Validate(cfg *Config) error {
	if err := validateHandshake(cfg); err != nil {
		return fmt.Errorf("handshake validation failed: %w", err)
	}

	if err := validateKDF(cfg); err != nil {
		return fmt.Errorf("kdf validation failed: %w", err)
	}

	if err := validateDirectory(cfg); err != nil {
		return fmt.Errorf("directory validation failed: %w", err)
	}

	if err := validateRateLimit(cfg); err != nil {
		return fmt.Errorf("rate limit validation failed: %w", err)
	}

	if err := validateLogging(cfg); err != nil {
		return fmt.Errorf("logging validation failed: %w", err)
	}

	return nil
}

func validateHandshake(cfg *Config) error {
	if _, err := cfg.GetHandshakeTTL(); err != nil {
		return err
	}

	_, err := cfg.GetSweepInterval()
	return err
}

func validateKDF(cfg *Config) error {
	if cfg.KDF.Time == 0 {
		return fmt.Errorf("kdf.time must be at least 1")
	}

	if cfg.KDF.Threads == 0 {
		return fmt.Errorf("kdf.threads must be at least 1")
	}

	// Argon2 needs 8 KiB per lane
	if cfg.KDF.MemoryKiB < 8*uint32(cfg.KDF.Threads) {
		return fmt.Errorf("kdf.memory_kib must be at least %d for %d threads", 8*uint32(cfg.KDF.Threads), cfg.KDF.Threads)
	}

	return nil
}

func validateDirectory(cfg *Config) error {
	if cfg.Directory.RecordFile == "" {
		return fmt.Errorf("directory.record_file is required")
	}

	if !filepath.IsAbs(cfg.Directory.RecordFile) {
		return fmt.Errorf("directory.record_file must be an absolute path")
	}

	return nil
}

func validateRateLimit(cfg *Config) error {
	if cfg.RateLimit.MaxFailures < 1 {
		return fmt.Errorf("rate_limit.max_failures must be at least 1")
	}

	_, err := cfg.GetLockout()
	return err
}

func validateLogging(cfg *Config) error {
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return err
	}

	_, err := logging.ParseFormat(cfg.Logging.Format)
	return err
}
