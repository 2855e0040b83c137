package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

// Supported drive backends
const (
	BackendPikPak = "pikpak"
	BackendGDrive = "gdrive"
)

// Config is the complete application configuration
type Config struct {
	// Backend selects the drive backend: "pikpak" or "gdrive"
	Backend string `mapstructure:"backend"`

	Download DownloadConfig `mapstructure:"download"`
	GDrive   GDriveConfig   `mapstructure:"gdrive"`
	Log      LogConfig      `mapstructure:"log"`
}

// DownloadConfig tunes the download engine
type DownloadConfig struct {
	// Workers bounds parallel transfers
	Workers int `mapstructure:"workers"`

	// ReadTimeoutSec aborts a stalled transfer attempt
	ReadTimeoutSec int `mapstructure:"read_timeout_sec"`

	// Retry bounds automatic resume of transient failures
	Retry RetryConfig `mapstructure:"retry"`
}

// RetryConfig shapes the bounded backoff between resume attempts
type RetryConfig struct {
	MaxAttempts   int     `mapstructure:"max_attempts"`
	InitialWaitMS int     `mapstructure:"initial_wait_ms"`
	MaxWaitSec    int     `mapstructure:"max_wait_sec"`
	Multiplier    float64 `mapstructure:"multiplier"`
	Jitter        float64 `mapstructure:"jitter"`
}

// GDriveConfig holds OAuth credentials for the Google Drive backend
type GDriveConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenPath    string `mapstructure:"token_path"`
}

// LogConfig configures logging output
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures the rotating log file
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns the configuration used when no config file exists
func Default() *Config {
	return &Config{
		Backend: BackendPikPak,
		Download: DownloadConfig{
			Workers:        3,
			ReadTimeoutSec: 60,
			Retry: RetryConfig{
				MaxAttempts:   4,
				InitialWaitMS: 500,
				MaxWaitSec:    30,
				Multiplier:    2.0,
				Jitter:        0.1,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPikPak, BackendGDrive:
	default:
		return fmt.Errorf("%w: unknown backend %q", domain.ErrConfigInvalid, c.Backend)
	}

	if c.Download.Workers <= 0 {
		return fmt.Errorf("%w: download workers must be positive", domain.ErrConfigInvalid)
	}
	if c.Download.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry max_attempts must be positive", domain.ErrConfigInvalid)
	}
	if c.Download.Retry.Multiplier < 1 {
		return fmt.Errorf("%w: retry multiplier must be >= 1", domain.ErrConfigInvalid)
	}
	if c.Download.Retry.Jitter < 0 || c.Download.Retry.Jitter > 1 {
		return fmt.Errorf("%w: retry jitter must be in [0, 1]", domain.ErrConfigInvalid)
	}

	if c.Backend == BackendGDrive && (c.GDrive.ClientID == "" || c.GDrive.ClientSecret == "") {
		return fmt.Errorf("%w: gdrive backend requires client_id and client_secret", domain.ErrConfigInvalid)
	}

	if c.Log.File.Enabled && c.Log.File.Path == "" {
		return fmt.Errorf("%w: log file enabled without a path", domain.ErrConfigInvalid)
	}

	return nil
}

// ReadTimeout returns the stall timeout as a duration
func (c *DownloadConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// InitialWait returns the first backoff wait as a duration
func (c *RetryConfig) InitialWait() time.Duration {
	return time.Duration(c.InitialWaitMS) * time.Millisecond
}

// MaxWait returns the backoff cap as a duration
func (c *RetryConfig) MaxWait() time.Duration {
	return time.Duration(c.MaxWaitSec) * time.Second
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
