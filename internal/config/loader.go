package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "pikpakcli"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "pikpakcli"))
		paths = append(paths, filepath.Join(homeDir, ".pikpakcli"))
	}

	return paths
}

// Load reads and parses a configuration file.
// If path is empty, default locations are searched and a missing file
// falls back to defaults rather than failing.
func Load(path string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if path != "" {
				return nil, domain.ErrConfigNotFound
			}
			// No config anywhere is fine for this CLI
			return Default(), nil
		}
		if path == "" {
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
		if os.IsNotExist(underlying(err)) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults seeds viper so partial config files inherit defaults
func applyDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("backend", def.Backend)
	v.SetDefault("download.workers", def.Download.Workers)
	v.SetDefault("download.read_timeout_sec", def.Download.ReadTimeoutSec)
	v.SetDefault("download.retry.max_attempts", def.Download.Retry.MaxAttempts)
	v.SetDefault("download.retry.initial_wait_ms", def.Download.Retry.InitialWaitMS)
	v.SetDefault("download.retry.max_wait_sec", def.Download.Retry.MaxWaitSec)
	v.SetDefault("download.retry.multiplier", def.Download.Retry.Multiplier)
	v.SetDefault("download.retry.jitter", def.Download.Retry.Jitter)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
}

func underlying(err error) error {
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		next := u.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
}
