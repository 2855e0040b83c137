package config

import (
	"errors"
	"testing"
	"time"

	"github.com/Ning0612/pikpakcli/internal/domain"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}

	if cfg.Backend != BackendPikPak {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendPikPak)
	}
	if cfg.Download.Workers <= 0 {
		t.Error("default workers must be positive")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Backend = "dropbox" },
			wantErr: true,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Download.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "zero retry attempts",
			mutate:  func(c *Config) { c.Download.Retry.MaxAttempts = 0 },
			wantErr: true,
		},
		{
			name:    "multiplier below one",
			mutate:  func(c *Config) { c.Download.Retry.Multiplier = 0.5 },
			wantErr: true,
		},
		{
			name:    "jitter out of range",
			mutate:  func(c *Config) { c.Download.Retry.Jitter = 1.5 },
			wantErr: true,
		},
		{
			name:    "gdrive without credentials",
			mutate:  func(c *Config) { c.Backend = BackendGDrive },
			wantErr: true,
		},
		{
			name: "gdrive with credentials",
			mutate: func(c *Config) {
				c.Backend = BackendGDrive
				c.GDrive.ClientID = "id"
				c.GDrive.ClientSecret = "secret"
			},
		},
		{
			name: "log file enabled without path",
			mutate: func(c *Config) {
				c.Log.File.Enabled = true
				c.Log.File.Path = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrConfigInvalid) {
					t.Errorf("Validate() = %v, want ErrConfigInvalid", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	cfg.Download.ReadTimeoutSec = 90
	cfg.Download.Retry.InitialWaitMS = 250
	cfg.Download.Retry.MaxWaitSec = 15

	if got := cfg.Download.ReadTimeout(); got != 90*time.Second {
		t.Errorf("ReadTimeout() = %v", got)
	}
	if got := cfg.Download.Retry.InitialWait(); got != 250*time.Millisecond {
		t.Errorf("InitialWait() = %v", got)
	}
	if got := cfg.Download.Retry.MaxWait(); got != 15*time.Second {
		t.Errorf("MaxWait() = %v", got)
	}
}
