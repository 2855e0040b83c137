// Package cli wires the command-line surface to the drive service.
package cli

import (
	"context"
	"fmt"

	"github.com/Ning0612/pikpakcli/internal/config"
	"github.com/Ning0612/pikpakcli/internal/core/transfer"
	"github.com/Ning0612/pikpakcli/internal/drive"
	"github.com/Ning0612/pikpakcli/internal/drive/gdrive"
	"github.com/Ning0612/pikpakcli/internal/drive/pikpak"
	"github.com/Ning0612/pikpakcli/internal/logger"
	"github.com/Ning0612/pikpakcli/internal/service"
	"github.com/Ning0612/pikpakcli/internal/session"
)

// App carries the state shared by all commands: parsed flags, loaded
// configuration, the session file and the lazily-built drive service.
type App struct {
	ConfigPath  string
	SessionPath string
	Backend     string
	Verbose     bool

	cfg   *config.Config
	sess  *session.Session
	svc   *service.DriveService
	ready bool
}

// NewApp creates an app with nothing loaded yet
func NewApp() *App {
	return &App{}
}

// Setup loads configuration, initializes logging and reads the session
// file. It is idempotent so nested command dispatch (the interactive
// shell) can call it freely.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}

	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.Backend != "" {
		a.cfg.Backend = a.Backend
	}

	if err := a.initLogger(); err != nil {
		return err
	}

	sessPath := a.SessionPath
	if sessPath == "" {
		sessPath = session.DefaultFileName
	}
	sess, err := session.Load(sessPath)
	if err != nil {
		return err
	}
	a.sess = sess

	a.ready = true
	return nil
}

func (a *App) initLogger() error {
	level := logger.ParseLevel(a.cfg.Log.Level)
	if a.Verbose {
		level = logger.LevelDebug
	}

	outputs := []logger.OutputConfig{{Type: logger.OutputStderr}}
	if a.cfg.Log.File.Enabled {
		outputs = append(outputs, logger.OutputConfig{Type: logger.OutputFile})
	}

	return logger.Init(logger.Config{
		Level:   level,
		Format:  logger.ParseFormat(a.cfg.Log.Format),
		Outputs: outputs,
		File: logger.FileConfig{
			Enabled:    a.cfg.Log.File.Enabled,
			Path:       config.ExpandPath(a.cfg.Log.File.Path),
			MaxSizeMB:  a.cfg.Log.File.MaxSizeMB,
			MaxAgeDays: a.cfg.Log.File.MaxAgeDays,
			MaxBackups: a.cfg.Log.File.MaxBackups,
			Compress:   a.cfg.Log.File.Compress,
		},
	})
}

// Config returns the loaded configuration
func (a *App) Config() *config.Config {
	return a.cfg
}

// Session returns the loaded session
func (a *App) Session() *session.Session {
	return a.sess
}

// Service returns the drive service, building the backend client on
// first use
func (a *App) Service(ctx context.Context) (*service.DriveService, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	client, err := a.buildClient(ctx)
	if err != nil {
		return nil, err
	}

	a.svc = service.New(client, a.sess, a.transferOptions())
	return a.svc, nil
}

func (a *App) buildClient(ctx context.Context) (drive.Client, error) {
	switch a.cfg.Backend {
	case config.BackendPikPak:
		return a.buildPikPakClient()
	case config.BackendGDrive:
		g := a.cfg.GDrive
		return gdrive.New(ctx, g.ClientID, g.ClientSecret, config.ExpandPath(g.TokenPath))
	default:
		return nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
	}
}

func (a *App) buildPikPakClient() (*pikpak.Client, error) {
	var token pikpak.Token
	if len(a.sess.Token) > 0 {
		t, err := pikpak.UnmarshalToken(a.sess.Token)
		if err != nil {
			return nil, fmt.Errorf("session token is corrupt: %w", err)
		}
		token = t
	}

	sess := a.sess
	return pikpak.New(token, pikpak.Options{
		OnToken: func(t pikpak.Token) {
			data, err := pikpak.MarshalToken(t)
			if err != nil {
				return
			}
			sess.SetToken(data)
			if err := sess.Save(); err != nil {
				logger.Get().Warn("failed to persist session token", "error", err)
			}
		},
	}), nil
}

func (a *App) transferOptions() transfer.Options {
	opts := transfer.DefaultOptions()
	d := a.cfg.Download
	if d.Workers > 0 {
		opts.Workers = d.Workers
	}
	if d.ReadTimeoutSec > 0 {
		opts.ReadTimeout = d.ReadTimeout()
	}
	opts.Retry = transfer.RetryPolicy{
		MaxAttempts: d.Retry.MaxAttempts,
		InitialWait: d.Retry.InitialWait(),
		MaxWait:     d.Retry.MaxWait(),
		Multiplier:  d.Retry.Multiplier,
		Jitter:      d.Retry.Jitter,
	}
	return opts
}

// Close releases the drive client if one was built
func (a *App) Close() error {
	if a.svc != nil {
		return a.svc.Close()
	}
	return nil
}
