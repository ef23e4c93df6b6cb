// Package app wires Selene together: profile, message log, translation and
// generation bridges, pipeline, trigger policy and the Telegram transport.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bdobrica/selene/internal/selene/llm"
	"github.com/bdobrica/selene/internal/selene/memory"
	"github.com/bdobrica/selene/internal/selene/pipeline"
	"github.com/bdobrica/selene/internal/selene/profile"
	"github.com/bdobrica/selene/internal/selene/store"
	"github.com/bdobrica/selene/internal/selene/telegram"
	"github.com/bdobrica/selene/internal/selene/translate"
	"github.com/bdobrica/selene/internal/selene/trigger"
)

// Config holds application configuration
type Config struct {
	Telegram  telegram.Config
	Translate translate.Config
	LLM       llm.Config
	Memory    memory.Config

	// ProfilePath points at a YAML bot profile. Empty uses the built-in
	// default profile.
	ProfilePath string

	// DatabasePath is the SQLite message log location. Empty disables the
	// message log entirely.
	DatabasePath string

	// HTTPAddr is the TCP address for the optional health/status HTTP server
	// (e.g. ":8080"). When empty the server is disabled.
	HTTPAddr string

	// TriggerKeywords overrides the profile's group-chat keywords when
	// non-empty (set via environment).
	TriggerKeywords []string
}

// App is the assembled Selene application.
type App struct {
	config   *Config
	profile  *profile.Profile
	store    *store.Store // nil when the message log is disabled
	telegram *telegram.Client
	pipeline *pipeline.Pipeline
	policy   *trigger.Policy
	health   *HealthServer
}

// New builds the application from configuration. It opens the message log
// (when configured) but makes no network calls; those happen in Run.
func New(cfg *Config) (*App, error) {
	prof := profile.Default()
	if cfg.ProfilePath != "" {
		loaded, err := profile.Load(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		prof = loaded
	}

	// The profile feeds the bridges and the transport unless explicitly
	// overridden in config.
	if cfg.LLM.SystemPrompt == "" {
		cfg.LLM.SystemPrompt = prof.Persona
	}
	if cfg.Translate.Pivot == "" {
		cfg.Translate.Pivot = prof.PivotLanguage
	}
	if cfg.Telegram.StartMessage == "" {
		cfg.Telegram.StartMessage = prof.StartMessage
	}
	if cfg.Telegram.HelpMessage == "" {
		cfg.Telegram.HelpMessage = prof.HelpMessage
	}

	var st *store.Store
	if cfg.DatabasePath != "" {
		var err error
		st, err = store.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("app: open message log: %w", err)
		}
		slog.Info("message log enabled", "path", cfg.DatabasePath)
	} else {
		slog.Info("message log disabled (no DATABASE_PATH)")
	}

	tg, err := telegram.New(cfg.Telegram)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}

	buffer := memory.NewBuffer(cfg.Memory)
	translator := translate.New(cfg.Translate)
	generator := llm.New(cfg.LLM)
	pipe := pipeline.New(buffer, translator, generator, tg, st)

	app := &App{
		config:   cfg,
		profile:  prof,
		store:    st,
		telegram: tg,
		pipeline: pipe,
	}

	if cfg.HTTPAddr != "" {
		app.health = NewHealthServer(cfg.HTTPAddr, pipe)
	}

	return app, nil
}

// Run connects the transport and processes updates until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.telegram.Connect(ctx); err != nil {
		return err
	}

	keywords := a.profile.TriggerKeywords
	if len(a.config.TriggerKeywords) > 0 {
		keywords = a.config.TriggerKeywords
	}
	a.policy = trigger.NewPolicy(keywords, a.telegram.Handle())

	if a.health != nil {
		if err := a.health.Start(); err != nil {
			return fmt.Errorf("app: start health server: %w", err)
		}
	}

	a.telegram.Start(ctx, func(ctx context.Context, ev pipeline.Event) {
		if !a.policy.ShouldProcess(ev) {
			slog.Debug("trigger: group message not addressed to bot",
				"update_id", ev.UpdateID, "chat_id", ev.ChatID)
			return
		}
		a.pipeline.Handle(ctx, ev)
	})

	slog.Info("selene is running", "bot_username", a.telegram.Handle())
	<-ctx.Done()
	slog.Info("shutdown signal received")
	return nil
}

// Stop releases all resources. Safe to call after a failed New.
func (a *App) Stop() {
	if a.telegram != nil {
		a.telegram.Stop()
	}
	if a.health != nil {
		a.health.Shutdown(context.Background())
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("failed to close message log", "err", err)
		}
	}
}
