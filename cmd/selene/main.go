package main

import (
	"fmt"
	"os"
	"time"

	"github.com/bdobrica/selene/common/environment"
	"github.com/bdobrica/selene/common/version"
	"github.com/bdobrica/selene/internal/selene/app"
	"github.com/bdobrica/selene/internal/selene/llm"
	"github.com/bdobrica/selene/internal/selene/memory"
	"github.com/bdobrica/selene/internal/selene/observability"
	"github.com/bdobrica/selene/internal/selene/telegram"
	"github.com/bdobrica/selene/internal/selene/translate"
)

func main() {
	fmt.Printf("Selene Conversational Relay\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	observability.Setup(
		environment.StringOr("LOG_LEVEL", "info"),
		environment.StringOr("LOG_FORMAT", "text"),
	)

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	selene, err := app.New(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize Selene: %v\n", err)
		os.Exit(1)
	}
	defer selene.Stop()

	if err := selene.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running Selene: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration from environment variables
func loadConfig() (*app.Config, error) {
	token, err := environment.RequiredString("TELEGRAM_BOT_TOKEN")
	if err != nil {
		return nil, err
	}

	return &app.Config{
		Telegram: telegram.Config{
			Token:       token,
			PollTimeout: environment.DurationOr("TELEGRAM_POLL_TIMEOUT", 30*time.Second),
		},
		Translate: translate.Config{
			BaseURL: environment.StringOr("TRANSLATE_BASE_URL", ""),
			APIKey:  environment.StringOr("TRANSLATE_API_KEY", ""),
			Timeout: environment.DurationOr("TRANSLATE_TIMEOUT", 30*time.Second),
		},
		LLM: llm.Config{
			APIKey:    environment.StringOr("LLM_API_KEY", ""),
			BaseURL:   environment.StringOr("LLM_BASE_URL", ""),
			Model:     environment.StringOr("LLM_MODEL", ""),
			MaxTokens: environment.IntOr("LLM_MAX_TOKENS", 0),
			Timeout:   environment.DurationOr("LLM_TIMEOUT", 60*time.Second),
		},
		Memory: memory.Config{
			MaxAge:   environment.DurationOr("CONTEXT_MAX_AGE", 0),
			MaxChars: environment.IntOr("CONTEXT_MAX_CHARS", 0),
		},
		ProfilePath:     environment.StringOr("PROFILE_PATH", ""),
		DatabasePath:    environment.StringOr("DATABASE_PATH", ""),
		HTTPAddr:        environment.StringOr("HTTP_ADDR", ""),
		TriggerKeywords: environment.StringSliceOr("TRIGGER_KEYWORDS", nil),
	}, nil
}
