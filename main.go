// hiwar - A bilingual Arabic/English terminal chat with a streaming LLM.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/jeranaias/hiwar/internal/chat"
	"github.com/jeranaias/hiwar/internal/cloud"
	"github.com/jeranaias/hiwar/internal/config"
	"github.com/jeranaias/hiwar/internal/gemini"
	"github.com/jeranaias/hiwar/internal/locale"
	"github.com/jeranaias/hiwar/internal/model"
	"github.com/jeranaias/hiwar/internal/ollama"
	ui "github.com/jeranaias/hiwar/internal/ui/chat"
	"github.com/jeranaias/hiwar/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configPath  string
	provider    string
	modelName   string
	lang        string
	debug       bool
	noAltScreen bool
)

var initCommand = &cli.Command{
	Name:  "init",
	Usage: "Write a default config file to ~/.hiwar/config.toml",
	Action: func(c *cli.Context) error {
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
		return nil
	},
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Action: func(c *cli.Context) error {
		fmt.Fprintf(c.App.Writer, "hiwar %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return nil
	},
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "hiwar",
		Usage:   "Chat with an LLM in Arabic or English",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to a TOML or JSON config file (default ~/.hiwar/config.toml)",
				Aliases:     []string{"c"},
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "provider",
				Usage:       "Chat backend: gemini, openrouter or ollama",
				Aliases:     []string{"p"},
				Destination: &provider,
			},
			&cli.StringFlag{
				Name:        "model",
				Usage:       "Model of the selected provider",
				Aliases:     []string{"m"},
				Destination: &modelName,
			},
			&cli.StringFlag{
				Name:        "lang",
				Usage:       "Interface language: ar, en or auto",
				Aliases:     []string{"l"},
				Destination: &lang,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "Write debug logs",
				Destination: &debug,
			},
			&cli.BoolFlag{
				Name:        "no-alt-screen",
				Usage:       "Render inline instead of in the alternate screen",
				Destination: &noAltScreen,
			},
		},
		Commands: []*cli.Command{initCommand, versionCommand},
		Action:   run,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the chat TUI.
func run(c *cli.Context) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("hiwar needs an interactive terminal")
	}

	// A missing .env is fine; variables already set take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Info("starting", "version", Version, "provider", cfg.Provider, "model", cfg.Model())

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	backend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := backend.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Warn("backend close", "error", err)
			}
		}()
	}

	language := resolveLanguage(cfg.UI.Language)
	conv := model.NewConversationWithGreeting(language.Text().InitialMessage)
	ctrl := chat.NewController(conv, backend, logger)

	// A failed start is retried when the first message is sent
	_ = ctrl.Init(ctx)

	m := ui.New(ctx, ctrl, ui.Options{
		Language: language,
		Markdown: cfg.UI.Markdown,
		Theme:    styles.NewTheme(),
		Logger:   logger,
	})

	var opts []tea.ProgramOption
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	logger.Info("exiting")
	return nil
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	// Flags win over the file and the environment
	if provider != "" {
		cfg.Provider = provider
	}
	cfg.SetDefaults()
	if modelName != "" {
		cfg.SetModel(modelName)
	}
	if lang != "" {
		cfg.UI.Language = strings.ToLower(lang)
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	if noAltScreen {
		cfg.UI.AltScreen = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openLog opens the log file. A TUI owns the terminal, so logs never go to
// stdout or stderr.
func openLog(cfg *config.Config) (*slog.Logger, func(), error) {
	path := cfg.Log.File
	if path == "" {
		p, err := config.DefaultLogPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}

// resolveLanguage maps the configured language to a supported one.
func resolveLanguage(setting string) locale.Language {
	if setting == "auto" {
		return locale.Detect()
	}
	l, err := locale.Parse(setting)
	if err != nil {
		return locale.Default
	}
	return l
}

// newBackend creates the backend of the configured provider.
func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (chat.Backend, error) {
	gen := cfg.Generation

	switch cfg.Provider {
	case config.ProviderOpenRouter:
		temperature, topP, topK := gen.Temperature, gen.TopP, gen.TopK
		client := cloud.NewOpenRouterClient(cfg.OpenRouter.APIKey).
			WithBaseURL(cfg.OpenRouter.BaseURL).
			WithModel(cfg.OpenRouter.Model).
			WithSampling(cloud.Sampling{Temperature: &temperature, TopP: &topP, TopK: &topK}).
			WithLogger(logger)
		backend, err := cloud.NewBackend(client)
		if err != nil {
			return nil, err
		}
		return backend, nil

	case config.ProviderOllama:
		client := ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.Ollama.URL,
			DefaultModel: cfg.Ollama.Model,
			Options: &ollama.Options{
				Temperature: gen.Temperature,
				TopP:        gen.TopP,
				TopK:        gen.TopK,
			},
		})
		if err := client.CheckRunning(ctx); err != nil {
			// Not fatal: the server may come up before the first message
			logger.Warn("ollama not reachable", "url", cfg.Ollama.URL, "error", err)
		}
		return ollama.NewBackend(client, cfg.Ollama.Model), nil

	default:
		backend, err := gemini.New(ctx, gemini.Options{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: float32(gen.Temperature),
			TopP:        float32(gen.TopP),
			TopK:        float32(gen.TopK),
		})
		if err != nil {
			return nil, err
		}
		return backend, nil
	}
}
