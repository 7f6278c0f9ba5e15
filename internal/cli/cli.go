// Package cli provides the command-line interface for notionex.
package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/logging"
	"github.com/matthewsinclair/arca-notionex/internal/notion"
	"github.com/matthewsinclair/arca-notionex/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "notionex",
		Usage:   "Sync markdown documents with Notion pages",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			configureColors(cmd)
			return ctx, configureLogging(cmd)
		},
		Commands: []*cli.Command{
			versionCommand(),
			initCommand(),
			configCommand(),
			newCommand(),
			syncCommand(),
			pullCommand(),
			statusCommand(),
			checkCommand(),
			doctorCommand(),
			exportCommand(),
			archiveCommand(),
			backupsCommand(),
		},
	}
	return app.Run(ctx, args)
}

// configureColors sets up color output based on CLI flags.
func configureColors(cmd *cli.Command) {
	if cmd.Bool("no-color") {
		ui.DisableColors()
	}
}

// configureLogging sets up the logging level based on CLI flags and, when
// no flag is given, the configuration file.
func configureLogging(cmd *cli.Command) error {
	opts := logging.DefaultOptions()

	if cfg, err := config.Load(); err == nil {
		opts.Level = cfg.LogLevel()
		opts.JSON = strings.EqualFold(cfg.Log.Format, "json")
	}

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}

// loadConfig loads the effective configuration and validates the fields a
// remote-facing command depends on.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newStore builds the document store rooted at the configured docs
// directory.
func newStore(cfg *config.Config) *document.Store {
	store := document.NewStore(cfg.Docs.Dir)
	if cfg.Docs.IndexFilename != "" {
		store.IndexFilename = cfg.Docs.IndexFilename
	}
	return store
}

// newRemote builds the remote client from the configuration.
func newRemote(cfg *config.Config) (*notion.Client, error) {
	return notion.New(notion.Options{
		Token:       cfg.Remote.Token,
		BaseURL:     cfg.Remote.BaseURL,
		MinInterval: cfg.RateLimit(),
	})
}
