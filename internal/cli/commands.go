// Package cli provides command definitions for notionex.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/ui"
)

// starterIndex seeds the index document written by init --with-index.
const starterIndex = "# Documentation\n\nDocuments in this directory are synced with notionex.\n"

func initCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Create a starter configuration file",
		UsageText: "notionex init [options]",
		Description: `Write a .notionex.yaml with default settings into the current
   directory. The remote token is read from the NOTIONEX_TOKEN (or
   NOTION_TOKEN) environment variable and is never written to the file.

   Examples:
     notionex init --root-page 0123abcd4567ef89 --docs-dir docs
     notionex init --with-index`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root-page",
				Usage: "Remote page id that owns the synced tree",
			},
			&cli.StringFlag{
				Name:  "docs-dir",
				Usage: "Directory holding the markdown documents",
				Value: ".",
			},
			&cli.BoolFlag{
				Name:  "with-index",
				Usage: "Also create an index document in the docs directory",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration file",
			},
		},
		Action: runInit,
	}
}

func runInit(_ context.Context, cmd *cli.Command) error {
	path := initPath()
	if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.Default()
	cfg.Remote.RootPageID = cmd.String("root-page")
	cfg.Docs.Dir = cmd.String("docs-dir")

	if err := cfg.SaveToPath(path); err != nil {
		return err
	}
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Wrote %s", path)))

	if cmd.Bool("with-index") {
		if err := writeStarterIndex(cfg); err != nil {
			return err
		}
	}

	if cfg.Remote.RootPageID == "" {
		fmt.Println(ui.StatusWarning("Set remote.root_page_id (or NOTIONEX_ROOT_PAGE_ID) before syncing"))
	}
	if os.Getenv("NOTIONEX_TOKEN") == "" && os.Getenv("NOTION_TOKEN") == "" {
		fmt.Println(ui.StatusWarning("Set NOTIONEX_TOKEN (or NOTION_TOKEN) to authenticate"))
	}
	return nil
}

// initPath returns where init writes the configuration: the explicit
// NOTIONEX_CONFIG path when set, otherwise ./.notionex.yaml.
func initPath() string {
	if p := os.Getenv("NOTIONEX_CONFIG"); p != "" {
		return p
	}
	return config.ConfigFileName
}

// writeStarterIndex creates the docs directory and drops a starter index
// document into it. An existing index is left alone.
func writeStarterIndex(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Docs.Dir, 0o750); err != nil {
		return fmt.Errorf("create docs directory: %w", err)
	}
	idx := filepath.Join(cfg.Docs.Dir, cfg.Docs.IndexFilename)
	if _, err := os.Stat(idx); err == nil {
		fmt.Println(ui.StatusSkipped(fmt.Sprintf("%s already exists", idx)))
		return nil
	}
	if err := os.WriteFile(idx, []byte(starterIndex), 0o644); err != nil {
		return fmt.Errorf("write index document: %w", err)
	}
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Wrote %s", idx)))
	return nil
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Display the effective configuration",
		Description: `Show the configuration after merging the file, environment
   variables, and defaults. The token value is masked.`,
		Action: runConfig,
	}
}

func runConfig(_ context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if src := configSource(); src != "" {
		fmt.Printf("Configuration file: %s\n", src)
	} else {
		fmt.Println("Configuration file: none (defaults and environment)")
	}

	baseURL := cfg.Remote.BaseURL
	if baseURL == "" {
		baseURL = "(default)"
	}

	fmt.Println("remote:")
	fmt.Printf("  token: %s\n", maskToken(cfg.Remote.Token))
	fmt.Printf("  root_page_id: %s\n", orUnset(cfg.Remote.RootPageID))
	fmt.Printf("  base_url: %s\n", baseURL)
	fmt.Println("docs:")
	fmt.Printf("  dir: %s\n", cfg.Docs.Dir)
	fmt.Printf("  index_filename: %s\n", cfg.Docs.IndexFilename)
	fmt.Println("sync:")
	fmt.Printf("  strategy: %s\n", cfg.Sync.Strategy)
	fmt.Printf("  resolve_links: %v\n", cfg.Sync.ResolveLinks)
	fmt.Printf("  skip_child_links: %v\n", cfg.Sync.SkipChildLinks)
	fmt.Printf("  preserve_metadata: %v\n", cfg.Sync.PreserveMetadata)
	fmt.Printf("  rate_limit_ms: %d\n", cfg.Sync.RateLimitMS)
	fmt.Printf("  backup: %v\n", cfg.Sync.Backup)
	fmt.Printf("  scan_secrets: %v\n", cfg.Sync.ScanSecrets)
	fmt.Println("log:")
	fmt.Printf("  level: %s\n", cfg.Log.Level)
	fmt.Printf("  format: %s\n", cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		fmt.Printf("\n%s\n", ui.StatusWarning(fmt.Sprintf("Incomplete: %v", err)))
	}
	return nil
}

// configSource reports which file the configuration was read from, empty
// when none was found.
func configSource() string {
	if p := os.Getenv("NOTIONEX_CONFIG"); p != "" {
		return p
	}
	if p, ok := config.FindConfig(); ok {
		return p
	}
	return ""
}

// maskToken hides the secret while leaving enough to recognize which
// token is in use.
func maskToken(token string) string {
	if token == "" {
		return "(unset)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
