package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/export"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write the document inventory in a machine-readable format",
		UsageText: "notionex export [options]",
		Description: `Render every document's sync state as JSON, YAML, or a markdown
   table, for scripts and CI jobs that watch the docs tree. The
   inventory carries the same states status shows: synced, modified,
   unsynced.

   Examples:
     notionex export
     notionex export --format yaml --body
     notionex export --format markdown --out inventory.md`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, yaml, or markdown",
				Value:   string(export.FormatJSON),
			},
			&cli.BoolFlag{
				Name:  "body",
				Usage: "Include document bodies (json and yaml only)",
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "Disable JSON indentation",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "File to write (default stdout)",
			},
		},
		Action: runExport,
	}
}

func runExport(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	docs, err := newStore(cfg).Discover()
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out := cmd.String("out"); out != "" {
		f, err := os.Create(out) // #nosec G304 - user-chosen output path
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		w = f
	}

	exporter := export.New(export.Options{
		Format:      format,
		Pretty:      !cmd.Bool("compact"),
		IncludeBody: cmd.Bool("body"),
	})
	return exporter.Export(docs, w)
}
