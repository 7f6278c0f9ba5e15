package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/template"
	"github.com/matthewsinclair/arca-notionex/internal/ui"
	"github.com/matthewsinclair/arca-notionex/internal/util"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a markdown document from a scaffold",
		UsageText: "notionex new [options] <path>",
		ArgsUsage: "<path>",
		Description: `Write a starter document into the docs directory. The path is
   relative to docs.dir and gains a .md extension when missing. Scaffolds
   carry no metadata header; the first sync adds one.

   Examples:
     notionex new guides/deploying
     notionex new --type reference api/errors.md
     notionex new guides/index.md --title "Guides"
     notionex new --scaffold runbook.tmpl incidents/ingest.md`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "Scaffold to use: guide, reference, or index",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Document title (derived from the path when omitted)",
			},
			&cli.StringFlag{
				Name:  "summary",
				Usage: "One-line summary placed under the title",
			},
			&cli.StringSliceFlag{
				Name:  "topic",
				Usage: "Topic listed in the document (repeatable)",
			},
			&cli.StringFlag{
				Name:  "scaffold",
				Usage: "Path to a custom scaffold template (overrides --type)",
			},
		},
		Action: runNew,
	}
}

func runNew(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one document path, got %d", cmd.Args().Len())
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rel := util.NormalizePath(cmd.Args().First())
	if rel == "" || strings.Contains(rel, "..") {
		return fmt.Errorf("invalid document path %q", cmd.Args().First())
	}
	if !strings.HasSuffix(rel, document.Extension) {
		rel += document.Extension
	}

	gen, err := template.New()
	if err != nil {
		return err
	}

	typ := template.Guide
	if util.BaseOf(rel) == cfg.Docs.IndexFilename {
		typ = template.Index
	}
	if s := cmd.String("type"); s != "" {
		typ, err = template.ParseDocType(s)
		if err != nil {
			return err
		}
	}
	if path := cmd.String("scaffold"); path != "" {
		if err := gen.LoadCustom("custom", path); err != nil {
			return err
		}
		typ = template.DocType("custom")
	}

	title := cmd.String("title")
	if title == "" {
		title = defaultTitle(rel, cfg.Docs.IndexFilename)
	}

	abs, err := gen.CreateFile(cfg.Docs.Dir, rel, typ, template.Data{
		Title:   title,
		Summary: cmd.String("summary"),
		Topics:  cmd.StringSlice("topic"),
		Date:    time.Now(),
	})
	if err != nil {
		return err
	}
	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Created %s", abs)))
	return nil
}

// defaultTitle mirrors how sync titles documents: an index takes its
// directory's name, anything else its filename stem.
func defaultTitle(rel, indexFilename string) string {
	if util.BaseOf(rel) == indexFilename {
		if dir := util.DirOf(rel); dir != "" {
			return document.TitleFromSegment(util.BaseOf(dir))
		}
	}
	return document.TitleFromSegment(strings.TrimSuffix(util.BaseOf(rel), document.Extension))
}
