package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/progress"
	"github.com/matthewsinclair/arca-notionex/internal/sync"
	"github.com/matthewsinclair/arca-notionex/internal/ui"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Push local markdown documents to the remote workspace",
		UsageText: "notionex sync [options]",
		Description: `Convert every markdown document under the docs directory to blocks
   and create or update the matching remote pages. Documents whose
   content is unchanged since the last sync are skipped.

   Examples:
     notionex sync
     notionex sync --dry-run
     notionex sync --no-links`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Preview changes without touching the remote",
			},
			&cli.BoolFlag{
				Name:  "no-links",
				Usage: "Keep cross-document links as plain text instead of resolving them",
			},
			&cli.BoolFlag{
				Name:  "skip-child-links",
				Usage: "Leave links to documents in subdirectories unresolved",
			},
			&cli.BoolFlag{
				Name:  "no-scan",
				Usage: "Skip the credential scan that blocks pushing secrets",
			},
		},
		Action: runSync,
	}
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	remote, err := newRemote(cfg)
	if err != nil {
		return err
	}

	opts := sync.Options{
		RootPageID:     cfg.Remote.RootPageID,
		ResolveLinks:   cfg.Sync.ResolveLinks,
		SkipChildLinks: cfg.Sync.SkipChildLinks,
		ScanSecrets:    cfg.Sync.ScanSecrets,
		DryRun:         cmd.Bool("dry-run"),
		Progress:       progress.Reporter("Syncing"),
	}
	if cmd.Bool("no-links") {
		opts.ResolveLinks = false
	}
	if cmd.Bool("skip-child-links") {
		opts.SkipChildLinks = true
	}
	if cmd.Bool("no-scan") {
		opts.ScanSecrets = false
	}

	syncer := sync.NewSyncer(newStore(cfg), remote, opts)
	result, err := syncer.Sync(ctx)
	if err != nil {
		return err
	}

	printDocResults(result.Docs)
	fmt.Print(result.Summary())

	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d document(s) failed", len(failed))
	}
	return nil
}

// printDocResults prints one status line per document that changed state
// or failed; skipped documents stay quiet.
func printDocResults(docs []sync.DocResult) {
	for _, doc := range docs {
		name := doc.Path
		if name == "" {
			name = doc.PageID
		}
		switch doc.Action {
		case sync.ActionCreated:
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("created  %s", name)))
		case sync.ActionUpdated:
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("updated  %s", name)))
		case sync.ActionConflict:
			fmt.Println(ui.StatusConflict(fmt.Sprintf("conflict %s", name)))
		case sync.ActionFailed:
			fmt.Println(ui.StatusError(fmt.Sprintf("failed   %s: %v", name, doc.Error)))
		}
	}
}
