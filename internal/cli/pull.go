package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/matthewsinclair/arca-notionex/internal/backup"
	"github.com/matthewsinclair/arca-notionex/internal/progress"
	"github.com/matthewsinclair/arca-notionex/internal/sync"
	"github.com/matthewsinclair/arca-notionex/internal/ui/tui"
)

// backupKeep is how many snapshots survive the automatic prune after a
// successful pull.
const backupKeep = 10

func pullCommand() *cli.Command {
	return &cli.Command{
		Name:      "pull",
		Usage:     "Write remote page content back into the local documents",
		UsageText: "notionex pull [options]",
		Description: `Fetch remote pages and convert them back to markdown. The scope
   picks which pages: linked_only (default) refreshes pages already
   linked to a local document, all_children walks everything under the
   root page, explicit_list pulls the ids given with --page.

   Conflicting edits are decided by the strategy (local_wins,
   remote_wins, newest_wins, manual). Under manual, undecided documents
   are reported and left untouched; add --review to decide
   interactively.

   Examples:
     notionex pull
     notionex pull --scope all_children
     notionex pull --page 0123abcd4567ef89 --page 89fe7654dcba3210
     notionex pull --strategy newest_wins --dry-run`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "scope",
				Usage: "Which pages to pull: linked_only, all_children, explicit_list",
				Value: string(sync.DefaultScope),
			},
			&cli.StringSliceFlag{
				Name:  "page",
				Usage: "Pull this page id (repeatable, implies --scope explicit_list)",
			},
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "Conflict strategy: local_wins, remote_wins, newest_wins, manual",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Preview changes without writing any files",
			},
			&cli.BoolFlag{
				Name:  "review",
				Usage: "Review conflicts interactively before writing",
			},
			&cli.BoolFlag{
				Name:  "skip-backup",
				Usage: "Skip the automatic snapshot before overwriting documents",
			},
			&cli.BoolFlag{
				Name:  "preserve-metadata",
				Usage: "Embed annotation sentinels so formatting survives a round trip",
			},
		},
		Action: runPull,
	}
}

func runPull(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scope := sync.Scope(cmd.String("scope"))
	pages := cmd.StringSlice("page")
	if len(pages) > 0 {
		scope = sync.ScopeExplicit
	}
	if !scope.IsValid() {
		return fmt.Errorf("invalid scope %q (valid: linked_only, all_children, explicit_list)", cmd.String("scope"))
	}

	strategy := cfg.GetStrategy()
	if s := cmd.String("strategy"); s != "" {
		strategy = sync.Strategy(s)
		if !strategy.IsValid() {
			return fmt.Errorf("invalid strategy %q (valid: local_wins, remote_wins, newest_wins, manual)", s)
		}
	}

	remote, err := newRemote(cfg)
	if err != nil {
		return err
	}

	opts := sync.PullOptions{
		Scope:            scope,
		PageIDs:          pages,
		RootPageID:       cfg.Remote.RootPageID,
		Strategy:         strategy,
		PreserveMetadata: cfg.Sync.PreserveMetadata || cmd.Bool("preserve-metadata"),
		DryRun:           cmd.Bool("dry-run"),
		Progress:         progress.Reporter("Pulling"),
	}
	if cmd.Bool("review") {
		opts.Review = reviewConflicts
	}

	var snapshots *backup.Manager
	if cfg.Sync.Backup && !cmd.Bool("skip-backup") && !opts.DryRun {
		snapshots = backup.NewManager(cfg.Docs.Dir)
		opts.Backup = snapshotFunc(snapshots)
	}

	puller := sync.NewPuller(newStore(cfg), remote, opts)
	result, err := puller.Pull(ctx)
	if err != nil {
		return err
	}

	if snapshots != nil {
		if _, err := snapshots.Prune(backupKeep); err != nil {
			fmt.Printf("Warning: snapshot prune failed: %v\n", err)
		}
	}

	printDocResults(result.Docs)
	fmt.Print(result.Summary())

	if result.HasConflicts() {
		return fmt.Errorf("%d document(s) need a conflict decision (rerun with --review or --strategy)", len(result.Conflicts()))
	}
	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d document(s) failed", len(failed))
	}
	return nil
}

// snapshotFunc adapts the backup manager to the pull hook. Snapshots
// cover only the documents about to be overwritten.
func snapshotFunc(mgr *backup.Manager) sync.BackupFunc {
	return func(paths []string) error {
		snap, err := mgr.Create(paths, "pull")
		if err != nil {
			return err
		}
		if snap != nil {
			fmt.Printf("Snapshot %s covers %d document(s)\n", snap.ID, len(snap.Paths))
		}
		return nil
	}
}

// reviewConflicts is the interactive conflict review callback. A real
// terminal gets the full-screen review; everything else falls back to
// numbered prompts on stdin.
func reviewConflicts(entries []sync.ConflictEntry) map[string]sync.Strategy {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		res, err := tui.RunConflictReview(entries)
		if err != nil {
			fmt.Printf("Warning: conflict review failed: %v\n", err)
			return nil
		}
		if res.Action != tui.ReviewActionApply {
			return nil
		}
		return res.Resolutions
	}
	return newConflictPrompter(os.Stdin).resolveAll(entries)
}
