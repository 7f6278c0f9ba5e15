package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/backup"
	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/ui"
)

func backupsCommand() *cli.Command {
	return &cli.Command{
		Name:  "backups",
		Usage: "List, restore, and prune the pre-pull snapshots",
		Description: `A pull snapshots every document it is about to overwrite into
   .notionex/backups under the docs directory. These subcommands inspect
   that area, put a snapshot's documents back, or thin out old entries.`,
		Commands: []*cli.Command{
			backupsListCommand(),
			backupsRestoreCommand(),
			backupsPruneCommand(),
		},
	}
}

func backupsListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "Show the stored snapshots, newest first",
		Action: runBackupsList,
	}
}

func backupsRestoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Copy a snapshot's documents back into the docs directory",
		UsageText: "notionex backups restore <snapshot-id>",
		ArgsUsage: "<snapshot-id>",
		Description: `Overwrite the current documents with the copies held in the named
   snapshot. Documents not covered by the snapshot are left alone.

   Example:
     notionex backups restore 20260214-093000`,
		Action: runBackupsRestore,
	}
}

func backupsPruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete all but the newest snapshots",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "keep",
				Usage: "How many snapshots to keep",
				Value: backupKeep,
			},
		},
		Action: runBackupsPrune,
	}
}

func runBackupsList(_ context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mgr := backup.NewManager(cfg.Docs.Dir)
	snaps, err := mgr.List()
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Println("No snapshots found")
		return nil
	}

	for _, snap := range snaps {
		label := snap.Label
		if label == "" {
			label = "-"
		}
		fmt.Printf("%-20s  %s  %-6s  %d document(s)\n",
			snap.ID, snap.CreatedAt.Format("2006-01-02 15:04"), label, len(snap.Paths))
	}
	fmt.Printf("\n%d snapshot(s) in %s\n", len(snaps), mgr.Dir())
	return nil
}

func runBackupsRestore(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one snapshot id, got %d", cmd.Args().Len())
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	id := cmd.Args().First()
	restored, err := backup.NewManager(cfg.Docs.Dir).Restore(id)
	if err != nil {
		return err
	}

	for _, rel := range restored {
		fmt.Println(ui.StatusSuccess("restored " + rel))
	}
	fmt.Printf("Restored %d document(s) from %s\n", len(restored), id)
	return nil
}

func runBackupsPrune(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	keep := cmd.Int("keep")
	if keep <= 0 {
		return fmt.Errorf("--keep must be positive, got %d", keep)
	}

	pruned, err := backup.NewManager(cfg.Docs.Dir).Prune(int(keep))
	if err != nil {
		return err
	}
	if len(pruned) == 0 {
		fmt.Println("Nothing to prune")
		return nil
	}

	for _, id := range pruned {
		fmt.Println(ui.StatusSkipped("removed " + id))
	}
	fmt.Printf("Pruned %d snapshot(s), kept the newest %d\n", len(pruned), keep)
	return nil
}
