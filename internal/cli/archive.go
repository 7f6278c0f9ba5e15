package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/archive"
	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/ui"
)

func archiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "archive",
		Usage: "Bundle the docs tree into a portable archive, or restore one",
		Description: `Package the documents under docs.dir into a tar.gz archive with a
   manifest, or extract such an archive back into a directory. Archives
   keep the sync headers so an extracted tree stays linked to its remote
   pages; --strip-headers produces plain markdown for sharing instead.`,
		Commands: []*cli.Command{
			archiveCreateCommand(),
			archiveExtractCommand(),
		},
	}
}

func archiveCreateCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Write the docs tree to a tar.gz archive",
		UsageText: "notionex archive create [options]",
		Description: `Bundle every discovered document into an archive. Filters narrow the
   set: --linked-only keeps documents that already have a remote page,
   --since and --before select by modification date.

   Examples:
     notionex archive create
     notionex archive create --out handover.tar.gz --linked-only
     notionex archive create --since 2026-01-01 --strip-headers`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Archive file to write (default docs-<timestamp>.tar.gz)",
			},
			&cli.BoolFlag{
				Name:  "linked-only",
				Usage: "Only include documents linked to a remote page",
			},
			&cli.BoolFlag{
				Name:  "strip-headers",
				Usage: "Drop the metadata headers from archived documents",
			},
			&cli.StringFlag{
				Name:  "since",
				Usage: "Only include documents modified on or after this date (YYYY-MM-DD)",
			},
			&cli.StringFlag{
				Name:  "before",
				Usage: "Only include documents modified before this date (YYYY-MM-DD)",
			},
		},
		Action: runArchiveCreate,
	}
}

func archiveExtractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Restore documents from a tar.gz archive",
		UsageText: "notionex archive extract [options] <archive>",
		ArgsUsage: "<archive>",
		Description: `Unpack an archive into a directory, docs.dir when --into is not
   given. Existing files are left alone unless --overwrite is set.

   Examples:
     notionex archive extract handover.tar.gz
     notionex archive extract --into /tmp/docs --dry-run handover.tar.gz`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "into",
				Usage: "Directory to extract into (default the configured docs directory)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List the archive contents without writing anything",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Replace existing files",
			},
		},
		Action: runArchiveExtract,
	}
}

func runArchiveCreate(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	docs, err := newStore(cfg).Discover()
	if err != nil {
		return err
	}

	opts := archive.CreateOptions{
		LinkedOnly:   cmd.Bool("linked-only"),
		StripHeaders: cmd.Bool("strip-headers"),
	}
	if opts.Since, err = parseDateFlag(cmd, "since"); err != nil {
		return err
	}
	if opts.Before, err = parseDateFlag(cmd, "before"); err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "" {
		out = fmt.Sprintf("docs-%s.tar.gz", time.Now().Format("20060102-150405"))
	}
	if _, err := os.Stat(out); err == nil {
		return fmt.Errorf("%s already exists", out)
	}

	f, err := os.Create(out) // #nosec G304 - user-chosen output path
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	manifest, err := archive.Create(docs, f, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out)
		return err
	}

	fmt.Println(ui.StatusSuccess(fmt.Sprintf("Archived %d document(s) to %s", manifest.DocumentCount, out)))
	return nil
}

func runArchiveExtract(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one archive path, got %d", cmd.Args().Len())
	}

	target := cmd.String("into")
	if target == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		target = cfg.Docs.Dir
	}

	f, err := os.Open(cmd.Args().First()) // #nosec G304 - user-chosen archive path
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	dryRun := cmd.Bool("dry-run")
	paths, manifest, err := archive.Extract(f, archive.ExtractOptions{
		TargetDir: target,
		DryRun:    dryRun,
		Overwrite: cmd.Bool("overwrite"),
	})
	if err != nil {
		return err
	}

	for _, p := range paths {
		if dryRun {
			fmt.Printf("  %s\n", p)
		} else {
			fmt.Println(ui.StatusSuccess("extracted " + p))
		}
	}

	if dryRun {
		fmt.Printf("%d document(s) in archive created %s\n",
			len(paths), manifest.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Println("Dry run - no changes made")
		return nil
	}
	fmt.Printf("Extracted %d document(s) into %s\n", len(paths), target)
	return nil
}

// parseDateFlag reads a YYYY-MM-DD flag value, zero when unset.
func parseDateFlag(cmd *cli.Command, name string) (time.Time, error) {
	v := cmd.String(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q, want YYYY-MM-DD", name, v)
	}
	return t, nil
}
