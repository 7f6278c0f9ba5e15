package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/graph"
	"github.com/matthewsinclair/arca-notionex/internal/security"
	"github.com/matthewsinclair/arca-notionex/internal/ui"
	"github.com/matthewsinclair/arca-notionex/internal/validation"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Lint the docs tree without touching the remote",
		Description: `Run the checks a sync would run, plus the link graph: duplicate or
   missing titles, credential-looking content, links that resolve to no
   document, and links whose target has no remote page yet. Nothing is
   pushed or pulled.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-scan",
				Usage: "Skip the credential scan",
			},
		},
		Action: runCheck,
	}
}

func runCheck(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	docs, err := newStore(cfg).Discover()
	if err != nil {
		return err
	}

	problems := 0

	vres := validation.CheckDocuments(docs)
	for _, w := range vres.Warnings {
		fmt.Println(ui.StatusWarning(w))
	}
	for _, e := range vres.Errors {
		problems++
		fmt.Println(ui.StatusError(e.Error()))
	}

	if cfg.Sync.ScanSecrets && !cmd.Bool("no-scan") {
		sres := security.ScanDocuments(docs)
		for _, w := range sres.Warnings {
			fmt.Println(ui.StatusWarning(w))
		}
		for _, e := range sres.Errors {
			problems++
			fmt.Println(ui.StatusError(e.Error()))
		}
	}

	report := graph.Check(docs)
	for _, l := range report.Broken {
		problems++
		fmt.Println(ui.StatusError(fmt.Sprintf("%s: link %s resolves to no document", l.From, l.Href)))
	}
	for _, l := range report.Unsynced {
		fmt.Println(ui.StatusWarning(fmt.Sprintf("%s: link %s targets %s, which has not been synced", l.From, l.Href, l.Target)))
	}

	fmt.Printf("Checked %d document(s), %d link(s)\n", len(docs), report.Links)
	if problems > 0 {
		return fmt.Errorf("%d problem(s) found", problems)
	}
	fmt.Println("No problems found")
	return nil
}
