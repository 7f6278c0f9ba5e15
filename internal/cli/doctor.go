package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/doctor"
	"github.com/matthewsinclair/arca-notionex/internal/ui"
)

func doctorCommand() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "Diagnose the workspace setup",
		Description: `Probe everything a sync needs before it runs: where the configuration
   resolves from, whether the docs directory holds readable documents,
   and whether the API credentials are in place. With --remote the root
   page is also fetched to prove the token works.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Also fetch the root page to verify access",
			},
		},
		Action: runDoctor,
	}
}

func runDoctor(ctx context.Context, cmd *cli.Command) error {
	opts := doctor.Options{Ping: cmd.Bool("remote")}
	if opts.Ping {
		if cfg, err := config.Load(); err == nil && strings.TrimSpace(cfg.Remote.Token) != "" {
			if remote, err := newRemote(cfg); err == nil {
				opts.Client = remote
			}
		}
	}

	fails := 0
	for _, f := range doctor.Run(ctx, opts) {
		fmt.Println(doctorLine(f))
		if f.Status == doctor.StatusFail {
			fails++
		}
	}
	if fails > 0 {
		return fmt.Errorf("%d problem(s) found", fails)
	}
	fmt.Println("No problems found")
	return nil
}

// doctorLine renders one finding with its status symbol and, when the
// probe tracked provenance, the source tag.
func doctorLine(f doctor.Finding) string {
	msg := fmt.Sprintf("%-15s %s", f.Name, f.Detail)
	if f.Source != "" {
		msg = fmt.Sprintf("%s [%s]", msg, f.Source)
	}
	switch f.Status {
	case doctor.StatusOK:
		return ui.StatusSuccess(msg)
	case doctor.StatusWarn:
		return ui.StatusWarning(msg)
	case doctor.StatusSkip:
		return ui.StatusSkipped(msg)
	default:
		return ui.StatusError(msg)
	}
}
