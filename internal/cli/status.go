package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/notion"
	"github.com/matthewsinclair/arca-notionex/internal/sync"
	"github.com/matthewsinclair/arca-notionex/internal/ui"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the sync state of every local document",
		Description: `List the documents under the docs directory with their sync state:
   synced, modified since the last sync, or never synced. With --remote
   each linked page is also fetched and compared, which flags conflicts
   before a sync or pull runs.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Also compare against the remote pages",
			},
		},
		Action: runStatus,
	}
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var remote *notion.Client
	if cmd.Bool("remote") {
		if err := cfg.Validate(); err != nil {
			return err
		}
		remote, err = newRemote(cfg)
		if err != nil {
			return err
		}
	}

	docs, err := newStore(cfg).Discover()
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents found")
		return nil
	}

	var synced, modified, unsynced int
	for _, doc := range docs {
		switch {
		case doc.RemoteID == "":
			unsynced++
		case doc.Dirty():
			modified++
		default:
			synced++
		}
		fmt.Println(statusLine(ctx, doc, remote))
	}

	fmt.Printf("\n%d document(s): %d synced, %d modified, %d never synced\n",
		len(docs), synced, modified, unsynced)
	return nil
}

// statusLine renders one document's state. With a remote client the
// linked page is fetched so divergence shows up as a conflict state.
func statusLine(ctx context.Context, doc *document.Document, remote *notion.Client) string {
	name := fmt.Sprintf("%-44s", doc.Path)

	if doc.RemoteID == "" {
		return ui.StatusSkipped(name + " never synced")
	}

	local := "synced"
	if doc.Dirty() {
		local = "modified"
	}

	if remote == nil {
		if local == "modified" {
			return ui.StatusWarning(name + " " + local)
		}
		return ui.StatusSuccess(name + " " + local)
	}

	page, err := remote.GetPage(ctx, doc.RemoteID)
	if err != nil {
		if notion.ReasonOf(err) == notion.ReasonNotFound {
			return ui.StatusError(name + " remote page missing")
		}
		return ui.StatusError(fmt.Sprintf("%s remote check failed: %v", name, err))
	}

	switch sync.DetectStatus(doc, page) {
	case sync.StatusNoConflict:
		return ui.StatusSuccess(name + " synced")
	case sync.StatusLocalNewer:
		return ui.StatusWarning(name + " local newer")
	case sync.StatusRemoteNewer:
		return ui.StatusWarning(name + " remote newer")
	default:
		return ui.StatusConflict(name + " both modified")
	}
}
