// Package doctor runs pre-flight probes over the workspace and reports
// one finding per concern, from configuration resolution through remote
// reachability.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/matthewsinclair/arca-notionex/internal/config"
	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/model"
	"github.com/matthewsinclair/arca-notionex/internal/notion"
	"github.com/matthewsinclair/arca-notionex/internal/validation"
)

// Status classifies a probe outcome.
type Status string

const (
	// StatusOK means the probe passed.
	StatusOK Status = "ok"
	// StatusWarn means the probe found something worth a look that does
	// not block a sync.
	StatusWarn Status = "warn"
	// StatusFail means the probe found a problem that blocks a sync.
	StatusFail Status = "fail"
	// StatusSkip means the probe could not run, usually because an
	// earlier one failed.
	StatusSkip Status = "skip"
)

// Finding is one probe's outcome.
type Finding struct {
	// Name identifies the probe.
	Name string
	// Status classifies the outcome.
	Status Status
	// Detail describes what the probe saw.
	Detail string
	// Source records where a resolved value came from: "env", "file",
	// or "default". Probes that do not track provenance leave it empty.
	Source string
}

// Remote is the connector surface the reachability probe needs.
type Remote interface {
	GetPage(ctx context.Context, pageID string) (model.RemotePage, error)
}

// Options configures a checkup run.
type Options struct {
	// Ping requests the remote reachability probe.
	Ping bool
	// Client performs the reachability probe. With Ping set and no
	// client the probe reports as skipped.
	Client Remote
}

// Run probes the workspace and returns one finding per concern, in a
// stable order. A configuration that cannot be loaded ends the run
// after its own finding, since every later probe depends on it.
func Run(ctx context.Context, opts Options) []Finding {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return run(ctx, wd, opts)
}

func run(ctx context.Context, wd string, opts Options) []Finding {
	cfg, finding := probeConfig(wd)
	findings := []Finding{finding}
	if cfg == nil {
		return findings
	}

	dir := probeDocsDir(cfg)
	findings = append(findings, dir)
	if dir.Status == StatusOK {
		findings = append(findings, probeDocuments(cfg))
	} else {
		findings = append(findings, Finding{
			Name:   "documents",
			Status: StatusSkip,
			Detail: "docs directory unavailable",
		})
	}

	findings = append(findings, probeToken(cfg), probeRootPage(cfg), probeSettings(cfg))

	if opts.Ping {
		findings = append(findings, probePing(ctx, cfg, opts.Client))
	}
	return findings
}

// probeConfig resolves and loads the configuration, reporting where it
// came from.
func probeConfig(wd string) (*config.Config, Finding) {
	f := Finding{Name: "config", Status: StatusOK}

	path, source := configSource(wd)
	f.Source = source
	if source == "default" {
		cfg, err := config.LoadFrom(wd)
		if err != nil {
			f.Status = StatusFail
			f.Detail = err.Error()
			return nil, f
		}
		f.Detail = "no config file, using built-in defaults"
		return cfg, f
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		f.Status = StatusFail
		f.Detail = err.Error()
		return nil, f
	}
	f.Detail = path
	return cfg, f
}

// configSource mirrors the Load resolution order: the file named by
// NOTIONEX_CONFIG wins, then the nearest config file walking up from
// wd.
func configSource(wd string) (path, source string) {
	if path := os.Getenv("NOTIONEX_CONFIG"); path != "" {
		return path, "env"
	}
	if path, ok := config.FindConfigFrom(wd); ok {
		return path, "file"
	}
	return "", "default"
}

// probeDocsDir checks that the configured docs directory exists.
func probeDocsDir(cfg *config.Config) Finding {
	f := Finding{Name: "docs directory", Status: StatusOK, Detail: cfg.Docs.Dir}
	if os.Getenv("NOTIONEX_DOCS_DIR") != "" {
		f.Source = "env"
	}

	info, err := os.Stat(cfg.Docs.Dir)
	switch {
	case os.IsNotExist(err):
		f.Status = StatusFail
		f.Detail = fmt.Sprintf("%s does not exist", cfg.Docs.Dir)
	case err != nil:
		f.Status = StatusFail
		f.Detail = err.Error()
	case !info.IsDir():
		f.Status = StatusFail
		f.Detail = fmt.Sprintf("%s is not a directory", cfg.Docs.Dir)
	}
	return f
}

// probeDocuments walks the docs tree and counts what a sync would see.
func probeDocuments(cfg *config.Config) Finding {
	f := Finding{Name: "documents"}

	store := document.NewStore(cfg.Docs.Dir)
	if cfg.Docs.IndexFilename != "" {
		store.IndexFilename = cfg.Docs.IndexFilename
	}
	docs, err := store.Discover()
	if err != nil {
		f.Status = StatusFail
		f.Detail = err.Error()
		return f
	}
	if len(docs) == 0 {
		f.Status = StatusWarn
		f.Detail = "no documents found"
		return f
	}

	linked := 0
	for _, doc := range docs {
		if doc.RemoteID != "" {
			linked++
		}
	}
	f.Status = StatusOK
	f.Detail = fmt.Sprintf("%d document(s), %d linked to remote pages", len(docs), linked)
	return f
}

// probeToken reports whether an API token is in place and where it came
// from. The token value itself never appears in a finding.
func probeToken(cfg *config.Config) Finding {
	f := Finding{Name: "remote token"}
	switch {
	case strings.TrimSpace(os.Getenv("NOTIONEX_TOKEN")) != "":
		f.Status = StatusOK
		f.Source = "env"
		f.Detail = "set via NOTIONEX_TOKEN"
	case strings.TrimSpace(os.Getenv("NOTION_TOKEN")) != "":
		f.Status = StatusOK
		f.Source = "env"
		f.Detail = "set via NOTION_TOKEN"
	case strings.TrimSpace(cfg.Remote.Token) != "":
		f.Status = StatusOK
		f.Source = "file"
		f.Detail = "set in the config file"
	default:
		f.Status = StatusFail
		f.Detail = "not set (export NOTIONEX_TOKEN or set remote.token)"
	}
	return f
}

// probeRootPage reports whether the root page id is configured.
func probeRootPage(cfg *config.Config) Finding {
	f := Finding{Name: "root page"}

	id := strings.TrimSpace(cfg.Remote.RootPageID)
	if id == "" {
		f.Status = StatusFail
		f.Detail = "not set (export NOTIONEX_ROOT_PAGE_ID or set remote.root_page_id)"
		return f
	}

	f.Status = StatusOK
	f.Detail = id
	if os.Getenv("NOTIONEX_ROOT_PAGE_ID") != "" {
		f.Source = "env"
	} else {
		f.Source = "file"
	}
	return f
}

// probeSettings runs the validation a remote command would run, minus
// the token and root page checks that have probes of their own.
func probeSettings(cfg *config.Config) Finding {
	f := Finding{
		Name:   "settings",
		Status: StatusOK,
		Detail: fmt.Sprintf("strategy %s, rate limit %s", cfg.GetStrategy(), cfg.RateLimit()),
	}

	err := cfg.Validate()
	if err == nil {
		return f
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		f.Status = StatusFail
		f.Detail = err.Error()
		return f
	}
	for _, e := range errs {
		var ve *validation.Error
		if errors.As(e, &ve) && (ve.Field == "remote.token" || ve.Field == "remote.root_page_id") {
			continue
		}
		f.Status = StatusFail
		f.Detail = e.Error()
		return f
	}
	return f
}

// probePing fetches the root page to prove the token and the page share
// an integration.
func probePing(ctx context.Context, cfg *config.Config, client Remote) Finding {
	f := Finding{Name: "remote"}
	switch {
	case strings.TrimSpace(cfg.Remote.RootPageID) == "":
		f.Status = StatusSkip
		f.Detail = "root page id not set"
	case client == nil:
		f.Status = StatusSkip
		f.Detail = "remote token not set"
	default:
		page, err := client.GetPage(ctx, cfg.Remote.RootPageID)
		if err != nil {
			f.Status = StatusFail
			f.Detail = pingFailure(err)
			return f
		}
		f.Status = StatusOK
		f.Detail = fmt.Sprintf("root page %q reachable", page.Title)
	}
	return f
}

// pingFailure turns an API error into advice the user can act on.
func pingFailure(err error) string {
	switch notion.ReasonOf(err) {
	case notion.ReasonUnauthorized:
		return "token rejected by the remote API"
	case notion.ReasonForbidden:
		return "token lacks access to the root page"
	case notion.ReasonNotFound:
		return "root page not found or not shared with the integration"
	case notion.ReasonNetwork:
		return fmt.Sprintf("remote API unreachable: %v", err)
	default:
		return err.Error()
	}
}
