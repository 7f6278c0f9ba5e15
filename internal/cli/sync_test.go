package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matthewsinclair/arca-notionex/internal/sync"
)

func TestSyncCommandRequiresToken(t *testing.T) {
	writeTestConfig(t, "remote:\n  root_page_id: root123\n")

	err := Run(context.Background(), []string{"notionex", "sync"})
	if err == nil {
		t.Fatal("sync without a token should fail")
	}
	if !strings.Contains(err.Error(), "remote.token") {
		t.Errorf("error = %v, want it to name remote.token", err)
	}
}

func TestSyncCommandRequiresRootPage(t *testing.T) {
	writeTestConfig(t, "docs:\n  dir: .\n")
	t.Setenv("NOTIONEX_TOKEN", "secret_token_value")

	err := Run(context.Background(), []string{"notionex", "sync"})
	if err == nil {
		t.Fatal("sync without a root page should fail")
	}
	if !strings.Contains(err.Error(), "remote.root_page_id") {
		t.Errorf("error = %v, want it to name remote.root_page_id", err)
	}
}

func TestSyncCommandDefinition(t *testing.T) {
	cmd := syncCommand()

	if cmd.Name != "sync" {
		t.Errorf("command name = %q, want %q", cmd.Name, "sync")
	}
	if cmd.Action == nil {
		t.Error("command should have an action function")
	}

	names := make(map[string]bool)
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			names[n] = true
		}
	}
	for _, want := range []string{"dry-run", "d", "no-links", "skip-child-links"} {
		if !names[want] {
			t.Errorf("sync command missing flag %q", want)
		}
	}
}

func TestPrintDocResults(t *testing.T) {
	docs := []sync.DocResult{
		{Path: "guide.md", Action: sync.ActionCreated},
		{Path: "api.md", Action: sync.ActionUpdated},
		{Path: "notes.md", Action: sync.ActionSkipped},
		{Path: "broken.md", Action: sync.ActionFailed, Error: errors.New("boom")},
		{PageID: "page999", Action: sync.ActionFailed, Error: errors.New("no path")},
	}

	output := captureOutput(t, func() {
		printDocResults(docs)
	})

	for _, want := range []string{
		"created  guide.md",
		"updated  api.md",
		"failed   broken.md: boom",
		"failed   page999: no path",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "notes.md") {
		t.Errorf("skipped documents should stay quiet:\n%s", output)
	}
}
