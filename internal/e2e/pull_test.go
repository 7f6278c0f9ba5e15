package e2e

import (
	"strings"
	"testing"

	"github.com/matthewsinclair/arca-notionex/internal/backup"
)

// syncedWorkspace sets up a workspace with an index and guide document
// already pushed to the remote.
func syncedWorkspace(t *testing.T) (*workspace, string) {
	t.Helper()
	ws := newWorkspace(t)
	ws.write(t, "index.md", "# Welcome\n\nThe docs home.\n")
	ws.write(t, "guide.md", "# Guide\n\nGetting around.\n")
	if out, err := runCLI(t, "sync"); err != nil {
		t.Fatalf("setup sync failed: %v\n%s", err, out)
	}
	guideID := ws.fake.pageIDByTitle("Guide")
	if guideID == "" {
		t.Fatal("setup sync did not create the guide page")
	}
	return ws, guideID
}

func TestPullAppliesRemoteEdits(t *testing.T) {
	ws, guideID := syncedWorkspace(t)
	ws.fake.setParagraphs(guideID, "Fresh remote copy.")

	out, err := runCLI(t, "pull")
	if err != nil {
		t.Fatalf("pull failed: %v\n%s", err, out)
	}
	mustContain(t, out,
		"updated  guide.md",
		"covers 1 document(s)",
		"Pulled 2 pages: 0 created, 1 updated, 1 skipped, 0 conflicts, 0 failed",
	)
	if content := ws.read(t, "guide.md"); !strings.Contains(content, "Fresh remote copy.") {
		t.Errorf("guide.md = %q, want pulled content", content)
	}

	snaps, err := backup.NewManager(ws.docs).List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("List() = %d snapshots, want 1", len(snaps))
	}
	if snaps[0].Label != "pull" {
		t.Errorf("snapshot label = %q, want %q", snaps[0].Label, "pull")
	}

	// A second pull finds everything in sync.
	out, err = runCLI(t, "pull")
	if err != nil {
		t.Fatalf("second pull failed: %v\n%s", err, out)
	}
	mustContain(t, out, "Pulled 2 pages: 0 created, 0 updated, 2 skipped, 0 conflicts, 0 failed")
}

func TestPullCreatesDocumentForNewRemotePage(t *testing.T) {
	ws, _ := syncedWorkspace(t)
	relID := ws.fake.addPage(ws.root, "Release Notes")
	ws.fake.setParagraphs(relID, "Now with pull.")

	out, err := runCLI(t, "pull", "--scope", "all_children")
	if err != nil {
		t.Fatalf("pull failed: %v\n%s", err, out)
	}
	mustContain(t, out,
		"created  release-notes.md",
		"Pulled 2 pages: 1 created, 0 updated, 1 skipped, 0 conflicts, 0 failed",
	)

	if !ws.exists("release-notes.md") {
		t.Fatal("release-notes.md was not created")
	}
	content := ws.read(t, "release-notes.md")
	for _, want := range []string{"title: Release Notes", "remote_id: " + relID, "Now with pull."} {
		if !strings.Contains(content, want) {
			t.Errorf("release-notes.md missing %q:\n%s", want, content)
		}
	}
}

func TestPullPlacesRemoteSubtreeAsDirectory(t *testing.T) {
	ws, _ := syncedWorkspace(t)
	relID := ws.fake.addPage(ws.root, "Release Notes")
	ws.fake.setParagraphs(relID, "Every release, newest first.")
	logID := ws.fake.addPage(relID, "Changelog")
	ws.fake.setParagraphs(logID, "All the changes.")

	out, err := runCLI(t, "pull", "--scope", "all_children")
	if err != nil {
		t.Fatalf("pull failed: %v\n%s", err, out)
	}
	mustContain(t, out,
		"created  release-notes/index.md",
		"created  release-notes/changelog.md",
		"Pulled 3 pages: 2 created, 0 updated, 1 skipped, 0 conflicts, 0 failed",
	)

	index := ws.read(t, "release-notes/index.md")
	for _, want := range []string{"title: Release Notes", "Every release, newest first."} {
		if !strings.Contains(index, want) {
			t.Errorf("release-notes/index.md missing %q:\n%s", want, index)
		}
	}
	log := ws.read(t, "release-notes/changelog.md")
	for _, want := range []string{"title: Changelog", "remote_id: " + logID, "All the changes."} {
		if !strings.Contains(log, want) {
			t.Errorf("release-notes/changelog.md missing %q:\n%s", want, log)
		}
	}
}

func TestPullManualConflictLeavesFileAlone(t *testing.T) {
	ws, guideID := syncedWorkspace(t)

	edited := strings.Replace(ws.read(t, "guide.md"), "Getting around.", "Getting around. Local addition.", 1)
	ws.write(t, "guide.md", edited)
	ws.fake.setParagraphs(guideID, "Remote rewrite.")

	out, err := runCLI(t, "pull")
	if err == nil || !strings.Contains(err.Error(), "conflict decision") {
		t.Fatalf("pull error = %v, want conflict decision", err)
	}
	mustContain(t, out,
		"conflict guide.md",
		"both_modified",
		"Pulled 2 pages: 0 created, 0 updated, 1 skipped, 1 conflicts, 0 failed",
	)

	content := ws.read(t, "guide.md")
	if !strings.Contains(content, "Local addition.") {
		t.Error("conflicted pull lost the local edit")
	}
	if strings.Contains(content, "Remote rewrite.") {
		t.Error("conflicted pull overwrote the file")
	}
}

func TestPullStrategyRemoteWinsOverwrites(t *testing.T) {
	ws, guideID := syncedWorkspace(t)

	edited := strings.Replace(ws.read(t, "guide.md"), "Getting around.", "Getting around. Local addition.", 1)
	ws.write(t, "guide.md", edited)
	ws.fake.setParagraphs(guideID, "Remote rewrite.")

	out, err := runCLI(t, "pull", "--strategy", "remote_wins")
	if err != nil {
		t.Fatalf("pull failed: %v\n%s", err, out)
	}
	mustContain(t, out,
		"updated  guide.md",
		"Pulled 2 pages: 0 created, 2 updated, 0 skipped, 0 conflicts, 0 failed",
	)

	content := ws.read(t, "guide.md")
	if !strings.Contains(content, "Remote rewrite.") {
		t.Errorf("guide.md = %q, want remote content", content)
	}
	if strings.Contains(content, "Local addition.") {
		t.Error("remote_wins kept the local edit")
	}
}

func TestPullStrategyLocalWinsKeepsLocal(t *testing.T) {
	ws, guideID := syncedWorkspace(t)

	edited := strings.Replace(ws.read(t, "guide.md"), "Getting around.", "Getting around. Local addition.", 1)
	ws.write(t, "guide.md", edited)
	ws.fake.setParagraphs(guideID, "Remote rewrite.")

	out, err := runCLI(t, "pull", "--strategy", "local_wins")
	if err != nil {
		t.Fatalf("pull failed: %v\n%s", err, out)
	}
	mustContain(t, out, "Pulled 2 pages: 0 created, 0 updated, 2 skipped, 0 conflicts, 0 failed")

	if !strings.Contains(ws.read(t, "guide.md"), "Local addition.") {
		t.Error("local_wins lost the local edit")
	}
}

func TestPullDryRunWritesNothing(t *testing.T) {
	ws, guideID := syncedWorkspace(t)
	ws.fake.setParagraphs(guideID, "Fresh remote copy.")

	out, err := runCLI(t, "pull", "--dry-run")
	if err != nil {
		t.Fatalf("dry run failed: %v\n%s", err, out)
	}
	mustContain(t, out,
		"Dry run - no changes made",
		"updated  guide.md",
	)

	content := ws.read(t, "guide.md")
	if strings.Contains(content, "Fresh remote copy.") {
		t.Error("dry run rewrote the file")
	}
	if !strings.Contains(content, "Getting around.") {
		t.Errorf("guide.md = %q, want original content", content)
	}

	snaps, err := backup.NewManager(ws.docs).List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(snaps) != 0 {
		t.Errorf("dry run took %d snapshots", len(snaps))
	}
}

func TestPullReviewFallsBackToPromptOnClosedInput(t *testing.T) {
	ws, guideID := syncedWorkspace(t)

	edited := strings.Replace(ws.read(t, "guide.md"), "Getting around.", "Getting around. Local addition.", 1)
	ws.write(t, "guide.md", edited)
	ws.fake.setParagraphs(guideID, "Remote rewrite.")

	// Test stdin is not a terminal and yields EOF, so the numbered
	// prompter runs, gives up, and the conflict stands.
	out, err := runCLI(t, "pull", "--review")
	if err == nil || !strings.Contains(err.Error(), "conflict decision") {
		t.Fatalf("pull error = %v, want conflict decision", err)
	}
	mustContain(t, out,
		"=== Conflict Review ===",
		"Input closed",
		"conflict guide.md",
	)
	if !strings.Contains(ws.read(t, "guide.md"), "Local addition.") {
		t.Error("undecided conflict changed the file")
	}
}

func TestStatusReportsRemoteDivergence(t *testing.T) {
	ws, guideID := syncedWorkspace(t)
	ws.fake.setParagraphs(guideID, "Fresh remote copy.")

	out, err := runCLI(t, "status", "--remote")
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, out)
	}
	mustContain(t, out,
		"remote newer",
		"2 document(s): 2 synced, 0 modified, 0 never synced",
	)
}
