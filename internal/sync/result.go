package sync

import (
	"fmt"
	"strings"
)

// Action identifies what happened to a document during a run.
type Action string

const (
	// ActionCreated means a remote page or local document was created.
	ActionCreated Action = "created"

	// ActionUpdated means existing content was replaced.
	ActionUpdated Action = "updated"

	// ActionSkipped means the document needed no work.
	ActionSkipped Action = "skipped"

	// ActionFailed means the document could not be processed.
	ActionFailed Action = "failed"

	// ActionConflict means the document needs a manual decision.
	ActionConflict Action = "conflict"
)

// DocResult records the outcome for a single document.
type DocResult struct {
	Path    string
	Title   string
	PageID  string
	Action  Action
	Message string
	Error   error
	// Conflict is set when Action is ActionConflict.
	Conflict *ConflictEntry
}

// Success reports whether the document was handled without error.
func (r DocResult) Success() bool {
	return r.Action != ActionFailed
}

// Result aggregates per-document outcomes of a push run.
type Result struct {
	DryRun bool
	// Passes is 2 when link resolution required a second pass over the
	// documents, 1 otherwise.
	Passes int
	Docs   []DocResult
}

// Created returns the documents that got a new remote page.
func (r *Result) Created() []DocResult {
	return filterDocs(r.Docs, ActionCreated)
}

// Updated returns the documents whose remote page was rewritten.
func (r *Result) Updated() []DocResult {
	return filterDocs(r.Docs, ActionUpdated)
}

// Skipped returns the documents that needed no work.
func (r *Result) Skipped() []DocResult {
	return filterDocs(r.Docs, ActionSkipped)
}

// Failed returns the documents that could not be processed.
func (r *Result) Failed() []DocResult {
	return filterDocs(r.Docs, ActionFailed)
}

// Success reports whether the run completed without per-document
// failures.
func (r *Result) Success() bool {
	return len(r.Failed()) == 0
}

// TotalProcessed returns the number of recorded outcomes.
func (r *Result) TotalProcessed() int {
	return len(r.Docs)
}

// TotalChanged returns the number of documents that changed remote
// state.
func (r *Result) TotalChanged() int {
	return len(r.Created()) + len(r.Updated())
}

// Summary returns a human-readable account of the run.
func (r *Result) Summary() string {
	var b strings.Builder
	if r.DryRun {
		b.WriteString("Dry run - no changes made\n")
	}
	fmt.Fprintf(&b, "Processed %d documents: %d created, %d updated, %d skipped, %d failed\n",
		r.TotalProcessed(), len(r.Created()), len(r.Updated()), len(r.Skipped()), len(r.Failed()))
	if r.Passes > 1 {
		b.WriteString("Link resolution ran as a second pass\n")
	}
	if failed := r.Failed(); len(failed) > 0 {
		b.WriteString("\nErrors:\n")
		for _, d := range failed {
			fmt.Fprintf(&b, "  - %s: %v\n", d.Path, d.Error)
		}
	}
	return b.String()
}

// PullResult aggregates per-document outcomes of a pull run.
type PullResult struct {
	Scope    Scope
	Strategy Strategy
	DryRun   bool
	Docs     []DocResult
}

// Created returns the pages written to new local documents.
func (r *PullResult) Created() []DocResult {
	return filterDocs(r.Docs, ActionCreated)
}

// Updated returns the pages written over existing documents.
func (r *PullResult) Updated() []DocResult {
	return filterDocs(r.Docs, ActionUpdated)
}

// Skipped returns the pages left alone.
func (r *PullResult) Skipped() []DocResult {
	return filterDocs(r.Docs, ActionSkipped)
}

// Failed returns the pages that could not be pulled.
func (r *PullResult) Failed() []DocResult {
	return filterDocs(r.Docs, ActionFailed)
}

// Conflicts returns the pages awaiting a manual decision.
func (r *PullResult) Conflicts() []DocResult {
	return filterDocs(r.Docs, ActionConflict)
}

// HasConflicts reports whether any page needs a manual decision.
func (r *PullResult) HasConflicts() bool {
	return len(r.Conflicts()) > 0
}

// Success reports whether the run completed without per-page failures.
func (r *PullResult) Success() bool {
	return len(r.Failed()) == 0
}

// TotalProcessed returns the number of recorded outcomes.
func (r *PullResult) TotalProcessed() int {
	return len(r.Docs)
}

// Summary returns a human-readable account of the run.
func (r *PullResult) Summary() string {
	var b strings.Builder
	if r.DryRun {
		b.WriteString("Dry run - no changes made\n")
	}
	fmt.Fprintf(&b, "Pulled %d pages: %d created, %d updated, %d skipped, %d conflicts, %d failed\n",
		r.TotalProcessed(), len(r.Created()), len(r.Updated()), len(r.Skipped()), len(r.Conflicts()), len(r.Failed()))
	if conflicts := r.Conflicts(); len(conflicts) > 0 {
		b.WriteString("\nConflicts:\n")
		for _, d := range conflicts {
			fmt.Fprintf(&b, "  - %s\n", d.Conflict.Summary())
		}
	}
	if failed := r.Failed(); len(failed) > 0 {
		b.WriteString("\nErrors:\n")
		for _, d := range failed {
			name := d.Path
			if name == "" {
				name = d.PageID
			}
			fmt.Fprintf(&b, "  - %s: %v\n", name, d.Error)
		}
	}
	return b.String()
}

func filterDocs(docs []DocResult, action Action) []DocResult {
	var out []DocResult
	for _, d := range docs {
		if d.Action == action {
			out = append(out, d)
		}
	}
	return out
}
