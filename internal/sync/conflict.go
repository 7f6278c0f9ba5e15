package sync

import (
	"fmt"
	"time"

	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/model"
)

// ConflictStatus classifies the relationship between a local document
// and its remote page.
type ConflictStatus string

const (
	// StatusNoConflict means neither side changed since the last sync.
	StatusNoConflict ConflictStatus = "no_conflict"

	// StatusRemoteNewer means only the remote page changed.
	StatusRemoteNewer ConflictStatus = "remote_newer"

	// StatusLocalNewer means only the local document changed.
	StatusLocalNewer ConflictStatus = "local_newer"

	// StatusBothModified means both sides changed, or no sync point is
	// recorded to compare against.
	StatusBothModified ConflictStatus = "both_modified"

	// StatusNewPage means the page has no local counterpart.
	StatusNewPage ConflictStatus = "new_page"
)

// String returns the status name.
func (s ConflictStatus) String() string {
	return string(s)
}

// ResolutionAction is what a strategy decided to do with one page.
type ResolutionAction string

const (
	// ResolveSkip leaves the local document untouched.
	ResolveSkip ResolutionAction = "skip"

	// ResolveUpdate writes the remote content over the local document.
	ResolveUpdate ResolutionAction = "update"

	// ResolveConflict defers the call to the user.
	ResolveConflict ResolutionAction = "conflict"
)

// ConflictEntry describes a document whose local and remote sides have
// diverged, with the timestamps that led to that call.
type ConflictEntry struct {
	Path            string
	PageID          string
	Title           string
	Status          ConflictStatus
	LocalModifiedAt time.Time
	RemoteEditedAt  time.Time

	// Similarity is how much content the two sides still share, from 0
	// to 1. It is only computed for entries handed to a reviewer; zero
	// means no score.
	Similarity float64
}

// Summary formats the conflict for display.
func (e *ConflictEntry) Summary() string {
	name := e.Path
	if name == "" {
		name = e.Title
	}
	return fmt.Sprintf("%s: %s (local %s, remote %s)",
		name, e.Status,
		e.LocalModifiedAt.Format(time.RFC3339),
		e.RemoteEditedAt.Format(time.RFC3339))
}

// Decision carries a strategy's call for a single page.
type Decision struct {
	Action ResolutionAction
	Reason string
	// Entry is set when Action is ResolveConflict.
	Entry *ConflictEntry
}

// DetectStatus classifies how a remote page and its local counterpart
// have diverged since the last recorded sync. Each side is compared
// against the sync point independently; the two sides' timestamps are
// never compared to each other here.
func DetectStatus(local *document.Document, remote model.RemotePage) ConflictStatus {
	if local == nil {
		return StatusNewPage
	}
	if local.LastSync == nil {
		// Without a sync point there is no way to tell which side
		// moved, so assume both did.
		return StatusBothModified
	}

	remoteEdited := remote.LastEditedAt.After(*local.LastSync)
	localEdited := local.ModTime.After(*local.LastSync)
	switch {
	case remoteEdited && localEdited:
		return StatusBothModified
	case remoteEdited:
		return StatusRemoteNewer
	case localEdited:
		return StatusLocalNewer
	default:
		return StatusNoConflict
	}
}

// Resolve decides what to do with a page given its conflict status and
// the active strategy. Content is never merged; an update replaces the
// local document wholesale or not at all.
func Resolve(strategy Strategy, status ConflictStatus, local *document.Document, remote model.RemotePage) Decision {
	switch strategy {
	case StrategyLocalWins:
		return Decision{Action: ResolveSkip, Reason: "local wins"}
	case StrategyRemoteWins:
		return Decision{Action: ResolveUpdate, Reason: "remote wins"}
	case StrategyNewestWins:
		return resolveNewest(status, local, remote)
	default:
		return resolveManual(status, local, remote)
	}
}

func resolveNewest(status ConflictStatus, local *document.Document, remote model.RemotePage) Decision {
	switch status {
	case StatusNewPage:
		return Decision{Action: ResolveUpdate, Reason: "no local copy"}
	case StatusRemoteNewer:
		return Decision{Action: ResolveUpdate, Reason: "remote is newer"}
	case StatusLocalNewer:
		return Decision{Action: ResolveSkip, Reason: "local is newer"}
	case StatusBothModified:
		// Both sides moved since the sync point, so the tie break
		// compares them to each other.
		if remote.LastEditedAt.After(local.ModTime) {
			return Decision{Action: ResolveUpdate, Reason: "remote edit is newest"}
		}
		return Decision{Action: ResolveSkip, Reason: "local edit is newest"}
	default:
		return Decision{Action: ResolveSkip, Reason: "already in sync"}
	}
}

func resolveManual(status ConflictStatus, local *document.Document, remote model.RemotePage) Decision {
	switch status {
	case StatusNewPage:
		return Decision{Action: ResolveUpdate, Reason: "no local copy"}
	case StatusRemoteNewer:
		return Decision{Action: ResolveUpdate, Reason: "remote is newer"}
	case StatusLocalNewer, StatusBothModified:
		return Decision{
			Action: ResolveConflict,
			Reason: "needs review",
			Entry:  newConflictEntry(local, remote, status),
		}
	default:
		return Decision{Action: ResolveSkip, Reason: "already in sync"}
	}
}

func newConflictEntry(local *document.Document, remote model.RemotePage, status ConflictStatus) *ConflictEntry {
	entry := &ConflictEntry{
		PageID:         remote.ID,
		Title:          remote.Title,
		Status:         status,
		RemoteEditedAt: remote.LastEditedAt,
	}
	if local != nil {
		entry.Path = local.Path
		entry.LocalModifiedAt = local.ModTime
		if entry.Title == "" {
			entry.Title = local.EffectiveTitle()
		}
	}
	return entry
}
