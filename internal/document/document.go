package document

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is the record for one local document: its header metadata,
// body, and filesystem facts needed for conflict detection. The remote
// id, content hash, and sync timestamp change only after a successful
// create or update against the remote store; this layer never deletes
// documents.
type Document struct {
	// Path is the slash-separated path relative to the store root.
	Path string
	// Title is the explicit title from the header, empty when unset.
	Title string
	// RemoteID is the remote page id, empty for never-synced documents.
	RemoteID string
	// LastSync is the last successful sync time, nil before first sync.
	LastSync *time.Time
	// ContentHash is the body digest recorded at last sync.
	ContentHash string
	// Body is everything after the header delimiter pair.
	Body string
	// ModTime is the file's modification time when loaded.
	ModTime time.Time
	// Index marks the document as its directory's index document.
	Index bool
}

// Header projects the document's persisted metadata.
func (d *Document) Header() Header {
	return Header{
		Title:       d.Title,
		RemoteID:    d.RemoteID,
		LastSync:    d.LastSync,
		ContentHash: d.ContentHash,
	}
}

// EffectiveTitle returns the explicit title when set, otherwise the
// path-derived title.
func (d *Document) EffectiveTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return deriveTitle(d.Path, d.Index)
}

// Dirty reports whether the body has changed since the recorded hash, or
// no hash is recorded yet.
func (d *Document) Dirty() bool {
	return d.ContentHash == "" || d.ContentHash != HashBody(d.Body)
}

// MarkSynced records a successful remote sync: id, fresh body hash, and
// timestamp.
func (d *Document) MarkSynced(remoteID string, at time.Time) {
	d.RemoteID = remoteID
	d.ContentHash = HashBody(d.Body)
	d.LastSync = &at
}

// HashBody returns the algorithm-tagged digest of body text. Hashing
// covers the raw body, not converted blocks, so conversion-only changes
// (such as link resolution) never force a remote update.
func HashBody(body string) string {
	sum := sha256.Sum256([]byte(body))
	return "sha256:" + hex.EncodeToString(sum[:])
}
