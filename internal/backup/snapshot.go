// Package backup snapshots local documents before a pull overwrites them.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DirPerm is the permission for snapshot directories (rwxr-x---)
	DirPerm = 0o750
	// FilePerm is the permission for snapshot files (rw-r-----)
	FilePerm = 0o640

	// dirName is the snapshot area relative to the docs root. The dot
	// prefix keeps it out of document discovery.
	dirName = ".notionex/backups"

	// metaFilename is the manifest stored inside each snapshot directory.
	metaFilename = "snapshot.json"
)

// Snapshot records one pre-pull copy of a set of documents.
type Snapshot struct {
	// ID is the snapshot directory name, derived from creation time
	ID string `json:"id"`
	// Label names the operation that took the snapshot
	Label string `json:"label,omitempty"`
	// CreatedAt is the snapshot creation timestamp
	CreatedAt time.Time `json:"created_at"`
	// Paths lists the copied documents relative to the docs root
	Paths []string `json:"paths"`
}

func (s *Snapshot) writeManifest(dir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot manifest: %w", err)
	}
	// #nosec G306 - manifest is metadata and can be group-readable
	return os.WriteFile(filepath.Join(dir, metaFilename), data, FilePerm)
}

func readManifest(dir string) (*Snapshot, error) {
	// #nosec G304 - dir is inside the managed snapshot area
	data, err := os.ReadFile(filepath.Join(dir, metaFilename))
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot manifest: %w", err)
	}
	return &snap, nil
}
