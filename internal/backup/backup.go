package backup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/matthewsinclair/arca-notionex/internal/logging"
)

// Manager creates and prunes snapshots for one document tree.
type Manager struct {
	root string
}

// NewManager returns a Manager storing snapshots under
// <root>/.notionex/backups.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Dir returns the snapshot area for this manager.
func (m *Manager) Dir() string {
	return filepath.Join(m.root, dirName)
}

// Create copies the given documents, addressed relative to the docs
// root, into a fresh timestamped snapshot directory. An empty path list
// takes no snapshot and returns nil.
func (m *Manager) Create(paths []string, label string) (*Snapshot, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	id := m.nextID(time.Now().UTC())
	snapDir := filepath.Join(m.Dir(), id)

	snap := &Snapshot{
		ID:        id,
		Label:     label,
		CreatedAt: time.Now().UTC(),
		Paths:     make([]string, 0, len(paths)),
	}

	for _, rel := range paths {
		src := filepath.Join(m.root, filepath.FromSlash(rel))
		// #nosec G304 - src stays inside the docs root
		content, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("snapshot %q: %w", rel, err)
		}

		dst := filepath.Join(snapDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), DirPerm); err != nil {
			return nil, fmt.Errorf("snapshot %q: %w", rel, err)
		}
		if err := os.WriteFile(dst, content, FilePerm); err != nil {
			return nil, fmt.Errorf("snapshot %q: %w", rel, err)
		}
		snap.Paths = append(snap.Paths, rel)
	}

	if err := snap.writeManifest(snapDir); err != nil {
		return nil, err
	}

	logging.Debug("snapshot created",
		logging.Operation("backup"),
		slog.String("snapshot", id),
		logging.Count(len(snap.Paths)))

	return snap, nil
}

// nextID derives a directory name from the timestamp, suffixing a
// counter when two snapshots land in the same second.
func (m *Manager) nextID(now time.Time) string {
	base := now.Format("20060102-150405")
	id := base
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(m.Dir(), id)); os.IsNotExist(err) {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}
