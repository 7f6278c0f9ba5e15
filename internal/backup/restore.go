package backup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/matthewsinclair/arca-notionex/internal/logging"
)

// Restore copies a snapshot's documents back into the docs root,
// overwriting whatever is there now, and returns the restored paths.
func (m *Manager) Restore(id string) ([]string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("invalid snapshot id %q", id)
	}

	snapDir := filepath.Join(m.Dir(), id)
	snap, err := readManifest(snapDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no snapshot %q", id)
		}
		return nil, err
	}

	restored := make([]string, 0, len(snap.Paths))
	for _, rel := range snap.Paths {
		src := filepath.Join(snapDir, filepath.FromSlash(rel))
		// #nosec G304 - src stays inside the snapshot area
		content, err := os.ReadFile(src)
		if err != nil {
			return restored, fmt.Errorf("restore %q: %w", rel, err)
		}

		dst := filepath.Join(m.root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), DirPerm); err != nil {
			return restored, fmt.Errorf("restore %q: %w", rel, err)
		}
		// Documents go back with the store's permissions, not the
		// snapshot area's.
		if err := os.WriteFile(dst, content, 0o600); err != nil {
			return restored, fmt.Errorf("restore %q: %w", rel, err)
		}
		restored = append(restored, rel)
	}

	logging.Debug("snapshot restored",
		logging.Operation("backup"),
		slog.String("snapshot", id),
		logging.Count(len(restored)))

	return restored, nil
}
