package backup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/matthewsinclair/arca-notionex/internal/logging"
)

// List returns all snapshots, newest first.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	snaps := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		snap, err := readManifest(filepath.Join(m.Dir(), entry.Name()))
		if err != nil {
			// A directory without a readable manifest is not ours to
			// manage.
			logging.Debug("skipping snapshot without manifest",
				logging.Operation("backup"),
				slog.String("snapshot", entry.Name()))
			continue
		}
		snaps = append(snaps, *snap)
	}

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID > snaps[j].ID
		}
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})
	return snaps, nil
}

// Prune deletes all but the newest keep snapshots and returns the ids
// it removed. A keep of zero or less keeps everything.
func (m *Manager) Prune(keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}

	snaps, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(snaps) <= keep {
		return nil, nil
	}

	var pruned []string
	for _, snap := range snaps[keep:] {
		if err := os.RemoveAll(filepath.Join(m.Dir(), snap.ID)); err != nil {
			return pruned, fmt.Errorf("prune snapshot %q: %w", snap.ID, err)
		}
		pruned = append(pruned, snap.ID)
	}

	logging.Debug("snapshots pruned",
		logging.Operation("backup"),
		logging.Count(len(pruned)))
	return pruned, nil
}
