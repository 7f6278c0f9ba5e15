package document

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matthewsinclair/arca-notionex/internal/logging"
	"github.com/matthewsinclair/arca-notionex/internal/util"
)

const (
	// Extension is the document file extension.
	Extension = ".md"
	// DefaultIndexFilename names the per-directory index document.
	DefaultIndexFilename = "index.md"
)

// Store reads and writes the document tree rooted at one directory.
type Store struct {
	// Root is the filesystem path of the docs tree.
	Root string
	// IndexFilename names the per-directory index document.
	IndexFilename string
}

// NewStore returns a store over the given root directory.
func NewStore(root string) *Store {
	return &Store{Root: root, IndexFilename: DefaultIndexFilename}
}

// Abs returns the filesystem path for a store-relative document path.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(util.NormalizePath(rel)))
}

// Exists reports whether a document exists at the store-relative path.
func (s *Store) Exists(rel string) bool {
	info, err := os.Stat(s.Abs(rel))
	return err == nil && !info.IsDir()
}

// Discover walks the tree and loads every document, sorted shallow-first:
// by depth, then directory, with each directory's index document ahead of
// its siblings. Files whose header fails to parse are skipped with a
// warning so one corrupt file cannot poison a whole run.
func (s *Store) Discover() ([]*Document, error) {
	if _, err := os.Stat(s.Root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat docs root %q: %w", s.Root, err)
	}

	var docs []*Document
	err := filepath.WalkDir(s.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != s.Root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, Extension) {
			return nil
		}

		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		doc, err := s.Load(filepath.ToSlash(rel))
		if err != nil {
			logging.Warn("skipping unreadable document",
				logging.Path(filepath.ToSlash(rel)),
				logging.Err(err))
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk docs tree: %w", err)
	}

	sortShallowFirst(docs)
	return docs, nil
}

// Load reads one document by store-relative path.
func (s *Store) Load(rel string) (*Document, error) {
	rel = util.NormalizePath(rel)
	abs := s.Abs(rel)

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document %q: %w", rel, err)
	}

	content, err := os.ReadFile(abs) // #nosec G304 - path is store-rooted
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", rel, err)
	}

	split := Split(content)
	header, err := ParseHeader(split.Header)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", rel, err)
	}

	return &Document{
		Path:        rel,
		Title:       header.Title,
		RemoteID:    header.RemoteID,
		LastSync:    header.LastSync,
		ContentHash: header.ContentHash,
		Body:        split.Body,
		ModTime:     info.ModTime(),
		Index:       util.BaseOf(rel) == s.IndexFilename,
	}, nil
}

// Write persists the document: header serialized from the record, body
// appended, whole file replaced in one write. Parent directories are
// created as needed. Synced documents keep their file mtime at the
// recorded sync point.
func (s *Store) Write(doc *Document) error {
	content, err := Compose(doc.Header(), doc.Body)
	if err != nil {
		return fmt.Errorf("document %q: %w", doc.Path, err)
	}

	abs := s.Abs(doc.Path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", doc.Path, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write document %q: %w", doc.Path, err)
	}
	if doc.LastSync != nil {
		// A header rewrite must not read as a local edit on the next
		// conflict check, so the mtime is pinned to the sync point.
		if err := os.Chtimes(abs, *doc.LastSync, *doc.LastSync); err != nil {
			return fmt.Errorf("failed to set times for %q: %w", doc.Path, err)
		}
		doc.ModTime = *doc.LastSync
	}

	logging.Debug("wrote document", logging.Path(doc.Path), logging.Page(doc.RemoteID))
	return nil
}

// sortShallowFirst orders documents by depth, then directory, with index
// documents ahead of their directory siblings, then by filename. The
// ordering guarantees ancestors are processed before descendants and a
// directory's page content (its index document) before the pages under it.
func sortShallowFirst(docs []*Document) {
	sort.Slice(docs, func(i, j int) bool {
		di, dj := docs[i], docs[j]
		depthI, depthJ := util.Depth(di.Path), util.Depth(dj.Path)
		if depthI != depthJ {
			return depthI < depthJ
		}
		dirI, dirJ := util.DirOf(di.Path), util.DirOf(dj.Path)
		if dirI != dirJ {
			return dirI < dirJ
		}
		if di.Index != dj.Index {
			return di.Index
		}
		return di.Path < dj.Path
	})
}
