// Package archive bundles a docs tree into a portable tar.gz with a
// manifest, and restores one. Archives carry the documents as they sit
// on disk, so an extracted tree can keep syncing against the same
// remote pages.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/matthewsinclair/arca-notionex/internal/document"
)

const manifestName = "manifest.json"

// docPrefix is the directory documents live under inside the archive.
const docPrefix = "docs/"

// Manifest describes an archive's contents.
type Manifest struct {
	Version       string        `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	DocumentCount int           `json:"document_count"`
	Documents     []ManifestDoc `json:"documents"`
}

// ManifestDoc is one document entry in the manifest.
type ManifestDoc struct {
	Path     string     `json:"path"`
	Title    string     `json:"title"`
	RemoteID string     `json:"remote_id,omitempty"`
	SyncedAt *time.Time `json:"synced_at,omitempty"`
	Size     int64      `json:"size"`
}

// CreateOptions filters and shapes archive creation.
type CreateOptions struct {
	// Since keeps documents modified at or after this time.
	Since time.Time
	// Before keeps documents modified strictly before this time.
	Before time.Time
	// LinkedOnly keeps only documents that have a remote page.
	LinkedOnly bool
	// StripHeaders writes bodies without their metadata headers, for
	// sharing a tree outside the sync workflow.
	StripHeaders bool
}

// ExtractOptions configures extraction.
type ExtractOptions struct {
	// TargetDir receives the extracted documents. Empty lists entries
	// without writing, as does DryRun.
	TargetDir string
	// DryRun previews the archive without writing anything.
	DryRun bool
	// Overwrite lets extraction replace existing files.
	Overwrite bool
}

// Create writes the filtered documents and a manifest to w as a tar.gz
// stream and returns the manifest.
func Create(docs []*document.Document, w io.Writer, opts CreateOptions) (*Manifest, error) {
	filtered := filterDocs(docs, opts)
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no documents match the archive filters")
	}

	gzWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzWriter)

	manifest := &Manifest{
		Version:   "1",
		CreatedAt: time.Now(),
		Documents: make([]ManifestDoc, 0, len(filtered)),
	}

	for _, doc := range filtered {
		content, err := renderDoc(doc, opts.StripHeaders)
		if err != nil {
			return nil, fmt.Errorf("render %q: %w", doc.Path, err)
		}

		manifest.Documents = append(manifest.Documents, ManifestDoc{
			Path:     doc.Path,
			Title:    doc.EffectiveTitle(),
			RemoteID: doc.RemoteID,
			SyncedAt: doc.LastSync,
			Size:     int64(len(content)),
		})

		header := &tar.Header{
			Name:    docPrefix + doc.Path,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: doc.ModTime,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return nil, fmt.Errorf("write header for %q: %w", doc.Path, err)
		}
		if _, err := tarWriter.Write(content); err != nil {
			return nil, fmt.Errorf("write %q: %w", doc.Path, err)
		}
	}
	manifest.DocumentCount = len(manifest.Documents)

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize manifest: %w", err)
	}
	header := &tar.Header{
		Name:    manifestName,
		Mode:    0o644,
		Size:    int64(len(manifestData)),
		ModTime: manifest.CreatedAt,
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return nil, fmt.Errorf("write manifest header: %w", err)
	}
	if _, err := tarWriter.Write(manifestData); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	// Close in order so both footers land before the caller closes the
	// underlying file.
	if err := tarWriter.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	return manifest, nil
}

// Extract reads a tar.gz archive and returns the document paths it
// holds plus the manifest. Documents are written under TargetDir unless
// the options ask for a preview.
func Extract(r io.Reader, opts ExtractOptions) ([]string, *Manifest, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	var manifest *Manifest
	var paths []string

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read archive: %w", err)
		}
		if header.Typeflag == tar.TypeDir {
			continue
		}

		data, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, nil, fmt.Errorf("read %q: %w", header.Name, err)
		}

		if header.Name == manifestName {
			if err := json.Unmarshal(data, &manifest); err != nil {
				return nil, nil, fmt.Errorf("parse manifest: %w", err)
			}
			continue
		}

		rel, ok := docEntryPath(header.Name)
		if !ok {
			continue
		}
		if opts.TargetDir != "" && !opts.DryRun {
			if err := extractFile(rel, data, opts); err != nil {
				return nil, nil, err
			}
		}
		paths = append(paths, rel)
	}

	if manifest == nil {
		return nil, nil, fmt.Errorf("archive has no %s", manifestName)
	}
	return paths, manifest, nil
}

// renderDoc reproduces the document's on-disk content, or just its body
// when headers are stripped.
func renderDoc(doc *document.Document, stripHeaders bool) ([]byte, error) {
	if stripHeaders {
		return []byte(doc.Body), nil
	}
	content, err := document.Compose(doc.Header(), doc.Body)
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

func filterDocs(docs []*document.Document, opts CreateOptions) []*document.Document {
	filtered := make([]*document.Document, 0, len(docs))
	for _, doc := range docs {
		if opts.LinkedOnly && doc.RemoteID == "" {
			continue
		}
		if !opts.Since.IsZero() && doc.ModTime.Before(opts.Since) {
			continue
		}
		if !opts.Before.IsZero() && !doc.ModTime.Before(opts.Before) {
			continue
		}
		filtered = append(filtered, doc)
	}
	return filtered
}

// docEntryPath maps a tar entry name to a document path, rejecting
// anything that would land outside the target directory.
func docEntryPath(name string) (string, bool) {
	if !strings.HasPrefix(name, docPrefix) {
		return "", false
	}
	rel := path.Clean(strings.TrimPrefix(name, docPrefix))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || strings.HasPrefix(rel, "/") {
		return "", false
	}
	return rel, true
}

func extractFile(rel string, data []byte, opts ExtractOptions) error {
	abs := filepath.Join(opts.TargetDir, filepath.FromSlash(rel))
	if !opts.Overwrite {
		if _, err := os.Stat(abs); err == nil {
			return fmt.Errorf("%s already exists", rel)
		}
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return fmt.Errorf("create directory for %q: %w", rel, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil { // #nosec G306 - documents are world-readable
		return fmt.Errorf("write %q: %w", rel, err)
	}
	return nil
}
