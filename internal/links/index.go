// Package links maintains the bidirectional mapping between local
// document paths and remote page ids, and resolves link targets in both
// conversion directions. Cross-document references stay valid across the
// markdown/block translation because forward resolution rewrites them to
// page mentions and reverse resolution rewrites remote links back to
// local paths.
package links

import (
	"sort"
	"strings"

	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/logging"
	"github.com/matthewsinclair/arca-notionex/internal/util"
)

// Index is the path↔remote-id map for one docs tree. Forward keys are
// case-folded normalized paths; reverse keys are normalized ids. The
// mapping is intended to be 1:1; when two documents claim the same id
// the lexically first path wins and the collision is logged.
type Index struct {
	forward map[string]string
	reverse map[string]string
}

// New returns an empty index.
func New() *Index {
	return &Index{
		forward: make(map[string]string),
		reverse: make(map[string]string),
	}
}

// Build scans every document under the store and indexes those carrying
// a stored remote id.
func Build(store *document.Store) (*Index, error) {
	docs, err := store.Discover()
	if err != nil {
		return nil, err
	}
	return FromDocuments(docs), nil
}

// FromDocuments builds an index from already-loaded documents. The sync
// orchestrator rebuilds between passes this way without re-reading files.
func FromDocuments(docs []*document.Document) *Index {
	sorted := make([]*document.Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	ix := New()
	for _, doc := range sorted {
		if doc.RemoteID == "" {
			continue
		}
		ix.Add(doc.Path, doc.RemoteID)
	}
	return ix
}

// Add registers a path↔id pair. A second path claiming an already-mapped
// id is rejected and logged; the first claimant keeps the id.
func (ix *Index) Add(path, id string) {
	normPath := util.NormalizePath(path)
	normID := normalizeRemoteID(id)
	if existing, ok := ix.reverse[normID]; ok && existing != normPath {
		logging.Warn("remote id claimed by multiple documents",
			logging.Page(id),
			logging.Path(existing),
			"duplicate", normPath)
		return
	}
	ix.forward[pathKey(normPath)] = id
	ix.reverse[normID] = normPath
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.forward)
}

// ResolveForward resolves a document href relative to currentPath and
// returns the target's remote id. The href's anchor is ignored for the
// lookup; callers keep it from the original href.
func (ix *Index) ResolveForward(href, currentPath string) (string, bool) {
	pathPart, _ := util.StripAnchor(href)
	if pathPart == "" {
		return "", false
	}
	resolved := util.ResolveRelative(pathPart, currentPath)
	id, ok := ix.forward[pathKey(resolved)]
	return id, ok
}

// PathFor returns the local path mapped to a remote id.
func (ix *Index) PathFor(id string) (string, bool) {
	path, ok := ix.reverse[normalizeRemoteID(id)]
	return path, ok
}

// ResolveReverse strips scheme, host, query, and anchor from a
// remote-style link, looks up the bare id, and on a hit returns the
// local path with the original anchor reattached. Non-remote links and
// unknown ids return false so callers pass the href through unchanged.
func (ix *Index) ResolveReverse(href string) (string, bool) {
	pathPart, anchor := util.StripAnchor(href)
	if i := strings.Index(pathPart, "?"); i >= 0 {
		pathPart = pathPart[:i]
	}

	seg := pathPart
	if i := strings.Index(seg, "://"); i >= 0 {
		rest := seg[i+3:]
		j := strings.Index(rest, "/")
		if j < 0 {
			return "", false
		}
		seg = rest[j+1:]
	}
	seg = strings.Trim(seg, "/")
	if k := strings.LastIndex(seg, "/"); k >= 0 {
		seg = seg[k+1:]
	}
	if seg == "" {
		return "", false
	}

	if path, ok := ix.reverse[normalizeRemoteID(seg)]; ok {
		return path + anchor, true
	}
	// Page slugs carry the id after the final dash: Title-<id>.
	if i := strings.LastIndex(seg, "-"); i >= 0 {
		if path, ok := ix.reverse[normalizeRemoteID(seg[i+1:])]; ok {
			return path + anchor, true
		}
	}
	return "", false
}

// ResolutionKind discriminates mention results from pass-through links.
type ResolutionKind string

const (
	// ResolvedMention means the href resolved to an indexed document.
	ResolvedMention ResolutionKind = "mention"
	// ResolvedLink means the href passes through unchanged.
	ResolvedLink ResolutionKind = "link"
)

// Resolution is the discriminated result of ResolveForMention.
type Resolution struct {
	Kind ResolutionKind
	// ID is the target page id when Kind is ResolvedMention.
	ID string
	// Href is the pass-through target when Kind is ResolvedLink.
	Href string
}

// ResolveForMention resolves an href the way forward conversion needs
// it: external URLs, anchor-only hrefs, non-document targets, and index
// misses come back as pass-through links; an indexed document comes back
// as a mention carrying its remote id. Anchors are not representable on
// mentions and are dropped on a hit.
func (ix *Index) ResolveForMention(href, currentPath string) Resolution {
	if ix == nil || !IsDocumentHref(href) {
		return Resolution{Kind: ResolvedLink, Href: href}
	}
	if id, ok := ix.ResolveForward(href, currentPath); ok {
		return Resolution{Kind: ResolvedMention, ID: id}
	}
	return Resolution{Kind: ResolvedLink, Href: href}
}

// IsDocumentHref reports whether an href targets another local document:
// not external, not anchor-only, and carrying the document extension.
func IsDocumentHref(href string) bool {
	if href == "" || strings.HasPrefix(href, "#") || isExternal(href) {
		return false
	}
	pathPart, _ := util.StripAnchor(href)
	return strings.HasSuffix(strings.ToLower(pathPart), document.Extension)
}

// IsChildLink reports whether the href's target lives in a directory
// that is a strict descendant of currentPath's directory. Siblings,
// ancestors, and same-directory targets are not child links.
func IsChildLink(href, currentPath string) bool {
	if !IsDocumentHref(href) {
		return false
	}
	pathPart, _ := util.StripAnchor(href)
	resolved := util.ResolveRelative(pathPart, currentPath)
	return util.IsStrictDescendant(util.DirOf(resolved), util.DirOf(currentPath))
}

func pathKey(normPath string) string {
	return strings.ToLower(normPath)
}

func normalizeRemoteID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

func isExternal(href string) bool {
	return strings.Contains(href, "://") || strings.HasPrefix(href, "mailto:")
}
