// Package graph resolves every cross-document link in a docs tree and
// reports the ones that cannot work: targets that do not exist, and
// targets that exist but have no remote page yet, so the link cannot
// become a page mention when the source document syncs.
package graph

import (
	"strings"

	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/links"
	"github.com/matthewsinclair/arca-notionex/internal/markdown"
	"github.com/matthewsinclair/arca-notionex/internal/util"
)

// Link is one document-targeting link in the tree.
type Link struct {
	// From is the document carrying the link.
	From string
	// Href is the link target as written.
	Href string
	// Target is the resolved document path, empty when none exists.
	Target string
}

// Report is the outcome of a link graph check.
type Report struct {
	// Documents is how many documents the graph covers.
	Documents int
	// Links is how many document-targeting links were found, problem
	// links included.
	Links int
	// Broken lists links that resolve to no document, in document order.
	Broken []Link
	// Unsynced lists links whose target exists but has no remote page,
	// so they stay plain relative links on the remote instead of
	// becoming mentions.
	Unsynced []Link
}

// Clean reports whether the graph has no problems.
func (r *Report) Clean() bool {
	return len(r.Broken) == 0 && len(r.Unsynced) == 0
}

// Check resolves every document link against the tree. External URLs,
// anchor-only hrefs, and non-document targets are ignored.
func Check(docs []*document.Document) *Report {
	report := &Report{Documents: len(docs)}

	known := make(map[string]*document.Document, len(docs))
	for _, doc := range docs {
		known[pathKey(doc.Path)] = doc
	}

	for _, doc := range docs {
		for _, href := range markdown.ExtractHrefs(doc.Body) {
			if !links.IsDocumentHref(href) {
				continue
			}
			report.Links++

			pathPart, _ := util.StripAnchor(href)
			resolved := util.ResolveRelative(pathPart, doc.Path)
			target, ok := known[pathKey(resolved)]
			if !ok {
				report.Broken = append(report.Broken, Link{From: doc.Path, Href: href})
				continue
			}
			if target.RemoteID == "" {
				report.Unsynced = append(report.Unsynced, Link{
					From:   doc.Path,
					Href:   href,
					Target: target.Path,
				})
			}
		}
	}

	return report
}

func pathKey(path string) string {
	return strings.ToLower(util.NormalizePath(path))
}
