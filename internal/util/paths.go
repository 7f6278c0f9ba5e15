// Package util provides small path helpers shared across the docs tree,
// link index, and orchestrators, plus common test helpers.
package util

import (
	"path"
	"strings"
)

// NormalizePath converts a document path to canonical slash-separated
// form relative to the docs root: backslashes become slashes, a leading
// "./" is dropped, and "." segments collapse. The empty string is the
// root itself.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// ResolveRelative resolves target against the directory of base. Both
// are slash-separated paths relative to the docs root; ".." segments in
// target walk up from base's directory.
func ResolveRelative(target, base string) string {
	dir := DirOf(base)
	return NormalizePath(path.Join(dir, NormalizePath(target)))
}

// DirOf returns the normalized directory of a document path, "" for a
// root-level document.
func DirOf(p string) string {
	dir := path.Dir(NormalizePath(p))
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// BaseOf returns the final path segment.
func BaseOf(p string) string {
	return path.Base(NormalizePath(p))
}

// Depth returns the number of segments in a normalized path; the root is
// depth zero, a root-level document depth one.
func Depth(p string) int {
	p = NormalizePath(p)
	if p == "" {
		return 0
	}
	return strings.Count(p, "/") + 1
}

// Segments splits a normalized path into its segments, nil for the root.
func Segments(p string) []string {
	p = NormalizePath(p)
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// IsStrictDescendant reports whether dir lies strictly below ancestor.
// A directory is not a descendant of itself.
func IsStrictDescendant(dir, ancestor string) bool {
	dir = NormalizePath(dir)
	ancestor = NormalizePath(ancestor)
	if dir == ancestor {
		return false
	}
	if ancestor == "" {
		return dir != ""
	}
	return strings.HasPrefix(dir, ancestor+"/")
}

// StripAnchor splits an href into its path and "#anchor" suffix. The
// anchor keeps its leading "#" and is empty when the href has none.
func StripAnchor(href string) (string, string) {
	if i := strings.Index(href, "#"); i >= 0 {
		return href[:i], href[i:]
	}
	return href, ""
}
