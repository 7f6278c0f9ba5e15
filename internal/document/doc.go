// Package document loads and persists the local markdown documents that
// sync against the remote store. Each document carries a YAML header
// (title, remote id, last sync timestamp, content hash) delimited by
// "---" pairs; everything after the header is body text. Headers are
// rewritten read-modify-write as whole files, never patched in place.
package document
