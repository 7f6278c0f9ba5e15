package document

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Header is the metadata block stored at the top of a document.
type Header struct {
	// Title is the explicit document title; empty means path-derived.
	Title string `yaml:"title,omitempty"`
	// RemoteID is the id of the remote page this document syncs against.
	RemoteID string `yaml:"remote_id,omitempty"`
	// LastSync is the timestamp of the last successful sync, RFC 3339.
	LastSync *time.Time `yaml:"last_sync_timestamp,omitempty"`
	// ContentHash is the algorithm-tagged digest of the body at last
	// sync, e.g. "sha256:<hex>".
	ContentHash string `yaml:"content_hash,omitempty"`
}

// IsZero reports whether the header carries no metadata at all.
func (h Header) IsZero() bool {
	return h.Title == "" && h.RemoteID == "" && h.LastSync == nil && h.ContentHash == ""
}

// SplitResult contains the raw header bytes and remaining body of a
// split document.
type SplitResult struct {
	// Header contains the raw YAML between the delimiters.
	Header []byte
	// Body contains everything after the closing delimiter line.
	Body string
	// HasHeader indicates whether a delimited header was found.
	HasHeader bool
}

var delimiter = []byte("---")

// Split extracts the YAML header from document content. A header opens
// with "---" on the first line and closes with the next line consisting
// of "---"; content without that pair, including an unclosed opener, is
// treated as all body.
func Split(content []byte) SplitResult {
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return SplitResult{Body: string(content)}
	}

	remaining := content[len(delimiter):]
	if bytes.HasPrefix(remaining, []byte("\r\n")) {
		remaining = remaining[2:]
	} else {
		remaining = remaining[1:]
	}

	var header []byte
	var bodyStart int
	found := false

	if bytes.HasPrefix(remaining, delimiter) {
		// Empty header: ---\n---\n
		header = []byte{}
		bodyStart = len(delimiter)
		found = true
	} else {
		closing := append([]byte("\n"), delimiter...)
		if idx := bytes.Index(remaining, closing); idx != -1 {
			header = remaining[:idx]
			bodyStart = idx + len(closing)
			found = true
		} else {
			closing = append([]byte("\r\n"), delimiter...)
			if idx := bytes.Index(remaining, closing); idx != -1 {
				header = remaining[:idx]
				bodyStart = idx + len(closing)
				found = true
			}
		}
	}

	if !found {
		return SplitResult{Body: string(content)}
	}

	header = bytes.ReplaceAll(header, []byte("\r\n"), []byte("\n"))
	header = bytes.TrimRight(header, "\r")

	// Skip the newline terminating the closing delimiter line.
	if bodyStart < len(remaining) {
		if bytes.HasPrefix(remaining[bodyStart:], []byte("\r\n")) {
			bodyStart += 2
		} else if bytes.HasPrefix(remaining[bodyStart:], []byte("\n")) {
			bodyStart++
		}
	}

	var body string
	if bodyStart < len(remaining) {
		body = string(remaining[bodyStart:])
	}

	return SplitResult{Header: header, Body: body, HasHeader: true}
}

// ParseHeader decodes the raw YAML header.
func ParseHeader(raw []byte) (Header, error) {
	var h Header
	if len(raw) == 0 {
		return h, nil
	}
	if err := yaml.Unmarshal(raw, &h); err != nil {
		return Header{}, fmt.Errorf("failed to parse document header: %w", err)
	}
	return h, nil
}

// Compose serializes a header and body back into file content. It is the
// exact inverse of Split, so composing and re-splitting leaves the body
// byte-identical and content hashes stable. A zero header produces bare
// body content with no delimiters.
func Compose(h Header, body string) (string, error) {
	if h.IsZero() {
		return body, nil
	}

	data, err := yaml.Marshal(&h)
	if err != nil {
		return "", fmt.Errorf("failed to serialize document header: %w", err)
	}

	var b strings.Builder
	b.Grow(len(data) + len(body) + 10)
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n")
	b.WriteString(body)
	return b.String(), nil
}
