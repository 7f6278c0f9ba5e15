// Package template generates starter markdown documents for the docs
// tree. Scaffolds carry no metadata header; sync adds one on the first
// push.
package template

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/matthewsinclair/arca-notionex/internal/document"
)

// DocType names a document scaffold.
type DocType string

const (
	// Guide is a task-oriented walkthrough.
	Guide DocType = "guide"

	// Reference is a lookup page.
	Reference DocType = "reference"

	// Index is a directory's section page.
	Index DocType = "index"
)

// Data holds the values a scaffold is rendered with.
type Data struct {
	Title   string
	Summary string
	Topics  []string
	// Date defaults to the current day when zero.
	Date time.Time
}

// Generator renders document scaffolds.
type Generator struct {
	templates map[DocType]*template.Template
}

// New returns a Generator with the built-in scaffolds loaded.
func New() (*Generator, error) {
	g := &Generator{templates: make(map[DocType]*template.Template)}

	builtins := map[DocType]string{
		Guide:     guideTemplate,
		Reference: referenceTemplate,
		Index:     indexTemplate,
	}
	for typ, content := range builtins {
		tmpl, err := template.New(string(typ)).Parse(content)
		if err != nil {
			return nil, fmt.Errorf("parse %s scaffold: %w", typ, err)
		}
		g.templates[typ] = tmpl
	}
	return g, nil
}

// LoadCustom registers a scaffold from a file under the given name,
// replacing any scaffold already registered for it.
func (g *Generator) LoadCustom(name, path string) error {
	// #nosec G304 - path is provided by caller
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scaffold file: %w", err)
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return fmt.Errorf("parse scaffold %q: %w", name, err)
	}
	g.templates[DocType(name)] = tmpl
	return nil
}

// Generate renders the named scaffold. The title is required; a zero
// date defaults to today.
func (g *Generator) Generate(typ DocType, data Data) (string, error) {
	tmpl, ok := g.templates[typ]
	if !ok {
		return "", fmt.Errorf("unknown scaffold %q", typ)
	}
	if data.Title == "" {
		return "", errors.New("a title is required")
	}
	if data.Summary == "" {
		data.Summary = "Describe what this document covers."
	}
	if data.Date.IsZero() {
		data.Date = time.Now()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s scaffold: %w", typ, err)
	}

	content := buf.String()
	if err := validateGenerated(content); err != nil {
		return "", fmt.Errorf("scaffold %q: %w", typ, err)
	}
	return content, nil
}

// validateGenerated rejects output that would confuse the document
// layer: blank content, or content opening with a metadata header
// delimiter, which sync would later misread as its own.
func validateGenerated(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("generated content is blank")
	}
	if document.Split([]byte(content)).HasHeader {
		return errors.New("generated content opens with a metadata header")
	}
	return nil
}

// CreateFile renders a scaffold into a new file under root. The
// relative path uses slashes, parent directories are created, and an
// existing file is never overwritten.
func (g *Generator) CreateFile(root, rel string, typ DocType, data Data) (string, error) {
	content, err := g.Generate(typ, data)
	if err != nil {
		return "", err
	}

	abs := filepath.Join(root, filepath.FromSlash(rel))
	if _, err := os.Stat(abs); err == nil {
		return "", fmt.Errorf("%s already exists", rel)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return "", fmt.Errorf("create directory for %q: %w", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil { // #nosec G306 - documents are world-readable
		return "", fmt.Errorf("write %q: %w", rel, err)
	}
	return abs, nil
}

// Types lists the registered scaffold names, sorted.
func (g *Generator) Types() []string {
	out := make([]string, 0, len(g.templates))
	for typ := range g.templates {
		out = append(out, string(typ))
	}
	sort.Strings(out)
	return out
}

// ParseDocType normalizes a scaffold name.
func ParseDocType(s string) (DocType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "guide":
		return Guide, nil
	case "reference", "ref":
		return Reference, nil
	case "index", "idx":
		return Index, nil
	default:
		return "", fmt.Errorf("unknown document type %q (valid: guide, reference, index)", s)
	}
}
