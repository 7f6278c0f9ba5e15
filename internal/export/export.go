// Package export renders the document inventory in machine-readable
// formats. It reports each document's sync state the way status does,
// but as JSON, YAML, or a markdown table for scripts and CI jobs.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/logging"
)

// Format is the output format for an exported inventory.
type Format string

const (
	// FormatJSON exports the inventory as JSON.
	FormatJSON Format = "json"
	// FormatYAML exports the inventory as YAML.
	FormatYAML Format = "yaml"
	// FormatMarkdown exports the inventory as a markdown table.
	FormatMarkdown Format = "markdown"
)

// IsValid reports whether the format is recognized.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatMarkdown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a string into a Format.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("unsupported format %q (valid: json, yaml, markdown)", s)
	}
	return format, nil
}

// Options configures export behavior.
type Options struct {
	// Format selects the output format.
	Format Format
	// Pretty enables indentation for JSON.
	Pretty bool
	// IncludeBody embeds document bodies in JSON and YAML output.
	// Markdown output never carries bodies.
	IncludeBody bool
}

// DefaultOptions returns the default export options.
func DefaultOptions() Options {
	return Options{
		Format: FormatJSON,
		Pretty: true,
	}
}

// Exporter renders document inventories.
type Exporter struct {
	opts Options
}

// New creates an Exporter with the given options.
func New(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes the inventory for docs to w in the configured format.
func (e *Exporter) Export(docs []*document.Document, w io.Writer) error {
	defer logging.Timer("export")()

	logging.Debug("starting export",
		slog.String("format", string(e.opts.Format)),
		logging.Count(len(docs)),
		logging.Operation("export"))

	var err error
	switch e.opts.Format {
	case FormatJSON:
		err = e.exportJSON(docs, w)
	case FormatYAML:
		err = e.exportYAML(docs, w)
	case FormatMarkdown:
		err = e.exportMarkdown(docs, w)
	default:
		err = fmt.Errorf("unsupported format: %s", e.opts.Format)
	}
	if err != nil {
		logging.Error("export failed",
			slog.String("format", string(e.opts.Format)),
			logging.Err(err))
		return err
	}

	logging.Debug("export completed",
		slog.String("format", string(e.opts.Format)),
		logging.Count(len(docs)))
	return nil
}

// State names a document's sync state the way status reports it.
func State(doc *document.Document) string {
	switch {
	case doc.RemoteID == "":
		return "unsynced"
	case doc.Dirty():
		return "modified"
	default:
		return "synced"
	}
}

// exportDoc is the per-document export record.
type exportDoc struct {
	Path     string `json:"path" yaml:"path"`
	Title    string `json:"title" yaml:"title"`
	State    string `json:"state" yaml:"state"`
	RemoteID string `json:"remote_id,omitempty" yaml:"remote_id,omitempty"`
	LastSync string `json:"last_sync,omitempty" yaml:"last_sync,omitempty"`
	Modified string `json:"modified,omitempty" yaml:"modified,omitempty"`
	Body     string `json:"body,omitempty" yaml:"body,omitempty"`
}

func (e *Exporter) toExportDoc(doc *document.Document) exportDoc {
	ed := exportDoc{
		Path:     doc.Path,
		Title:    doc.EffectiveTitle(),
		State:    State(doc),
		RemoteID: doc.RemoteID,
	}
	if doc.LastSync != nil {
		ed.LastSync = doc.LastSync.UTC().Format(time.RFC3339)
	}
	if !doc.ModTime.IsZero() {
		ed.Modified = doc.ModTime.UTC().Format(time.RFC3339)
	}
	if e.opts.IncludeBody {
		ed.Body = doc.Body
	}
	return ed
}

func (e *Exporter) exportJSON(docs []*document.Document, w io.Writer) error {
	exported := make([]exportDoc, len(docs))
	for i, doc := range docs {
		exported[i] = e.toExportDoc(doc)
	}

	encoder := json.NewEncoder(w)
	if e.opts.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(exported)
}

func (e *Exporter) exportYAML(docs []*document.Document, w io.Writer) error {
	exported := make([]exportDoc, len(docs))
	for i, doc := range docs {
		exported[i] = e.toExportDoc(doc)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(exported); err != nil {
		_ = encoder.Close()
		return err
	}
	return encoder.Close()
}

func (e *Exporter) exportMarkdown(docs []*document.Document, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("# Document Inventory\n\n")
	sb.WriteString(fmt.Sprintf("Total: %d document(s)\n\n", len(docs)))
	sb.WriteString("| Path | Title | State | Last Sync |\n")
	sb.WriteString("|------|-------|-------|----------|\n")
	for _, doc := range docs {
		lastSync := "-"
		if doc.LastSync != nil {
			lastSync = doc.LastSync.UTC().Format("2006-01-02 15:04")
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			doc.Path, doc.EffectiveTitle(), State(doc), lastSync))
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}
