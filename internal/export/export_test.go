package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matthewsinclair/arca-notionex/internal/document"
)

func inventoryDocs() []*document.Document {
	synced := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	body := "# Deploy Guide\n\nSteps.\n"
	return []*document.Document{
		{
			Path:        "guides/deploy.md",
			Title:       "Deploy Guide",
			RemoteID:    "rem-deploy",
			LastSync:    &synced,
			ContentHash: document.HashBody(body),
			Body:        body,
			ModTime:     synced,
		},
		{
			Path: "notes.md",
			Body: "# Notes\n",
		},
	}
}

func TestFormat_IsValid(t *testing.T) {
	tests := []struct {
		format Format
		valid  bool
	}{
		{FormatJSON, true},
		{FormatYAML, true},
		{FormatMarkdown, true},
		{Format("invalid"), false},
		{Format(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.IsValid(); got != tt.valid {
				t.Errorf("Format(%q).IsValid() = %v, want %v", tt.format, got, tt.valid)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json", "json", FormatJSON, false},
		{"JSON uppercase", "JSON", FormatJSON, false},
		{"yaml", "yaml", FormatYAML, false},
		{"markdown", "markdown", FormatMarkdown, false},
		{"with spaces", "  json  ", FormatJSON, false},
		{"invalid", "xml", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestState(t *testing.T) {
	docs := inventoryDocs()
	if got := State(docs[0]); got != "synced" {
		t.Errorf("State(linked clean) = %q, want synced", got)
	}
	if got := State(docs[1]); got != "unsynced" {
		t.Errorf("State(unlinked) = %q, want unsynced", got)
	}

	dirty := *docs[0]
	dirty.Body = "# Deploy Guide\n\nChanged.\n"
	if got := State(&dirty); got != "modified" {
		t.Errorf("State(dirty) = %q, want modified", got)
	}
}

func TestExporter_ExportJSON(t *testing.T) {
	exporter := New(Options{Format: FormatJSON, Pretty: true})
	var buf bytes.Buffer
	if err := exporter.Export(inventoryDocs(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var result []exportDoc
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(result))
	}
	if result[0].Path != "guides/deploy.md" {
		t.Errorf("Path = %q", result[0].Path)
	}
	if result[0].State != "synced" {
		t.Errorf("State = %q, want synced", result[0].State)
	}
	if result[0].LastSync != "2026-02-14T09:30:00Z" {
		t.Errorf("LastSync = %q", result[0].LastSync)
	}
	if result[0].Body != "" {
		t.Errorf("Body should be empty without IncludeBody, got %q", result[0].Body)
	}
	if result[1].Title != "Notes" {
		t.Errorf("Title = %q, want the derived title", result[1].Title)
	}
	if result[1].RemoteID != "" {
		t.Errorf("RemoteID = %q, want empty for an unsynced document", result[1].RemoteID)
	}
}

func TestExporter_ExportJSON_Compact(t *testing.T) {
	exporter := New(Options{Format: FormatJSON, Pretty: false})
	var buf bytes.Buffer
	if err := exporter.Export(inventoryDocs(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if strings.Count(buf.String(), "\n") > 1 {
		t.Errorf("compact JSON should stay on one line, got: %q", buf.String())
	}
}

func TestExporter_ExportJSON_IncludeBody(t *testing.T) {
	exporter := New(Options{Format: FormatJSON, IncludeBody: true})
	var buf bytes.Buffer
	if err := exporter.Export(inventoryDocs(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var result []exportDoc
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}
	if !strings.Contains(result[0].Body, "# Deploy Guide") {
		t.Errorf("Body = %q, want the document body", result[0].Body)
	}
}

func TestExporter_ExportYAML(t *testing.T) {
	exporter := New(Options{Format: FormatYAML})
	var buf bytes.Buffer
	if err := exporter.Export(inventoryDocs(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var result []exportDoc
	if err := yaml.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse YAML output: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(result))
	}
	if result[0].RemoteID != "rem-deploy" {
		t.Errorf("RemoteID = %q", result[0].RemoteID)
	}
}

func TestExporter_ExportMarkdown(t *testing.T) {
	exporter := New(Options{Format: FormatMarkdown})
	var buf bytes.Buffer
	if err := exporter.Export(inventoryDocs(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"# Document Inventory",
		"Total: 2 document(s)",
		"| Path | Title | State | Last Sync |",
		"| guides/deploy.md | Deploy Guide | synced | 2026-02-14 09:30 |",
		"| notes.md | Notes | unsynced | - |",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("markdown output missing %q:\n%s", want, output)
		}
	}
}

func TestExporter_UnknownFormat(t *testing.T) {
	exporter := New(Options{Format: Format("xml")})
	var buf bytes.Buffer
	if err := exporter.Export(inventoryDocs(), &buf); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestExporter_EmptyInventory(t *testing.T) {
	exporter := New(Options{Format: FormatJSON})
	var buf bytes.Buffer
	if err := exporter.Export(nil, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if buf.String() != "[]\n" {
		t.Errorf("empty inventory should produce an empty array, got: %q", buf.String())
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Format != FormatJSON {
		t.Errorf("DefaultOptions().Format = %v, want %v", opts.Format, FormatJSON)
	}
	if !opts.Pretty {
		t.Error("DefaultOptions().Pretty = false, want true")
	}
	if opts.IncludeBody {
		t.Error("DefaultOptions().IncludeBody = true, want false")
	}
}
