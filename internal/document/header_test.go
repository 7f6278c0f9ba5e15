package document

import (
	"strings"
	"testing"
	"time"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantHeader string
		wantBody   string
		wantFound  bool
	}{
		{
			name:       "standard header",
			content:    "---\ntitle: Guide\nremote_id: abc123\n---\n# Heading\n\nBody text.\n",
			wantHeader: "title: Guide\nremote_id: abc123",
			wantBody:   "# Heading\n\nBody text.\n",
			wantFound:  true,
		},
		{
			name:       "no header",
			content:    "# Just content\n\nNo metadata here.\n",
			wantHeader: "",
			wantBody:   "# Just content\n\nNo metadata here.\n",
			wantFound:  false,
		},
		{
			name:       "empty header",
			content:    "---\n---\nBody only.\n",
			wantHeader: "",
			wantBody:   "Body only.\n",
			wantFound:  true,
		},
		{
			name:       "windows line endings",
			content:    "---\r\ntitle: Guide\r\n---\r\nBody.\r\n",
			wantHeader: "title: Guide",
			wantBody:   "Body.\r\n",
			wantFound:  true,
		},
		{
			name:       "unclosed header treated as body",
			content:    "---\ntitle: Guide\nNo closing delimiter.\n",
			wantHeader: "",
			wantBody:   "---\ntitle: Guide\nNo closing delimiter.\n",
			wantFound:  false,
		},
		{
			name:       "delimiter mid-document ignored without opener",
			content:    "Text first.\n---\ntitle: nope\n---\n",
			wantHeader: "",
			wantBody:   "Text first.\n---\ntitle: nope\n---\n",
			wantFound:  false,
		},
		{
			name:       "empty file",
			content:    "",
			wantHeader: "",
			wantBody:   "",
			wantFound:  false,
		},
		{
			name:       "header with blank body",
			content:    "---\ntitle: Guide\n---\n",
			wantHeader: "title: Guide",
			wantBody:   "",
			wantFound:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Split([]byte(tt.content))
			if result.HasHeader != tt.wantFound {
				t.Errorf("HasHeader = %v, want %v", result.HasHeader, tt.wantFound)
			}
			if string(result.Header) != tt.wantHeader {
				t.Errorf("Header = %q, want %q", result.Header, tt.wantHeader)
			}
			if result.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", result.Body, tt.wantBody)
			}
		})
	}
}

func TestParseHeader(t *testing.T) {
	raw := []byte("title: Getting Started\nremote_id: abc-123\nlast_sync_timestamp: 2026-03-01T10:30:00Z\ncontent_hash: sha256:deadbeef\n")
	h, err := ParseHeader(raw)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Title != "Getting Started" {
		t.Errorf("Title = %q", h.Title)
	}
	if h.RemoteID != "abc-123" {
		t.Errorf("RemoteID = %q", h.RemoteID)
	}
	if h.ContentHash != "sha256:deadbeef" {
		t.Errorf("ContentHash = %q", h.ContentHash)
	}
	if h.LastSync == nil {
		t.Fatal("LastSync is nil")
	}
	want := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	if !h.LastSync.Equal(want) {
		t.Errorf("LastSync = %v, want %v", h.LastSync, want)
	}
}

func TestParseHeaderEmpty(t *testing.T) {
	h, err := ParseHeader(nil)
	if err != nil {
		t.Fatalf("ParseHeader(nil): %v", err)
	}
	if !h.IsZero() {
		t.Errorf("expected zero header, got %+v", h)
	}
}

func TestParseHeaderInvalid(t *testing.T) {
	_, err := ParseHeader([]byte("title: [unclosed\n"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestComposeSplitRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	h := Header{
		Title:       "Guide",
		RemoteID:    "abc-123",
		LastSync:    &at,
		ContentHash: HashBody("# Body\n"),
	}
	body := "# Body\n\nSome text with --- inside.\n"

	content, err := Compose(h, body)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.HasPrefix(content, "---\n") {
		t.Errorf("composed content missing opening delimiter: %q", content)
	}

	result := Split([]byte(content))
	if !result.HasHeader {
		t.Fatal("composed content did not split back into a header")
	}
	if result.Body != body {
		t.Errorf("round-trip body = %q, want %q", result.Body, body)
	}

	reparsed, err := ParseHeader(result.Header)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if reparsed.Title != h.Title || reparsed.RemoteID != h.RemoteID || reparsed.ContentHash != h.ContentHash {
		t.Errorf("round-trip header = %+v, want %+v", reparsed, h)
	}
	if reparsed.LastSync == nil || !reparsed.LastSync.Equal(at) {
		t.Errorf("round-trip LastSync = %v, want %v", reparsed.LastSync, at)
	}
}

func TestComposeZeroHeader(t *testing.T) {
	content, err := Compose(Header{}, "plain body\n")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if content != "plain body\n" {
		t.Errorf("zero header should produce bare body, got %q", content)
	}
}

func TestComposeOmitsEmptyFields(t *testing.T) {
	content, err := Compose(Header{RemoteID: "abc"}, "")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if strings.Contains(content, "title") || strings.Contains(content, "last_sync_timestamp") {
		t.Errorf("empty fields should be omitted, got %q", content)
	}
	if !strings.Contains(content, "remote_id: abc") {
		t.Errorf("remote_id missing from %q", content)
	}
}
