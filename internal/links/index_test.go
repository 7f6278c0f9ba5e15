package links

import (
	"path/filepath"
	"testing"

	"github.com/matthewsinclair/arca-notionex/internal/document"
	"github.com/matthewsinclair/arca-notionex/internal/util"
)

func testIndex() *Index {
	ix := New()
	ix.Add("docs/guide.md", "aaaa1111aaaa1111aaaa1111aaaa1111")
	ix.Add("docs/api/index.md", "bbbb2222bbbb2222bbbb2222bbbb2222")
	ix.Add("readme.md", "cccc3333cccc3333cccc3333cccc3333")
	return ix
}

func TestResolveForward(t *testing.T) {
	ix := testIndex()

	tests := []struct {
		name        string
		href        string
		currentPath string
		wantID      string
		wantOK      bool
	}{
		{
			name:        "sibling in same directory",
			href:        "guide.md",
			currentPath: "docs/index.md",
			wantID:      "aaaa1111aaaa1111aaaa1111aaaa1111",
			wantOK:      true,
		},
		{
			name:        "explicit relative prefix",
			href:        "./guide.md",
			currentPath: "docs/index.md",
			wantID:      "aaaa1111aaaa1111aaaa1111aaaa1111",
			wantOK:      true,
		},
		{
			name:        "descend into child directory",
			href:        "api/index.md",
			currentPath: "docs/guide.md",
			wantID:      "bbbb2222bbbb2222bbbb2222bbbb2222",
			wantOK:      true,
		},
		{
			name:        "walk up to the root",
			href:        "../../readme.md",
			currentPath: "docs/api/index.md",
			wantID:      "cccc3333cccc3333cccc3333cccc3333",
			wantOK:      true,
		},
		{
			name:        "anchor ignored for lookup",
			href:        "guide.md#section-two",
			currentPath: "docs/index.md",
			wantID:      "aaaa1111aaaa1111aaaa1111aaaa1111",
			wantOK:      true,
		},
		{
			name:        "case folded path",
			href:        "Guide.MD",
			currentPath: "docs/index.md",
			wantID:      "aaaa1111aaaa1111aaaa1111aaaa1111",
			wantOK:      true,
		},
		{
			name:        "unknown document",
			href:        "missing.md",
			currentPath: "docs/index.md",
			wantOK:      false,
		},
		{
			name:        "empty href",
			href:        "",
			currentPath: "docs/index.md",
			wantOK:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ix.ResolveForward(tt.href, tt.currentPath)
			if ok != tt.wantOK {
				t.Fatalf("ResolveForward(%q, %q) ok = %v, want %v", tt.href, tt.currentPath, ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("ResolveForward(%q, %q) = %q, want %q", tt.href, tt.currentPath, id, tt.wantID)
			}
		})
	}
}

func TestResolveForMention(t *testing.T) {
	ix := testIndex()

	tests := []struct {
		name        string
		href        string
		currentPath string
		want        Resolution
	}{
		{
			name:        "indexed document becomes mention",
			href:        "guide.md",
			currentPath: "docs/index.md",
			want:        Resolution{Kind: ResolvedMention, ID: "aaaa1111aaaa1111aaaa1111aaaa1111"},
		},
		{
			name:        "anchor dropped on mention",
			href:        "guide.md#details",
			currentPath: "docs/index.md",
			want:        Resolution{Kind: ResolvedMention, ID: "aaaa1111aaaa1111aaaa1111aaaa1111"},
		},
		{
			name:        "external url passes through",
			href:        "https://example.com/guide.md",
			currentPath: "docs/index.md",
			want:        Resolution{Kind: ResolvedLink, Href: "https://example.com/guide.md"},
		},
		{
			name:        "anchor-only href passes through",
			href:        "#section",
			currentPath: "docs/index.md",
			want:        Resolution{Kind: ResolvedLink, Href: "#section"},
		},
		{
			name:        "non-document target passes through",
			href:        "diagram.png",
			currentPath: "docs/index.md",
			want:        Resolution{Kind: ResolvedLink, Href: "diagram.png"},
		},
		{
			name:        "unindexed document passes through",
			href:        "todo.md",
			currentPath: "docs/index.md",
			want:        Resolution{Kind: ResolvedLink, Href: "todo.md"},
		},
		{
			name:        "mailto passes through",
			href:        "mailto:team@example.com",
			currentPath: "docs/index.md",
			want:        Resolution{Kind: ResolvedLink, Href: "mailto:team@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.ResolveForMention(tt.href, tt.currentPath)
			if got != tt.want {
				t.Errorf("ResolveForMention(%q, %q) = %+v, want %+v", tt.href, tt.currentPath, got, tt.want)
			}
		})
	}
}

func TestResolveForMentionNilIndex(t *testing.T) {
	var ix *Index
	got := ix.ResolveForMention("guide.md", "docs/index.md")
	want := Resolution{Kind: ResolvedLink, Href: "guide.md"}
	if got != want {
		t.Errorf("nil index resolution = %+v, want %+v", got, want)
	}
}

func TestResolveReverse(t *testing.T) {
	ix := testIndex()

	tests := []struct {
		name     string
		href     string
		wantPath string
		wantOK   bool
	}{
		{
			name:     "bare id",
			href:     "aaaa1111aaaa1111aaaa1111aaaa1111",
			wantPath: "docs/guide.md",
			wantOK:   true,
		},
		{
			name:     "dashed id",
			href:     "aaaa1111-aaaa-1111-aaaa-1111aaaa1111",
			wantPath: "docs/guide.md",
			wantOK:   true,
		},
		{
			name:     "full url with slug",
			href:     "https://www.notion.so/Guide-aaaa1111aaaa1111aaaa1111aaaa1111",
			wantPath: "docs/guide.md",
			wantOK:   true,
		},
		{
			name:     "url with query string",
			href:     "https://www.notion.so/aaaa1111aaaa1111aaaa1111aaaa1111?pvs=4",
			wantPath: "docs/guide.md",
			wantOK:   true,
		},
		{
			name:     "anchor reattached",
			href:     "https://www.notion.so/Guide-aaaa1111aaaa1111aaaa1111aaaa1111#usage",
			wantPath: "docs/guide.md#usage",
			wantOK:   true,
		},
		{
			name:     "workspace path before slug",
			href:     "https://www.notion.so/acme/API-bbbb2222bbbb2222bbbb2222bbbb2222",
			wantPath: "docs/api/index.md",
			wantOK:   true,
		},
		{
			name:   "unknown id",
			href:   "https://www.notion.so/ffff0000ffff0000ffff0000ffff0000",
			wantOK: false,
		},
		{
			name:   "ordinary local link",
			href:   "other.md",
			wantOK: false,
		},
		{
			name:   "host without page segment",
			href:   "https://www.notion.so",
			wantOK: false,
		},
		{
			name:   "empty href",
			href:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := ix.ResolveReverse(tt.href)
			if ok != tt.wantOK {
				t.Fatalf("ResolveReverse(%q) ok = %v, want %v", tt.href, ok, tt.wantOK)
			}
			if ok && path != tt.wantPath {
				t.Errorf("ResolveReverse(%q) = %q, want %q", tt.href, path, tt.wantPath)
			}
		})
	}
}

func TestPathFor(t *testing.T) {
	ix := testIndex()

	path, ok := ix.PathFor("AAAA1111-AAAA-1111-AAAA-1111AAAA1111")
	if !ok {
		t.Fatal("PathFor() should match regardless of id casing and dashes")
	}
	if path != "docs/guide.md" {
		t.Errorf("PathFor() = %q, want %q", path, "docs/guide.md")
	}

	if _, ok := ix.PathFor("unknown"); ok {
		t.Error("PathFor() should miss for an unmapped id")
	}
}

func TestIsChildLink(t *testing.T) {
	tests := []struct {
		name        string
		href        string
		currentPath string
		want        bool
	}{
		{
			name:        "child directory target",
			href:        "child/index.md",
			currentPath: "parent/index.md",
			want:        true,
		},
		{
			name:        "sibling is not a child",
			href:        "sibling.md",
			currentPath: "parent/index.md",
			want:        false,
		},
		{
			name:        "parent directory is not a child",
			href:        "../x.md",
			currentPath: "parent/child/index.md",
			want:        false,
		},
		{
			name:        "grandchild target",
			href:        "a/b/deep.md",
			currentPath: "parent/index.md",
			want:        true,
		},
		{
			name:        "child link with anchor",
			href:        "child/page.md#top",
			currentPath: "parent/index.md",
			want:        true,
		},
		{
			name:        "cousin directory is not a child",
			href:        "../other/page.md",
			currentPath: "parent/child/index.md",
			want:        false,
		},
		{
			name:        "external url is never a child",
			href:        "https://example.com/child/index.md",
			currentPath: "parent/index.md",
			want:        false,
		},
		{
			name:        "root document gaining a child",
			href:        "docs/page.md",
			currentPath: "index.md",
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsChildLink(tt.href, tt.currentPath); got != tt.want {
				t.Errorf("IsChildLink(%q, %q) = %v, want %v", tt.href, tt.currentPath, got, tt.want)
			}
		})
	}
}

func TestIsDocumentHref(t *testing.T) {
	tests := []struct {
		href string
		want bool
	}{
		{"guide.md", true},
		{"./guide.md", true},
		{"../up/guide.md", true},
		{"guide.md#anchor", true},
		{"Guide.MD", true},
		{"", false},
		{"#anchor", false},
		{"image.png", false},
		{"https://example.com/guide.md", false},
		{"mailto:team@example.com", false},
	}

	for _, tt := range tests {
		if got := IsDocumentHref(tt.href); got != tt.want {
			t.Errorf("IsDocumentHref(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}

func TestFromDocumentsCollision(t *testing.T) {
	docs := []*document.Document{
		{Path: "zeta.md", RemoteID: "dddd4444dddd4444dddd4444dddd4444"},
		{Path: "alpha.md", RemoteID: "dddd4444dddd4444dddd4444dddd4444"},
		{Path: "beta.md", RemoteID: "eeee5555eeee5555eeee5555eeee5555"},
		{Path: "draft.md"},
	}

	ix := FromDocuments(docs)

	if ix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ix.Len())
	}

	// The lexically first claimant keeps a contested id.
	path, ok := ix.PathFor("dddd4444dddd4444dddd4444dddd4444")
	if !ok || path != "alpha.md" {
		t.Errorf("contested id maps to %q, want %q", path, "alpha.md")
	}

	if _, ok := ix.ResolveForward("zeta.md", "index.md"); ok {
		t.Error("losing claimant should not be indexed")
	}

	if _, ok := ix.ResolveForward("draft.md", "index.md"); ok {
		t.Error("document without a remote id should not be indexed")
	}
}

func TestAddSamePathTwice(t *testing.T) {
	ix := New()
	ix.Add("guide.md", "aaaa1111aaaa1111aaaa1111aaaa1111")
	ix.Add("guide.md", "aaaa1111aaaa1111aaaa1111aaaa1111")

	if ix.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ix.Len())
	}
}

func TestBuildFromStore(t *testing.T) {
	root := t.TempDir()
	util.WriteFile(t, filepath.Join(root, "index.md"), "---\nremote_id: aaaa1111aaaa1111aaaa1111aaaa1111\n---\n# Home\n")
	util.WriteFile(t, filepath.Join(root, "docs", "guide.md"), "---\nremote_id: bbbb2222bbbb2222bbbb2222bbbb2222\n---\n# Guide\n")
	util.WriteFile(t, filepath.Join(root, "docs", "draft.md"), "# Not yet linked\n")

	ix, err := Build(document.NewStore(root))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if ix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ix.Len())
	}
	if id, ok := ix.ResolveForward("docs/guide.md", "index.md"); !ok || id != "bbbb2222bbbb2222bbbb2222bbbb2222" {
		t.Errorf("ResolveForward() = %q, %v", id, ok)
	}
}
