package document

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/matthewsinclair/arca-notionex/internal/util"
)

var titleCaser = cases.Title(language.English)

// DeriveTitle returns the display title for a document path. An index
// document takes its parent directory's name; at the structural root it
// keeps the literal default "Index". Other documents take their filename
// with dashes and underscores as word breaks.
func DeriveTitle(path string) string {
	return deriveTitle(path, util.BaseOf(path) == DefaultIndexFilename)
}

func deriveTitle(path string, isIndex bool) string {
	if isIndex {
		dir := util.DirOf(path)
		if dir == "" {
			return TitleFromSegment(strings.TrimSuffix(util.BaseOf(path), Extension))
		}
		return TitleFromSegment(util.BaseOf(dir))
	}
	return TitleFromSegment(strings.TrimSuffix(util.BaseOf(path), Extension))
}

// TitleFromSegment converts one path segment into a display title:
// dashes and underscores become spaces, runs of whitespace collapse, and
// the result is English title-cased.
func TitleFromSegment(segment string) string {
	segment = strings.ReplaceAll(segment, "-", " ")
	segment = strings.ReplaceAll(segment, "_", " ")
	segment = strings.Join(strings.Fields(segment), " ")
	if segment == "" {
		return ""
	}
	return titleCaser.String(segment)
}

// Slugify converts a page title into a filesystem-friendly filename stem:
// lowercase, alphanumerics kept, everything else collapsed to single
// dashes. An empty or fully non-alphanumeric title yields "untitled".
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}
