package model

import (
	"strings"
	"unicode/utf8"
)

// RichTextKind discriminates literal text spans from page mentions.
type RichTextKind string

const (
	// SpanText is a literal run of text.
	SpanText RichTextKind = "text"
	// SpanMention renders as a live reference to another page.
	SpanMention RichTextKind = "mention"
)

// ColorDefault is the remote store's unstyled color value.
const ColorDefault = "default"

// Annotations is the set of display attributes on one rich-text span.
type Annotations struct {
	Bold          bool
	Italic        bool
	Strikethrough bool
	Underline     bool
	Code          bool
	// Color is a remote color name; empty is equivalent to "default".
	Color string
}

// IsZero reports whether no annotation is set.
func (a Annotations) IsZero() bool {
	return !a.Bold && !a.Italic && !a.Strikethrough && !a.Underline && !a.Code &&
		(a.Color == "" || a.Color == ColorDefault)
}

// Equal compares two annotation sets, treating an empty color as "default".
func (a Annotations) Equal(other Annotations) bool {
	if a.Color == "" {
		a.Color = ColorDefault
	}
	if other.Color == "" {
		other.Color = ColorDefault
	}
	return a == other
}

// RichText is a minimal run of text, or a page mention, with uniform
// display annotations.
type RichText struct {
	// Kind discriminates text spans from mention spans.
	Kind RichTextKind
	// Content is the literal text. For mentions it is retained as the
	// display text used when rendering back to markdown.
	Content string
	// Annotations are the span's display attributes.
	Annotations Annotations
	// Href is the link target of a text span, empty when unlinked.
	Href string
	// MentionID is the target page id of a mention span.
	MentionID string
}

// Text returns an unannotated text span.
func Text(content string) RichText {
	return RichText{Kind: SpanText, Content: content}
}

// StyledText returns a text span with the given annotations.
func StyledText(content string, a Annotations) RichText {
	return RichText{Kind: SpanText, Content: content, Annotations: a}
}

// LinkText returns a text span linking to href.
func LinkText(content, href string) RichText {
	return RichText{Kind: SpanText, Content: content, Href: href}
}

// Mention returns a mention span referencing the page id, keeping the
// display text.
func Mention(id, display string) RichText {
	return RichText{Kind: SpanMention, Content: display, MentionID: id}
}

// PlainText concatenates the content of all spans.
func PlainText(spans []RichText) string {
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.Content)
	}
	return b.String()
}

// TextLength is the total content length of all spans, in runes. The
// remote store's length ceilings count characters, not bytes.
func TextLength(spans []RichText) int {
	total := 0
	for _, span := range spans {
		total += utf8.RuneCountInString(span.Content)
	}
	return total
}

// MergeRichText coalesces adjacent text spans that share annotations and
// link target. Mention spans are never merged, with text or with each
// other, since each mention is a distinct reference.
func MergeRichText(spans []RichText) []RichText {
	if len(spans) < 2 {
		return spans
	}
	merged := make([]RichText, 0, len(spans))
	for _, span := range spans {
		if len(merged) > 0 && span.Kind == SpanText {
			last := &merged[len(merged)-1]
			if last.Kind == SpanText && last.Href == span.Href && last.Annotations.Equal(span.Annotations) {
				last.Content += span.Content
				continue
			}
		}
		merged = append(merged, span)
	}
	return merged
}

// RichTextLimit is the remote ceiling on characters in one span and on
// the total inline content of one block.
const RichTextLimit = 2000

// ChunkRichText splits a span sequence into groups whose total length
// stays within limit, cutting only at span boundaries and preserving
// order. A single span longer than the limit is first divided into
// limit-sized spans so every group fits. Sequences already within the
// limit come back as one group.
func ChunkRichText(spans []RichText, limit int) [][]RichText {
	if limit <= 0 {
		limit = RichTextLimit
	}
	spans = splitOversized(spans, limit)

	var (
		groups  [][]RichText
		current []RichText
		length  int
	)
	for _, span := range spans {
		spanLen := utf8.RuneCountInString(span.Content)
		if len(current) > 0 && length+spanLen > limit {
			groups = append(groups, current)
			current = nil
			length = 0
		}
		current = append(current, span)
		length += spanLen
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// splitOversized divides any span longer than limit into consecutive
// spans of at most limit runes, keeping kind, annotations, and targets.
func splitOversized(spans []RichText, limit int) []RichText {
	out := make([]RichText, 0, len(spans))
	for _, span := range spans {
		if utf8.RuneCountInString(span.Content) <= limit {
			out = append(out, span)
			continue
		}
		runes := []rune(span.Content)
		for start := 0; start < len(runes); start += limit {
			end := start + limit
			if end > len(runes) {
				end = len(runes)
			}
			part := span
			part.Content = string(runes[start:end])
			out = append(out, part)
		}
	}
	return out
}
