package markdown

import (
	"strings"

	"github.com/matthewsinclair/arca-notionex/internal/links"
	"github.com/matthewsinclair/arca-notionex/internal/model"
)

// Sentinel comments encode annotations markdown has no syntax for. They
// are emitted only with PreserveMetadata and are not re-absorbed on the
// way back in; they read as plain comments to any other markdown tool.
const (
	underlineOpen  = "<!--underline-->"
	underlineClose = "<!--/underline-->"
	colorClose     = "<!--/color-->"
)

// RenderOptions controls reverse conversion.
type RenderOptions struct {
	// PreserveMetadata emits sentinel comments for underline and
	// non-default color annotations.
	PreserveMetadata bool
	// IndentLevel indents every rendered block by two spaces per level.
	IndentLevel int
	// Links enables reverse link resolution when non-nil: remote-style
	// links and page mentions become local document links.
	Links *links.Index
}

// ToMarkdown renders a block list to markdown. Blocks are joined by one
// blank line and the result ends in exactly one newline; empty input
// renders to the empty string.
func ToMarkdown(blocks []model.Block, opts RenderOptions) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		s := renderBlock(b, opts)
		if s == "" {
			continue
		}
		if opts.IndentLevel > 0 {
			s = indent(s, opts.IndentLevel)
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func renderBlock(b model.Block, opts RenderOptions) string {
	switch b.Kind {
	case model.KindParagraph:
		return renderSpans(b.RichText, opts)
	case model.KindHeading1, model.KindHeading2, model.KindHeading3:
		prefix := strings.Repeat("#", b.Kind.HeadingLevel()) + " "
		return prefix + oneLine(renderSpans(b.RichText, opts))
	case model.KindBulletedListItem:
		return renderListItem("- ", b, opts)
	case model.KindNumberedListItem:
		return renderListItem("1. ", b, opts)
	case model.KindCode:
		return renderCode(b)
	case model.KindQuote:
		return renderQuote(b, opts)
	case model.KindTable:
		return renderTable(b, opts)
	case model.KindImage:
		return "![" + oneLine(model.PlainText(b.Caption)) + "](" + b.URL + ")"
	default:
		// A table-row outside a table has no rendering.
		return ""
	}
}

func renderListItem(marker string, b model.Block, opts RenderOptions) string {
	var sb strings.Builder
	sb.WriteString(marker)
	sb.WriteString(renderSpans(b.RichText, opts))

	for _, child := range b.Children {
		s := renderBlock(child, opts)
		if s == "" {
			continue
		}
		// Sibling list items attach tightly; anything else needs a blank
		// line to stay a separate block when parsed back.
		if child.Kind == model.KindBulletedListItem || child.Kind == model.KindNumberedListItem {
			sb.WriteString("\n")
		} else {
			sb.WriteString("\n\n")
		}
		sb.WriteString(indent(s, 1))
	}
	return sb.String()
}

func renderCode(b model.Block) string {
	content := model.PlainText(b.RichText)
	lang := b.Language
	if lang == DefaultCodeLanguage {
		lang = ""
	}
	fence := codeFence(content)
	return fence + lang + "\n" + content + "\n" + fence
}

// codeFence returns a backtick fence longer than any backtick run in the
// content.
func codeFence(content string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	n := 3
	if longest >= 3 {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}

func renderQuote(b model.Block, opts RenderOptions) string {
	text := renderSpans(b.RichText, opts)
	for _, child := range b.Children {
		s := renderBlock(child, opts)
		if s == "" {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += s
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

func renderTable(b model.Block, opts RenderOptions) string {
	width := b.TableWidth
	var rows []string
	for _, row := range b.Children {
		if row.Kind != model.KindTableRow {
			continue
		}
		if width == 0 {
			width = len(row.Cells)
		}
		rows = append(rows, renderTableRow(row, width, opts))
	}
	if len(rows) == 0 || width == 0 {
		return ""
	}

	if b.HasColumnHeader {
		sep := "|" + strings.Repeat(" --- |", width)
		rows = append(rows[:1], append([]string{sep}, rows[1:]...)...)
	}
	return strings.Join(rows, "\n")
}

func renderTableRow(row model.Block, width int, opts RenderOptions) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		var cell string
		if i < len(row.Cells) {
			cell = renderSpans(row.Cells[i], opts)
		}
		cell = strings.ReplaceAll(oneLine(cell), "|", "\\|")
		sb.WriteString(" " + cell + " |")
	}
	return sb.String()
}

func renderSpans(spans []model.RichText, opts RenderOptions) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(renderSpan(s, opts))
	}
	return sb.String()
}

// renderSpan wraps one span's content in a fixed order: code, bold,
// italic, strikethrough, link, then the metadata sentinels.
func renderSpan(s model.RichText, opts RenderOptions) string {
	if s.Content == "" && s.Href == "" {
		return ""
	}

	a := s.Annotations
	text := s.Content
	if a.Code {
		text = "`" + text + "`"
	}
	if a.Bold {
		text = "**" + text + "**"
	}
	if a.Italic {
		text = "*" + text + "*"
	}
	if a.Strikethrough {
		text = "~~" + text + "~~"
	}

	switch s.Kind {
	case model.SpanMention:
		// A mention renders as a local link when the id maps back to a
		// document, bare text otherwise.
		if opts.Links != nil {
			if path, ok := opts.Links.PathFor(s.MentionID); ok {
				text = "[" + text + "](" + path + ")"
			}
		}
	default:
		if s.Href != "" {
			href := s.Href
			if opts.Links != nil {
				if local, ok := opts.Links.ResolveReverse(href); ok {
					href = local
				}
			}
			text = "[" + text + "](" + href + ")"
		}
	}

	if opts.PreserveMetadata {
		if a.Underline {
			text = underlineOpen + text + underlineClose
		}
		if a.Color != "" && a.Color != model.ColorDefault {
			text = "<!--color:" + a.Color + "-->" + text + colorClose
		}
	}
	return text
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

func indent(s string, level int) string {
	prefix := strings.Repeat("  ", level)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
