// Package markdown converts between markdown source and the block tree.
// Forward conversion parses CommonMark plus the table and strikethrough
// extensions; reverse conversion renders blocks back to markdown.
// Conversion is lossy only where the target formats genuinely disagree:
// headings deeper than three collapse, non-external images drop, and
// underline/color annotations survive only behind sentinel comments.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	gutil "github.com/yuin/goldmark/util"

	"github.com/matthewsinclair/arca-notionex/internal/links"
	"github.com/matthewsinclair/arca-notionex/internal/model"
)

// DefaultCodeLanguage is the language tag used when a code fence has no
// info string. The remote store rejects an empty language.
const DefaultCodeLanguage = "plain text"

// maxNestDepth bounds list recursion; deeper levels flatten to this
// depth instead of nesting further.
const maxNestDepth = 32

var engine = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
)

// ConvertOptions controls link handling during forward conversion.
type ConvertOptions struct {
	// Links enables link resolution when non-nil: document hrefs that
	// resolve through the index become page mentions.
	Links *links.Index
	// CurrentPath is the converting document's path, the base for
	// relative hrefs.
	CurrentPath string
	// SkipChildLinks demotes links into strict-descendant directories to
	// plain text. Index documents use this so their body does not repeat
	// the child pages the remote store already lists.
	SkipChildLinks bool
}

// ToBlocks converts markdown source to a flat block list.
func ToBlocks(source string, opts ConvertOptions) []model.Block {
	c := &converter{source: []byte(source), opts: opts}
	doc := engine.Parser().Parse(text.NewReader(c.source))

	var blocks []model.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, c.convert(n, 0)...)
	}
	return blocks
}

// ToBatches converts markdown source and pre-splits the result into
// submission batches the remote store accepts in one call.
func ToBatches(source string, opts ConvertOptions) [][]model.Block {
	return model.SplitBatches(ToBlocks(source, opts), model.MaxBlocksPerRequest)
}

type converter struct {
	source []byte
	opts   ConvertOptions
}

func (c *converter) convert(n ast.Node, depth int) []model.Block {
	switch n := n.(type) {
	case *ast.Heading:
		return []model.Block{{
			Kind:     model.HeadingKind(n.Level),
			RichText: c.mergedInlines(n, inlineState{}),
		}}
	case *ast.Paragraph:
		return c.paragraph(n)
	case *ast.TextBlock:
		return c.paragraph(n)
	case *ast.List:
		return c.listItems(n, depth)
	case *ast.FencedCodeBlock:
		return c.code(string(n.Language(c.source)), c.rawLines(n))
	case *ast.CodeBlock:
		return c.code("", c.rawLines(n))
	case *ast.Blockquote:
		return c.quote(n)
	case *east.Table:
		return c.table(n)
	default:
		// Thematic breaks and raw HTML have no block counterpart.
		return nil
	}
}

// paragraph converts a paragraph node. A paragraph whose only content is
// an image is promoted to an image block; otherwise the rich text is
// chunked so no resulting paragraph exceeds the remote length ceiling.
func (c *converter) paragraph(n ast.Node) []model.Block {
	if img, ok := soleImage(n); ok {
		return c.image(img)
	}

	spans := c.mergedInlines(n, inlineState{})
	if len(spans) == 0 {
		return nil
	}

	groups := model.ChunkRichText(spans, model.RichTextLimit)
	blocks := make([]model.Block, 0, len(groups))
	for _, g := range groups {
		blocks = append(blocks, model.Block{Kind: model.KindParagraph, RichText: g})
	}
	return blocks
}

func soleImage(n ast.Node) (*ast.Image, bool) {
	if n.ChildCount() != 1 {
		return nil, false
	}
	img, ok := n.FirstChild().(*ast.Image)
	return img, ok
}

// image converts a promoted image. Only externally resolvable URLs
// produce a block; everything else drops without error.
func (c *converter) image(img *ast.Image) []model.Block {
	url := strings.TrimSpace(string(img.Destination))
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil
	}
	return []model.Block{{
		Kind:    model.KindImage,
		URL:     url,
		Caption: c.mergedInlines(img, inlineState{}),
	}}
}

func (c *converter) code(lang, content string) []model.Block {
	if lang == "" {
		lang = DefaultCodeLanguage
	}
	content = strings.TrimSuffix(content, "\n")

	// A single code span may exceed the per-span ceiling; split it into
	// ceiling-sized spans within the one block.
	spans := []model.RichText{model.Text(content)}
	if model.TextLength(spans) > model.RichTextLimit {
		spans = nil
		for _, g := range model.ChunkRichText([]model.RichText{model.Text(content)}, model.RichTextLimit) {
			spans = append(spans, g...)
		}
	}

	return []model.Block{{Kind: model.KindCode, RichText: spans, Language: lang}}
}

// quote flattens everything inside a blockquote into one rich-text
// sequence, paragraphs separated by literal newlines.
func (c *converter) quote(n *ast.Blockquote) []model.Block {
	spans := c.flattenQuote(n)
	if len(spans) == 0 {
		return nil
	}
	return []model.Block{{Kind: model.KindQuote, RichText: model.MergeRichText(spans)}}
}

func (c *converter) flattenQuote(n ast.Node) []model.RichText {
	var spans []model.RichText
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		var part []model.RichText
		switch child.Kind() {
		case ast.KindParagraph, ast.KindTextBlock, ast.KindHeading:
			part = c.inlines(child, inlineState{})
		case ast.KindBlockquote, ast.KindList, ast.KindListItem:
			part = c.flattenQuote(child)
		}
		if len(part) == 0 {
			continue
		}
		if len(spans) > 0 {
			spans = append(spans, model.Text("\n"))
		}
		spans = append(spans, part...)
	}
	return spans
}

func (c *converter) listItems(list *ast.List, depth int) []model.Block {
	kind := model.KindBulletedListItem
	if list.IsOrdered() {
		kind = model.KindNumberedListItem
	}

	var out []model.Block
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		block := model.Block{Kind: kind}
		var hoisted []model.Block

		for part := item.FirstChild(); part != nil; part = part.NextSibling() {
			switch part.Kind() {
			case ast.KindTextBlock, ast.KindParagraph:
				spans := c.mergedInlines(part, inlineState{})
				if block.RichText == nil {
					block.RichText = spans
					continue
				}
				// A loose item's later paragraphs nest under the item.
				block.Children = append(block.Children, model.Block{Kind: model.KindParagraph, RichText: spans})
			case ast.KindList:
				nested := part.(*ast.List)
				if depth+1 >= maxNestDepth {
					hoisted = append(hoisted, c.listItems(nested, depth)...)
					continue
				}
				block.Children = append(block.Children, c.listItems(nested, depth+1)...)
			default:
				block.Children = append(block.Children, c.convert(part, depth+1)...)
			}
		}

		out = append(out, block)
		out = append(out, hoisted...)
	}
	return out
}

// table converts a GFM table. The header group supplies the header row;
// every row is padded or cut to the first row's width. A table without
// rows produces no block.
func (c *converter) table(t *east.Table) []model.Block {
	var cells [][][]model.RichText
	hasHeader := false

	for child := t.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case east.KindTableHeader:
			hasHeader = true
			cells = append(cells, c.rowCells(child))
		case east.KindTableRow:
			cells = append(cells, c.rowCells(child))
		}
	}
	if len(cells) == 0 {
		return nil
	}

	width := len(cells[0])
	if width == 0 {
		return nil
	}

	rows := make([]model.Block, 0, len(cells))
	for _, row := range cells {
		for len(row) < width {
			row = append(row, []model.RichText{})
		}
		rows = append(rows, model.Block{Kind: model.KindTableRow, Cells: row[:width]})
	}

	return []model.Block{{
		Kind:            model.KindTable,
		TableWidth:      width,
		HasColumnHeader: hasHeader,
		Children:        rows,
	}}
}

func (c *converter) rowCells(row ast.Node) [][]model.RichText {
	var cells [][]model.RichText
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		spans := c.mergedInlines(cell, inlineState{})
		if spans == nil {
			spans = []model.RichText{}
		}
		cells = append(cells, spans)
	}
	return cells
}

// inlineState carries the annotation set and link target accumulated
// while descending through nested inline markup.
type inlineState struct {
	ann  model.Annotations
	href string
}

func (c *converter) mergedInlines(parent ast.Node, st inlineState) []model.RichText {
	return model.MergeRichText(c.inlines(parent, st))
}

func (c *converter) inlines(parent ast.Node, st inlineState) []model.RichText {
	var spans []model.RichText
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		spans = append(spans, c.inline(n, st)...)
	}
	return spans
}

func (c *converter) inline(n ast.Node, st inlineState) []model.RichText {
	switch n := n.(type) {
	case *ast.Text:
		content := string(n.Segment.Value(c.source))
		if !st.ann.Code {
			content = unescape(content)
		}
		if n.SoftLineBreak() || n.HardLineBreak() {
			content += "\n"
		}
		if content == "" {
			return nil
		}
		return []model.RichText{c.span(content, st)}
	case *ast.String:
		return []model.RichText{c.span(string(n.Value), st)}
	case *ast.CodeSpan:
		st.ann.Code = true
		return c.inlines(n, st)
	case *ast.Emphasis:
		if n.Level >= 2 {
			st.ann.Bold = true
		} else {
			st.ann.Italic = true
		}
		return c.inlines(n, st)
	case *east.Strikethrough:
		st.ann.Strikethrough = true
		return c.inlines(n, st)
	case *ast.Link:
		return c.link(n, st)
	case *ast.AutoLink:
		label := string(n.Label(c.source))
		st.href = string(n.URL(c.source))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(st.href, "mailto:") {
			st.href = "mailto:" + st.href
		}
		return []model.RichText{c.span(label, st)}
	case *ast.Image, *ast.RawHTML:
		// Inline images and raw HTML have no span counterpart.
		return nil
	default:
		if n.HasChildren() {
			return c.inlines(n, st)
		}
		return nil
	}
}

func (c *converter) link(n *ast.Link, st inlineState) []model.RichText {
	href := string(n.Destination)

	if c.opts.Links != nil {
		if c.opts.SkipChildLinks && links.IsChildLink(href, c.opts.CurrentPath) {
			st.href = ""
			return c.inlines(n, st)
		}
		res := c.opts.Links.ResolveForMention(href, c.opts.CurrentPath)
		if res.Kind == links.ResolvedMention {
			m := model.Mention(res.ID, model.PlainText(c.inlines(n, inlineState{})))
			m.Annotations = st.ann
			return []model.RichText{m}
		}
		href = res.Href
	}

	st.href = href
	return c.inlines(n, st)
}

func (c *converter) span(content string, st inlineState) model.RichText {
	return model.RichText{
		Kind:        model.SpanText,
		Content:     content,
		Annotations: st.ann,
		Href:        st.href,
	}
}

func (c *converter) rawLines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(c.source))
	}
	return sb.String()
}

// unescape resolves backslash escapes the parser leaves in raw text
// segments.
func unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && gutil.IsPunct(s[i+1]) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
