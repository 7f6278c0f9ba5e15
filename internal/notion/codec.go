package notion

import (
	"github.com/jomei/notionapi"

	"github.com/matthewsinclair/arca-notionex/internal/model"
)

// encodeBlocks maps model blocks to the wire block types, children
// included.
func encodeBlocks(blocks []model.Block) []notionapi.Block {
	if len(blocks) == 0 {
		return nil
	}
	out := make([]notionapi.Block, 0, len(blocks))
	for _, b := range blocks {
		if nb := encodeBlock(b); nb != nil {
			out = append(out, nb)
		}
	}
	return out
}

func encodeChildren(blocks []model.Block) notionapi.Blocks {
	encoded := encodeBlocks(blocks)
	if encoded == nil {
		return nil
	}
	return notionapi.Blocks(encoded)
}

func encodeBlock(b model.Block) notionapi.Block {
	switch b.Kind {
	case model.KindParagraph:
		return &notionapi.ParagraphBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeParagraph),
			Paragraph: notionapi.Paragraph{
				RichText: encodeRichText(b.RichText),
				Children: encodeChildren(b.Children),
			},
		}
	case model.KindHeading1:
		return &notionapi.Heading1Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading1),
			Heading1:   notionapi.Heading{RichText: encodeRichText(b.RichText)},
		}
	case model.KindHeading2:
		return &notionapi.Heading2Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading2),
			Heading2:   notionapi.Heading{RichText: encodeRichText(b.RichText)},
		}
	case model.KindHeading3:
		return &notionapi.Heading3Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading3),
			Heading3:   notionapi.Heading{RichText: encodeRichText(b.RichText)},
		}
	case model.KindBulletedListItem:
		return &notionapi.BulletedListItemBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeBulletedListItem),
			BulletedListItem: notionapi.ListItem{
				RichText: encodeRichText(b.RichText),
				Children: encodeChildren(b.Children),
			},
		}
	case model.KindNumberedListItem:
		return &notionapi.NumberedListItemBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeNumberedListItem),
			NumberedListItem: notionapi.ListItem{
				RichText: encodeRichText(b.RichText),
				Children: encodeChildren(b.Children),
			},
		}
	case model.KindCode:
		return &notionapi.CodeBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeCode),
			Code: notionapi.Code{
				RichText: encodeRichText(b.RichText),
				Language: b.Language,
			},
		}
	case model.KindQuote:
		return &notionapi.QuoteBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeQuote),
			Quote: notionapi.Quote{
				RichText: encodeRichText(b.RichText),
				Children: encodeChildren(b.Children),
			},
		}
	case model.KindTable:
		return &notionapi.TableBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeTableBlock),
			Table: notionapi.Table{
				TableWidth:      b.TableWidth,
				HasColumnHeader: b.HasColumnHeader,
				HasRowHeader:    b.HasRowHeader,
				Children:        encodeChildren(b.Children),
			},
		}
	case model.KindTableRow:
		return &notionapi.TableRowBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeTableRowBlock),
			TableRow:   notionapi.TableRow{Cells: encodeCells(b.Cells)},
		}
	case model.KindImage:
		return &notionapi.ImageBlock{
			BasicBlock: basicBlock(notionapi.BlockTypeImage),
			Image: notionapi.Image{
				Type:     notionapi.FileTypeExternal,
				External: &notionapi.FileObject{URL: b.URL},
				Caption:  encodeRichText(b.Caption),
			},
		}
	default:
		return nil
	}
}

func basicBlock(t notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: t}
}

func encodeCells(cells [][]model.RichText) [][]notionapi.RichText {
	out := make([][]notionapi.RichText, len(cells))
	for i, cell := range cells {
		encoded := encodeRichText(cell)
		if encoded == nil {
			encoded = []notionapi.RichText{}
		}
		out[i] = encoded
	}
	return out
}

func encodeRichText(spans []model.RichText) []notionapi.RichText {
	if len(spans) == 0 {
		return nil
	}
	out := make([]notionapi.RichText, len(spans))
	for i, s := range spans {
		out[i] = encodeSpan(s)
	}
	return out
}

func encodeSpan(s model.RichText) notionapi.RichText {
	ann := encodeAnnotations(s.Annotations)

	if s.Kind == model.SpanMention {
		// The span type is inferred server-side from the mention payload.
		return notionapi.RichText{
			Mention: &notionapi.Mention{
				Type: notionapi.MentionTypePage,
				Page: &notionapi.PageMention{ID: notionapi.ObjectID(s.MentionID)},
			},
			Annotations: ann,
			PlainText:   s.Content,
		}
	}

	rt := notionapi.RichText{
		Type:        notionapi.ObjectTypeText,
		Text:        &notionapi.Text{Content: s.Content},
		Annotations: ann,
		PlainText:   s.Content,
	}
	if s.Href != "" {
		rt.Text.Link = &notionapi.Link{Url: s.Href}
		rt.Href = s.Href
	}
	return rt
}

func encodeAnnotations(a model.Annotations) *notionapi.Annotations {
	if a.IsZero() {
		return nil
	}
	color := a.Color
	if color == "" {
		color = model.ColorDefault
	}
	return &notionapi.Annotations{
		Bold:          a.Bold,
		Italic:        a.Italic,
		Strikethrough: a.Strikethrough,
		Underline:     a.Underline,
		Code:          a.Code,
		Color:         notionapi.Color(color),
	}
}

// decodeBlock maps one wire block back to the model. Kinds with no model
// counterpart (child pages, dividers, toggles, ...) report false.
func decodeBlock(nb notionapi.Block) (model.Block, bool) {
	switch t := nb.(type) {
	case *notionapi.ParagraphBlock:
		return model.Block{
			Kind:     model.KindParagraph,
			RichText: decodeRichText(t.Paragraph.RichText),
			Children: decodeBlocks(t.Paragraph.Children),
		}, true
	case *notionapi.Heading1Block:
		return model.Block{Kind: model.KindHeading1, RichText: decodeRichText(t.Heading1.RichText)}, true
	case *notionapi.Heading2Block:
		return model.Block{Kind: model.KindHeading2, RichText: decodeRichText(t.Heading2.RichText)}, true
	case *notionapi.Heading3Block:
		return model.Block{Kind: model.KindHeading3, RichText: decodeRichText(t.Heading3.RichText)}, true
	case *notionapi.BulletedListItemBlock:
		return model.Block{
			Kind:     model.KindBulletedListItem,
			RichText: decodeRichText(t.BulletedListItem.RichText),
			Children: decodeBlocks(t.BulletedListItem.Children),
		}, true
	case *notionapi.NumberedListItemBlock:
		return model.Block{
			Kind:     model.KindNumberedListItem,
			RichText: decodeRichText(t.NumberedListItem.RichText),
			Children: decodeBlocks(t.NumberedListItem.Children),
		}, true
	case *notionapi.CodeBlock:
		return model.Block{
			Kind:     model.KindCode,
			RichText: decodeRichText(t.Code.RichText),
			Language: t.Code.Language,
		}, true
	case *notionapi.QuoteBlock:
		return model.Block{
			Kind:     model.KindQuote,
			RichText: decodeRichText(t.Quote.RichText),
			Children: decodeBlocks(t.Quote.Children),
		}, true
	case *notionapi.TableBlock:
		return model.Block{
			Kind:            model.KindTable,
			TableWidth:      t.Table.TableWidth,
			HasColumnHeader: t.Table.HasColumnHeader,
			HasRowHeader:    t.Table.HasRowHeader,
			Children:        decodeBlocks(t.Table.Children),
		}, true
	case *notionapi.TableRowBlock:
		return model.Block{Kind: model.KindTableRow, Cells: decodeCells(t.TableRow.Cells)}, true
	case *notionapi.ImageBlock:
		url := ""
		switch {
		case t.Image.External != nil:
			url = t.Image.External.URL
		case t.Image.File != nil:
			url = t.Image.File.URL
		}
		return model.Block{Kind: model.KindImage, URL: url, Caption: decodeRichText(t.Image.Caption)}, true
	default:
		return model.Block{}, false
	}
}

func decodeBlocks(raw notionapi.Blocks) []model.Block {
	var out []model.Block
	for _, nb := range raw {
		if b, ok := decodeBlock(nb); ok {
			out = append(out, b)
		}
	}
	return out
}

func decodeCells(cells [][]notionapi.RichText) [][]model.RichText {
	out := make([][]model.RichText, len(cells))
	for i, cell := range cells {
		decoded := decodeRichText(cell)
		if decoded == nil {
			decoded = []model.RichText{}
		}
		out[i] = decoded
	}
	return out
}

func decodeRichText(spans []notionapi.RichText) []model.RichText {
	if len(spans) == 0 {
		return nil
	}
	out := make([]model.RichText, len(spans))
	for i, rt := range spans {
		out[i] = decodeSpan(rt)
	}
	return out
}

func decodeSpan(rt notionapi.RichText) model.RichText {
	ann := decodeAnnotations(rt.Annotations)

	if rt.Mention != nil {
		id := ""
		if rt.Mention.Page != nil {
			id = string(rt.Mention.Page.ID)
		}
		return model.RichText{
			Kind:        model.SpanMention,
			Content:     rt.PlainText,
			MentionID:   id,
			Annotations: ann,
		}
	}

	content := rt.PlainText
	href := rt.Href
	if rt.Text != nil {
		if rt.Text.Content != "" {
			content = rt.Text.Content
		}
		if rt.Text.Link != nil && rt.Text.Link.Url != "" {
			href = rt.Text.Link.Url
		}
	}
	return model.RichText{Kind: model.SpanText, Content: content, Annotations: ann, Href: href}
}

func decodeAnnotations(a *notionapi.Annotations) model.Annotations {
	if a == nil {
		return model.Annotations{}
	}
	return model.Annotations{
		Bold:          a.Bold,
		Italic:        a.Italic,
		Strikethrough: a.Strikethrough,
		Underline:     a.Underline,
		Code:          a.Code,
		Color:         string(a.Color),
	}
}

func plainText(spans []notionapi.RichText) string {
	out := ""
	for _, rt := range spans {
		if rt.PlainText != "" {
			out += rt.PlainText
			continue
		}
		if rt.Text != nil {
			out += rt.Text.Content
		}
	}
	return out
}
