// Package model defines the shared document model: typed content blocks
// and styled rich-text spans. Both conversion directions (markdown to
// blocks, blocks to markdown) and the remote connector speak this model,
// so it carries no markdown syntax and no wire-format details.
package model

import "strings"

// BlockKind identifies the content type of a Block.
type BlockKind string

const (
	// KindParagraph is a plain text paragraph.
	KindParagraph BlockKind = "paragraph"
	// KindHeading1 is a top-level heading.
	KindHeading1 BlockKind = "heading_1"
	// KindHeading2 is a second-level heading.
	KindHeading2 BlockKind = "heading_2"
	// KindHeading3 is a third-level heading, the deepest the remote store supports.
	KindHeading3 BlockKind = "heading_3"
	// KindBulletedListItem is one item of an unordered list.
	KindBulletedListItem BlockKind = "bulleted_list_item"
	// KindNumberedListItem is one item of an ordered list.
	KindNumberedListItem BlockKind = "numbered_list_item"
	// KindCode is a fenced code block with a language tag.
	KindCode BlockKind = "code"
	// KindQuote is a block quotation.
	KindQuote BlockKind = "quote"
	// KindTable is a table container; its children are table rows.
	KindTable BlockKind = "table"
	// KindTableRow is a single table row; only meaningful inside a table.
	KindTableRow BlockKind = "table_row"
	// KindImage is a block-level image with an external URL.
	KindImage BlockKind = "image"
)

// IsValid returns true if the kind is one of the supported block kinds.
func (k BlockKind) IsValid() bool {
	switch k {
	case KindParagraph, KindHeading1, KindHeading2, KindHeading3,
		KindBulletedListItem, KindNumberedListItem,
		KindCode, KindQuote, KindTable, KindTableRow, KindImage:
		return true
	}
	return false
}

// HeadingKind returns the block kind for a markdown heading level.
// Levels four through six collapse to level three, the remote ceiling.
func HeadingKind(level int) BlockKind {
	switch level {
	case 1:
		return KindHeading1
	case 2:
		return KindHeading2
	default:
		return KindHeading3
	}
}

// HeadingLevel returns 1-3 for heading kinds and 0 for everything else.
func (k BlockKind) HeadingLevel() int {
	switch k {
	case KindHeading1:
		return 1
	case KindHeading2:
		return 2
	case KindHeading3:
		return 3
	}
	return 0
}

// Block is one node of the document content tree. A block owns its
// children exclusively; the tree carries no parent back-references, so a
// slice of blocks is a rooted forest.
type Block struct {
	// Kind discriminates which of the per-kind fields are meaningful.
	Kind BlockKind
	// RichText is the block's inline content (unused by table and image).
	RichText []RichText
	// Children holds nested blocks: sub-list items under a list item,
	// rows under a table.
	Children []Block

	// Language is the code block's language tag.
	Language string

	// TableWidth is the column count, read from the first row.
	TableWidth int
	// HasColumnHeader marks the first row as a header row.
	HasColumnHeader bool
	// HasRowHeader marks the first cell of each row as a header cell.
	HasRowHeader bool

	// Cells holds a table row's cell contents, one rich-text list per column.
	Cells [][]RichText

	// URL is the image's externally resolvable source.
	URL string
	// Caption is the image's caption, taken from alt text on conversion.
	Caption []RichText
}

// PlainText flattens the block's own inline content, ignoring children.
// Table rows flatten their cells joined by single spaces.
func (b Block) PlainText() string {
	if b.Kind == KindTableRow {
		parts := make([]string, 0, len(b.Cells))
		for _, cell := range b.Cells {
			parts = append(parts, PlainText(cell))
		}
		return strings.Join(parts, " ")
	}
	return PlainText(b.RichText)
}

// MaxBlocksPerRequest is the remote ceiling on blocks per append call.
const MaxBlocksPerRequest = 100

// SplitBatches splits blocks into order-preserving batches of at most
// size elements. A non-positive size falls back to MaxBlocksPerRequest.
// Concatenating the batches yields the original list.
func SplitBatches(blocks []Block, size int) [][]Block {
	if size <= 0 {
		size = MaxBlocksPerRequest
	}
	if len(blocks) == 0 {
		return nil
	}
	batches := make([][]Block, 0, (len(blocks)+size-1)/size)
	for start := 0; start < len(blocks); start += size {
		end := start + size
		if end > len(blocks) {
			end = len(blocks)
		}
		batches = append(batches, blocks[start:end:end])
	}
	return batches
}
