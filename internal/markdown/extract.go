package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractHrefs returns every link destination in source, in document
// order. Images and bare autolinked URLs are not included.
func ExtractHrefs(source string) []string {
	src := []byte(source)
	doc := engine.Parser().Parse(text.NewReader(src))

	var hrefs []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if link, ok := n.(*ast.Link); ok {
				hrefs = append(hrefs, string(link.Destination))
			}
		}
		return ast.WalkContinue, nil
	})
	return hrefs
}
