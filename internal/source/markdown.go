package source

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/pagescan/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownReader handles Markdown files using goldmark. Every level-1
// heading starts a new page; text before the first heading is page 1.
type MarkdownReader struct{}

func (p *MarkdownReader) Read(r io.Reader, label string) (document.Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	b := newPageBuilder(label)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			if h.Level == 1 {
				b.breakPage()
			}
			b.write(string(h.Text(src)))
			continue
		}
		b.write(extractText(n, src))
	}
	return b.finish(), nil
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	switch n.Kind() {
	case ast.KindCodeBlock, ast.KindFencedCodeBlock, ast.KindHTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}

	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Value(src))
			if c.HardLineBreak() || c.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(c.Value)
		default:
			buf.WriteString(extractText(c, src))
			if c.Type() == ast.TypeBlock && c.NextSibling() != nil {
				buf.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
