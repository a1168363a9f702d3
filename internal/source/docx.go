package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/pagescan/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXReader handles .docx files. Word documents carry no fixed
// pagination, so every Heading1 paragraph starts a new page.
type DOCXReader struct{}

func (p *DOCXReader) Read(r io.Reader, label string) (document.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := newPageBuilder(label)
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if isDocxTitle(para) {
			b.breakPage()
		}
		b.write(text)
	}
	return b.finish(), nil
}

func isDocxTitle(para *docx.Paragraph) bool {
	if para.Properties == nil || para.Properties.Style == nil {
		return false
	}
	style := para.Properties.Style.Val
	return strings.EqualFold(style, "Heading1") ||
		strings.EqualFold(style, "heading 1") ||
		strings.EqualFold(style, "Title")
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
