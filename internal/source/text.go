package source

import (
	"fmt"
	"io"

	"github.com/dgallion1/pagescan/internal/document"
)

// TextReader handles plain text files. Form feeds separate pages, which is
// what pdftotext and most print-to-text tools emit. A file without form
// feeds is a single page.
type TextReader struct{}

func (p *TextReader) Read(r io.Reader, label string) (document.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return splitFormFeeds(string(data), label), nil
}
