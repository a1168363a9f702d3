package document

import (
	"errors"
	"fmt"
)

// ErrPageRange is returned by Text for a page outside 1..NumPages.
var ErrPageRange = errors.New("page out of range")

// Source is an open, paginated document. Pages are 1-indexed.
type Source interface {
	Label() string
	NumPages() int
	// Text returns the plain text of a page. An error means the page text
	// could not be extracted; callers treat it as an empty page.
	Text(page int) (string, error)
	Close() error
}

// PageText is a page number paired with its extracted text.
type PageText struct {
	Page int    // 1-indexed
	Text string // Empty if extraction failed or the page has no text
}

// Pages is an in-memory Source.
type Pages struct {
	label string
	pages []string
}

// FromTexts builds an in-memory Source where texts[0] is page 1.
func FromTexts(label string, texts ...string) *Pages {
	return &Pages{label: label, pages: texts}
}

func (p *Pages) Label() string { return p.label }

func (p *Pages) NumPages() int { return len(p.pages) }

func (p *Pages) Text(page int) (string, error) {
	if page < 1 || page > len(p.pages) {
		return "", fmt.Errorf("page %d of %d: %w", page, len(p.pages), ErrPageRange)
	}
	return p.pages[page-1], nil
}

// Close is a no-op for in-memory pages.
func (p *Pages) Close() error { return nil }

// Append adds a page after the current last page.
func (p *Pages) Append(text string) {
	p.pages = append(p.pages, text)
}

// Collect reads every page of src. Pages whose text cannot be extracted
// are returned with empty text.
func Collect(src Source) []PageText {
	n := src.NumPages()
	out := make([]PageText, 0, n)
	for i := 1; i <= n; i++ {
		text, err := src.Text(i)
		if err != nil {
			text = ""
		}
		out = append(out, PageText{Page: i, Text: text})
	}
	return out
}
