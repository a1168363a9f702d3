package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pagescan/internal/document"
)

// Reader converts raw document bytes into a paginated document.
type Reader interface {
	Read(r io.Reader, label string) (document.Source, error)
}

// Options tune how documents are opened.
type Options struct {
	// FallbackPdftotext runs `pdftotext -layout` when the Go PDF reader
	// cannot open a file.
	FallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".csv":      true,
}

// ForFile returns the appropriate reader for a filename.
func ForFile(filename string, opts Options) (Reader, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFReader{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".txt":
		return &TextReader{}, nil
	case ".md", ".markdown":
		return &MarkdownReader{}, nil
	case ".html", ".htm":
		return &HTMLReader{}, nil
	case ".docx":
		return &DOCXReader{}, nil
	case ".csv":
		return &CSVReader{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// OpenFile opens the document at path. PDFs are read lazily from the file,
// other formats are parsed up front. The caller must Close the source.
// Any failure is returned as an *OpenError.
func OpenFile(path, label string, opts Options) (document.Source, error) {
	rd, err := ForFile(path, opts)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	if label == "" {
		label = DefaultLabel(path)
	}

	if pr, ok := rd.(*PDFReader); ok {
		src, err := pr.Open(path, label)
		if err != nil {
			return nil, &OpenError{Path: path, Err: err}
		}
		return src, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	defer f.Close()

	src, err := rd.Read(f, label)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	return src, nil
}

// OpenBytes parses an in-memory document, picking the reader by filename.
func OpenBytes(data []byte, filename, label string, opts Options) (document.Source, error) {
	rd, err := ForFile(filename, opts)
	if err != nil {
		return nil, &OpenError{Path: filename, Err: err}
	}
	if label == "" {
		label = DefaultLabel(filename)
	}
	src, err := rd.Read(bytes.NewReader(data), label)
	if err != nil {
		return nil, &OpenError{Path: filename, Err: err}
	}
	return src, nil
}

// DefaultLabel derives a document label from a file name: the base name
// without extension.
func DefaultLabel(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// pageBuilder accumulates text into pages for formats without native
// pagination.
type pageBuilder struct {
	pages   *document.Pages
	current strings.Builder
}

func newPageBuilder(label string) *pageBuilder {
	return &pageBuilder{pages: document.FromTexts(label)}
}

// write appends a block of text to the current page.
func (b *pageBuilder) write(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.current.Len() > 0 {
		b.current.WriteString("\n")
	}
	b.current.WriteString(text)
}

// breakPage closes the current page. Empty pages are not emitted.
func (b *pageBuilder) breakPage() {
	if b.current.Len() == 0 {
		return
	}
	b.pages.Append(Normalize(b.current.String()))
	b.current.Reset()
}

func (b *pageBuilder) finish() *document.Pages {
	b.breakPage()
	return b.pages
}
