package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/pagescan/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

var errNullPage = errors.New("page object is null")

// PDFReader opens PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled and available.
type PDFReader struct {
	FallbackPdftotext bool
}

// Open opens the PDF at path. Page text is extracted lazily, so the file
// stays open until the returned source is closed.
func (p *PDFReader) Open(path, label string) (document.Source, error) {
	f, reader, err := pdflib.Open(path)
	if err == nil {
		src, serr := newPDFSource(label, reader, f)
		if serr != nil {
			return nil, serr
		}
		return src, nil
	}
	if !p.FallbackPdftotext {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	pages, ferr := extractPdftotext(path, label)
	if ferr != nil {
		return nil, fmt.Errorf("read pdf: %w (fallback: %v)", err, ferr)
	}
	return pages, nil
}

// Read loads a PDF from r. The bytes are held in memory for the lifetime
// of the returned source.
func (p *PDFReader) Read(r io.Reader, label string) (document.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		src, serr := newPDFSource(label, reader, nil)
		if serr != nil {
			return nil, serr
		}
		return src, nil
	}
	if !p.FallbackPdftotext {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	// pdftotext needs a file on disk.
	tmp, terr := os.CreateTemp("", "pagescan-pdf-*.pdf")
	if terr != nil {
		return nil, fmt.Errorf("create temp file: %w", terr)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, werr := tmp.Write(data); werr != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", werr)
	}
	tmp.Close()

	pages, ferr := extractPdftotext(tmpPath, label)
	if ferr != nil {
		return nil, fmt.Errorf("read pdf: %w (fallback: %v)", err, ferr)
	}
	return pages, nil
}

type pdfSource struct {
	label    string
	reader   *pdflib.Reader
	closer   io.Closer
	numPages int
}

func newPDFSource(label string, reader *pdflib.Reader, closer io.Closer) (src *pdfSource, err error) {
	// NumPage walks the page tree and panics on a broken trailer.
	defer func() {
		if r := recover(); r != nil {
			if closer != nil {
				closer.Close()
			}
			src, err = nil, fmt.Errorf("read page tree: %v", r)
		}
	}()
	return &pdfSource{
		label:    label,
		reader:   reader,
		closer:   closer,
		numPages: reader.NumPage(),
	}, nil
}

func (s *pdfSource) Label() string { return s.label }

func (s *pdfSource) NumPages() int { return s.numPages }

func (s *pdfSource) Text(page int) (text string, err error) {
	if page < 1 || page > s.numPages {
		return "", fmt.Errorf("page %d of %d: %w", page, s.numPages, document.ErrPageRange)
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", page, r)
		}
	}()

	p := s.reader.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d: %w", page, errNullPage)
	}
	raw, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", page, err)
	}
	return Normalize(raw), nil
}

func (s *pdfSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// extractPdftotext runs pdftotext and splits its output into pages on
// form feeds.
func extractPdftotext(path, label string) (*document.Pages, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitFormFeeds(string(out), label), nil
}

// splitFormFeeds keeps empty pages so page numbers stay aligned with the
// source document. A trailing form feed does not start a new page.
func splitFormFeeds(text, label string) *document.Pages {
	text = strings.TrimSuffix(text, "\f")
	pages := document.FromTexts(label)
	if text == "" {
		return pages
	}
	for _, page := range strings.Split(text, "\f") {
		pages.Append(Normalize(page))
	}
	return pages
}
