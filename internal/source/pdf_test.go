package source

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/pagescan/internal/document"
)

// buildPDF writes a minimal PDF with one Helvetica text line per page.
// Object offsets in the xref table are computed as the file is written.
func buildPDF(pages ...string) []byte {
	var (
		buf     bytes.Buffer
		offsets []int
	)
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestPDFReader_ReadPages(t *testing.T) {
	data := buildPDF("Auxiliary Power Unit", "The APU bleed valve opens", "APU fire protection")

	src, err := OpenBytes(data, "A220-300_FCOM1.pdf", "FCOM1", Options{})
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer src.Close()

	if src.Label() != "FCOM1" {
		t.Errorf("expected label %q, got %q", "FCOM1", src.Label())
	}
	if src.NumPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", src.NumPages())
	}

	want := map[int]string{1: "Auxiliary Power Unit", 2: "APU bleed valve", 3: "APU fire protection"}
	for page, text := range want {
		got, err := src.Text(page)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if !strings.Contains(got, text) {
			t.Errorf("page %d: expected text containing %q, got %q", page, text, got)
		}
	}
}

func TestPDFReader_OpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ops.pdf")
	if err := os.WriteFile(path, buildPDF("VREF additives"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := OpenFile(path, "OpsManual", Options{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	got, err := src.Text(1)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if !strings.Contains(got, "VREF additives") {
		t.Errorf("expected page text containing %q, got %q", "VREF additives", got)
	}
	if err := src.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestPDFReader_PageOutOfRange(t *testing.T) {
	src, err := OpenBytes(buildPDF("only page"), "one.pdf", "One", Options{})
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	defer src.Close()

	for _, page := range []int{0, 2} {
		if _, err := src.Text(page); !errors.Is(err, document.ErrPageRange) {
			t.Errorf("page %d: expected ErrPageRange, got %v", page, err)
		}
	}
}
