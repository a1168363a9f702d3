package source

import (
	"strings"
	"testing"
)

func TestTextReader_FormFeedPages(t *testing.T) {
	input := "Page one line one.\nPage one line two.\fPage two.\fPage three."
	p := &TextReader{}
	src, err := p.Read(strings.NewReader(input), "notes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.Label() != "notes" {
		t.Errorf("expected label %q, got %q", "notes", src.Label())
	}
	if src.NumPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", src.NumPages())
	}

	want := []string{
		"Page one line one.\nPage one line two.",
		"Page two.",
		"Page three.",
	}
	for i, w := range want {
		got, err := src.Text(i + 1)
		if err != nil {
			t.Fatalf("page %d: unexpected error: %v", i+1, err)
		}
		if got != w {
			t.Errorf("page %d: expected %q, got %q", i+1, w, got)
		}
	}
}

func TestTextReader_EmptyInput(t *testing.T) {
	p := &TextReader{}
	src, err := p.Read(strings.NewReader(""), "empty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.NumPages() != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", src.NumPages())
	}
}

func TestTextReader_NoFormFeedIsSinglePage(t *testing.T) {
	p := &TextReader{}
	src, err := p.Read(strings.NewReader("Hello world\n\nSecond paragraph"), "single")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", src.NumPages())
	}
}

func TestTextReader_EmptyPagesKeepNumbering(t *testing.T) {
	// Blank pages must not shift the numbers of the pages after them.
	p := &TextReader{}
	src, err := p.Read(strings.NewReader("one\f\fthree\f"), "gaps")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.NumPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", src.NumPages())
	}
	if got, _ := src.Text(2); got != "" {
		t.Errorf("expected page 2 to be empty, got %q", got)
	}
	if got, _ := src.Text(3); got != "three" {
		t.Errorf("expected page 3 %q, got %q", "three", got)
	}
}

func TestTextReader_PageOutOfRange(t *testing.T) {
	p := &TextReader{}
	src, err := p.Read(strings.NewReader("only"), "one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := src.Text(0); err == nil {
		t.Error("expected error for page 0")
	}
	if _, err := src.Text(2); err == nil {
		t.Error("expected error for page 2")
	}
}
