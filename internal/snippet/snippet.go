// Package snippet cuts bounded context windows out of page text.
package snippet

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode selects how context around a match is measured.
type Mode string

const (
	// ModeChars takes Width runes on each side of the match.
	ModeChars Mode = "chars"
	// ModeLines takes Width lines above and below the matching line.
	ModeLines Mode = "lines"
)

// Options control snippet extraction.
type Options struct {
	Mode     Mode
	Width    int // runes or lines on each side, depending on Mode
	MaxRunes int // hard cap on the final snippet, 0 for none
}

// DefaultOptions mirrors the character window used for question lookups:
// 150 runes each side, capped at 200.
func DefaultOptions() Options {
	return Options{
		Mode:     ModeChars,
		Width:    150,
		MaxRunes: 200,
	}
}

// ParseMode accepts "chars"/"characters" and "lines".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chars", "characters", "char":
		return ModeChars, nil
	case "lines", "line":
		return ModeLines, nil
	}
	return "", fmt.Errorf("unknown context mode %q", s)
}

// Around returns the context for the match occupying text[start:end].
// The result never exceeds the configured window.
func Around(text string, start, end int, opts Options) string {
	if start < 0 || end > len(text) || start > end {
		return ""
	}
	width := max(opts.Width, 0)

	var out string
	switch opts.Mode {
	case ModeLines:
		out = lineWindow(text, start, width)
	default:
		out = charWindow(text, start, end, width)
	}
	return Truncate(out, opts.MaxRunes)
}

// Truncate cuts s to at most n runes. n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return strings.TrimSpace(s[:pos])
		}
		i++
	}
	return s
}

func charWindow(text string, start, end, width int) string {
	from := backRunes(text, start, width)
	to := forwardRunes(text, end, width)
	out := strings.ReplaceAll(text[from:to], "\n", " ")
	return strings.TrimSpace(out)
}

func lineWindow(text string, start, width int) string {
	lines := strings.Split(text, "\n")
	lineno := strings.Count(text[:start], "\n")

	from := max(lineno-width, 0)
	to := min(lineno+width+1, len(lines))

	parts := make([]string, 0, to-from)
	for _, line := range lines[from:to] {
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " | ")
}

// backRunes moves pos back by up to n runes.
func backRunes(s string, pos, n int) int {
	for ; n > 0 && pos > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:pos])
		pos -= size
	}
	return pos
}

// forwardRunes moves pos forward by up to n runes.
func forwardRunes(s string, pos, n int) int {
	for ; n > 0 && pos < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[pos:])
		pos += size
	}
	return pos
}
