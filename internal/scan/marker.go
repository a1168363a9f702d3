package scan

import (
	"context"
	"regexp"
	"strings"

	"github.com/dgallion1/pagescan/internal/document"
	"github.com/dgallion1/pagescan/internal/snippet"
)

const (
	DefaultHeaderLines = 20
	maxSectionRunes    = 100
)

// Marker is a page-marker code and the first page it appears on.
type Marker struct {
	Code    string `json:"code"`
	Page    int    `json:"page"`
	Section string `json:"section"`
}

// MarkerOptions configure a marker scan.
type MarkerOptions struct {
	Pattern     *regexp.Regexp
	HeaderLines int // lines from the top of each page; 0 uses DefaultHeaderLines
	StartPage   int
	EndPage     int
}

// dashes folds the dash variants PDF extraction produces for marker codes.
var dashes = strings.NewReplacer("−", "-", "–", "-", "‐", "-", "‑", "-")

// Markers scans the header lines of each page for pattern matches. When
// the pattern has a capture group, the first group is the code. Codes are
// returned in discovery order; the first page per code wins.
func (s *Scanner) Markers(ctx context.Context, src document.Source, opts MarkerOptions) ([]Marker, error) {
	if opts.Pattern == nil {
		return nil, nil
	}
	header := opts.HeaderLines
	if header <= 0 {
		header = DefaultHeaderLines
	}

	first, last := 1, src.NumPages()
	if opts.StartPage > 0 {
		first = opts.StartPage
	}
	if opts.EndPage > 0 && opts.EndPage < last {
		last = opts.EndPage
	}
	if s.opts.MaxPages > 0 && s.opts.MaxPages < last {
		last = s.opts.MaxPages
	}

	seen := make(map[string]bool)
	var out []Marker
	for page := first; page <= last; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		text, ok := s.pageText(src, page)
		if !ok {
			continue
		}

		lines := strings.SplitN(text, "\n", header+1)
		if len(lines) > header {
			lines = lines[:header]
		}
		for _, line := range lines {
			code := matchMarker(opts.Pattern, line)
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			out = append(out, Marker{
				Code:    code,
				Page:    page,
				Section: snippet.Truncate(strings.TrimSpace(line), maxSectionRunes),
			})
		}
	}
	s.log.Debug("marker scan finished", "document", src.Label(), "markers", len(out))
	return out, nil
}

func matchMarker(re *regexp.Regexp, line string) string {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	code := m[0]
	if len(m) > 1 && m[1] != "" {
		code = m[1]
	}
	return dashes.Replace(strings.TrimSpace(code))
}
