package scan

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// foldedText is text after NFKC and lower-casing, with a map from folded
// byte offsets back to the text it came from.
type foldedText struct {
	text string
	// starts and ends hold, per folded byte, the source span of the
	// normalization segment it came from. Both are nil when folding kept
	// every offset.
	starts []int
	ends   []int
}

// fold applies the keyword fold to s. Keywords and page text must go
// through the same fold for containment to hold.
func fold(s string) foldedText {
	if isASCII(s) {
		return foldedText{text: strings.ToLower(s)}
	}

	var (
		it     norm.Iter
		b      strings.Builder
		starts = make([]int, 0, len(s))
		ends   = make([]int, 0, len(s))
	)
	b.Grow(len(s))
	it.InitString(norm.NFKC, s)
	for !it.Done() {
		start := it.Pos()
		seg := strings.ToLower(string(it.Next()))
		end := it.Pos()
		b.WriteString(seg)
		for range len(seg) {
			starts = append(starts, start)
			ends = append(ends, end)
		}
	}
	return foldedText{text: b.String(), starts: starts, ends: ends}
}

// span maps the folded range [pos, pos+n) back to source byte offsets.
func (f foldedText) span(pos, n int) (start, end int) {
	if f.starts == nil || n == 0 {
		return pos, pos + n
	}
	return f.starts[pos], f.ends[pos+n-1]
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
