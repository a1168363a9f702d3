package source

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Bullet and arrow glyphs that PDF text layers emit in front of list items.
var glyphStripper = func() *strings.Replacer {
	var pairs []string
	for r := rune(0x25A0); r <= 0x25FF; r++ {
		pairs = append(pairs, string(r), "")
	}
	pairs = append(pairs, "\u0080", "", "\u0089", "", "\u00ad", "", "\ufeff", "")
	return strings.NewReplacer(pairs...)
}()

// Normalize applies NFKC (splitting ligatures such as "ﬁ") and removes
// decorative glyphs. Line structure is preserved.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFKC.String(text)
	text = glyphStripper.Replace(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return text
}
