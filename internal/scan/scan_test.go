package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/pagescan/internal/document"
	"github.com/dgallion1/pagescan/internal/snippet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanTexts(t *testing.T, texts []string, topics []Topic, opts Options) *Result {
	t.Helper()
	res, err := ScanTexts(context.Background(), texts, topics, opts)
	require.NoError(t, err)
	return res
}

func TestScanBleedExample(t *testing.T) {
	pages := []string{"", "no relevant text", "The APU bleed valve opens at altitude"}
	topics := []Topic{{Name: "Bleed", Keywords: []string{"apu bleed"}}}

	res := scanTexts(t, pages, topics, DefaultOptions())

	require.Len(t, res.Matches["Bleed"], 1)
	m := res.Matches["Bleed"][0]
	assert.Equal(t, 3, m.Page)
	assert.Equal(t, "apu bleed", m.Keyword)
	assert.Contains(t, m.Context, "APU bleed valve")
	assert.Equal(t, 1, res.PagesSkipped)
	assert.Equal(t, 2, res.PagesScanned)
}

func TestScanAbsentTopic(t *testing.T) {
	pages := []string{"APU start", "APU bleed", "engine fire"}
	topics := []Topic{{Name: "Fire", Keywords: []string{"apu fire"}}}

	res := scanTexts(t, pages, topics, DefaultOptions())

	_, ok := res.Matches["Fire"]
	assert.False(t, ok)
	assert.Empty(t, res.Matches)
	assert.Equal(t, []string{"Fire"}, res.Missing(topics))
}

func TestScanMaxPages(t *testing.T) {
	pages := []string{"nothing", "still nothing", "APU bleed valve"}
	topics := []Topic{{Name: "Bleed", Keywords: []string{"apu bleed"}}}

	opts := DefaultOptions()
	opts.MaxPages = 2
	res := scanTexts(t, pages, topics, opts)

	assert.Empty(t, res.Matches)
	assert.Equal(t, 2, res.PagesScanned)
}

func TestScanCaseInsensitive(t *testing.T) {
	for _, text := range []string{"the apu is off", "The Apu is off", "THE APU IS OFF"} {
		res := scanTexts(t, []string{text}, []Topic{{Name: "APU", Keywords: []string{"APU"}}}, DefaultOptions())
		assert.True(t, res.Found("APU"), "text %q", text)
	}
}

func TestScanFirstMatchIsLowestPage(t *testing.T) {
	pages := []string{
		"cover",
		"IRS alignment",
		"GPS status and IRS alignment",
		"IRS alignment again",
	}
	topics := []Topic{{Name: "Nav", Keywords: []string{"gps", "irs alignment"}}}

	res := scanTexts(t, pages, topics, DefaultOptions())

	m, ok := res.Primary("Nav")
	require.True(t, ok)
	assert.Equal(t, 2, m.Page)
	assert.Equal(t, "irs alignment", m.Keyword)
	assert.Equal(t, []int{2, 3, 4}, res.Pages("Nav"))
	assert.Equal(t, map[string]int{"Nav": 2}, res.PrimaryPages())
}

func TestScanOneMatchPerTopicPerPage(t *testing.T) {
	pages := []string{"GPS status. IRS alignment. GPS again."}
	topics := []Topic{{Name: "Nav", Keywords: []string{"irs alignment", "gps"}}}

	res := scanTexts(t, pages, topics, DefaultOptions())

	require.Len(t, res.Matches["Nav"], 1)
	// Keyword list order breaks ties on one page, not position in the text.
	assert.Equal(t, "irs alignment", res.Matches["Nav"][0].Keyword)
}

func TestScanKeywordKeepsListSpelling(t *testing.T) {
	res := scanTexts(t, []string{"weather radar test"}, []Topic{{Name: "WXR", Keywords: []string{"Weather Radar"}}}, DefaultOptions())
	require.True(t, res.Found("WXR"))
	assert.Equal(t, "Weather Radar", res.Matches["WXR"][0].Keyword)
}

func TestScanContextBounded(t *testing.T) {
	long := strings.Repeat("filler text ", 2000) + "TCAS RA" + strings.Repeat(" more filler", 2000)
	topics := []Topic{{Name: "TCAS", Keywords: []string{"tcas"}}}

	t.Run("chars", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Context = snippet.Options{Mode: snippet.ModeChars, Width: 50}
		res := scanTexts(t, []string{long}, topics, opts)
		ctx := res.Matches["TCAS"][0].Context
		assert.Contains(t, ctx, "TCAS RA")
		assert.LessOrEqual(t, len([]rune(ctx)), 50+len("tcas")+50)
	})

	t.Run("max runes", func(t *testing.T) {
		opts := DefaultOptions()
		res := scanTexts(t, []string{long}, topics, opts)
		assert.LessOrEqual(t, len([]rune(res.Matches["TCAS"][0].Context)), 200)
	})

	t.Run("lines", func(t *testing.T) {
		lines := make([]string, 0, 1001)
		for i := range 1000 {
			lines = append(lines, fmt.Sprintf("line %d", i))
		}
		lines = append(lines[:500], append([]string{"TCAS test"}, lines[500:]...)...)
		opts := DefaultOptions()
		opts.Context = snippet.Options{Mode: snippet.ModeLines, Width: 2}
		res := scanTexts(t, []string{strings.Join(lines, "\n")}, topics, opts)
		ctx := res.Matches["TCAS"][0].Context
		assert.Len(t, strings.Split(ctx, " | "), 5)
		assert.Equal(t, "line 498 | line 499 | TCAS test | line 500 | line 501", ctx)
	})
}

func TestScanPageRange(t *testing.T) {
	pages := []string{"APU bleed", "APU bleed", "APU bleed", "APU bleed"}
	topics := []Topic{{Name: "Bleed", Keywords: []string{"apu bleed"}, StartPage: 2, EndPage: 3}}

	res := scanTexts(t, pages, topics, DefaultOptions())

	assert.Equal(t, []int{2, 3}, res.Pages("Bleed"))
}

func TestScanPageRangeDoesNotReadOutsideRanges(t *testing.T) {
	src := &countingSource{Pages: document.FromTexts("FCOM1", "a", "b", "APU", "d", "e")}
	topics := []Topic{{Name: "APU", Keywords: []string{"apu"}, StartPage: 2, EndPage: 3}}

	res, err := NewScanner(DefaultOptions(), nil).Scan(context.Background(), src, topics)
	require.NoError(t, err)

	assert.Equal(t, []int{3}, res.Pages("APU"))
	assert.Equal(t, []int{2, 3}, src.read)
	assert.Equal(t, "FCOM1", res.Label)
}

func TestScanFirstOnlyStopsEarly(t *testing.T) {
	src := &countingSource{Pages: document.FromTexts("", "APU start", "engine start", "APU again", "engine again")}
	topics := []Topic{
		{Name: "APU", Keywords: []string{"apu"}},
		{Name: "Engine", Keywords: []string{"engine"}},
	}

	opts := DefaultOptions()
	opts.FirstOnly = true
	res, err := NewScanner(opts, nil).Scan(context.Background(), src, topics)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, res.Pages("APU"))
	assert.Equal(t, []int{2}, res.Pages("Engine"))
	assert.Equal(t, []int{1, 2}, src.read)
	assert.Equal(t, 2, res.StoppedAt)
	assert.Equal(t, []string{"APU", "Engine"}, res.Topics())
}

func TestScanSkipsFailedPages(t *testing.T) {
	src := &failingSource{Pages: document.FromTexts("doc", "APU one", "APU two", "APU three"), fail: 1}
	topics := []Topic{{Name: "APU", Keywords: []string{"apu"}}}

	res, err := NewScanner(DefaultOptions(), nil).Scan(context.Background(), src, topics)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, res.Pages("APU"))
	assert.Equal(t, 1, res.PagesSkipped)
}

func TestScanWorkersMatchSequential(t *testing.T) {
	pages := make([]string, 0, 200)
	for i := range 200 {
		switch {
		case i%17 == 0:
			pages = append(pages, fmt.Sprintf("page %d APU bleed and IRS", i))
		case i%11 == 0:
			pages = append(pages, fmt.Sprintf("page %d weather radar", i))
		case i%13 == 0:
			pages = append(pages, "")
		default:
			pages = append(pages, fmt.Sprintf("page %d nothing", i))
		}
	}
	topics := []Topic{
		{Name: "Bleed", Keywords: []string{"apu bleed"}},
		{Name: "IRS", Keywords: []string{"irs"}, StartPage: 30},
		{Name: "WXR", Keywords: []string{"weather radar"}, EndPage: 150},
		{Name: "Fire", Keywords: []string{"apu fire"}},
	}

	for _, firstOnly := range []bool{false, true} {
		t.Run(fmt.Sprintf("first_only=%v", firstOnly), func(t *testing.T) {
			opts := DefaultOptions()
			opts.FirstOnly = firstOnly
			seq := scanTexts(t, pages, topics, opts)

			opts.Workers = 8
			par := scanTexts(t, pages, topics, opts)

			assert.Equal(t, seq.Matches, par.Matches)
		})
	}
}

func TestScanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := ScanTexts(ctx, []string{"APU"}, []Topic{{Name: "APU", Keywords: []string{"apu"}}}, DefaultOptions())
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, res)
	assert.Empty(t, res.Matches)
}

func TestScanIgnoresBlankKeywords(t *testing.T) {
	res := scanTexts(t, []string{"anything at all"}, []Topic{{Name: "Blank", Keywords: []string{"", "  "}}}, DefaultOptions())
	assert.Empty(t, res.Matches)
}

func TestScanNormalizesKeywords(t *testing.T) {
	// The fullwidth keyword folds to plain ASCII.
	res := scanTexts(t, []string{"APU bleed"}, []Topic{{Name: "APU", Keywords: []string{"ＡＰＵ"}}}, DefaultOptions())
	assert.True(t, res.Found("APU"))
}

func TestScanNormalizesPageText(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		keyword string
	}{
		{"fullwidth on page and keyword", "the ＡＰＵ bleed", "ＡＰＵ"},
		{"fullwidth on page only", "the ＡＰＵ bleed", "apu bleed"},
		{"ligature on page and keyword", "APU ﬁre test", "ﬁre"},
		{"ligature on page only", "APU ﬁre test", "fire test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scanTexts(t, []string{tt.page}, []Topic{{Name: "T", Keywords: []string{tt.keyword}}}, DefaultOptions())
			require.True(t, res.Found("T"))
			m, _ := res.Primary("T")
			assert.Equal(t, tt.page, m.Context)
		})
	}
}

func TestScanContextKeepsPageCase(t *testing.T) {
	page := "İSTANBUL The APU Bleed valve"
	res := scanTexts(t, []string{page}, []Topic{{Name: "Bleed", Keywords: []string{"apu bleed"}}}, DefaultOptions())
	m, ok := res.Primary("Bleed")
	require.True(t, ok)
	assert.Equal(t, page, m.Context)
}

func TestScanContextAroundFoldedMatch(t *testing.T) {
	opts := DefaultOptions()
	opts.Context = snippet.Options{Mode: snippet.ModeChars, Width: 4}
	page := strings.Repeat("x", 20) + " ＡＰＵ " + strings.Repeat("y", 20)
	res := scanTexts(t, []string{page}, []Topic{{Name: "APU", Keywords: []string{"apu"}}}, opts)
	m, ok := res.Primary("APU")
	require.True(t, ok)
	assert.Contains(t, m.Context, "ＡＰＵ")
	assert.NotContains(t, m.Context, "xxxxx")
}

func TestFoldSpan(t *testing.T) {
	f := fold("İx ＡＰＵ")
	pos := strings.Index(f.text, "apu")
	require.GreaterOrEqual(t, pos, 0)
	start, end := f.span(pos, len("apu"))
	assert.Equal(t, "ＡＰＵ", "İx ＡＰＵ"[start:end])

	ascii := fold("APU Bleed")
	assert.Equal(t, "apu bleed", ascii.text)
	start, end = ascii.span(4, 5)
	assert.Equal(t, 4, start)
	assert.Equal(t, 9, end)
}

func TestResultKeywords(t *testing.T) {
	pages := []string{"GPS", "IRS", "GPS"}
	res := scanTexts(t, pages, []Topic{{Name: "Nav", Keywords: []string{"gps", "irs"}}}, DefaultOptions())
	assert.Equal(t, []string{"gps", "irs"}, res.Keywords("Nav"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		topics []Topic
		errMsg string
	}{
		{"ok", []Topic{{Name: "A", Keywords: []string{"a"}}}, ""},
		{"no name", []Topic{{Keywords: []string{"a"}}}, "has no name"},
		{"duplicate", []Topic{{Name: "A", Keywords: []string{"a"}}, {Name: "A", Keywords: []string{"b"}}}, "duplicate topic"},
		{"no keywords", []Topic{{Name: "A", Keywords: []string{" "}}}, "has no keywords"},
		{"bad range", []Topic{{Name: "A", Keywords: []string{"a"}, StartPage: 5, EndPage: 2}}, "after end page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.topics)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

type countingSource struct {
	*document.Pages
	read []int
}

func (c *countingSource) Text(page int) (string, error) {
	c.read = append(c.read, page)
	return c.Pages.Text(page)
}

type failingSource struct {
	*document.Pages
	fail int
}

func (f *failingSource) Text(page int) (string, error) {
	if page == f.fail {
		return "", errors.New("broken content stream")
	}
	return f.Pages.Text(page)
}
