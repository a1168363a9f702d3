// Package scan finds topic keywords in the pages of a document.
//
// Matching is case-insensitive substring containment. Pages are visited in
// order, so the first match recorded for a topic is on its lowest page;
// ties on one page go to the keyword listed first.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/pagescan/internal/document"
	"github.com/dgallion1/pagescan/internal/snippet"
	"golang.org/x/sync/errgroup"
)

// Topic is a named search intent backed by candidate keyword phrases.
type Topic struct {
	Name        string
	Description string
	Keywords    []string
	StartPage   int // first page to test, inclusive; 0 for the first page
	EndPage     int // last page to test, inclusive; 0 for the last page
}

func (t Topic) covers(page int) bool {
	if t.StartPage > 0 && page < t.StartPage {
		return false
	}
	if t.EndPage > 0 && page > t.EndPage {
		return false
	}
	return true
}

// Match is one keyword occurrence for a topic on a page.
type Match struct {
	Topic   string `json:"topic"`
	Keyword string `json:"keyword"`
	Page    int    `json:"page"`
	Context string `json:"context"`
}

// Options control a scan.
type Options struct {
	Context snippet.Options
	// MaxPages stops the scan after this many pages. 0 scans everything.
	MaxPages int
	// FirstOnly stops testing a topic once it has a match.
	FirstOnly bool
	// Workers > 1 matches pages concurrently. Text extraction stays
	// sequential and results are merged in page order.
	Workers int
}

// DefaultOptions returns a full scan with the default character window.
func DefaultOptions() Options {
	return Options{
		Context: snippet.DefaultOptions(),
		Workers: 1,
	}
}

// Scanner runs keyword scans over documents.
type Scanner struct {
	opts Options
	log  *slog.Logger
}

func NewScanner(opts Options, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Scanner{opts: opts, log: log}
}

// Options returns the scanner configuration.
func (s *Scanner) Options() Options { return s.opts }

type compiledTopic struct {
	Topic
	lowered []string // parallel to Keywords; "" for blank keywords
}

func compile(topics []Topic) []compiledTopic {
	out := make([]compiledTopic, len(topics))
	for i, t := range topics {
		lowered := make([]string, len(t.Keywords))
		for j, kw := range t.Keywords {
			lowered[j] = foldKeyword(kw)
		}
		out[i] = compiledTopic{Topic: t, lowered: lowered}
	}
	return out
}

func foldKeyword(kw string) string {
	return fold(strings.TrimSpace(kw)).text
}

// pageBounds returns the first and last page worth reading. Pages outside
// every topic's range are never extracted.
func (s *Scanner) pageBounds(numPages int, topics []compiledTopic) (first, last int) {
	first, last = 1, numPages
	if s.opts.MaxPages > 0 && s.opts.MaxPages < last {
		last = s.opts.MaxPages
	}
	if len(topics) == 0 {
		return 1, 0
	}

	minStart, maxEnd := numPages+1, 0
	for _, t := range topics {
		start := max(t.StartPage, 1)
		minStart = min(minStart, start)
		if t.EndPage <= 0 {
			maxEnd = numPages
		} else {
			maxEnd = max(maxEnd, t.EndPage)
		}
	}
	first = max(first, minStart)
	last = min(last, maxEnd)
	return first, last
}

// Scan tests every page of src against topics. Pages with no extractable
// text are skipped silently. Topics with no match are absent from the
// result. A cancelled context returns the matches found so far along with
// the context error.
func (s *Scanner) Scan(ctx context.Context, src document.Source, topics []Topic) (*Result, error) {
	compiled := compile(topics)
	first, last := s.pageBounds(src.NumPages(), compiled)

	log := s.log.With("document", src.Label())
	log.Debug("scan started", "pages", src.NumPages(), "first", first, "last", last, "topics", len(topics))

	var (
		res *Result
		err error
	)
	if s.opts.Workers > 1 {
		res, err = s.scanParallel(ctx, src, compiled, first, last)
	} else {
		res, err = s.scanSequential(ctx, src, compiled, first, last)
	}
	if res != nil {
		res.Label = src.Label()
		log.Debug("scan finished", "scanned", res.PagesScanned, "skipped", res.PagesSkipped, "topics_found", len(res.Matches))
	}
	return res, err
}

func (s *Scanner) scanSequential(ctx context.Context, src document.Source, topics []compiledTopic, first, last int) (*Result, error) {
	res := newResult()
	resolved := make([]bool, len(topics))
	remaining := len(topics)

	for page := first; page <= last; page++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if s.opts.FirstOnly && remaining == 0 {
			res.StoppedAt = page - 1
			break
		}

		text, ok := s.pageText(src, page)
		if !ok {
			res.PagesSkipped++
			continue
		}
		res.PagesScanned++

		for _, m := range s.matchPage(page, text, topics, resolved) {
			res.add(m)
		}
		if s.opts.FirstOnly {
			remaining = 0
			for i := range topics {
				if !resolved[i] {
					remaining++
				}
			}
		}
	}
	return res, nil
}

type pageJob struct {
	idx  int
	page int
	text string
}

func (s *Scanner) scanParallel(ctx context.Context, src document.Source, topics []compiledTopic, first, last int) (*Result, error) {
	res := newResult()
	if last < first {
		return res, nil
	}
	perPage := make([][]Match, last-first+1)
	jobs := make(chan pageJob, s.opts.Workers)

	g, gctx := errgroup.WithContext(ctx)

	// The document handle is not safe for concurrent use; one goroutine
	// extracts text and the workers only match.
	g.Go(func() error {
		defer close(jobs)
		for page := first; page <= last; page++ {
			text, ok := s.pageText(src, page)
			if !ok {
				res.PagesSkipped++
				continue
			}
			res.PagesScanned++
			select {
			case jobs <- pageJob{idx: page - first, page: page, text: text}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range s.opts.Workers {
		g.Go(func() error {
			for job := range jobs {
				perPage[job.idx] = s.matchPage(job.page, job.text, topics, nil)
			}
			return nil
		})
	}

	err := g.Wait()

	resolved := make(map[string]bool, len(topics))
	for _, matches := range perPage {
		for _, m := range matches {
			if s.opts.FirstOnly {
				if resolved[m.Topic] {
					continue
				}
				resolved[m.Topic] = true
			}
			res.add(m)
		}
	}
	return res, err
}

// pageText fetches a page, reporting false for empty or failed pages.
func (s *Scanner) pageText(src document.Source, page int) (string, bool) {
	text, err := src.Text(page)
	if err != nil {
		s.log.Debug("page text unavailable", "document", src.Label(), "page", page, "error", err)
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// matchPage records at most one match per topic. When resolved is non-nil,
// resolved topics are skipped and newly matched ones are marked.
func (s *Scanner) matchPage(page int, text string, topics []compiledTopic, resolved []bool) []Match {
	folded := fold(text)

	var out []Match
	for i, t := range topics {
		if resolved != nil && resolved[i] {
			continue
		}
		if !t.covers(page) {
			continue
		}
		for j, kw := range t.lowered {
			if kw == "" {
				continue
			}
			pos := strings.Index(folded.text, kw)
			if pos < 0 {
				continue
			}
			start, end := folded.span(pos, len(kw))
			out = append(out, Match{
				Topic:   t.Name,
				Keyword: t.Keywords[j],
				Page:    page,
				Context: snippet.Around(text, start, end, s.opts.Context),
			})
			if resolved != nil && s.opts.FirstOnly {
				resolved[i] = true
			}
			break
		}
	}
	return out
}

// ScanTexts is a convenience wrapper for in-memory page texts, where
// texts[0] is page 1.
func ScanTexts(ctx context.Context, texts []string, topics []Topic, opts Options) (*Result, error) {
	return NewScanner(opts, nil).Scan(ctx, document.FromTexts("", texts...), topics)
}

// Validate reports topics that can never match.
func Validate(topics []Topic) error {
	seen := make(map[string]bool, len(topics))
	for _, t := range topics {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("topic with keywords %q has no name", t.Keywords)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate topic %q", t.Name)
		}
		seen[t.Name] = true

		usable := 0
		for _, kw := range t.Keywords {
			if foldKeyword(kw) != "" {
				usable++
			}
		}
		if usable == 0 {
			return fmt.Errorf("topic %q has no keywords", t.Name)
		}
		if t.StartPage > 0 && t.EndPage > 0 && t.StartPage > t.EndPage {
			return fmt.Errorf("topic %q: start page %d after end page %d", t.Name, t.StartPage, t.EndPage)
		}
	}
	return nil
}
