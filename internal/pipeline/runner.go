package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/pagescan/internal/document"
	"github.com/dgallion1/pagescan/internal/manifest"
	"github.com/dgallion1/pagescan/internal/report"
	"github.com/dgallion1/pagescan/internal/scan"
	"github.com/dgallion1/pagescan/internal/source"
)

// OpenFunc opens the document at path under the given label.
type OpenFunc func(path, label string) (document.Source, error)

// Runner scans the documents of a manifest one at a time.
type Runner struct {
	open  OpenFunc
	stats *ScanStats
	log   *slog.Logger
}

// NewRunner returns a Runner that opens files with the given source
// options. stats may be nil.
func NewRunner(opts source.Options, stats *ScanStats, log *slog.Logger) *Runner {
	return &Runner{
		open: func(path, label string) (document.Source, error) {
			return source.OpenFile(path, label, opts)
		},
		stats: stats,
		log:   log,
	}
}

// WithOpener replaces how documents are opened.
func (r *Runner) WithOpener(open OpenFunc) *Runner {
	r.open = open
	return r
}

// Run scans every document in m in manifest order. A document that cannot
// be opened is logged, recorded with its error and an empty result, and
// the run continues. Only context cancellation stops a run early.
func (r *Runner) Run(ctx context.Context, m *manifest.Manifest) ([]report.DocumentScan, error) {
	log := r.log.With("manifest", m.Name)
	start := time.Now()

	docs := make([]report.DocumentScan, 0, len(m.Documents))
	for _, d := range m.Documents {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		path := m.DocumentPath(d)

		src, err := r.open(path, d.Label)
		if err != nil {
			log.Error("document unavailable", "document", d.Label, "path", path, "error", err)
			docs = append(docs, report.DocumentScan{Label: d.Label, Path: path, Err: err})
			continue
		}

		ds, err := r.ScanSource(ctx, m, src)
		if cerr := src.Close(); cerr != nil {
			log.Warn("close document", "document", d.Label, "path", path, "error", cerr)
		}
		ds.Path = path
		docs = append(docs, ds)
		if err != nil {
			return docs, err
		}
	}

	log.Info("run complete", "documents", len(docs), "elapsed", time.Since(start).Round(time.Millisecond))
	return docs, nil
}

// ScanSource runs the manifest's topic and marker scans over an open
// document. The caller owns src.
func (r *Runner) ScanSource(ctx context.Context, m *manifest.Manifest, src document.Source) (report.DocumentScan, error) {
	log := r.log.With("manifest", m.Name, "document", src.Label())
	ds := report.DocumentScan{Label: src.Label()}

	scanner := scan.NewScanner(m.ScanOptions(), log)
	start := time.Now()
	res, err := scanner.Scan(ctx, src, m.ScanTopics())
	elapsed := time.Since(start)
	ds.Result = res
	if err != nil {
		return ds, fmt.Errorf("scan %s: %w", src.Label(), err)
	}
	if r.stats != nil {
		r.stats.Record(elapsed, res.PagesScanned+res.PagesSkipped)
	}

	mopts, ok, err := m.MarkerOptions()
	if err != nil {
		return ds, err
	}
	if ok {
		markers, err := scanner.Markers(ctx, src, mopts)
		if markers == nil {
			markers = []scan.Marker{}
		}
		ds.Markers = markers
		if err != nil {
			return ds, fmt.Errorf("markers %s: %w", src.Label(), err)
		}
	}

	log.Info("document scanned",
		"pages", src.NumPages(),
		"scanned", res.PagesScanned,
		"skipped", res.PagesSkipped,
		"topics_found", len(res.Matches),
		"markers", len(ds.Markers),
		"elapsed", elapsed.Round(time.Millisecond),
	)
	return ds, nil
}
