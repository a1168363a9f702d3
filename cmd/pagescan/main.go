// Command pagescan scans document sets against keyword manifests and
// writes question-to-page reference files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dgallion1/pagescan/internal/config"
	"github.com/dgallion1/pagescan/internal/manifest"
	"github.com/dgallion1/pagescan/internal/pipeline"
	"github.com/dgallion1/pagescan/internal/report"
	"github.com/dgallion1/pagescan/internal/scan"
	"github.com/dgallion1/pagescan/internal/snippet"
	"github.com/dgallion1/pagescan/internal/source"
)

type app struct {
	cfg  config.Config
	opts *options
	log  *slog.Logger
	ctx  context.Context
}

func main() {
	cfg := config.Load()
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(false); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := &options{OutputDir: cfg.OutputDir}
	a := &app{cfg: cfg, opts: opts, log: log, ctx: ctx}

	flags := defineFlags(opts, a)
	subcmd, err := flags.Parse(os.Args)
	if err != nil {
		log.Error("invalid arguments", "error", err)
		os.Exit(2)
	}
	if subcmd == nil {
		flags.PrintUsage(os.Stdout)
		os.Exit(1)
	}
	subcmd.Handler()
}

func (a *app) fatal(msg string, args ...any) {
	a.log.Error(msg, args...)
	os.Exit(1)
}

func (a *app) sourceOptions() source.Options {
	return source.Options{FallbackPdftotext: a.cfg.PDFFallbackPdftotext}
}

func (a *app) scan() {
	m, err := manifest.Resolve(a.opts.Manifest, a.cfg.DocsDir)
	if err != nil {
		a.fatal("load manifest", "manifest", a.opts.Manifest, "error", err)
	}
	if a.opts.ContextMode != "" {
		mode, err := snippet.ParseMode(a.opts.ContextMode)
		if err != nil {
			a.fatal("invalid context mode", "error", err)
		}
		m.Context.Mode = string(mode)
	}
	m.ApplyDefaults(a.cfg.ContextOptions(), a.cfg.ScanWorkers)
	if a.opts.Workers > 0 {
		m.Workers = a.opts.Workers
	}

	stats := pipeline.NewScanStats(time.Hour)
	runner := pipeline.NewRunner(a.sourceOptions(), stats, a.log)
	docs, err := runner.Run(a.ctx, m)
	if err != nil {
		a.fatal("scan failed", "manifest", m.Name, "error", err)
	}

	written, err := report.WriteAll(a.opts.OutputDir, m, docs)
	if err != nil {
		a.fatal("write results", "dir", a.opts.OutputDir, "error", err)
	}
	for _, path := range written {
		a.log.Info("wrote", "path", path)
	}

	if err := report.PrintSummary(os.Stdout, m, docs); err != nil {
		a.fatal("print summary", "error", err)
	}
	snap := stats.Snapshot()
	a.log.Debug("scan stats", "documents", snap.Count, "pages", snap.Pages, "ms_per_page", snap.MsPerPage)
}

func (a *app) markers() {
	pattern, err := regexp.Compile(a.opts.Pattern)
	if err != nil {
		a.fatal("invalid marker pattern", "pattern", a.opts.Pattern, "error", err)
	}
	label := a.opts.Label
	if label == "" {
		label = source.DefaultLabel(a.opts.File)
	}

	src, err := source.OpenFile(a.opts.File, label, a.sourceOptions())
	if err != nil {
		a.fatal("open document", "file", a.opts.File, "error", err)
	}
	defer src.Close()

	markers, err := scan.NewScanner(scan.DefaultOptions(), a.log).Markers(a.ctx, src, scan.MarkerOptions{
		Pattern:     pattern,
		HeaderLines: a.opts.HeaderLines,
	})
	if err != nil {
		a.fatal("marker scan failed", "error", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, mk := range markers {
		fmt.Fprintf(tw, "%s\tp.%d\t%s\n", mk.Code, mk.Page, mk.Section)
	}
	tw.Flush()
	fmt.Printf("\n%d markers in %s\n", len(markers), label)
}

func (a *app) manifests() {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTOPICS\tQUESTIONS\tDESCRIPTION")
	for _, s := range manifest.BuiltinSummaries() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Name, s.Topics, s.Questions, s.Description)
	}
	tw.Flush()
}
