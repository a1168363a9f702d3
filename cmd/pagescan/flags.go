package main

import (
	"github.com/abiiranathan/goflag"
)

// options holds the values bound to command-line flags.
type options struct {
	Manifest    string
	OutputDir   string
	Workers     int
	File        string
	Label       string
	Pattern     string
	HeaderLines int
	ContextMode string
}

func defineFlags(opts *options, app *app) *goflag.Context {
	ctx := goflag.NewContext()

	ctx.AddFlag(goflag.FlagInt, "workers", "w", &opts.Workers,
		"Pages matched concurrently per document (0 keeps the manifest setting)", false)

	ctx.AddSubCommand("scan", "Scan the documents of a manifest and write reference files", app.scan).
		AddFlag(goflag.FlagString, "manifest", "m", &opts.Manifest, "Manifest path or built-in name", true).
		AddFlag(goflag.FlagString, "output", "o", &opts.OutputDir, "Directory for the JSON output files", false).
		AddFlag(goflag.FlagString, "context", "c", &opts.ContextMode, "Context mode override: chars or lines", false)

	ctx.AddSubCommand("markers", "List page-marker codes found in a document", app.markers).
		AddFlag(goflag.FlagFilePath, "file", "f", &opts.File, "Document to scan", true).
		AddFlag(goflag.FlagString, "pattern", "p", &opts.Pattern, "Marker regular expression", true).
		AddFlag(goflag.FlagInt, "lines", "n", &opts.HeaderLines, "Header lines checked per page", false).
		AddFlag(goflag.FlagString, "label", "l", &opts.Label, "Document label", false)

	ctx.AddSubCommand("manifests", "List built-in manifests", app.manifests)

	return ctx
}
