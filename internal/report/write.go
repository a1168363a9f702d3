package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dgallion1/pagescan/internal/manifest"
)

const (
	ReferencesFile = "references.json"
	FindingsFile   = "findings.json"
	MarkersFile    = "markers.json"
)

// WriteJSON writes v to path with two-space indentation, creating parent
// directories as needed.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

type outputFile struct {
	name string
	v    any
}

// WriteAll writes the reference, findings and (when any document ran a
// marker scan) marker files into dir. It returns the paths written.
func WriteAll(dir string, m *manifest.Manifest, docs []DocumentScan) ([]string, error) {
	findings := BuildFindings(m, docs)

	files := []outputFile{
		{ReferencesFile, findings.Summary},
		{FindingsFile, findings},
	}
	if markers := Markers(docs); len(markers) > 0 {
		files = append(files, outputFile{MarkersFile, markers})
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := WriteJSON(path, f.v); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// PrintSummary writes one line per topic and a total.
func PrintSummary(w io.Writer, m *manifest.Manifest, docs []DocumentScan) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for _, d := range docs {
		if d.Err != nil {
			fmt.Fprintf(tw, "%s\tunavailable\t%v\n", d.Label, d.Err)
		}
	}

	found := 0
	for _, t := range m.Topics {
		d, match, ok := primary(docs, t.Name)
		if !ok {
			fmt.Fprintf(tw, "%s\tnot found\t%s\n", t.Name, t.Description)
			continue
		}
		found++
		fmt.Fprintf(tw, "%s\t%s p.%d\t%s\n", t.Name, d.Label, match.Page, t.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nFound %d out of %d topics\n", found, len(m.Topics))
	return err
}
