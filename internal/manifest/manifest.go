// Package manifest loads search manifests: the documents to scan, the
// topics and keyword lists to look for, and how to report them.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/pagescan/internal/scan"
	"github.com/dgallion1/pagescan/internal/snippet"
)

const (
	defaultContextWidth = 150
	defaultMaxRunes     = 200
)

// Manifest describes one search run.
type Manifest struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Context     Context     `yaml:"context,omitempty" json:"context"`
	FirstOnly   bool        `yaml:"first_only,omitempty" json:"first_only"`
	MaxPages    int         `yaml:"max_pages,omitempty" json:"max_pages"`
	Workers     int         `yaml:"workers,omitempty" json:"workers,omitempty"`
	Documents   []Document  `yaml:"documents" json:"documents"`
	Markers     *MarkerSpec `yaml:"markers,omitempty" json:"markers,omitempty"`
	Topics      []Topic     `yaml:"topics" json:"topics"`

	// baseDir resolves relative document paths.
	baseDir string
}

// Context selects the snippet window. Nil fields take defaults.
type Context struct {
	Mode     string `yaml:"mode,omitempty" json:"mode,omitempty"`
	Width    *int   `yaml:"width,omitempty" json:"width,omitempty"`
	MaxRunes *int   `yaml:"max_runes,omitempty" json:"max_runes,omitempty"`
}

// Document is a labelled input file. Labels appear as "pdf" in references.
type Document struct {
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
}

// MarkerSpec configures page-marker discovery.
type MarkerSpec struct {
	Pattern     string    `yaml:"pattern" json:"pattern"`
	HeaderLines int       `yaml:"header_lines,omitempty" json:"header_lines,omitempty"`
	Pages       PageRange `yaml:"pages,omitempty" json:"pages"`
}

// PageRange is an inclusive 1-indexed range. Zero bounds are open.
type PageRange struct {
	Start int `yaml:"start,omitempty" json:"start"`
	End   int `yaml:"end,omitempty" json:"end"`
}

// Topic is a search intent and the question identifiers it answers.
type Topic struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Keywords    []string  `yaml:"keywords" json:"keywords"`
	Questions   []string  `yaml:"questions,omitempty" json:"questions,omitempty"`
	Pages       PageRange `yaml:"pages,omitempty" json:"pages"`
}

// ValidationError lists every problem found in a manifest.
type ValidationError struct {
	Name     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest %q: %s", e.Name, strings.Join(e.Problems, "; "))
}

// Decode reads a manifest without validating it. JSON input is accepted
// since it is valid YAML. Unknown fields are rejected.
func Decode(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	m, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads a manifest file. Relative document paths resolve against the
// file's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	m.baseDir = filepath.Dir(abs)
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// Resolve loads ref as a file if one exists, otherwise as a built-in name.
// Built-ins resolve document paths against docsDir.
func Resolve(ref, docsDir string) (*Manifest, error) {
	if _, err := os.Stat(ref); err == nil {
		return Load(ref)
	}
	m, err := Builtin(ref)
	if err != nil {
		return nil, err
	}
	m.SetBaseDir(docsDir)
	return m, nil
}

// SetBaseDir sets the directory relative document paths resolve against.
func (m *Manifest) SetBaseDir(dir string) { m.baseDir = dir }

// DocumentPath returns the path of d, resolved against the base directory.
func (m *Manifest) DocumentPath(d Document) string {
	if filepath.IsAbs(d.Path) || m.baseDir == "" {
		return d.Path
	}
	return filepath.Join(m.baseDir, d.Path)
}

// Validate checks the manifest, collecting every problem.
func (m *Manifest) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(m.Documents) == 0 {
		add("no documents")
	}
	labels := make(map[string]bool)
	for i, d := range m.Documents {
		switch {
		case strings.TrimSpace(d.Label) == "":
			add("document %d has no label", i+1)
		case labels[d.Label]:
			add("duplicate document label %q", d.Label)
		}
		labels[d.Label] = true
		if strings.TrimSpace(d.Path) == "" {
			add("document %q has no path", d.Label)
		}
	}

	if len(m.Topics) == 0 {
		add("no topics")
	}
	names := make(map[string]bool)
	for i, t := range m.Topics {
		if strings.TrimSpace(t.Name) == "" {
			add("topic %d has no name", i+1)
		} else if names[t.Name] {
			add("duplicate topic %q", t.Name)
		}
		names[t.Name] = true

		blank := true
		for _, kw := range t.Keywords {
			if strings.TrimSpace(kw) != "" {
				blank = false
				break
			}
		}
		if blank {
			add("topic %q has no keywords", t.Name)
		}
		if err := t.Pages.validate(); err != nil {
			add("topic %q: %v", t.Name, err)
		}
		if _, err := t.QuestionIDs(); err != nil {
			add("topic %q: %v", t.Name, err)
		}
	}

	if _, err := snippet.ParseMode(m.Context.Mode); err != nil {
		add("context: %v", err)
	}
	if m.Context.Width != nil && *m.Context.Width < 0 {
		add("context width %d is negative", *m.Context.Width)
	}
	if m.Context.MaxRunes != nil && *m.Context.MaxRunes < 0 {
		add("context max_runes %d is negative", *m.Context.MaxRunes)
	}
	if m.MaxPages < 0 {
		add("max_pages %d is negative", m.MaxPages)
	}
	if m.Workers < 0 {
		add("workers %d is negative", m.Workers)
	}

	if m.Markers != nil {
		if _, err := regexp.Compile(m.Markers.Pattern); err != nil || m.Markers.Pattern == "" {
			add("invalid marker pattern %q", m.Markers.Pattern)
		}
		if m.Markers.HeaderLines < 0 {
			add("marker header_lines %d is negative", m.Markers.HeaderLines)
		}
		if err := m.Markers.Pages.validate(); err != nil {
			add("markers: %v", err)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Name: m.Name, Problems: problems}
	}
	return nil
}

func (r PageRange) validate() error {
	if r.Start < 0 || r.End < 0 {
		return fmt.Errorf("negative page range %d-%d", r.Start, r.End)
	}
	if r.Start > 0 && r.End > 0 && r.Start > r.End {
		return fmt.Errorf("page range start %d after end %d", r.Start, r.End)
	}
	return nil
}

// ContextOptions returns the snippet options with defaults applied.
func (m *Manifest) ContextOptions() snippet.Options {
	mode, err := snippet.ParseMode(m.Context.Mode)
	if err != nil {
		mode = snippet.ModeChars
	}
	opts := snippet.Options{Mode: mode, Width: defaultContextWidth, MaxRunes: defaultMaxRunes}
	if m.Context.Width != nil {
		opts.Width = *m.Context.Width
	}
	if m.Context.MaxRunes != nil {
		opts.MaxRunes = *m.Context.MaxRunes
	}
	return opts
}

// ApplyDefaults fills context and worker settings the manifest leaves
// unset.
func (m *Manifest) ApplyDefaults(ctx snippet.Options, workers int) {
	if m.Context.Mode == "" {
		m.Context.Mode = string(ctx.Mode)
	}
	if m.Context.Width == nil {
		w := ctx.Width
		m.Context.Width = &w
	}
	if m.Context.MaxRunes == nil {
		n := ctx.MaxRunes
		m.Context.MaxRunes = &n
	}
	if m.Workers == 0 {
		m.Workers = workers
	}
}

// ScanOptions converts the manifest settings for the scanner.
func (m *Manifest) ScanOptions() scan.Options {
	return scan.Options{
		Context:   m.ContextOptions(),
		MaxPages:  m.MaxPages,
		FirstOnly: m.FirstOnly,
		Workers:   max(m.Workers, 1),
	}
}

// ScanTopics converts the manifest topics for the scanner.
func (m *Manifest) ScanTopics() []scan.Topic {
	out := make([]scan.Topic, 0, len(m.Topics))
	for _, t := range m.Topics {
		out = append(out, scan.Topic{
			Name:        t.Name,
			Description: t.Description,
			Keywords:    t.Keywords,
			StartPage:   t.Pages.Start,
			EndPage:     t.Pages.End,
		})
	}
	return out
}

// MarkerOptions returns the marker scan settings, or false when the
// manifest configures none.
func (m *Manifest) MarkerOptions() (scan.MarkerOptions, bool, error) {
	if m.Markers == nil {
		return scan.MarkerOptions{}, false, nil
	}
	re, err := regexp.Compile(m.Markers.Pattern)
	if err != nil {
		return scan.MarkerOptions{}, false, fmt.Errorf("marker pattern: %w", err)
	}
	return scan.MarkerOptions{
		Pattern:     re,
		HeaderLines: m.Markers.HeaderLines,
		StartPage:   m.Markers.Pages.Start,
		EndPage:     m.Markers.Pages.End,
	}, true, nil
}

// Topic looks up a topic by name.
func (m *Manifest) Topic(name string) (Topic, bool) {
	for _, t := range m.Topics {
		if t.Name == name {
			return t, true
		}
	}
	return Topic{}, false
}

// QuestionIDs returns the expanded question identifiers. A topic without
// questions answers the question named after it.
func (t Topic) QuestionIDs() ([]string, error) {
	if len(t.Questions) == 0 {
		return []string{t.Name}, nil
	}
	var out []string
	for _, q := range t.Questions {
		ids, err := ExpandQuestion(q)
		if err != nil {
			return nil, err
		}
		out = append(out, ids...)
	}
	return out, nil
}

var (
	questionRange = regexp.MustCompile(`^(.*?)(\d+)-(\d+)$`)

	errEmptyQuestion = errors.New("empty question id")
)

const maxQuestionRange = 1000

// ExpandQuestion expands a range such as "02AIR21-30" into "02AIR21"
// through "02AIR30", keeping the zero padding of the first number. Other
// identifiers are returned unchanged.
func ExpandQuestion(id string) ([]string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errEmptyQuestion
	}
	m := questionRange.FindStringSubmatch(id)
	if m == nil {
		return []string{id}, nil
	}
	prefix, first, last := m[1], m[2], m[3]

	start, err := strconv.Atoi(first)
	if err != nil {
		return nil, fmt.Errorf("question range %q: %w", id, err)
	}
	end, err := strconv.Atoi(last)
	if err != nil {
		return nil, fmt.Errorf("question range %q: %w", id, err)
	}
	if end < start {
		return nil, fmt.Errorf("question range %q ends before it starts", id)
	}
	if end-start >= maxQuestionRange {
		return nil, fmt.Errorf("question range %q spans more than %d questions", id, maxQuestionRange)
	}

	width := len(first)
	out := make([]string, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, fmt.Sprintf("%s%0*d", prefix, width, n))
	}
	return out, nil
}
