package manifest

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Built-in manifests hold the keyword lists for the FCOM1 and Operations
// Manual question banks. Document paths are bare file names.
//
//go:embed builtin/*.yaml
var builtinFS embed.FS

// ErrUnknownBuiltin is returned for a name with no embedded manifest.
var ErrUnknownBuiltin = errors.New("unknown built-in manifest")

// Builtin parses the embedded manifest called name.
func Builtin(name string) (*Manifest, error) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBuiltin, name, strings.Join(BuiltinNames(), ", "))
		}
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("built-in %s: %w", name, err)
	}
	if m.Name == "" {
		m.Name = name
	}
	return m, nil
}

// BuiltinNames lists the embedded manifests, sorted.
func BuiltinNames() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yaml"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Summary is a short description of a manifest for listings.
type Summary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Documents   []string `json:"documents"`
	Topics      int      `json:"topics"`
	Questions   int      `json:"questions"`
	Markers     bool     `json:"markers"`
}

// Summarize describes m for listings.
func (m *Manifest) Summarize() Summary {
	s := Summary{
		Name:        m.Name,
		Description: m.Description,
		Topics:      len(m.Topics),
		Markers:     m.Markers != nil,
	}
	for _, d := range m.Documents {
		s.Documents = append(s.Documents, d.Label)
	}
	for _, t := range m.Topics {
		ids, _ := t.QuestionIDs()
		s.Questions += len(ids)
	}
	return s
}

// BuiltinSummaries describes every embedded manifest. Manifests that fail
// to parse are skipped.
func BuiltinSummaries() []Summary {
	var out []Summary
	for _, name := range BuiltinNames() {
		m, err := Builtin(name)
		if err != nil {
			continue
		}
		out = append(out, m.Summarize())
	}
	return out
}
