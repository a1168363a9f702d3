// Package report turns scan results into question references, detailed
// findings and marker listings.
package report

import (
	"github.com/dgallion1/pagescan/internal/manifest"
	"github.com/dgallion1/pagescan/internal/scan"
)

// DocumentScan is the outcome of scanning one manifest document.
type DocumentScan struct {
	Label   string
	Path    string
	Result  *scan.Result  // nil when the document could not be opened
	Markers []scan.Marker // nil when no marker scan ran
	Err     error
}

// Reference points a question at a page of a labelled document.
type Reference struct {
	PDF  string `json:"pdf"`
	Page int    `json:"page"`
}

// Occurrence is one page on which a topic matched.
type Occurrence struct {
	PDF  string `json:"pdf"`
	Page int    `json:"page"`
	Term string `json:"term"`
}

// TopicFinding details where a topic was found.
type TopicFinding struct {
	Description    string       `json:"description,omitempty"`
	PDF            string       `json:"pdf"`
	Page           int          `json:"page"`
	TermFound      string       `json:"term_found"`
	Context        string       `json:"context"`
	Pages          []int        `json:"pages"`
	TermsFound     []string     `json:"terms_found"`
	Questions      []string     `json:"questions"`
	AllOccurrences []Occurrence `json:"all_occurrences"`
}

// Findings is the detailed report for a run.
type Findings struct {
	Summary          map[string]Reference    `json:"summary"`
	DetailedFindings map[string]TopicFinding `json:"detailed_findings"`
	NotFound         []string                `json:"not_found"`
	Failed           map[string]string       `json:"failed,omitempty"`
}

// primary returns the first document, in manifest order, that matched
// topic along with its first match.
func primary(docs []DocumentScan, topic string) (DocumentScan, scan.Match, bool) {
	for _, d := range docs {
		if d.Result == nil {
			continue
		}
		if m, ok := d.Result.Primary(topic); ok {
			return d, m, true
		}
	}
	return DocumentScan{}, scan.Match{}, false
}

// References maps every question identifier to the primary page of its
// topic. Documents are consulted in order; the first that resolves a
// question wins, and so does the first topic claiming a question.
func References(m *manifest.Manifest, docs []DocumentScan) map[string]Reference {
	out := make(map[string]Reference)
	for _, t := range m.Topics {
		d, match, ok := primary(docs, t.Name)
		if !ok {
			continue
		}
		ids, err := t.QuestionIDs()
		if err != nil {
			continue
		}
		for _, id := range ids {
			if _, taken := out[id]; taken {
				continue
			}
			out[id] = Reference{PDF: d.Label, Page: match.Page}
		}
	}
	return out
}

// BuildFindings assembles the detailed report.
func BuildFindings(m *manifest.Manifest, docs []DocumentScan) *Findings {
	f := &Findings{
		Summary:          References(m, docs),
		DetailedFindings: make(map[string]TopicFinding),
		NotFound:         []string{},
	}

	for _, d := range docs {
		if d.Err != nil {
			if f.Failed == nil {
				f.Failed = make(map[string]string)
			}
			f.Failed[d.Label] = d.Err.Error()
		}
	}

	for _, t := range m.Topics {
		d, match, ok := primary(docs, t.Name)
		if !ok {
			f.NotFound = append(f.NotFound, t.Name)
			continue
		}
		ids, _ := t.QuestionIDs()
		finding := TopicFinding{
			Description:    t.Description,
			PDF:            d.Label,
			Page:           match.Page,
			TermFound:      match.Keyword,
			Context:        match.Context,
			Pages:          d.Result.Pages(t.Name),
			TermsFound:     d.Result.Keywords(t.Name),
			Questions:      ids,
			AllOccurrences: []Occurrence{},
		}
		for _, other := range docs {
			if other.Result == nil {
				continue
			}
			for _, om := range other.Result.Matches[t.Name] {
				finding.AllOccurrences = append(finding.AllOccurrences, Occurrence{
					PDF:  other.Label,
					Page: om.Page,
					Term: om.Keyword,
				})
			}
		}
		f.DetailedFindings[t.Name] = finding
	}
	return f
}

// Markers groups marker scans by document label. Documents without a
// marker scan are omitted.
func Markers(docs []DocumentScan) map[string][]scan.Marker {
	out := make(map[string][]scan.Marker)
	for _, d := range docs {
		if d.Markers == nil {
			continue
		}
		out[d.Label] = d.Markers
	}
	return out
}
