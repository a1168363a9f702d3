package scan

// Result holds the matches of one scan, keyed by topic name. Topics with
// no match have no entry.
type Result struct {
	Label   string
	Matches map[string][]Match
	// order records topics in the order of their first match.
	order []string

	PagesScanned int
	PagesSkipped int
	// StoppedAt is the last page tested when the scan ended early because
	// every topic was resolved. 0 when the scan ran to its last page.
	StoppedAt int
}

func newResult() *Result {
	return &Result{Matches: make(map[string][]Match)}
}

func (r *Result) add(m Match) {
	if _, ok := r.Matches[m.Topic]; !ok {
		r.order = append(r.order, m.Topic)
	}
	r.Matches[m.Topic] = append(r.Matches[m.Topic], m)
}

// Found reports whether topic matched anywhere.
func (r *Result) Found(topic string) bool {
	return len(r.Matches[topic]) > 0
}

// Primary returns the first match for topic: the lowest page, and on that
// page the earliest keyword in list order.
func (r *Result) Primary(topic string) (Match, bool) {
	ms := r.Matches[topic]
	if len(ms) == 0 {
		return Match{}, false
	}
	return ms[0], true
}

// PrimaryPages maps each matched topic to its primary page.
func (r *Result) PrimaryPages() map[string]int {
	out := make(map[string]int, len(r.Matches))
	for topic, ms := range r.Matches {
		if len(ms) > 0 {
			out[topic] = ms[0].Page
		}
	}
	return out
}

// Pages returns the pages topic matched on, ascending.
func (r *Result) Pages(topic string) []int {
	ms := r.Matches[topic]
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Page)
	}
	return out
}

// Keywords returns the distinct keywords that matched for topic, in order
// of first appearance.
func (r *Result) Keywords(topic string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range r.Matches[topic] {
		if !seen[m.Keyword] {
			seen[m.Keyword] = true
			out = append(out, m.Keyword)
		}
	}
	return out
}

// Topics returns the matched topics in the order they were first found.
func (r *Result) Topics() []string {
	return append([]string(nil), r.order...)
}

// Missing returns the names from topics that have no match, in input order.
func (r *Result) Missing(topics []Topic) []string {
	var out []string
	for _, t := range topics {
		if !r.Found(t.Name) {
			out = append(out, t.Name)
		}
	}
	return out
}
