package analyzer

import "github.com/mcncl/jsonedit/internal/models"

// Stats counts the nodes of a document by kind.
type Stats struct {
	Objects  int
	Arrays   int
	Strings  int
	Numbers  int
	Booleans int
	Nulls    int
	MaxDepth int
}

// Total returns the number of nodes, containers included.
func (s Stats) Total() int {
	return s.Objects + s.Arrays + s.Strings + s.Numbers + s.Booleans + s.Nulls
}

// Analyzer walks documents and collects Stats.
type Analyzer struct {
	stats Stats
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the statistics of root. The root sits at depth 0.
func (a *Analyzer) Analyze(root models.JSONValue) Stats {
	a.stats = Stats{}
	a.walk(root, 0)
	return a.stats
}

func (a *Analyzer) walk(v models.JSONValue, depth int) {
	if depth > a.stats.MaxDepth {
		a.stats.MaxDepth = depth
	}
	switch t := v.(type) {
	case models.JSONObject:
		a.stats.Objects++
		for _, m := range t {
			a.walk(m.Value, depth+1)
		}
	case models.JSONArray:
		a.stats.Arrays++
		for _, e := range t {
			a.walk(e, depth+1)
		}
	default:
		switch models.KindOf(v) {
		case models.KindString:
			a.stats.Strings++
		case models.KindNumber:
			a.stats.Numbers++
		case models.KindBoolean:
			a.stats.Booleans++
		case models.KindNull:
			a.stats.Nulls++
		}
	}
}
