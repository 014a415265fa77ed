package leadgen

import (
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Stats counts what happened to every company a run touched.
type Stats struct {
	// Processed counts unique companies evaluated across all queries.
	Processed int
	// Accepted counts leads written to the sink, PerCategory breaks the same
	// number down by category name.
	Accepted          int
	PerCategory       map[string]int
	SkippedInactive   int
	SkippedNoCategory int
	SkippedTurnover   int
	SkippedDirectors  int
	ProfileFailures   int
	SearchFailures    int
	Started           time.Time
	Finished          time.Time
}

func (s *Stats) countAccepted(category string) {
	s.Accepted++
	if s.PerCategory == nil {
		s.PerCategory = map[string]int{}
	}
	s.PerCategory[category]++
}

func (s Stats) Duration() time.Duration {
	return s.Finished.Sub(s.Started).Round(time.Second)
}

// Render formats the run summary as a table for the terminal and the
// notification email.
func (s Stats) Render() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"outcome", "companies"})
	t.AppendRow(table.Row{"processed", s.Processed})
	t.AppendRow(table.Row{"accepted", s.Accepted})
	for _, category := range sortedKeys(s.PerCategory) {
		t.AppendRow(table.Row{"accepted: " + category, s.PerCategory[category]})
	}
	t.AppendRow(table.Row{"skipped: not active", s.SkippedInactive})
	t.AppendRow(table.Row{"skipped: no category", s.SkippedNoCategory})
	t.AppendRow(table.Row{"skipped: turnover", s.SkippedTurnover})
	t.AppendRow(table.Row{"skipped: directors", s.SkippedDirectors})
	t.AppendRow(table.Row{"profile failures", s.ProfileFailures})
	t.AppendRow(table.Row{"search failures", s.SearchFailures})
	t.AppendFooter(table.Row{"duration", s.Duration()})
	return t.Render()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
