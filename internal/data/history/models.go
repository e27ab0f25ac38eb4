package history

import (
	"time"

	"github.com/phensley/less-scanner/internal/engine/counter"
)

const SchemaVersion = 1

// Run is the stored summary of one scan.
type Run struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Files     int           `json:"files"`
	Scanned   int           `json:"scanned"`
	Failed    int           `json:"failed"`
	Workers   int           `json:"workers"`
	Duration  time.Duration `json:"duration"`
}

// SectionDelta compares distinct keys of one section between two runs.
type SectionDelta struct {
	Section  counter.Section `json:"section"`
	Previous int             `json:"previous"`
	Current  int             `json:"current"`
	// Added counts keys present now and absent in the previous run.
	Added int `json:"added"`
	// Removed counts keys present in the previous run and absent now.
	Removed int `json:"removed"`
}

func (d SectionDelta) Delta() int { return d.Current - d.Previous }

// Compare reports per-section key churn from prev to cur, in section order.
func Compare(prev, cur *counter.Store) []SectionDelta {
	out := make([]SectionDelta, 0, len(counter.Sections))
	for _, section := range counter.Sections {
		p, c := prev.Counter(section), cur.Counter(section)
		d := SectionDelta{Section: section, Previous: p.Len(), Current: c.Len()}
		c.Each(func(key string, _ int) {
			if p.Get(key) == 0 {
				d.Added++
			}
		})
		p.Each(func(key string, _ int) {
			if c.Get(key) == 0 {
				d.Removed++
			}
		})
		out = append(out, d)
	}
	return out
}
