package delta

import (
	"sort"
	"sync"

	"github.com/roach88/yggdrasil/internal/observability"
)

// Accumulator collects the distinct resources touched since the last drain.
//
// Thread-safety: Accumulator is safe for concurrent use.
type Accumulator struct {
	mu       sync.Mutex
	subjects map[string]struct{}
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{subjects: map[string]struct{}{}}
}

// Add records subjects. Empty strings are ignored.
func (a *Accumulator) Add(subjects ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	added := 0
	for _, s := range subjects {
		if s == "" {
			continue
		}
		if _, ok := a.subjects[s]; !ok {
			a.subjects[s] = struct{}{}
			added++
		}
	}
	observability.DeltaSubjects.Add(float64(added))
}

// AddChangesets records every resource the changesets touch.
func (a *Accumulator) AddChangesets(changesets []Changeset) {
	for _, c := range changesets {
		a.Add(c.Subjects()...)
	}
}

// DrainAndReset returns the recorded resources, sorted, and empties the
// accumulator.
func (a *Accumulator) DrainAndReset() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.subjects))
	for s := range a.subjects {
		out = append(out, s)
	}
	a.subjects = map[string]struct{}{}
	sort.Strings(out)
	return out
}

// Len returns the number of recorded resources.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subjects)
}
