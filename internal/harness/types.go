package harness

import (
	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/graph"
)

// RunSummary is the deterministic part of one run's result.
type RunSummary struct {
	Step           int               `json:"step"`
	Scope          distribution.Scope `json:"scope"`
	Collected      []graph.TypeCount `json:"collected,omitempty"`
	EndedEarly     bool              `json:"ended_early,omitempty"`
	Orphans        int               `json:"orphans"`
	Stale          int               `json:"stale"`
	LineageRemoved int               `json:"lineage_removed"`
	Copied         int               `json:"copied"`
	Error          string            `json:"error,omitempty"`
}

func summarize(step int, res distribution.RunResult) RunSummary {
	s := RunSummary{
		Step:           step,
		Scope:          res.Scope,
		Collected:      res.Collected,
		EndedEarly:     res.EndedEarly,
		Orphans:        res.Orphans,
		Stale:          res.Stale,
		LineageRemoved: res.LineageRemoved,
		Copied:         res.Copied,
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
	}
	return s
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Runs []RunSummary `json:"runs"`

	// Errors lists every failed expectation and assertion.
	Errors []string `json:"errors,omitempty"`

	// Target is the final N-Triples dump of the profile's target graph.
	Target string `json:"target"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Runs:   []RunSummary{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
