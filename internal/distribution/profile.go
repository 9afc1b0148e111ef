package distribution

import (
	"errors"
	"fmt"

	"github.com/roach88/yggdrasil/internal/vocab"
)

// CopyStrategy selects how scratch is published into the target graph.
type CopyStrategy string

const (
	// CopyBulk adds the whole scratch graph to target in one graph
	// operation. Downstream consumers see no per-triple changes.
	CopyBulk CopyStrategy = "bulk"

	// CopyDelta inserts only the triples target lacks, in batches, so
	// downstream consumers are notified of exactly what changed.
	CopyDelta CopyStrategy = "delta"
)

// Denied is one (type, predicate) pair that must never be published.
type Denied struct {
	Type      string `json:"type" yaml:"type" validate:"required"`
	Predicate string `json:"predicate" yaml:"predicate" validate:"required"`
}

// DefaultDenylist keeps private agendaitem comments out of every view.
var DefaultDenylist = []Denied{
	{Type: vocab.Agendapunt, Predicate: vocab.PrivateComment},
}

// Profile describes one view: where it reads, where it publishes, how its
// resources are collected and what is withheld.
type Profile struct {
	Name       string
	Source     string
	Target     string
	Collectors []Collector
	Denylist   []Denied

	// Decisions and documents are only collected once the meeting released
	// them.
	ValidateDecisionsRelease bool
	ValidateDocumentsRelease bool

	// PruneHiddenReferences drops triples pointing at resources of the
	// source graph that the view does not publish.
	PruneHiddenReferences bool

	CopyStrategy CopyStrategy
}

// Validate checks the profile before an engine is built for it.
func (p Profile) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("profile needs a name"))
	}
	if p.Source == "" || p.Target == "" {
		errs = append(errs, fmt.Errorf("profile %q needs source and target graphs", p.Name))
	}
	if p.Source == p.Target {
		errs = append(errs, fmt.Errorf("profile %q publishes into its own source graph", p.Name))
	}
	if len(p.Collectors) == 0 {
		errs = append(errs, fmt.Errorf("profile %q has no collectors", p.Name))
	}
	switch p.CopyStrategy {
	case CopyBulk, CopyDelta:
	default:
		errs = append(errs, fmt.Errorf("profile %q: unknown copy strategy %q", p.Name, p.CopyStrategy))
	}
	for _, d := range p.Denylist {
		if d.Type == "" || d.Predicate == "" {
			errs = append(errs, fmt.Errorf("profile %q: denylist entry needs type and predicate", p.Name))
		}
	}
	return errors.Join(errs...)
}
