package graph

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid graph operation")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks that the traversal is executable by every backend.
func (t Traversal) Validate() error {
	if t.Source == "" || t.Scratch == "" {
		return invalid("traversal needs source and scratch graphs")
	}
	if t.Source == t.Scratch {
		return invalid("traversal source and scratch must differ")
	}
	if t.Anchor == "" {
		return invalid("traversal needs an anchor type")
	}
	if t.Path.IsIdentity() {
		return invalid("traversal from %s has an empty path", t.Anchor)
	}
	return validateConditions(t.Where, true)
}

// Validate checks that the seed is executable by every backend.
func (s AgendaSeed) Validate() error {
	if s.Source == "" || s.Scratch == "" {
		return invalid("agenda seed needs source and scratch graphs")
	}
	if !s.All && len(s.Agendas) == 0 {
		return invalid("agenda seed needs agendas or All")
	}
	if s.All && len(s.Agendas) > 0 {
		return invalid("agenda seed cannot combine All with explicit agendas")
	}
	for _, c := range s.Where {
		if c.On != OnResource {
			return invalid("agenda seed conditions must apply to the agenda itself, got %s", c.On)
		}
	}
	return validateConditions(s.Where, false)
}

// Validate checks the reachability query.
func (r Reach) Validate() error {
	if r.Graph == "" || r.Type == "" || r.Target == "" {
		return invalid("reach needs graph, type and target type")
	}
	if len(r.Paths) == 0 {
		return invalid("reach for %s has no paths", r.Type)
	}
	return nil
}

func validateConditions(cs []Condition, allowAnchors bool) error {
	for i, c := range cs {
		if c.On > OnAgenda || c.On < OnResource {
			return invalid("condition %d: unknown anchor %d", i, int(c.On))
		}
		if !allowAnchors && c.On != OnResource {
			return invalid("condition %d: anchor %s not available", i, c.On)
		}
		if c.Path.IsIdentity() && len(c.Values) == 0 {
			return invalid("condition %d: identity path needs values", i)
		}
	}
	return nil
}
