package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/yggdrasil/internal/graph"
)

// ReachableAgendas returns the resources of type r.Target that the subjects
// of type r.Type reach via any of r.Paths, sorted and without duplicates.
func (s *Store) ReachableAgendas(ctx context.Context, r graph.Reach) ([]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(r.Subjects) == 0 {
		return []string{}, nil
	}

	subjects, err := subjectsOfType(ctx, s.db, r.Graph, r.Type, encAll(r.Subjects))
	if err != nil {
		return nil, fmt.Errorf("reach %s: %w", r.Type, err)
	}
	if len(subjects) == 0 {
		return []string{}, nil
	}

	reached := nodeSet{}
	for _, p := range r.Paths {
		res, err := walk(ctx, s.db, r.Graph, subjects, p)
		if err != nil {
			return nil, fmt.Errorf("reach %s via %s: %w", r.Type, p, err)
		}
		for _, set := range res {
			for n := range set {
				if len(n) > 0 && n[0] == '<' {
					reached.add(n)
				}
			}
		}
	}
	if len(reached) == 0 {
		return []string{}, nil
	}

	targets, err := subjectsOfType(ctx, s.db, r.Graph, r.Target, reached.keys())
	if err != nil {
		return nil, fmt.Errorf("reach %s: %w", r.Type, err)
	}
	out := decodeIRIs(targets)
	sort.Strings(out)
	return out, nil
}
