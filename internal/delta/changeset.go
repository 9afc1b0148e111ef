package delta

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/yggdrasil/internal/sparql"
)

// Triple is one changed statement. Terms use the SPARQL JSON term shape.
type Triple struct {
	Subject   sparql.Binding `json:"subject"`
	Predicate sparql.Binding `json:"predicate"`
	Object    sparql.Binding `json:"object"`
}

// Changeset is one entry of a delta notification.
type Changeset struct {
	Inserts []Triple `json:"inserts"`
	Deletes []Triple `json:"deletes"`
}

// ParseChangesets decodes a delta notification body.
func ParseChangesets(data []byte) ([]Changeset, error) {
	var cs []Changeset
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("decode delta: %w", err)
	}
	return cs, nil
}

// Subjects returns the resources a changeset touches: every subject, and
// every object that is an IRI. Inserts come before deletes; duplicates are
// kept.
func (c Changeset) Subjects() []string {
	out := make([]string, 0, 2*(len(c.Inserts)+len(c.Deletes)))
	for _, ts := range [][]Triple{c.Inserts, c.Deletes} {
		for _, t := range ts {
			out = append(out, t.Subject.Value)
			if t.Object.Type == "uri" {
				out = append(out, t.Object.Value)
			}
		}
	}
	return out
}
