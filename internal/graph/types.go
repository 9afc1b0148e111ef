package graph

import (
	"github.com/roach88/yggdrasil/internal/rdf"
)

// TypeCount is the number of distinct resources of one type in a graph.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// GraphStat is the size of one named graph.
type GraphStat struct {
	Graph   string `json:"graph"`
	Triples int    `json:"triples"`
}

// Lineage is one lineage edge from a published resource to an agenda.
type Lineage struct {
	Resource string `json:"resource"`
	Agenda   string `json:"agenda"`
}

// Less orders lineage edges by resource, then agenda.
func (l Lineage) Less(o Lineage) bool {
	if l.Resource != o.Resource {
		return l.Resource < o.Resource
	}
	return l.Agenda < o.Agenda
}

// Anchor selects which node of a traversal a Condition applies to.
type Anchor int

const (
	// OnResource applies to the resource being collected.
	OnResource Anchor = iota
	// OnAnchor applies to the scratch resource the traversal started from.
	OnAnchor
	// OnAgenda applies to the agenda the anchor traces lineage to.
	OnAgenda
)

func (a Anchor) String() string {
	switch a {
	case OnResource:
		return "resource"
	case OnAnchor:
		return "anchor"
	case OnAgenda:
		return "agenda"
	default:
		return "unknown"
	}
}

// Condition is an existence test evaluated in the source graph: the node
// selected by On must reach, via Path, one of Values. An empty Values list
// means "reaches any node". Negate turns the test into a non-existence test.
// An identity Path tests the node itself against Values.
type Condition struct {
	On     Anchor
	Path   rdf.Path
	Values []rdf.Term
	Negate bool
}

// Traversal is one collection step: starting from every scratch resource of
// type Anchor, follow Path in Source and insert each reached typed resource
// into Scratch, together with a lineage edge to every agenda the anchor
// traces lineage to.
type Traversal struct {
	Source  string
	Scratch string
	Anchor  string
	Path    rdf.Path

	// Types restricts reached resources to these rdf:types. Empty means any
	// typed resource.
	Types []string

	// AssignType, when set, is inserted as the collected resource's type
	// instead of its types in Source.
	AssignType string

	Where []Condition
}

// AgendaSeed inserts agendas from Source into Scratch, each with a lineage
// edge to itself. Either All is set or Agendas lists the candidates.
// Conditions apply to the agenda (OnResource).
type AgendaSeed struct {
	Source  string
	Scratch string
	Agendas []string
	All     bool
	Where   []Condition
}

// Scope is the reconciliation context: the previously published Target,
// the freshly built Scratch and the chunk of in-scope agendas.
type Scope struct {
	Target  string
	Scratch string
	Agendas []string
}

// Reach asks which of Subjects are of type Type in Graph and which nodes of
// type Target they reach via any of Paths. The identity path makes a
// subject reach itself.
type Reach struct {
	Graph    string
	Subjects []string
	Type     string
	Paths    []rdf.Path
	Target   string
}
