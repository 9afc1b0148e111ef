package sparql

import (
	"fmt"
	"strconv"

	"github.com/roach88/yggdrasil/internal/rdf"
)

// Results is a SPARQL 1.1 JSON result document.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean,omitempty"`
}

// Binding is one bound value.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Term converts the binding to an RDF term.
func (b Binding) Term() (rdf.Term, error) {
	switch b.Type {
	case "uri":
		return rdf.NewIRI(b.Value), nil
	case "bnode":
		return rdf.NewBlank(b.Value), nil
	case "literal", "typed-literal":
		switch {
		case b.Lang != "":
			return rdf.NewLangLiteral(b.Value, b.Lang), nil
		case b.Datatype != "":
			return rdf.NewTypedLiteral(b.Value, b.Datatype), nil
		default:
			return rdf.NewLiteral(b.Value), nil
		}
	default:
		return rdf.Term{}, fmt.Errorf("%w: unknown binding type %q", ErrMalformedResponse, b.Type)
	}
}

// IRIs returns the IRI values bound to name, in row order. Rows where name
// is unbound or not an IRI are skipped.
func (r *Results) IRIs(name string) []string {
	out := make([]string, 0, len(r.Results.Bindings))
	for _, row := range r.Results.Bindings {
		if b, ok := row[name]; ok && b.Type == "uri" {
			out = append(out, b.Value)
		}
	}
	return out
}

// Int reads name from the first row as an integer.
func (r *Results) Int(name string) (int, error) {
	if len(r.Results.Bindings) == 0 {
		return 0, fmt.Errorf("%w: no rows for %s", ErrMalformedResponse, name)
	}
	b, ok := r.Results.Bindings[0][name]
	if !ok {
		return 0, fmt.Errorf("%w: %s unbound", ErrMalformedResponse, name)
	}
	n, err := strconv.Atoi(b.Value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer: %v", ErrMalformedResponse, name, err)
	}
	return n, nil
}
