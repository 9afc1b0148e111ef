package pathspec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/yggdrasil/internal/rdf"
)

// Spec is one path table entry. A bare path reaches an agenda; with Next
// set it reaches a resource of type Next instead.
type Spec struct {
	Path string `yaml:"path" json:"path"`
	Next string `yaml:"next,omitempty" json:"next,omitempty"`
}

// UnmarshalYAML accepts either a scalar path or a {path, next} mapping.
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Path = node.Value
		s.Next = ""
		return nil
	}
	type plain Spec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Spec(p)
	return nil
}

// UnmarshalJSON accepts either a string path or a {path, next} object.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Spec{Path: str}
		return nil
	}
	type plain Spec
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Spec(p)
	return nil
}

// Table is the path table as configured.
type Table struct {
	// Prefixes expands prefixed names in paths and types.
	Prefixes map[string]string `yaml:"prefixes" json:"prefixes"`

	// Types maps a type name to its class, as a prefixed name or full IRI.
	Types map[string]string `yaml:"types" json:"types"`

	// Paths maps a type name to the ways resources of that type reach an
	// agenda.
	Paths map[string][]Spec `yaml:"paths" json:"paths"`
}

// Flattened is a compiled path table: every chain expanded into full paths
// to an agenda.
type Flattened struct {
	// Names lists the type names in sorted order.
	Names []string

	// Types maps a type name to its class IRI.
	Types map[string]string

	// Paths maps a type name to its full paths, deduplicated, in first
	// occurrence order.
	Paths map[string][]rdf.Path

	prefixes rdf.PrefixMap
}

// Prefixes returns the prefix table the paths were parsed with.
func (f *Flattened) Prefixes() rdf.PrefixMap {
	return f.prefixes
}

// Format renders the flattened table, one "name: path" line per path.
func (f *Flattened) Format() string {
	var b strings.Builder
	for _, name := range f.Names {
		for _, p := range f.Paths[name] {
			fmt.Fprintf(&b, "%s: %s\n", name, p.Format(f.prefixes))
		}
	}
	return b.String()
}

// Compile validates the table and flattens every chain.
//
// Validation:
//   - every path expression parses
//   - every entry's type name has a class
//   - every next names another entry
//   - next references form no cycle, self references included
func Compile(t Table) (*Flattened, error) {
	prefixes := rdf.PrefixMap(t.Prefixes)

	names := make([]string, 0, len(t.Paths))
	for name := range t.Paths {
		names = append(names, name)
	}
	sort.Strings(names)

	types := make(map[string]string, len(names))
	parsed := make(map[string][]parsedSpec, len(names))
	for _, name := range names {
		typ, err := resolveType(t.Types[name], prefixes)
		if err != nil {
			return nil, &ConfigError{
				Code:    ErrCodeUnknownType,
				Type:    name,
				Message: err.Error(),
			}
		}
		types[name] = typ

		for _, spec := range t.Paths[name] {
			path, err := rdf.ParsePath(spec.Path, prefixes)
			if err != nil {
				return nil, &ConfigError{Code: ErrCodeBadPath, Type: name, Message: err.Error()}
			}
			if spec.Next != "" {
				if _, ok := t.Paths[spec.Next]; !ok {
					return nil, &ConfigError{
						Code:    ErrCodeUnknownNext,
						Type:    name,
						Message: fmt.Sprintf("next %q has no path entry", spec.Next),
					}
				}
			}
			parsed[name] = append(parsed[name], parsedSpec{path: path, next: spec.Next})
		}
	}

	if err := checkCycles(names, parsed); err != nil {
		return nil, err
	}

	flat := &Flattened{
		Names:    names,
		Types:    types,
		Paths:    make(map[string][]rdf.Path, len(names)),
		prefixes: prefixes,
	}
	for _, name := range names {
		flat.Paths[name] = flatten(name, parsed, flat.Paths)
	}
	return flat, nil
}

type parsedSpec struct {
	path rdf.Path
	next string
}

func resolveType(typ string, prefixes rdf.PrefixMap) (string, error) {
	switch {
	case typ == "":
		return "", fmt.Errorf("no class configured")
	case strings.HasPrefix(typ, "<") && strings.HasSuffix(typ, ">"):
		return typ[1 : len(typ)-1], nil
	case strings.Contains(typ, "://"):
		return typ, nil
	default:
		return prefixes.Expand(typ)
	}
}

// flatten returns the full paths of name, memoised in done. Cycles have
// been ruled out before this runs.
func flatten(name string, parsed map[string][]parsedSpec, done map[string][]rdf.Path) []rdf.Path {
	if paths, ok := done[name]; ok {
		return paths
	}

	seen := map[string]bool{}
	var out []rdf.Path
	add := func(p rdf.Path) {
		key := p.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}
	for _, spec := range parsed[name] {
		if spec.next == "" {
			add(spec.path)
			continue
		}
		for _, tail := range flatten(spec.next, parsed, done) {
			add(spec.path.Concat(tail))
		}
	}
	if out == nil {
		out = []rdf.Path{}
	}
	done[name] = out
	return out
}
