package rdf

import (
	"fmt"
	"sort"
	"strings"
)

// Modifier is a property path repetition modifier.
type Modifier int

const (
	ModNone Modifier = iota
	ModZeroOrMore
	ModZeroOrOne
	ModOneOrMore
)

func (m Modifier) String() string {
	switch m {
	case ModZeroOrMore:
		return "*"
	case ModZeroOrOne:
		return "?"
	case ModOneOrMore:
		return "+"
	default:
		return ""
	}
}

// Step is one predicate hop of a path, optionally inverted and repeated.
type Step struct {
	Predicate string
	Inverse   bool
	Modifier  Modifier
}

// Path is a sequence of steps. The empty path is the identity: it reaches
// the node it starts from.
type Path []Step

// Concat returns p followed by q. Neither input is modified.
func (p Path) Concat(q Path) Path {
	out := make(Path, 0, len(p)+len(q))
	out = append(out, p...)
	return append(out, q...)
}

// IsIdentity reports whether the path has no steps.
func (p Path) IsIdentity() bool { return len(p) == 0 }

// String renders the path in SPARQL property path syntax with full IRIs.
func (p Path) String() string {
	return p.Format(nil)
}

// Format renders the path, compacting IRIs with prefixes when possible.
func (p Path) Format(prefixes PrefixMap) string {
	parts := make([]string, len(p))
	for i, s := range p {
		var b strings.Builder
		if s.Inverse {
			b.WriteByte('^')
		}
		if name, ok := prefixes.Compact(s.Predicate); ok {
			b.WriteString(name)
		} else {
			b.WriteString(NewIRI(s.Predicate).String())
		}
		b.WriteString(s.Modifier.String())
		parts[i] = b.String()
	}
	return strings.Join(parts, " / ")
}

// ParsePath parses a property path expression of the form
// `step ( "/" step )*` where a step is `"^"? name modifier?`, name is a
// prefixed name, `a`, or an <iri>, and modifier is one of * ? +.
func ParsePath(expr string, prefixes PrefixMap) (Path, error) {
	p := &pathParser{src: expr, prefixes: prefixes}
	p.skipSpace()
	if p.eof() {
		return nil, fmt.Errorf("empty path expression")
	}

	var out Path
	for {
		step, err := p.step()
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", expr, err)
		}
		out = append(out, step)
		p.skipSpace()
		if p.eof() {
			return out, nil
		}
		if p.src[p.pos] != '/' {
			return nil, fmt.Errorf("path %q: expected '/' at offset %d", expr, p.pos)
		}
		p.pos++
		p.skipSpace()
	}
}

// MustParsePath is ParsePath for package-level tables. It panics on error.
func MustParsePath(expr string, prefixes PrefixMap) Path {
	path, err := ParsePath(expr, prefixes)
	if err != nil {
		panic(err)
	}
	return path
}

type pathParser struct {
	src      string
	pos      int
	prefixes PrefixMap
}

func (p *pathParser) eof() bool { return p.pos >= len(p.src) }

func (p *pathParser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *pathParser) step() (Step, error) {
	var s Step
	if p.eof() {
		return s, fmt.Errorf("missing step")
	}
	if p.src[p.pos] == '^' {
		s.Inverse = true
		p.pos++
	}
	if p.eof() {
		return s, fmt.Errorf("missing predicate after '^'")
	}

	if p.src[p.pos] == '<' {
		end := strings.IndexByte(p.src[p.pos:], '>')
		if end < 0 {
			return s, fmt.Errorf("unterminated IRI")
		}
		s.Predicate = p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
	} else {
		start := p.pos
		for !p.eof() && isNameChar(p.src[p.pos]) {
			p.pos++
		}
		name := strings.TrimRight(p.src[start:p.pos], ".")
		p.pos = start + len(name)
		if name == "" {
			return s, fmt.Errorf("expected predicate at offset %d", start)
		}
		iri, err := p.prefixes.Expand(name)
		if err != nil {
			return s, err
		}
		s.Predicate = iri
	}

	if !p.eof() {
		switch p.src[p.pos] {
		case '*':
			s.Modifier = ModZeroOrMore
			p.pos++
		case '?':
			s.Modifier = ModZeroOrOne
			p.pos++
		case '+':
			s.Modifier = ModOneOrMore
			p.pos++
		}
	}
	return s, nil
}

func isNameChar(c byte) bool {
	return isAlnum(c) || c == '_' || c == '-' || c == '.' || c == ':' || c >= 0x80
}

// PrefixMap maps prefix labels to namespace IRIs.
type PrefixMap map[string]string

// Expand turns a prefixed name into a full IRI. The keyword "a" expands to
// rdf:type.
func (m PrefixMap) Expand(name string) (string, error) {
	if name == "a" {
		return RDFType, nil
	}
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return "", fmt.Errorf("%q is not a prefixed name", name)
	}
	ns, ok := m[prefix]
	if !ok {
		return "", fmt.Errorf("unknown prefix %q in %q", prefix, name)
	}
	return ns + local, nil
}

// Compact returns the shortest prefixed name for iri, preferring the
// longest matching namespace.
func (m PrefixMap) Compact(iri string) (string, bool) {
	best, bestPrefix, bestNS := "", "", ""
	for prefix, ns := range m {
		if ns == "" || !strings.HasPrefix(iri, ns) || len(ns) < len(bestNS) {
			continue
		}
		local := iri[len(ns):]
		if local == "" || strings.ContainsAny(local, "/#?<> ") {
			continue
		}
		if len(ns) == len(bestNS) && prefix > bestPrefix {
			continue
		}
		best, bestPrefix, bestNS = prefix+":"+local, prefix, ns
	}
	return best, best != ""
}

// Labels returns the prefix labels in sorted order.
func (m PrefixMap) Labels() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
