package rdf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SyntaxError reports a malformed N-Triples/N-Quads line.
type SyntaxError struct {
	Line    int
	Col     int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Message)
	}
	return fmt.Sprintf("col %d: %s", e.Col, e.Message)
}

// ParseTerm parses a single term in N-Triples syntax.
func ParseTerm(s string) (Term, error) {
	p := &lineParser{src: s}
	t, err := p.term()
	if err != nil {
		return Term{}, err
	}
	p.skipSpace()
	if !p.eof() {
		return Term{}, p.errorf("unexpected trailing input %q", p.src[p.pos:])
	}
	return t, nil
}

// MustParseTerm is ParseTerm for constants and tests. It panics on error.
func MustParseTerm(s string) Term {
	t, err := ParseTerm(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseNTriples parses an N-Triples document. Graph labels are rejected.
func ParseNTriples(r io.Reader) ([]Triple, error) {
	var out []Triple
	err := scanLines(r, func(q Quad) error {
		if q.Graph != "" {
			return fmt.Errorf("graph label not allowed in N-Triples")
		}
		out = append(out, q.Triple)
		return nil
	})
	return out, err
}

// ParseNQuads parses an N-Quads document. Lines without a graph label
// get defaultGraph.
func ParseNQuads(r io.Reader, defaultGraph string) ([]Quad, error) {
	var out []Quad
	err := scanLines(r, func(q Quad) error {
		if q.Graph == "" {
			q.Graph = defaultGraph
		}
		out = append(out, q)
		return nil
	})
	return out, err
}

func scanLines(r io.Reader, fn func(Quad) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		q, ok, err := parseLine(sc.Text())
		if err != nil {
			var se *SyntaxError
			if errors.As(err, &se) {
				se.Line = line
				return se
			}
			return fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			continue
		}
		if err := fn(q); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

// parseLine parses one statement. ok is false for blank and comment lines.
func parseLine(line string) (q Quad, ok bool, err error) {
	p := &lineParser{src: line}
	p.skipSpace()
	if p.eof() || p.peek() == '#' {
		return Quad{}, false, nil
	}

	if q.S, err = p.term(); err != nil {
		return Quad{}, false, err
	}
	if q.S.Kind == KindLiteral {
		return Quad{}, false, p.errorf("literal subject")
	}
	p.skipSpace()
	if q.P, err = p.term(); err != nil {
		return Quad{}, false, err
	}
	if q.P.Kind != KindIRI {
		return Quad{}, false, p.errorf("predicate must be an IRI")
	}
	p.skipSpace()
	if q.O, err = p.term(); err != nil {
		return Quad{}, false, err
	}
	p.skipSpace()
	if !p.eof() && p.peek() != '.' {
		g, err := p.term()
		if err != nil {
			return Quad{}, false, err
		}
		if g.Kind != KindIRI {
			return Quad{}, false, p.errorf("graph label must be an IRI")
		}
		q.Graph = g.Value
		p.skipSpace()
	}
	if p.eof() || p.peek() != '.' {
		return Quad{}, false, p.errorf("expected '.'")
	}
	p.pos++
	p.skipSpace()
	if !p.eof() && p.peek() != '#' {
		return Quad{}, false, p.errorf("unexpected trailing input")
	}
	return q, true, nil
}

type lineParser struct {
	src string
	pos int
}

func (p *lineParser) eof() bool  { return p.pos >= len(p.src) }
func (p *lineParser) peek() byte { return p.src[p.pos] }

func (p *lineParser) errorf(format string, args ...any) error {
	return &SyntaxError{Col: p.pos + 1, Message: fmt.Sprintf(format, args...)}
}

func (p *lineParser) skipSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *lineParser) term() (Term, error) {
	if p.eof() {
		return Term{}, p.errorf("unexpected end of input")
	}
	switch p.peek() {
	case '<':
		iri, err := p.iriRef()
		if err != nil {
			return Term{}, err
		}
		return NewIRI(iri), nil
	case '_':
		if !strings.HasPrefix(p.src[p.pos:], "_:") {
			return Term{}, p.errorf("malformed blank node")
		}
		p.pos += 2
		start := p.pos
		for !p.eof() && !isDelimiter(p.peek()) {
			p.pos++
		}
		if start == p.pos {
			return Term{}, p.errorf("empty blank node label")
		}
		return NewBlank(p.src[start:p.pos]), nil
	case '"':
		return p.literal()
	default:
		return Term{}, p.errorf("unexpected character %q", p.peek())
	}
}

func isDelimiter(c byte) bool {
	return c == ' ' || c == '\t' || c == '.' || c == '<' || c == '"'
}

func (p *lineParser) iriRef() (string, error) {
	p.pos++ // '<'
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated IRI")
		}
		c := p.peek()
		switch c {
		case '>':
			p.pos++
			return b.String(), nil
		case '\\':
			r, err := p.unicodeEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *lineParser) literal() (Term, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.eof() {
			return Term{}, p.errorf("unterminated literal")
		}
		c := p.peek()
		if c == '"' {
			p.pos++
			break
		}
		if c != '\\' {
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			b.WriteRune(r)
			p.pos += size
			continue
		}
		if p.pos+1 >= len(p.src) {
			return Term{}, p.errorf("dangling escape")
		}
		switch p.src[p.pos+1] {
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		case '\\':
			b.WriteByte('\\')
		case 'u', 'U':
			r, err := p.unicodeEscape()
			if err != nil {
				return Term{}, err
			}
			b.WriteRune(r)
			continue
		default:
			return Term{}, p.errorf("invalid escape \\%c", p.src[p.pos+1])
		}
		p.pos += 2
	}

	value := b.String()
	if !p.eof() && p.peek() == '@' {
		p.pos++
		start := p.pos
		for !p.eof() && (isAlnum(p.peek()) || p.peek() == '-') {
			p.pos++
		}
		if start == p.pos {
			return Term{}, p.errorf("empty language tag")
		}
		return NewLangLiteral(value, p.src[start:p.pos]), nil
	}
	if strings.HasPrefix(p.src[p.pos:], "^^") {
		p.pos += 2
		if p.eof() || p.peek() != '<' {
			return Term{}, p.errorf("expected datatype IRI")
		}
		dt, err := p.iriRef()
		if err != nil {
			return Term{}, err
		}
		return NewTypedLiteral(value, dt), nil
	}
	return NewLiteral(value), nil
}

// unicodeEscape consumes \uXXXX or \UXXXXXXXX at the current position.
func (p *lineParser) unicodeEscape() (rune, error) {
	if p.pos+1 >= len(p.src) {
		return 0, p.errorf("dangling escape")
	}
	var n int
	switch p.src[p.pos+1] {
	case 'u':
		n = 4
	case 'U':
		n = 8
	default:
		return 0, p.errorf("invalid escape \\%c", p.src[p.pos+1])
	}
	start := p.pos + 2
	if start+n > len(p.src) {
		return 0, p.errorf("short unicode escape")
	}
	v, err := strconv.ParseUint(p.src[start:start+n], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid unicode escape")
	}
	p.pos = start + n
	return rune(v), nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
