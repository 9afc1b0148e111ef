package rdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTerm(t *testing.T) {
	tests := []struct {
		in   string
		want Term
	}{
		{"<http://example.org/a>", NewIRI("http://example.org/a")},
		{"_:b1", NewBlank("b1")},
		{`"plain"`, NewLiteral("plain")},
		{`"tab\there"`, NewLiteral("tab\there")},
		{`"2024-01-01"^^<http://www.w3.org/2001/XMLSchema#date>`,
			NewTypedLiteral("2024-01-01", "http://www.w3.org/2001/XMLSchema#date")},
		{`"hallo"@nl-BE`, NewLangLiteral("hallo", "nl-be")},
		{`"café"`, NewLiteral("café")},
		{`<http://example.org/ x>`, NewIRI("http://example.org/ x")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTerm(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTermErrors(t *testing.T) {
	for _, in := range []string{"", "<unterminated", `"open`, `"x"^^nope`, "plain", `"bad\q"`} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTerm(in)
			assert.Error(t, err)
		})
	}
}

func TestParseNTriples(t *testing.T) {
	doc := `# comment
<http://ex/a> <http://ex/p> <http://ex/b> .

<http://ex/a> <http://ex/label> "A \"quoted\" label"@en .
_:n1 <http://ex/p> "1"^^<http://www.w3.org/2001/XMLSchema#integer> . # trailing
`
	triples, err := ParseNTriples(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, triples, 3)

	assert.Equal(t, NewIRI("http://ex/b"), triples[0].O)
	assert.Equal(t, `A "quoted" label`, triples[1].O.Value)
	assert.Equal(t, "en", triples[1].O.Lang)
	assert.Equal(t, KindBlank, triples[2].S.Kind)
}

func TestParseNTriplesRejectsGraphLabel(t *testing.T) {
	_, err := ParseNTriples(strings.NewReader("<http://ex/a> <http://ex/p> <http://ex/b> <http://ex/g> .\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestParseNTriplesSyntaxErrorHasLine(t *testing.T) {
	doc := "<http://ex/a> <http://ex/p> <http://ex/b> .\n<http://ex/a> \"lit\" <http://ex/b> .\n"
	_, err := ParseNTriples(strings.NewReader(doc))
	require.Error(t, err)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Line)
}

func TestParseNQuads(t *testing.T) {
	doc := "<http://ex/a> <http://ex/p> <http://ex/b> <http://ex/g1> .\n" +
		"<http://ex/a> <http://ex/p> <http://ex/c> .\n"
	quads, err := ParseNQuads(strings.NewReader(doc), "http://ex/default")
	require.NoError(t, err)
	require.Len(t, quads, 2)
	assert.Equal(t, "http://ex/g1", quads[0].Graph)
	assert.Equal(t, "http://ex/default", quads[1].Graph)
}

func TestFormatNTriplesRoundTrip(t *testing.T) {
	in := []Triple{
		NewTriple("http://ex/b", "http://ex/p", NewLiteral("line\nbreak")),
		NewTriple("http://ex/a", "http://ex/p", NewIRI("http://ex/c")),
	}
	doc := FormatNTriples(in)
	assert.Equal(t, "<http://ex/a> <http://ex/p> <http://ex/c> .\n<http://ex/b> <http://ex/p> \"line\\nbreak\" .\n", doc)

	out, err := ParseNTriples(strings.NewReader(doc))
	require.NoError(t, err)
	assert.ElementsMatch(t, in, out)
}
