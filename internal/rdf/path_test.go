package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrefixes = PrefixMap{
	"dct":     "http://purl.org/dc/terms/",
	"ext":     "http://mu.semte.ch/vocabularies/ext/",
	"dossier": "https://data.vlaanderen.be/ns/dossier#",
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		expr string
		want Path
	}{
		{"^dct:hasPart", Path{{Predicate: "http://purl.org/dc/terms/hasPart", Inverse: true}}},
		{"dossier:collectie.bestaatUit", Path{{Predicate: "https://data.vlaanderen.be/ns/dossier#collectie.bestaatUit"}}},
		{"^ext:antwoorden* / ^dct:hasPart", Path{
			{Predicate: "http://mu.semte.ch/vocabularies/ext/antwoorden", Inverse: true, Modifier: ModZeroOrMore},
			{Predicate: "http://purl.org/dc/terms/hasPart", Inverse: true},
		}},
		{"dossier:doorloopt?/ext:x+", Path{
			{Predicate: "https://data.vlaanderen.be/ns/dossier#doorloopt", Modifier: ModZeroOrOne},
			{Predicate: "http://mu.semte.ch/vocabularies/ext/x", Modifier: ModOneOrMore},
		}},
		{"<http://example.org/p/q> / a", Path{
			{Predicate: "http://example.org/p/q"},
			{Predicate: RDFType},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParsePath(tt.expr, testPrefixes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, expr := range []string{"", "^", "dct:hasPart /", "unknown:p", "noprefix", "dct:a dct:b"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParsePath(expr, testPrefixes)
			assert.Error(t, err)
		})
	}
}

func TestPathFormat(t *testing.T) {
	p := MustParsePath("^ext:antwoorden* / dossier:doorloopt?", testPrefixes)

	assert.Equal(t, "^ext:antwoorden* / dossier:doorloopt?", p.Format(testPrefixes))
	assert.Equal(t,
		"^<http://mu.semte.ch/vocabularies/ext/antwoorden>* / <https://data.vlaanderen.be/ns/dossier#doorloopt>?",
		p.String())
}

func TestPathConcatDoesNotAlias(t *testing.T) {
	a := MustParsePath("dct:hasPart", testPrefixes)
	b := MustParsePath("ext:x", testPrefixes)
	c := a.Concat(b)
	c[0].Inverse = true

	assert.False(t, a[0].Inverse)
	assert.Len(t, c, 2)
	assert.True(t, Path{}.IsIdentity())
}

func TestPrefixMapCompact(t *testing.T) {
	m := PrefixMap{"ex": "http://ex.org/", "exa": "http://ex.org/a/"}

	name, ok := m.Compact("http://ex.org/a/b")
	require.True(t, ok)
	assert.Equal(t, "exa:b", name)

	_, ok = m.Compact("http://other.org/x")
	assert.False(t, ok)
	assert.Equal(t, []string{"ex", "exa"}, m.Labels())
}
