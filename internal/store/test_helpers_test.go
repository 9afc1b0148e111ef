package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/yggdrasil/internal/rdf"
)

const (
	srcGraph     = "http://example.org/graphs/source"
	scratchGraph = "http://example.org/graphs/scratch"
	targetGraph  = "http://example.org/graphs/target"
)

// createTestStore creates a new on-disk store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// load inserts an N-Triples document into graph g.
func load(t *testing.T, s *Store, g, doc string) {
	t.Helper()
	triples, err := rdf.ParseNTriples(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseNTriples() failed: %v", err)
	}
	if err := s.InsertData(context.Background(), g, triples); err != nil {
		t.Fatalf("InsertData() failed: %v", err)
	}
}

// dump renders graph g as sorted N-Triples.
func dump(t *testing.T, s *Store, g string) string {
	t.Helper()
	triples, err := s.Triples(context.Background(), g)
	if err != nil {
		t.Fatalf("Triples() failed: %v", err)
	}
	return rdf.FormatNTriples(triples)
}

// has reports whether g holds the triple given in N-Triples syntax.
func has(t *testing.T, s *Store, g, line string) bool {
	t.Helper()
	triples, err := rdf.ParseNTriples(strings.NewReader(line))
	if err != nil || len(triples) != 1 {
		t.Fatalf("bad triple %q: %v", line, err)
	}
	ok, err := s.Contains(context.Background(), g, triples[0])
	if err != nil {
		t.Fatalf("Contains() failed: %v", err)
	}
	return ok
}

// nt renders one N-Triples line. Objects starting with a quote are taken
// as literals, everything else as IRIs.
func nt(s, p, o string) string {
	obj := "<" + o + ">"
	if strings.HasPrefix(o, `"`) {
		obj = o
	}
	return "<" + s + "> <" + p + "> " + obj + " .\n"
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
