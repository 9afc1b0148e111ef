package store

import (
	"context"
	"testing"

	"github.com/roach88/yggdrasil/internal/vocab"
)

func TestTypeCounts_ExcludesTypes(t *testing.T) {
	s := createTestStore(t)
	load(t, s, scratchGraph,
		nt("http://ex/scratch", vocab.Type, vocab.TempGraph)+
			nt("http://ex/a1", vocab.Type, vocab.Agenda)+
			nt("http://ex/a2", vocab.Type, vocab.Agenda)+
			nt("http://ex/i1", vocab.Type, vocab.Agendapunt)+
			nt("http://ex/i1", vocab.Type, vocab.Agendapunt))

	counts, err := s.TypeCounts(context.Background(), scratchGraph, vocab.TempGraph)
	if err != nil {
		t.Fatalf("TypeCounts() failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("counts = %v, want 2 types", counts)
	}
	got := map[string]int{}
	for _, c := range counts {
		got[c.Type] = c.Count
	}
	if got[vocab.Agenda] != 2 || got[vocab.Agendapunt] != 1 {
		t.Errorf("counts = %v", got)
	}
	if _, ok := got[vocab.TempGraph]; ok {
		t.Error("excluded type reported")
	}
}

func TestResourcePage_Keyset(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var doc string
	for _, r := range []string{"r5", "r3", "r1", "r4", "r2"} {
		doc += nt("http://ex/"+r, vocab.Type, vocab.Agendapunt)
		doc += nt("http://ex/"+r, "http://ex/p", `"x"`)
	}
	load(t, s, srcGraph, doc)

	var pages [][]string
	after := ""
	for {
		page, err := s.ResourcePage(ctx, srcGraph, vocab.Agendapunt, after, 2)
		if err != nil {
			t.Fatalf("ResourcePage() failed: %v", err)
		}
		if len(page) == 0 {
			break
		}
		pages = append(pages, page)
		after = page[len(page)-1]
	}

	want := [][]string{
		{"http://ex/r1", "http://ex/r2"},
		{"http://ex/r3", "http://ex/r4"},
		{"http://ex/r5"},
	}
	if len(pages) != len(want) {
		t.Fatalf("pages = %v, want %v", pages, want)
	}
	for i := range want {
		if !equalStrings(pages[i], want[i]) {
			t.Errorf("page %d = %v, want %v", i, pages[i], want[i])
		}
	}
}

func TestGraphs(t *testing.T) {
	s := createTestStore(t)
	load(t, s, srcGraph, nt("http://ex/a", "http://ex/p", `"1"`)+nt("http://ex/a", "http://ex/p", `"2"`))
	load(t, s, targetGraph, nt("http://ex/a", "http://ex/p", `"1"`))

	graphs, err := s.Graphs(context.Background())
	if err != nil {
		t.Fatalf("Graphs() failed: %v", err)
	}
	if len(graphs) != 2 {
		t.Fatalf("graphs = %v, want 2", graphs)
	}
	if graphs[0].Graph != srcGraph || graphs[0].Triples != 2 {
		t.Errorf("graphs[0] = %+v", graphs[0])
	}
	if graphs[1].Graph != targetGraph || graphs[1].Triples != 1 {
		t.Errorf("graphs[1] = %+v", graphs[1])
	}
}

func TestTriples_RoundTripsLiterals(t *testing.T) {
	s := createTestStore(t)
	doc := nt("http://ex/a", "http://ex/label", `"Ministerraad"@nl`) +
		nt("http://ex/a", "http://ex/n", `"3"^^<http://www.w3.org/2001/XMLSchema#integer>`) +
		nt("http://ex/a", "http://ex/note", `"line\nbreak"`)
	load(t, s, srcGraph, doc)

	triples, err := s.Triples(context.Background(), srcGraph)
	if err != nil {
		t.Fatalf("Triples() failed: %v", err)
	}
	if len(triples) != 3 {
		t.Fatalf("triples = %d, want 3", len(triples))
	}
	for _, tr := range triples {
		if !tr.O.IsLiteral() {
			t.Errorf("object %s is not a literal", tr.O)
		}
	}
}
