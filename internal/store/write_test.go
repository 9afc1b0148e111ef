package store

import (
	"context"
	"testing"

	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/vocab"
)

func TestInsertData_Idempotent(t *testing.T) {
	s := createTestStore(t)
	doc := nt("http://ex/a", "http://ex/p", `"v"`)

	load(t, s, srcGraph, doc)
	load(t, s, srcGraph, doc)

	n, err := s.CountResources(context.Background(), srcGraph)
	if err != nil {
		t.Fatalf("CountResources() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("resources = %d, want 1", n)
	}
	if got := dump(t, s, srcGraph); got != doc {
		t.Errorf("dump = %q, want %q", got, doc)
	}
}

func TestInsertQuads_RequiresGraph(t *testing.T) {
	s := createTestStore(t)
	q := rdf.Quad{Triple: rdf.NewTriple("http://ex/a", "http://ex/p", rdf.NewLiteral("v"))}

	if err := s.InsertQuads(context.Background(), []rdf.Quad{q}); err == nil {
		t.Error("expected error for quad without graph")
	}
}

func TestDeleteData(t *testing.T) {
	s := createTestStore(t)
	load(t, s, srcGraph, nt("http://ex/a", "http://ex/p", `"1"`)+nt("http://ex/a", "http://ex/p", `"2"`))

	del := []rdf.Triple{rdf.NewTriple("http://ex/a", "http://ex/p", rdf.NewLiteral("1"))}
	if err := s.DeleteData(context.Background(), srcGraph, del); err != nil {
		t.Fatalf("DeleteData() failed: %v", err)
	}

	want := nt("http://ex/a", "http://ex/p", `"2"`)
	if got := dump(t, s, srcGraph); got != want {
		t.Errorf("dump = %q, want %q", got, want)
	}
}

func TestDropGraph_LeavesOtherGraphs(t *testing.T) {
	s := createTestStore(t)
	doc := nt("http://ex/a", "http://ex/p", `"v"`)
	load(t, s, srcGraph, doc)
	load(t, s, scratchGraph, doc)

	if err := s.DropGraph(context.Background(), scratchGraph); err != nil {
		t.Fatalf("DropGraph() failed: %v", err)
	}
	if got := dump(t, s, scratchGraph); got != "" {
		t.Errorf("scratch not empty: %q", got)
	}
	if got := dump(t, s, srcGraph); got != doc {
		t.Errorf("source changed: %q", got)
	}

	// Dropping again is not an error.
	if err := s.DropGraph(context.Background(), scratchGraph); err != nil {
		t.Errorf("second DropGraph() failed: %v", err)
	}
}

func TestAddGraph_KeepsExistingTargetTriples(t *testing.T) {
	s := createTestStore(t)
	load(t, s, scratchGraph, nt("http://ex/a", "http://ex/p", `"new"`))
	load(t, s, targetGraph, nt("http://ex/b", "http://ex/p", `"old"`))

	if err := s.AddGraph(context.Background(), scratchGraph, targetGraph); err != nil {
		t.Fatalf("AddGraph() failed: %v", err)
	}

	want := nt("http://ex/a", "http://ex/p", `"new"`) + nt("http://ex/b", "http://ex/p", `"old"`)
	if got := dump(t, s, targetGraph); got != want {
		t.Errorf("target = %q, want %q", got, want)
	}
}

func TestCopyMissing_BatchesWithoutOffset(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sentinel := "http://ex/scratch"

	doc := nt(sentinel, vocab.Type, vocab.TempGraph)
	for _, v := range []string{"1", "2", "3", "4", "5"} {
		doc += nt("http://ex/r", "http://ex/p", `"`+v+`"`)
	}
	load(t, s, scratchGraph, doc)
	load(t, s, targetGraph, nt("http://ex/r", "http://ex/p", `"3"`))

	n, err := s.CountMissing(ctx, scratchGraph, targetGraph, sentinel)
	if err != nil {
		t.Fatalf("CountMissing() failed: %v", err)
	}
	if n != 4 {
		t.Fatalf("missing = %d, want 4", n)
	}

	if err := s.CopyMissing(ctx, scratchGraph, targetGraph, sentinel, 3); err != nil {
		t.Fatalf("CopyMissing() failed: %v", err)
	}
	if n, _ = s.CountMissing(ctx, scratchGraph, targetGraph, sentinel); n != 1 {
		t.Fatalf("missing after first batch = %d, want 1", n)
	}

	if err := s.CopyMissing(ctx, scratchGraph, targetGraph, sentinel, 3); err != nil {
		t.Fatalf("CopyMissing() failed: %v", err)
	}
	if n, _ = s.CountMissing(ctx, scratchGraph, targetGraph, sentinel); n != 0 {
		t.Fatalf("missing after second batch = %d, want 0", n)
	}

	if has(t, s, targetGraph, nt(sentinel, vocab.Type, vocab.TempGraph)) {
		t.Error("sentinel was copied to target")
	}
}
