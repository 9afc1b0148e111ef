package pathspec

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/store"
	"github.com/roach88/yggdrasil/internal/vocab"
)

const source = "http://ex/graphs/source"

// recordingReacher records every call and answers from a fixed map.
type recordingReacher struct {
	calls   []graph.Reach
	answers map[string][]string
	err     error
}

func (r *recordingReacher) ReachableAgendas(_ context.Context, reach graph.Reach) ([]string, error) {
	r.calls = append(r.calls, reach)
	if r.err != nil {
		return nil, r.err
	}
	return r.answers[reach.Type], nil
}

func kaleidosTable(t *testing.T) *Flattened {
	t.Helper()
	flat, err := Compile(Table{
		Prefixes: vocab.Prefixes(),
		Types: map[string]string{
			"agendaitem": "besluit:Agendapunt",
			"meeting":    "besluit:Zitting",
			"document":   "dossier:Stuk",
		},
		Paths: map[string][]Spec{
			"agendaitem": {{Path: "^dct:hasPart"}},
			"meeting":    {{Path: "^besluit:isAangemaaktVoor"}},
			"document": {
				{Path: "^ext:bevatAgendapuntDocumentversie", Next: "agendaitem"},
				{Path: "^ext:zittingDocumentversie", Next: "meeting"},
			},
		},
	})
	require.NoError(t, err)
	return flat
}

func TestResolve_EmptySubjects(t *testing.T) {
	reacher := &recordingReacher{}
	r := NewResolver(reacher, kaleidosTable(t), source)

	got, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, reacher.calls)
}

func TestResolve_CallsPerTypeInSortedOrder(t *testing.T) {
	reacher := &recordingReacher{answers: map[string][]string{
		vocab.Agenda:     {"http://ex/agendas/2"},
		vocab.Agendapunt: {"http://ex/agendas/1", "http://ex/agendas/2"},
	}}
	r := NewResolver(reacher, kaleidosTable(t), source)

	got, err := r.Resolve(context.Background(), []string{"http://ex/b", "http://ex/a", "http://ex/b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://ex/agendas/1", "http://ex/agendas/2"}, got)

	require.Len(t, reacher.calls, 4)
	var types []string
	for _, c := range reacher.calls {
		types = append(types, c.Type)
		assert.Equal(t, source, c.Graph)
		assert.Equal(t, vocab.Agenda, c.Target)
		assert.Equal(t, []string{"http://ex/a", "http://ex/b"}, c.Subjects)
	}
	assert.Equal(t, []string{vocab.Agenda, vocab.Agendapunt, vocab.Stuk, vocab.Zitting}, types)
	assert.True(t, reacher.calls[0].Paths[0].IsIdentity())
}

func TestResolve_Chunks(t *testing.T) {
	reacher := &recordingReacher{}
	r := NewResolver(reacher, kaleidosTable(t), source, WithChunkSize(2))

	_, err := r.Resolve(context.Background(), []string{"http://ex/1", "http://ex/2", "http://ex/3"})
	require.NoError(t, err)

	// 2 chunks x (identity + 3 types)
	require.Len(t, reacher.calls, 8)
	assert.Len(t, reacher.calls[0].Subjects, 2)
	assert.Len(t, reacher.calls[4].Subjects, 1)
}

func TestResolve_StoreError(t *testing.T) {
	reacher := &recordingReacher{err: errors.New("boom")}
	r := NewResolver(reacher, kaleidosTable(t), source)

	_, err := r.Resolve(context.Background(), []string{"http://ex/a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestResolve_AgainstStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	doc := `
<http://ex/agendas/1> <` + vocab.Type + `> <` + vocab.Agenda + `> .
<http://ex/agendas/2> <` + vocab.Type + `> <` + vocab.Agenda + `> .
<http://ex/agendas/1> <` + vocab.HasPart + `> <http://ex/items/1> .
<http://ex/agendas/2> <` + vocab.HasPart + `> <http://ex/items/1> .
<http://ex/agendas/2> <` + vocab.IsAangemaaktVoor + `> <http://ex/meetings/1> .
<http://ex/items/1> <` + vocab.Type + `> <` + vocab.Agendapunt + `> .
<http://ex/meetings/1> <` + vocab.Type + `> <` + vocab.Zitting + `> .
<http://ex/meetings/1> <` + vocab.Ext + `zittingDocumentversie> <http://ex/docs/1> .
<http://ex/docs/1> <` + vocab.Type + `> <` + vocab.Stuk + `> .
`
	triples, err := rdf.ParseNTriples(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, s.InsertData(context.Background(), source, triples))

	r := NewResolver(s, kaleidosTable(t), source)

	tests := []struct {
		name     string
		subjects []string
		want     []string
	}{
		{"agenda resolves to itself", []string{"http://ex/agendas/1"}, []string{"http://ex/agendas/1"}},
		{"agendaitem", []string{"http://ex/items/1"}, []string{"http://ex/agendas/1", "http://ex/agendas/2"}},
		{"document via meeting", []string{"http://ex/docs/1"}, []string{"http://ex/agendas/2"}},
		{"unknown subject", []string{"http://ex/nothing"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.subjects)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := r.Resolve(context.Background(), tt.subjects)
			require.NoError(t, err)
			assert.Equal(t, got, again, "resolution must be deterministic")
		})
	}
}
