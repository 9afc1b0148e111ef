package sparql

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_Query(t *testing.T) {
	var got *http.Request
	var form string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		got = r
		form = r.PostForm.Get("query")
		w.Header().Set("Content-Type", "application/sparql-results+json")
		fmt.Fprint(w, `{"head":{"vars":["s"]},"results":{"bindings":[
			{"s":{"type":"uri","value":"http://ex/a"}},
			{"s":{"type":"literal","value":"x"}},
			{"s":{"type":"uri","value":"http://ex/b"}}]}}`)
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL)
	ctx := WithHeaders(context.Background(), Headers{SessionID: "session-1", AllowedGroups: `[{"name":"public"}]`})
	res, err := gw.Query(ctx, "SELECT ?s WHERE { ?s ?p ?o }")
	require.NoError(t, err)

	assert.Equal(t, "SELECT ?s WHERE { ?s ?p ?o }", form)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "application/sparql-results+json", got.Header.Get("Accept"))
	assert.Equal(t, "session-1", got.Header.Get(HeaderSessionID))
	assert.Equal(t, `[{"name":"public"}]`, got.Header.Get(HeaderAllowedGroups))
	assert.Empty(t, got.Header.Get(HeaderCallID))
	assert.Empty(t, got.Header.Get(HeaderSudo))
	assert.Equal(t, []string{"http://ex/a", "http://ex/b"}, res.IRIs("s"))
}

func TestGateway_UpdateWithSudo(t *testing.T) {
	var sudo, update string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		sudo = r.Header.Get(HeaderSudo)
		update = r.PostForm.Get("update")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, WithSudo())
	require.NoError(t, gw.Update(context.Background(), "DROP SILENT GRAPH <http://ex/g>"))
	assert.Equal(t, "true", sudo)
	assert.Equal(t, "DROP SILENT GRAPH <http://ex/g>", update)
}

func TestGateway_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream unavailable")
	}))
	defer srv.Close()

	_, err := NewGateway(srv.URL).Query(context.Background(), "ASK {}")
	require.Error(t, err)

	var ge *GatewayError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, http.StatusBadGateway, ge.Status)
	assert.Equal(t, "upstream unavailable", ge.Body)
}

func TestGateway_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	_, err := NewGateway(srv.URL).Query(context.Background(), "ASK {}")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGateway_ConnectionRefused(t *testing.T) {
	err := NewGateway("http://127.0.0.1:1").Update(context.Background(), "CLEAR ALL")
	assert.Error(t, err)
}

func TestBinding_Term(t *testing.T) {
	tests := []struct {
		name string
		b    Binding
		want string
	}{
		{"iri", Binding{Type: "uri", Value: "http://ex/a"}, "<http://ex/a>"},
		{"blank", Binding{Type: "bnode", Value: "b0"}, "_:b0"},
		{"plain", Binding{Type: "literal", Value: "hi"}, `"hi"`},
		{"lang", Binding{Type: "literal", Value: "hallo", Lang: "nl"}, `"hallo"@nl`},
		{"typed", Binding{Type: "typed-literal", Value: "1", Datatype: "http://www.w3.org/2001/XMLSchema#integer"}, `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, err := tt.b.Term()
			require.NoError(t, err)
			assert.Equal(t, tt.want, term.String())
		})
	}

	_, err := Binding{Type: "triple"}.Term()
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
