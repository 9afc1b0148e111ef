package pathspec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var testPrefixes = map[string]string{
	"ex":  "http://ex/",
	"dct": "http://purl.org/dc/terms/",
}

func TestSpec_UnmarshalYAML(t *testing.T) {
	src := `
paths:
  item:
    - "^dct:hasPart"
    - path: ex:via
      next: meeting
`
	var table Table
	require.NoError(t, yaml.Unmarshal([]byte(src), &table))

	assert.Equal(t, []Spec{
		{Path: "^dct:hasPart"},
		{Path: "ex:via", Next: "meeting"},
	}, table.Paths["item"])
}

func TestSpec_UnmarshalJSON(t *testing.T) {
	src := `{"paths":{"item":["^dct:hasPart",{"path":"ex:via","next":"meeting"}]}}`
	var table Table
	require.NoError(t, json.Unmarshal([]byte(src), &table))

	assert.Equal(t, []Spec{
		{Path: "^dct:hasPart"},
		{Path: "ex:via", Next: "meeting"},
	}, table.Paths["item"])
}

func TestCompile_FlattensChains(t *testing.T) {
	table := Table{
		Prefixes: testPrefixes,
		Types: map[string]string{
			"item":     "ex:Item",
			"meeting":  "ex:Meeting",
			"document": "http://ex/Document",
		},
		Paths: map[string][]Spec{
			"item":    {{Path: "^dct:hasPart"}},
			"meeting": {{Path: "^ex:createdFor"}},
			"document": {
				{Path: "^ex:itemDoc", Next: "item"},
				{Path: "^ex:meetingDoc", Next: "meeting"},
			},
		},
	}

	flat, err := Compile(table)
	require.NoError(t, err)

	assert.Equal(t, []string{"document", "item", "meeting"}, flat.Names)
	assert.Equal(t, "http://ex/Item", flat.Types["item"])
	assert.Equal(t, "http://ex/Document", flat.Types["document"])

	var docPaths []string
	for _, p := range flat.Paths["document"] {
		docPaths = append(docPaths, p.Format(flat.Prefixes()))
	}
	assert.Equal(t, []string{
		"^ex:itemDoc / ^dct:hasPart",
		"^ex:meetingDoc / ^ex:createdFor",
	}, docPaths)
}

func TestCompile_DeduplicatesKeepingFirstOccurrence(t *testing.T) {
	table := Table{
		Prefixes: testPrefixes,
		Types:    map[string]string{"item": "ex:Item", "doc": "ex:Doc"},
		Paths: map[string][]Spec{
			"item": {{Path: "^dct:hasPart"}},
			"doc": {
				{Path: "^ex:b", Next: "item"},
				{Path: "^ex:a", Next: "item"},
				{Path: "^ex:b", Next: "item"},
			},
		},
	}

	flat, err := Compile(table)
	require.NoError(t, err)

	require.Len(t, flat.Paths["doc"], 2)
	assert.Equal(t, "^ex:b / ^dct:hasPart", flat.Paths["doc"][0].Format(flat.Prefixes()))
	assert.Equal(t, "^ex:a / ^dct:hasPart", flat.Paths["doc"][1].Format(flat.Prefixes()))
}

func TestCompile_Cycle(t *testing.T) {
	table := Table{
		Prefixes: testPrefixes,
		Types:    map[string]string{"a": "ex:A", "b": "ex:B", "c": "ex:C"},
		Paths: map[string][]Spec{
			"a": {{Path: "ex:p", Next: "b"}},
			"b": {{Path: "ex:p", Next: "c"}},
			"c": {{Path: "ex:p", Next: "a"}},
		},
	}

	_, err := Compile(table)
	require.Error(t, err)
	assert.True(t, IsCycleError(err))

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b", "c", "a"}, ce.Path)
}

func TestCompile_SelfLoop(t *testing.T) {
	table := Table{
		Prefixes: testPrefixes,
		Types:    map[string]string{"remark": "ex:Remark"},
		Paths: map[string][]Spec{
			"remark": {
				{Path: "^ex:about"},
				{Path: "^ex:answers", Next: "remark"},
			},
		},
	}

	_, err := Compile(table)
	require.Error(t, err)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeCycle, ce.Code)
	assert.Equal(t, []string{"remark", "remark"}, ce.Path)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		code  ErrorCode
	}{
		{
			name: "unknown next",
			table: Table{
				Prefixes: testPrefixes,
				Types:    map[string]string{"a": "ex:A"},
				Paths:    map[string][]Spec{"a": {{Path: "ex:p", Next: "missing"}}},
			},
			code: ErrCodeUnknownNext,
		},
		{
			name: "missing type",
			table: Table{
				Prefixes: testPrefixes,
				Paths:    map[string][]Spec{"a": {{Path: "ex:p"}}},
			},
			code: ErrCodeUnknownType,
		},
		{
			name: "unknown prefix in type",
			table: Table{
				Prefixes: testPrefixes,
				Types:    map[string]string{"a": "nope:A"},
				Paths:    map[string][]Spec{"a": {{Path: "ex:p"}}},
			},
			code: ErrCodeUnknownType,
		},
		{
			name: "bad path",
			table: Table{
				Prefixes: testPrefixes,
				Types:    map[string]string{"a": "ex:A"},
				Paths:    map[string][]Spec{"a": {{Path: "nope:p"}}},
			},
			code: ErrCodeBadPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.table)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.code, ce.Code)
			assert.Equal(t, "a", ce.Type)
		})
	}
}

func TestFlattened_Format(t *testing.T) {
	flat, err := Compile(Table{
		Prefixes: testPrefixes,
		Types:    map[string]string{"item": "ex:Item", "meeting": "ex:Meeting"},
		Paths: map[string][]Spec{
			"item":    {{Path: "^dct:hasPart"}},
			"meeting": {{Path: "^ex:createdFor"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "item: ^dct:hasPart\nmeeting: ^ex:createdFor\n", flat.Format())
}
