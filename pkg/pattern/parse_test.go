package pattern

import (
	"testing"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		token    string
		wantType Pattern
		wantName string
	}{
		{"(string)", &StringPattern{}, "string"},
		{"(number)", &NumberPattern{}, "number"},
		{"(bool)", &BooleanPattern{}, "boolean"},
		{"(uuid)", &UUIDPattern{}, "uuid"},
		{"(string?)", &AnyPattern{}, "(string?)"},
		{"(number...)", &ListPattern{}, "list of number"},
		{"(string?...)", &ListPattern{}, "list of string?"},
		{"(Person)", &DeferredPattern{}, "Person"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			p := ParseToken(tt.token)
			assert.IsType(t, tt.wantType, p)
			assert.Equal(t, tt.wantName, p.TypeName())
		})
	}
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern(`{"name": "(string)", "kind": "dog", "age?": 3}`)
	require.NoError(t, err)

	obj, ok := p.(*JSONObjectPattern)
	require.True(t, ok)
	entries := obj.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "age?", entries[2].Key)
	assert.IsType(t, &ExactValuePattern{}, entries[1].Pattern)

	_, err = ParsePattern(`{"broken": `)
	assert.Error(t, err)

	plain, err := ParsePattern("hello")
	require.NoError(t, err)
	assert.True(t, plain.Matches(value.StringValue("hello"), NewResolver(nil)).IsSuccess())
}

func TestJSONArrayPattern(t *testing.T) {
	r := NewResolver(nil)
	p := MustParsePattern(`["(string)", "(number...)"]`)

	tests := []struct {
		input string
		want  bool
	}{
		{`["a"]`, true},
		{`["a", 1, 2]`, true},
		{`["a", "b"]`, false},
		{`[]`, false},
		{`{"a": 1}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := value.ParseJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Matches(v, r).IsSuccess())
		})
	}
}

func TestListPattern_SingleRestElement(t *testing.T) {
	r := NewResolver(nil)
	p := MustParsePattern(`["(string?...)"]`)
	require.IsType(t, &ListPattern{}, p)

	v, err := value.ParseJSON(`[null, "x", null]`)
	require.NoError(t, err)
	assert.True(t, p.Matches(v, r).IsSuccess())

	bad, err := value.ParseJSON(`[1]`)
	require.NoError(t, err)
	f, ok := p.Matches(bad, r).(*result.Failure)
	require.True(t, ok)
	assert.Equal(t, []string{"[0]"}, f.Paths())
}

func TestListPattern_RecursiveElementGeneratesEmptyList(t *testing.T) {
	r := NewResolver(map[string]Pattern{
		"(Tree)": MustParsePattern(`{"children": "(Tree...)"}`),
	})
	p := NewDeferredPattern("Tree")

	v, err := p.Generate(r)
	require.NoError(t, err)
	assert.True(t, p.Matches(v, r).IsSuccess())
}
