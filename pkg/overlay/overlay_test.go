package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDoc() map[string]any {
	return map[string]any{
		"name": "pets",
		"scenarios": []any{
			map[string]any{
				"name": "create",
				"request": map[string]any{
					"method":  "POST",
					"path":    "/pets",
					"headers": map[string]any{"Accept": "(string)"},
				},
			},
			map[string]any{
				"name":    "legacy",
				"request": map[string]any{"method": "GET", "path": "/v1/pets"},
			},
		},
	}
}

func TestParse(t *testing.T) {
	o, err := Parse([]byte(`
overlay: 1.0.0
info:
  title: headers
  version: "1"
actions:
  - target: $.scenarios[0].request.headers
    update:
      X-Tenant: (number)
  - target: $.scenarios[1]
    remove: true
`))
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", o.Version)
	assert.Equal(t, "headers", o.Info.Title)
	require.Len(t, o.Actions, 2)
	assert.Equal(t, map[string]any{"X-Tenant": "(number)"}, o.Actions[0].Update)
	assert.True(t, o.Actions[1].Remove)
}

func TestParse_Blank(t *testing.T) {
	o, err := Parse([]byte("  \n"))
	require.NoError(t, err)
	assert.True(t, o.IsEmpty())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("actions: [unterminated"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestValidate(t *testing.T) {
	errs := Validate(&Overlay{Actions: []Action{
		{Target: "", Remove: true},
		{Target: "$.a"},
		{Target: "$[", Remove: true},
	}})
	require.Len(t, errs, 3)
	assert.Equal(t, "actions[0].target", errs[0].Path)
	assert.Equal(t, "actions[1]", errs[1].Path)
	assert.Contains(t, errs[2].Message, "invalid JSONPath")
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		check  func(t *testing.T, doc map[string]any)
		op     string
	}{
		{
			name:   "merge into object",
			action: Action{Target: "$.scenarios[0].request.headers", Update: map[string]any{"X-Tenant": "(number)"}},
			op:     OpUpdate,
			check: func(t *testing.T, doc map[string]any) {
				headers := doc["scenarios"].([]any)[0].(map[string]any)["request"].(map[string]any)["headers"].(map[string]any)
				assert.Equal(t, map[string]any{"Accept": "(string)", "X-Tenant": "(number)"}, headers)
			},
		},
		{
			name:   "replace scalar",
			action: Action{Target: "$.name", Update: "animals"},
			op:     OpReplace,
			check: func(t *testing.T, doc map[string]any) {
				assert.Equal(t, "animals", doc["name"])
			},
		},
		{
			name:   "append to array",
			action: Action{Target: "$.scenarios", Update: map[string]any{"name": "delete"}},
			op:     OpAppend,
			check: func(t *testing.T, doc map[string]any) {
				assert.Len(t, doc["scenarios"], 3)
			},
		},
		{
			name:   "remove",
			action: Action{Target: "$.scenarios[1]", Remove: true},
			op:     OpRemove,
			check: func(t *testing.T, doc map[string]any) {
				require.Len(t, doc["scenarios"], 1)
				assert.Equal(t, "create", doc["scenarios"].([]any)[0].(map[string]any)["name"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := contractDoc()
			res, err := Apply(original, &Overlay{Actions: []Action{tt.action}})
			require.NoError(t, err)
			assert.Equal(t, 1, res.ActionsApplied)
			require.Len(t, res.Changes, 1)
			assert.Equal(t, tt.op, res.Changes[0].Operation)
			tt.check(t, res.Document.(map[string]any))
			assert.Equal(t, contractDoc(), original, "input document must not change")
		})
	}
}

func TestApply_NoMatch(t *testing.T) {
	o := &Overlay{Actions: []Action{{Target: "$.missing", Update: "x"}}}

	res, err := Apply(contractDoc(), o)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ActionsSkipped)
	require.True(t, res.HasWarnings())
	assert.Contains(t, res.Warnings[0].String(), "matched no nodes")

	_, err = (&Applier{StrictTargets: true}).Apply(contractDoc(), o)
	assert.ErrorContains(t, err, "matched no nodes")
}

func TestApply_ActionsRunInOrder(t *testing.T) {
	o := &Overlay{Actions: []Action{
		{Target: "$.name", Update: "first"},
		{Target: "$.name", Update: "second"},
	}}
	res, err := Apply(contractDoc(), o)
	require.NoError(t, err)
	assert.Equal(t, "second", res.Document.(map[string]any)["name"])
	assert.Equal(t, 2, res.ActionsApplied)
}
