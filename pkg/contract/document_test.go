package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

const petsDocument = `{
  "name": "pets",
  "patterns": {"Pet": {"name": "(string)", "tag?": "(string)"}},
  "scenarios": [
    {
      "name": "create pet",
      "request": {
        "method": "post",
        "path": "/pets",
        "headers": {"X-Tenant": "(number)"},
        "body": "(Pet)"
      },
      "response": {"status": 201, "body": {"id": "(number)"}},
      "bindings": {"petId": "response-body.id"},
      "examples": [{"name": "scooby", "rows": [{"name": "Scooby", "X-Tenant": 7}]}]
    },
    {
      "name": "get pet",
      "request": {"method": "GET", "path": "/pets/(id:number)", "query": {"fields?": "(string)"}},
      "response": {"status": 200, "body": {"name": "(string)"}},
      "state": {"exists": true}
    }
  ]
}`

func TestParseFeature(t *testing.T) {
	f, err := ParseFeature("pets.json", []byte(petsDocument), pattern.DefaultStrategies())
	require.NoError(t, err)

	assert.Equal(t, "pets", f.Name)
	assert.Equal(t, "pets.json", f.Path)
	assert.Equal(t, []string{"POST /pets", "GET /pets/(id:number)"}, f.OperationNames())

	create := f.Scenarios[0]
	assert.Equal(t, map[string]string{"petId": "response-body.id"}, create.Bindings)
	require.Len(t, create.Examples, 1)
	require.Len(t, create.Examples[0].Rows, 1)
	assert.Equal(t, "7", create.Examples[0].Rows[0].GetField("X-Tenant"))

	req := HTTPRequest{
		Method:  "POST",
		Path:    "/pets",
		Headers: map[string]string{"X-Tenant": "3"},
		Body:    value.NewJSONObject(value.Field{Key: "name", Value: value.StringValue("Rex")}),
	}
	assert.True(t, create.Matches(req, nil, nil).IsSuccess())

	get := f.Scenarios[1]
	assert.Equal(t, value.BooleanValue(true), get.ExpectedFacts["exists"])
	generated, err := get.GenerateHTTPRequest()
	require.NoError(t, err)
	assert.Regexp(t, `^/pets/-?[0-9.]+$`, generated.Path)
}

func TestParseFeature_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"not an object", `[1, 2]`, "is not a JSON object"},
		{"missing response", `{"scenarios": [{"name": "x", "request": {"method": "GET", "path": "/"}}]}`, "has no response"},
		{"bad status", `{"scenarios": [{"response": {"status": 42}}]}`, "not an HTTP status code"},
		{"untyped path param", `{"scenarios": [{"request": {"path": "/pets/(id)"}, "response": {"status": 200}}]}`, "scenarios[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeature("c.json", []byte(tt.doc), pattern.DefaultStrategies())
			require.Error(t, err)
			assert.Contains(t, result.ToFailure(err).Report(), tt.msg)
		})
	}
}

func TestParseHTTPRequest(t *testing.T) {
	req, err := ParseHTTPRequest([]byte(`{
		"method": "get",
		"path": "/pets",
		"headers": {"Accept": "application/json"},
		"query": {"tag": ["a", "b"], "limit": 10}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, []string{"a", "b"}, req.QueryParams["tag"])
	assert.Equal(t, "10", req.QueryParams.Get("limit"))
	assert.Nil(t, req.Body)

	doc := RequestDocument(req)
	again, err := ParseHTTPRequest([]byte(doc.StringLiteral()))
	require.NoError(t, err)
	assert.Equal(t, req, again)
}

func TestParseHTTPResponse(t *testing.T) {
	resp, err := ParseHTTPResponse([]byte(`{"status": 404, "body": {"error": "gone"}}`))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.Status)
	assert.True(t, resp.Is4xx())
	assert.Equal(t, `{"status":404,"body":{"error":"gone"}}`, ResponseDocument(resp).StringLiteral())

	_, err = ParseHTTPResponse([]byte(`{"body": {}}`))
	assert.Error(t, err)
}
