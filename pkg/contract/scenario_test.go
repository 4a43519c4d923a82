package contract

import (
	"testing"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPetScenario() Scenario {
	return Scenario{
		Name: "create pet",
		Request: &HTTPRequestPattern{
			Method: "POST",
			Path:   MustHTTPPathPattern("/pets"),
			Body:   pattern.MustParsePattern(`{"name": "(string)", "tag": "(string?)"}`),
		},
		Response: &HTTPResponsePattern{
			Status: 201,
			Body:   pattern.MustParsePattern(`{"id": "(number)"}`),
		},
	}
}

func TestScenario_ExampleRowFillsRequest(t *testing.T) {
	s := createPetScenario()
	s.Examples = []pattern.Examples{{
		Name: "pets",
		Rows: []pattern.Row{pattern.RowFromMap(map[string]string{"name": "scooby", "tag": ""})},
	}}

	scenarios, err := s.GenerateTestScenarios(nil)
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)
	require.True(t, scenarios[0].OK())

	req, err := scenarios[0].Value.GenerateHTTPRequest()
	require.NoError(t, err)
	body, ok := req.Body.(*value.JSONObjectValue)
	require.True(t, ok, "body is %T", req.Body)
	name, found := body.FindFirstChildByPath("name")
	require.True(t, found)
	assert.Equal(t, "scooby", name.StringLiteral())
	assert.True(t, s.Matches(req, nil, nil).IsSuccess())
}

func TestScenario_MatchesServerState(t *testing.T) {
	s := createPetScenario()
	s.ExpectedFacts = map[string]value.Value{"id": value.StringValue("(number)")}
	req := HTTPRequest{Method: "POST", Path: "/pets", Body: jsonBody(t, `{"name": "rex"}`)}

	tests := []struct {
		name  string
		state map[string]value.Value
		ok    bool
	}{
		{"token fits", map[string]value.Value{"id": value.NumberFromInt(10)}, true},
		{"token does not fit", map[string]value.Value{"id": value.StringValue("abc")}, false},
		{"true matches anything", map[string]value.Value{"id": value.BooleanValue(true)}, true},
		{"missing key", map[string]value.Value{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Matches(req, tt.state, nil)
			if tt.ok {
				assert.True(t, res.IsSuccess(), res.Report())
				return
			}
			f := asFailure(t, res)
			assert.Equal(t, []string{FactsCrumb}, f.Paths())
		})
	}
}

func TestScenario_NegativeExpects4xx(t *testing.T) {
	s := createPetScenario().NegativeBasedOn()
	assert.Equal(t, NegativePrefix+"create pet", s.Name)
	assert.True(t, s.IsNegative)

	assert.True(t, s.MatchesResponse(HTTPResponse{Status: 422}, nil).IsSuccess())

	f := asFailure(t, s.MatchesResponse(HTTPResponse{Status: 201}, nil))
	assert.Equal(t, []string{"RESPONSE.STATUS"}, f.Paths())
	assert.Contains(t, f.Report(), "Expected 4xx status, but received 201")
}

func TestScenario_GenerateHTTPResponseUsesState(t *testing.T) {
	s := createPetScenario()

	resp, err := s.GenerateHTTPResponse(map[string]value.Value{"id": value.NumberFromInt(42)})
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)
	id, found := resp.Body.(*value.JSONObjectValue).FindFirstChildByPath("id")
	require.True(t, found)
	assert.Equal(t, "42", id.StringLiteral())

	s.ExpectedFacts = map[string]value.Value{"id": value.StringValue("(number)")}
	_, err = s.GenerateHTTPResponse(map[string]value.Value{"id": value.StringValue("abc")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Couldn't match state values")
}

func TestScenario_MatchesMock(t *testing.T) {
	s := createPetScenario()

	t.Run("tokens are accepted in stubs", func(t *testing.T) {
		req := HTTPRequest{Method: "POST", Path: "/pets", Body: jsonBody(t, `{"name": "(string)"}`)}
		resp := HTTPResponse{Status: 201, Body: jsonBody(t, `{"id": 1}`)}
		res := s.MatchesMock(req, resp, nil)
		assert.True(t, res.IsSuccess(), res.Report())
	})

	t.Run("wrong request and wrong status", func(t *testing.T) {
		req := HTTPRequest{Method: "POST", Path: "/pets", Body: jsonBody(t, `{"name": 1}`)}
		f := asFailure(t, s.MatchesMock(req, HTTPResponse{Status: 500}, nil))
		assert.Equal(t, result.RequestMismatchButStatusAlsoWrong, f.Reason)
		assert.True(t, f.IsFluffy())
	})

	t.Run("unexpected body key", func(t *testing.T) {
		req := HTTPRequest{Method: "POST", Path: "/pets", Body: jsonBody(t, `{"name": "rex", "age": 3}`)}
		f := asFailure(t, s.MatchesMock(req, HTTPResponse{Status: 201, Body: jsonBody(t, `{"id": 1}`)}, nil))
		assert.Contains(t, f.Paths(), "REQUEST.BODY.age")
	})
}

func TestScenario_MatchesStubToleratesExtraBodyKeys(t *testing.T) {
	s := createPetScenario()
	req := HTTPRequest{Method: "POST", Path: "/pets", Body: jsonBody(t, `{"name": "rex", "age": 3}`)}
	assert.True(t, s.MatchesStub(req, nil, nil).IsSuccess())
	assert.False(t, s.Matches(req, nil, nil).IsSuccess())
}

func TestScenario_Describe(t *testing.T) {
	s := createPetScenario()
	assert.Equal(t, "Scenario: create pet POST /pets", s.TestDescription())
	assert.True(t, s.IsA2xxScenario())

	m := s.Metadata()
	assert.Equal(t, "POST", m.Method)
	assert.Equal(t, "/pets", m.Path)
	assert.Equal(t, 201, m.StatusCode)

	kafka := Scenario{Name: "events", KafkaMessage: &KafkaMessagePattern{Topic: "pets"}}
	assert.Equal(t, "Scenario: events pets", kafka.TestDescription())
}

func TestScenario_GenerationErrorBecomesTest(t *testing.T) {
	s := createPetScenario()
	s.Examples = []pattern.Examples{{Rows: []pattern.Row{pattern.RowFromMap(map[string]string{
		RequestBodyColumn: `{"name": 10}`,
	})}}}

	tests := s.GenerateContractTests(nil)
	require.Len(t, tests, 1)
	_, isFailure := tests[0].(ScenarioTestGenerationFailure)
	assert.True(t, isFailure)
}
