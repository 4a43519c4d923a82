package contract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/getmockd/contractd/pkg/filter"
	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor answers every request with respond and records what was
// sent.
type fakeExecutor struct {
	mu       sync.Mutex
	respond  func(HTTPRequest) (HTTPResponse, error)
	requests []HTTPRequest
	states   []map[string]value.Value
}

func (e *fakeExecutor) Execute(_ context.Context, req HTTPRequest) (HTTPResponse, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	e.mu.Unlock()
	return e.respond(req)
}

func (e *fakeExecutor) SetServerState(_ context.Context, facts map[string]value.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, facts)
	return nil
}

func respondWith(resp HTTPResponse) *fakeExecutor {
	return &fakeExecutor{respond: func(HTTPRequest) (HTTPResponse, error) { return resp, nil }}
}

func getPetScenario() Scenario {
	return Scenario{
		Name: "get pet",
		Request: &HTTPRequestPattern{
			Method: "GET",
			Path:   MustHTTPPathPattern("/pets/(id:number)"),
		},
		Response: &HTTPResponsePattern{
			Status: 200,
			Body:   pattern.MustParsePattern(`{"id": "(number)", "name": "(string)"}`),
		},
	}
}

func TestExecuteTest(t *testing.T) {
	ctx := context.Background()
	s := createPetScenario()
	s.Bindings = map[string]string{"petId": "response-body.id", "loc": "response-header.Location"}

	t.Run("bindings from a passing response", func(t *testing.T) {
		ex := respondWith(HTTPResponse{
			Status:  201,
			Headers: map[string]string{"location": "/pets/7"},
			Body:    value.StringValue(`{"id": 7}`),
		})
		res := ExecuteTest(ctx, s, ex)
		success, ok := res.(*result.Success)
		require.True(t, ok, res.Report())
		assert.Equal(t, map[string]string{"petId": "7", "loc": "/pets/7"}, success.Variables)
		require.Len(t, ex.requests, 1)
		assert.Equal(t, "/pets", ex.requests[0].Path)
		assert.Len(t, ex.states, 1)
	})

	t.Run("result header marks failure", func(t *testing.T) {
		ex := respondWith(HTTPResponse{
			Status:  201,
			Headers: map[string]string{ResultHeader: "failure"},
			Body:    value.StringValue("downstream check failed"),
		})
		f := asFailure(t, ExecuteTest(ctx, s, ex))
		assert.Equal(t, "downstream check failed", f.Message)
		assert.NotNil(t, f.Scenario)
	})

	t.Run("wrong response", func(t *testing.T) {
		ex := respondWith(HTTPResponse{Status: 201, Body: value.StringValue(`{"id": "seven"}`)})
		f := asFailure(t, ExecuteTest(ctx, s, ex))
		assert.Equal(t, []string{"RESPONSE.BODY.id"}, f.Paths())
	})

	t.Run("executor error", func(t *testing.T) {
		ex := &fakeExecutor{respond: func(HTTPRequest) (HTTPResponse, error) {
			return HTTPResponse{}, errors.New("connection refused")
		}}
		f := asFailure(t, ExecuteTest(ctx, s, ex))
		assert.Equal(t, "Exception: connection refused", f.Message)
	})

	t.Run("executor panic", func(t *testing.T) {
		ex := &fakeExecutor{respond: func(HTTPRequest) (HTTPResponse, error) { panic("boom") }}
		f := asFailure(t, ExecuteTest(ctx, s, ex))
		assert.Equal(t, "Exception: boom", f.Message)
	})
}

func TestFeature_LookupResponse(t *testing.T) {
	f := NewFeature("pets", createPetScenario(), getPetScenario())

	t.Run("first matching scenario answers", func(t *testing.T) {
		stub, err := f.LookupResponse(HTTPRequest{Method: "GET", Path: "/pets/3"})
		require.NoError(t, err)
		assert.Equal(t, "get pet", stub.Scenario.Name)
		assert.Equal(t, 200, stub.Response.Status)
	})

	t.Run("no match reports near misses", func(t *testing.T) {
		_, err := f.LookupResponse(HTTPRequest{Method: "POST", Path: "/pets", Body: jsonBody(t, `{"name": 5}`)})
		var noMatch *NoMatchError
		require.ErrorAs(t, err, &noMatch)
		require.NotEmpty(t, noMatch.NearMisses)
		best := noMatch.NearMisses[0]
		assert.Equal(t, createPetScenario().TestDescription(), best.Candidate)
		assert.Positive(t, best.MatchPercentage)
		assert.Less(t, best.MatchPercentage, 100)
		assert.Contains(t, err.Error(), "no scenario matched POST /pets")
	})

	t.Run("fluffy failures are not reported", func(t *testing.T) {
		_, err := f.LookupResponse(HTTPRequest{Method: "DELETE", Path: "/owners"})
		var noMatch *NoMatchError
		require.ErrorAs(t, err, &noMatch)
		assert.Empty(t, noMatch.Failures.Failures())
	})
}

func TestFeature_MatchingStub(t *testing.T) {
	f := NewFeature("pets", createPetScenario(), getPetScenario())

	s, err := f.MatchingStub(
		HTTPRequest{Method: "GET", Path: "/pets/1"},
		HTTPResponse{Status: 200, Body: jsonBody(t, `{"id": 1, "name": "rex"}`)},
	)
	require.NoError(t, err)
	assert.Equal(t, "get pet", s.Name)

	_, err = f.MatchingStub(
		HTTPRequest{Method: "GET", Path: "/pets/1"},
		HTTPResponse{Status: 200, Body: jsonBody(t, `{"id": "one", "name": "rex"}`)},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESPONSE.BODY.id")
}

func TestFeature_ExecuteTestsCarriesBindings(t *testing.T) {
	create := createPetScenario()
	create.Bindings = map[string]string{"petId": "response-body.id"}
	get := getPetScenario()
	get.Examples = []pattern.Examples{{Rows: []pattern.Row{pattern.RowFromMap(map[string]string{"id": "$petId"})}}}

	ex := &fakeExecutor{respond: func(req HTTPRequest) (HTTPResponse, error) {
		if req.Method == "POST" {
			return HTTPResponse{Status: 201, Body: jsonBody(t, `{"id": 7}`)}, nil
		}
		return HTTPResponse{Status: 200, Body: jsonBody(t, `{"id": 7, "name": "rex"}`)}, nil
	}}

	results := NewFeature("pets", create, get).ExecuteTests(context.Background(), ex, nil)
	assert.True(t, results.Success(), results.Report())
	var gets []string
	for _, req := range ex.requests {
		if req.Method == "GET" {
			gets = append(gets, req.Path)
		}
	}
	require.NotEmpty(t, gets)
	for _, path := range gets {
		assert.Equal(t, "/pets/7", path)
	}
}

func TestFeature_Filter(t *testing.T) {
	f := NewFeature("pets", createPetScenario(), getPetScenario())

	flt, err := filter.Parse("METHOD=GET")
	require.NoError(t, err)
	filtered := f.Filter(flt)
	require.Len(t, filtered.Scenarios, 1)
	assert.Equal(t, "get pet", filtered.Scenarios[0].Name)
	assert.Len(t, f.Scenarios, 2)

	assert.Same(t, f, f.Filter(nil))
	assert.Equal(t, []string{"POST /pets", "GET /pets/(id:number)"}, f.OperationNames())
}

func TestFeature_GenerativeTestsAddNegatives(t *testing.T) {
	s := createPetScenario()
	s.Strategies = pattern.ResolverStrategies{Generation: pattern.GenerativeTests}
	tests := NewFeature("pets", s).GenerateContractTests(nil)

	var negatives int
	for _, test := range tests {
		if strings.Contains(test.TestDescription(), NegativePrefix) {
			negatives++
		}
	}
	assert.Positive(t, negatives)
	assert.Less(t, negatives, len(tests))
}

func TestFeature_ServerStateIsCopied(t *testing.T) {
	f := NewFeature("pets", createPetScenario())
	state := map[string]value.Value{"id": value.NumberFromInt(1)}
	withState := f.WithServerState(state)
	state["id"] = value.NumberFromInt(2)

	assert.Nil(t, f.ServerState())
	assert.Equal(t, "1", withState.ServerState()["id"].StringLiteral())
	assert.False(t, withState.IsEmpty())
	assert.True(t, NewFeature("empty").IsEmpty())
}

func TestFeature_WithoutExamples(t *testing.T) {
	f, err := ParseFeature("pets.json", []byte(petsDocument), pattern.DefaultStrategies())
	require.NoError(t, err)
	require.NotEmpty(t, f.Scenarios[0].Examples)

	stripped := f.WithoutExamples()
	assert.Empty(t, stripped.Scenarios[0].Examples)
	assert.NotEmpty(t, f.Scenarios[0].Examples)
	assert.Len(t, stripped.Scenarios, len(f.Scenarios))
}
