package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// TestExecutor sends generated requests to the system under test.
type TestExecutor interface {
	Execute(ctx context.Context, req HTTPRequest) (HTTPResponse, error)
	SetServerState(ctx context.Context, facts map[string]value.Value) error
}

// PreExecuteHook is implemented by executors that want to see each
// scenario before its request is sent.
type PreExecuteHook interface {
	PreExecute(s Scenario, req HTTPRequest)
}

// Binding selector prefixes.
const (
	bindResponseBody   = "response-body"
	bindResponseHeader = "response-header."
)

// ExecuteTest runs one scenario against ex. Errors and panics become
// failures attached to the scenario.
func ExecuteTest(ctx context.Context, s Scenario, ex TestExecutor) (res result.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = result.NewFailure(fmt.Sprintf("Exception: %v", p)).WithScenario(s)
		}
	}()

	req, err := s.GenerateHTTPRequest()
	if err != nil {
		return result.ToFailure(err).WithScenario(s)
	}
	if err := ex.SetServerState(ctx, s.ServerState()); err != nil {
		return result.ToFailure(err).WithScenario(s)
	}
	if hook, ok := ex.(PreExecuteHook); ok {
		hook.PreExecute(s, req)
	}

	resp, err := ex.Execute(ctx, req)
	if err != nil {
		return result.ToFailure(err).WithScenario(s)
	}

	if outcome, ok := resp.Header(ResultHeader); ok && outcome == "failure" {
		return result.NewFailure(resp.BodyOrEmpty().StringLiteral()).WithScenario(s)
	}

	res = s.MatchesResponse(resp, ContractAndResponseMismatchMessages{})
	return withBindings(res, s.Bindings, resp)
}

// withBindings copies bound response values into the variables of a
// successful result.
func withBindings(res result.Result, bindings map[string]string, resp HTTPResponse) result.Result {
	success, ok := res.(*result.Success)
	if !ok || len(bindings) == 0 {
		return res
	}
	vars := make(map[string]string, len(bindings))
	for name, selector := range bindings {
		if v, found := selectFromResponse(selector, resp); found {
			vars[name] = v
		}
	}
	return success.WithVariables(vars)
}

func selectFromResponse(selector string, resp HTTPResponse) (string, bool) {
	switch {
	case strings.HasPrefix(selector, bindResponseHeader):
		return resp.Header(strings.TrimPrefix(selector, bindResponseHeader))
	case selector == bindResponseBody:
		return resp.BodyOrEmpty().StringLiteral(), true
	case strings.HasPrefix(selector, bindResponseBody+"."):
		body := resp.BodyOrEmpty()
		if s, isString := body.(value.StringValue); isString {
			body = value.Parsed(string(s))
		}
		obj, ok := body.(*value.JSONObjectValue)
		if !ok {
			return "", false
		}
		v, found := obj.FindFirstChildByPath(strings.TrimPrefix(selector, bindResponseBody+"."))
		if !found {
			return "", false
		}
		return v.StringLiteral(), true
	}
	return "", false
}

// ContractTest is one runnable test.
type ContractTest interface {
	TestDescription() string
	Run(ctx context.Context, ex TestExecutor) result.Result
}

// ScenarioTest runs a generated scenario.
type ScenarioTest struct {
	Scenario Scenario
}

func (t ScenarioTest) TestDescription() string { return t.Scenario.TestDescription() }

func (t ScenarioTest) Run(ctx context.Context, ex TestExecutor) result.Result {
	return ExecuteTest(ctx, t.Scenario, ex)
}

// ScenarioTestGenerationFailure stands in for tests that could not be
// generated, and reports why when run.
type ScenarioTestGenerationFailure struct {
	Scenario Scenario
	Err      error
}

func (t ScenarioTestGenerationFailure) TestDescription() string { return t.Scenario.TestDescription() }

func (t ScenarioTestGenerationFailure) Run(context.Context, TestExecutor) result.Result {
	return result.ToFailure(t.Err).WithScenario(t.Scenario)
}
