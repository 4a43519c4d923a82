package contract

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/getmockd/contractd/internal/matching"
	"github.com/getmockd/contractd/pkg/filter"
	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// Feature is the set of scenarios loaded from one contract.
type Feature struct {
	Name      string
	Path      string
	Scenarios []Scenario

	serverState map[string]value.Value
}

// NewFeature groups scenarios under name.
func NewFeature(name string, scenarios ...Scenario) *Feature {
	return &Feature{Name: name, Scenarios: scenarios}
}

// WithServerState returns a copy of f that matches and stubs against
// facts.
func (f *Feature) WithServerState(facts map[string]value.Value) *Feature {
	c := *f
	c.Scenarios = append([]Scenario(nil), f.Scenarios...)
	c.serverState = maps.Clone(facts)
	return &c
}

// ServerState is the state set by WithServerState.
func (f *Feature) ServerState() map[string]value.Value { return f.serverState }

// IsEmpty reports whether the contract has no operations.
func (f *Feature) IsEmpty() bool { return len(f.Scenarios) == 0 }

// ScenarioMatch is the outcome of matching a request against one scenario.
type ScenarioMatch struct {
	Scenario Scenario
	Result   result.Result
}

// CompatibilityLookup matches a request generated from an older contract
// against every scenario, worded for old-versus-new reports.
func (f *Feature) CompatibilityLookup(req HTTPRequest) []ScenarioMatch {
	var out []ScenarioMatch
	for _, s := range f.Scenarios {
		if s.IgnoreFailure {
			continue
		}
		out = append(out, ScenarioMatch{
			Scenario: s,
			Result:   s.Matches(req, f.serverState, NewAndOldContractRequestMismatches{}),
		})
	}
	return out
}

// requestFields weighs the request parts reported by HTTPRequestPattern.
var requestFields = []matching.Field{
	{Name: "facts", Crumb: FactsCrumb, MaxScore: matching.ScoreFacts, Gate: true},
	{Name: "path", Crumb: RequestCrumb + "." + PathCrumb, MaxScore: matching.ScorePathExact, Gate: true},
	{Name: "method", Crumb: RequestCrumb + "." + MethodCrumb, MaxScore: matching.ScoreMethod, Gate: true},
	{Name: "headers", Crumb: RequestCrumb + "." + HeadersCrumb, MaxScore: matching.ScoreHeader},
	{Name: "query", Crumb: RequestCrumb + "." + QueryCrumb, MaxScore: matching.ScoreQueryParam},
	{Name: "body", Crumb: RequestCrumb + "." + BodyCrumb, MaxScore: matching.ScoreBodyEquals},
}

// NoMatchError is returned when no scenario accepts a request.
type NoMatchError struct {
	Request    HTTPRequest
	Failures   result.Results
	NearMisses []matching.NearMiss
}

func (e *NoMatchError) Error() string {
	msg := fmt.Sprintf("no scenario matched %s %s", e.Request.Method, e.Request.Path)
	if len(e.NearMisses) > 0 {
		best := e.NearMisses[0]
		msg += fmt.Sprintf("; closest was %q (%d%%): %s", best.Candidate, best.MatchPercentage, best.Reason)
	}
	return msg
}

// StubResponse is the response served for a request and the scenario that
// produced it.
type StubResponse struct {
	Response HTTPResponse
	Scenario Scenario
}

// LookupResponse finds the first scenario that accepts req and generates
// its response.
func (f *Feature) LookupResponse(req HTTPRequest) (StubResponse, error) {
	var candidates []matching.Candidate
	var failures result.Results
	for _, s := range f.Scenarios {
		res := s.Matches(req, f.serverState, result.DefaultMismatchMessages{})
		if res.IsSuccess() {
			resp, err := s.GenerateHTTPResponse(f.serverState)
			if err != nil {
				return StubResponse{}, err
			}
			return StubResponse{Response: resp, Scenario: s}, nil
		}
		candidates = append(candidates, matching.Candidate{Name: s.TestDescription(), Result: res})
		if !result.IsFluffy(res) {
			failures.Add(res)
		}
	}
	return StubResponse{}, &NoMatchError{
		Request:    req,
		Failures:   failures,
		NearMisses: matching.CollectNearMisses(candidates, requestFields, 3),
	}
}

// MatchingStub finds the scenario that a stub expectation belongs to. When
// none does, the error reports the failures of the scenarios the stub was
// plausibly meant for.
func (f *Feature) MatchingStub(req HTTPRequest, resp HTTPResponse) (Scenario, error) {
	var all, relevant []*result.Failure
	for _, s := range f.Scenarios {
		res := s.MatchesMock(req, resp, ContractAndStubMismatchMessages{})
		fail, failed := res.(*result.Failure)
		if !failed {
			return s, nil
		}
		all = append(all, fail)
		if !fail.IsFluffy() {
			relevant = append(relevant, fail)
		}
	}
	if len(relevant) == 0 {
		relevant = all
	}
	if len(relevant) == 0 {
		return Scenario{}, result.NewContractError("The contract at %q has no scenarios", f.Path)
	}
	return Scenario{}, result.ContractErrorFromFailure(result.FromFailures(relevant))
}

// GenerateBackwardCompatibilityTestScenarios expands every scenario for a
// compatibility check. A scenario that cannot be expanded yields one error
// element.
func (f *Feature) GenerateBackwardCompatibilityTestScenarios() []pattern.ReturnValue[Scenario] {
	var out []pattern.ReturnValue[Scenario]
	for _, s := range f.Scenarios {
		scenarios, err := s.GenerateBackwardCompatibilityScenarios(nil)
		if err != nil {
			out = append(out, pattern.HasError[Scenario](err))
			continue
		}
		out = append(out, scenarios...)
	}
	return out
}

// Filter returns a copy of f holding only the scenarios flt selects. A nil
// filter selects everything.
func (f *Feature) Filter(flt filter.Filter) *Feature {
	if flt == nil {
		return f
	}
	c := *f
	c.Scenarios = nil
	for _, s := range f.Scenarios {
		if flt.Matches(s.Metadata()) {
			c.Scenarios = append(c.Scenarios, s)
		}
	}
	return &c
}

// WithoutExamples returns a copy of f whose scenarios have no example
// rows, so tests are generated from the patterns alone.
func (f *Feature) WithoutExamples() *Feature {
	c := *f
	c.Scenarios = make([]Scenario, len(f.Scenarios))
	for i, s := range f.Scenarios {
		s.Examples = nil
		c.Scenarios[i] = s
	}
	return &c
}

// scenarioTests returns the tests for s, plus the negative tests its
// strategies ask for.
func scenarioTests(s Scenario, variables map[string]string) []ContractTest {
	tests := s.GenerateContractTests(variables)
	if s.Strategies.Generation.Negative() && s.IsA2xxScenario() && s.KafkaMessage == nil {
		tests = append(tests, s.NegativeBasedOn().GenerateContractTests(variables)...)
	}
	return tests
}

// GenerateContractTests returns every test in the contract.
func (f *Feature) GenerateContractTests(variables map[string]string) []ContractTest {
	var out []ContractTest
	for _, s := range f.Scenarios {
		out = append(out, scenarioTests(s, variables)...)
	}
	return out
}

// ExecuteTests runs the contract's tests in order. Variables bound by a
// passing test are visible to the scenarios after it.
func (f *Feature) ExecuteTests(ctx context.Context, ex TestExecutor, variables map[string]string) result.Results {
	vars := maps.Clone(variables)
	if vars == nil {
		vars = make(map[string]string)
	}
	var results result.Results
	for _, s := range f.Scenarios {
		for _, test := range scenarioTests(s, vars) {
			if err := ctx.Err(); err != nil {
				results.Add(result.NewFailure("Exception: " + err.Error()))
				return results
			}
			res := test.Run(ctx, ex)
			if success, ok := res.(*result.Success); ok {
				maps.Copy(vars, success.Variables)
			}
			results.Add(res)
		}
	}
	return results
}

// OperationNames lists "METHOD /path" for every scenario.
func (f *Feature) OperationNames() []string {
	out := make([]string, 0, len(f.Scenarios))
	for _, s := range f.Scenarios {
		if s.Request != nil {
			out = append(out, strings.TrimSpace(s.Request.TestDescription()))
		}
	}
	return out
}
