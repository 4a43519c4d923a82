package contract

import (
	"fmt"
	"maps"

	"github.com/getmockd/contractd/pkg/filter"
	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// NegativePrefix marks the name of a scenario that expects the request to
// be rejected.
const NegativePrefix = "-ve: "

// Scenario is one contract case. Derived scenarios are built by copying;
// a Scenario is never changed after construction.
type Scenario struct {
	Name     string
	Request  *HTTPRequestPattern
	Response *HTTPResponsePattern
	// ExpectedFacts is the server state the scenario needs. A value that
	// is a pattern token, such as "(number)", accepts any fitting value.
	ExpectedFacts map[string]value.Value
	Examples      []pattern.Examples
	Patterns      map[string]pattern.Pattern
	Fixtures      map[string]value.Value
	KafkaMessage  *KafkaMessagePattern
	// IgnoreFailure marks work in progress.
	IgnoreFailure bool
	// Bindings capture values from the response into variables, keyed by
	// variable name. Selectors are "response-body.<path>" or
	// "response-header.<name>".
	Bindings    map[string]string
	IsNegative  bool
	ExampleName string
	Strategies  pattern.ResolverStrategies
}

func (s Scenario) resolver(facts map[string]value.Value) pattern.Resolver {
	r := s.Strategies.Update(pattern.NewResolver(s.Patterns))
	if facts != nil {
		r = r.WithFactStore(pattern.CheckFacts(facts))
	}
	return r
}

// Resolver is the plain resolver for this scenario's named patterns.
func (s Scenario) Resolver() pattern.Resolver { return s.resolver(nil) }

// ServerState is the state the scenario expects before it runs.
func (s Scenario) ServerState() map[string]value.Value { return s.ExpectedFacts }

// TestDescription names the scenario in reports.
func (s Scenario) TestDescription() string {
	desc := "Scenario: "
	if s.Name != "" {
		desc += s.Name + " "
	}
	switch {
	case s.KafkaMessage != nil:
		return desc + s.KafkaMessage.Topic
	case s.Request != nil:
		return desc + s.Request.TestDescription()
	}
	return desc
}

// attach locates a contract error at this scenario.
func (s Scenario) attach(err error) error {
	if err == nil {
		return nil
	}
	f := result.ToFailure(err)
	attached, _ := f.WithScenario(s).(*result.Failure)
	ce := result.ContractErrorFromFailure(attached)
	ce.IsCycle = result.IsCycleError(err)
	return ce
}

func (s Scenario) serverStateMatches(actual map[string]value.Value, r pattern.Resolver) bool {
	if len(s.ExpectedFacts) != len(actual) {
		return false
	}
	for key, expected := range s.ExpectedFacts {
		got, ok := actual[key]
		if !ok {
			return false
		}
		if isTrue(expected) || isTrue(got) {
			continue
		}
		if token, ok := patternToken(expected); ok {
			if !factFits(key, token, got, r) {
				return false
			}
			continue
		}
		if expected.StringLiteral() != got.StringLiteral() {
			return false
		}
	}
	return true
}

func isTrue(v value.Value) bool {
	b, ok := v.(value.BooleanValue)
	return ok && bool(b)
}

func patternToken(v value.Value) (string, bool) {
	s, ok := v.(value.StringValue)
	if !ok || !pattern.IsPatternToken(string(s)) {
		return "", false
	}
	return string(s), true
}

func factFits(key, token string, got value.Value, r pattern.Resolver) bool {
	p, err := r.GetPattern(token)
	if err != nil {
		return false
	}
	parsed, err := p.Parse(got.StringLiteral(), r)
	if err != nil {
		return false
	}
	return r.MatchesPattern(key, p, parsed).IsSuccess()
}

// Matches checks a request against the scenario, given the current server
// state.
func (s Scenario) Matches(req HTTPRequest, serverState map[string]value.Value, messages result.MismatchMessages) result.Result {
	r := s.resolver(serverState).WithMismatchMessages(orDefault(messages))
	return s.matches(req, serverState, r, r)
}

// MatchesStub checks the request half of stub data. Unexpected body keys
// are tolerated; headers are checked strictly.
func (s Scenario) MatchesStub(req HTTPRequest, serverState map[string]value.Value, messages result.MismatchMessages) result.Result {
	headersR := s.resolver(serverState).WithMismatchMessages(orDefault(messages))
	bodyR := headersR.WithUnexpectedKeyCheck(pattern.IgnoreUnexpectedKeys)
	return s.matches(req, serverState, bodyR, headersR.Strict())
}

func (s Scenario) matches(req HTTPRequest, serverState map[string]value.Value, r, headersR pattern.Resolver) result.Result {
	if !s.serverStateMatches(serverState, r) {
		return result.NewFailure("Facts mismatch").WithBreadCrumb(FactsCrumb).WithScenario(s)
	}
	if s.Request == nil {
		return result.NewSuccess().WithScenario(s)
	}
	return s.Request.MatchesWithHeaderResolver(req, r, headersR).WithScenario(s)
}

func orDefault(m result.MismatchMessages) result.MismatchMessages {
	if m == nil {
		return result.DefaultMismatchMessages{}
	}
	return m
}

// MatchesResponse checks a response from the system under test. A
// negative scenario only requires a 4xx status.
func (s Scenario) MatchesResponse(resp HTTPResponse, messages result.MismatchMessages) result.Result {
	if s.IsNegative {
		if resp.Is4xx() {
			return result.NewSuccess().WithScenario(s)
		}
		return result.NewFailure(fmt.Sprintf("Expected 4xx status, but received %d", resp.Status)).
			WithBreadCrumb(StatusCrumb).
			WithBreadCrumb(ResponseCrumb).
			WithScenario(s)
	}
	r := s.resolver(s.ExpectedFacts).WithMismatchMessages(orDefault(messages))
	return s.Response.Matches(resp, r).WithScenario(s)
}

// GenerateHTTPRequest produces the request a test sends.
func (s Scenario) GenerateHTTPRequest() (HTTPRequest, error) {
	if s.Request == nil {
		return HTTPRequest{}, s.attach(result.NewContractError("Scenario %q has no HTTP request", s.Name))
	}
	req, err := s.Request.Generate(s.resolver(s.ExpectedFacts))
	return req, s.attach(err)
}

// GenerateHTTPResponse produces the stubbed response for the given server
// state.
func (s Scenario) GenerateHTTPResponse(actualFacts map[string]value.Value) (HTTPResponse, error) {
	r := s.resolver(actualFacts)
	facts, err := combineFacts(s.ExpectedFacts, actualFacts, r)
	if err != nil {
		return HTTPResponse{}, s.attach(err)
	}
	resp, err := s.Response.Generate(r.WithFactStore(pattern.CheckFacts(facts)))
	return resp, s.attach(err)
}

// combineFacts merges expected and actual state. Actual values win; an
// expected token only keeps an actual value that fits it.
func combineFacts(expected, actual map[string]value.Value, r pattern.Resolver) (map[string]value.Value, error) {
	combined := make(map[string]value.Value, len(expected)+len(actual))
	for key, want := range expected {
		got, ok := actual[key]
		switch {
		case !ok:
			combined[key] = want
		case value.Equal(want, got):
			combined[key] = got
		default:
			token, isToken := patternToken(want)
			if !isToken {
				continue
			}
			p, err := r.GetPattern(token)
			if err != nil {
				return nil, stateMismatch(want, key, got)
			}
			parsed, err := p.Parse(got.StringLiteral(), r)
			if err != nil {
				return nil, stateMismatch(want, key, got)
			}
			if r.MatchesPattern(key, p, parsed).IsSuccess() {
				combined[key] = got
			}
		}
	}
	for key, got := range actual {
		if _, ok := expected[key]; !ok {
			combined[key] = got
		}
	}
	return combined, nil
}

func stateMismatch(want value.Value, key string, got value.Value) error {
	return result.NewContractError("Couldn't match state values. Expected %s in key %s, actual value is %s",
		want.StringLiteral(), key, got.StringLiteral())
}

// ResolverAndResponseFrom returns the scenario resolver and resp with any
// pattern tokens in it generated.
func (s Scenario) ResolverAndResponseFrom(resp HTTPResponse) (pattern.Resolver, HTTPResponse, error) {
	r := s.resolver(s.ExpectedFacts)
	out, err := ResponsePatternFrom(resp).Generate(r)
	if err != nil {
		return r, HTTPResponse{}, s.attach(result.BreadCrumbError(err, ResponseCrumb))
	}
	return r, out, nil
}

// newExpectedServerState applies row values and fixtures to the expected
// facts and generates any that are still tokens.
func (s Scenario) newExpectedServerState(row pattern.Row, r pattern.Resolver) (map[string]value.Value, error) {
	if len(s.ExpectedFacts) == 0 {
		return s.ExpectedFacts, nil
	}
	out := make(map[string]value.Value, len(s.ExpectedFacts))
	for key, v := range s.ExpectedFacts {
		generated, err := s.factFor(key, v, row, r)
		if err != nil {
			return nil, result.ContractErrorFromFailure(&result.Failure{
				Message: "Scenario fact generation failed",
				Causes:  []*result.Failure{result.ToFailure(err)},
			})
		}
		out[key] = generated
	}
	return out, nil
}

func (s Scenario) factFor(key string, v value.Value, row pattern.Row, r pattern.Resolver) (value.Value, error) {
	if row.ContainsField(key) {
		field := row.GetField(key)
		if fixture, ok := s.Fixtures[field]; ok {
			return fixture, nil
		}
		if pattern.IsPatternToken(field) {
			return generateToken(field, r)
		}
		return value.StringValue(field), nil
	}
	if token, ok := patternToken(v); ok {
		return generateToken(token, r)
	}
	return v, nil
}

func generateToken(token string, r pattern.Resolver) (value.Value, error) {
	p, err := r.GetPattern(token)
	if err != nil {
		return nil, err
	}
	return p.Generate(r)
}

func (s Scenario) withRequest(req *HTTPRequestPattern, facts map[string]value.Value, exampleName string) Scenario {
	c := s
	c.Request = req
	c.ExpectedFacts = facts
	c.ExampleName = exampleName
	return c
}

func (s Scenario) withKafka(msg *KafkaMessagePattern, facts map[string]value.Value, exampleName string) Scenario {
	c := s
	c.KafkaMessage = msg
	c.ExpectedFacts = facts
	c.ExampleName = exampleName
	return c
}

// newBasedOn expands the scenario for one example row.
func (s Scenario) newBasedOn(row pattern.Row) ([]pattern.ReturnValue[Scenario], error) {
	r := s.resolver(s.ExpectedFacts).WithMismatchMessages(ContractAndRowValueMismatchMessages{})
	facts, err := s.newExpectedServerState(row, r)
	if err != nil {
		return nil, s.attach(err)
	}

	if s.KafkaMessage != nil {
		msgs, err := s.KafkaMessage.NewBasedOn(row, r)
		if err != nil {
			return nil, s.attach(err)
		}
		out := make([]pattern.ReturnValue[Scenario], 0, len(msgs))
		for _, m := range msgs {
			out = append(out, pattern.MapReturnValue(m, func(k *KafkaMessagePattern) Scenario { return s.withKafka(k, facts, row.Name) }))
		}
		return out, nil
	}

	var reqs []pattern.ReturnValue[*HTTPRequestPattern]
	if s.IsNegative {
		reqs, err = s.Request.NegativeBasedOn(row, r.WithNegative(true))
	} else {
		reqs, err = s.Request.NewBasedOn(row, r)
	}
	if err != nil {
		return nil, s.attach(err)
	}
	out := make([]pattern.ReturnValue[Scenario], 0, len(reqs))
	for _, req := range reqs {
		out = append(out, pattern.MapReturnValue(req, func(p *HTTPRequestPattern) Scenario { return s.withRequest(p, facts, row.Name) }))
	}
	return out, nil
}

func (s Scenario) rows(variables map[string]string) []pattern.Row {
	var rows []pattern.Row
	for _, ex := range s.Examples {
		for _, row := range ex.Rows {
			rows = append(rows, row.WithVariables(variables))
		}
	}
	if len(rows) == 0 {
		rows = []pattern.Row{pattern.Row{}.WithVariables(variables)}
	}
	return rows
}

// GenerateTestScenarios expands the scenario once per example row, or once
// with no row when there are no examples.
func (s Scenario) GenerateTestScenarios(variables map[string]string) ([]pattern.ReturnValue[Scenario], error) {
	var out []pattern.ReturnValue[Scenario]
	for _, row := range s.rows(variables) {
		scenarios, err := s.newBasedOn(row)
		if err != nil {
			return nil, err
		}
		out = append(out, scenarios...)
	}
	return out, nil
}

// GenerateContractTests is GenerateTestScenarios with every failure turned
// into a test that reports it, so one broken row does not hide the rest.
func (s Scenario) GenerateContractTests(variables map[string]string) []ContractTest {
	var out []ContractTest
	for _, row := range s.rows(variables) {
		scenarios, err := s.newBasedOn(row)
		if err != nil {
			out = append(out, ScenarioTestGenerationFailure{Scenario: s, Err: err})
			continue
		}
		for _, rv := range scenarios {
			if !rv.OK() {
				out = append(out, ScenarioTestGenerationFailure{Scenario: s, Err: s.attach(result.ContractErrorFromFailure(rv.AsFailure()))})
				continue
			}
			out = append(out, ScenarioTest{Scenario: rv.Value})
		}
	}
	return out
}

// GenerateBackwardCompatibilityScenarios expands the request without
// example data. Rows only feed the expected facts.
func (s Scenario) GenerateBackwardCompatibilityScenarios(variables map[string]string) ([]pattern.ReturnValue[Scenario], error) {
	r := s.resolver(s.ExpectedFacts).WithGeneration(pattern.NonGenerativeTests)
	var out []pattern.ReturnValue[Scenario]
	for _, row := range s.rows(variables) {
		facts, err := s.newExpectedServerState(row, r)
		if err != nil {
			return nil, s.attach(err)
		}
		if s.KafkaMessage != nil {
			msgs, err := s.KafkaMessage.NewBasedOn(row, r)
			if err != nil {
				return nil, s.attach(err)
			}
			for _, m := range msgs {
				out = append(out, pattern.MapReturnValue(m, func(k *KafkaMessagePattern) Scenario { return s.withKafka(k, facts, row.Name) }))
			}
			continue
		}
		reqs, err := s.Request.NewBasedOn(pattern.Row{}, r)
		if err != nil {
			return nil, s.attach(err)
		}
		for _, req := range reqs {
			out = append(out, pattern.MapReturnValue(req, func(p *HTTPRequestPattern) Scenario { return s.withRequest(p, facts, row.Name) }))
		}
	}
	return out, nil
}

// mockResolver validates stub expectations: pattern tokens are accepted in
// place of values and unexpected keys are always rejected.
func (s Scenario) mockResolver(messages result.MismatchMessages) pattern.Resolver {
	return s.resolver(nil).
		WithFactStore(pattern.IgnoreFacts{}).
		WithMockMode(true).
		WithMismatchMessages(orDefault(messages)).
		Strict()
}

// MatchesMock checks a stub expectation, request and response together.
// When the request does not match and the status differs too, the stub
// was meant for another scenario.
func (s Scenario) MatchesMock(req HTTPRequest, resp HTTPResponse, messages result.MismatchMessages) result.Result {
	r := s.mockResolver(messages)

	var failures []*result.Failure
	if s.Request != nil {
		if f, failed := s.Request.Matches(req, r).(*result.Failure); failed {
			if resp.Status != s.Response.Status {
				return (&result.Failure{Causes: []*result.Failure{f}, Reason: result.RequestMismatchButStatusAlsoWrong}).WithScenario(s)
			}
			failures = append(failures, f)
		}
	}
	if f, failed := s.Response.MatchesMock(resp, r).(*result.Failure); failed {
		failures = append(failures, f)
	}
	if len(failures) == 0 {
		return result.NewSuccess().WithScenario(s)
	}
	return result.FromFailures(failures).WithScenario(s)
}

// MatchesKafkaMock checks a stubbed Kafka message.
func (s Scenario) MatchesKafkaMock(msg KafkaMessage) result.Result {
	if s.KafkaMessage == nil {
		return result.NewFailure("This scenario does not have a Kafka mock")
	}
	return s.KafkaMessage.Matches(msg, s.Resolver())
}

// WithSuggestions takes the examples of the same-named suggestion, if
// there is one.
func (s Scenario) WithSuggestions(suggestions []Scenario) Scenario {
	for _, sug := range suggestions {
		if sug.Name == s.Name {
			c := s
			c.Examples = sug.Examples
			return c
		}
	}
	return s
}

// NegativeBasedOn returns the scenario that sends contract-breaking
// requests and expects them to be rejected.
func (s Scenario) NegativeBasedOn() Scenario {
	c := s
	c.Name = NegativePrefix + s.Name
	c.IsNegative = true
	c.Bindings = maps.Clone(s.Bindings)
	return c
}

// IsA2xxScenario reports whether the scenario expects success.
func (s Scenario) IsA2xxScenario() bool {
	return s.Response != nil && s.Response.Status >= 200 && s.Response.Status < 300
}

// Metadata describes the scenario for filters.
func (s Scenario) Metadata() filter.ScenarioMetadata {
	m := filter.ScenarioMetadata{ExampleName: s.ExampleName}
	if s.Request != nil {
		m.Method = s.Request.Method
		if s.Request.Path != nil {
			m.Path = s.Request.Path.Template()
		}
		m.Header = s.Request.Headers.Names()
		m.Query = s.Request.Query.Names()
	}
	if s.Response != nil {
		m.StatusCode = s.Response.Status
	}
	return m
}
