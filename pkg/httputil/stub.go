package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/logging"
	"github.com/getmockd/contractd/pkg/value"
)

// Expectation is a canned response for one concrete request. It was
// checked against the contract when added.
type Expectation struct {
	Request  contract.HTTPRequest
	Response contract.HTTPResponse
	Scenario string
}

func (e Expectation) accepts(req contract.HTTPRequest) bool {
	if e.Request.Method != req.Method || e.Request.Path != req.Path {
		return false
	}
	for k, want := range e.Request.QueryParams {
		got := req.QueryParams[k]
		if len(got) != len(want) {
			return false
		}
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
	}
	for k, want := range contract.WithoutDynamicHeaders(e.Request.Headers) {
		if got, ok := req.Header(k); !ok || got != want {
			return false
		}
	}
	if e.Request.Body == nil {
		return true
	}
	return value.Parsed(e.Request.Body.StringLiteral()).StringLiteral() ==
		value.Parsed(req.BodyOrEmpty().StringLiteral()).StringLiteral()
}

// StubServer serves a contract over HTTP. Requests are answered from
// expectations first, then by the fallback, which defaults to the
// contract's generated responses.
type StubServer struct {
	mu           sync.RWMutex
	feature      *contract.Feature
	expectations []Expectation

	strict    bool
	delay     time.Duration
	statePath string
	fallback  ServeFunc
	logger    *slog.Logger
}

// StubOption configures a StubServer.
type StubOption func(*StubServer)

// WithStrict refuses requests no expectation matches.
func WithStrict(strict bool) StubOption {
	return func(s *StubServer) { s.strict = strict }
}

// WithDelay waits d before every response.
func WithDelay(d time.Duration) StubOption {
	return func(s *StubServer) { s.delay = d }
}

// WithFallback answers requests no expectation matches with fn.
func WithFallback(fn ServeFunc) StubOption {
	return func(s *StubServer) { s.fallback = fn }
}

// WithStatePath sets where server state is posted. Empty disables it.
func WithStatePath(path string) StubOption {
	return func(s *StubServer) { s.statePath = path }
}

// WithStubLogger sets the request logger.
func WithStubLogger(l *slog.Logger) StubOption {
	return func(s *StubServer) { s.logger = l }
}

// NewStubServer returns a stub for f.
func NewStubServer(f *contract.Feature, opts ...StubOption) *StubServer {
	s := &StubServer{
		feature:   f,
		statePath: DefaultStatePath,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddExpectation registers a canned response. It fails when no scenario
// of the contract allows the pair.
func (s *StubServer) AddExpectation(req contract.HTTPRequest, resp contract.HTTPResponse) (Expectation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.feature.MatchingStub(req, resp)
	if err != nil {
		return Expectation{}, err
	}
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	e := Expectation{Request: req, Response: resp, Scenario: sc.TestDescription()}
	s.expectations = append(s.expectations, e)
	return e, nil
}

// Expectations returns the registered expectations in order.
func (s *StubServer) Expectations() []Expectation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Expectation(nil), s.expectations...)
}

// SetServerState replaces the facts the contract is matched against.
func (s *StubServer) SetServerState(facts map[string]value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feature = s.feature.WithServerState(facts)
}

func (s *StubServer) serve(req contract.HTTPRequest) contract.HTTPResponse {
	s.mu.RLock()
	f := s.feature
	expectations := s.expectations
	s.mu.RUnlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	for i := len(expectations) - 1; i >= 0; i-- {
		if expectations[i].accepts(req) {
			return expectations[i].Response
		}
	}
	if s.strict {
		return jsonResponse(http.StatusBadRequest, map[string]any{
			"error":   "no_expectation",
			"message": "no expectation matched " + req.Method + " " + req.Path,
		})
	}
	if s.fallback != nil {
		return s.fallback(req)
	}
	stub, err := f.LookupResponse(req)
	if err != nil {
		return errorResponse(err)
	}
	return stub.Response
}

// ServeHTTP implements http.Handler.
func (s *StubServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.statePath != "" && r.URL.Path == s.statePath && r.Method == http.MethodPost {
		s.handleState(w, r)
		return
	}
	Handler(s.serve, s.logger).ServeHTTP(w, r)
}

func (s *StubServer) handleState(w http.ResponseWriter, r *http.Request) {
	var facts map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	dec.UseNumber()
	if err := dec.Decode(&facts); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "server state must be a JSON object: "+err.Error())
		return
	}
	state := make(map[string]value.Value, len(facts))
	for k, v := range facts {
		state[k] = value.FromNative(v)
	}
	s.SetServerState(state)
	s.logger.Debug("server state set", "facts", len(state))
	w.WriteHeader(http.StatusNoContent)
}
