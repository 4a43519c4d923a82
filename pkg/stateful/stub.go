package stateful

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/getmockd/contractd/internal/id"
	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/logging"
	"github.com/getmockd/contractd/pkg/value"
)

// ColumnsParam is the query param that selects the attributes of listed
// resources, as a comma-separated list.
const ColumnsParam = "columns"

// Stub serves a contract's scenarios with resources kept in a StubCache.
type Stub struct {
	feature       *contract.Feature
	cache         *StubCache
	idKey         string
	columns       string
	defaultFields []string
	logger        *slog.Logger
	observer      Observer
}

// Option configures a Stub.
type Option func(*Stub)

// WithIDKey sets the body field that identifies a resource.
func WithIDKey(key string) Option {
	return func(s *Stub) { s.idKey = key }
}

// WithColumnsParam renames the query param that selects listed
// attributes.
func WithColumnsParam(name string) Option {
	return func(s *Stub) {
		if name != "" {
			s.columns = name
		}
	}
}

// WithDefaultFields sets fields returned with every column selection.
func WithDefaultFields(fields ...string) Option {
	return func(s *Stub) { s.defaultFields = fields }
}

// WithLogger sets the logger for stub operations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stub) { s.logger = l }
}

// WithObserver sets the observer notified after each operation.
func WithObserver(o Observer) Option {
	return func(s *Stub) { s.observer = o }
}

// NewStub returns a stub for feature backed by cache.
func NewStub(feature *contract.Feature, cache *StubCache, opts ...Option) *Stub {
	s := &Stub{
		feature:  feature,
		cache:    cache,
		idKey:    DefaultIDKey,
		columns:  ColumnsParam,
		logger:   logging.Nop(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the cache the stub stores resources in.
func (s *Stub) Cache() *StubCache { return s.cache }

// Handle is Serve with errors rendered as error responses.
func (s *Stub) Handle(req contract.HTTPRequest) contract.HTTPResponse {
	resp, err := s.Serve(req)
	if err != nil {
		s.logger.Warn("stub request failed", append([]any{"method", req.Method, "path", req.Path}, logging.ErrorAttrs(err)...)...)
		return ToErrorResponse(err)
	}
	return resp
}

// Serve answers req. The request must match a scenario of the contract;
// the scenario's method decides what happens to the cache.
func (s *Stub) Serve(req contract.HTTPRequest) (contract.HTTPResponse, error) {
	stub, err := s.feature.LookupResponse(req)
	if err != nil {
		s.observer.Observe(Event{Resource: req.Path, Op: Operation(strings.ToLower(req.Method)), Err: err})
		return contract.HTTPResponse{}, err
	}

	resource, itemID := resourceOf(stub.Scenario, req.Path)
	start := time.Now()

	switch {
	case strings.EqualFold(req.Method, http.MethodPost) && itemID == "":
		return s.create(resource, req, stub, start)
	case strings.EqualFold(req.Method, http.MethodGet) && itemID != "":
		return s.read(resource, itemID, stub, start)
	case strings.EqualFold(req.Method, http.MethodGet):
		return s.list(resource, req, stub, start)
	case strings.EqualFold(req.Method, http.MethodPatch) && itemID != "":
		return s.update(resource, itemID, req, stub, start)
	case strings.EqualFold(req.Method, http.MethodDelete) && itemID != "":
		return s.delete(resource, itemID, stub, start)
	}
	return stub.Response, nil
}

// resourceOf splits a request path into the resource collection and item
// id. The path addresses an item when the scenario's last path segment is
// a parameter.
func resourceOf(s contract.Scenario, path string) (string, string) {
	trimmed := "/" + strings.Trim(path, "/")
	if s.Request == nil || s.Request.Path == nil {
		return trimmed, ""
	}
	segments := s.Request.Path.Segments()
	if len(segments) == 0 || !segments[len(segments)-1].IsParam() {
		return trimmed, ""
	}
	i := strings.LastIndex(trimmed, "/")
	collection := trimmed[:i]
	if collection == "" {
		collection = "/"
	}
	return collection, trimmed[i+1:]
}

func (s *Stub) create(resource string, req contract.HTTPRequest, stub contract.StubResponse, start time.Time) (contract.HTTPResponse, error) {
	generated, ok := stub.Response.Body.(*value.JSONObjectValue)
	if !ok {
		return stub.Response, nil
	}
	body := generated
	if reqBody, ok := bodyObject(req.Body); ok {
		body = fillFromRequest(generated, reqBody)
	}
	if _, has := body.Get(s.idKey); !has {
		body = body.With(s.idKey, value.StringValue(id.UUID()))
	}

	resp := stub.Response
	resp.Body = body
	if res := stub.Scenario.MatchesResponse(resp, nil); !res.IsSuccess() {
		s.logger.Warn("request values do not fit the response; storing the generated body", "path", resource, "report", res.Report())
		body = generated
		resp.Body = generated
	}

	itemID := IDValueFor(s.idKey, body)
	if resp.Status == http.StatusAccepted {
		s.cache.AddAcceptedResponse(resource, body, resp, req, s.idKey, itemID)
	} else {
		s.cache.AddResponse(resource, body, s.idKey, itemID)
	}
	s.logger.Debug("stored resource", "path", resource, "id", itemID)
	s.observer.Observe(Event{Resource: resource, Op: OpCreate, ItemID: itemID, Duration: time.Since(start)})
	return resp, nil
}

// fillFromRequest takes the value of every generated key that the request
// also sent.
func fillFromRequest(generated, reqBody *value.JSONObjectValue) *value.JSONObjectValue {
	out := generated
	for _, k := range generated.Keys() {
		if v, ok := reqBody.Get(k); ok {
			out = out.With(k, v)
		}
	}
	return out
}

func bodyObject(v value.Value) (*value.JSONObjectValue, bool) {
	if s, ok := v.(value.StringValue); ok {
		v = value.Parsed(string(s))
	}
	obj, ok := v.(*value.JSONObjectValue)
	return obj, ok
}

func (s *Stub) read(resource, itemID string, stub contract.StubResponse, start time.Time) (contract.HTTPResponse, error) {
	cached, found := s.cache.FindResponseFor(resource, s.idKey, itemID)
	if !found {
		err := &NotFoundError{Resource: resource, ID: itemID}
		s.observer.Observe(Event{Resource: resource, Op: OpRead, ItemID: itemID, Err: err})
		return contract.HTTPResponse{}, err
	}
	resp := stub.Response
	resp.Body = cached.Body
	s.observer.Observe(Event{Resource: resource, Op: OpRead, ItemID: itemID, Duration: time.Since(start)})
	return resp, nil
}

func (s *Stub) list(resource string, req contract.HTTPRequest, stub contract.StubResponse, start time.Time) (contract.HTTPResponse, error) {
	var columns []string
	if raw := req.QueryParams.Get(s.columns); raw != "" {
		columns = append(columns, s.defaultFields...)
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" && !slices.Contains(columns, c) {
				columns = append(columns, c)
			}
		}
	}
	filter := make(map[string]string)
	for k, vs := range req.QueryParams {
		if k != s.columns && len(vs) > 0 {
			filter[k] = vs[0]
		}
	}

	items := s.cache.FindAllResponsesFor(resource, columns, filter)
	resp := stub.Response
	resp.Body = items
	s.observer.Observe(Event{Resource: resource, Op: OpList, Count: items.Len(), Duration: time.Since(start)})
	return resp, nil
}

func (s *Stub) update(resource, itemID string, req contract.HTTPRequest, stub contract.StubResponse, start time.Time) (contract.HTTPResponse, error) {
	cached, found := s.cache.FindResponseFor(resource, s.idKey, itemID)
	if !found {
		err := &NotFoundError{Resource: resource, ID: itemID}
		s.observer.Observe(Event{Resource: resource, Op: OpUpdate, ItemID: itemID, Err: err})
		return contract.HTTPResponse{}, err
	}
	reqBody, ok := bodyObject(req.Body)
	if !ok {
		err := &ValidationError{Message: "a PATCH body must be a JSON object"}
		s.observer.Observe(Event{Resource: resource, Op: OpUpdate, ItemID: itemID, Err: err})
		return contract.HTTPResponse{}, err
	}

	merged := mergeBodies(cached.Body, reqBody.Without(s.idKey))
	s.cache.UpdateResponse(resource, merged, s.idKey, itemID)
	resp := stub.Response
	resp.Body = merged
	s.observer.Observe(Event{Resource: resource, Op: OpUpdate, ItemID: itemID, Duration: time.Since(start)})
	return resp, nil
}

func (s *Stub) delete(resource, itemID string, stub contract.StubResponse, start time.Time) (contract.HTTPResponse, error) {
	if _, found := s.cache.FindResponseFor(resource, s.idKey, itemID); !found {
		err := &NotFoundError{Resource: resource, ID: itemID}
		s.observer.Observe(Event{Resource: resource, Op: OpDelete, ItemID: itemID, Err: err})
		return contract.HTTPResponse{}, err
	}
	s.cache.DeleteResponse(resource, s.idKey, itemID)
	s.observer.Observe(Event{Resource: resource, Op: OpDelete, ItemID: itemID, Duration: time.Since(start)})
	return stub.Response, nil
}
