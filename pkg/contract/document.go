package contract

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// ParseFeature reads a contract written as JSON in pattern notation:
//
//	{
//	  "name": "pets",
//	  "patterns": {"Pet": {"name": "(string)", "tag?": "(string)"}},
//	  "scenarios": [{
//	    "name": "create pet",
//	    "request": {"method": "POST", "path": "/pets", "body": "(Pet)"},
//	    "response": {"status": 201, "body": {"id": "(number)"}},
//	    "examples": [{"name": "scooby", "rows": [{"name": "Scooby"}]}]
//	  }]
//	}
//
// Every scenario gets strategies s.
func ParseFeature(path string, data []byte, s pattern.ResolverStrategies) (*Feature, error) {
	doc, err := value.ParseJSONObject(string(data))
	if err != nil {
		return nil, result.NewContractError("The contract at %s is not a JSON object: %v", path, err)
	}

	patterns, err := namedPatterns(doc)
	if err != nil {
		return nil, err
	}

	f := &Feature{Name: stringField(doc, "name"), Path: path}
	if f.Name == "" {
		f.Name = path
	}
	scenarios, _ := field[*value.JSONArrayValue](doc, "scenarios")
	if scenarios == nil {
		return f, nil
	}
	for i, item := range scenarios.Items() {
		obj, ok := item.(*value.JSONObjectValue)
		if !ok {
			return nil, result.NewContractError("scenario %d must be an object", i)
		}
		sc, err := scenarioFrom(obj, patterns, s)
		if err != nil {
			return nil, result.BreadCrumbError(err, fmt.Sprintf("scenarios[%d]", i))
		}
		f.Scenarios = append(f.Scenarios, sc)
	}
	return f, nil
}

func field[T value.Value](obj *value.JSONObjectValue, key string) (T, bool) {
	var zero T
	v, ok := obj.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func stringField(obj *value.JSONObjectValue, key string) string {
	v, ok := obj.Get(key)
	if !ok {
		return ""
	}
	return v.StringLiteral()
}

func namedPatterns(doc *value.JSONObjectValue) (map[string]pattern.Pattern, error) {
	obj, _ := field[*value.JSONObjectValue](doc, "patterns")
	out := map[string]pattern.Pattern{}
	if obj == nil {
		return out, nil
	}
	for _, f := range obj.Fields() {
		p, err := pattern.FromValue(f.Value)
		if err != nil {
			return nil, result.BreadCrumbError(err, "patterns."+f.Key)
		}
		name := f.Key
		if !pattern.IsPatternToken(name) {
			name = "(" + name + ")"
		}
		out[name] = p
	}
	return out, nil
}

func scenarioFrom(obj *value.JSONObjectValue, patterns map[string]pattern.Pattern, s pattern.ResolverStrategies) (Scenario, error) {
	sc := Scenario{
		Name:       stringField(obj, "name"),
		Patterns:   patterns,
		Strategies: s,
	}
	r := s.Update(pattern.NewResolver(patterns))

	if req, ok := field[*value.JSONObjectValue](obj, "request"); ok {
		p, err := requestPatternFrom(req, r)
		if err != nil {
			return Scenario{}, result.BreadCrumbError(err, "request")
		}
		sc.Request = p
	}
	resp, ok := field[*value.JSONObjectValue](obj, "response")
	if !ok {
		return Scenario{}, result.NewContractError("Scenario %q has no response", sc.Name)
	}
	rp, err := responsePatternFrom(resp)
	if err != nil {
		return Scenario{}, result.BreadCrumbError(err, "response")
	}
	sc.Response = rp

	if state, ok := field[*value.JSONObjectValue](obj, "state"); ok {
		sc.ExpectedFacts = make(map[string]value.Value, state.Len())
		for _, f := range state.Fields() {
			sc.ExpectedFacts[f.Key] = f.Value
		}
	}
	if b, ok := field[*value.JSONObjectValue](obj, "bindings"); ok {
		sc.Bindings = stringMap(b)
	}
	if ignore, ok := field[value.BooleanValue](obj, "ignoreFailure"); ok {
		sc.IgnoreFailure = bool(ignore)
	}
	if examples, ok := field[*value.JSONArrayValue](obj, "examples"); ok {
		for _, item := range examples.Items() {
			ex, ok := item.(*value.JSONObjectValue)
			if !ok {
				return Scenario{}, result.NewContractError("examples of %q must be objects", sc.Name)
			}
			sc.Examples = append(sc.Examples, examplesFrom(ex))
		}
	}
	return sc, nil
}

func examplesFrom(obj *value.JSONObjectValue) pattern.Examples {
	ex := pattern.Examples{Name: stringField(obj, "name")}
	rows, _ := field[*value.JSONArrayValue](obj, "rows")
	if rows == nil {
		return ex
	}
	for _, item := range rows.Items() {
		row, ok := item.(*value.JSONObjectValue)
		if !ok {
			continue
		}
		cols := row.Keys()
		vals := make([]string, 0, len(cols))
		for _, f := range row.Fields() {
			vals = append(vals, f.Value.StringLiteral())
		}
		r := pattern.NewRow(cols, vals)
		r.Name = ex.Name
		ex.Rows = append(ex.Rows, r)
	}
	return ex
}

func stringMap(obj *value.JSONObjectValue) map[string]string {
	out := make(map[string]string, obj.Len())
	for _, f := range obj.Fields() {
		out[f.Key] = f.Value.StringLiteral()
	}
	return out
}

func entriesFrom(obj *value.JSONObjectValue) ([]pattern.Entry, error) {
	entries := make([]pattern.Entry, 0, obj.Len())
	for _, f := range obj.Fields() {
		p, err := pattern.FromValue(f.Value)
		if err != nil {
			return nil, result.BreadCrumbError(err, f.Key)
		}
		entries = append(entries, pattern.Entry{Key: f.Key, Pattern: p})
	}
	return entries, nil
}

func requestPatternFrom(obj *value.JSONObjectValue, r pattern.Resolver) (*HTTPRequestPattern, error) {
	p := &HTTPRequestPattern{Method: strings.ToUpper(stringField(obj, "method"))}
	if path := stringField(obj, "path"); path != "" {
		pp, err := NewHTTPPathPattern(path, r)
		if err != nil {
			return nil, result.BreadCrumbError(err, PathCrumb)
		}
		p.Path = pp
	}
	if headers, ok := field[*value.JSONObjectValue](obj, "headers"); ok {
		entries, err := entriesFrom(headers)
		if err != nil {
			return nil, result.BreadCrumbError(err, HeadersCrumb)
		}
		hp, err := NewHTTPHeadersPattern(entries, stringField(obj, "contentType"))
		if err != nil {
			return nil, result.BreadCrumbError(err, HeadersCrumb)
		}
		p.Headers = hp
	}
	if query, ok := field[*value.JSONObjectValue](obj, "query"); ok {
		entries, err := entriesFrom(query)
		if err != nil {
			return nil, result.BreadCrumbError(err, QueryCrumb)
		}
		p.Query = NewHTTPQueryParamPattern(entries...)
	}
	if form, ok := field[*value.JSONObjectValue](obj, "form"); ok {
		entries, err := entriesFrom(form)
		if err != nil {
			return nil, result.BreadCrumbError(err, "FORM-FIELDS")
		}
		p.FormFields = entries
	}
	if body, ok := obj.Get("body"); ok {
		bp, err := pattern.FromValue(body)
		if err != nil {
			return nil, result.BreadCrumbError(err, BodyCrumb)
		}
		p.Body = bp
	}
	return p, nil
}

func responsePatternFrom(obj *value.JSONObjectValue) (*HTTPResponsePattern, error) {
	status, err := statusOf(obj)
	if err != nil {
		return nil, err
	}
	p := &HTTPResponsePattern{Status: status}
	if headers, ok := field[*value.JSONObjectValue](obj, "headers"); ok {
		entries, err := entriesFrom(headers)
		if err != nil {
			return nil, result.BreadCrumbError(err, HeadersCrumb)
		}
		hp, err := NewHTTPHeadersPattern(entries, "")
		if err != nil {
			return nil, result.BreadCrumbError(err, HeadersCrumb)
		}
		p.Headers = hp
	}
	if body, ok := obj.Get("body"); ok {
		bp, err := pattern.FromValue(body)
		if err != nil {
			return nil, result.BreadCrumbError(err, BodyCrumb)
		}
		p.Body = bp
	}
	return p, nil
}

func statusOf(obj *value.JSONObjectValue) (int, error) {
	v, ok := obj.Get("status")
	if !ok {
		return 0, result.NewContractError("status is required")
	}
	status, err := strconv.Atoi(v.StringLiteral())
	if err != nil || status < 100 || status > 599 {
		return 0, result.NewContractError("status %s is not an HTTP status code", v.StringLiteral())
	}
	return status, nil
}

// ParseHTTPRequest reads a concrete request written as JSON:
//
//	{"method": "GET", "path": "/pets/1", "headers": {"Accept": "*/*"},
//	 "query": {"tag": ["a", "b"]}, "body": {"name": "Rex"}}
func ParseHTTPRequest(data []byte) (HTTPRequest, error) {
	obj, err := value.ParseJSONObject(string(data))
	if err != nil {
		return HTTPRequest{}, fmt.Errorf("request is not a JSON object: %w", err)
	}
	req := HTTPRequest{
		Method: strings.ToUpper(stringField(obj, "method")),
		Path:   stringField(obj, "path"),
	}
	if req.Path == "" {
		req.Path = "/"
	}
	if h, ok := field[*value.JSONObjectValue](obj, "headers"); ok {
		req.Headers = stringMap(h)
	}
	if q, ok := field[*value.JSONObjectValue](obj, "query"); ok {
		req.QueryParams = url.Values{}
		for _, f := range q.Fields() {
			if arr, isArr := f.Value.(*value.JSONArrayValue); isArr {
				for _, item := range arr.Items() {
					req.QueryParams.Add(f.Key, item.StringLiteral())
				}
				continue
			}
			req.QueryParams.Add(f.Key, f.Value.StringLiteral())
		}
	}
	if form, ok := field[*value.JSONObjectValue](obj, "form"); ok {
		req.FormFields = stringMap(form)
	}
	if body, ok := obj.Get("body"); ok {
		req.Body = body
	}
	return req, nil
}

// ParseHTTPResponse reads a concrete response written as JSON with
// "status", "headers" and "body".
func ParseHTTPResponse(data []byte) (HTTPResponse, error) {
	obj, err := value.ParseJSONObject(string(data))
	if err != nil {
		return HTTPResponse{}, fmt.Errorf("response is not a JSON object: %w", err)
	}
	status, err := statusOf(obj)
	if err != nil {
		return HTTPResponse{}, err
	}
	resp := HTTPResponse{Status: status}
	if h, ok := field[*value.JSONObjectValue](obj, "headers"); ok {
		resp.Headers = stringMap(h)
	}
	if body, ok := obj.Get("body"); ok {
		resp.Body = body
	}
	return resp, nil
}

// RequestDocument renders req in the form ParseHTTPRequest reads.
func RequestDocument(req HTTPRequest) *value.JSONObjectValue {
	fields := []value.Field{
		{Key: "method", Value: value.StringValue(req.Method)},
		{Key: "path", Value: value.StringValue(req.Path)},
	}
	if len(req.Headers) > 0 {
		fields = append(fields, value.Field{Key: "headers", Value: headersDocument(req.Headers)})
	}
	if len(req.QueryParams) > 0 {
		q := make([]value.Field, 0, len(req.QueryParams))
		for _, k := range slices.Sorted(maps.Keys(req.QueryParams)) {
			vals := req.QueryParams[k]
			if len(vals) == 1 {
				q = append(q, value.Field{Key: k, Value: value.StringValue(vals[0])})
				continue
			}
			items := make([]value.Value, 0, len(vals))
			for _, v := range vals {
				items = append(items, value.StringValue(v))
			}
			q = append(q, value.Field{Key: k, Value: value.NewJSONArray(items...)})
		}
		fields = append(fields, value.Field{Key: "query", Value: value.NewJSONObject(q...)})
	}
	if len(req.FormFields) > 0 {
		fields = append(fields, value.Field{Key: "form", Value: headersDocument(req.FormFields)})
	}
	if req.Body != nil && req.Body.StringLiteral() != "" {
		fields = append(fields, value.Field{Key: "body", Value: req.Body})
	}
	return value.NewJSONObject(fields...)
}

// ResponseDocument renders resp in the form ParseHTTPResponse reads.
func ResponseDocument(resp HTTPResponse) *value.JSONObjectValue {
	fields := []value.Field{{Key: "status", Value: value.NumberFromInt(int64(resp.Status))}}
	if len(resp.Headers) > 0 {
		fields = append(fields, value.Field{Key: "headers", Value: headersDocument(resp.Headers)})
	}
	if resp.Body != nil && resp.Body.StringLiteral() != "" {
		fields = append(fields, value.Field{Key: "body", Value: resp.Body})
	}
	return value.NewJSONObject(fields...)
}

func headersDocument(h map[string]string) *value.JSONObjectValue {
	fields := make([]value.Field, 0, len(h))
	for _, k := range sortedKeys(h) {
		fields = append(fields, value.Field{Key: k, Value: value.StringValue(h[k])})
	}
	return value.NewJSONObject(fields...)
}
