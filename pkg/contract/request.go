package contract

import (
	"fmt"
	"strings"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// RequestBodyColumn is the example column that supplies a whole request
// body.
const RequestBodyColumn = "(REQUEST-BODY)"

// HTTPRequestPattern is the request half of a scenario. A nil component
// places no constraint on that part of the request.
type HTTPRequestPattern struct {
	Method     string
	Path       *HTTPPathPattern
	Headers    *HTTPHeadersPattern
	Query      *HTTPQueryParamPattern
	Body       pattern.Pattern
	FormFields []pattern.Entry
	MultiPart  []MultiPartFormDataPattern
}

// TestDescription names the request in reports.
func (p *HTTPRequestPattern) TestDescription() string {
	path := ""
	if p.Path != nil {
		path = p.Path.Template()
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s", p.Method, path))
}

// Matches checks req using r for every part of the request.
func (p *HTTPRequestPattern) Matches(req HTTPRequest, r pattern.Resolver) result.Result {
	return p.MatchesWithHeaderResolver(req, r, r)
}

// MatchesWithHeaderResolver checks req, using headersR for the headers
// only. A wrong path or method ends the check, since the request is then
// meant for another operation; everything else is reported together.
func (p *HTTPRequestPattern) MatchesWithHeaderResolver(req HTTPRequest, r, headersR pattern.Resolver) result.Result {
	if p.Path != nil {
		if f, failed := p.Path.Matches(req.Path, r).(*result.Failure); failed {
			return f.WithBreadCrumb(RequestCrumb)
		}
	}
	if p.Method != "" && !strings.EqualFold(p.Method, req.Method) {
		return result.NewFailure(r.MismatchMessages().MismatchMessage(p.Method, req.Method)).
			WithReason(result.MethodMismatch).
			WithBreadCrumb(MethodCrumb).
			WithBreadCrumb(RequestCrumb)
	}

	results := []result.Result{
		p.Headers.Matches(req.Headers, headersR),
		p.Query.Matches(req.QueryParams, r),
		p.matchFormFields(req.FormFields, r),
		p.matchBody(req, r),
	}
	if len(p.MultiPart) > 0 {
		results = append(results, matchMultipart(p.MultiPart, req.MultiPartFormData, r))
	}
	return result.FromResults(results).BreadCrumb(RequestCrumb)
}

func (p *HTTPRequestPattern) matchBody(req HTTPRequest, r pattern.Resolver) result.Result {
	if p.Body == nil {
		return result.NewSuccess()
	}
	body := req.BodyOrEmpty()
	if s, ok := body.(value.StringValue); ok {
		if _, stringBody := p.Body.(*pattern.StringPattern); !stringBody && s != "" {
			body = parseOrString(p.Body, string(s), r)
		}
	}
	return r.MatchesPattern("", p.Body, body).BreadCrumb(BodyCrumb)
}

func (p *HTTPRequestPattern) matchFormFields(fields map[string]string, r pattern.Resolver) result.Result {
	if len(p.FormFields) == 0 {
		return result.NewSuccess()
	}
	actual := make([]string, 0, len(fields))
	for k := range fields {
		actual = append(actual, k)
	}
	failures := r.KeyErrors(entryKeys(p.FormFields), actual, "form field", false)
	for _, e := range p.FormFields {
		bare := pattern.WithoutOptionality(e.Key)
		v, ok := fields[bare]
		if !ok {
			continue
		}
		if f, failed := r.MatchesPattern(bare, e.Pattern, parseOrString(e.Pattern, v, r)).(*result.Failure); failed {
			failures = append(failures, f.WithBreadCrumb(bare))
		}
	}
	if len(failures) == 0 {
		return result.NewSuccess()
	}
	return result.FromFailures(failures).WithBreadCrumb("FORM-FIELDS")
}

// Generate produces a concrete request.
func (p *HTTPRequestPattern) Generate(r pattern.Resolver) (HTTPRequest, error) {
	req := HTTPRequest{Method: p.Method, Path: "/"}
	var err error
	if p.Path != nil {
		if req.Path, err = p.Path.Generate(r); err != nil {
			return HTTPRequest{}, result.BreadCrumbError(err, RequestCrumb)
		}
	}
	if req.Headers, err = p.Headers.Generate(r); err != nil {
		return HTTPRequest{}, result.BreadCrumbError(err, RequestCrumb)
	}
	if p.Query != nil {
		if req.QueryParams, err = p.Query.Generate(r); err != nil {
			return HTTPRequest{}, result.BreadCrumbError(err, RequestCrumb)
		}
	}
	if p.Body != nil {
		if req.Body, err = p.Body.Generate(r); err != nil {
			return HTTPRequest{}, result.BreadCrumbError(result.BreadCrumbError(err, BodyCrumb), RequestCrumb)
		}
	}
	if len(p.FormFields) > 0 {
		req.FormFields = make(map[string]string, len(p.FormFields))
		for _, e := range p.FormFields {
			bare := pattern.WithoutOptionality(e.Key)
			v, err := r.GenerateFor(bare, e.Pattern)
			if err != nil {
				return HTTPRequest{}, result.BreadCrumbError(result.BreadCrumbError(err, bare), RequestCrumb)
			}
			req.FormFields[bare] = v.StringLiteral()
		}
	}
	for _, part := range p.MultiPart {
		v, err := part.Generate(r)
		if err != nil {
			crumb := pattern.WithoutOptionality(part.PartName())
			return HTTPRequest{}, result.BreadCrumbError(result.BreadCrumbError(result.BreadCrumbError(err, crumb), MultipartCrumb), RequestCrumb)
		}
		req.MultiPartFormData = append(req.MultiPartFormData, v)
	}
	return req, nil
}

// requestParts holds one candidate for every varying part of a request.
type requestParts struct {
	path      *HTTPPathPattern
	headers   *HTTPHeadersPattern
	query     *HTTPQueryParamPattern
	body      pattern.Pattern
	multipart []MultiPartFormDataPattern
}

func (p *HTTPRequestPattern) with(parts requestParts) *HTTPRequestPattern {
	return &HTTPRequestPattern{
		Method:     p.Method,
		Path:       parts.path,
		Headers:    parts.headers,
		Query:      parts.query,
		Body:       parts.body,
		FormFields: p.FormFields,
		MultiPart:  parts.multipart,
	}
}

type requestOptions struct {
	path      []pattern.ReturnValue[*HTTPPathPattern]
	headers   []pattern.ReturnValue[*HTTPHeadersPattern]
	query     []pattern.ReturnValue[*HTTPQueryParamPattern]
	body      []pattern.ReturnValue[pattern.Pattern]
	multipart []pattern.ReturnValue[[]MultiPartFormDataPattern]
}

func (o requestOptions) size() int {
	return max(len(o.path), len(o.headers), len(o.query), len(o.body), len(o.multipart))
}

func pick[T any](rvs []pattern.ReturnValue[T], i int) pattern.ReturnValue[T] {
	if len(rvs) == 0 {
		var zero T
		return pattern.HasValue(zero)
	}
	return rvs[min(i, len(rvs)-1)]
}

// cover zips the per-part variants so that each variant of each part is
// used at least once.
func (o requestOptions) cover() []pattern.ReturnValue[requestParts] {
	n := o.size()
	out := make([]pattern.ReturnValue[requestParts], 0, n)
	for i := 0; i < n; i++ {
		path, headers, query, body, multipart := pick(o.path, i), pick(o.headers, i), pick(o.query, i), pick(o.body, i), pick(o.multipart, i)
		var failure *result.Failure
		for _, f := range []*result.Failure{path.AsFailure(), headers.AsFailure(), query.AsFailure(), body.AsFailure(), multipart.AsFailure()} {
			if f != nil {
				failure = f
				break
			}
		}
		if failure != nil {
			out = append(out, pattern.HasFailure[requestParts](failure))
			continue
		}
		out = append(out, pattern.HasValue(requestParts{
			path:      path.Value,
			headers:   headers.Value,
			query:     query.Value,
			body:      body.Value,
			multipart: multipart.Value,
		}))
	}
	return out
}

func (p *HTTPRequestPattern) options(row pattern.Row, r pattern.Resolver) (requestOptions, error) {
	var o requestOptions
	var err error
	if p.Path != nil {
		if o.path, err = p.Path.NewBasedOn(row, r); err != nil {
			return o, err
		}
	}
	if o.headers, err = p.Headers.NewBasedOn(row, r); err != nil {
		return o, err
	}
	if p.Query != nil {
		if o.query, err = p.Query.NewBasedOn(row, r); err != nil {
			return o, err
		}
	}
	if p.Body != nil {
		if row.ContainsField(RequestBodyColumn) {
			o.body = []pattern.ReturnValue[pattern.Pattern]{pattern.FromRowValue(p.Body, row.GetField(RequestBodyColumn), r).BreadCrumb(BodyCrumb)}
		} else {
			bodies, err := p.Body.NewBasedOn(row, r)
			if err != nil {
				return o, result.BreadCrumbError(err, BodyCrumb)
			}
			for _, b := range bodies {
				o.body = append(o.body, b.BreadCrumb(BodyCrumb))
			}
		}
	}
	if len(p.MultiPart) > 0 {
		if o.multipart, err = multipartVariants(p.MultiPart, row, r); err != nil {
			return o, err
		}
	}
	return o, nil
}

// NewBasedOn returns the positive request variants for one example row.
func (p *HTTPRequestPattern) NewBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[*HTTPRequestPattern], error) {
	o, err := p.options(row, r)
	if err != nil {
		return nil, result.BreadCrumbError(err, RequestCrumb)
	}
	if o.size() == 0 {
		return []pattern.ReturnValue[*HTTPRequestPattern]{pattern.HasValue(p)}, nil
	}
	combos := o.cover()
	out := make([]pattern.ReturnValue[*HTTPRequestPattern], 0, len(combos))
	for _, c := range combos {
		out = append(out, pattern.MapReturnValue(c, p.with).BreadCrumb(RequestCrumb))
	}
	return out, nil
}

// NewBasedOnAll returns every row-less variant, failing if any of them
// cannot be built.
func (p *HTTPRequestPattern) NewBasedOnAll(r pattern.Resolver) ([]*HTTPRequestPattern, error) {
	rvs, err := p.NewBasedOn(pattern.Row{}, r.WithGeneration(pattern.NonGenerativeTests))
	if err != nil {
		return nil, err
	}
	if err := pattern.FirstError(rvs); err != nil {
		return nil, err
	}
	return pattern.Values(rvs), nil
}

// NegativeBasedOn returns requests that break the contract in exactly one
// part, with every other part at its first positive variant.
func (p *HTTPRequestPattern) NegativeBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[*HTTPRequestPattern], error) {
	o, err := p.options(row, r.WithNegative(false))
	if err != nil {
		return nil, result.BreadCrumbError(err, RequestCrumb)
	}
	base := requestParts{multipart: p.MultiPart}
	for _, c := range o.cover() {
		if c.OK() {
			base = c.Value
			break
		}
	}
	if o.size() == 0 {
		base = requestParts{path: p.Path, headers: p.Headers, query: p.Query, body: p.Body, multipart: p.MultiPart}
	}

	var out []pattern.ReturnValue[*HTTPRequestPattern]
	add := func(rv pattern.ReturnValue[requestParts]) {
		out = append(out, pattern.MapReturnValue(rv, p.with).BreadCrumb(RequestCrumb))
	}

	if p.Path != nil {
		negs, err := p.Path.NegativeBasedOn(row, r)
		if err != nil {
			return nil, result.BreadCrumbError(err, RequestCrumb)
		}
		for _, n := range negs {
			add(pattern.MapReturnValue(n, func(path *HTTPPathPattern) requestParts { parts := base; parts.path = path; return parts }))
		}
	}
	if p.Query != nil {
		negs, err := p.Query.NegativeBasedOn(row, r)
		if err != nil {
			return nil, result.BreadCrumbError(err, RequestCrumb)
		}
		for _, n := range negs {
			add(pattern.MapReturnValue(n, func(q *HTTPQueryParamPattern) requestParts { parts := base; parts.query = q; return parts }))
		}
	}
	if !p.Headers.IsEmpty() {
		negs, err := p.Headers.NegativeBasedOn(row, r)
		if err != nil {
			return nil, result.BreadCrumbError(err, RequestCrumb)
		}
		for _, n := range negs {
			add(pattern.MapReturnValue(n, func(h *HTTPHeadersPattern) requestParts { parts := base; parts.headers = h; return parts }))
		}
	}
	if p.Body != nil {
		negs, err := p.Body.NegativeBasedOn(row, r)
		if err != nil {
			return nil, result.BreadCrumbError(result.BreadCrumbError(err, BodyCrumb), RequestCrumb)
		}
		for _, n := range negs {
			add(pattern.MapReturnValue(n.BreadCrumb(BodyCrumb), func(b pattern.Pattern) requestParts { parts := base; parts.body = b; return parts }))
		}
	}
	return out, nil
}

// Encompasses checks that every request other accepts is accepted here.
func (p *HTTPRequestPattern) Encompasses(other *HTTPRequestPattern, thisR, otherR pattern.Resolver) result.Result {
	if !strings.EqualFold(p.Method, other.Method) {
		return result.NewFailure(thisR.MismatchMessages().MismatchMessage(p.Method, other.Method)).
			WithReason(result.MethodMismatch).WithBreadCrumb(MethodCrumb).WithBreadCrumb(RequestCrumb)
	}
	var results []result.Result
	if p.Path != nil && other.Path != nil {
		if f, failed := p.Path.Encompasses(other.Path, thisR, otherR).(*result.Failure); failed {
			return f.WithBreadCrumb(RequestCrumb)
		}
	}
	results = append(results, p.Headers.Encompasses(other.Headers, thisR, otherR))
	results = append(results, p.Query.Encompasses(other.Query, thisR, otherR))
	if p.Body != nil && other.Body != nil {
		results = append(results, p.Body.Encompasses(other.Body, thisR, otherR, nil).BreadCrumb(BodyCrumb))
	}
	if len(p.MultiPart) > 0 {
		results = append(results, encompassMultipart(p.MultiPart, other.MultiPart, thisR, otherR))
	}
	return result.FromResults(results).BreadCrumb(RequestCrumb)
}
