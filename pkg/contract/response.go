package contract

import (
	"fmt"
	"strconv"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// HTTPResponsePattern is the response half of a scenario.
type HTTPResponsePattern struct {
	Status  int
	Headers *HTTPHeadersPattern
	Body    pattern.Pattern
}

// ResponsePatternFrom returns a pattern that matches exactly resp.
func ResponsePatternFrom(resp HTTPResponse) *HTTPResponsePattern {
	entries := make([]pattern.Entry, 0, len(resp.Headers))
	for _, name := range sortedKeys(resp.Headers) {
		entries = append(entries, pattern.Entry{Key: name, Pattern: pattern.NewExactValuePattern(value.StringValue(resp.Headers[name]))})
	}
	p := &HTTPResponsePattern{Status: resp.Status, Headers: &HTTPHeadersPattern{entries: entries}}
	if resp.Body != nil {
		p.Body = pattern.NewExactValuePattern(resp.Body)
	}
	return p
}

func (p *HTTPResponsePattern) matchStatus(status int, r pattern.Resolver) *result.Failure {
	if p.Status == 0 || p.Status == status {
		return nil
	}
	return result.NewFailure(r.MismatchMessages().MismatchMessage(strconv.Itoa(p.Status), strconv.Itoa(status))).
		WithReason(result.StatusMismatch).
		WithBreadCrumb(StatusCrumb).
		WithBreadCrumb(ResponseCrumb)
}

// Matches checks a response. A wrong status is the only failure reported.
func (p *HTTPResponsePattern) Matches(resp HTTPResponse, r pattern.Resolver) result.Result {
	if f := p.matchStatus(resp.Status, r); f != nil {
		return f
	}
	results := []result.Result{
		p.Headers.Matches(resp.Headers, r),
		p.matchBody(resp.BodyOrEmpty(), r),
	}
	return result.FromResults(results).BreadCrumb(ResponseCrumb)
}

// MatchesMock checks a stubbed response; the body may use pattern tokens
// where the resolver is in mock mode.
func (p *HTTPResponsePattern) MatchesMock(resp HTTPResponse, r pattern.Resolver) result.Result {
	return p.Matches(resp, r)
}

func (p *HTTPResponsePattern) matchBody(body value.Value, r pattern.Resolver) result.Result {
	if p.Body == nil {
		return result.NewSuccess()
	}
	if s, ok := body.(value.StringValue); ok && s != "" {
		if _, stringBody := p.Body.(*pattern.StringPattern); !stringBody {
			body = parseOrString(p.Body, string(s), r)
		}
	}
	return r.MatchesPattern("", p.Body, body).BreadCrumb(BodyCrumb)
}

// Generate produces a concrete response.
func (p *HTTPResponsePattern) Generate(r pattern.Resolver) (HTTPResponse, error) {
	resp := HTTPResponse{Status: p.Status}
	if resp.Status == 0 {
		resp.Status = 200
	}
	var err error
	if resp.Headers, err = p.Headers.Generate(r); err != nil {
		return HTTPResponse{}, result.BreadCrumbError(err, ResponseCrumb)
	}
	if p.Body != nil {
		if resp.Body, err = p.Body.Generate(r); err != nil {
			return HTTPResponse{}, result.BreadCrumbError(result.BreadCrumbError(err, BodyCrumb), ResponseCrumb)
		}
		if _, set := resp.Header(ContentTypeHeader); !set {
			if ct := contentTypeOf(resp.Body); ct != "" {
				resp.Headers[ContentTypeHeader] = ct
			}
		}
	}
	return resp, nil
}

func contentTypeOf(v value.Value) string {
	switch v.(type) {
	case *value.JSONObjectValue, *value.JSONArrayValue:
		return "application/json"
	case *value.XMLNode:
		return "application/xml"
	case *value.BinaryValue:
		return "application/octet-stream"
	case value.StringValue:
		return "text/plain"
	}
	return ""
}

// Encompasses checks that every response other can produce is one that
// clients of this pattern accept.
func (p *HTTPResponsePattern) Encompasses(other *HTTPResponsePattern, thisR, otherR pattern.Resolver) result.Result {
	if p.Status != other.Status {
		return result.NewFailure(thisR.MismatchMessages().MismatchMessage(fmt.Sprint(p.Status), fmt.Sprint(other.Status))).
			WithReason(result.StatusMismatch).WithBreadCrumb(StatusCrumb).WithBreadCrumb(ResponseCrumb)
	}
	results := []result.Result{p.Headers.Encompasses(other.Headers, thisR, otherR)}
	if p.Body != nil {
		otherBody := other.Body
		if otherBody == nil {
			otherBody = pattern.NewExactValuePattern(value.StringValue(""))
		}
		results = append(results, p.Body.Encompasses(otherBody, thisR, otherR, nil).BreadCrumb(BodyCrumb))
	}
	return result.FromResults(results).BreadCrumb(ResponseCrumb)
}
