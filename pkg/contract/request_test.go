package contract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonBody(t *testing.T, text string) value.Value {
	t.Helper()
	v, err := value.ParseJSON(text)
	require.NoError(t, err)
	return v
}

func TestHTTPPathPattern_Matches(t *testing.T) {
	p := MustHTTPPathPattern("/pets/(id:number)")
	r := pattern.NewResolver(nil)

	tests := []struct {
		path   string
		ok     bool
		reason result.FailureReason
	}{
		{"/pets/10", true, result.NoReason},
		{"/pets/abc", false, result.URLPathParamMismatchButSameStructure},
		{"/pets/10/toys", false, result.URLPathMismatch},
		{"/owners/10", false, result.URLPathMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := p.Matches(tt.path, r)
			if tt.ok {
				assert.True(t, res.IsSuccess(), res.Report())
				return
			}
			f := asFailure(t, res)
			assert.True(t, f.HasReason(tt.reason))
			for _, path := range f.Paths() {
				assert.True(t, strings.HasPrefix(path, PathCrumb), path)
			}
		})
	}
}

func TestHTTPPathPattern_ExtractAndGenerate(t *testing.T) {
	p := MustHTTPPathPattern("/owners/{owner}/pets/(id:number)")
	r := pattern.NewResolver(nil)

	params, ok := p.Extract("/owners/ann/pets/3")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"owner": "ann", "id": "3"}, params)

	generated, err := p.Generate(r)
	require.NoError(t, err)
	assert.True(t, p.Matches(generated, r).IsSuccess(), generated)
}

func TestNewHTTPPathPattern_NeedsTypedParams(t *testing.T) {
	_, err := NewHTTPPathPattern("/pets/(id)", pattern.NewResolver(nil))
	assert.Error(t, err)
}

func TestHTTPQueryParamPattern_Lists(t *testing.T) {
	p := NewHTTPQueryParamPattern(
		pattern.Entry{Key: "ids", Pattern: pattern.NewListPattern(&pattern.NumberPattern{})},
		pattern.Entry{Key: "limit?", Pattern: &pattern.NumberPattern{}},
	)
	r := pattern.NewResolver(nil)

	assert.True(t, p.Matches(url.Values{"ids": {"1", "2"}}, r).IsSuccess())
	assert.False(t, p.Matches(url.Values{"ids": {"1", "x"}}, r).IsSuccess())
	assert.False(t, p.Matches(url.Values{"ids": {"1"}, "limit": {"many"}}, r).IsSuccess())

	f := asFailure(t, p.Matches(url.Values{}, r))
	assert.Equal(t, []string{"QUERY-PARAMS.ids"}, f.Paths())

	generated, err := p.Generate(r)
	require.NoError(t, err)
	assert.True(t, p.Matches(generated, r).IsSuccess())
}

func petRequest(t *testing.T) *HTTPRequestPattern {
	t.Helper()
	return &HTTPRequestPattern{
		Method:  "POST",
		Path:    MustHTTPPathPattern("/pets"),
		Headers: MustHTTPHeadersPattern([]pattern.Entry{{Key: "X-Tenant", Pattern: &pattern.NumberPattern{}}}, ""),
		Body:    pattern.MustParsePattern(`{"name": "(string)", "tag?": "(string)"}`),
	}
}

func TestHTTPRequestPattern_Matches(t *testing.T) {
	p := petRequest(t)
	r := pattern.NewResolver(nil)

	good := HTTPRequest{Method: "POST", Path: "/pets", Headers: map[string]string{"X-Tenant": "1"}, Body: jsonBody(t, `{"name": "rex"}`)}
	assert.True(t, p.Matches(good, r).IsSuccess())

	t.Run("string body is parsed", func(t *testing.T) {
		req := good
		req.Body = value.StringValue(`{"name": "rex"}`)
		assert.True(t, p.Matches(req, r).IsSuccess())
	})

	t.Run("wrong path stops the check", func(t *testing.T) {
		req := good
		req.Path = "/owners"
		req.Headers = nil
		f := asFailure(t, p.Matches(req, r))
		assert.True(t, f.IsFluffy())
		for _, path := range f.Paths() {
			assert.True(t, strings.HasPrefix(path, "REQUEST.PATH"), path)
		}
	})

	t.Run("wrong method stops the check", func(t *testing.T) {
		req := good
		req.Method = "GET"
		req.Body = nil
		f := asFailure(t, p.Matches(req, r))
		assert.Equal(t, []string{"REQUEST.METHOD"}, f.Paths())
		assert.True(t, f.HasReason(result.MethodMismatch))
	})

	t.Run("everything else is reported together", func(t *testing.T) {
		req := good
		req.Headers = map[string]string{"X-Tenant": "abc"}
		req.Body = jsonBody(t, `{"name": 10}`)
		f := asFailure(t, p.Matches(req, r))
		assert.ElementsMatch(t, []string{"REQUEST.HEADERS.X-Tenant", "REQUEST.BODY.name"}, f.Paths())
		assert.False(t, f.IsFluffy())
	})
}

func TestHTTPRequestPattern_GenerateRoundTrip(t *testing.T) {
	p := petRequest(t)
	r := pattern.NewResolver(nil)

	req, err := p.Generate(r)
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "/pets", req.Path)
	assert.True(t, p.Matches(req, r).IsSuccess())
}

func TestHTTPRequestPattern_NewBasedOn(t *testing.T) {
	p := petRequest(t)
	r := pattern.NewResolver(nil)

	variants, err := p.NewBasedOn(pattern.Row{}, r)
	require.NoError(t, err)
	require.NotEmpty(t, variants)
	for _, v := range variants {
		require.True(t, v.OK())
		req, err := v.Value.Generate(r)
		require.NoError(t, err)
		assert.True(t, p.Matches(req, r).IsSuccess())
	}
}

func TestHTTPRequestPattern_NegativeBasedOn(t *testing.T) {
	p := petRequest(t)
	r := pattern.NewResolver(nil)

	negatives, err := p.NegativeBasedOn(pattern.Row{}, r.WithNegative(true))
	require.NoError(t, err)
	require.NotEmpty(t, negatives)
	rejected := 0
	for _, n := range negatives {
		if !n.OK() {
			continue
		}
		req, err := n.Value.Generate(r)
		require.NoError(t, err)
		if !p.Matches(req, r).IsSuccess() {
			rejected++
		}
	}
	assert.Positive(t, rejected)
}

func TestHTTPRequestPattern_Encompasses(t *testing.T) {
	r := pattern.NewResolver(nil)
	older := petRequest(t)
	newer := petRequest(t)
	assert.True(t, newer.Encompasses(older, r, r).IsSuccess())

	other := petRequest(t)
	other.Method = "PUT"
	f := asFailure(t, other.Encompasses(older, r, r))
	assert.True(t, f.HasReason(result.MethodMismatch))
}

func TestHTTPResponsePattern(t *testing.T) {
	p := &HTTPResponsePattern{Status: 200, Body: pattern.MustParsePattern(`{"id": "(number)"}`)}
	r := pattern.NewResolver(nil)

	resp, err := p.Generate(r)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "application/json", resp.Headers[ContentTypeHeader])
	assert.True(t, p.Matches(resp, r).IsSuccess())

	f := asFailure(t, p.Matches(HTTPResponse{Status: 404}, r))
	assert.Equal(t, []string{"RESPONSE.STATUS"}, f.Paths())
	assert.True(t, f.HasReason(result.StatusMismatch))

	exact := ResponsePatternFrom(HTTPResponse{Status: 201, Headers: map[string]string{"Location": "/pets/1"}})
	assert.True(t, exact.Matches(HTTPResponse{Status: 201, Headers: map[string]string{"Location": "/pets/1"}}, r).IsSuccess())
	assert.False(t, exact.Matches(HTTPResponse{Status: 201, Headers: map[string]string{"Location": "/pets/2"}}, r).IsSuccess())
}
