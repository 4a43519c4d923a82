package contract

import (
	"net/url"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// HTTPQueryParamPattern matches query parameters. A parameter declared
// with a list pattern such as "(number...)" accepts repeated values.
type HTTPQueryParamPattern struct {
	entries []pattern.Entry
}

// NewHTTPQueryParamPattern returns a query pattern over entries. Keys may
// carry the optional marker.
func NewHTTPQueryParamPattern(entries ...pattern.Entry) *HTTPQueryParamPattern {
	return &HTTPQueryParamPattern{entries: append([]pattern.Entry(nil), entries...)}
}

// Entries returns the declared parameters.
func (p *HTTPQueryParamPattern) Entries() []pattern.Entry {
	if p == nil {
		return nil
	}
	return append([]pattern.Entry(nil), p.entries...)
}

// Names returns the parameter names without optional markers.
func (p *HTTPQueryParamPattern) Names() []string {
	var out []string
	for _, e := range p.Entries() {
		out = append(out, pattern.WithoutOptionality(e.Key))
	}
	return out
}

// Matches checks params against the declared parameters.
func (p *HTTPQueryParamPattern) Matches(params url.Values, r pattern.Resolver) result.Result {
	if p == nil {
		return result.NewSuccess()
	}
	actual := make([]string, 0, len(params))
	for k := range params {
		actual = append(actual, k)
	}
	failures := r.KeyErrors(entryKeys(p.entries), actual, "query param", false)

	for _, e := range p.entries {
		bare := pattern.WithoutOptionality(e.Key)
		values, ok := params[bare]
		if !ok {
			continue
		}
		if f := matchQueryValues(e.Pattern, bare, values, r); f != nil {
			failures = append(failures, f.WithBreadCrumb(bare))
		}
	}
	if len(failures) == 0 {
		return result.NewSuccess()
	}
	return result.FromFailures(failures).WithBreadCrumb(QueryCrumb)
}

func matchQueryValues(p pattern.Pattern, key string, values []string, r pattern.Resolver) *result.Failure {
	if list, ok := p.(*pattern.ListPattern); ok {
		items := make([]value.Value, 0, len(values))
		for _, v := range values {
			items = append(items, parseOrString(list.Elem(), v, r))
		}
		if f, failed := list.Matches(value.NewJSONArray(items...), r).(*result.Failure); failed {
			return f
		}
		return nil
	}
	var failures []*result.Failure
	for _, v := range values {
		if f, failed := r.MatchesPattern(key, p, parseOrString(p, v, r)).(*result.Failure); failed {
			failures = append(failures, f)
		}
	}
	switch len(failures) {
	case 0:
		return nil
	case 1:
		return failures[0]
	}
	return result.FromFailures(failures)
}

// Generate produces a value for every declared parameter.
func (p *HTTPQueryParamPattern) Generate(r pattern.Resolver) (url.Values, error) {
	out := url.Values{}
	for _, e := range p.Entries() {
		bare := pattern.WithoutOptionality(e.Key)
		v, err := r.GenerateFor(bare, e.Pattern)
		if err != nil {
			return nil, result.BreadCrumbError(result.BreadCrumbError(err, bare), QueryCrumb)
		}
		if arr, ok := v.(*value.JSONArrayValue); ok {
			for _, item := range arr.Items() {
				out.Add(bare, item.StringLiteral())
			}
			continue
		}
		out.Set(bare, v.StringLiteral())
	}
	return out, nil
}

func queryFrom(entries []pattern.Entry) *HTTPQueryParamPattern {
	return &HTTPQueryParamPattern{entries: entries}
}

// NewBasedOn returns query variants for one example row.
func (p *HTTPQueryParamPattern) NewBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[*HTTPQueryParamPattern], error) {
	variants, err := entryVariants(p.Entries(), row, r)
	if err != nil {
		return nil, result.BreadCrumbError(err, QueryCrumb)
	}
	out := make([]pattern.ReturnValue[*HTTPQueryParamPattern], 0, len(variants))
	for _, v := range variants {
		out = append(out, pattern.MapReturnValue(v, queryFrom).BreadCrumb(QueryCrumb))
	}
	return out, nil
}

// NegativeBasedOn mutates one parameter at a time and drops each mandatory
// parameter in turn.
func (p *HTTPQueryParamPattern) NegativeBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[*HTTPQueryParamPattern], error) {
	variants, err := entryNegatives(p.Entries(), row, r, "query param", notNull)
	if err != nil {
		return nil, result.BreadCrumbError(err, QueryCrumb)
	}
	out := make([]pattern.ReturnValue[*HTTPQueryParamPattern], 0, len(variants))
	for _, v := range variants {
		out = append(out, pattern.MapReturnValue(v, queryFrom).BreadCrumb(QueryCrumb))
	}
	return out, nil
}

// Encompasses checks that other's parameters fit within these.
func (p *HTTPQueryParamPattern) Encompasses(other *HTTPQueryParamPattern, thisR, otherR pattern.Resolver) result.Result {
	return encompassEntries(p.Entries(), other.Entries(), "query param", false, thisR, otherR).BreadCrumb(QueryCrumb)
}
