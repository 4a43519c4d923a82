package contract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
)

// PathSegment is one segment of a path template. Literal segments have no
// Key.
type PathSegment struct {
	Literal string
	Key     string
	Pattern pattern.Pattern
}

// IsParam reports whether the segment is a path parameter.
func (s PathSegment) IsParam() bool { return s.Key != "" }

// HTTPPathPattern matches request paths against a template such as
// "/pets/(id:number)". A "{id}" segment is a string parameter.
type HTTPPathPattern struct {
	template string
	segments []PathSegment
}

// NewHTTPPathPattern parses a path template, resolving parameter types
// through r.
func NewHTTPPathPattern(template string, r pattern.Resolver) (*HTTPPathPattern, error) {
	p := &HTTPPathPattern{template: template}
	for _, part := range splitPath(template) {
		seg, err := parseSegment(part, r)
		if err != nil {
			return nil, result.BreadCrumbError(err, PathCrumb)
		}
		p.segments = append(p.segments, seg)
	}
	return p, nil
}

// MustHTTPPathPattern is NewHTTPPathPattern with the builtin types only.
func MustHTTPPathPattern(template string) *HTTPPathPattern {
	p, err := NewHTTPPathPattern(template, pattern.NewResolver(nil))
	if err != nil {
		panic(err)
	}
	return p
}

func parseSegment(part string, r pattern.Resolver) (PathSegment, error) {
	switch {
	case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
		return PathSegment{Key: strings.Trim(part, "{}"), Pattern: &pattern.StringPattern{}}, nil
	case pattern.IsPatternToken(part):
		name, typ, ok := strings.Cut(pattern.WithoutPatternDelimiters(part), ":")
		if !ok {
			return PathSegment{}, result.NewContractError("Path parameter %s needs a name and a type, like (id:number)", part)
		}
		p, err := r.GetPattern(pattern.WithPatternDelimiters(strings.TrimSpace(typ)))
		if err != nil {
			return PathSegment{}, err
		}
		return PathSegment{Key: strings.TrimSpace(name), Pattern: p}, nil
	}
	return PathSegment{Literal: part}, nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Template returns the template the pattern was parsed from.
func (p *HTTPPathPattern) Template() string { return p.template }

// Segments returns the parsed segments.
func (p *HTTPPathPattern) Segments() []PathSegment { return append([]PathSegment(nil), p.segments...) }

// Params returns the path parameters as entries.
func (p *HTTPPathPattern) Params() []pattern.Entry {
	var out []pattern.Entry
	for _, s := range p.segments {
		if s.IsParam() {
			out = append(out, pattern.Entry{Key: s.Key, Pattern: s.Pattern})
		}
	}
	return out
}

// Matches checks a request path. A path whose literal segments differ is a
// different URL; one whose only problem is a parameter value has the same
// structure, and the failure says so.
func (p *HTTPPathPattern) Matches(path string, r pattern.Resolver) result.Result {
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return result.NewFailure(fmt.Sprintf("Expected %s (having %d path segments), actual was %s (having %d path segments)",
			p.template, len(p.segments), path, len(parts))).
			WithReason(result.URLPathMismatch).
			WithBreadCrumb(PathCrumb)
	}

	var literalFailures, paramFailures []*result.Failure
	for i, seg := range p.segments {
		actual, err := url.PathUnescape(parts[i])
		if err != nil {
			actual = parts[i]
		}
		if !seg.IsParam() {
			if seg.Literal != actual {
				literalFailures = append(literalFailures, result.NewFailure(r.MismatchMessages().MismatchMessage(seg.Literal, actual)))
			}
			continue
		}
		v, err := seg.Pattern.Parse(actual, r)
		if err != nil {
			paramFailures = append(paramFailures, result.ToFailure(err).WithBreadCrumb(seg.Key))
			continue
		}
		if f, failed := r.MatchesPattern(seg.Key, seg.Pattern, v).(*result.Failure); failed {
			paramFailures = append(paramFailures, f.WithBreadCrumb(seg.Key))
		}
	}

	switch {
	case len(literalFailures) > 0:
		return result.FromFailures(literalFailures).WithReason(result.URLPathMismatch).WithBreadCrumb(PathCrumb)
	case len(paramFailures) > 0:
		return result.FromFailures(paramFailures).WithReason(result.URLPathParamMismatchButSameStructure).WithBreadCrumb(PathCrumb)
	}
	return result.NewSuccess()
}

// Extract returns the parameter values found in path. It does not check
// the values against their types.
func (p *HTTPPathPattern) Extract(path string) (map[string]string, bool) {
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return nil, false
	}
	out := make(map[string]string)
	for i, seg := range p.segments {
		if !seg.IsParam() {
			if seg.Literal != parts[i] {
				return nil, false
			}
			continue
		}
		v, err := url.PathUnescape(parts[i])
		if err != nil {
			v = parts[i]
		}
		out[seg.Key] = v
	}
	return out, true
}

// Generate produces a concrete path.
func (p *HTTPPathPattern) Generate(r pattern.Resolver) (string, error) {
	parts := make([]string, 0, len(p.segments))
	for _, seg := range p.segments {
		if !seg.IsParam() {
			parts = append(parts, seg.Literal)
			continue
		}
		v, err := r.GenerateFor(seg.Key, seg.Pattern)
		if err != nil {
			return "", result.BreadCrumbError(result.BreadCrumbError(err, seg.Key), PathCrumb)
		}
		parts = append(parts, url.PathEscape(v.StringLiteral()))
	}
	return "/" + strings.Join(parts, "/"), nil
}

func (p *HTTPPathPattern) withParams(params []pattern.Entry) *HTTPPathPattern {
	out := &HTTPPathPattern{template: p.template, segments: make([]PathSegment, len(p.segments))}
	copy(out.segments, p.segments)
	for i, seg := range out.segments {
		if e, ok := findEntry(params, seg.Key, false); ok && seg.IsParam() {
			out.segments[i].Pattern = e.Pattern
		}
	}
	return out
}

// NewBasedOn returns path variants for one example row.
func (p *HTTPPathPattern) NewBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[*HTTPPathPattern], error) {
	variants, err := entryVariants(p.Params(), row, r)
	if err != nil {
		return nil, result.BreadCrumbError(err, PathCrumb)
	}
	out := make([]pattern.ReturnValue[*HTTPPathPattern], 0, len(variants))
	for _, v := range variants {
		out = append(out, pattern.MapReturnValue(v, p.withParams).BreadCrumb(PathCrumb))
	}
	return out, nil
}

// NegativeBasedOn mutates one path parameter at a time. Parameters cannot
// be left out of a path, so nothing is dropped.
func (p *HTTPPathPattern) NegativeBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[*HTTPPathPattern], error) {
	params := p.Params()
	keys := entryKeys(params)
	positive := make(map[string]pattern.Pattern, len(params))
	negatives := make(map[string][]pattern.ReturnValue[pattern.Pattern], len(params))
	for _, e := range params {
		positive[e.Key] = e.Pattern
		negs, err := e.Pattern.NegativeBasedOn(row, r)
		if err != nil {
			return nil, result.BreadCrumbError(result.BreadCrumbError(err, e.Key), PathCrumb)
		}
		for _, n := range negs {
			if n.OK() && !notNull(e.Pattern, n.Value) {
				continue
			}
			negatives[e.Key] = append(negatives[e.Key], n)
		}
	}
	var out []pattern.ReturnValue[*HTTPPathPattern]
	for _, combo := range pattern.MutateOneAtATime(keys, positive, negatives) {
		out = append(out, pattern.MapReturnValue(combo, p.withParams).BreadCrumb(PathCrumb))
	}
	return out, nil
}

// Encompasses checks that every path other accepts is accepted here.
func (p *HTTPPathPattern) Encompasses(other *HTTPPathPattern, thisR, otherR pattern.Resolver) result.Result {
	if len(p.segments) != len(other.segments) {
		return result.NewFailure(thisR.MismatchMessages().MismatchMessage(p.template, other.template)).
			WithReason(result.URLPathMismatch).WithBreadCrumb(PathCrumb)
	}
	var results []result.Result
	for i, mine := range p.segments {
		theirs := other.segments[i]
		switch {
		case !mine.IsParam() && !theirs.IsParam():
			if mine.Literal != theirs.Literal {
				results = append(results, result.NewFailure(thisR.MismatchMessages().MismatchMessage(mine.Literal, theirs.Literal)).WithReason(result.URLPathMismatch))
			}
		case mine.IsParam() && theirs.IsParam():
			results = append(results, mine.Pattern.Encompasses(theirs.Pattern, thisR, otherR, nil).BreadCrumb(mine.Key))
		case mine.IsParam():
			v, err := mine.Pattern.Parse(theirs.Literal, thisR)
			if err != nil {
				results = append(results, result.ToFailure(err).WithBreadCrumb(mine.Key))
				continue
			}
			results = append(results, mine.Pattern.Matches(v, thisR).BreadCrumb(mine.Key))
		default:
			results = append(results, result.PatternMismatchResult(mine.Literal, theirs.Pattern.TypeName(), thisR.MismatchMessages()).WithBreadCrumb(theirs.Key))
		}
	}
	return result.FromResults(results).BreadCrumb(PathCrumb)
}
