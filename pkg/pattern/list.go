package pattern

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// ListPattern matches arrays whose every element matches one pattern.
type ListPattern struct {
	elem  Pattern
	alias string
}

// NewListPattern returns a list of elem.
func NewListPattern(elem Pattern) *ListPattern { return &ListPattern{elem: elem} }

// Elem returns the element pattern.
func (p *ListPattern) Elem() Pattern { return p.elem }

func (p *ListPattern) String() string {
	return "(" + WithoutPatternDelimiters(p.elem.String()) + "...)"
}
func (p *ListPattern) TypeName() string  { return "list of " + WithoutPatternDelimiters(p.elem.TypeName()) }
func (p *ListPattern) TypeAlias() string { return p.alias }
func (*ListPattern) sealed()             {}

func (p *ListPattern) PatternSet(Resolver) []Pattern { return []Pattern{p} }

func (p *ListPattern) Matches(v value.Value, r Resolver) result.Result {
	arr, ok := v.(*value.JSONArrayValue)
	if !ok {
		return result.MismatchResult("json array", v, r.MismatchMessages())
	}
	var failures []*result.Failure
	for i, item := range arr.Items() {
		if f, failed := r.MatchesPattern("", p.elem, item).(*result.Failure); failed {
			failures = append(failures, f.WithBreadCrumb(fmt.Sprintf("[%d]", i)))
		}
	}
	if len(failures) == 0 {
		return result.NewSuccess()
	}
	return result.FromFailures(failures)
}

// Generate produces one to three elements. A recursive element type ends
// the recursion with an empty list.
func (p *ListPattern) Generate(r Resolver) (value.Value, error) {
	items, ok, err := withCyclePrevention(r, p.elem, true, func(next Resolver) ([]value.Value, error) {
		n := 1 + rand.IntN(3)
		items := make([]value.Value, 0, n)
		for i := 0; i < n; i++ {
			v, err := p.elem.Generate(next)
			if err != nil {
				return nil, result.BreadCrumbError(err, fmt.Sprintf("[%d]", i))
			}
			items = append(items, v)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return value.NewJSONArray(), nil
	}
	return value.NewJSONArray(items...), nil
}

func (p *ListPattern) NewBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	variants, ok, err := withCyclePrevention(r, p.elem, true, func(next Resolver) ([]ReturnValue[Pattern], error) {
		return p.elem.NewBasedOn(row, next)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return []ReturnValue[Pattern]{HasValue[Pattern](NewExactValuePattern(value.NewJSONArray()))}, nil
	}
	out := make([]ReturnValue[Pattern], 0, len(variants))
	for _, rv := range variants {
		out = append(out, MapReturnValue(rv, func(elem Pattern) Pattern {
			return &ListPattern{elem: elem, alias: p.alias}
		}).BreadCrumb("[]"))
	}
	return out, nil
}

func (p *ListPattern) NewBasedOnAll(r Resolver) ([]Pattern, error) { return allVariants(p, r) }

func (p *ListPattern) NegativeBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	out := scalarAnnotation(p, &NullPattern{}, &NumberPattern{}, &StringPattern{}, &BooleanPattern{})
	negs, ok, err := withCyclePrevention(r, p.elem, true, func(next Resolver) ([]ReturnValue[Pattern], error) {
		return p.elem.NegativeBasedOn(row, next)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return out, nil
	}
	for _, rv := range negs {
		out = append(out, MapReturnValue(rv, func(elem Pattern) Pattern {
			return &ListPattern{elem: elem}
		}).BreadCrumb("[]"))
	}
	return out, nil
}

func (p *ListPattern) Parse(text string, _ Resolver) (value.Value, error) {
	return parseArray(text)
}

func (p *ListPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	resolved, err := resolvedHop(other, otherR)
	if err != nil {
		return result.ToFailure(err)
	}
	switch o := resolved.(type) {
	case *ListPattern:
		return p.elem.Encompasses(o.elem, thisR, otherR, stack).BreadCrumb("[]")
	case *JSONArrayPattern:
		var results []result.Result
		for i, item := range o.all() {
			results = append(results, p.elem.Encompasses(item, thisR, otherR, stack).BreadCrumb(fmt.Sprintf("[%d]", i)))
		}
		return result.FromResults(results)
	case *ExactValuePattern, *AnyPattern:
		return FitsWithin(resolved, []Pattern{p}, otherR, thisR, stack)
	}
	return result.PatternMismatchResult(p.TypeName(), resolved.TypeName(), thisR.MismatchMessages())
}

// JSONArrayPattern matches arrays position by position. An optional rest
// pattern matches any elements past the fixed ones.
type JSONArrayPattern struct {
	items []Pattern
	rest  Pattern
}

// NewJSONArrayPattern returns a positional array pattern; rest may be nil.
func NewJSONArrayPattern(items []Pattern, rest Pattern) *JSONArrayPattern {
	return &JSONArrayPattern{items: append([]Pattern(nil), items...), rest: rest}
}

func (p *JSONArrayPattern) all() []Pattern {
	if p.rest == nil {
		return p.items
	}
	return append(append([]Pattern(nil), p.items...), p.rest)
}

func (p *JSONArrayPattern) String() string {
	parts := make([]string, 0, len(p.items)+1)
	for _, item := range p.items {
		parts = append(parts, item.String())
	}
	if p.rest != nil {
		parts = append(parts, "("+WithoutPatternDelimiters(p.rest.String())+"...)")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (p *JSONArrayPattern) TypeName() string  { return "json array" }
func (p *JSONArrayPattern) TypeAlias() string { return "" }
func (*JSONArrayPattern) sealed()             {}

func (p *JSONArrayPattern) PatternSet(Resolver) []Pattern { return []Pattern{p} }

func (p *JSONArrayPattern) Matches(v value.Value, r Resolver) result.Result {
	arr, ok := v.(*value.JSONArrayValue)
	if !ok {
		return result.MismatchResult("json array", v, r.MismatchMessages())
	}
	items := arr.Items()
	if len(items) < len(p.items) || (p.rest == nil && len(items) > len(p.items)) {
		return result.NewFailure(fmt.Sprintf("Expected an array of length %d, actual length %d", len(p.items), len(items)))
	}
	var failures []*result.Failure
	for i, item := range items {
		pat := p.rest
		if i < len(p.items) {
			pat = p.items[i]
		}
		if f, failed := r.MatchesPattern("", pat, item).(*result.Failure); failed {
			failures = append(failures, f.WithBreadCrumb(fmt.Sprintf("[%d]", i)))
		}
	}
	if len(failures) == 0 {
		return result.NewSuccess()
	}
	return result.FromFailures(failures)
}

func (p *JSONArrayPattern) Generate(r Resolver) (value.Value, error) {
	out := make([]value.Value, 0, len(p.items)+1)
	for i, pat := range p.all() {
		v, err := pat.Generate(r)
		if err != nil {
			return nil, result.BreadCrumbError(err, fmt.Sprintf("[%d]", i))
		}
		out = append(out, v)
	}
	return value.NewJSONArray(out...), nil
}

func (p *JSONArrayPattern) positions() []string {
	keys := make([]string, len(p.items))
	for i := range p.items {
		keys[i] = fmt.Sprintf("[%d]", i)
	}
	return keys
}

func (p *JSONArrayPattern) fromEntries(entries []Entry) Pattern {
	items := make([]Pattern, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.Pattern)
	}
	return &JSONArrayPattern{items: items, rest: p.rest}
}

func (p *JSONArrayPattern) NewBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	keys := p.positions()
	options := make(map[string][]ReturnValue[Pattern], len(keys))
	for i, k := range keys {
		opts, err := p.items[i].NewBasedOn(row, r)
		if err != nil {
			return nil, result.BreadCrumbError(err, k)
		}
		options[k] = opts
	}
	if len(keys) == 0 {
		return []ReturnValue[Pattern]{HasValue[Pattern](p)}, nil
	}
	var out []ReturnValue[Pattern]
	for _, combo := range Cover(keys, options) {
		out = append(out, MapReturnValue(combo, p.fromEntries))
	}
	return out, nil
}

func (p *JSONArrayPattern) NewBasedOnAll(r Resolver) ([]Pattern, error) { return allVariants(p, r) }

func (p *JSONArrayPattern) NegativeBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	keys := p.positions()
	positive := make(map[string]Pattern, len(keys))
	negatives := make(map[string][]ReturnValue[Pattern], len(keys))
	for i, k := range keys {
		positive[k] = p.items[i]
		negs, err := p.items[i].NegativeBasedOn(row, r)
		if err != nil {
			return nil, result.BreadCrumbError(err, k)
		}
		negatives[k] = negs
	}
	out := scalarAnnotation(p, &NullPattern{})
	for _, combo := range MutateOneAtATime(keys, positive, negatives) {
		out = append(out, MapReturnValue(combo, p.fromEntries))
	}
	return out, nil
}

func (p *JSONArrayPattern) Parse(text string, _ Resolver) (value.Value, error) {
	return parseArray(text)
}

func (p *JSONArrayPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	resolved, err := resolvedHop(other, otherR)
	if err != nil {
		return result.ToFailure(err)
	}
	switch o := resolved.(type) {
	case *JSONArrayPattern:
		if len(o.items) != len(p.items) || (o.rest == nil) != (p.rest == nil) {
			return result.NewFailure(fmt.Sprintf("Expected an array of length %d, got one of length %d", len(p.items), len(o.items)))
		}
		var results []result.Result
		for i, item := range p.all() {
			results = append(results, item.Encompasses(o.all()[i], thisR, otherR, stack).BreadCrumb(fmt.Sprintf("[%d]", i)))
		}
		return result.FromResults(results)
	case *ExactValuePattern, *AnyPattern:
		return FitsWithin(resolved, []Pattern{p}, otherR, thisR, stack)
	}
	return result.PatternMismatchResult(p.TypeName(), resolved.TypeName(), thisR.MismatchMessages())
}

func parseArray(text string) (value.Value, error) {
	v, err := value.ParseJSON(text)
	if err != nil {
		return nil, result.NewContractError("%s", err.Error())
	}
	if _, ok := v.(*value.JSONArrayValue); !ok {
		return nil, result.NewContractError("Expected a json array, got %s", v.TypeName())
	}
	return v, nil
}
