package pattern

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// Discriminator names the property that tells the object members of a
// union apart.
type Discriminator struct {
	Property string
	Values   []string
}

// AnyPattern is a union: a value matches when any member matches. A union
// with null as one of two members is the nullable form of the other.
type AnyPattern struct {
	members       []Pattern
	alias         string
	example       *string
	discriminator *Discriminator
}

// NewAnyPattern returns the union of members.
func NewAnyPattern(members ...Pattern) *AnyPattern {
	return &AnyPattern{members: append([]Pattern(nil), members...)}
}

// NewNullable returns the nullable form of p.
func NewNullable(p Pattern) *AnyPattern {
	return NewAnyPattern(&NullPattern{}, p)
}

// WithDiscriminator returns a copy that tells its object members apart by
// property.
func (p *AnyPattern) WithDiscriminator(property string, values ...string) *AnyPattern {
	c := *p
	c.discriminator = &Discriminator{Property: property, Values: append([]string(nil), values...)}
	return &c
}

// WithAlias returns a copy named alias.
func (p *AnyPattern) WithAlias(alias string) *AnyPattern {
	c := *p
	c.alias = alias
	return &c
}

// WithExample returns a copy carrying an inline example.
func (p *AnyPattern) WithExample(example string) *AnyPattern {
	c := *p
	c.example = &example
	return &c
}

// Members returns the union members.
func (p *AnyPattern) Members() []Pattern { return append([]Pattern(nil), p.members...) }

// Discriminator returns the discriminator, or nil.
func (p *AnyPattern) Discriminator() *Discriminator { return p.discriminator }

func (p *AnyPattern) TypeAlias() string { return p.alias }
func (*AnyPattern) sealed()             {}

func (p *AnyPattern) String() string {
	if p.alias != "" {
		return p.alias
	}
	return p.TypeName()
}

func (p *AnyPattern) TypeName() string {
	if nonNull, ok := p.nullableOf(); ok {
		return "(" + WithoutPatternDelimiters(nonNull.TypeName()) + "?)"
	}
	names := make([]string, 0, len(p.members))
	for _, m := range p.members {
		names = append(names, WithoutPatternDelimiters(m.TypeName()))
	}
	return "(" + strings.Join(names, " or ") + ")"
}

func (p *AnyPattern) isNullable() bool {
	return slices.ContainsFunc(p.members, func(m Pattern) bool {
		_, ok := m.(*NullPattern)
		return ok
	})
}

// nullableOf returns T when the union is exactly {null, T}.
func (p *AnyPattern) nullableOf() (Pattern, bool) {
	if len(p.members) != 2 {
		return nil, false
	}
	for i, m := range p.members {
		if _, ok := m.(*NullPattern); ok {
			other := p.members[1-i]
			if _, otherNull := other.(*NullPattern); !otherNull {
				return other, true
			}
		}
	}
	return nil, false
}

func (p *AnyPattern) nonNullMembers() []Pattern {
	var out []Pattern
	for _, m := range p.members {
		if _, ok := m.(*NullPattern); !ok {
			out = append(out, m)
		}
	}
	return out
}

func (p *AnyPattern) nullLast() []Pattern {
	out := p.nonNullMembers()
	for _, m := range p.members {
		if _, ok := m.(*NullPattern); ok {
			out = append(out, m)
		}
	}
	return out
}

func (p *AnyPattern) PatternSet(r Resolver) []Pattern {
	var out []Pattern
	for _, m := range p.members {
		out = append(out, m.PatternSet(r)...)
	}
	return out
}

func (p *AnyPattern) Matches(v value.Value, r Resolver) result.Result {
	if p.discriminator != nil {
		return p.matchWithDiscriminator(v, r)
	}
	failures := make([]*result.Failure, 0, len(p.members))
	for _, m := range p.members {
		res := r.MatchesPattern("", m, v)
		f, failed := res.(*result.Failure)
		if !failed {
			return result.NewSuccess()
		}
		failures = append(failures, f.WithBreadCrumb(typeInfoCrumb(m)))
	}
	return p.failedToFindAny(v, failures, r)
}

// matchWithDiscriminator routes v to the first member that accepts its
// discriminator value and fully matches it against that member alone.
// Later members are not tried.
func (p *AnyPattern) matchWithDiscriminator(v value.Value, r Resolver) result.Result {
	obj, ok := v.(*value.JSONObjectValue)
	if !ok {
		return result.MismatchResult("json object", v, r.MismatchMessages())
	}
	prop := p.discriminator.Property
	clause := p.discriminatorClause()

	actual, present := obj.Get(prop)
	if !present {
		return discriminatorFailure(prop,
			"Discriminator property %s is missing from the object (it's value should be %s)", prop, clause)
	}
	literal := actual.StringLiteral()
	if len(p.discriminator.Values) > 0 && !slices.Contains(p.discriminator.Values, literal) {
		return discriminatorFailure(prop,
			"Expected the value of discriminator property to be %s but it was %s", clause, literal)
	}

	probe := value.NewJSONObject(value.Field{Key: prop, Value: actual})
	for _, m := range p.members {
		if !p.routesTo(m, probe, actual, r) {
			continue
		}
		res := r.MatchesPattern("", m, v)
		f, failed := res.(*result.Failure)
		if !failed {
			return result.NewSuccess()
		}
		return result.FromFailures([]*result.Failure{f.WithBreadCrumb(typeInfoCrumb(m))}).
			RemoveReasonsFromCauses().
			WithReason(result.FailedButDiscriminatorMatched)
	}
	return discriminatorFailure(prop, "Discriminator property %s is missing from the spec", prop)
}

// routesTo reports whether m claims the discriminator value: the
// single-key probe matches, fails only past the discriminator, or m is an
// object whose discriminator property accepts actual.
func (p *AnyPattern) routesTo(m Pattern, probe, actual value.Value, r Resolver) bool {
	res := r.MatchesPattern("", m, probe)
	if f, failed := res.(*result.Failure); !failed || f.HasReason(result.FailedButDiscriminatorMatched) {
		return true
	}
	resolved, err := resolvedHop(m, r)
	if err != nil {
		return false
	}
	obj, ok := resolved.(*JSONObjectPattern)
	if !ok {
		return false
	}
	disc := obj.valueFor(p.discriminator.Property)
	return disc != nil && disc.Matches(actual, r).IsSuccess()
}

func (p *AnyPattern) discriminatorClause() string {
	if len(p.discriminator.Values) == 1 {
		return p.discriminator.Values[0]
	}
	return "one of " + strings.Join(p.discriminator.Values, ", ")
}

func discriminatorFailure(prop, format string, args ...any) *result.Failure {
	return result.NewFailure(fmt.Sprintf(format, args...)).
		WithBreadCrumb(prop).
		WithReason(result.DiscriminatorMismatch)
}

func (p *AnyPattern) failedToFindAny(v value.Value, failures []*result.Failure, r Resolver) result.Result {
	if nonNull, ok := p.nullableOf(); ok && isScalarLike(nonNull) {
		return result.MismatchResult(p.TypeName(), v, r.MismatchMessages())
	}
	if p.allExact() {
		return result.MismatchResult(p.TypeName(), v, r.MismatchMessages())
	}

	var objectFailures []*result.Failure
	for _, f := range failures {
		if f.ObjectMatchOccurred() {
			objectFailures = append(objectFailures, f)
		}
	}
	if len(objectFailures) > 0 {
		failures = objectFailures
	}
	if len(failures) == 1 {
		return failures[0].RemoveReasonsFromCauses()
	}
	return result.FromFailures(failures).RemoveReasonsFromCauses()
}

func (p *AnyPattern) allExact() bool {
	if len(p.members) == 0 {
		return false
	}
	for _, m := range p.members {
		if _, ok := m.(*ExactValuePattern); !ok {
			return false
		}
	}
	return true
}

func isScalarLike(p Pattern) bool {
	if _, ok := p.(*ExactValuePattern); ok {
		return true
	}
	return isScalar(p)
}

func (p *AnyPattern) Generate(r Resolver) (value.Value, error) {
	if v, err := r.ResolveExample(p.example, p.members...); err != nil || v != nil {
		return v, err
	}
	candidates := p.nonNullMembers()
	if len(candidates) == 0 {
		return value.Null, nil
	}
	chosen := candidates[rand.IntN(len(candidates))]
	if p.discriminator != nil && len(p.discriminator.Values) > 0 {
		want := p.discriminator.Values[rand.IntN(len(p.discriminator.Values))]
		if m, ok := p.memberForDiscriminator(want, r); ok {
			chosen = m
		}
	}
	nullable := p.isNullable()
	v, ok, err := withCyclePrevention(r, chosen, nullable, func(next Resolver) (value.Value, error) {
		return chosen.Generate(next)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return value.Null, nil
	}
	return v, nil
}

// memberForDiscriminator finds the object member whose discriminator key
// holds want.
func (p *AnyPattern) memberForDiscriminator(want string, r Resolver) (Pattern, bool) {
	for _, m := range p.members {
		resolved, err := resolvedHop(m, r)
		if err != nil {
			continue
		}
		obj, ok := resolved.(*JSONObjectPattern)
		if !ok {
			continue
		}
		exact, ok := obj.valueFor(p.discriminator.Property).(*ExactValuePattern)
		if ok && exact.value.StringLiteral() == want {
			return m, true
		}
	}
	return nil, false
}

func (p *AnyPattern) NewBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	v, err := r.ResolveExample(p.example, p.members...)
	if err != nil {
		return nil, err
	}
	if v != nil {
		return []ReturnValue[Pattern]{HasValue[Pattern](NewExactValuePattern(v))}, nil
	}

	nullable := p.isNullable()
	var out []ReturnValue[Pattern]
	var errs []error
	for _, m := range p.nullLast() {
		variants, ok, err := withCyclePrevention(r, m, nullable, func(next Resolver) ([]ReturnValue[Pattern], error) {
			return m.NewBasedOn(row, next)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			out = append(out, variants...)
		}
	}
	if len(out) == 0 && len(p.members) > 0 {
		return nil, p.exhausted(errs)
	}
	return out, nil
}

func (p *AnyPattern) NewBasedOnAll(r Resolver) ([]Pattern, error) {
	nullable := p.isNullable()
	var out []Pattern
	var errs []error
	for _, m := range p.nullLast() {
		variants, ok, err := withCyclePrevention(r, m, nullable, func(next Resolver) ([]Pattern, error) {
			return m.NewBasedOnAll(next)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			out = append(out, variants...)
		}
	}
	if len(out) == 0 && len(p.members) > 0 {
		return nil, p.exhausted(errs)
	}
	return out, nil
}

// NegativeBasedOn gathers members' mutations, dropping any that another
// member would accept (null, for a nullable union) and collapsing scalar
// mutations that would generate indistinguishable values.
func (p *AnyPattern) NegativeBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	nullable := p.isNullable()
	var collected []ReturnValue[Pattern]
	var errs []error
	for _, m := range p.members {
		negs, ok, err := withCyclePrevention(r, m, true, func(next Resolver) ([]ReturnValue[Pattern], error) {
			return m.NegativeBasedOn(row, next)
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			collected = append(collected, negs...)
		}
	}
	if len(collected) == 0 && len(errs) > 0 {
		return nil, p.exhausted(errs)
	}

	seen := make(map[string]bool)
	out := make([]ReturnValue[Pattern], 0, len(collected))
	for _, rv := range collected {
		if rv.OK() {
			if _, isNull := rv.Value.(*NullPattern); isNull && nullable {
				continue
			}
			if isScalarLike(rv.Value) {
				if p.acceptedByMember(rv.Value, r) {
					continue
				}
				key := distinctKey(rv.Value)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
		}
		out = append(out, rv)
	}
	return out, nil
}

func (p *AnyPattern) acceptedByMember(candidate Pattern, r Resolver) bool {
	for _, m := range p.members {
		if m.Encompasses(candidate, r, r, nil).IsSuccess() {
			return true
		}
	}
	return false
}

func distinctKey(p Pattern) string {
	if e, ok := p.(*ExactValuePattern); ok {
		return "exact:" + e.value.TypeName() + ":" + e.value.StringLiteral()
	}
	return "type:" + p.TypeName()
}

func (p *AnyPattern) exhausted(errs []error) error {
	switch len(errs) {
	case 0:
		return result.NewContractError("Could not generate any value for %s", p.TypeName())
	case 1:
		return errs[0]
	}
	allCycles := true
	failures := make([]*result.Failure, 0, len(errs))
	for _, err := range errs {
		failures = append(failures, result.ToFailure(err))
		allCycles = allCycles && result.IsCycleError(err)
	}
	ce := result.ContractErrorFromFailure(result.FromFailures(failures))
	ce.IsCycle = allCycles
	return ce
}

func (p *AnyPattern) Parse(text string, r Resolver) (value.Value, error) {
	for _, m := range p.nullLast() {
		v, err := m.Parse(text, r)
		if err != nil {
			continue
		}
		if m.Matches(v, r).IsSuccess() {
			return v, nil
		}
	}
	return nil, result.NewContractError("Failed to parse %q as %s", text, p.TypeName())
}

func (p *AnyPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	return FitsWithin(other, p.PatternSet(thisR), otherR, thisR, stack)
}
