package pattern

import (
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// DeferredPattern is a by-name reference, such as "(Person)", resolved
// through the Resolver each time it is used. Recursive types are written
// with it.
type DeferredPattern struct {
	token string
}

// NewDeferredPattern returns a reference to the named type.
func NewDeferredPattern(token string) *DeferredPattern {
	return &DeferredPattern{token: WithPatternDelimiters(token)}
}

// Token returns the referenced name, with delimiters.
func (p *DeferredPattern) Token() string { return p.token }

func (p *DeferredPattern) String() string    { return p.token }
func (p *DeferredPattern) TypeName() string  { return WithoutPatternDelimiters(p.token) }
func (p *DeferredPattern) TypeAlias() string { return p.token }
func (*DeferredPattern) sealed()             {}

func (p *DeferredPattern) resolve(r Resolver) (Pattern, error) {
	return resolvedHop(p, r)
}

func (p *DeferredPattern) PatternSet(r Resolver) []Pattern {
	resolved, err := p.resolve(r)
	if err != nil {
		return []Pattern{p}
	}
	return resolved.PatternSet(r)
}

func (p *DeferredPattern) Matches(v value.Value, r Resolver) result.Result {
	resolved, err := p.resolve(r)
	if err != nil {
		return result.ToFailure(err)
	}
	return r.MatchesPattern("", resolved, v)
}

func (p *DeferredPattern) Generate(r Resolver) (value.Value, error) {
	resolved, err := p.resolve(r)
	if err != nil {
		return nil, err
	}
	v, _, err := withCyclePrevention(r, p, false, func(next Resolver) (value.Value, error) {
		return resolved.Generate(next)
	})
	return v, err
}

func (p *DeferredPattern) NewBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	resolved, err := p.resolve(r)
	if err != nil {
		return nil, err
	}
	out, _, err := withCyclePrevention(r, p, false, func(next Resolver) ([]ReturnValue[Pattern], error) {
		return resolved.NewBasedOn(row, next)
	})
	return out, err
}

func (p *DeferredPattern) NewBasedOnAll(r Resolver) ([]Pattern, error) {
	resolved, err := p.resolve(r)
	if err != nil {
		return nil, err
	}
	out, _, err := withCyclePrevention(r, p, false, func(next Resolver) ([]Pattern, error) {
		return resolved.NewBasedOnAll(next)
	})
	return out, err
}

func (p *DeferredPattern) NegativeBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	resolved, err := p.resolve(r)
	if err != nil {
		return nil, err
	}
	out, _, err := withCyclePrevention(r, p, false, func(next Resolver) ([]ReturnValue[Pattern], error) {
		return resolved.NegativeBasedOn(row, next)
	})
	return out, err
}

func (p *DeferredPattern) Parse(text string, r Resolver) (value.Value, error) {
	resolved, err := p.resolve(r)
	if err != nil {
		return nil, err
	}
	return resolved.Parse(text, r)
}

func (p *DeferredPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	resolved, err := p.resolve(thisR)
	if err != nil {
		return result.ToFailure(err)
	}
	return resolved.Encompasses(other, thisR, otherR, stack)
}
