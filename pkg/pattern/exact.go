package pattern

import (
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// ExactValuePattern matches one literal value. When it is the discriminator
// of an object in a union, a mismatch says the value belongs to another
// member.
type ExactValuePattern struct {
	value         value.Value
	discriminator bool
}

// NewExactValuePattern returns a pattern matching exactly v.
func NewExactValuePattern(v value.Value) *ExactValuePattern {
	return &ExactValuePattern{value: v}
}

// NewDiscriminatorValuePattern is NewExactValuePattern for a discriminator
// key.
func NewDiscriminatorValuePattern(v value.Value) *ExactValuePattern {
	return &ExactValuePattern{value: v, discriminator: true}
}

// Value returns the literal.
func (p *ExactValuePattern) Value() value.Value { return p.value }

// IsDiscriminator reports whether this is a discriminator value.
func (p *ExactValuePattern) IsDiscriminator() bool { return p.discriminator }

func (p *ExactValuePattern) String() string    { return p.value.DisplayableValue() }
func (p *ExactValuePattern) TypeName() string  { return p.value.DisplayableValue() }
func (p *ExactValuePattern) TypeAlias() string { return "" }
func (*ExactValuePattern) sealed()             {}

func (p *ExactValuePattern) PatternSet(Resolver) []Pattern { return []Pattern{p} }

func (p *ExactValuePattern) Matches(v value.Value, r Resolver) result.Result {
	if value.Equal(p.value, v) {
		return result.NewSuccess()
	}
	f := result.ValueMismatchResult(p.value.DisplayableValue(), v, r.MismatchMessages())
	if p.discriminator {
		f = f.WithReason(result.DiscriminatorMismatch)
	}
	return f
}

func (p *ExactValuePattern) Generate(Resolver) (value.Value, error) { return p.value, nil }

func (p *ExactValuePattern) NewBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	return []ReturnValue[Pattern]{HasValue[Pattern](p)}, nil
}

func (p *ExactValuePattern) NewBasedOnAll(Resolver) ([]Pattern, error) { return []Pattern{p}, nil }

func (p *ExactValuePattern) NegativeBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	if p.discriminator {
		return nil, nil
	}
	switch p.value.(type) {
	case value.StringValue:
		return (&StringPattern{}).NegativeBasedOn(row, r)
	case value.NumberValue:
		return (&NumberPattern{}).NegativeBasedOn(row, r)
	case value.BooleanValue:
		return (&BooleanPattern{}).NegativeBasedOn(row, r)
	case value.NullValue:
		return scalarAnnotation(p, &StringPattern{}), nil
	}
	return nil, nil
}

// Parse reads text as the same kind of value as the literal.
func (p *ExactValuePattern) Parse(text string, r Resolver) (value.Value, error) {
	switch p.value.(type) {
	case value.NumberValue:
		return (&NumberPattern{}).Parse(text, r)
	case value.BooleanValue:
		return (&BooleanPattern{}).Parse(text, r)
	case value.NullValue:
		return (&NullPattern{}).Parse(text, r)
	case value.StringValue:
		return value.StringValue(text), nil
	}
	return value.Parsed(text), nil
}

func (p *ExactValuePattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	resolved, err := resolvedHop(other, otherR)
	if err != nil {
		return result.ToFailure(err)
	}
	switch o := resolved.(type) {
	case *ExactValuePattern:
		if value.Equal(p.value, o.value) {
			return result.NewSuccess()
		}
	case *AnyPattern:
		return FitsWithin(o, []Pattern{p}, otherR, thisR, stack)
	}
	return result.PatternMismatchResult(p.TypeName(), resolved.TypeName(), thisR.MismatchMessages())
}
