package pattern

import (
	"fmt"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// FactStore holds server-state facts that constrain matching and
// generation.
type FactStore interface {
	Has(key string) bool
	Get(key string) value.Value
	Match(sample value.Value, key string) result.Result
}

// CheckFacts enforces stored facts.
type CheckFacts map[string]value.Value

func (f CheckFacts) Has(key string) bool { _, ok := f[key]; return ok }

func (f CheckFacts) Get(key string) value.Value { return f[key] }

func (f CheckFacts) Match(sample value.Value, key string) result.Result {
	stored, ok := f[key]
	if !ok {
		return result.NewFailure(fmt.Sprintf("Resolver did not contain a fact named %s", key))
	}
	if b, isBool := stored.(value.BooleanValue); isBool && bool(b) {
		return result.NewSuccess()
	}
	if sample.StringLiteral() != stored.StringLiteral() {
		return result.NewFailure(fmt.Sprintf("Resolver was not able to match fact %s with value %s.", key, sample.DisplayableValue()))
	}
	return result.NewSuccess()
}

// IgnoreFacts is the store used when no facts apply.
type IgnoreFacts struct{}

func (IgnoreFacts) Has(string) bool                             { return false }
func (IgnoreFacts) Get(string) value.Value                      { return nil }
func (IgnoreFacts) Match(value.Value, string) result.Result { return result.NewSuccess() }

// DefaultExampleResolver decides whether examples declared on patterns are
// used when generating.
type DefaultExampleResolver interface {
	// ResolveExample returns nil when no example applies. An example that
	// none of the candidates accept is an error.
	ResolveExample(example *string, candidates []Pattern, r Resolver) (value.Value, error)
}

// UseDefaultExample generates from declared examples.
type UseDefaultExample struct{}

func (UseDefaultExample) ResolveExample(example *string, candidates []Pattern, r Resolver) (value.Value, error) {
	if example == nil || len(candidates) == 0 {
		return nil, nil
	}
	for _, p := range candidates {
		v, err := p.Parse(*example, r)
		if err != nil {
			continue
		}
		if p.Matches(v, r).IsSuccess() {
			return v, nil
		}
	}
	return nil, result.NewContractError("Example %q does not match %s type", *example, candidates[0].TypeName())
}

// DoNotUseDefaultExample ignores declared examples.
type DoNotUseDefaultExample struct{}

func (DoNotUseDefaultExample) ResolveExample(*string, []Pattern, Resolver) (value.Value, error) {
	return nil, nil
}
