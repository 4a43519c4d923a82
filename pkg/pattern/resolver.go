package pattern

import (
	"fmt"
	"slices"
	"strings"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// MaxRecursionDepth bounds how deep generation may nest before a recursive
// definition is treated as a cycle.
const MaxRecursionDepth = 100

// UnexpectedKeyCheck decides what happens to keys a pattern does not
// declare.
type UnexpectedKeyCheck int

const (
	ValidateUnexpectedKeys UnexpectedKeyCheck = iota
	IgnoreUnexpectedKeys
)

// KeyCheck is the key policy for objects. A locked policy is not relaxed by
// patterns that normally tolerate extra keys, such as headers.
type KeyCheck struct {
	Unexpected UnexpectedKeyCheck
	Locked     bool
}

// GenerationStrategy selects how many variants test generation produces.
type GenerationStrategy int

const (
	// NonGenerativeTests produces the all-keys and mandatory-keys variants.
	NonGenerativeTests GenerationStrategy = iota
	// GenerativePositiveTests also toggles each optional key on its own.
	GenerativePositiveTests
	// GenerativeTests adds negative mutations on top of the positive ones.
	GenerativeTests
)

// Positive reports whether one-at-a-time optional-key variants are wanted.
func (g GenerationStrategy) Positive() bool { return g != NonGenerativeTests }

// Negative reports whether mutation scenarios are wanted.
func (g GenerationStrategy) Negative() bool { return g == GenerativeTests }

// Resolver carries everything a pattern needs from its surroundings. It is
// passed by value; the With methods return modified copies.
type Resolver struct {
	factStore        FactStore
	mockMode         bool
	patterns         map[string]Pattern
	keyCheck         KeyCheck
	mismatchMessages result.MismatchMessages
	isNegative       bool
	generation       GenerationStrategy
	defaultExample   DefaultExampleResolver
	cycleStack       []any
}

// NewResolver returns a resolver over the named patterns (keys such as
// "(Person)").
func NewResolver(patterns map[string]Pattern) Resolver {
	return Resolver{
		factStore:        IgnoreFacts{},
		patterns:         patterns,
		mismatchMessages: result.DefaultMismatchMessages{},
		defaultExample:   DoNotUseDefaultExample{},
	}
}

func (r Resolver) WithFactStore(f FactStore) Resolver { r.factStore = f; return r }
func (r Resolver) WithMockMode(on bool) Resolver      { r.mockMode = on; return r }
func (r Resolver) WithNegative(on bool) Resolver      { r.isNegative = on; return r }

func (r Resolver) WithMismatchMessages(m result.MismatchMessages) Resolver {
	r.mismatchMessages = m
	return r
}

func (r Resolver) WithGeneration(g GenerationStrategy) Resolver {
	r.generation = g
	return r
}

func (r Resolver) WithDefaultExampleResolver(d DefaultExampleResolver) Resolver {
	r.defaultExample = d
	return r
}

// WithPatterns returns a copy that also knows the given named patterns.
func (r Resolver) WithPatterns(extra map[string]Pattern) Resolver {
	merged := make(map[string]Pattern, len(r.patterns)+len(extra))
	for k, v := range r.patterns {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	r.patterns = merged
	return r
}

// WithKeyCheck replaces the key policy outright.
func (r Resolver) WithKeyCheck(k KeyCheck) Resolver { r.keyCheck = k; return r }

// WithUnexpectedKeyCheck changes the unexpected-key policy unless it is
// locked.
func (r Resolver) WithUnexpectedKeyCheck(c UnexpectedKeyCheck) Resolver {
	if !r.keyCheck.Locked {
		r.keyCheck.Unexpected = c
	}
	return r
}

// Strict locks the key policy to reject unexpected keys everywhere.
func (r Resolver) Strict() Resolver {
	r.keyCheck = KeyCheck{Unexpected: ValidateUnexpectedKeys, Locked: true}
	return r
}

func (r Resolver) MockMode() bool                            { return r.mockMode }
func (r Resolver) IsNegative() bool                          { return r.isNegative }
func (r Resolver) Generation() GenerationStrategy            { return r.generation }
func (r Resolver) KeyCheck() KeyCheck                        { return r.keyCheck }
func (r Resolver) MismatchMessages() result.MismatchMessages { return r.mismatchMessages }
func (r Resolver) Facts() FactStore                          { return r.factStore }
func (r Resolver) Patterns() map[string]Pattern              { return r.patterns }

// GetPattern resolves a token such as "(Person)" or "(string)".
func (r Resolver) GetPattern(token string) (Pattern, error) {
	if !IsPatternToken(token) {
		return nil, result.NewContractError("%s is not a type", token)
	}
	if p, ok := r.patterns[token]; ok {
		return p, nil
	}
	if p, ok := builtinPattern(token); ok {
		return p, nil
	}
	if strings.HasSuffix(token, "?)") || strings.HasSuffix(token, "...)") {
		return ParseToken(token), nil
	}
	return nil, result.NewContractError("Type %s does not exist", token)
}

// MatchesPattern matches v against p and then against any stored fact
// under factKey. In mock mode a pattern token in place of a value is
// accepted when its type fits p.
func (r Resolver) MatchesPattern(factKey string, p Pattern, v value.Value) result.Result {
	if r.mockMode {
		if s, ok := v.(value.StringValue); ok && IsPatternToken(string(s)) {
			if tokenPattern, err := r.GetPattern(string(s)); err == nil &&
				p.Encompasses(tokenPattern, r, r, nil).IsSuccess() {
				return result.NewSuccess()
			}
		}
	}

	res := p.Matches(v, r)
	if !res.IsSuccess() {
		return res
	}
	if factKey != "" && r.factStore.Has(factKey) {
		if factResult := r.factStore.Match(v, factKey); !factResult.IsSuccess() {
			return result.NewFailure(fmt.Sprintf("Resolver was not able to match fact %s with value %s.", factKey, v.DisplayableValue()))
		}
	}
	return result.NewSuccess()
}

// GenerateFor generates a value for p, using the stored fact under factKey
// when there is one.
func (r Resolver) GenerateFor(factKey string, p Pattern) (value.Value, error) {
	if factKey == "" || !r.factStore.Has(factKey) {
		return p.Generate(r)
	}
	fact := r.factStore.Get(factKey)
	if b, ok := fact.(value.BooleanValue); ok && bool(b) {
		return p.Generate(r)
	}
	if s, ok := fact.(value.StringValue); ok {
		v, err := p.Parse(string(s), r)
		if err != nil {
			return nil, result.NewContractError("Value %s in fact %s is not a %s", s.DisplayableValue(), factKey, p.TypeName())
		}
		return v, nil
	}
	if !p.Matches(fact, r).IsSuccess() {
		return nil, result.NewContractError("Value %s in fact %s is not a %s", fact.DisplayableValue(), factKey, p.TypeName())
	}
	return fact, nil
}

// ResolveExample applies the default-example policy to a declared example.
func (r Resolver) ResolveExample(example *string, candidates ...Pattern) (value.Value, error) {
	return r.defaultExample.ResolveExample(example, candidates, r)
}

func cycleKey(p Pattern) any {
	if d, ok := p.(*DeferredPattern); ok {
		return "deferred:" + d.token
	}
	return p
}

// withCyclePrevention runs fn with p pushed onto the recursion stack. When a
// pattern appears more than twice on the stack, or the stack is too deep,
// the recursion is cut: with nilOnCycle the zero value and ok=false are
// returned, otherwise a cycle ContractError.
func withCyclePrevention[T any](r Resolver, p Pattern, nilOnCycle bool, fn func(Resolver) (T, error)) (T, bool, error) {
	var zero T
	key := cycleKey(p)
	count := 0
	for _, k := range r.cycleStack {
		if k == key {
			count++
		}
	}
	if count > 1 || len(r.cycleStack) >= MaxRecursionDepth {
		if nilOnCycle {
			return zero, false, nil
		}
		return zero, false, result.NewCycleError(p.TypeName())
	}

	next := r
	next.cycleStack = append(slices.Clip(r.cycleStack), key)
	v, err := fn(next)
	if err != nil {
		if nilOnCycle && result.IsCycleError(err) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return v, true, nil
}

// KeyErrors compares declared keys (with optional markers) against the keys
// actually present.
func (r Resolver) KeyErrors(declared []string, actual []string, label string, foldCase bool) []*result.Failure {
	norm := func(s string) string {
		if foldCase {
			return strings.ToLower(s)
		}
		return s
	}
	present := make(map[string]bool, len(actual))
	for _, k := range actual {
		present[norm(k)] = true
	}
	known := make(map[string]bool, len(declared))
	var failures []*result.Failure
	for _, k := range declared {
		bare := WithoutOptionality(k)
		known[norm(bare)] = true
		if !IsOptional(k) && !present[norm(bare)] {
			failures = append(failures, result.MissingKeyResult(label, bare, r.mismatchMessages))
		}
	}
	if r.keyCheck.Unexpected == ValidateUnexpectedKeys {
		for _, k := range actual {
			if !known[norm(k)] {
				failures = append(failures, result.UnexpectedKeyResult(label, k, r.mismatchMessages))
			}
		}
	}
	return failures
}
