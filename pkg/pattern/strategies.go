package pattern

// ResolverStrategies bundles the pluggable policies that configuration
// controls.
type ResolverStrategies struct {
	DefaultExampleResolver DefaultExampleResolver
	Generation             GenerationStrategy
	UnexpectedKeyCheck     UnexpectedKeyCheck
}

// DefaultStrategies ignores examples, generates the minimal variant set and
// rejects unexpected keys.
func DefaultStrategies() ResolverStrategies {
	return ResolverStrategies{
		DefaultExampleResolver: DoNotUseDefaultExample{},
		Generation:             NonGenerativeTests,
		UnexpectedKeyCheck:     ValidateUnexpectedKeys,
	}
}

// Update applies the strategies to r.
func (s ResolverStrategies) Update(r Resolver) Resolver {
	if s.DefaultExampleResolver != nil {
		r = r.WithDefaultExampleResolver(s.DefaultExampleResolver)
	}
	return r.WithGeneration(s.Generation).WithUnexpectedKeyCheck(s.UnexpectedKeyCheck)
}
