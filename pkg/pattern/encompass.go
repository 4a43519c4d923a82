package pattern

import "github.com/getmockd/contractd/pkg/result"

// FitsWithin reports whether every member of p's pattern set is
// encompassed by at least one of others. An exact value fits when any of
// others accepts it.
func FitsWithin(p Pattern, others []Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	if exact, ok := p.(*ExactValuePattern); ok {
		for _, o := range others {
			if o.Matches(exact.value, otherR).IsSuccess() {
				return result.NewSuccess()
			}
		}
		return result.PatternMismatchResult(describeAll(others), exact.TypeName(), otherR.MismatchMessages())
	}

	var results []result.Result
	for _, mine := range p.PatternSet(thisR) {
		var first result.Result
		matched := false
		for _, o := range others {
			r := o.Encompasses(mine, otherR, thisR, stack)
			if r.IsSuccess() {
				matched = true
				break
			}
			if first == nil {
				first = r
			}
		}
		if matched {
			continue
		}
		if first == nil {
			first = result.PatternMismatchResult(describeAll(others), mine.TypeName(), otherR.MismatchMessages())
		}
		results = append(results, first)
	}
	return result.FromResults(results)
}

// resolvedHop follows deferred references until it reaches a concrete
// pattern.
func resolvedHop(p Pattern, r Resolver) (Pattern, error) {
	for i := 0; i < MaxRecursionDepth; i++ {
		d, ok := p.(*DeferredPattern)
		if !ok {
			return p, nil
		}
		next, err := r.GetPattern(d.token)
		if err != nil {
			return nil, err
		}
		p = next
	}
	return nil, result.NewCycleError(p.TypeName())
}

func describeAll(ps []Pattern) string {
	if len(ps) == 1 {
		return ps[0].TypeName()
	}
	return (&AnyPattern{members: ps}).TypeName()
}
