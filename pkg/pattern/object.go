package pattern

import (
	"strings"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// JSONObjectPattern matches objects key by key. Keys ending in '?' are
// optional.
type JSONObjectPattern struct {
	keys    []string
	pattern map[string]Pattern
	alias   string
}

// NewJSONObjectPattern builds an object pattern in entry order.
func NewJSONObjectPattern(entries ...Entry) *JSONObjectPattern {
	p := &JSONObjectPattern{pattern: make(map[string]Pattern, len(entries))}
	for _, e := range entries {
		if _, dup := p.pattern[e.Key]; !dup {
			p.keys = append(p.keys, e.Key)
		}
		p.pattern[e.Key] = e.Pattern
	}
	return p
}

// WithAlias returns a copy named alias, such as "(Person)".
func (p *JSONObjectPattern) WithAlias(alias string) *JSONObjectPattern {
	c := *p
	c.alias = alias
	return &c
}

// Entries returns the declared keys and their patterns.
func (p *JSONObjectPattern) Entries() []Entry {
	out := make([]Entry, 0, len(p.keys))
	for _, k := range p.keys {
		out = append(out, Entry{Key: k, Pattern: p.pattern[k]})
	}
	return out
}

// valueFor looks a key up with or without its optional marker.
func (p *JSONObjectPattern) valueFor(key string) Pattern {
	if v, ok := p.pattern[key]; ok {
		return v
	}
	return p.pattern[key+"?"]
}

func (p *JSONObjectPattern) TypeName() string  { return "json object" }
func (p *JSONObjectPattern) TypeAlias() string { return p.alias }
func (*JSONObjectPattern) sealed()             {}

func (p *JSONObjectPattern) String() string {
	if p.alias != "" {
		return p.alias
	}
	parts := make([]string, 0, len(p.keys))
	for _, k := range p.keys {
		parts = append(parts, k+": "+p.pattern[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (p *JSONObjectPattern) PatternSet(Resolver) []Pattern { return []Pattern{p} }

// discriminatorKey returns the key whose pattern is a discriminator value.
func (p *JSONObjectPattern) discriminatorKey() string {
	for _, k := range p.keys {
		if e, ok := p.pattern[k].(*ExactValuePattern); ok && e.discriminator {
			return WithoutOptionality(k)
		}
	}
	return ""
}

func (p *JSONObjectPattern) Matches(v value.Value, r Resolver) result.Result {
	obj, ok := v.(*value.JSONObjectValue)
	if !ok {
		return result.MismatchResult("json object", v, r.MismatchMessages())
	}

	failures := r.KeyErrors(p.keys, obj.Keys(), "key", false)
	for _, k := range p.keys {
		bare := WithoutOptionality(k)
		actual, present := obj.Get(bare)
		if !present {
			continue
		}
		if f, failed := r.MatchesPattern(bare, p.pattern[k], actual).(*result.Failure); failed {
			failures = append(failures, f.WithBreadCrumb(bare))
		}
	}
	if len(failures) == 0 {
		return result.NewSuccess()
	}

	reason := result.FailedButObjectTypeMatched
	if discKey := p.discriminatorKey(); discKey != "" {
		reason = result.FailedButDiscriminatorMatched
		actual, present := obj.Get(discKey)
		if !present || !p.valueFor(discKey).Matches(actual, r).IsSuccess() {
			reason = result.DiscriminatorMismatch
		}
	}
	return result.FromFailures(failures).WithReason(reason)
}

func (p *JSONObjectPattern) Generate(r Resolver) (value.Value, error) {
	fields := make([]value.Field, 0, len(p.keys))
	for _, k := range p.keys {
		bare := WithoutOptionality(k)
		pat := p.pattern[k]
		v, ok, err := withCyclePrevention(r, pat, IsOptional(k), func(next Resolver) (value.Value, error) {
			return next.GenerateFor(bare, pat)
		})
		if err != nil {
			return nil, result.BreadCrumbError(err, bare)
		}
		if ok {
			fields = append(fields, value.Field{Key: bare, Value: v})
		}
	}
	return value.NewJSONObject(fields...), nil
}

// keyOptions lists the variants for one key: the row's value when the row
// names the key, otherwise the key pattern's own variants. A nil slice means
// the key was cut short by recursion and should be left out.
func (p *JSONObjectPattern) keyOptions(key string, row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	pat := p.pattern[key]
	if row.ContainsField(key) {
		return []ReturnValue[Pattern]{FromRowValue(pat, row.GetField(key), r)}, nil
	}
	opts, ok, err := withCyclePrevention(r, pat, IsOptional(key), func(next Resolver) ([]ReturnValue[Pattern], error) {
		return pat.NewBasedOn(row, next)
	})
	if err != nil || !ok {
		return nil, err
	}
	return opts, nil
}

// FromRowValue validates a row value against pat. A pattern token stands for
// a narrower type; anything else becomes an exact value.
func FromRowValue(pat Pattern, rowValue string, r Resolver) ReturnValue[Pattern] {
	if IsPatternToken(rowValue) {
		tokenPattern, err := r.GetPattern(rowValue)
		if err != nil {
			return HasError[Pattern](err)
		}
		if f, failed := pat.Encompasses(tokenPattern, r, r, nil).(*result.Failure); failed {
			return HasFailure[Pattern](f)
		}
		return HasValue(tokenPattern)
	}
	v, err := pat.Parse(rowValue, r)
	if err != nil {
		return HasError[Pattern](err)
	}
	if f, failed := pat.Matches(v, r).(*result.Failure); failed {
		return HasFailure[Pattern](f)
	}
	return HasValue[Pattern](NewExactValuePattern(v))
}

func (p *JSONObjectPattern) withEntries(entries []Entry) *JSONObjectPattern {
	mandatory := make([]Entry, 0, len(entries))
	for _, e := range entries {
		mandatory = append(mandatory, Entry{Key: WithoutOptionality(e.Key), Pattern: e.Pattern})
	}
	return NewJSONObjectPattern(mandatory...).WithAlias(p.alias)
}

func (p *JSONObjectPattern) NewBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	var out []ReturnValue[Pattern]
	for _, set := range KeySets(p.keys, row, r.Generation()) {
		options := make(map[string][]ReturnValue[Pattern], len(set))
		included := make([]string, 0, len(set))
		for _, k := range set {
			opts, err := p.keyOptions(k, row, r)
			if err != nil {
				return nil, result.BreadCrumbError(err, WithoutOptionality(k))
			}
			if opts == nil {
				continue
			}
			options[k] = opts
			included = append(included, k)
		}
		combos := Cover(included, options)
		if len(included) == 0 {
			combos = []ReturnValue[[]Entry]{HasValue[[]Entry](nil)}
		}
		for _, combo := range combos {
			out = append(out, MapReturnValue(combo, func(entries []Entry) Pattern {
				return p.withEntries(entries)
			}))
		}
	}
	return out, nil
}

func (p *JSONObjectPattern) NewBasedOnAll(r Resolver) ([]Pattern, error) {
	return allVariants(p, r)
}

func (p *JSONObjectPattern) NegativeBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error) {
	positive := make(map[string]Pattern, len(p.keys))
	var keys []string
	for _, k := range p.keys {
		if IsOptional(k) && row.IsOmitted(k) {
			continue
		}
		opts, err := p.keyOptions(k, row, r)
		if err != nil {
			return nil, result.BreadCrumbError(err, WithoutOptionality(k))
		}
		if first, ok := firstValue(opts); ok {
			positive[k] = first
			keys = append(keys, k)
		}
	}

	negatives := make(map[string][]ReturnValue[Pattern], len(keys))
	for _, k := range keys {
		pat := p.pattern[k]
		negs, ok, err := withCyclePrevention(r, pat, true, func(next Resolver) ([]ReturnValue[Pattern], error) {
			return pat.NegativeBasedOn(row, next)
		})
		if err != nil {
			return nil, result.BreadCrumbError(err, WithoutOptionality(k))
		}
		if ok {
			negatives[k] = negs
		}
	}

	var out []ReturnValue[Pattern]
	for _, combo := range MutateOneAtATime(keys, positive, negatives) {
		out = append(out, MapReturnValue(combo, func(entries []Entry) Pattern {
			return p.withEntries(entries)
		}))
	}

	for _, missing := range keys {
		if IsOptional(missing) {
			continue
		}
		entries := make([]Entry, 0, len(keys)-1)
		for _, k := range keys {
			if k != missing {
				entries = append(entries, Entry{Key: k, Pattern: positive[k]})
			}
		}
		out = append(out, HasValueWithMessage[Pattern](p.withEntries(entries), missing+" mandatory key removed"))
	}
	return out, nil
}

func (p *JSONObjectPattern) Parse(text string, _ Resolver) (value.Value, error) {
	obj, err := value.ParseJSONObject(text)
	if err != nil {
		return nil, result.NewContractError("%s", err.Error())
	}
	return obj, nil
}

// Encompasses requires every key this pattern mandates to be mandatory in
// other too, and each shared key's pattern to encompass the other's. Keys
// that only other declares are tolerated.
func (p *JSONObjectPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	resolved, err := resolvedHop(other, otherR)
	if err != nil {
		return result.ToFailure(err)
	}
	o, ok := resolved.(*JSONObjectPattern)
	if !ok {
		switch resolved.(type) {
		case *ExactValuePattern, *AnyPattern:
			return FitsWithin(resolved, []Pattern{p}, otherR, thisR, stack)
		}
		return result.PatternMismatchResult(p.TypeName(), resolved.TypeName(), thisR.MismatchMessages())
	}

	if p.alias != "" && o.alias != "" {
		if stack.Contains(p.alias, o.alias) {
			return result.NewSuccess()
		}
		stack = stack.Push(p.alias, o.alias)
	}

	otherKeys := make(map[string]string, len(o.keys))
	for _, k := range o.keys {
		otherKeys[WithoutOptionality(k)] = k
	}

	var failures []*result.Failure
	for _, k := range p.keys {
		bare := WithoutOptionality(k)
		otherKey, present := otherKeys[bare]
		if !IsOptional(k) && (!present || IsOptional(otherKey)) {
			failures = append(failures, result.MissingKeyResult("key", bare, thisR.MismatchMessages()))
			continue
		}
		if !present {
			continue
		}
		res := p.pattern[k].Encompasses(o.pattern[otherKey], thisR, otherR, stack)
		if f, failed := res.(*result.Failure); failed {
			failures = append(failures, f.WithBreadCrumb(bare))
		}
	}
	if len(failures) == 0 {
		return result.NewSuccess()
	}
	return result.FromFailures(failures)
}

func firstValue(rvs []ReturnValue[Pattern]) (Pattern, bool) {
	for _, rv := range rvs {
		if rv.OK() {
			return rv.Value, true
		}
	}
	return nil, false
}

// allVariants is the row-less expansion used by compatibility checks. Any
// variant that fails to build is an error.
func allVariants(p Pattern, r Resolver) ([]Pattern, error) {
	rvs, err := p.NewBasedOn(Row{}, r.WithGeneration(NonGenerativeTests))
	if err != nil {
		return nil, err
	}
	if err := FirstError(rvs); err != nil {
		return nil, err
	}
	return Values(rvs), nil
}
