package pattern

import (
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/getmockd/contractd/internal/id"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
	"github.com/google/uuid"
)

// StringPattern matches text, optionally bounded in length (counted in
// runes).
type StringPattern struct {
	MinLength int
	MaxLength *int
	Example   *string
	Alias     string
}

func (p *StringPattern) String() string    { return "(string)" }
func (p *StringPattern) TypeName() string  { return "string" }
func (p *StringPattern) TypeAlias() string { return p.Alias }
func (*StringPattern) sealed()             {}

func (p *StringPattern) PatternSet(Resolver) []Pattern { return []Pattern{p} }

func (p *StringPattern) Matches(v value.Value, r Resolver) result.Result {
	s, ok := v.(value.StringValue)
	if !ok {
		return result.MismatchResult("string", v, r.MismatchMessages())
	}
	n := utf8.RuneCountInString(string(s))
	if n < p.MinLength {
		return result.MismatchResult(fmt.Sprintf("string with minLength %d", p.MinLength), v, r.MismatchMessages())
	}
	if p.MaxLength != nil && n > *p.MaxLength {
		return result.MismatchResult(fmt.Sprintf("string with maxLength %d", *p.MaxLength), v, r.MismatchMessages())
	}
	return result.NewSuccess()
}

func (p *StringPattern) Generate(r Resolver) (value.Value, error) {
	if v, err := r.ResolveExample(p.Example, p); err != nil || v != nil {
		return v, err
	}
	n := max(5, p.MinLength)
	if p.MaxLength != nil && n > *p.MaxLength {
		n = *p.MaxLength
	}
	return value.StringValue(randomString(n)), nil
}

func (p *StringPattern) NewBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	return []ReturnValue[Pattern]{HasValue[Pattern](p)}, nil
}

func (p *StringPattern) NewBasedOnAll(Resolver) ([]Pattern, error) { return []Pattern{p}, nil }

func (p *StringPattern) NegativeBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	out := scalarAnnotation(p, &NullPattern{}, &NumberPattern{}, &BooleanPattern{})
	if p.MinLength > 0 {
		short := NewExactValuePattern(value.StringValue(randomString(p.MinLength - 1)))
		out = append(out, HasValueWithMessage[Pattern](short, "mutated to a string shorter than minLength"))
	}
	if p.MaxLength != nil {
		long := NewExactValuePattern(value.StringValue(randomString(*p.MaxLength + 1)))
		out = append(out, HasValueWithMessage[Pattern](long, "mutated to a string longer than maxLength"))
	}
	return out, nil
}

func (p *StringPattern) Parse(text string, _ Resolver) (value.Value, error) {
	return value.StringValue(text), nil
}

func (p *StringPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	return encompassScalar(p, other, thisR, otherR, stack)
}

// NumberPattern matches numbers, optionally bounded by literal length and
// by value.
type NumberPattern struct {
	MinLength        int
	MaxLength        int
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	// IsDoubleFormat allows fractional values when generating within bounds.
	IsDoubleFormat bool
	Example        *string
	Alias          string
}

func (p *NumberPattern) String() string    { return "(number)" }
func (p *NumberPattern) TypeName() string  { return "number" }
func (p *NumberPattern) TypeAlias() string { return p.Alias }
func (*NumberPattern) sealed()             {}

func (p *NumberPattern) PatternSet(Resolver) []Pattern { return []Pattern{p} }

func (p *NumberPattern) Matches(v value.Value, r Resolver) result.Result {
	n, ok := v.(value.NumberValue)
	if !ok {
		return result.MismatchResult("number", v, r.MismatchMessages())
	}
	msgs := r.MismatchMessages()
	literal := n.StringLiteral()
	if len(literal) < p.MinLength {
		return result.MismatchResult(fmt.Sprintf("number with minLength %d", p.MinLength), v, msgs)
	}
	if p.MaxLength > 0 && len(literal) > p.MaxLength {
		return result.MismatchResult(fmt.Sprintf("number with maxLength %d", p.MaxLength), v, msgs)
	}
	f := n.Float()
	if p.Minimum != nil {
		if p.ExclusiveMinimum && f <= *p.Minimum {
			return result.MismatchResult("number greater than "+formatBound(*p.Minimum), v, msgs)
		}
		if !p.ExclusiveMinimum && f < *p.Minimum {
			return result.MismatchResult("number greater than or equal to "+formatBound(*p.Minimum), v, msgs)
		}
	}
	if p.Maximum != nil {
		if p.ExclusiveMaximum && f >= *p.Maximum {
			return result.MismatchResult("number less than "+formatBound(*p.Maximum), v, msgs)
		}
		if !p.ExclusiveMaximum && f > *p.Maximum {
			return result.MismatchResult("number less than or equal to "+formatBound(*p.Maximum), v, msgs)
		}
	}
	return result.NewSuccess()
}

func (p *NumberPattern) Generate(r Resolver) (value.Value, error) {
	if v, err := r.ResolveExample(p.Example, p); err != nil || v != nil {
		return v, err
	}
	var v value.Value
	if p.Minimum == nil && p.Maximum == nil {
		digits := max(3, p.MinLength)
		if p.MaxLength > 0 && digits > p.MaxLength {
			digits = p.MaxLength
		}
		n, err := value.ParseNumber(randomDigits(max(digits, 1)))
		if err != nil {
			return nil, err
		}
		v = n
	} else {
		n, err := p.generateWithinBounds()
		if err != nil {
			return nil, err
		}
		v = n
	}
	if !p.Matches(v, r).IsSuccess() {
		return nil, result.NewContractError("Could not generate a number satisfying %s", p.describeBounds())
	}
	return v, nil
}

const generationSpan = 1000.0

func (p *NumberPattern) generateWithinBounds() (value.NumberValue, error) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if p.Minimum != nil {
		lo = *p.Minimum
	}
	if p.Maximum != nil {
		hi = *p.Maximum
	}
	loExclusive := p.ExclusiveMinimum && p.Minimum != nil
	hiExclusive := p.ExclusiveMaximum && p.Maximum != nil

	lengthBound := p.MinLength > 0 || p.MaxLength > 0
	if !p.IsDoubleFormat || lengthBound {
		first := math.Ceil(lo)
		if loExclusive && first == lo {
			first++
		}
		last := math.Floor(hi)
		if hiExclusive && last == hi {
			last--
		}
		if n, ok := p.integerWithin(first, last); ok {
			return value.NumberFromInt(n), nil
		}
		if lengthBound && first <= last {
			return value.NumberValue{}, result.NewContractError("No number satisfies %s", p.describeBounds())
		}
	}

	lo, hi = withinSpan(lo, hi)
	if lo > hi || (lo == hi && (loExclusive || hiExclusive)) {
		return value.NumberValue{}, result.NewContractError("No number satisfies %s", p.describeBounds())
	}
	f := lo + rand.Float64()*(hi-lo)
	if (loExclusive && f <= lo) || (hiExclusive && f >= hi) {
		f = lo + (hi-lo)/2
	}
	return value.NumberFromFloat(f), nil
}

// withinSpan closes an open-ended range to generationSpan past its finite end.
func withinSpan(lo, hi float64) (float64, float64) {
	switch {
	case math.IsInf(lo, -1) && math.IsInf(hi, 1):
		return 0, generationSpan
	case math.IsInf(lo, -1):
		return hi - generationSpan, hi
	case math.IsInf(hi, 1):
		return lo, lo + generationSpan
	}
	return lo, hi
}

// integerWithin picks an integer in [first, last] whose literal also fits
// the length bounds. The chosen range must lie inside int64.
func (p *NumberPattern) integerWithin(first, last float64) (int64, bool) {
	var windows [][2]float64
	for _, w := range p.lengthWindows() {
		lo, hi := withinSpan(max(first, w[0]), min(last, w[1]))
		if lo <= hi && lo >= math.MinInt64 && hi < math.MaxInt64 {
			windows = append(windows, [2]float64{lo, hi})
		}
	}
	if len(windows) == 0 {
		return 0, false
	}
	w := windows[rand.IntN(len(windows))]
	width := min(w[1]-w[0], 1e15)
	return int64(w[0]) + rand.Int64N(int64(width)+1), true
}

// lengthWindows returns the non-negative and negative integer ranges whose
// literals satisfy MinLength and MaxLength. The sign counts toward length.
func (p *NumberPattern) lengthWindows() [][2]float64 {
	pos := [2]float64{0, math.Inf(1)}
	neg := [2]float64{math.Inf(-1), -1}
	if p.MinLength > 1 {
		pos[0] = math.Pow10(p.MinLength - 1)
	}
	if p.MinLength > 2 {
		neg[1] = -math.Pow10(p.MinLength - 2)
	}
	if p.MaxLength > 0 {
		pos[1] = math.Pow10(p.MaxLength) - 1
		neg[0] = -(math.Pow10(p.MaxLength-1) - 1)
	}
	return [][2]float64{pos, neg}
}

func (p *NumberPattern) describeBounds() string {
	var parts []string
	if p.Minimum != nil {
		parts = append(parts, "minimum "+formatBound(*p.Minimum))
	}
	if p.Maximum != nil {
		parts = append(parts, "maximum "+formatBound(*p.Maximum))
	}
	if p.MinLength > 0 {
		parts = append(parts, "minLength "+strconv.Itoa(p.MinLength))
	}
	if p.MaxLength > 0 {
		parts = append(parts, "maxLength "+strconv.Itoa(p.MaxLength))
	}
	return strings.Join(parts, " and ")
}

func (p *NumberPattern) NewBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	return []ReturnValue[Pattern]{HasValue[Pattern](p)}, nil
}

func (p *NumberPattern) NewBasedOnAll(Resolver) ([]Pattern, error) { return []Pattern{p}, nil }

func (p *NumberPattern) NegativeBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	out := scalarAnnotation(p, &NullPattern{}, &BooleanPattern{}, &StringPattern{})
	if p.Minimum != nil {
		below := *p.Minimum - 1
		if p.ExclusiveMinimum {
			below = *p.Minimum
		}
		out = append(out, HasValueWithMessage[Pattern](NewExactValuePattern(value.NumberFromFloat(below)), "mutated to a number less than minimum"))
	}
	if p.Maximum != nil {
		above := *p.Maximum + 1
		if p.ExclusiveMaximum {
			above = *p.Maximum
		}
		out = append(out, HasValueWithMessage[Pattern](NewExactValuePattern(value.NumberFromFloat(above)), "mutated to a number greater than maximum"))
	}
	return out, nil
}

func (p *NumberPattern) Parse(text string, _ Resolver) (value.Value, error) {
	n, err := value.ParseNumber(text)
	if err != nil {
		return nil, result.NewContractError("%q is not a number", text)
	}
	return n, nil
}

func (p *NumberPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	return encompassScalar(p, other, thisR, otherR, stack)
}

// BooleanPattern matches true and false.
type BooleanPattern struct {
	Example *string
	Alias   string
}

func (p *BooleanPattern) String() string    { return "(boolean)" }
func (p *BooleanPattern) TypeName() string  { return "boolean" }
func (p *BooleanPattern) TypeAlias() string { return p.Alias }
func (*BooleanPattern) sealed()             {}

func (p *BooleanPattern) PatternSet(Resolver) []Pattern { return []Pattern{p} }

func (p *BooleanPattern) Matches(v value.Value, r Resolver) result.Result {
	if _, ok := v.(value.BooleanValue); ok {
		return result.NewSuccess()
	}
	return result.MismatchResult("boolean", v, r.MismatchMessages())
}

func (p *BooleanPattern) Generate(r Resolver) (value.Value, error) {
	if v, err := r.ResolveExample(p.Example, p); err != nil || v != nil {
		return v, err
	}
	return value.BooleanValue(rand.IntN(2) == 1), nil
}

func (p *BooleanPattern) NewBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	return []ReturnValue[Pattern]{HasValue[Pattern](p)}, nil
}

func (p *BooleanPattern) NewBasedOnAll(Resolver) ([]Pattern, error) { return []Pattern{p}, nil }

func (p *BooleanPattern) NegativeBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	return scalarAnnotation(p, &NullPattern{}, &NumberPattern{}, &StringPattern{}), nil
}

func (p *BooleanPattern) Parse(text string, _ Resolver) (value.Value, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true":
		return value.BooleanValue(true), nil
	case "false":
		return value.BooleanValue(false), nil
	}
	return nil, result.NewContractError("%q is not a boolean", text)
}

func (p *BooleanPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	return encompassScalar(p, other, thisR, otherR, stack)
}

// NullPattern matches null. An empty string also counts as null, which is
// how absent header and query values arrive.
type NullPattern struct{}

func (p *NullPattern) String() string  { return "(null)" }
func (p *NullPattern) TypeName() string { return "null" }
func (*NullPattern) TypeAlias() string  { return "" }
func (*NullPattern) sealed()            {}

func (p *NullPattern) PatternSet(Resolver) []Pattern { return []Pattern{p} }

func (p *NullPattern) Matches(v value.Value, r Resolver) result.Result {
	switch t := v.(type) {
	case value.NullValue:
		return result.NewSuccess()
	case value.StringValue:
		if t == "" {
			return result.NewSuccess()
		}
	}
	return result.MismatchResult("null", v, r.MismatchMessages())
}

func (p *NullPattern) Generate(Resolver) (value.Value, error) { return value.Null, nil }

func (p *NullPattern) NewBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	return []ReturnValue[Pattern]{HasValue[Pattern](p)}, nil
}

func (p *NullPattern) NewBasedOnAll(Resolver) ([]Pattern, error) { return []Pattern{p}, nil }

func (p *NullPattern) NegativeBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	return nil, nil
}

func (p *NullPattern) Parse(text string, _ Resolver) (value.Value, error) {
	if t := strings.TrimSpace(text); t == "" || t == "null" {
		return value.Null, nil
	}
	return nil, result.NewContractError("%q is not null", text)
}

func (p *NullPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	return encompassScalar(p, other, thisR, otherR, stack)
}

// UUIDPattern matches strings holding a UUID.
type UUIDPattern struct {
	Example *string
	Alias   string
}

func (p *UUIDPattern) String() string    { return "(uuid)" }
func (p *UUIDPattern) TypeName() string  { return "uuid" }
func (p *UUIDPattern) TypeAlias() string { return p.Alias }
func (*UUIDPattern) sealed()             {}

func (p *UUIDPattern) PatternSet(Resolver) []Pattern { return []Pattern{p} }

func (p *UUIDPattern) Matches(v value.Value, r Resolver) result.Result {
	s, ok := v.(value.StringValue)
	if !ok {
		return result.MismatchResult("uuid", v, r.MismatchMessages())
	}
	if _, err := uuid.Parse(string(s)); err != nil {
		return result.MismatchResult("uuid", v, r.MismatchMessages())
	}
	return result.NewSuccess()
}

func (p *UUIDPattern) Generate(r Resolver) (value.Value, error) {
	if v, err := r.ResolveExample(p.Example, p); err != nil || v != nil {
		return v, err
	}
	return value.StringValue(id.UUID()), nil
}

func (p *UUIDPattern) NewBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	return []ReturnValue[Pattern]{HasValue[Pattern](p)}, nil
}

func (p *UUIDPattern) NewBasedOnAll(Resolver) ([]Pattern, error) { return []Pattern{p}, nil }

func (p *UUIDPattern) NegativeBasedOn(Row, Resolver) ([]ReturnValue[Pattern], error) {
	out := scalarAnnotation(p, &NullPattern{}, &NumberPattern{}, &BooleanPattern{})
	out = append(out, HasValueWithMessage[Pattern](NewExactValuePattern(value.StringValue(randomString(8))), "mutated to a string that is not a uuid"))
	return out, nil
}

func (p *UUIDPattern) Parse(text string, _ Resolver) (value.Value, error) {
	if _, err := uuid.Parse(text); err != nil {
		return nil, result.NewContractError("%q is not a uuid", text)
	}
	return value.StringValue(text), nil
}

func (p *UUIDPattern) Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	return encompassScalar(p, other, thisR, otherR, stack)
}

func isScalar(p Pattern) bool {
	switch p.(type) {
	case *StringPattern, *NumberPattern, *BooleanPattern, *NullPattern, *UUIDPattern:
		return true
	}
	return false
}

// encompassScalar is the compatibility rule shared by scalars: the same
// kind always fits; an exact value fits when this pattern accepts it; a
// union fits when every member does; and a different scalar fits when a
// value generated from it is accepted here.
func encompassScalar(this, other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result {
	resolved, err := resolvedHop(other, otherR)
	if err != nil {
		return result.ToFailure(err)
	}
	if reflect.TypeOf(this) == reflect.TypeOf(resolved) {
		return result.NewSuccess()
	}
	switch o := resolved.(type) {
	case *ExactValuePattern:
		return FitsWithin(o, this.PatternSet(thisR), otherR, thisR, stack)
	case *AnyPattern:
		return FitsWithin(o, []Pattern{this}, otherR, thisR, stack)
	}
	if isScalar(resolved) {
		if v, err := resolved.Generate(otherR); err == nil && this.Matches(v, thisR).IsSuccess() {
			return result.NewSuccess()
		}
	}
	return result.PatternMismatchResult(this.TypeName(), resolved.TypeName(), thisR.MismatchMessages())
}

func scalarAnnotation(p Pattern, substitutes ...Pattern) []ReturnValue[Pattern] {
	out := make([]ReturnValue[Pattern], 0, len(substitutes))
	for _, s := range substitutes {
		out = append(out, HasValueWithMessage(s, fmt.Sprintf("mutated from %s to %s", p.TypeName(), s.TypeName())))
	}
	return out
}

func formatBound(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func randomString(n int) string { return id.Alphanumeric(n) }

func randomDigits(n int) string {
	b := make([]byte, n)
	b[0] = byte('1' + rand.IntN(9))
	for i := 1; i < n; i++ {
		b[i] = byte('0' + rand.IntN(10))
	}
	return string(b)
}
