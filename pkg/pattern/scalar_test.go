package pattern

import (
	"testing"

	"github.com/getmockd/contractd/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newTestResolver(t *testing.T) Resolver {
	t.Helper()
	return NewResolver(nil)
}

// --- Matching tests ---

func TestScalarMatches(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name    string
		pattern Pattern
		value   value.Value
		want    bool
	}{
		{"string matches string", &StringPattern{}, value.StringValue("x"), true},
		{"string rejects number", &StringPattern{}, value.NumberFromInt(1), false},
		{"string min length", &StringPattern{MinLength: 3}, value.StringValue("ab"), false},
		{"string max length counts runes", &StringPattern{MaxLength: ptr(2)}, value.StringValue("éé"), true},
		{"number matches number", &NumberPattern{}, value.NumberFromFloat(1.5), true},
		{"number rejects string", &NumberPattern{}, value.StringValue("1"), false},
		{"boolean matches boolean", &BooleanPattern{}, value.BooleanValue(false), true},
		{"null matches null", &NullPattern{}, value.Null, true},
		{"null matches empty string", &NullPattern{}, value.StringValue(""), true},
		{"null rejects text", &NullPattern{}, value.StringValue("x"), false},
		{"uuid matches uuid", &UUIDPattern{}, value.StringValue("8c2b5a52-9d2b-4b8e-9d6c-1f0a7a0c5e11"), true},
		{"uuid rejects text", &UUIDPattern{}, value.StringValue("not-a-uuid"), false},
		{"exact matches equal", NewExactValuePattern(value.NumberFromInt(10)), value.NumberFromFloat(10), true},
		{"exact rejects other", NewExactValuePattern(value.StringValue("a")), value.StringValue("b"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Matches(tt.value, r).IsSuccess())
		})
	}
}

func TestNumberBounds_Messages(t *testing.T) {
	r := newTestResolver(t)

	exclusive := &NumberPattern{Minimum: ptr(10.0), ExclusiveMinimum: true}
	res := exclusive.Matches(value.NumberFromInt(10), r)
	require.False(t, res.IsSuccess())
	assert.Contains(t, res.Report(), "Expected number greater than 10, actual was 10 (number)")

	inclusive := &NumberPattern{Minimum: ptr(10.0)}
	assert.True(t, inclusive.Matches(value.NumberFromInt(10), r).IsSuccess())
	res = inclusive.Matches(value.NumberFromInt(9), r)
	assert.Contains(t, res.Report(), "number greater than or equal to 10")

	upper := &NumberPattern{Maximum: ptr(5.5), ExclusiveMaximum: true}
	assert.Contains(t, upper.Matches(value.NumberFromFloat(5.5), r).Report(), "number less than 5.5")
}

// --- Generation tests ---

func TestNumberGenerate_RespectsBounds(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name    string
		pattern *NumberPattern
		check   func(f float64) bool
	}{
		{"exclusive integer range", &NumberPattern{Minimum: ptr(10.0), Maximum: ptr(20.0), ExclusiveMinimum: true, ExclusiveMaximum: true},
			func(f float64) bool { return f > 10 && f < 20 }},
		{"inclusive single value", &NumberPattern{Minimum: ptr(3.0), Maximum: ptr(3.0)},
			func(f float64) bool { return f == 3 }},
		{"only minimum", &NumberPattern{Minimum: ptr(-5.0)},
			func(f float64) bool { return f >= -5 }},
		{"only exclusive maximum", &NumberPattern{Maximum: ptr(0.0), ExclusiveMaximum: true},
			func(f float64) bool { return f < 0 }},
		{"no integer in range", &NumberPattern{Minimum: ptr(0.0), Maximum: ptr(1.0), ExclusiveMinimum: true, ExclusiveMaximum: true},
			func(f float64) bool { return f > 0 && f < 1 }},
		{"double format", &NumberPattern{Minimum: ptr(1.0), Maximum: ptr(2.0), IsDoubleFormat: true},
			func(f float64) bool { return f >= 1 && f <= 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				v, err := tt.pattern.Generate(r)
				require.NoError(t, err)
				n, ok := v.(value.NumberValue)
				require.True(t, ok)
				require.True(t, tt.check(n.Float()), "generated %s", n.StringLiteral())
				require.True(t, tt.pattern.Matches(v, r).IsSuccess())
			}
		})
	}
}

func TestNumberGenerate_EmptyRangeFails(t *testing.T) {
	p := &NumberPattern{Minimum: ptr(5.0), Maximum: ptr(5.0), ExclusiveMinimum: true}
	_, err := p.Generate(newTestResolver(t))
	assert.Error(t, err)
}

func TestNumberGenerate_RespectsLengthAndValueBounds(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name    string
		pattern *NumberPattern
	}{
		{"minimum with max length", &NumberPattern{Minimum: ptr(0.0), MaxLength: 2}},
		{"maximum far past max length", &NumberPattern{Maximum: ptr(5000.0), MaxLength: 2}},
		{"minimum with min length", &NumberPattern{Minimum: ptr(0.0), MinLength: 4}},
		{"negative range with max length", &NumberPattern{Maximum: ptr(-1.0), MaxLength: 3}},
		{"negative range with min length", &NumberPattern{Minimum: ptr(-500.0), Maximum: ptr(-1.0), MinLength: 3}},
		{"length window inside range", &NumberPattern{Minimum: ptr(-50.0), Maximum: ptr(50000.0), MinLength: 3, MaxLength: 4}},
		{"double format with max length", &NumberPattern{Minimum: ptr(1.0), IsDoubleFormat: true, MaxLength: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 1000; i++ {
				v, err := tt.pattern.Generate(r)
				require.NoError(t, err)
				require.True(t, tt.pattern.Matches(v, r).IsSuccess(), "generated %s", v.StringLiteral())
			}
		})
	}
}

func TestNumberGenerate_LengthAndValueBoundsDisjoint(t *testing.T) {
	p := &NumberPattern{Minimum: ptr(1000.0), MaxLength: 2}
	_, err := p.Generate(newTestResolver(t))
	assert.Error(t, err)
}

func TestNumberGenerate_BoundsBeyondInt64(t *testing.T) {
	r := newTestResolver(t)

	for _, p := range []*NumberPattern{
		{Minimum: ptr(1e300)},
		{Maximum: ptr(-1e300)},
		{Minimum: ptr(1e19), Maximum: ptr(2e19)},
	} {
		v, err := p.Generate(r)
		require.NoError(t, err)
		assert.True(t, p.Matches(v, r).IsSuccess(), "generated %s", v.StringLiteral())
	}
}

func TestStringGenerate_RespectsLength(t *testing.T) {
	r := newTestResolver(t)
	p := &StringPattern{MinLength: 8, MaxLength: ptr(8)}

	for i := 0; i < 50; i++ {
		v, err := p.Generate(r)
		require.NoError(t, err)
		assert.Len(t, string(v.(value.StringValue)), 8)
	}
}

func TestGenerate_UsesExampleOnlyWhenAllowed(t *testing.T) {
	p := &StringPattern{Example: ptr("scooby")}

	withExamples := newTestResolver(t).WithDefaultExampleResolver(UseDefaultExample{})
	v, err := p.Generate(withExamples)
	require.NoError(t, err)
	assert.Equal(t, value.StringValue("scooby"), v)

	v, err = p.Generate(newTestResolver(t))
	require.NoError(t, err)
	assert.NotEqual(t, value.StringValue("scooby"), v)

	bad := &NumberPattern{Example: ptr("ten")}
	_, err = bad.Generate(withExamples)
	assert.Error(t, err)
}

// --- Negative tests ---

func TestScalarNegatives_AreRejected(t *testing.T) {
	r := newTestResolver(t)
	patterns := []Pattern{
		&StringPattern{MinLength: 2, MaxLength: ptr(4)},
		&NumberPattern{Minimum: ptr(1.0), Maximum: ptr(9.0)},
		&BooleanPattern{},
		&UUIDPattern{},
	}

	for _, p := range patterns {
		t.Run(p.TypeName(), func(t *testing.T) {
			negs, err := p.NegativeBasedOn(Row{}, r)
			require.NoError(t, err)
			require.NotEmpty(t, negs)
			for _, neg := range negs {
				require.True(t, neg.OK())
				assert.NotEmpty(t, neg.Message)
				v, err := neg.Value.Generate(r)
				require.NoError(t, err)
				assert.False(t, p.Matches(v, r).IsSuccess(), "%s should reject %s", p, v.DisplayableValue())
			}
		})
	}
}

// --- Encompass tests ---

func TestScalarEncompasses(t *testing.T) {
	r := newTestResolver(t)

	tests := []struct {
		name  string
		this  Pattern
		other Pattern
		want  bool
	}{
		{"same kind", &StringPattern{}, &StringPattern{MinLength: 3}, true},
		{"exact string fits string", &StringPattern{}, NewExactValuePattern(value.StringValue("abc")), true},
		{"exact number does not fit string", &StringPattern{}, NewExactValuePattern(value.NumberFromInt(1)), false},
		{"string does not fit number", &NumberPattern{}, &StringPattern{}, false},
		{"nullable string does not fit string", &StringPattern{}, NewNullable(&StringPattern{}), false},
		{"string fits nullable string", NewNullable(&StringPattern{}), &StringPattern{}, true},
		{"uuid fits string", &StringPattern{}, &UUIDPattern{}, true},
		{"string does not fit uuid", &UUIDPattern{}, &StringPattern{}, false},
		{"exact equal", NewExactValuePattern(value.StringValue("a")), NewExactValuePattern(value.StringValue("a")), true},
		{"exact different", NewExactValuePattern(value.StringValue("a")), NewExactValuePattern(value.StringValue("b")), false},
		{"enum fits string", &StringPattern{}, NewAnyPattern(NewExactValuePattern(value.StringValue("a")), NewExactValuePattern(value.StringValue("b"))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.this.Encompasses(tt.other, r, r, nil).IsSuccess())
		})
	}
}
