package pattern

import (
	"testing"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func petUnion() *AnyPattern {
	cat := NewJSONObjectPattern(
		Entry{Key: "type", Pattern: NewDiscriminatorValuePattern(value.StringValue("cat"))},
		Entry{Key: "meows", Pattern: &BooleanPattern{}},
	).WithAlias("(Cat)")
	dog := NewJSONObjectPattern(
		Entry{Key: "type", Pattern: NewDiscriminatorValuePattern(value.StringValue("dog"))},
		Entry{Key: "barks", Pattern: &BooleanPattern{}},
	).WithAlias("(Dog)")
	return NewAnyPattern(cat, dog).WithDiscriminator("type", "cat", "dog")
}

func TestAnyPattern_TypeName(t *testing.T) {
	assert.Equal(t, "(string?)", NewAnyPattern(&NullPattern{}, &StringPattern{}).TypeName())
	assert.Equal(t, "(string?)", NewAnyPattern(&StringPattern{}, &NullPattern{}).TypeName())
	assert.Equal(t, "(Person?)", NewNullable(NewDeferredPattern("Person")).TypeName())
	assert.Equal(t, "(string or number)", NewAnyPattern(&StringPattern{}, &NumberPattern{}).TypeName())
}

func TestAnyPattern_Matches(t *testing.T) {
	r := newTestResolver(t)
	p := NewAnyPattern(&StringPattern{}, &NumberPattern{})

	assert.True(t, p.Matches(value.StringValue("x"), r).IsSuccess())
	assert.True(t, p.Matches(value.NumberFromInt(1), r).IsSuccess())
	assert.False(t, p.Matches(value.BooleanValue(true), r).IsSuccess())
}

func TestAnyPattern_NullableScalarGivesOneMessage(t *testing.T) {
	r := newTestResolver(t)
	res := NewNullable(&StringPattern{}).Matches(value.NumberFromInt(10), r)

	f, ok := res.(*result.Failure)
	require.True(t, ok)
	assert.Equal(t, "Expected (string?), actual was 10 (number)", f.Message)
}

func TestAnyPattern_ReportsObjectFailuresOnly(t *testing.T) {
	r := newTestResolver(t)
	p := NewAnyPattern(&StringPattern{}, MustParsePattern(`{"id": "(number)"}`))

	res := p.Matches(value.NewJSONObject(value.Field{Key: "id", Value: value.StringValue("x")}), r)
	require.False(t, res.IsSuccess())
	assert.Equal(t, []string{"id"}, res.(*result.Failure).Paths())
	assert.NotContains(t, res.Report(), "Expected string")
}

func TestAnyPattern_DiscriminatorDoesNotFallThrough(t *testing.T) {
	r := newTestResolver(t)
	p := petUnion()

	catWithBadField := value.NewJSONObject(
		value.Field{Key: "type", Value: value.StringValue("cat")},
		value.Field{Key: "meows", Value: value.StringValue("loudly")},
	)
	res := p.Matches(catWithBadField, r)

	f, ok := res.(*result.Failure)
	require.True(t, ok)
	assert.Equal(t, result.FailedButDiscriminatorMatched, f.Reason)
	assert.Contains(t, f.Report(), "meows")
	assert.NotContains(t, f.Report(), "barks", "the dog member must not be tried")

	dog := value.NewJSONObject(
		value.Field{Key: "type", Value: value.StringValue("dog")},
		value.Field{Key: "barks", Value: value.BooleanValue(true)},
	)
	assert.True(t, p.Matches(dog, r).IsSuccess())
}

func TestAnyPattern_DiscriminatorValueChecks(t *testing.T) {
	r := newTestResolver(t)
	p := petUnion()

	tests := []struct {
		name    string
		value   value.Value
		message string
	}{
		{
			name:    "missing property",
			value:   value.NewJSONObject(value.Field{Key: "meows", Value: value.BooleanValue(true)}),
			message: "Discriminator property type is missing from the object (it's value should be one of cat, dog)",
		},
		{
			name: "value outside the set",
			value: value.NewJSONObject(
				value.Field{Key: "type", Value: value.StringValue("bird")},
				value.Field{Key: "meows", Value: value.BooleanValue(true)},
			),
			message: "Expected the value of discriminator property to be one of cat, dog but it was bird",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := p.Matches(tt.value, r).(*result.Failure)
			require.True(t, ok)
			assert.Equal(t, result.DiscriminatorMismatch, f.Reason)
			assert.Equal(t, []string{"type"}, f.Paths())
			assert.Contains(t, f.Report(), tt.message)
			assert.NotContains(t, f.Report(), "meows")
		})
	}

	f, ok := p.Matches(value.StringValue("cat"), r).(*result.Failure)
	require.True(t, ok)
	assert.Contains(t, f.Report(), "json object")
}

func TestAnyPattern_DiscriminatorPicksFirstClaimingMember(t *testing.T) {
	r := newTestResolver(t)
	meowing := NewJSONObjectPattern(
		Entry{Key: "type", Pattern: NewExactValuePattern(value.StringValue("cat"))},
		Entry{Key: "meows", Pattern: &BooleanPattern{}},
	).WithAlias("(MeowingCat)")
	purring := NewJSONObjectPattern(
		Entry{Key: "type", Pattern: NewExactValuePattern(value.StringValue("cat"))},
		Entry{Key: "purrs", Pattern: &BooleanPattern{}},
	).WithAlias("(PurringCat)")
	p := NewAnyPattern(meowing, purring).WithDiscriminator("type", "cat")

	meows := value.NewJSONObject(
		value.Field{Key: "type", Value: value.StringValue("cat")},
		value.Field{Key: "meows", Value: value.BooleanValue(true)},
	)
	assert.True(t, p.Matches(meows, r).IsSuccess())

	purrs := value.NewJSONObject(
		value.Field{Key: "type", Value: value.StringValue("cat")},
		value.Field{Key: "purrs", Value: value.BooleanValue(true)},
	)
	f, ok := p.Matches(purrs, r).(*result.Failure)
	require.True(t, ok, "the purring member must not be tried once the first member claims the value")
	assert.Equal(t, result.FailedButDiscriminatorMatched, f.Reason)
	assert.Contains(t, f.Report(), "meows")
}

func TestAnyPattern_DiscriminatorValueWithNoMember(t *testing.T) {
	r := newTestResolver(t)
	cat := NewJSONObjectPattern(
		Entry{Key: "type", Pattern: NewExactValuePattern(value.StringValue("cat"))},
	)
	p := NewAnyPattern(cat).WithDiscriminator("type", "cat", "dog")

	f, ok := p.Matches(value.NewJSONObject(value.Field{Key: "type", Value: value.StringValue("dog")}), r).(*result.Failure)
	require.True(t, ok)
	assert.Equal(t, result.DiscriminatorMismatch, f.Reason)
	assert.Contains(t, f.Report(), "Discriminator property type is missing from the spec")
}

func TestAnyPattern_GenerateWithDiscriminator(t *testing.T) {
	r := newTestResolver(t)
	p := petUnion()

	for i := 0; i < 20; i++ {
		v, err := p.Generate(r)
		require.NoError(t, err)
		require.True(t, p.Matches(v, r).IsSuccess())
	}
}

func TestAnyPattern_NullableNegativesExcludeNull(t *testing.T) {
	r := newTestResolver(t)
	p := NewNullable(&NumberPattern{})

	negs, err := p.NegativeBasedOn(Row{}, r)
	require.NoError(t, err)
	require.NotEmpty(t, negs)
	for _, neg := range negs {
		require.True(t, neg.OK())
		_, isNull := neg.Value.(*NullPattern)
		assert.False(t, isNull)
		v, err := neg.Value.Generate(r)
		require.NoError(t, err)
		assert.False(t, p.Matches(v, r).IsSuccess())
	}
}

func TestAnyPattern_NegativesDropMembersTypes(t *testing.T) {
	r := newTestResolver(t)
	p := NewAnyPattern(&StringPattern{}, &NumberPattern{})

	negs, err := p.NegativeBasedOn(Row{}, r)
	require.NoError(t, err)

	var names []string
	for _, neg := range negs {
		names = append(names, neg.Value.TypeName())
	}
	assert.ElementsMatch(t, []string{"null", "boolean"}, names)
}

func TestAnyPattern_NewBasedOnPutsNullLast(t *testing.T) {
	r := newTestResolver(t)
	variants, err := NewAnyPattern(&NullPattern{}, &StringPattern{}).NewBasedOn(Row{}, r)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.IsType(t, &StringPattern{}, variants[0].Value)
	assert.IsType(t, &NullPattern{}, variants[1].Value)
}

func TestAnyPattern_ExhaustionError(t *testing.T) {
	r := newTestResolver(t)
	p := NewAnyPattern(NewDeferredPattern("Missing"), NewDeferredPattern("AlsoMissing"))

	_, err := p.NewBasedOn(Row{}, r)
	assert.Error(t, err)
}

func TestAnyPattern_Encompasses(t *testing.T) {
	r := newTestResolver(t)
	wide := NewAnyPattern(&StringPattern{}, &NumberPattern{}, &NullPattern{})
	narrow := NewNullable(&StringPattern{})

	assert.True(t, wide.Encompasses(narrow, r, r, nil).IsSuccess())
	assert.False(t, narrow.Encompasses(wide, r, r, nil).IsSuccess())
}

func TestAnyPattern_Parse(t *testing.T) {
	r := newTestResolver(t)
	p := NewNullable(&NumberPattern{})

	v, err := p.Parse("12", r)
	require.NoError(t, err)
	assert.Equal(t, "12", v.StringLiteral())

	v, err = p.Parse("", r)
	require.NoError(t, err)
	assert.Equal(t, value.Null, v)

	_, err = p.Parse("abc", r)
	assert.Error(t, err)
}
