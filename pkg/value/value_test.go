package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_KeepsKeyOrder(t *testing.T) {
	v, err := ParseJSON(`{"zeta": 1, "alpha": "x", "mid": [true, null]}`)
	require.NoError(t, err)

	obj, ok := v.(*JSONObjectValue)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, obj.Keys())
	assert.Equal(t, `{"zeta":1,"alpha":"x","mid":[true,null]}`, obj.StringLiteral())
}

func TestParseJSON_PreservesNumberLiteral(t *testing.T) {
	v, err := ParseJSON(`{"price": 19.90}`)
	require.NoError(t, err)

	price, ok := v.(*JSONObjectValue).Get("price")
	require.True(t, ok)
	assert.Equal(t, "19.90", price.StringLiteral())
	assert.True(t, Equal(price, NumberFromFloat(19.9)))
}

func TestParseJSON_RejectsTrailingData(t *testing.T) {
	_, err := ParseJSON(`{"a": 1} {"b": 2}`)
	assert.Error(t, err)
}

func TestParsed(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType string
	}{
		{"object", `{"a": 1}`, "json object"},
		{"array", `[1, 2]`, "json array"},
		{"xml", `<a><b>1</b></a>`, "xml"},
		{"plain text", `hello`, "string"},
		{"number stays text", `10`, "string"},
		{"broken json stays text", `{"a": `, "string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, Parsed(tt.input).TypeName())
		})
	}
}

func TestEqual(t *testing.T) {
	a := NewJSONObject(Field{"x", NumberFromInt(1)}, Field{"y", StringValue("b")})
	b := NewJSONObject(Field{"y", StringValue("b")}, Field{"x", NumberFromFloat(1.0)})

	assert.True(t, Equal(a, b), "key order does not matter")
	assert.False(t, Equal(a, NewJSONObject(Field{"x", NumberFromInt(1)})))
	assert.True(t, Equal(NewJSONArray(Null, BooleanValue(true)), NewJSONArray(Null, BooleanValue(true))))
	assert.False(t, Equal(NewJSONArray(Null), NewJSONArray(StringValue("null"))))
	assert.False(t, Equal(StringValue("1"), NumberFromInt(1)))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(Null, nil))
}

func TestXMLEqual_IgnoresAttributeOrder(t *testing.T) {
	a, err := ParseXML(`<item id="1" kind="x"><name>scooby</name></item>`)
	require.NoError(t, err)
	b, err := ParseXML(`<item kind="x" id="1"><name> scooby </name></item>`)
	require.NoError(t, err)

	assert.True(t, Equal(a, b))

	name, ok := a.FindElement("./name")
	require.True(t, ok)
	assert.Equal(t, "scooby", name.Text())
}

func TestFindFirstChildByPath(t *testing.T) {
	obj, err := ParseJSONObject(`{"id": 10, "owner": {"name": "shaggy"}, "tags": ["a", "b"]}`)
	require.NoError(t, err)

	id, ok := obj.FindFirstChildByPath("id")
	require.True(t, ok)
	assert.Equal(t, "10", id.StringLiteral())

	name, ok := obj.FindFirstChildByPath("owner.name")
	require.True(t, ok)
	assert.Equal(t, StringValue("shaggy"), name)

	tag, ok := obj.FindFirstChildByPath("$.tags[1]")
	require.True(t, ok)
	assert.Equal(t, StringValue("b"), tag)

	_, ok = obj.FindFirstChildByPath("missing")
	assert.False(t, ok)
}

func TestObjectWithAndWithout(t *testing.T) {
	obj := NewJSONObject(Field{"a", NumberFromInt(1)}, Field{"b", NumberFromInt(2)})

	updated := obj.With("a", StringValue("x")).With("c", Null)
	assert.Equal(t, []string{"a", "b", "c"}, updated.Keys())
	assert.Equal(t, `{"a":"x","b":2,"c":null}`, updated.StringLiteral())
	assert.Equal(t, `{"a":1,"b":2}`, obj.StringLiteral(), "original is unchanged")

	assert.Equal(t, []string{"b"}, obj.Without("a").Keys())
}

func TestFromNative(t *testing.T) {
	v := FromNative(map[string]any{"b": []any{1, "x"}, "a": nil})
	assert.Equal(t, `{"a":null,"b":[1,"x"]}`, v.StringLiteral())
}
