package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Field is one key/value entry of a JSON object.
type Field struct {
	Key   string
	Value Value
}

// JSONObjectValue is a JSON object that remembers the order its keys were
// added in.
type JSONObjectValue struct {
	keys   []string
	fields map[string]Value
}

// NewJSONObject builds an object from fields. A repeated key keeps its first
// position and its last value.
func NewJSONObject(fields ...Field) *JSONObjectValue {
	o := &JSONObjectValue{fields: make(map[string]Value, len(fields))}
	for _, f := range fields {
		if _, exists := o.fields[f.Key]; !exists {
			o.keys = append(o.keys, f.Key)
		}
		o.fields[f.Key] = f.Value
	}
	return o
}

// ObjectFromMap builds an object with keys in sorted order.
func ObjectFromMap(m map[string]Value) *JSONObjectValue {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: m[k]})
	}
	return NewJSONObject(fields...)
}

// Keys returns the keys in insertion order.
func (o *JSONObjectValue) Keys() []string { return append([]string(nil), o.keys...) }

// Fields returns the entries in insertion order.
func (o *JSONObjectValue) Fields() []Field {
	out := make([]Field, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, Field{Key: k, Value: o.fields[k]})
	}
	return out
}

// Get returns the value stored under key.
func (o *JSONObjectValue) Get(key string) (Value, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// Len is the number of keys.
func (o *JSONObjectValue) Len() int { return len(o.keys) }

// With returns a copy of o with key set to v.
func (o *JSONObjectValue) With(key string, v Value) *JSONObjectValue {
	return NewJSONObject(append(o.Fields(), Field{Key: key, Value: v})...)
}

// Without returns a copy of o without the given keys.
func (o *JSONObjectValue) Without(keys ...string) *JSONObjectValue {
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	fields := make([]Field, 0, len(o.keys))
	for _, f := range o.Fields() {
		if !drop[f.Key] {
			fields = append(fields, f)
		}
	}
	return NewJSONObject(fields...)
}

// FindFirstChildByPath resolves a dotted path ("address.city") or a JSONPath
// expression ("$.items[0].id") against o and returns the first hit.
func (o *JSONObjectValue) FindFirstChildByPath(path string) (Value, bool) {
	if path == "" {
		return nil, false
	}
	query := path
	if !strings.HasPrefix(query, "$") {
		query = "$." + query
	}
	x, err := jp.ParseString(query)
	if err != nil {
		return nil, false
	}
	results := x.Get(o.Native())
	if len(results) == 0 {
		return nil, false
	}
	return FromNative(results[0]), true
}

func (o *JSONObjectValue) StringLiteral() string    { return marshalCompact(o) }
func (o *JSONObjectValue) DisplayableValue() string { return marshalIndented(o) }
func (o *JSONObjectValue) TypeName() string         { return "json object" }
func (*JSONObjectValue) isValue()                   {}

func (o *JSONObjectValue) Native() any {
	m := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		m[k] = o.fields[k].Native()
	}
	return m
}

// MarshalJSON writes the object with its keys in order.
func (o *JSONObjectValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		item, err := marshalValue(o.fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(item)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSONArrayValue is an ordered list of values.
type JSONArrayValue struct {
	items []Value
}

// NewJSONArray builds an array from items.
func NewJSONArray(items ...Value) *JSONArrayValue {
	return &JSONArrayValue{items: append([]Value(nil), items...)}
}

// Items returns the elements.
func (a *JSONArrayValue) Items() []Value { return append([]Value(nil), a.items...) }

// Len is the number of elements.
func (a *JSONArrayValue) Len() int { return len(a.items) }

func (a *JSONArrayValue) StringLiteral() string    { return marshalCompact(a) }
func (a *JSONArrayValue) DisplayableValue() string { return marshalIndented(a) }
func (a *JSONArrayValue) TypeName() string         { return "json array" }
func (*JSONArrayValue) isValue()                   {}

func (a *JSONArrayValue) Native() any {
	out := make([]any, 0, len(a.items))
	for _, item := range a.items {
		out = append(out, item.Native())
	}
	return out
}

// MarshalJSON writes the array elements in order.
func (a *JSONArrayValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range a.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalValue(item)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// ParseJSON decodes text into a Value, keeping object key order.
func ParseJSON(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parsing json: unexpected data after top-level value")
	}
	return v, nil
}

// ParseJSONObject decodes text that must hold a JSON object.
func ParseJSONObject(text string) (*JSONObjectValue, error) {
	v, err := ParseJSON(text)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*JSONObjectValue)
	if !ok {
		return nil, fmt.Errorf("expected a json object, got %s", v.TypeName())
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var fields []Field
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				fields = append(fields, Field{Key: key, Value: v})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return NewJSONObject(fields...), nil
		case '[':
			var items []Value
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return NewJSONArray(items...), nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case string:
		return StringValue(t), nil
	case json.Number:
		n, err := ParseNumber(t.String())
		if err != nil {
			return nil, err
		}
		return n, nil
	case bool:
		return BooleanValue(t), nil
	case nil:
		return Null, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// FromNative converts plain Go data (as produced by encoding/json, yaml.v3
// or jp) into a Value. Map keys are sorted.
func FromNative(data any) Value {
	switch d := data.(type) {
	case nil:
		return Null
	case Value:
		return d
	case string:
		return StringValue(d)
	case bool:
		return BooleanValue(d)
	case json.Number:
		if n, err := ParseNumber(d.String()); err == nil {
			return n
		}
		return StringValue(d.String())
	case float64:
		return NumberFromFloat(d)
	case float32:
		return NumberFromFloat(float64(d))
	case int:
		return NumberFromInt(int64(d))
	case int64:
		return NumberFromInt(d)
	case map[string]any:
		m := make(map[string]Value, len(d))
		for k, v := range d {
			m[k] = FromNative(v)
		}
		return ObjectFromMap(m)
	case []any:
		items := make([]Value, 0, len(d))
		for _, v := range d {
			items = append(items, FromNative(v))
		}
		return NewJSONArray(items...)
	}
	return StringValue(fmt.Sprint(data))
}

func marshalValue(v Value) ([]byte, error) {
	switch t := v.(type) {
	case *JSONObjectValue:
		return t.MarshalJSON()
	case *JSONArrayValue:
		return t.MarshalJSON()
	case NumberValue:
		return []byte(t.StringLiteral()), nil
	case nil:
		return []byte("null"), nil
	}
	return json.Marshal(v.Native())
}

func marshalCompact(v Value) string {
	b, err := marshalValue(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func marshalIndented(v Value) string {
	b, err := marshalValue(v)
	if err != nil {
		return ""
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "    "); err != nil {
		return string(b)
	}
	return out.String()
}
