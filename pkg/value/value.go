// Package value holds the concrete runtime data that patterns are matched
// against and generated into.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a concrete piece of data. Values are immutable; composite values
// are pointer types and must be compared with Equal, never with ==.
type Value interface {
	// StringLiteral is the compact textual form, suitable for headers and
	// query parameters.
	StringLiteral() string
	// DisplayableValue is the form shown in failure messages.
	DisplayableValue() string
	// TypeName is the short name of the value's kind, for example "string".
	TypeName() string
	// Native returns the value as plain Go data (maps, slices, strings,
	// json.Number, bool or nil).
	Native() any

	isValue()
}

// StringValue is a text value.
type StringValue string

func (s StringValue) StringLiteral() string    { return string(s) }
func (s StringValue) DisplayableValue() string { return strconv.Quote(string(s)) }
func (s StringValue) TypeName() string         { return "string" }
func (s StringValue) Native() any              { return string(s) }
func (StringValue) isValue()                   {}

// BooleanValue is true or false.
type BooleanValue bool

func (b BooleanValue) StringLiteral() string    { return strconv.FormatBool(bool(b)) }
func (b BooleanValue) DisplayableValue() string { return b.StringLiteral() }
func (b BooleanValue) TypeName() string         { return "boolean" }
func (b BooleanValue) Native() any              { return bool(b) }
func (BooleanValue) isValue()                   {}

// NullValue is the JSON null.
type NullValue struct{}

// Null is the single null value.
var Null = NullValue{}

func (NullValue) StringLiteral() string    { return "null" }
func (NullValue) DisplayableValue() string { return "null" }
func (NullValue) TypeName() string         { return "null" }
func (NullValue) Native() any              { return nil }
func (NullValue) isValue()                 {}

// NumberValue is a number that keeps its original literal, so "19.99" is
// rendered back exactly as it was read.
type NumberValue struct {
	literal string
	number  float64
}

// NumberFromInt returns a NumberValue for n.
func NumberFromInt(n int64) NumberValue {
	return NumberValue{literal: strconv.FormatInt(n, 10), number: float64(n)}
}

// NumberFromFloat returns a NumberValue for f.
func NumberFromFloat(f float64) NumberValue {
	return NumberValue{literal: strconv.FormatFloat(f, 'f', -1, 64), number: f}
}

// ParseNumber parses a numeric literal.
func ParseNumber(s string) (NumberValue, error) {
	trimmed := strings.TrimSpace(s)
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return NumberValue{}, fmt.Errorf("%q is not a number", s)
	}
	return NumberValue{literal: trimmed, number: f}, nil
}

// Float returns the numeric value.
func (n NumberValue) Float() float64 { return n.number }

// IsInteger reports whether the number has no fractional part.
func (n NumberValue) IsInteger() bool { return n.number == math.Trunc(n.number) }

func (n NumberValue) StringLiteral() string {
	if n.literal == "" {
		return strconv.FormatFloat(n.number, 'f', -1, 64)
	}
	return n.literal
}
func (n NumberValue) DisplayableValue() string { return n.StringLiteral() }
func (n NumberValue) TypeName() string         { return "number" }
func (n NumberValue) Native() any              { return json.Number(n.StringLiteral()) }
func (NumberValue) isValue()                   {}

// BinaryValue wraps raw bytes, typically a multipart file body.
type BinaryValue struct {
	data []byte
}

// NewBinary copies data into a BinaryValue.
func NewBinary(data []byte) *BinaryValue {
	return &BinaryValue{data: append([]byte(nil), data...)}
}

// Bytes returns a copy of the underlying data.
func (b *BinaryValue) Bytes() []byte { return append([]byte(nil), b.data...) }

func (b *BinaryValue) StringLiteral() string    { return string(b.data) }
func (b *BinaryValue) DisplayableValue() string { return fmt.Sprintf("<%d bytes>", len(b.data)) }
func (b *BinaryValue) TypeName() string         { return "binary" }
func (b *BinaryValue) Native() any              { return string(b.data) }
func (*BinaryValue) isValue()                   {}

// Equal reports whether a and b hold the same data. Object key order is not
// significant.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case StringValue, BooleanValue, NullValue:
		return a == b
	case NumberValue:
		bv, ok := b.(NumberValue)
		return ok && av.number == bv.number
	case *BinaryValue:
		bv, ok := b.(*BinaryValue)
		return ok && string(av.data) == string(bv.data)
	case *JSONObjectValue:
		bv, ok := b.(*JSONObjectValue)
		if !ok || len(av.keys) != len(bv.keys) {
			return false
		}
		for _, k := range av.keys {
			other, found := bv.fields[k]
			if !found || !Equal(av.fields[k], other) {
				return false
			}
		}
		return true
	case *JSONArrayValue:
		bv, ok := b.(*JSONArrayValue)
		if !ok || len(av.items) != len(bv.items) {
			return false
		}
		for i := range av.items {
			if !Equal(av.items[i], bv.items[i]) {
				return false
			}
		}
		return true
	case *XMLNode:
		bv, ok := b.(*XMLNode)
		return ok && equalElements(av.element, bv.element)
	}
	return false
}

// Parsed interprets text the way request and response bodies are read: a
// leading '{' or '[' means JSON, a leading '<' means XML, and anything else
// (including text that fails to parse) stays a StringValue.
func Parsed(text string) Value {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, "{"), strings.HasPrefix(trimmed, "["):
		if v, err := ParseJSON(trimmed); err == nil {
			return v
		}
	case strings.HasPrefix(trimmed, "<"):
		if v, err := ParseXML(trimmed); err == nil {
			return v
		}
	}
	return StringValue(text)
}
