package pattern

import (
	"strings"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

func builtinPattern(token string) (Pattern, bool) {
	switch WithoutPatternDelimiters(token) {
	case "string":
		return &StringPattern{}, true
	case "number":
		return &NumberPattern{}, true
	case "integer":
		return &NumberPattern{}, true
	case "boolean", "bool":
		return &BooleanPattern{}, true
	case "null":
		return &NullPattern{}, true
	case "uuid":
		return &UUIDPattern{}, true
	}
	return nil, false
}

// ParseToken turns a token such as "(string)", "(Person?)" or
// "(number...)" into a pattern. Names that are not built in become
// deferred references.
func ParseToken(token string) Pattern {
	inner := strings.TrimSpace(WithoutPatternDelimiters(strings.TrimSpace(token)))
	switch {
	case strings.HasSuffix(inner, "..."):
		return NewListPattern(ParseToken("(" + strings.TrimSuffix(inner, "...") + ")"))
	case strings.HasSuffix(inner, "?"):
		return NewNullable(ParseToken("(" + strings.TrimSuffix(inner, "?") + ")"))
	}
	if p, ok := builtinPattern("(" + inner + ")"); ok {
		return p
	}
	return NewDeferredPattern(inner)
}

// FromValue reads a value written in pattern notation: strings that are
// tokens become the patterns they name, objects and arrays become
// structural patterns, and every other value becomes an exact match.
func FromValue(v value.Value) (Pattern, error) {
	switch t := v.(type) {
	case value.StringValue:
		if IsPatternToken(string(t)) {
			return ParseToken(string(t)), nil
		}
		return NewExactValuePattern(t), nil
	case *value.JSONObjectValue:
		entries := make([]Entry, 0, t.Len())
		for _, f := range t.Fields() {
			p, err := FromValue(f.Value)
			if err != nil {
				return nil, result.BreadCrumbError(err, WithoutOptionality(f.Key))
			}
			entries = append(entries, Entry{Key: f.Key, Pattern: p})
		}
		return NewJSONObjectPattern(entries...), nil
	case *value.JSONArrayValue:
		return arrayFromValue(t)
	case nil:
		return nil, result.NewContractError("no value to read a pattern from")
	}
	return NewExactValuePattern(v), nil
}

func arrayFromValue(arr *value.JSONArrayValue) (Pattern, error) {
	elems := arr.Items()
	var rest Pattern
	if n := len(elems); n > 0 {
		if s, ok := elems[n-1].(value.StringValue); ok && IsPatternToken(string(s)) {
			if list, isList := ParseToken(string(s)).(*ListPattern); isList {
				if n == 1 {
					return list, nil
				}
				rest = list.elem
				elems = elems[:n-1]
			}
		}
	}
	items := make([]Pattern, 0, len(elems))
	for _, e := range elems {
		p, err := FromValue(e)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return NewJSONArrayPattern(items, rest), nil
}

// ParsePattern reads JSON pattern notation, such as
// {"name": "(string)", "tag?": "(string?)"}. Text that is not JSON is
// read as a single token or an exact string.
func ParsePattern(text string) (Pattern, error) {
	trimmed := strings.TrimSpace(text)
	if IsPatternToken(trimmed) {
		return ParseToken(trimmed), nil
	}
	v, err := value.ParseJSON(trimmed)
	if err != nil {
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			return nil, result.NewContractError("%s", err.Error())
		}
		return NewExactValuePattern(value.StringValue(text)), nil
	}
	return FromValue(v)
}

// MustParsePattern is ParsePattern for literals known to be valid.
func MustParsePattern(text string) Pattern {
	p, err := ParsePattern(text)
	if err != nil {
		panic(err)
	}
	return p
}
