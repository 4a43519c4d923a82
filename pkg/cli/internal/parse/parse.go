// Package parse reads the key/value arguments of CLI flags.
package parse

import (
	"fmt"
	"strings"
)

// KeyValue splits s at the first of the delimiters, or at ':' when none
// are given.
func KeyValue(s string, delimiters ...rune) (key, value string, ok bool) {
	if len(delimiters) == 0 {
		delimiters = []rune{':'}
	}
	for i, c := range s {
		for _, d := range delimiters {
			if c == d {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", "", false
}

// Pairs parses "key=value" or "key:value" arguments into a map. Keys and
// values are trimmed.
func Pairs(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := KeyValue(arg, '=', ':')
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
