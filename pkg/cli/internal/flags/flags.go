// Package flags provides flag types shared by commands.
package flags

import "strings"

// StringSlice is a repeatable string flag that, unlike cobra's string
// slice, does not split values on commas.
type StringSlice []string

func (s *StringSlice) String() string { return strings.Join(*s, ",") }

// Set appends a value.
func (s *StringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// Type is the type label shown in help.
func (s *StringSlice) Type() string { return "stringArray" }
