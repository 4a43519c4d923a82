package result

import (
	"fmt"
	"unicode/utf8"

	"github.com/getmockd/contractd/pkg/value"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MismatchMessages words failures for a particular audience: a stub author,
// a contract test run or a compatibility check.
type MismatchMessages interface {
	MismatchMessage(expected, actual string) string
	UnexpectedKey(keyLabel, keyName string) string
	ExpectedKeyWasMissing(keyLabel, keyName string) string
}

// ValueMismatchFormatter is implemented by message sets that word value
// mismatches differently from type mismatches.
type ValueMismatchFormatter interface {
	ValueMismatch(expected string, actual value.Value) string
}

// DefaultMismatchMessages is used when nothing more specific applies.
type DefaultMismatchMessages struct{}

func (DefaultMismatchMessages) MismatchMessage(expected, actual string) string {
	return fmt.Sprintf("Expected %s, actual was %s", expected, actual)
}

func (DefaultMismatchMessages) UnexpectedKey(keyLabel, keyName string) string {
	return fmt.Sprintf("%s named %q was unexpected", Capitalize(keyLabel), keyName)
}

func (DefaultMismatchMessages) ExpectedKeyWasMissing(keyLabel, keyName string) string {
	return fmt.Sprintf("Expected %s named %q was missing", keyLabel, keyName)
}

var (
	lower = cases.Lower(language.English)
	upper = cases.Upper(language.English)
)

// Capitalize upper-cases the first letter of s and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	s = lower.String(s)
	r, size := utf8.DecodeRuneInString(s)
	return upper.String(string(r)) + s[size:]
}

// ValueError renders an actual value for a failure message.
func ValueError(v value.Value) string {
	if v == nil {
		return "nothing"
	}
	if _, ok := v.(value.NullValue); ok {
		return "null"
	}
	return fmt.Sprintf("%s (%s)", v.DisplayableValue(), v.TypeName())
}

// MismatchResult reports that actual was not what the pattern expected.
func MismatchResult(expected string, actual value.Value, messages MismatchMessages) *Failure {
	return NewFailure(messages.MismatchMessage(expected, ValueError(actual)))
}

// ValueMismatchResult is MismatchResult for exact-value comparisons.
func ValueMismatchResult(expected string, actual value.Value, messages MismatchMessages) *Failure {
	if f, ok := messages.(ValueMismatchFormatter); ok {
		return NewFailure(f.ValueMismatch(expected, actual))
	}
	return MismatchResult(expected, actual, messages)
}

// PatternMismatchResult reports that one type cannot stand in for another.
func PatternMismatchResult(expected, actual string, messages MismatchMessages) *Failure {
	return NewFailure(messages.MismatchMessage(expected, actual))
}

// MissingKeyResult reports a required key absent from the value.
func MissingKeyResult(keyLabel, keyName string, messages MismatchMessages) *Failure {
	return NewFailure(messages.ExpectedKeyWasMissing(keyLabel, keyName)).WithBreadCrumb(keyName)
}

// UnexpectedKeyResult reports a key that the pattern does not declare.
func UnexpectedKeyResult(keyLabel, keyName string, messages MismatchMessages) *Failure {
	return NewFailure(messages.UnexpectedKey(keyLabel, keyName)).WithBreadCrumb(keyName)
}
