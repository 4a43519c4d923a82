// Package pattern implements the type descriptions that contracts are written
// in. A Pattern can validate a value, generate a conforming value, expand into
// test variants and mutations, and decide whether it can stand in for another
// pattern when checking backward compatibility.
package pattern

import (
	"fmt"
	"strings"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// Pattern is implemented only by the types in this package.
type Pattern interface {
	fmt.Stringer

	// Matches validates v.
	Matches(v value.Value, r Resolver) result.Result
	// Generate produces a value that Matches accepts.
	Generate(r Resolver) (value.Value, error)
	// NewBasedOn expands the pattern into the positive variants the row
	// calls for.
	NewBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error)
	// NewBasedOnAll expands the pattern without example data, for
	// compatibility checks.
	NewBasedOnAll(r Resolver) ([]Pattern, error)
	// NegativeBasedOn produces mutations that Matches must reject.
	NegativeBasedOn(row Row, r Resolver) ([]ReturnValue[Pattern], error)
	// Parse reads text as a value of this pattern.
	Parse(text string, r Resolver) (value.Value, error)
	// Encompasses reports whether every value other accepts is also
	// accepted here.
	Encompasses(other Pattern, thisR, otherR Resolver, stack TypeStack) result.Result
	// PatternSet flattens unions into their members.
	PatternSet(r Resolver) []Pattern
	// TypeAlias is the declared name, such as "(Person)", or "".
	TypeAlias() string
	// TypeName is used in messages.
	TypeName() string

	sealed()
}

// Entry is a keyed pattern inside an object, header set or query.
type Entry struct {
	Key     string
	Pattern Pattern
}

// OmitMarker as a row value removes an optional key from the generated
// value.
const OmitMarker = "(omit)"

// IsOptional reports whether key carries the trailing '?' marker.
func IsOptional(key string) bool { return strings.HasSuffix(key, "?") }

// WithoutOptionality strips the '?' marker.
func WithoutOptionality(key string) string { return strings.TrimSuffix(key, "?") }

// IsPatternToken reports whether s looks like "(name)".
func IsPatternToken(s string) bool {
	return len(s) > 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
}

// WithoutPatternDelimiters turns "(name)" into "name".
func WithoutPatternDelimiters(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
}

// WithPatternDelimiters turns "name" into "(name)".
func WithPatternDelimiters(s string) string {
	if IsPatternToken(s) {
		return s
	}
	return "(" + s + ")"
}

func typeInfoCrumb(p Pattern) string {
	if p.TypeAlias() == "" {
		return ""
	}
	return "(~~~" + WithoutPatternDelimiters(p.TypeAlias()) + " object)"
}
