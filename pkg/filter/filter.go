// Package filter selects scenarios by their metadata, either with tag
// filters such as "METHOD=GET,POST;PATH=/pets/**" or with boolean
// expressions such as `METHOD == "GET" && STATUS >= 200`.
package filter

import (
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ScenarioMetadata is what a filter sees of a scenario.
type ScenarioMetadata struct {
	Method      string
	Path        string
	StatusCode  int
	Header      []string
	Query       []string
	ExampleName string
}

// Filter decides whether a scenario is selected.
type Filter interface {
	Matches(m ScenarioMetadata) bool
}

// Tags recognised in tag filters.
const (
	TagMethod      = "METHOD"
	TagPath        = "PATH"
	TagStatus      = "STATUS"
	TagHeaders     = "HEADERS"
	TagQuery       = "QUERY"
	TagExampleName = "EXAMPLE-NAME"
)

const separator = ";"

// ScenarioMetadataFilter is a tag filter. Empty sets do not constrain.
type ScenarioMetadataFilter struct {
	Methods      []string
	Paths        []string
	StatusCodes  []string
	Headers      []string
	QueryParams  []string
	ExampleNames []string
}

// ParseTags reads a tag filter. Unknown tags and malformed clauses are
// ignored.
func ParseTags(text string) ScenarioMetadataFilter {
	clauses := strings.Split(text, separator)
	return ScenarioMetadataFilter{
		Methods:      valuesFor(clauses, TagMethod),
		Paths:        valuesFor(clauses, TagPath),
		StatusCodes:  valuesFor(clauses, TagStatus),
		Headers:      valuesFor(clauses, TagHeaders),
		QueryParams:  valuesFor(clauses, TagQuery),
		ExampleNames: valuesFor(clauses, TagExampleName),
	}
}

func valuesFor(clauses []string, tag string) []string {
	var out []string
	for _, clause := range clauses {
		key, vals, ok := strings.Cut(strings.TrimSpace(clause), "=")
		if !ok || strings.Contains(vals, "=") || strings.TrimSpace(key) != tag {
			continue
		}
		for _, v := range strings.Split(vals, ",") {
			if v = strings.TrimSpace(v); v != "" && !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// IsEmpty reports whether the filter has no clauses.
func (f ScenarioMetadataFilter) IsEmpty() bool {
	return len(f.Methods)+len(f.Paths)+len(f.StatusCodes)+len(f.Headers)+len(f.QueryParams)+len(f.ExampleNames) == 0
}

// Matches is IsSatisfiedByAll.
func (f ScenarioMetadataFilter) Matches(m ScenarioMetadata) bool { return f.IsSatisfiedByAll(m) }

// IsSatisfiedByAll reports whether m satisfies every clause. An example
// name is required whenever example names are filtered on.
func (f ScenarioMetadataFilter) IsSatisfiedByAll(m ScenarioMetadata) bool {
	return containsLenient(f.Methods, m.Method, strings.EqualFold) &&
		containsLenient(f.Paths, m.Path, pathMatches) &&
		containsLenient(f.StatusCodes, strconv.Itoa(m.StatusCode), statusMatches) &&
		(len(f.ExampleNames) == 0 || (m.ExampleName != "" && slices.Contains(f.ExampleNames, m.ExampleName))) &&
		(len(f.Headers) == 0 || anyIn(f.Headers, m.Header)) &&
		(len(f.QueryParams) == 0 || anyIn(f.QueryParams, m.Query))
}

// IsSatisfiedByAtLeastOne reports whether m satisfies any clause. An
// empty filter is satisfied by nothing.
func (f ScenarioMetadataFilter) IsSatisfiedByAtLeastOne(m ScenarioMetadata) bool {
	return containsStrict(f.Methods, m.Method, strings.EqualFold) ||
		containsStrict(f.Paths, m.Path, pathMatches) ||
		containsStrict(f.StatusCodes, strconv.Itoa(m.StatusCode), statusMatches) ||
		(m.ExampleName != "" && slices.Contains(f.ExampleNames, m.ExampleName)) ||
		anyIn(f.Headers, m.Header) ||
		anyIn(f.QueryParams, m.Query)
}

func containsLenient(set []string, element string, eq func(want, got string) bool) bool {
	return len(set) == 0 || containsStrict(set, element, eq)
}

func containsStrict(set []string, element string, eq func(want, got string) bool) bool {
	for _, want := range set {
		if eq(want, element) {
			return true
		}
	}
	return false
}

func anyIn(set, elements []string) bool {
	for _, e := range elements {
		if slices.Contains(set, e) {
			return true
		}
	}
	return false
}

// pathMatches compares a path filter with a path template. Filters may use
// doublestar globs.
func pathMatches(want, got string) bool {
	if want == got {
		return true
	}
	ok, err := doublestar.Match(want, got)
	return err == nil && ok
}

// statusMatches accepts exact codes and class patterns such as "2xx".
func statusMatches(want, got string) bool {
	if want == got {
		return true
	}
	if len(want) == 3 && strings.HasSuffix(strings.ToLower(want), "xx") && len(got) == 3 {
		return want[0] == got[0]
	}
	return false
}

// All selects every scenario.
type All struct{}

func (All) Matches(ScenarioMetadata) bool { return true }

// Parse reads a filter from configuration text. Text containing an
// operator is an expression; anything else is a tag filter. Empty text
// selects everything.
func Parse(text string) (Filter, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return All{}, nil
	}
	if looksLikeExpression(text) {
		return NewExpression(text)
	}
	return ParseTags(text), nil
}

func looksLikeExpression(text string) bool {
	for _, op := range []string{"==", "!=", "&&", "||", ">=", "<=", " in ", "matches", "startsWith", "!"} {
		if strings.Contains(text, op) {
			return true
		}
	}
	return false
}
