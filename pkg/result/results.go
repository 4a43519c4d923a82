package result

import (
	"fmt"
	"strings"
)

// Results collects the outcome of many scenarios.
type Results struct {
	Items []Result
}

// Add appends r.
func (rs *Results) Add(r ...Result) { rs.Items = append(rs.Items, r...) }

// Success reports whether every result succeeded.
func (rs Results) Success() bool {
	return rs.FailureCount() == 0
}

// SuccessCount is the number of passing results.
func (rs Results) SuccessCount() int {
	n := 0
	for _, r := range rs.Items {
		if r.IsSuccess() {
			n++
		}
	}
	return n
}

// FailureCount is the number of failing results.
func (rs Results) FailureCount() int { return len(rs.Items) - rs.SuccessCount() }

// Failures returns the failing results.
func (rs Results) Failures() []*Failure {
	var out []*Failure
	for _, r := range rs.Items {
		if f, ok := r.(*Failure); ok {
			out = append(out, f)
		}
	}
	return out
}

// Distinct drops failures whose report duplicates an earlier one.
func (rs Results) Distinct() Results {
	seen := make(map[string]bool)
	var out Results
	for _, r := range rs.Items {
		if f, ok := r.(*Failure); ok {
			key := describe(f) + "\x00" + f.Report()
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out.Add(r)
	}
	return out
}

// Summary is a one-line count of passes and failures.
func (rs Results) Summary() string {
	return fmt.Sprintf("Tests run: %d, Successes: %d, Failures: %d", len(rs.Items), rs.SuccessCount(), rs.FailureCount())
}

// Report renders every failure, headed by its scenario when known.
func (rs Results) Report() string {
	var parts []string
	for _, f := range rs.Failures() {
		body := f.Report()
		if d := describe(f); d != "" {
			body = "In scenario \"" + d + "\"\n" + body
		}
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n\n")
}

func describe(f *Failure) string {
	if f.Scenario == nil {
		return ""
	}
	return f.Scenario.TestDescription()
}
