// Package result models the outcome of matching a value against a pattern:
// success, or a failure tree that carries a breadcrumb path to the offending
// location and a reason classifying the mismatch.
package result

import (
	"maps"
	"strings"
)

// ScenarioRef identifies the scenario a result was produced for.
type ScenarioRef interface {
	TestDescription() string
}

// Result is either *Success or *Failure.
type Result interface {
	IsSuccess() bool
	// BreadCrumb prefixes the location of a failure. Success ignores it.
	BreadCrumb(crumb string) Result
	// WithScenario attaches the scenario the result belongs to.
	WithScenario(s ScenarioRef) Result
	// Report renders the result for humans.
	Report() string

	isResult()
}

// Success is a passing result. Variables holds values captured by response
// bindings.
type Success struct {
	Variables map[string]string
	Scenario  ScenarioRef
}

// NewSuccess returns an empty success.
func NewSuccess() *Success { return &Success{} }

func (s *Success) IsSuccess() bool          { return true }
func (s *Success) BreadCrumb(string) Result { return s }
func (s *Success) Report() string           { return "" }
func (*Success) isResult()                  {}

func (s *Success) WithScenario(sc ScenarioRef) Result {
	return &Success{Variables: s.Variables, Scenario: sc}
}

// WithVariables returns a copy of s with vars merged in.
func (s *Success) WithVariables(vars map[string]string) *Success {
	merged := maps.Clone(s.Variables)
	if merged == nil {
		merged = make(map[string]string, len(vars))
	}
	maps.Copy(merged, vars)
	return &Success{Variables: merged, Scenario: s.Scenario}
}

// Failure is a node in a failure tree.
type Failure struct {
	Message  string
	Crumb    string
	Causes   []*Failure
	Reason   FailureReason
	Scenario ScenarioRef
}

// NewFailure returns a leaf failure with message.
func NewFailure(message string) *Failure {
	return &Failure{Message: message}
}

// FromFailures groups several failures under one node.
func FromFailures(failures []*Failure) *Failure {
	return &Failure{Causes: append([]*Failure(nil), failures...)}
}

// FromResults returns success when every result succeeded, otherwise the
// grouped failures.
func FromResults(results []Result) Result {
	var failures []*Failure
	for _, r := range results {
		if f, ok := r.(*Failure); ok {
			failures = append(failures, f)
		}
	}
	if len(failures) == 0 {
		return NewSuccess()
	}
	if len(failures) == 1 {
		return failures[0]
	}
	return FromFailures(failures)
}

func (f *Failure) IsSuccess() bool { return false }
func (*Failure) isResult()         {}

func (f *Failure) BreadCrumb(crumb string) Result { return f.WithBreadCrumb(crumb) }

// WithBreadCrumb wraps f under crumb.
func (f *Failure) WithBreadCrumb(crumb string) *Failure {
	if crumb == "" {
		return f
	}
	return &Failure{Crumb: crumb, Causes: []*Failure{f}, Scenario: f.Scenario}
}

func (f *Failure) WithScenario(s ScenarioRef) Result {
	c := *f
	c.Scenario = s
	return &c
}

// WithReason returns a copy of f carrying reason.
func (f *Failure) WithReason(reason FailureReason) *Failure {
	c := *f
	c.Reason = reason
	return &c
}

// WithMessage returns a copy of f with message replaced.
func (f *Failure) WithMessage(message string) *Failure {
	c := *f
	c.Message = message
	return &c
}

// HasReason reports whether f or any of its causes carries reason.
func (f *Failure) HasReason(reason FailureReason) bool {
	if f.Reason == reason {
		return true
	}
	for _, c := range f.Causes {
		if c.HasReason(reason) {
			return true
		}
	}
	return false
}

// IsFluffy reports whether the failure means "not a candidate at all". A
// node's own reason decides when present, otherwise any fluffy cause does.
func (f *Failure) IsFluffy() bool {
	if f.Reason != NoReason {
		return f.Reason.Fluffy()
	}
	for _, c := range f.Causes {
		if c.IsFluffy() {
			return true
		}
	}
	return false
}

// ObjectMatchOccurred reports whether any node says the value was
// recognised as the right object before failing.
func (f *Failure) ObjectMatchOccurred() bool {
	if f.Reason.ObjectMatchOccurred() {
		return true
	}
	for _, c := range f.Causes {
		if c.ObjectMatchOccurred() {
			return true
		}
	}
	return false
}

// RemoveReasonsFromCauses returns a copy of the tree with every reason
// cleared.
func (f *Failure) RemoveReasonsFromCauses() *Failure {
	c := *f
	c.Reason = NoReason
	c.Causes = make([]*Failure, 0, len(f.Causes))
	for _, cause := range f.Causes {
		c.Causes = append(c.Causes, cause.RemoveReasonsFromCauses())
	}
	return &c
}

// IsFluffy is a convenience for results that may be successes.
func IsFluffy(r Result) bool {
	f, ok := r.(*Failure)
	return ok && f.IsFluffy()
}

// Report renders every leaf failure as a ">> PATH" heading followed by its
// message.
func (f *Failure) Report() string {
	var b strings.Builder
	for i, leaf := range f.leaves("") {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if leaf.path != "" {
			b.WriteString(">> ")
			b.WriteString(leaf.path)
			b.WriteString("\n\n")
		}
		b.WriteString("   ")
		b.WriteString(strings.ReplaceAll(leaf.message, "\n", "\n   "))
	}
	return b.String()
}

// Paths returns the breadcrumb path of every leaf failure.
func (f *Failure) Paths() []string {
	var out []string
	for _, leaf := range f.leaves("") {
		out = append(out, leaf.path)
	}
	return out
}

// Error lets a Failure travel as an error.
func (f *Failure) Error() string { return f.Report() }

type leaf struct {
	path    string
	message string
}

func (f *Failure) leaves(prefix string) []leaf {
	path := joinCrumb(prefix, f.Crumb)
	var out []leaf
	if f.Message != "" {
		out = append(out, leaf{path: path, message: f.Message})
	}
	for _, c := range f.Causes {
		out = append(out, c.leaves(path)...)
	}
	return out
}

func joinCrumb(prefix, crumb string) string {
	switch {
	case crumb == "":
		return prefix
	case strings.HasPrefix(crumb, "(~~~"):
		return strings.TrimSpace(prefix + " (when " + strings.TrimSuffix(strings.TrimPrefix(crumb, "(~~~"), ")") + ")")
	case prefix == "":
		return crumb
	case strings.HasPrefix(crumb, "["):
		return prefix + crumb
	}
	return prefix + "." + crumb
}
