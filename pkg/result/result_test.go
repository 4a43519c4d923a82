package result

import (
	"errors"
	"fmt"
	"testing"

	"github.com/getmockd/contractd/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedScenario string

func (n namedScenario) TestDescription() string { return string(n) }

func TestReport_JoinsBreadCrumbs(t *testing.T) {
	f := NewFailure("Expected string, actual was 10 (number)").
		WithBreadCrumb("name").
		WithBreadCrumb("[0]").
		WithBreadCrumb("BODY").
		WithBreadCrumb("REQUEST")

	assert.Equal(t, []string{"REQUEST.BODY[0].name"}, f.Paths())
	assert.Contains(t, f.Report(), ">> REQUEST.BODY[0].name")
	assert.Contains(t, f.Report(), "Expected string, actual was 10 (number)")
}

func TestReport_TypeAliasCrumb(t *testing.T) {
	f := NewFailure("boom").WithBreadCrumb("(~~~Person object)").WithBreadCrumb("BODY")
	assert.Equal(t, []string{"BODY (when Person object)"}, f.Paths())

	assert.Equal(t, []string{"(when Cat object).meows"}, NewFailure("x").WithBreadCrumb("meows").WithBreadCrumb("(~~~Cat object)").Paths())
}

func TestFailureReasonFlags(t *testing.T) {
	tests := []struct {
		reason      FailureReason
		fluffy      bool
		objectMatch bool
	}{
		{URLPathMismatch, true, false},
		{SOAPActionMismatch, true, false},
		{StatusMismatch, true, false},
		{RequestMismatchButStatusAlsoWrong, true, false},
		{ContentTypeMismatch, true, false},
		{MethodMismatch, true, false},
		{DiscriminatorMismatch, false, false},
		{FailedButDiscriminatorMatched, false, true},
		{FailedButObjectTypeMatched, false, true},
		{NoReason, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.reason.String(), func(t *testing.T) {
			assert.Equal(t, tt.fluffy, tt.reason.Fluffy())
			assert.Equal(t, tt.objectMatch, tt.reason.ObjectMatchOccurred())
		})
	}
}

func TestIsFluffy_OwnReasonWins(t *testing.T) {
	fluffyCause := NewFailure("wrong path").WithReason(URLPathMismatch)

	parent := FromFailures([]*Failure{fluffyCause, NewFailure("other")})
	assert.True(t, parent.IsFluffy(), "inherits from a cause")

	overridden := parent.WithReason(FailedButObjectTypeMatched)
	assert.False(t, overridden.IsFluffy(), "own reason decides")
}

func TestRemoveReasonsFromCauses(t *testing.T) {
	tree := FromFailures([]*Failure{NewFailure("x").WithReason(FailedButDiscriminatorMatched)})
	require.True(t, tree.HasReason(FailedButDiscriminatorMatched))

	cleared := tree.RemoveReasonsFromCauses()
	assert.False(t, cleared.HasReason(FailedButDiscriminatorMatched))
	assert.True(t, tree.HasReason(FailedButDiscriminatorMatched), "original untouched")
}

func TestFromResults(t *testing.T) {
	assert.True(t, FromResults(nil).IsSuccess())
	assert.True(t, FromResults([]Result{NewSuccess(), NewSuccess()}).IsSuccess())

	f := NewFailure("bad")
	assert.Same(t, f, FromResults([]Result{NewSuccess(), f}))
	assert.False(t, FromResults([]Result{f, NewFailure("worse")}).IsSuccess())
}

func TestDefaultMismatchMessages(t *testing.T) {
	m := DefaultMismatchMessages{}

	assert.Equal(t, "Expected string, actual was 10 (number)",
		MismatchResult("string", value.NumberFromInt(10), m).Message)
	assert.Equal(t, `Query param named "q" was unexpected`, m.UnexpectedKey("query param", "q"))
	assert.Equal(t, `Expected header named "X-Id" was missing`, m.ExpectedKeyWasMissing("header", "X-Id"))
}

func TestContractError(t *testing.T) {
	ce := NewContractError("Type %s does not exist", "(Person)")
	wrapped := fmt.Errorf("loading: %w", BreadCrumbError(ce, "BODY"))

	assert.False(t, IsCycleError(wrapped))
	assert.Equal(t, []string{"BODY"}, ToFailure(wrapped).Paths())

	assert.True(t, IsCycleError(fmt.Errorf("x: %w", NewCycleError("(Person)"))))
	assert.Equal(t, "Exception: plain", ToFailure(errors.New("plain")).Message)
}

func TestResults(t *testing.T) {
	f := NewFailure("bad").WithScenario(namedScenario("GET /x"))
	rs := Results{}
	rs.Add(NewSuccess(), f, f)

	assert.False(t, rs.Success())
	assert.Equal(t, 2, rs.FailureCount())
	assert.Equal(t, 1, rs.Distinct().FailureCount())
	assert.Contains(t, rs.Report(), `In scenario "GET /x"`)
	assert.Equal(t, "Tests run: 3, Successes: 1, Failures: 2", rs.Summary())
}

func TestSuccessWithVariables(t *testing.T) {
	s := NewSuccess().WithVariables(map[string]string{"id": "1"})
	s2 := s.WithVariables(map[string]string{"name": "x"})

	assert.Equal(t, map[string]string{"id": "1"}, s.Variables)
	assert.Equal(t, map[string]string{"id": "1", "name": "x"}, s2.Variables)
}
