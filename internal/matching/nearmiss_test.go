package matching

import (
	"strings"
	"testing"

	"github.com/getmockd/contractd/pkg/result"
)

var requestFields = []Field{
	{Name: "path", Crumb: "REQUEST.PATH", MaxScore: ScorePathExact, Gate: true},
	{Name: "method", Crumb: "REQUEST.METHOD", MaxScore: ScoreMethod, Gate: true},
	{Name: "headers", Crumb: "REQUEST.HEADERS", MaxScore: ScoreHeader},
	{Name: "query", Crumb: "REQUEST.QUERY-PARAMS", MaxScore: ScoreQueryParam},
	{Name: "body", Crumb: "REQUEST.BODY", MaxScore: ScoreBodyEquals},
}

func failureAt(message string, crumbs ...string) *result.Failure {
	f := result.NewFailure(message)
	for i := len(crumbs) - 1; i >= 0; i-- {
		f = f.WithBreadCrumb(crumbs[i])
	}
	return f
}

func TestMatchBreakdown_Success(t *testing.T) {
	nm := MatchBreakdown(result.NewSuccess(), requestFields)
	if nm.MatchPercentage != 100 {
		t.Errorf("expected 100%% match, got %d%%", nm.MatchPercentage)
	}
	if nm.Reason != "all specified fields matched" {
		t.Errorf("unexpected reason %q", nm.Reason)
	}
}

func TestMatchBreakdown_BodyMismatch(t *testing.T) {
	nm := MatchBreakdown(failureAt("Expected number, actual was string", "REQUEST", "BODY", "age"), requestFields)

	want := ScorePathExact + ScoreMethod + ScoreHeader + ScoreQueryParam
	if nm.Score != want {
		t.Errorf("expected score %d, got %d", want, nm.Score)
	}
	if nm.Fields[4].Matched {
		t.Error("expected body to be reported as mismatched")
	}
	if !strings.Contains(nm.Reason, "path, method, headers, and query matched, but body did not match") {
		t.Errorf("unexpected reason %q", nm.Reason)
	}
}

func TestMatchBreakdown_GateStopsComparison(t *testing.T) {
	nm := MatchBreakdown(failureAt("Expected GET, actual was POST", "REQUEST", "METHOD"), requestFields)

	if nm.Score != ScorePathExact {
		t.Errorf("expected score %d, got %d", ScorePathExact, nm.Score)
	}
	for _, f := range nm.Fields[2:] {
		if !f.Skipped {
			t.Errorf("expected %s to be skipped", f.Field)
		}
	}
	if nm.Reason != "path matched, but method did not match: Expected GET, actual was POST" {
		t.Errorf("unexpected reason %q", nm.Reason)
	}
}

func TestCollectNearMisses(t *testing.T) {
	candidates := []Candidate{
		{Name: "ok", Result: result.NewSuccess()},
		{Name: "wrong path", Result: failureAt("no", "REQUEST", "PATH")},
		{Name: "wrong headers and body", Result: result.FromFailures([]*result.Failure{
			failureAt("h", "HEADERS", "X-Id"),
			failureAt("b", "BODY"),
		}).WithBreadCrumb("REQUEST")},
		{Name: "wrong body", Result: failureAt("b", "REQUEST", "BODY")},
	}

	got := CollectNearMisses(candidates, requestFields, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 near misses, got %d", len(got))
	}
	if got[0].Candidate != "wrong body" || got[1].Candidate != "wrong headers and body" {
		t.Errorf("unexpected order: %s, %s", got[0].Candidate, got[1].Candidate)
	}

	if top := CollectNearMisses(candidates, requestFields, 1); len(top) != 1 {
		t.Errorf("expected topN to cap results, got %d", len(top))
	}
}

func TestJoinFields(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b"}, "a and b"},
		{[]string{"a", "b", "c"}, "a, b, and c"},
	}
	for _, tt := range tests {
		if got := joinFields(tt.in); got != tt.want {
			t.Errorf("joinFields(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
