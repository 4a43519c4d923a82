package compat

import (
	"fmt"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/result"
)

// Failure messages that do not come from a pattern match.
const (
	MsgMissingInNewContract = "This API exists in the old contract but not in the new contract"
	MsgRecursiveDefinition  = "Exception: Stack overflow error, most likely caused by a recursive definition. Please report this with a sample contract as a bug!"
)

// Check compares every operation of older against newer. Identical
// failures reported by several operations appear once.
func Check(older, newer *contract.Feature) result.Results {
	var results result.Results
	for _, rv := range older.GenerateBackwardCompatibilityTestScenarios() {
		if rv.Err != nil {
			results.Add(errorFailure(rv.Err))
			continue
		}
		if rv.Failure != nil {
			results.Add(rv.Failure)
			continue
		}
		if rv.Value.IgnoreFailure {
			continue
		}
		results.Add(CheckScenario(rv.Value, newer)...)
	}
	return results.Distinct()
}

// CheckScenario checks one operation of the older contract against newer.
func CheckScenario(old contract.Scenario, newer *contract.Feature) (out []result.Result) {
	defer func() {
		if p := recover(); p != nil {
			out = []result.Result{result.NewFailure(fmt.Sprintf("Exception: %v", p))}
		}
	}()

	if newer.IsEmpty() {
		at := ""
		if newer.Path != "" {
			at = " at " + newer.Path
		}
		return []result.Result{result.NewFailure(fmt.Sprintf("The contract%s had no operations", at))}
	}

	feature := newer.WithServerState(old.ExpectedFacts)
	req, err := old.GenerateHTTPRequest()
	if err != nil {
		return []result.Result{errorFailure(err)}
	}

	type pair struct{ request, response result.Result }
	var pairs []pair
	for _, m := range feature.CompatibilityLookup(req) {
		if result.IsFluffy(m.Result) {
			continue
		}
		res := encompassResponse(old, m.Scenario)
		if result.IsFluffy(res) {
			continue
		}
		pairs = append(pairs, pair{request: m.Result, response: res})
	}

	if len(pairs) == 0 {
		return []result.Result{result.NewFailure(MsgMissingInNewContract).WithScenario(old)}
	}
	for _, p := range pairs {
		if p.request.IsSuccess() && p.response.IsSuccess() {
			return []result.Result{result.NewSuccess()}
		}
	}
	for _, p := range pairs {
		for _, r := range []result.Result{p.request, p.response} {
			if !r.IsSuccess() {
				out = append(out, r)
			}
		}
	}
	return out
}

// encompassResponse checks that every response the newer scenario may
// send is one the older scenario's consumers accept.
func encompassResponse(old, newer contract.Scenario) result.Result {
	if old.Response == nil || newer.Response == nil {
		return result.NewSuccess().WithScenario(newer)
	}
	messages := contract.NewAndOldContractResponseMismatches{}
	return old.Response.Encompasses(
		newer.Response,
		old.Resolver().WithMismatchMessages(messages),
		newer.Resolver().WithMismatchMessages(messages),
	).WithScenario(newer)
}

func errorFailure(err error) result.Result {
	if result.IsCycleError(err) {
		return result.NewFailure(MsgRecursiveDefinition)
	}
	return result.ToFailure(err)
}
