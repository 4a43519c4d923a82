package contract

import (
	"strings"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
)

// Headers, query parameters and path parameters are all keyed collections
// of scalar patterns. These helpers share the object-style coverage rules
// between them.

func entryKeys(entries []pattern.Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func findEntry(entries []pattern.Entry, name string, foldCase bool) (pattern.Entry, bool) {
	for _, e := range entries {
		bare := pattern.WithoutOptionality(e.Key)
		if bare == name || (foldCase && strings.EqualFold(bare, name)) {
			return e, true
		}
	}
	return pattern.Entry{}, false
}

// withoutMarkers makes every generated entry mandatory: a variant that
// leaves an optional key out simply does not contain it.
func withoutMarkers(entries []pattern.Entry) []pattern.Entry {
	out := make([]pattern.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, pattern.Entry{Key: pattern.WithoutOptionality(e.Key), Pattern: e.Pattern})
	}
	return out
}

// entryVariants expands entries for one row: key sets pick the optional
// keys, and the per-key variants are zipped together.
func entryVariants(entries []pattern.Entry, row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[[]pattern.Entry], error) {
	byKey := make(map[string]pattern.Pattern, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Pattern
	}

	var out []pattern.ReturnValue[[]pattern.Entry]
	for _, set := range pattern.KeySets(entryKeys(entries), row, r.Generation()) {
		options := make(map[string][]pattern.ReturnValue[pattern.Pattern], len(set))
		for _, k := range set {
			pat := byKey[k]
			if row.ContainsField(k) {
				options[k] = []pattern.ReturnValue[pattern.Pattern]{pattern.FromRowValue(pat, row.GetField(k), r)}
				continue
			}
			opts, err := pat.NewBasedOn(row, r)
			if err != nil {
				return nil, result.BreadCrumbError(err, pattern.WithoutOptionality(k))
			}
			options[k] = opts
		}
		if len(set) == 0 {
			out = append(out, pattern.HasValue[[]pattern.Entry](nil))
			continue
		}
		for _, combo := range pattern.Cover(set, options) {
			out = append(out, pattern.MapReturnValue(combo, withoutMarkers))
		}
	}
	return out, nil
}

// entryNegatives mutates one entry at a time, then drops each mandatory
// entry in turn. Mutations rejected by keep are not used.
func entryNegatives(entries []pattern.Entry, row pattern.Row, r pattern.Resolver, label string, keep func(original, mutated pattern.Pattern) bool) ([]pattern.ReturnValue[[]pattern.Entry], error) {
	keys := entryKeys(entries)
	positive := make(map[string]pattern.Pattern, len(entries))
	negatives := make(map[string][]pattern.ReturnValue[pattern.Pattern], len(entries))
	for _, e := range entries {
		positive[e.Key] = e.Pattern
		negs, err := e.Pattern.NegativeBasedOn(row, r)
		if err != nil {
			return nil, result.BreadCrumbError(err, pattern.WithoutOptionality(e.Key))
		}
		for _, n := range negs {
			if n.OK() && !keep(e.Pattern, n.Value) {
				continue
			}
			negatives[e.Key] = append(negatives[e.Key], n)
		}
	}

	var out []pattern.ReturnValue[[]pattern.Entry]
	for _, combo := range pattern.MutateOneAtATime(keys, positive, negatives) {
		out = append(out, pattern.MapReturnValue(combo, withoutMarkers))
	}
	for _, missing := range keys {
		if pattern.IsOptional(missing) {
			continue
		}
		rest := make([]pattern.Entry, 0, len(entries)-1)
		for _, e := range entries {
			if e.Key != missing {
				rest = append(rest, e)
			}
		}
		out = append(out, pattern.HasValueWithMessage(withoutMarkers(rest), missing+" mandatory "+label+" not sent"))
	}
	return out, nil
}

// encompassEntries requires every entry mine mandates to be mandatory in
// theirs, and each shared entry's pattern to encompass theirs.
func encompassEntries(mine, theirs []pattern.Entry, label string, foldCase bool, thisR, otherR pattern.Resolver) result.Result {
	var results []result.Result
	for _, e := range mine {
		bare := pattern.WithoutOptionality(e.Key)
		other, ok := findEntry(theirs, bare, foldCase)
		if !pattern.IsOptional(e.Key) && (!ok || pattern.IsOptional(other.Key)) {
			results = append(results, result.MissingKeyResult(label, bare, thisR.MismatchMessages()))
			continue
		}
		if !ok {
			continue
		}
		results = append(results, e.Pattern.Encompasses(other.Pattern, thisR, otherR, nil).BreadCrumb(bare))
	}
	return result.FromResults(results)
}

// notNull drops null mutations, which cannot be sent as text.
func notNull(_, mutated pattern.Pattern) bool {
	_, isNull := mutated.(*pattern.NullPattern)
	return !isNull
}
