package pattern

import "strings"

// KeySets picks which optional keys appear in each generated variant: every
// key, and only the mandatory ones (plus those the row fills in). With
// positive generation each remaining optional key also gets a variant of
// its own.
func KeySets(keys []string, row Row, g GenerationStrategy) [][]string {
	var all, minimal, extras []string
	for _, k := range keys {
		if IsOptional(k) && row.IsOmitted(k) {
			continue
		}
		all = append(all, k)
		if !IsOptional(k) || row.ContainsField(k) {
			minimal = append(minimal, k)
		} else {
			extras = append(extras, k)
		}
	}

	sets := [][]string{all, minimal}
	if g.Positive() {
		for _, extra := range extras {
			var set []string
			for _, k := range all {
				if k == extra || !IsOptional(k) || row.ContainsField(k) {
					set = append(set, k)
				}
			}
			sets = append(sets, set)
		}
	}

	seen := make(map[string]bool, len(sets))
	out := make([][]string, 0, len(sets))
	for _, set := range sets {
		id := strings.Join(set, "\x00")
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, set)
	}
	return out
}

// Cover zips the per-key variant lists, reusing the last variant of shorter
// lists, so that every variant of every key shows up at least once without
// building the full cartesian product. A key with no variants is left out.
func Cover(keys []string, options map[string][]ReturnValue[Pattern]) []ReturnValue[[]Entry] {
	n := 0
	for _, k := range keys {
		n = max(n, len(options[k]))
	}
	out := make([]ReturnValue[[]Entry], 0, n)
	for i := 0; i < n; i++ {
		entries := make([]Entry, 0, len(keys))
		var failed *ReturnValue[[]Entry]
		for _, k := range keys {
			opts := options[k]
			if len(opts) == 0 {
				continue
			}
			chosen := opts[min(i, len(opts)-1)]
			if !chosen.OK() {
				rv := HasFailure[[]Entry](chosen.AsFailure().WithBreadCrumb(WithoutOptionality(k)))
				failed = &rv
				break
			}
			entries = append(entries, Entry{Key: k, Pattern: chosen.Value})
		}
		if failed != nil {
			out = append(out, *failed)
			continue
		}
		out = append(out, HasValue(entries))
	}
	return out
}

// MutateOneAtATime produces, for each key that has mutations, one variant
// per mutation with every other key at its first positive variant.
func MutateOneAtATime(keys []string, positive map[string]Pattern, negatives map[string][]ReturnValue[Pattern]) []ReturnValue[[]Entry] {
	var out []ReturnValue[[]Entry]
	for _, target := range keys {
		for _, neg := range negatives[target] {
			if !neg.OK() {
				out = append(out, HasFailure[[]Entry](neg.AsFailure().WithBreadCrumb(WithoutOptionality(target))))
				continue
			}
			entries := make([]Entry, 0, len(keys))
			for _, k := range keys {
				if k == target {
					entries = append(entries, Entry{Key: k, Pattern: neg.Value})
				} else if p, ok := positive[k]; ok {
					entries = append(entries, Entry{Key: k, Pattern: p})
				}
			}
			out = append(out, HasValueWithMessage(entries, annotate(WithoutOptionality(target), neg.Message)))
		}
	}
	return out
}

func annotate(crumb, message string) string {
	if message == "" {
		return ""
	}
	return crumb + " " + message
}
