package stateful

import (
	"slices"
	"sort"

	"github.com/getmockd/contractd/pkg/value"
)

// satisfiesFilter reports whether every filter key that body has carries
// the filter value. Keys body does not have are ignored.
func satisfiesFilter(body *value.JSONObjectValue, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := body.Get(key)
		if !ok {
			continue
		}
		if got.StringLiteral() != want {
			return false
		}
	}
	return true
}

// selectAttributes drops the keys of body that are not in keys. An empty
// selection keeps everything.
func selectAttributes(body *value.JSONObjectValue, keys []string) *value.JSONObjectValue {
	if len(keys) == 0 {
		return body
	}
	var drop []string
	for _, k := range body.Keys() {
		if !slices.Contains(keys, k) {
			drop = append(drop, k)
		}
	}
	return body.Without(drop...)
}

// mergeBodies returns base with every key of update set, in base's order
// followed by any new keys.
func mergeBodies(base, update *value.JSONObjectValue) *value.JSONObjectValue {
	merged := base
	for _, f := range update.Fields() {
		merged = merged.With(f.Key, f.Value)
	}
	return merged
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
