package pattern

import (
	"maps"
	"sort"
	"strings"
)

// Row is one example: named columns with literal values. Values starting
// with '$' are looked up in Variables.
type Row struct {
	columns   []string
	values    map[string]string
	Name      string
	Variables map[string]string
	// RequestHeaders carries example headers that the contract does not
	// declare, so they can be sent as-is.
	RequestHeaders map[string]string
}

// NewRow builds a row from parallel column and value slices.
func NewRow(columns, values []string) Row {
	r := Row{values: make(map[string]string, len(columns))}
	for i, c := range columns {
		if i >= len(values) {
			break
		}
		if _, dup := r.values[c]; !dup {
			r.columns = append(r.columns, c)
		}
		r.values[c] = values[i]
	}
	return r
}

// RowFromMap builds a row with columns in sorted order.
func RowFromMap(m map[string]string) Row {
	cols := make([]string, 0, len(m))
	for k := range m {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	vals := make([]string, 0, len(cols))
	for _, c := range cols {
		vals = append(vals, m[c])
	}
	return NewRow(cols, vals)
}

// Columns returns the column names in order.
func (r Row) Columns() []string { return append([]string(nil), r.columns...) }

// IsEmpty reports whether the row has no columns.
func (r Row) IsEmpty() bool { return len(r.columns) == 0 }

// ContainsField reports whether the row has a column for name, ignoring any
// '?' marker.
func (r Row) ContainsField(name string) bool {
	_, ok := r.values[WithoutOptionality(name)]
	return ok
}

// GetField returns the value for name with variables substituted.
func (r Row) GetField(name string) string {
	v := r.values[WithoutOptionality(name)]
	if strings.HasPrefix(v, "$") {
		if sub, ok := r.Variables[strings.TrimPrefix(v, "$")]; ok {
			return sub
		}
	}
	return v
}

// IsOmitted reports whether the row asks for key to be left out.
func (r Row) IsOmitted(key string) bool {
	return r.ContainsField(key) && r.GetField(key) == OmitMarker
}

// WithVariables returns a copy of r that resolves '$' references from vars.
func (r Row) WithVariables(vars map[string]string) Row {
	r.Variables = maps.Clone(vars)
	return r
}

// Examples is a named table of rows.
type Examples struct {
	Name string
	Rows []Row
}
