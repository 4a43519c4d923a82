package matching

import (
	"sort"
	"strings"

	"github.com/getmockd/contractd/pkg/result"
)

// Field is one weighted part of a request, identified by the breadcrumb
// path its failures are reported under.
type Field struct {
	Name     string
	Crumb    string
	MaxScore int
	// Gate fields end the comparison when they fail.
	Gate bool
}

// FieldResult describes whether a single field matched.
type FieldResult struct {
	Field    string `json:"field"`
	Matched  bool   `json:"matched"`
	Skipped  bool   `json:"skipped,omitempty"`
	Score    int    `json:"score"`
	MaxScore int    `json:"maxScore"`
	Details  string `json:"details,omitempty"`
}

// NearMiss is a scenario that partially matched a request.
type NearMiss struct {
	Candidate        string        `json:"candidate"`
	Score            int           `json:"score"`
	MaxPossibleScore int           `json:"maxPossibleScore"`
	MatchPercentage  int           `json:"matchPercentage"`
	Fields           []FieldResult `json:"fields"`
	Reason           string        `json:"reason"`
}

// Candidate pairs a scenario name with the outcome of matching it.
type Candidate struct {
	Name   string
	Result result.Result
}

// MatchBreakdown scores res field by field.
func MatchBreakdown(res result.Result, fields []Field) *NearMiss {
	nm := &NearMiss{}
	f, _ := res.(*result.Failure)
	leaves := leafReports(f)

	gateClosed := false
	for _, field := range fields {
		fr := FieldResult{Field: field.Name, MaxScore: field.MaxScore}
		nm.MaxPossibleScore += field.MaxScore
		switch {
		case gateClosed:
			fr.Skipped = true
		default:
			msg, failed := firstUnder(leaves, field.Crumb)
			if failed {
				fr.Details = msg
				gateClosed = field.Gate
			} else {
				fr.Matched = true
				fr.Score = field.MaxScore
				nm.Score += field.MaxScore
			}
		}
		nm.Fields = append(nm.Fields, fr)
	}

	if nm.MaxPossibleScore > 0 {
		nm.MatchPercentage = (nm.Score * 100) / nm.MaxPossibleScore
	}
	nm.Reason = GenerateReason(nm.Fields)
	return nm
}

type leafReport struct {
	path    string
	message string
}

func leafReports(f *result.Failure) []leafReport {
	if f == nil {
		return nil
	}
	paths := f.Paths()
	var out []leafReport
	for i, msg := range leafMessages(f) {
		if i < len(paths) {
			out = append(out, leafReport{path: paths[i], message: msg})
		}
	}
	return out
}

// leafMessages lists messages in the same order as Failure.Paths.
func leafMessages(f *result.Failure) []string {
	var out []string
	if f.Message != "" {
		out = append(out, f.Message)
	}
	for _, c := range f.Causes {
		out = append(out, leafMessages(c)...)
	}
	return out
}

func firstUnder(leaves []leafReport, crumb string) (string, bool) {
	for _, l := range leaves {
		if l.path == crumb || strings.HasPrefix(l.path, crumb+".") || strings.HasPrefix(l.path, crumb+"[") {
			return l.message, true
		}
	}
	return "", false
}

// CollectNearMisses scores the failed candidates and returns the top N by
// score. Candidates that matched nothing are left out.
func CollectNearMisses(candidates []Candidate, fields []Field, topN int) []NearMiss {
	if topN <= 0 {
		topN = 3
	}

	var out []NearMiss
	for _, c := range candidates {
		if c.Result == nil || c.Result.IsSuccess() {
			continue
		}
		nm := MatchBreakdown(c.Result, fields)
		if nm.Score == 0 {
			continue
		}
		nm.Candidate = c.Name
		out = append(out, *nm)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MatchPercentage > out[j].MatchPercentage
	})

	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// GenerateReason explains why a candidate partially matched but failed.
func GenerateReason(fields []FieldResult) string {
	if len(fields) == 0 {
		return "no fields to compare"
	}

	var matched []string
	var firstMismatch *FieldResult
	for i := range fields {
		if fields[i].Matched {
			matched = append(matched, fields[i].Field)
		} else if firstMismatch == nil && !fields[i].Skipped {
			firstMismatch = &fields[i]
		}
	}

	if firstMismatch == nil {
		return "all specified fields matched"
	}
	if len(matched) == 0 {
		return formatMismatch(firstMismatch)
	}
	return joinFields(matched) + " matched, but " + formatMismatch(firstMismatch)
}

func formatMismatch(f *FieldResult) string {
	if f.Details == "" {
		return f.Field + " did not match"
	}
	return f.Field + " did not match: " + firstLine(f.Details)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// joinFields joins field names with commas and "and".
func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	case 2:
		return fields[0] + " and " + fields[1]
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1]
	}
}
