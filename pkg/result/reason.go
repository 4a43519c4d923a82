package result

// FailureReason classifies a failure so that callers can tell structural
// near-misses from wholesale mismatches.
type FailureReason int

const (
	NoReason FailureReason = iota
	PartNotFound
	URLPathMismatch
	URLPathParamMismatchButSameStructure
	SOAPActionMismatch
	StatusMismatch
	RequestMismatchButStatusAlsoWrong
	ContentTypeMismatch
	MethodMismatch
	DiscriminatorMismatch
	FailedButDiscriminatorMatched
	FailedButObjectTypeMatched
)

var reasonNames = map[FailureReason]string{
	NoReason:                             "",
	PartNotFound:                         "PartNotFound",
	URLPathMismatch:                      "URLPathMismatch",
	URLPathParamMismatchButSameStructure: "URLPathParamMismatchButSameStructure",
	SOAPActionMismatch:                   "SOAPActionMismatch",
	StatusMismatch:                       "StatusMismatch",
	RequestMismatchButStatusAlsoWrong:    "RequestMismatchButStatusAlsoWrong",
	ContentTypeMismatch:                  "ContentTypeMismatch",
	MethodMismatch:                       "MethodMismatch",
	DiscriminatorMismatch:                "DiscriminatorMismatch",
	FailedButDiscriminatorMatched:        "FailedButDiscriminatorMatched",
	FailedButObjectTypeMatched:           "FailedButObjectTypeMatched",
}

func (r FailureReason) String() string { return reasonNames[r] }

// Fluffy reports whether a failure with this reason means the candidate was
// never really a match (wrong path, method, status and so on).
func (r FailureReason) Fluffy() bool {
	switch r {
	case PartNotFound, URLPathMismatch, SOAPActionMismatch, StatusMismatch,
		RequestMismatchButStatusAlsoWrong, ContentTypeMismatch, MethodMismatch:
		return true
	}
	return false
}

// ObjectMatchOccurred reports whether the failure happened after the value
// was recognised as the right kind of object.
func (r FailureReason) ObjectMatchOccurred() bool {
	return r == FailedButDiscriminatorMatched || r == FailedButObjectTypeMatched
}
