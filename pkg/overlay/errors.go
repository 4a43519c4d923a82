package overlay

import "fmt"

// ParseError is returned when an overlay document cannot be read.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("overlay: parse %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("overlay: parse: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ValidationError describes a structural problem in an overlay.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("overlay: %s: %s", e.Path, e.Message)
}

// ApplyError is returned when an action cannot be executed.
type ApplyError struct {
	ActionIndex int
	Target      string
	Cause       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("overlay: action[%d] target=%q: %v", e.ActionIndex, e.Target, e.Cause)
}

func (e *ApplyError) Unwrap() error { return e.Cause }
