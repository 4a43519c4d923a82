package result

import (
	"errors"
	"fmt"
)

// ContractError is raised by operations that cannot produce a result at all:
// an unknown type name, an example that does not fit its pattern, or a
// recursion without an exit. Structural mismatches are reported as a
// *Failure instead.
type ContractError struct {
	Failure *Failure
	IsCycle bool
	Err     error
}

// NewContractError returns a ContractError with message.
func NewContractError(format string, args ...any) *ContractError {
	return &ContractError{Failure: NewFailure(fmt.Sprintf(format, args...))}
}

// ContractErrorFromFailure wraps a failure tree.
func ContractErrorFromFailure(f *Failure) *ContractError {
	return &ContractError{Failure: f}
}

// NewCycleError reports a recursive definition that could not be cut short.
func NewCycleError(typeName string) *ContractError {
	return &ContractError{
		Failure: NewFailure(fmt.Sprintf("Invalid pattern cycle: %s", typeName)),
		IsCycle: true,
	}
}

func (e *ContractError) Error() string {
	msg := e.Failure.Report()
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ContractError) Unwrap() error { return e.Err }

// WithBreadCrumb returns a copy of e located under crumb.
func (e *ContractError) WithBreadCrumb(crumb string) *ContractError {
	return &ContractError{Failure: e.Failure.WithBreadCrumb(crumb), IsCycle: e.IsCycle, Err: e.Err}
}

// BreadCrumbError locates err under crumb when it is a ContractError and
// returns other errors unchanged.
func BreadCrumbError(err error, crumb string) error {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.WithBreadCrumb(crumb)
	}
	return err
}

// IsCycleError reports whether err is, or wraps, a cycle ContractError.
func IsCycleError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce) && ce.IsCycle
}

// ToFailure turns any error into a failure tree.
func ToFailure(err error) *Failure {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Failure
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewFailure("Exception: " + err.Error())
}
