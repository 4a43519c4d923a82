package pattern

import "github.com/getmockd/contractd/pkg/result"

// ReturnValue is one element of a variant list: a value, or the failure or
// error that prevented producing it. Message annotates mutations, as in
// "mutated to null".
type ReturnValue[T any] struct {
	Value   T
	Failure *result.Failure
	Err     error
	Message string
}

// HasValue wraps v.
func HasValue[T any](v T) ReturnValue[T] { return ReturnValue[T]{Value: v} }

// HasValueWithMessage wraps v with an annotation.
func HasValueWithMessage[T any](v T, message string) ReturnValue[T] {
	return ReturnValue[T]{Value: v, Message: message}
}

// HasFailure records a failure in place of a value.
func HasFailure[T any](f *result.Failure) ReturnValue[T] { return ReturnValue[T]{Failure: f} }

// HasError records an error in place of a value.
func HasError[T any](err error) ReturnValue[T] { return ReturnValue[T]{Err: err} }

// OK reports whether the element carries a value.
func (rv ReturnValue[T]) OK() bool { return rv.Failure == nil && rv.Err == nil }

// AsFailure returns the failure this element stands for, if any.
func (rv ReturnValue[T]) AsFailure() *result.Failure {
	if rv.Failure != nil {
		return rv.Failure
	}
	if rv.Err != nil {
		return result.ToFailure(rv.Err)
	}
	return nil
}

// BreadCrumb locates a failed element under crumb.
func (rv ReturnValue[T]) BreadCrumb(crumb string) ReturnValue[T] {
	if rv.Failure != nil {
		rv.Failure = rv.Failure.WithBreadCrumb(crumb)
	}
	if rv.Err != nil {
		rv.Err = result.BreadCrumbError(rv.Err, crumb)
	}
	return rv
}

// MapReturnValue converts the value of rv, keeping its failure, error and
// message.
func MapReturnValue[T, U any](rv ReturnValue[T], fn func(T) U) ReturnValue[U] {
	out := ReturnValue[U]{Failure: rv.Failure, Err: rv.Err, Message: rv.Message}
	if rv.OK() {
		out.Value = fn(rv.Value)
	}
	return out
}

// Values extracts the successful values.
func Values[T any](rvs []ReturnValue[T]) []T {
	out := make([]T, 0, len(rvs))
	for _, rv := range rvs {
		if rv.OK() {
			out = append(out, rv.Value)
		}
	}
	return out
}

// FirstError returns the first failure or error in rvs as an error.
func FirstError[T any](rvs []ReturnValue[T]) error {
	for _, rv := range rvs {
		if rv.Err != nil {
			return rv.Err
		}
		if rv.Failure != nil {
			return result.ContractErrorFromFailure(rv.Failure)
		}
	}
	return nil
}

func wrapAll(ps []Pattern) []ReturnValue[Pattern] {
	out := make([]ReturnValue[Pattern], 0, len(ps))
	for _, p := range ps {
		out = append(out, HasValue(p))
	}
	return out
}
