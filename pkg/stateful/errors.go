package stateful

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/getmockd/contractd/pkg/contract"
	"github.com/getmockd/contractd/pkg/value"
)

// NotFoundError is returned when no stored resource has the requested id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %q item %q not found", e.Resource, e.ID)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *NotFoundError) Hint() string {
	return fmt.Sprintf("Check that item ID %q exists. Use GET %s to list stored items.", e.ID, e.Resource)
}

// ValidationError is returned when a request body cannot be stored.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ValidationError) Hint() string {
	if e.Field != "" {
		return fmt.Sprintf("Check the value of field %q in your request body.", e.Field)
	}
	return "Check your request body format and required fields."
}

// StatusCodeError is an interface for errors that have an HTTP status code.
type StatusCodeError interface {
	error
	StatusCode() int
}

// HintError is an interface for errors that provide resolution hints.
type HintError interface {
	error
	Hint() string
}

// ToErrorResponse renders err as the JSON error response a stub sends.
// A request that no scenario accepts is a 400 carrying the match report.
func ToErrorResponse(err error) contract.HTTPResponse {
	status := http.StatusInternalServerError
	fields := []value.Field{{Key: "error", Value: value.StringValue(err.Error())}}

	var noMatch *contract.NoMatchError
	var sc StatusCodeError
	switch {
	case errors.As(err, &noMatch):
		status = http.StatusBadRequest
		fields[0].Value = value.StringValue("request did not match the contract")
		if report := noMatch.Failures.Report(); report != "" {
			fields = append(fields, value.Field{Key: "detail", Value: value.StringValue(report)})
		}
	case errors.As(err, &sc):
		status = sc.StatusCode()
	}

	var he HintError
	if errors.As(err, &he) {
		fields = append(fields, value.Field{Key: "hint", Value: value.StringValue(he.Hint())})
	}
	return contract.HTTPResponse{
		Status:  status,
		Headers: map[string]string{contract.ContentTypeHeader: "application/json"},
		Body:    value.NewJSONObject(fields...),
	}
}
