// Package httputil connects the transport-free contract types to net/http.
//
// RequestFrom and WriteResponse adapt an http.Handler to any function from
// contract.HTTPRequest to contract.HTTPResponse, which is how stubs are
// served. NewRequest, ResponseFrom and Executor go the other way, sending
// generated contract requests to a system under test.
//
// StubServer answers from validated expectations before falling back to
// the contract, and accepts server state on DefaultStatePath, where
// Executor posts it.
package httputil
