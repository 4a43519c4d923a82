// Package compat checks that a newer contract can replace an older one
// without breaking the older contract's consumers.
//
// Every scenario of the older contract is turned into a concrete request.
// The request is routed to the newer contract's scenarios, and for each
// scenario that accepts it, the older response pattern must encompass the
// newer one. An operation passes when at least one newer scenario accepts
// both the request and the response.
//
// # Usage
//
//	results := compat.Check(older, newer)
//	if !results.Success() {
//		fmt.Println(results.Report())
//	}
//
// Failures are worded for old-versus-new reports, e.g. "This is number in
// the new contract response but string in the old contract".
package compat
