// Package matching ranks scenarios that did not accept a request by how
// much of the request they did accept.
//
// A match result from the contract engine is a failure tree whose paths
// start with a request part ("REQUEST.PATH", "REQUEST.HEADERS.X-Id"). The
// scoring walks those paths against a list of weighted fields:
//
//   - Gate fields (path, method) stop the comparison when they fail, since
//     nothing after them was evaluated
//   - Other fields score individually, so a scenario that got only the body
//     wrong ranks above one that also got the headers wrong
//
// Score constants are defined in scores.go.
package matching
