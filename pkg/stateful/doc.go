// Package stateful keeps the resources a stub server has created, so that
// later requests see earlier ones.
//
// StubCache stores response bodies keyed by resource path plus an id field
// inside the body. Stub sits in front of a contract and serves CRUD-style
// requests from the cache:
//
//   - POST /pets stores the generated response, merged with the request body
//   - GET /pets/7 returns the stored body whose id is 7
//   - GET /pets lists stored bodies, narrowed by query params
//   - PATCH /pets/7 merges the request body into the stored one
//   - DELETE /pets/7 removes it
//
// Thread Safety:
//
// StubCache serializes every read-modify-write under one mutex, so that two
// concurrent creates with the same id leave exactly one record.
//
// Usage:
//
//	stub := stateful.NewStub(feature, stateful.NewStubCache())
//	resp, err := stub.Serve(req)
package stateful
