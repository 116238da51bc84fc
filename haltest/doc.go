// Package haltest provides an in-process HAL server for tests.
//
// Resources are registered by path and served as application/hal+json.
// POST to a collection path stores the body under a new item path and
// answers 201 with a Location header; PUT, PATCH and DELETE update the
// stored resources. Every request is recorded so tests can assert how many
// fetches a lazy relation caused.
//
//	srv := haltest.New()
//	defer srv.Close()
//	srv.Handle("/people/1", `{"name":"Alice","_links":{"self":{"href":"/people/1"}}}`)
//	...
//	if srv.Hits(http.MethodGet, "/people/1") != 1 { ... }
package haltest
