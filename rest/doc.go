// Package rest is the REST operations gateway of the HAL client: the only
// component that performs HTTP.
//
// Operations resolves link hrefs (expanding RFC 6570 templates), executes
// GET for link traversal and POST/PUT/PATCH/DELETE for write-back, and
// returns raw response bodies for the hal decoder. Every failure is a
// TRANSPORT_ERROR carrying the HTTP status and body, or an
// UNRESOLVED_TEMPLATE_VARIABLE when a template cannot be expanded.
//
//	adapter, _ := httpclient.New(httpclient.Config{BaseURL: "https://api.example.com"})
//	ops := rest.New(adapter)
//	body, err := ops.Get(ctx, "/people/1")
package rest
