// Package hal decodes HAL (application/hal+json) documents into envelopes.
//
// An Envelope separates a resource's business content from its _links
// registry and its _embedded child resources:
//
//	env, err := hal.Decode([]byte(`{"name":"Alice","_links":{"self":{"href":"/people/1"}}}`))
//	name, _ := env.Field("name")
//	self, _ := env.Self()
//
// Decoding streams tokens through goccy/go-json and is pure: it performs no
// I/O beyond reading its input.
package hal
