// Package client wires the HAL stack together: configuration, the HTTP
// adapter, the REST gateway and the proxy factory.
//
//	c, err := client.Load("people-api", config.WithEnvPrefix("PEOPLE"))
//	if err != nil { ... }
//	defer c.Close()
//
//	alice, err := client.Fetch[Person](ctx, c, "/people/1")
//	manager, err := alice.Manager(ctx) // follows _links.manager on first use
//
// Write-back goes through the resource's self link:
//
//	err = client.Patch(ctx, c, alice, map[string]any{"title": "CTO"})
package client
