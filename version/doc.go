// Package version reports the library version sent in the User-Agent header.
//
// When halclient is a dependency the version comes from the embedding
// binary's build info. It can also be set at link time:
//
//	go build -ldflags "-X github.com/kbukum/halclient/version.Version=1.2.0"
package version
