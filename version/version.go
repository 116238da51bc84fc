package version

import (
	"runtime/debug"
	"strings"
)

// ModulePath is the import path of this module.
const ModulePath = "github.com/kbukum/halclient"

// Version is set at build time with -ldflags. "dev" means unset.
var Version = "dev"

// Info describes the running library build.
type Info struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	// Dependency reports whether the library was built as a dependency of
	// another main module.
	Dependency bool `json:"dependency"`
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Get returns the library version: the -ldflags value when set, otherwise
// the module version recorded in the binary's build info.
func Get() Info {
	info := Info{Version: Version}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	if Version != "dev" {
		return info
	}
	for _, dep := range bi.Deps {
		if dep.Path != ModulePath {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			dep = dep.Replace
		}
		info.Version = strings.TrimPrefix(dep.Version, "v")
		info.Dependency = true
		break
	}
	return info
}

// UserAgent returns "halclient/<version>".
func UserAgent() string {
	return "halclient/" + Get().Version
}
