// Package version provides the pyarch tool version.
package version

// Version is the pyarch tool version.
// Can be overridden at build time with:
//   go build -ldflags "-X github.com/pyarch/pyarch/pkg/version.Version=2.0.1"
var Version = "dev"
