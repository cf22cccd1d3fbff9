// Package version reports build information for the command-line tools.
//
// Version, commit and build time can be set at compile time:
//
//	go build -ldflags "-X github.com/adamthedash/iterators/version.Version=1.0.0"
package version
