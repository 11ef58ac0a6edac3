// Package vars holds build metadata injected via -ldflags at build time.
package vars

import "fmt"

// Name, Version and Commit are overridden at build time with:
//
//	-ldflags "-X github.com/woozymasta/nx-archive/internal/vars.Version=... -X .../vars.Commit=..."
var (
	Name    = "nx"
	Version = "dev"
	Commit  = "none"
)

// Print writes build metadata to stdout.
func Print() {
	fmt.Printf("%s %s (%s)\n", Name, Version, Commit)
}
