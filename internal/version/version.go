// Package version holds build metadata stamped in by the magefile.
package version

import "fmt"

// Set with -ldflags "-X github.com/dkoosis/logtee/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String formats the metadata for -version output.
func String() string {
	return fmt.Sprintf("logtee %s (%s, %s)", Version, CommitHash, BuildDate)
}
