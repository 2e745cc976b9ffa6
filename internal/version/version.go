// Package version provides build-time version information.
package version

import "fmt"

// These variables are set at build time using -ldflags
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns a one-line version description.
func String() string {
	return fmt.Sprintf("banner-editor %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
