// Package version holds build-time version metadata for the grafito binary.
package version

import "fmt"

// Version and CommitHash are set at build time with -ldflags. Defaults are
// useful for local development.
var (
	Version    string = "dev"
	CommitHash string = "unknown"
)

// Describe renders a one-line version string for --version output.
func Describe() string {
	return fmt.Sprintf("grafito %s (%s)", Version, CommitHash)
}
