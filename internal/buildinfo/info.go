// Package buildinfo carries version metadata set at link time:
//
//	go build -ldflags "-X budgetify/internal/buildinfo.Version=v1.0.0"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line printed by --version and logged at startup.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
