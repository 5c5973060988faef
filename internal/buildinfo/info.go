package buildinfo

import "fmt"

// Set via -ldflags "-X github.com/fubangkh/cashbook/internal/buildinfo.Version=..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the build stamp shown by `cashbook --version`.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
