package version

import "fmt"

var (
	// Version is the main version number.
	Version = "0.1.0"

	// GitCommit is set at build time with -ldflags.
	GitCommit string
)

// HumanVersion returns the version with the commit, if known.
func HumanVersion() string {
	if GitCommit == "" {
		return fmt.Sprintf("v%s", Version)
	}
	return fmt.Sprintf("v%s (%s)", Version, GitCommit)
}
