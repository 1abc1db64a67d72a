// Package version holds build information injected with -ldflags, e.g.:
//
//	go build -ldflags "-X github.com/neox5/redisbox/internal/version.version=1.2.3 -X github.com/neox5/redisbox/internal/version.commit=$(git rev-parse --short HEAD)"
package version

var (
	version = "dev"
	commit  = "none"
)

// String returns the version and commit.
func String() string {
	if commit == "none" {
		return version
	}
	return version + " (" + commit + ")"
}
