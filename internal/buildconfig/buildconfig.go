// Package buildconfig exposes build-time metadata reported on /healthz.
package buildconfig

// Overridden at build time:
//
//	-ldflags "-X github.com/kinetichq/kinetic/internal/buildconfig.version=v1.2.3 \
//	          -X github.com/kinetichq/kinetic/internal/buildconfig.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

// Version returns the build version.
func Version() string {
	return version
}

// Commit returns the git commit hash.
func Commit() string {
	return commit
}
