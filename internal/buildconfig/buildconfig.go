// Package buildconfig exposes version metadata stamped at build time via
// -ldflags "-X".
package buildconfig

var (
	version = "dev"
	commit  = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo returns the stamped metadata in the shape the /metrics endpoint
// embeds.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
	}
}
