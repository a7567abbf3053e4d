// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String returns "nearby <version> (<commit>, <date>)".
func String() string {
	return "nearby " + Version + " (" + Commit + ", " + Date + ")"
}

// UserAgent identifies outbound requests to public geocoding services,
// whose usage policies require a descriptive agent.
func UserAgent() string {
	return "nearby/" + Version
}
