package version

// Set at build time via -ldflags "-X github.com/nucleus-apple/sidecar/internal/version.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// LocalVersion is used as the package version when no release version was stamped
const LocalVersion = "0.0.0+local"

// PackageVersion returns the version string that identifies this build in cache keys
func PackageVersion() string {
	if Version == "" || Version == "dev" {
		return LocalVersion
	}

	return Version
}
