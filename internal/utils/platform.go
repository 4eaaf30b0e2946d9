package utils

import (
	"runtime"

	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
)

// SupportedPlatform is the only GOOS the companion executable can be built for
const SupportedPlatform = "darwin"

// CheckPlatform returns an error unless goos can build the companion.
// An empty goos means the running platform.
func CheckPlatform(goos string) error {
	if goos == "" {
		goos = runtime.GOOS
	}

	if goos != SupportedPlatform {
		return sidecarerrors.UnsupportedPlatform(goos)
	}

	return nil
}
