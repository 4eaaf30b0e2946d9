package codes

import sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"

// Default is the code reported when the companion omits one
const Default = "INTERNAL"

// ErrorCodes maps companion error codes to their descriptions
var ErrorCodes = map[string]string{
	"INTERNAL":          "Internal sidecar failure",
	"INVALID_ARGUMENTS": "Invalid or missing arguments",
	"LOCKED":            "Item is locked and cannot be modified",
	"NOT_AUTHORIZED":    "Access to the data store was not granted",
	"NOT_FOUND":         "Requested item does not exist",
	"NOT_WRITABLE":      "Target is read-only",
}

// IsKnown returns true if the code is one the companion is known to emit
func IsKnown(code string) bool {
	_, ok := ErrorCodes[code]
	return ok
}

// GetErrorMessage returns the description for a given code, or a generic message if unknown
func GetErrorMessage(code string) string {
	if msg, ok := ErrorCodes[code]; ok {
		return msg
	}

	return "Unknown error"
}

// Process exit codes used by the CLI
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitDomain       = 2
	ExitUsage        = 64
	ExitInvalidInput = 65
	ExitUnsupported  = 69
	ExitBuild        = 70
	ExitCacheIO      = 74
	ExitTimeout      = 75
	ExitProtocol     = 76
	ExitToolchain    = 127
)

var exitCodes = map[sidecarerrors.Kind]int{
	sidecarerrors.KindDomain:              ExitDomain,
	sidecarerrors.KindInvalidInput:        ExitInvalidInput,
	sidecarerrors.KindInvalidSource:       ExitInvalidInput,
	sidecarerrors.KindUnsupportedPlatform: ExitUnsupported,
	sidecarerrors.KindBuildFailed:         ExitBuild,
	sidecarerrors.KindArtifactMissing:     ExitBuild,
	sidecarerrors.KindCacheIO:             ExitCacheIO,
	sidecarerrors.KindTimeout:             ExitTimeout,
	sidecarerrors.KindProtocol:            ExitProtocol,
	sidecarerrors.KindInvocation:          ExitProtocol,
	sidecarerrors.KindToolchainNotFound:   ExitToolchain,
}

// ExitCode maps an error to the CLI process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if code, ok := exitCodes[sidecarerrors.KindOf(err)]; ok {
		return code
	}

	return ExitFailure
}
