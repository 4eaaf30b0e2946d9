package utils

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
)

func TestCheckPlatform(t *testing.T) {
	tests := []struct {
		goos    string
		wantErr bool
	}{
		{"darwin", false},
		{"linux", true},
		{"windows", true},
		{"freebsd", true},
	}

	for _, test := range tests {
		err := CheckPlatform(test.goos)
		if test.wantErr {
			require.Error(t, err, "CheckPlatform(%q)", test.goos)
			assert.True(t, sidecarerrors.IsKind(err, sidecarerrors.KindUnsupportedPlatform))
			assert.Contains(t, err.Error(), test.goos)
			continue
		}

		assert.NoError(t, err, "CheckPlatform(%q)", test.goos)
	}
}

func TestCheckPlatform_DefaultsToRuntime(t *testing.T) {
	err := CheckPlatform("")
	assert.Equal(t, runtime.GOOS == SupportedPlatform, err == nil)
}
