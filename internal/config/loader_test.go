package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCommand returns a command carrying the flags the CLI registers
func newCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("cache-dir", "", "Cache root")
	cmd.Flags().String("source-dir", "", "Source root")
	cmd.Flags().String("timeout", "", "Invocation timeout")
	cmd.Flags().Bool("force", false, "Force rebuild")
	cmd.Flags().Bool("single-flight", false, "Single flight")
	cmd.Flags().String("metrics-file", "", "Metrics file")
	cmd.Flags().String("env-file", "", "Env file")
	cmd.Flags().String("log-format", "", "Log format")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	return cmd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	require.NotNil(t, loader)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, loader.WorkDir)
}

func TestLoader_SetupViperDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	loader := &Loader{}
	loader.setupViperDefaults()

	assert.Equal(t, DefaultSourceDir, viper.GetString("source_dir"))
	assert.Equal(t, DefaultSwift, viper.GetString("swift"))
	assert.Equal(t, DefaultSwiftc, viper.GetString("swiftc"))
	assert.Equal(t, DefaultProduct, viper.GetString("product"))
	assert.Equal(t, DefaultPackageName, viper.GetString("package_name"))
	assert.Equal(t, DefaultTimeout, viper.GetString("timeout"))
	assert.Equal(t, DefaultLogFormat, viper.GetString("log_format"))
	assert.False(t, viper.GetBool("verbose"))
}

func TestLoader_LoadGlobalConfig(t *testing.T) {
	t.Run("loads yaml config", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config.yml"), "swift: /opt/swift\ntimeout: 10s\nverbose: true\n")

		loader := &Loader{GlobalDir: dir}
		require.NoError(t, loader.loadGlobalConfig())

		assert.Equal(t, "/opt/swift", viper.GetString("swift"))
		assert.Equal(t, "10s", viper.GetString("timeout"))
		assert.True(t, viper.GetBool("verbose"))
	})

	t.Run("loads json config", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config.json"), `{"product": "companion"}`)

		loader := &Loader{GlobalDir: dir}
		require.NoError(t, loader.loadGlobalConfig())

		assert.Equal(t, "companion", viper.GetString("product"))
	})

	t.Run("missing config is not an error", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		loader := &Loader{GlobalDir: t.TempDir()}
		assert.NoError(t, loader.loadGlobalConfig())
	})

	t.Run("malformed config is an error", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "config.json"), `{"product":`)

		loader := &Loader{GlobalDir: dir}
		err := loader.loadGlobalConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config")
	})
}

func TestLoader_LoadLocalConfig(t *testing.T) {
	t.Run("merges over global config", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		global := t.TempDir()
		writeFile(t, filepath.Join(global, "config.yml"), "swift: /global/swift\nswiftc: /global/swiftc\n")

		project := t.TempDir()
		writeFile(t, filepath.Join(project, ".nucleus-sidecar.yml"), "swift: /local/swift\n")
		work := filepath.Join(project, "sub", "dir")
		require.NoError(t, os.MkdirAll(work, 0o755))

		loader := &Loader{GlobalDir: global, WorkDir: work}
		require.NoError(t, loader.loadGlobalConfig())
		require.NoError(t, loader.loadLocalConfig())

		assert.Equal(t, "/local/swift", viper.GetString("swift"))
		assert.Equal(t, "/global/swiftc", viper.GetString("swiftc"))
	})

	t.Run("no work dir", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		loader := &Loader{}
		assert.NoError(t, loader.loadLocalConfig())
	})
}

func TestLoader_LoadEnvFile(t *testing.T) {
	t.Run("existing variables win", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "custom.env")
		writeFile(t, path, "NUCLEUS_SIDECAR_TEST_A=from-file\nNUCLEUS_SIDECAR_TEST_B=from-file\n")

		t.Setenv("NUCLEUS_SIDECAR_TEST_A", "from-env")
		t.Setenv("NUCLEUS_SIDECAR_TEST_B", "")
		os.Unsetenv("NUCLEUS_SIDECAR_TEST_B")

		loader := &Loader{WorkDir: dir}
		require.NoError(t, loader.loadEnvFile(path))

		assert.Equal(t, "from-env", os.Getenv("NUCLEUS_SIDECAR_TEST_A"))
		assert.Equal(t, "from-file", os.Getenv("NUCLEUS_SIDECAR_TEST_B"))
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		loader := &Loader{WorkDir: t.TempDir()}
		err := loader.loadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load env file")
	})

	t.Run("default file is optional", func(t *testing.T) {
		loader := &Loader{WorkDir: t.TempDir()}
		assert.NoError(t, loader.loadEnvFile(""))
	})

	t.Run("default file in work dir", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, DefaultEnvFile), "NUCLEUS_SIDECAR_TEST_C=dotenv\n")
		t.Setenv("NUCLEUS_SIDECAR_TEST_C", "")
		os.Unsetenv("NUCLEUS_SIDECAR_TEST_C")

		loader := &Loader{WorkDir: dir}
		require.NoError(t, loader.loadEnvFile(""))
		assert.Equal(t, "dotenv", os.Getenv("NUCLEUS_SIDECAR_TEST_C"))
	})
}

func TestLoader_BindEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		key  string
		want string
	}{
		{
			name: "cache dir",
			env:  map[string]string{"NUCLEUS_APPLE_MCP_CACHE_DIR": "/tmp/cache"},
			key:  "cache_dir",
			want: "/tmp/cache",
		},
		{
			name: "prefixed swift wins",
			env:  map[string]string{"NUCLEUS_SWIFT": "/a/swift", "SWIFT": "/b/swift"},
			key:  "swift",
			want: "/a/swift",
		},
		{
			name: "plain swiftc fallback",
			env:  map[string]string{"NUCLEUS_SWIFTC": "", "SWIFTC": "/b/swiftc"},
			key:  "swiftc",
			want: "/b/swiftc",
		},
		{
			name: "timeout",
			env:  map[string]string{"NUCLEUS_SIDECAR_TIMEOUT": "12s"},
			key:  "timeout",
			want: "12s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()

			for k, v := range tt.env {
				t.Setenv(k, v)
				if v == "" {
					os.Unsetenv(k)
				}
			}

			loader := &Loader{}
			loader.bindEnv()

			assert.Equal(t, tt.want, viper.GetString(tt.key))
		})
	}
}

func TestLoader_BindCommandFlags(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cmd := newCommand()
	require.NoError(t, cmd.Flags().Set("cache-dir", "/tmp/cache"))
	require.NoError(t, cmd.Flags().Set("timeout", "5s"))
	require.NoError(t, cmd.Flags().Set("force", "true"))
	require.NoError(t, cmd.Flags().Set("verbose", "true"))

	loader := &Loader{}
	loader.bindCommandFlags(cmd)

	assert.Equal(t, "/tmp/cache", viper.GetString("cache_dir"))
	assert.Equal(t, "5s", viper.GetString("timeout"))
	assert.True(t, viper.GetBool("force_rebuild"))
	assert.True(t, viper.GetBool("verbose"))

	// A command without the flag leaves the key alone
	assert.NotPanics(t, func() { loader.bindCommandFlags(&cobra.Command{}) })
	assert.NotPanics(t, func() { loader.bindCommandFlags(nil) })
}

func TestLoader_LoadForCommand_Integration(t *testing.T) {
	t.Run("flags override env override local override global", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		global := t.TempDir()
		writeFile(t, filepath.Join(global, "config.yml"), "swift: /global/swift\nswiftc: /global/swiftc\nproduct: global-product\ntimeout: 1s\n")

		project := t.TempDir()
		writeFile(t, filepath.Join(project, ".nucleus-sidecar.yml"), "swiftc: /local/swiftc\ntimeout: 2s\nsource_dir: swift\n")
		writeFile(t, filepath.Join(project, DefaultEnvFile), "NUCLEUS_SIDECAR_TIMEOUT=3s\n")

		t.Setenv("NUCLEUS_SIDECAR_TIMEOUT", "")
		os.Unsetenv("NUCLEUS_SIDECAR_TIMEOUT")
		t.Setenv("NUCLEUS_SWIFT", "/env/swift")

		cmd := newCommand()
		require.NoError(t, cmd.Flags().Set("log-format", "json"))

		loader := &Loader{GlobalDir: global, WorkDir: project}
		cfg, err := loader.LoadForCommand(cmd)
		require.NoError(t, err)

		assert.Equal(t, "/env/swift", cfg.Swift)
		assert.Equal(t, "/local/swiftc", cfg.Swiftc)
		assert.Equal(t, "global-product", cfg.Product)
		assert.Equal(t, 3*time.Second, cfg.Timeout)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.True(t, filepath.IsAbs(cfg.SourceDir))
		assert.Equal(t, "swift", filepath.Base(cfg.SourceDir))
	})

	t.Run("flag timeout beats environment", func(t *testing.T) {
		viper.Reset()
		defer viper.Reset()

		t.Setenv("NUCLEUS_SIDECAR_TIMEOUT", "3s")

		cmd := newCommand()
		require.NoError(t, cmd.Flags().Set("timeout", "9s"))

		loader := &Loader{WorkDir: t.TempDir()}
		cfg, err := loader.LoadForCommand(cmd)
		require.NoError(t, err)

		assert.Equal(t, 9*time.Second, cfg.Timeout)
	})
}
