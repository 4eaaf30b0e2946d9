package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DefaultEnvFile is loaded when present and no --env-file is given
const DefaultEnvFile = ".env"

// envBindings maps config keys to the environment variables that set them,
// first match wins
var envBindings = map[string][]string{
	"cache_dir":       {"NUCLEUS_APPLE_MCP_CACHE_DIR"},
	"source_dir":      {"NUCLEUS_SIDECAR_SOURCE_DIR"},
	"swift":           {"NUCLEUS_SWIFT", "SWIFT"},
	"swiftc":          {"NUCLEUS_SWIFTC", "SWIFTC"},
	"product":         {"NUCLEUS_SIDECAR_PRODUCT"},
	"package_name":    {"NUCLEUS_SIDECAR_PACKAGE"},
	"package_version": {"NUCLEUS_SIDECAR_VERSION"},
	"timeout":         {"NUCLEUS_SIDECAR_TIMEOUT"},
	"force_rebuild":   {"NUCLEUS_SIDECAR_FORCE_REBUILD"},
	"single_flight":   {"NUCLEUS_SIDECAR_SINGLE_FLIGHT"},
	"metrics_file":    {"NUCLEUS_SIDECAR_METRICS_FILE"},
	"log_format":      {"NUCLEUS_SIDECAR_LOG_FORMAT"},
}

// flagBindings maps config keys to command flag names
var flagBindings = map[string]string{
	"cache_dir":     "cache-dir",
	"source_dir":    "source-dir",
	"timeout":       "timeout",
	"force_rebuild": "force",
	"single_flight": "single-flight",
	"metrics_file":  "metrics-file",
	"env_file":      "env-file",
	"log_format":    "log-format",
	"verbose":       "verbose",
}

// Loader handles configuration loading from various sources
type Loader struct {
	// GlobalDir holds config.<ext>; empty disables the global config
	GlobalDir string

	// WorkDir is where the local config search starts
	WorkDir string
}

// NewLoader creates a new configuration loader for the current user and directory
func NewLoader() *Loader {
	wd, _ := os.Getwd()
	return &Loader{GlobalDir: GlobalConfigDir(), WorkDir: wd}
}

// LoadForCommand loads configuration for a command invocation.
// Precedence, lowest first: defaults, global config, local config, environment, flags.
func (l *Loader) LoadForCommand(cmd *cobra.Command) (*Config, error) {
	l.setupViperDefaults()

	if err := l.loadGlobalConfig(); err != nil {
		return nil, err
	}

	if err := l.loadLocalConfig(); err != nil {
		return nil, err
	}

	l.bindCommandFlags(cmd)

	if err := l.loadEnvFile(viper.GetString("env_file")); err != nil {
		return nil, err
	}

	l.bindEnv()

	return Load()
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("source_dir", DefaultSourceDir)
	viper.SetDefault("swift", DefaultSwift)
	viper.SetDefault("swiftc", DefaultSwiftc)
	viper.SetDefault("product", DefaultProduct)
	viper.SetDefault("package_name", DefaultPackageName)
	viper.SetDefault("timeout", DefaultTimeout)
	viper.SetDefault("log_format", DefaultLogFormat)
	viper.SetDefault("verbose", DefaultVerbose)
}

// loadGlobalConfig loads the per-user config file
func (l *Loader) loadGlobalConfig() error {
	path := FindGlobalConfig(l.GlobalDir)
	if path == "" {
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return nil
}

// loadLocalConfig merges the nearest project config over the global one
func (l *Loader) loadLocalConfig() error {
	if l.WorkDir == "" {
		return nil
	}

	path := FindLocalConfig(l.WorkDir)
	if path == "" {
		return nil
	}

	viper.SetConfigFile(path)
	if err := viper.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return nil
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// An explicit file must exist; the default one is optional.
func (l *Loader) loadEnvFile(path string) error {
	if path == "" {
		path = filepath.Join(l.WorkDir, DefaultEnvFile)
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	return nil
}

// bindEnv binds each key to its environment variables
func (l *Loader) bindEnv() {
	for key, names := range envBindings {
		_ = viper.BindEnv(append([]string{key}, names...)...)
	}
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	for key, name := range flagBindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}
