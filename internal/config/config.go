package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nucleus-apple/sidecar/internal/compiler"
	"github.com/nucleus-apple/sidecar/internal/sidecar"
	"github.com/nucleus-apple/sidecar/internal/version"
)

// Default configuration values
const (
	DefaultProduct     = "nucleus-apple-sidecar"
	DefaultPackageName = "nucleus-apple-mcp"
	DefaultSwift       = "swift"
	DefaultSwiftc      = "swiftc"
	DefaultSourceDir   = "sidecar/swift"
	DefaultTimeout     = "30s"
	DefaultLogFormat   = "text"
	DefaultVerbose     = false
)

// Holds the configuration options for nucleus-sidecar
type Config struct {
	// Cache root override; empty means the user cache directory
	CacheDir string

	// Root of the companion's Swift sources
	SourceDir string

	// Build tool commands
	Swift  string
	Swiftc string

	// Executable name of the companion
	Product string

	// Distribution identity mixed into the BuildID
	PackageName    string
	PackageVersion string

	// Bound on each companion invocation
	Timeout time.Duration

	// Rebuild before every invocation
	ForceRebuild bool

	// Collapse concurrent in-process builds
	SingleFlight bool

	// Prometheus textfile to write after each command
	MetricsFile string

	// dotenv file loaded before environment lookups
	EnvFile string

	// Log output format (text or json)
	LogFormat string

	// Enable debug logging
	Verbose bool
}

// Load builds a Config from the current viper state
func Load() (*Config, error) {
	timeout, err := ParseTimeout(viper.GetString("timeout"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CacheDir:       viper.GetString("cache_dir"),
		SourceDir:      viper.GetString("source_dir"),
		Swift:          viper.GetString("swift"),
		Swiftc:         viper.GetString("swiftc"),
		Product:        viper.GetString("product"),
		PackageName:    viper.GetString("package_name"),
		PackageVersion: viper.GetString("package_version"),
		Timeout:        timeout,
		ForceRebuild:   viper.GetBool("force_rebuild"),
		SingleFlight:   viper.GetBool("single_flight"),
		MetricsFile:    viper.GetString("metrics_file"),
		EnvFile:        viper.GetString("env_file"),
		LogFormat:      viper.GetString("log_format"),
		Verbose:        viper.GetBool("verbose"),
	}

	// Apply defaults if not set
	if cfg.SourceDir == "" {
		cfg.SourceDir = DefaultSourceDir
	}

	if cfg.Swift == "" {
		cfg.Swift = DefaultSwift
	}

	if cfg.Swiftc == "" {
		cfg.Swiftc = DefaultSwiftc
	}

	if cfg.Product == "" {
		cfg.Product = DefaultProduct
	}

	if cfg.PackageName == "" {
		cfg.PackageName = DefaultPackageName
	}

	if cfg.PackageVersion == "" {
		cfg.PackageVersion = version.PackageVersion()
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	abs, err := filepath.Abs(c.SourceDir)
	if err != nil {
		return fmt.Errorf("invalid source directory: %v", err)
	}

	c.SourceDir = abs

	if c.CacheDir != "" && c.CacheDir != "~" && !strings.HasPrefix(c.CacheDir, "~/") {
		abs, err := filepath.Abs(c.CacheDir)
		if err != nil {
			return fmt.Errorf("invalid cache directory: %v", err)
		}

		c.CacheDir = abs
	}

	if c.MetricsFile != "" {
		abs, err := filepath.Abs(c.MetricsFile)
		if err != nil {
			return fmt.Errorf("invalid metrics file path: %v", err)
		}

		c.MetricsFile = abs
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", c.Timeout)
	}

	if err := compiler.CheckProduct(c.Product); err != nil {
		return err
	}

	if c.Swift == "" || c.Swiftc == "" {
		return fmt.Errorf("swift and swiftc must not be empty")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (expected text or json)", c.LogFormat)
	}

	return nil
}

// BuilderOptions converts the configuration into build layer options
func (c *Config) BuilderOptions() sidecar.Options {
	return sidecar.Options{
		SourceDir:    c.SourceDir,
		CacheDir:     c.CacheDir,
		Product:      c.Product,
		Package:      c.PackageName,
		Version:      c.PackageVersion,
		Toolchain:    compiler.Toolchain{Swift: c.Swift, Swiftc: c.Swiftc},
		Timeout:      c.Timeout,
		ForceRebuild: c.ForceRebuild,
		SingleFlight: c.SingleFlight,
	}
}

// ParseTimeout accepts a Go duration ("45s", "2m") or a bare number of seconds
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultTimeout
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		nanos := secs * float64(time.Second)
		if math.IsNaN(nanos) || nanos >= math.MaxInt64 || nanos <= math.MinInt64 {
			return 0, fmt.Errorf("invalid timeout: %q", s)
		}
		return time.Duration(nanos), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout: %q", s)
	}

	return d, nil
}
