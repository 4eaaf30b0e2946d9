package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nucleus-apple/sidecar/internal/codes"
	"github.com/nucleus-apple/sidecar/internal/config"
	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/metrics"
	"github.com/nucleus-apple/sidecar/internal/sidecar"
	"github.com/nucleus-apple/sidecar/internal/version"
)

// app holds the state shared by every command of one invocation
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// goos overrides the platform check; empty means the running one
	goos string
	// loader is nil for the default user/working directory lookup
	loader *config.Loader
	// extra collaborators, injected by tests
	options []sidecar.Option

	cfg      *config.Config
	log      *logrus.Logger
	recorder *metrics.PrometheusRecorder
}

// usageError marks bad flags or arguments
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}, os.Args[1:])
	stop()

	os.Exit(code)
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, a *app, args []string) int {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)

	if merr := a.flushMetrics(); merr != nil {
		fmt.Fprintf(a.stderr, "warning: %v\n", merr)
	}

	if err == nil {
		return codes.ExitOK
	}

	fmt.Fprintln(a.stderr, err)

	if d, ok := sidecarerrors.AsDomain(err); ok && codes.IsKnown(d.Code) && a.log != nil {
		a.log.WithField("code", d.Code).Debug(codes.GetErrorMessage(d.Code))
	}

	var ue usageError
	if errors.As(err, &ue) {
		return codes.ExitUsage
	}

	return codes.ExitCode(err)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "nucleus-sidecar",
		Short:             "Build and call the Swift companion executable",
		Long:              `Builds the Swift companion from source on first use, caches it by content digest, and invokes it with a single JSON response envelope.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	root.PersistentFlags().String("cache-dir", "", "Cache root (default: user cache directory)")
	root.PersistentFlags().String("source-dir", "", "Companion source directory (default: "+config.DefaultSourceDir+")")
	root.PersistentFlags().String("timeout", "", "Invocation timeout, e.g. 30s or 45 (default: "+config.DefaultTimeout+")")
	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	root.PersistentFlags().String("log-format", "", "Log format: text or json")
	root.PersistentFlags().String("env-file", "", "dotenv file to load (default: .env if present)")
	root.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this textfile on exit")
	root.PersistentFlags().Bool("force", false, "Rebuild the companion even when it is cached")
	root.PersistentFlags().Bool("single-flight", false, "Collapse concurrent in-process builds")

	root.AddCommand(
		a.buildCommand(),
		a.callCommand(),
		a.execCommand(),
		a.pingCommand(),
		a.toolsCommand(),
		a.cacheCommand(),
		a.watchCommand(),
	)

	return root
}

// setup loads configuration and builds the logger and metrics recorder
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	viper.Reset()

	loader := a.loader
	if loader == nil {
		loader = config.NewLoader()
	}

	cfg, err := loader.LoadForCommand(cmd)
	if err != nil {
		return usageError{err}
	}

	a.cfg = cfg
	a.log = newLogger(a.stderr, cfg.Verbose, cfg.LogFormat)
	a.recorder = metrics.NewPrometheusRecorder(nil)

	a.log.WithFields(logrus.Fields{
		"source_dir": cfg.SourceDir,
		"cache_dir":  cfg.CacheDir,
		"version":    cfg.PackageVersion,
	}).Debug("Configuration loaded")

	return nil
}

func (a *app) builderOptions() sidecar.Options {
	opts := a.cfg.BuilderOptions()
	opts.GOOS = a.goos
	return opts
}

func (a *app) sidecarOptions() []sidecar.Option {
	options := []sidecar.Option{
		sidecar.WithLogger(a.log),
		sidecar.WithRecorder(a.recorder),
	}

	return append(options, a.options...)
}

func (a *app) builder() (*sidecar.Builder, error) {
	return sidecar.NewBuilder(a.builderOptions(), a.sidecarOptions()...)
}

func (a *app) client() (*sidecar.Client, error) {
	return sidecar.NewClient(a.builderOptions(), a.sidecarOptions()...)
}

// flushMetrics writes the textfile when one is configured
func (a *app) flushMetrics() error {
	if a.cfg == nil || a.cfg.MetricsFile == "" || a.recorder == nil {
		return nil
	}

	return a.recorder.WriteTextfile(a.cfg.MetricsFile)
}

// usageArgs marks positional argument errors as usage errors
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{err}
		}

		return nil
	}
}
