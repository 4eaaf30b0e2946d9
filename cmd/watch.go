package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nucleus-apple/sidecar/internal/compiler"
	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/source"
	"github.com/nucleus-apple/sidecar/internal/watch"
)

func (a *app) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the companion whenever its sources change",
		Long: `Build the companion, then watch the source directory and rebuild after
each burst of changes. Edits that restore earlier content are cache hits.
Stops on interrupt.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: a.runWatch,
	}

	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before rebuilding")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, _ []string) error {
	debounce, _ := cmd.Flags().GetDuration("debounce")

	builder, err := a.builder()
	if err != nil {
		return err
	}

	rebuild := func(ctx context.Context) error {
		build, err := builder.EnsureBuilt(ctx, false)
		if err != nil {
			return err
		}

		a.log.WithFields(logrus.Fields{
			"build_id": build.ID,
			"path":     build.Path,
			"cached":   build.Cached,
			"duration": build.Duration.Round(time.Millisecond),
		}).Info("Companion ready")

		return nil
	}

	// A failed first build is reported but does not stop the watch,
	// unless no build can ever succeed here
	if err := rebuild(cmd.Context()); err != nil {
		if sidecarerrors.IsKind(err, sidecarerrors.KindUnsupportedPlatform) {
			return err
		}

		a.log.WithError(err).Error("Initial build failed")
	}

	a.log.WithFields(logrus.Fields{
		"source_dir": a.cfg.SourceDir,
		"cache_dir":  builder.CacheRoot(),
	}).Info("Watching for changes")

	w := watch.New(a.cfg.SourceDir, source.SwiftExt, compiler.PackageManifest).
		WithDebounce(debounce).
		WithLogger(a.log)

	return w.Run(cmd.Context(), rebuild)
}
