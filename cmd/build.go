package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (a *app) buildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the companion executable",
		Long: `Build the companion executable for the current sources, unless a build
with the same content digest is already cached. Prints the build id and the
executable path.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: a.runBuild,
	}

	addOutputFlag(cmd)
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	builder, err := a.builder()
	if err != nil {
		return err
	}

	build, err := builder.EnsureBuilt(cmd.Context(), a.cfg.ForceRebuild)
	if err != nil {
		return err
	}

	if format != formatText {
		return printStructured(cmd.OutOrStdout(), format, build)
	}

	status := "cached"
	if !build.Cached {
		status = fmt.Sprintf("built in %s", build.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", build.ID, build.Path, status)
	return nil
}
