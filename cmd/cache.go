package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nucleus-apple/sidecar/internal/cache"
	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
)

func (a *app) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the build cache",
		Long: `Inspect cached companion builds. Entries are never deleted by this tool;
remove the cache directory to reclaim space.`,
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the cache root",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := a.cacheRoot()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), root)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded builds, newest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  a.runCacheList,
	}
	addOutputFlag(list)

	show := &cobra.Command{
		Use:   "show <build-id>",
		Short: "Show one recorded build",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE:  a.runCacheShow,
	}
	show.Flags().StringP("output", "o", formatJSON, "Output format: json or yaml")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the cache contents",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  a.runCacheStats,
	}
	addOutputFlag(stats)

	cmd.AddCommand(path, list, show, stats)
	return cmd
}

func (a *app) cacheRoot() (string, error) {
	return cache.ResolveRoot(a.cfg.CacheDir)
}

func (a *app) index() (*cache.Index, error) {
	root, err := a.cacheRoot()
	if err != nil {
		return nil, err
	}

	return cache.NewIndex(root), nil
}

func (a *app) runCacheList(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	idx, err := a.index()
	if err != nil {
		return err
	}

	entries, err := idx.List()
	if err != nil {
		return err
	}

	if format != formatText {
		if entries == nil {
			entries = []cache.Entry{}
		}

		return printStructured(cmd.OutOrStdout(), format, entries)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BUILD ID\tBACKEND\tVERSION\tSIZE\tBUILT\tPATH")

	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.BuildID, e.Backend, e.Version, e.Size, e.BuiltAt.Local().Format(time.DateTime), e.Path)
	}

	return w.Flush()
}

func (a *app) runCacheShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	if format != formatJSON && format != formatYAML {
		return usageError{fmt.Errorf("invalid output format: %s (expected json or yaml)", format)}
	}

	idx, err := a.index()
	if err != nil {
		return err
	}

	entry, err := idx.Get(args[0])
	if err != nil {
		return err
	}

	if entry == nil {
		return sidecarerrors.InvalidInput("no recorded build with id %s", args[0])
	}

	return printStructured(cmd.OutOrStdout(), format, entry)
}

func (a *app) runCacheStats(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	root, err := a.cacheRoot()
	if err != nil {
		return err
	}

	store, err := cache.NewStore(root)
	if err != nil {
		return err
	}

	stats, err := cache.NewIndex(root).Stats(store)
	if err != nil {
		return err
	}

	if format != formatText {
		return printStructured(cmd.OutOrStdout(), format, map[string]any{
			"root":    root,
			"entries": stats.Entries,
			"indexed": stats.Indexed,
			"bytes":   stats.Bytes,
		})
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Root:\t%s\n", root)
	fmt.Fprintf(w, "Entries:\t%d\n", stats.Entries)
	fmt.Fprintf(w, "Indexed:\t%d\n", stats.Indexed)
	fmt.Fprintf(w, "Size:\t%d bytes\n", stats.Bytes)

	return w.Flush()
}
