package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	sidecarerrors "github.com/nucleus-apple/sidecar/internal/errors"
	"github.com/nucleus-apple/sidecar/internal/tools"
)

func (a *app) callCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Call a companion tool with JSON arguments",
		Long: `Call a companion tool by name. Arguments are a JSON object, given as the
second argument or piped on stdin. The tool's result is printed as JSON.`,
		Example: `  nucleus-sidecar call calendar.list_events '{"start":"2024-01-01T00:00:00Z","end":"2024-01-08T00:00:00Z"}'
  echo '{"title":"Milk"}' | nucleus-sidecar call reminders.create_reminder`,
		Args: usageArgs(cobra.RangeArgs(1, 2)),
		RunE: a.runCall,
	}
}

func (a *app) runCall(cmd *cobra.Command, args []string) error {
	tool, ok := tools.Lookup(args[0])
	if !ok {
		return usageError{sidecarerrors.InvalidInput("unknown tool: %s (see `nucleus-sidecar tools`)", args[0])}
	}

	raw, err := toolArgs(cmd.InOrStdin(), args[1:])
	if err != nil {
		return err
	}

	argv, err := tool.Argv(raw)
	if err != nil {
		return err
	}

	return a.invoke(cmd, argv, nil)
}

func (a *app) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the companion builds and answers",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			tool, _ := tools.Lookup("sidecar.ping")

			argv, err := tool.Argv(nil)
			if err != nil {
				return err
			}

			return a.invoke(cmd, argv, nil)
		},
	}
}

func (a *app) execCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec -- <argv...>",
		Short: "Invoke the companion with raw arguments",
		Long: `Invoke the companion with the given arguments and print the result of its
response envelope. Use --stdin to send text on the companion's stdin, or
--stdin - to forward this process's stdin.`,
		Example: `  nucleus-sidecar exec -- calendar sources
  nucleus-sidecar exec --stdin - -- notes create-note < note.json`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: a.runExec,
	}

	cmd.Flags().String("stdin", "", "Text to send on the companion's stdin (- reads this process's stdin)")
	return cmd
}

func (a *app) runExec(cmd *cobra.Command, args []string) error {
	var stdin *string

	if cmd.Flags().Changed("stdin") {
		text, _ := cmd.Flags().GetString("stdin")

		if text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}

			text = string(data)
		}

		stdin = &text
	}

	return a.invoke(cmd, args, stdin)
}

// invoke runs argv through the client and prints the result
func (a *app) invoke(cmd *cobra.Command, argv []string, stdin *string) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	build, result, err := client.Run(cmd.Context(), argv, stdin)
	if build != nil {
		a.log.WithField("build_id", build.ID).WithField("cached", build.Cached).Debug("Companion ready")
	}

	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), result)
}

// toolArgs returns the JSON arguments from args, or from stdin when it is piped
func toolArgs(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(args[0]), nil
	}

	if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return nil, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read arguments from stdin: %w", err)
	}

	return data, nil
}
