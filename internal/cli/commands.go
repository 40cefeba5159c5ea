package cli

import (
	"fmt"
	"strings"

	"github.com/jamesprial/nut-mcp/internal/nut"
	"github.com/jamesprial/nut-mcp/internal/ups"
	"github.com/spf13/cobra"
)

func queryCommands(e *env) []*cobra.Command {
	status := &cobra.Command{
		Use:   "status",
		Short: "Print every variable reported by upsc",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd.OutOrStdout(), e.mgr.Status(cmd.Context()))
		},
	}

	var key string
	read := &cobra.Command{
		Use:   "read",
		Short: "Print the reading set as JSON, or one entry with --key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := e.mgr.Read(cmd.Context())
			if key != "" {
				v, ok := set.Get(key)
				if !ok {
					return fmt.Errorf("unknown reading key %q (have %s)", key, strings.Join(set.Keys(), ", "))
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), v)
				return err
			}
			out, err := set.Render()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	read.Flags().StringVarP(&key, "key", "k", "", "print only this entry, e.g. BatL")

	metric := &cobra.Command{
		Use:       "metric <name>",
		Short:     "Print a single metric (" + strings.Join(nut.MetricNames(), ", ") + ")",
		ValidArgs: nut.MetricNames(),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd.OutOrStdout(), e.mgr.Metric(cmd.Context(), args[0]))
		},
	}

	variable := &cobra.Command{
		Use:   "var <name>",
		Short: "Print one NUT variable, e.g. battery.charge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd.OutOrStdout(), e.mgr.Variable(cmd.Context(), args[0]))
		},
	}

	commands := &cobra.Command{
		Use:   "commands",
		Short: "List the instant commands the UPS driver supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit(cmd.OutOrStdout(), e.mgr.ListCommands(cmd.Context()))
		},
	}

	return []*cobra.Command{status, read, metric, variable, commands}
}

// actionCommand builds the subcommand for a control Action.
func actionCommand(e *env, a ups.Action) *cobra.Command {
	return &cobra.Command{
		Use:   a.CLI,
		Short: a.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.filter.Check(a.Command(e.mgr.Commands())); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if !e.quiet {
				fmt.Fprintln(w, a.Banner)
			}
			return emit(w, a.Run(cmd.Context(), e.mgr))
		},
	}
}
