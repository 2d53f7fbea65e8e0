package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anstrom/netdiag/internal/services"
)

// tracerouteCmd represents the traceroute command
var tracerouteCmd = &cobra.Command{
	Use:     "traceroute <host>",
	Aliases: []string{"tracert"},
	Short:   "Trace the route to a host",
	Long: `Run the system traceroute utility (tracert on Windows) and print one row
per hop with every address, name and round trip time seen for it.`,
	Example: `  netdiag traceroute example.com
  netdiag traceroute 1.1.1.1 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceroute,
}

func init() {
	rootCmd.AddCommand(tracerouteCmd)
}

func runTraceroute(cmd *cobra.Command, args []string) error {
	return withDiagnostics(cmd, func(ctx context.Context, diag *services.Diagnostics) error {
		run, err := diag.Traceroute(ctx, args[0])
		if err != nil {
			return err
		}
		return displayTraceroute(cmd.OutOrStdout(), run)
	})
}
