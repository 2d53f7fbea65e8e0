package cli

import (
	"context"

	sliceutil "github.com/projectdiscovery/utils/slice"
	"github.com/spf13/cobra"

	"github.com/anstrom/netdiag/internal/services"
)

var (
	portScanPorts    string
	portScanOpenOnly bool
)

// portScanCmd represents the portscan command
var portScanCmd = &cobra.Command{
	Use:   "portscan <host>...",
	Short: "Scan TCP ports of hosts",
	Long: `Probe TCP ports with connect scans. Ports are given as a comma separated
list of ports and ranges; without --ports the configured default ports are
scanned.`,
	Example: `  netdiag portscan example.com
  netdiag portscan 10.0.0.5 --ports 22,80,8000-8100
  netdiag portscan 10.0.0.5 --ports 1-1024 --open`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPortScan,
}

func init() {
	rootCmd.AddCommand(portScanCmd)

	portScanCmd.Flags().StringVarP(&portScanPorts, "ports", "p", "", "Ports to scan, e.g. '22,80,8000-8100' (default from config)")
	portScanCmd.Flags().BoolVar(&portScanOpenOnly, "open", false, "Only list open ports")
}

func runPortScan(cmd *cobra.Command, args []string) error {
	return withDiagnostics(cmd, func(ctx context.Context, diag *services.Diagnostics) error {
		for _, host := range sliceutil.Dedupe(args) {
			report, err := diag.PortScan(ctx, host, portScanPorts, nil)
			if err != nil {
				return err
			}
			if err := displayPortScan(cmd.OutOrStdout(), report, portScanOpenOnly); err != nil {
				return err
			}
		}
		return nil
	})
}
