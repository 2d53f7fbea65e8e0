package cli

import (
	"context"

	sliceutil "github.com/projectdiscovery/utils/slice"
	"github.com/spf13/cobra"

	"github.com/anstrom/netdiag/internal/ping"
	"github.com/anstrom/netdiag/internal/services"
	"github.com/anstrom/netdiag/internal/tcpping"
)

var (
	pingCount int

	tcpPingPort  int
	tcpPingCount int
)

// pingCmd represents the ping command
var pingCmd = &cobra.Command{
	Use:   "ping <dest>...",
	Short: "Ping hosts, addresses or CIDR blocks",
	Long: `Ping each destination with the system ping utility.

A CIDR block is expanded to its usable host addresses. Blocks larger than
the configured sweep.ping_cap are rejected before anything is sent.`,
	Example: `  netdiag ping example.com
  netdiag ping 192.168.1.0/28 --count 2
  netdiag ping 10.0.0.1 10.0.0.2 -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPing,
}

// tcpPingCmd represents the tcpping command
var tcpPingCmd = &cobra.Command{
	Use:   "tcpping <dest>...",
	Short: "Measure TCP connect latency",
	Long: `Open repeated TCP connections to a port of each destination and report
loss, latency and jitter. A CIDR block is expanded like ping, capped by
sweep.tcp_ping_cap.`,
	Example: `  netdiag tcpping example.com --port 443
  netdiag tcpping 10.0.0.0/29 --port 22 --count 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTCPPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(tcpPingCmd)

	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 0, "Echo requests per target (default from config)")

	tcpPingCmd.Flags().IntVarP(&tcpPingPort, "port", "p", 0, "TCP port (default from config)")
	tcpPingCmd.Flags().IntVarP(&tcpPingCount, "count", "c", 0, "Connections per target (default from config)")
}

func runPing(cmd *cobra.Command, args []string) error {
	return withDiagnostics(cmd, func(ctx context.Context, diag *services.Diagnostics) error {
		var all []*ping.Result
		for _, dest := range sliceutil.Dedupe(args) {
			results, err := diag.Ping(ctx, dest, pingCount, nil)
			if err != nil {
				return err
			}
			all = append(all, results...)
		}
		return displayPing(cmd.OutOrStdout(), all)
	})
}

func runTCPPing(cmd *cobra.Command, args []string) error {
	return withDiagnostics(cmd, func(ctx context.Context, diag *services.Diagnostics) error {
		var all []*tcpping.Result
		for _, dest := range sliceutil.Dedupe(args) {
			results, err := diag.TCPPing(ctx, dest, tcpPingPort, tcpPingCount, nil)
			if err != nil {
				return err
			}
			all = append(all, results...)
		}
		return displayTCPPing(cmd.OutOrStdout(), all)
	})
}
