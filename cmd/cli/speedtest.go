package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anstrom/netdiag/internal/services"
)

var (
	speedTestServer string
	speedTestRuns   int
)

// speedTestCmd represents the speedtest command
var speedTestCmd = &cobra.Command{
	Use:   "speedtest",
	Short: "Measure latency and bandwidth",
	Long: `Measure the latency to a speed test server and the download and upload
rates to and from it. Without --server the speed_test.server setting is
used, and when that is empty the closest of the public speedtest.net
servers is chosen by latency.

Rates are reported in bits per second, together with a readable form.`,
	Example: `  netdiag speedtest
  netdiag speedtest --server speedtest.example.net:8080 --runs 3
  netdiag speedtest -o json`,
	Args: cobra.NoArgs,
	RunE: runSpeedTest,
}

func init() {
	rootCmd.AddCommand(speedTestCmd)

	speedTestCmd.Flags().StringVar(&speedTestServer, "server", "", "Server as host[:port] or URL")
	speedTestCmd.Flags().IntVar(&speedTestRuns, "runs", 0, "Times each transfer set is repeated (default from config)")
}

func runSpeedTest(cmd *cobra.Command, _ []string) error {
	return withDiagnostics(cmd, func(ctx context.Context, diag *services.Diagnostics) error {
		result, err := diag.SpeedTest(ctx, speedTestServer, speedTestRuns)
		if err != nil {
			return err
		}
		return displaySpeedTest(cmd.OutOrStdout(), result)
	})
}
