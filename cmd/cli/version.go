package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFormat == outputJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"version":    version,
				"commit":     commit,
				"build_time": buildTime,
				"go_version": runtime.Version(),
			})
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "netdiag %s\n", getVersion())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
