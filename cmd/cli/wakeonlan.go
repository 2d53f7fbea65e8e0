package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anstrom/netdiag/internal/services"
	"github.com/anstrom/netdiag/internal/wol"
)

var (
	wolMAC  string
	wolIP   string
	wolPort int
)

// wakeOnLANCmd represents the wakeonlan command
var wakeOnLANCmd = &cobra.Command{
	Use:     "wakeonlan [host]",
	Aliases: []string{"wol"},
	Short:   "Send a Wake-on-LAN magic packet",
	Long: `Send a magic packet to a MAC address. A host name is resolved to its MAC
address through the wake_on_lan.hosts table of the configuration. The packet
is broadcast on port 9 unless --port is given, in which case --ip selects
the destination address.`,
	Example: `  netdiag wakeonlan nas
  netdiag wakeonlan --mac 00:11:22:33:44:55
  netdiag wakeonlan --mac 00:11:22:33:44:55 --ip 192.168.1.255 --port 7`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWakeOnLAN,
}

func init() {
	rootCmd.AddCommand(wakeOnLANCmd)

	wakeOnLANCmd.Flags().StringVar(&wolMAC, "mac", "", "MAC address to wake")
	wakeOnLANCmd.Flags().StringVar(&wolIP, "ip", "", "Destination address, used with --port")
	wakeOnLANCmd.Flags().IntVar(&wolPort, "port", 0, "Destination UDP port")
}

func runWakeOnLAN(cmd *cobra.Command, args []string) error {
	req := wol.Request{MACAddress: wolMAC, IPAddress: wolIP, Port: wolPort}
	if len(args) == 1 {
		req.Host = args[0]
	}

	return withDiagnostics(cmd, func(ctx context.Context, diag *services.Diagnostics) error {
		result, err := diag.WakeOnLAN(ctx, req)
		if err != nil {
			return err
		}
		return displayWakeOnLAN(cmd.OutOrStdout(), result)
	})
}
