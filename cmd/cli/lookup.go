package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anstrom/netdiag/internal/services"
)

var (
	nsLookupServer string
	whoisSummary   bool
)

// nsLookupCmd represents the nslookup command
var nsLookupCmd = &cobra.Command{
	Use:   "nslookup <name|address>",
	Short: "Query DNS records",
	Long: `Look up the NS, A, AAAA and MX records of a name, or the PTR name of an
address, against the configured resolvers or --server.`,
	Example: `  netdiag nslookup example.com
  netdiag nslookup 1.1.1.1
  netdiag nslookup example.com --server 9.9.9.9`,
	Args: cobra.ExactArgs(1),
	RunE: runNSLookup,
}

// whoisCmd represents the whois command
var whoisCmd = &cobra.Command{
	Use:   "whois <domain|address>",
	Short: "Query registration data over RDAP",
	Long: `Fetch RDAP registration data for a domain or an IP address and print it
as flattened dotted keys. --summary keeps the most useful fields only.

Queries go to an RDAP bootstrap service (rdap.org by default), which
redirects to the registry responsible for the name or address. Classic
port-43 whois servers are not queried, so the fields and their names
differ from whois(1) output.`,
	Example: `  netdiag whois example.com
  netdiag whois 8.8.8.8 --summary`,
	Args: cobra.ExactArgs(1),
	RunE: runWhois,
}

func init() {
	rootCmd.AddCommand(nsLookupCmd)
	rootCmd.AddCommand(whoisCmd)

	nsLookupCmd.Flags().StringVarP(&nsLookupServer, "server", "s", "", "DNS server to query")
	whoisCmd.Flags().BoolVar(&whoisSummary, "summary", false, "Only print summary fields")
}

func runNSLookup(cmd *cobra.Command, args []string) error {
	return withDiagnostics(cmd, func(ctx context.Context, diag *services.Diagnostics) error {
		result, err := diag.NSLookup(ctx, args[0], nsLookupServer)
		if err != nil {
			return err
		}
		return displayNSLookup(cmd.OutOrStdout(), result)
	})
}

func runWhois(cmd *cobra.Command, args []string) error {
	return withDiagnostics(cmd, func(ctx context.Context, diag *services.Diagnostics) error {
		fields, err := diag.Whois(ctx, args[0], whoisSummary)
		if err != nil {
			return err
		}
		return displayWhois(cmd.OutOrStdout(), fields)
	})
}
