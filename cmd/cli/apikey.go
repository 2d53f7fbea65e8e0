package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anstrom/netdiag/internal/auth"
)

// apiKeyCmd represents the apikey command
var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
	Long: `API keys are configured in api.api_keys, either as plain keys or as
bcrypt hashes of keys. Hashes keep the keys themselves out of the
configuration file.`,
}

// apiKeyGenerateCmd represents the apikey generate command
var apiKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new API key and its hash",
	Long: `Generate a random API key. Give the key to the client and add the hash to
api.api_keys. The key is shown only once.`,
	Example: `  netdiag apikey generate
  netdiag apikey generate -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		generated, err := auth.GenerateAPIKey()
		if err != nil {
			return err
		}
		if outputFormat == outputJSON {
			return writeJSON(cmd.OutOrStdout(), generated)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "API key: %s\nHash:    %s\n", generated.Key, generated.Hash)
		return err
	},
}

// apiKeyHashCmd represents the apikey hash command
var apiKeyHashCmd = &cobra.Command{
	Use:     "hash <key>",
	Short:   "Hash an existing API key for the configuration",
	Example: `  netdiag apikey hash nd_abcdefghijklmnopqrstuvwxyz234567`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashAPIKey(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return err
	},
}

func init() {
	rootCmd.AddCommand(apiKeyCmd)
	apiKeyCmd.AddCommand(apiKeyGenerateCmd)
	apiKeyCmd.AddCommand(apiKeyHashCmd)
}
