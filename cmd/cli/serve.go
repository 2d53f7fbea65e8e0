package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anstrom/netdiag/internal/api"
	"github.com/anstrom/netdiag/internal/config"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
	"github.com/anstrom/netdiag/internal/services"
)

var (
	serveHost string
	servePort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve the diagnostics over HTTP until interrupted.

Endpoints live under /api/v1; /api/v1/sweep/ws streams sweep results over
a WebSocket, /metrics exposes Prometheus metrics and /swagger/ documents
the API.`,
	Example: `  netdiag serve
  netdiag serve --host 0.0.0.0 --port 9000
  NETDIAG_API_AUTH_ENABLED=true NETDIAG_API_API_KEYS=0123456789abcdef netdiag serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Address to listen on (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cfg)
	if !cfg.IsAPIEnabled() {
		return fmt.Errorf("the API server is disabled in the configuration (api.enabled)")
	}

	logger := logging.Default().WithComponent("serve")

	pm := metrics.NewPrometheusMetrics()
	diag := services.NewDiagnostics(cfg, services.Deps{Metrics: pm})
	defer func() {
		if err := diag.Close(); err != nil {
			logger.Warn("Failed to release scan limiter", "error", err)
		}
	}()

	server, err := api.New(cfg, diag, pm)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "API server listening on %s\n", cfg.GetAPIAddress())
	fmt.Fprintf(cmd.OutOrStdout(), "Health check: http://%s/api/v1/health\n", cfg.GetAPIAddress())
	fmt.Fprintf(cmd.OutOrStdout(), "API documentation: http://%s/swagger/\n", cfg.GetAPIAddress())

	if err := server.Start(ctx); err != nil {
		logger.Error("API server error", "error", err)
		return err
	}
	logger.Info("API server stopped")
	return nil
}

func applyServeFlags(cfg *config.Config) {
	if serveHost != "" {
		cfg.API.ListenAddr = serveHost
	}
	if servePort != 0 {
		cfg.API.Port = servePort
	}
	if serveHost != "" || servePort != 0 {
		cfg.API.Enabled = true
	}
}
