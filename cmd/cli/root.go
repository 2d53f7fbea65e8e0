// Package cli provides the cobra commands of netdiag. Every diagnostic is
// run through services.Diagnostics, so the CLI and the HTTP API share
// configuration, limits and error codes.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/netdiag/internal/api/handlers"
	"github.com/anstrom/netdiag/internal/config"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/services"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

const envPrefix = "NETDIAG"

var (
	cfgFile      string
	verbose      bool
	outputFormat string
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// newDiagnostics builds the service the commands run against. Tests
// replace it to inject a fake command runner.
var newDiagnostics = func(cfg *config.Config) *services.Diagnostics {
	return services.NewDiagnostics(cfg, services.Deps{})
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "netdiag",
	Short: "Network diagnostics toolkit",
	Long: `netdiag runs network diagnostics: ping and TCP ping sweeps over hosts or
CIDR blocks, traceroute, TCP port scans, DNS and RDAP lookups and
Wake-on-LAN. The same diagnostics are available over HTTP with "netdiag serve".`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case outputTable, outputJSON:
			return nil
		default:
			return fmt.Errorf("invalid output format %q (use %s or %s)", outputFormat, outputTable, outputJSON)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputTable, "Output format (table, json)")

	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configureViper()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func configureViper() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// loadConfig loads the config file, applies NETDIAG_* environment
// overrides and initializes logging from the result.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if path := viper.ConfigFileUsed(); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := applyOverrides(cfg, viper.GetViper()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	initLogging(cfg)
	return cfg, nil
}

// initLogging initializes structured logging based on configuration.
func initLogging(cfg *config.Config) {
	logConfig := cfg.LogConfig()
	logConfig.AddSource = cfg.Logging.Level == "debug"
	if verbose && cfg.Logging.Level != "debug" {
		logConfig.Level = logging.LevelDebug
	}

	logger, err := logging.New(logConfig)
	if err != nil {
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	previous := logging.Default()
	logging.SetDefault(logger)
	_ = previous.Close()
}

// withDiagnostics loads the configuration and runs fn with a diagnostics
// service and a context canceled on SIGINT or SIGTERM.
func withDiagnostics(cmd *cobra.Command, fn func(ctx context.Context, diag *services.Diagnostics) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	diag := newDiagnostics(cfg)
	defer func() { _ = diag.Close() }()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, diag)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
	handlers.SetBuildInfo(v, c, bt)
}
