package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anstrom/netdiag/internal/ping"
	"github.com/anstrom/netdiag/internal/services"
	"github.com/anstrom/netdiag/internal/sweep"
	"github.com/anstrom/netdiag/internal/tcpping"
)

// Probes accepted by the sweep command.
const (
	sweepProbePing    = "ping"
	sweepProbeTCPPing = "tcp_ping"
)

var (
	sweepProbe string
	sweepPort  int
	sweepCount int
	sweepList  bool
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep <cidr>",
	Short: "Probe every usable address of a network",
	Long: `Expand a CIDR block and probe each usable address, printing every result
as soon as it and all results before it are known. With --list the
addresses are printed without probing.`,
	Example: `  netdiag sweep 192.168.1.0/24
  netdiag sweep 10.0.0.0/28 --probe tcp_ping --port 22
  netdiag sweep 10.0.0.0/30 --list`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepProbe, "probe", sweepProbePing, "Probe to run: ping, tcp_ping")
	sweepCmd.Flags().IntVarP(&sweepPort, "port", "p", 0, "TCP port for tcp_ping (default from config)")
	sweepCmd.Flags().IntVarP(&sweepCount, "count", "c", 0, "Probes per target (default from config)")
	sweepCmd.Flags().BoolVar(&sweepList, "list", false, "Only list the addresses the sweep would probe")
}

func runSweep(cmd *cobra.Command, args []string) error {
	dest := args[0]
	w := cmd.OutOrStdout()

	return withDiagnostics(cmd, func(ctx context.Context, diag *services.Diagnostics) error {
		cfg := diag.Config()

		switch sweepProbe {
		case sweepProbePing:
			if sweepList {
				return listTargets(w, dest, cfg.Sweep.PingCap)
			}
			stream := newSweepStream(w, pingHeader)
			_, err := diag.Ping(ctx, dest, sweepCount, func(r *ping.Result) {
				stream.emit(r, pingRow(r))
			})
			return stream.finish(err)

		case sweepProbeTCPPing:
			if sweepList {
				return listTargets(w, dest, cfg.Sweep.TCPPingCap)
			}
			stream := newSweepStream(w, tcpPingHeader)
			_, err := diag.TCPPing(ctx, dest, sweepPort, sweepCount, func(r *tcpping.Result) {
				stream.emit(r, tcpPingRow(r))
			})
			return stream.finish(err)

		default:
			return fmt.Errorf("invalid probe %q (use %s or %s)", sweepProbe, sweepProbePing, sweepProbeTCPPing)
		}
	})
}

func listTargets(w io.Writer, dest string, hardCap int) error {
	targets, err := sweep.Expand(dest, hardCap)
	if err != nil {
		return err
	}
	if outputFormat == outputJSON {
		return writeJSON(w, targets)
	}
	for _, t := range targets {
		if _, err := fmt.Fprintln(w, t); err != nil {
			return err
		}
	}
	return nil
}

// sweepStream prints results as they arrive: one JSON object per line, or
// tab separated rows under a header.
type sweepStream struct {
	w      io.Writer
	header []string
	count  int
	err    error
}

func newSweepStream(w io.Writer, header []string) *sweepStream {
	return &sweepStream{w: w, header: header}
}

func (s *sweepStream) emit(v interface{}, row []string) {
	if s.err != nil {
		return
	}
	if outputFormat == outputJSON {
		s.err = writeJSONLine(s.w, v)
		s.count++
		return
	}
	if s.count == 0 {
		_, s.err = fmt.Fprintln(s.w, strings.Join(s.header, "\t"))
	}
	if s.err == nil {
		_, s.err = fmt.Fprintln(s.w, strings.Join(row, "\t"))
	}
	s.count++
}

func (s *sweepStream) finish(err error) error {
	if err != nil {
		return err
	}
	return s.err
}
