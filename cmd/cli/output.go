package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/anstrom/netdiag/internal/lookup"
	"github.com/anstrom/netdiag/internal/ping"
	"github.com/anstrom/netdiag/internal/scanning"
	"github.com/anstrom/netdiag/internal/services"
	"github.com/anstrom/netdiag/internal/speedtest"
	"github.com/anstrom/netdiag/internal/tcpping"
	"github.com/anstrom/netdiag/internal/traceroute"
	"github.com/anstrom/netdiag/internal/wol"
)

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// writeJSONLine writes v as a single line, for streamed results.
func writeJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	table.Header(cells...)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

var pingHeader = []string{"Dest", "Host", "Sent", "Received", "Loss", "Min", "Avg", "Max", "Jitter", "Message"}

func pingRow(r *ping.Result) []string {
	jitter := ""
	if r.Jitter != nil {
		jitter = *r.Jitter
	}
	return []string{
		r.Dest, r.Host,
		strconv.Itoa(r.Sent), strconv.Itoa(r.Received), r.PacketLoss,
		r.Min, r.Avg, r.Max, jitter, r.Message,
	}
}

func displayPing(w io.Writer, results []*ping.Result) error {
	if outputFormat == outputJSON {
		return writeJSON(w, results)
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, pingRow(r))
	}
	return renderTable(w, pingHeader, rows)
}

var tcpPingHeader = []string{"Dest", "Port", "Sent", "Received", "Loss %", "Min ms", "Avg ms", "Max ms", "Jitter ms"}

func tcpPingRow(r *tcpping.Result) []string {
	return []string{
		r.Dest, strconv.Itoa(r.Port),
		strconv.Itoa(r.Sent), strconv.Itoa(r.Received), strconv.Itoa(r.PacketLoss),
		formatMillis(r.Min), formatMillis(r.Avg), formatMillis(r.Max), formatMillis(r.Jitter),
	}
}

func formatMillis(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func displayTCPPing(w io.Writer, results []*tcpping.Result) error {
	if outputFormat == outputJSON {
		return writeJSON(w, results)
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, tcpPingRow(r))
	}
	return renderTable(w, tcpPingHeader, rows)
}

func displayTraceroute(w io.Writer, run *traceroute.Run) error {
	if outputFormat == outputJSON {
		return writeJSON(w, run)
	}
	rows := make([][]string, 0, len(run.Records))
	for _, rec := range run.Records {
		rows = append(rows, []string{
			strconv.Itoa(rec.Hop),
			strings.Join(rec.IP, ", "),
			strings.Join(rec.Name, ", "),
			strings.Join(rec.RTT, ", "),
		})
	}
	return renderTable(w, []string{"Hop", "IP", "Name", "RTT ms"}, rows)
}

func displayPortScan(w io.Writer, report *services.PortScanReport, openOnly bool) error {
	if outputFormat == outputJSON {
		return writeJSON(w, report)
	}
	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		if openOnly && r.State != scanning.StateOpen {
			continue
		}
		rows = append(rows, []string{r.Host, r.Proto(), string(r.State)})
	}
	if err := renderTable(w, []string{"Host", "Port", "State"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d ports open on %s\n", len(report.Open), len(report.Results), report.Host)
	return err
}

func displayNSLookup(w io.Writer, result *lookup.NSLookupResult) error {
	if outputFormat == outputJSON {
		return writeJSON(w, result)
	}
	var rows [][]string
	add := func(kind string, values []string) {
		for _, v := range values {
			rows = append(rows, []string{kind, v})
		}
	}
	if result.Host != "" {
		add("PTR", []string{result.Host})
	}
	add("NS", result.NS)
	add("A", result.A)
	add("AAAA", result.AAAA)
	add("MX", result.MX)
	add("Server", result.Server)
	return renderTable(w, []string{"Record", "Value"}, rows)
}

func displayWhois(w io.Writer, fields *lookup.Fields) error {
	if outputFormat == outputJSON {
		return writeJSON(w, fields)
	}
	rows := make([][]string, 0, len(fields.Keys()))
	for _, key := range fields.Keys() {
		if key == "raw" {
			continue
		}
		value, _ := fields.Get(key)
		rows = append(rows, []string{key, formatValue(value)})
	}
	return renderTable(w, []string{"Field", "Value"}, rows)
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func displayWakeOnLAN(w io.Writer, result *wol.Result) error {
	if outputFormat == outputJSON {
		return writeJSON(w, result)
	}
	target := result.MACAddress
	if result.IPAddress != "" {
		target = fmt.Sprintf("%s via %s:%d", target, result.IPAddress, result.Port)
	}
	_, err := fmt.Fprintf(w, "%s (%s)\n", result.Message, target)
	return err
}

func displaySpeedTest(w io.Writer, result *speedtest.Result) error {
	if outputFormat == outputJSON {
		return writeJSON(w, result)
	}
	return renderTable(w, []string{"Server", "Ping ms", "Download", "Upload"}, [][]string{{
		result.Server,
		formatMillis(result.Ping),
		result.DownloadReadable,
		result.UploadReadable,
	}})
}
