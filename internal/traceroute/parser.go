// Package traceroute parses the output of traceroute (Linux, macOS, BSD)
// and tracert (Windows) into an ordered tree of hops and probes, and runs the
// platform utility through a command.Runner.
package traceroute

import (
	"strconv"
	"strings"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/textmatch"
)

const ipv4 = `\d+\.\d+\.\d+\.\d+`

// requestTimedOut is what tracert prints in place of a host for a silent hop.
const requestTimedOut = "Request timed out."

var (
	ignoreMatchers = textmatch.List{
		textmatch.MustRegexp("trace_complete", `^\s*Trace complete`),
		textmatch.MustRegexp("blank", `^\s*$`),
		textmatch.MustRegexp("warning", `^\s*traceroute: Warning:`),
		textmatch.MustRegexp("hop_count", `^\s*over a maximum of .* hops`),
	}

	headerMatchers = textmatch.List{
		textmatch.MustRegexp("windows",
			`^Tracing route to (?P<dest>\S+) (\[(?P<dest_ip>`+ipv4+`)\])?`),
		textmatch.MustRegexp("posix",
			`traceroute to (?P<dest>\S+) \((?P<dest_ip>`+ipv4+`)\)`),
	}

	// Hop patterns in priority order. Every match of the first pattern that
	// matches a line is used, since POSIX traceroute can print several hosts
	// answering for the same hop on one line.
	hopMatchers = textmatch.List{
		textmatch.MustRegexp("windows_error_report",
			`^\s*(?P<hop>\d+)\s+(?P<dest>([^*\[ ]+))(\s*\[(?P<dest_ip>`+ipv4+`)\])?\s*reports[:].*`),
		textmatch.MustRegexp("windows",
			`^\s*(?P<hop>\d+)\s+(?P<probe_1><?[\d*]*)(\s*ms)?\s+(?P<probe_2><?[\d*]*)(\s*ms)?\s*`+
				`(?P<probe_3><?[\d*]*)(\s*ms)?\s*(?P<dest>([^*\[ ]+)|(Request timed out[.]))`+
				`(\s*\[(?P<dest_ip>`+ipv4+`)\])?\s*$`),
		textmatch.MustRegexp("posix",
			`\s*(((?P<hop>\d+)?\s+)?\s+)?((?P<dest>[-.\w]+)\s+)?(\((?P<dest_ip>`+ipv4+`)\))?\s*`+
				`(?P<probe_1><?[*0-9]+([.][0-9]+)?)(\s*ms)?(\s+![A-Za-z0-9<>]*)?`+
				`(\s+(?P<probe_2><?[*0-9]+([.][0-9]+)?)(\s*ms))?(\s+![A-Za-z0-9<>]*)?`+
				`(\s+(?P<probe_3><?[*0-9]+([.][0-9]+)?)(\s*ms))?(\s+![A-Za-z0-9<>]*)?`),
	}

	probeGroups = [...]string{"probe_1", "probe_2", "probe_3"}
)

// Parse converts raw traceroute or tracert output into a Trace.
//
// Lines that match no known pattern are skipped unless strict is set, in
// which case the first such line fails the parse with UNEXPECTED_INPUT.
// Output in which not a single header or hop line was recognized fails
// with UNABLE_TO_PARSE.
func Parse(raw string, strict bool) (*Trace, error) {
	p := parser{trace: &Trace{Hops: []*Hop{}}}

	for _, line := range splitLines(raw) {
		if ignoreMatchers.Any(line) {
			continue
		}

		if header, _, ok := headerMatchers.First(line); ok {
			p.header(header)
			continue
		}

		matches, _ := hopMatchers.FirstAll(line)
		if len(matches) == 0 {
			if strict {
				return nil, errors.ErrUnexpectedInput("traceroute", line)
			}
			continue
		}

		p.recognized = true
		for _, m := range matches {
			p.hopLine(m)
		}
	}

	if !p.recognized {
		return nil, errors.ErrUnableToParse("traceroute", raw)
	}
	return p.trace, nil
}

type parser struct {
	trace      *Trace
	current    *Hop
	sawHeader  bool
	recognized bool
}

// header records the destination from the first header line only.
func (p *parser) header(f textmatch.Fields) {
	p.recognized = true
	if p.sawHeader {
		return
	}
	p.sawHeader = true
	p.trace.DestName = normalizeDest(f.Ptr("dest"))
	p.trace.DestIP = normalizeDest(f.Ptr("dest_ip"))
}

// hopLine applies one hop match: a match with a hop number opens a new Hop,
// a match without one continues the most recent Hop.
func (p *parser) hopLine(f textmatch.Fields) {
	var number *int
	if text, ok := f.Get("hop"); ok {
		if n, err := strconv.Atoi(text); err == nil {
			number = &n
		}
	}

	rawDest := f.Ptr("dest")
	rawIP := f.Ptr("dest_ip")
	if rawDest != nil && rawIP == nil {
		rawIP = rawDest
	}

	if p.current == nil || number != nil {
		p.current = &Hop{Number: number, Probes: []Probe{}}
		p.trace.Hops = append(p.trace.Hops, p.current)
	}

	dest := normalizeDest(rawDest)
	ip := normalizeDest(rawIP)

	for _, group := range probeGroups {
		text, ok := f.Get(group)
		if !ok || text == "" {
			continue
		}
		p.current.addProbe(Probe{RTT: parseRTT(text), DestName: dest, DestIP: ip})
	}

	// Keep hops such as error reports, which name a host but print no
	// round-trip columns.
	if (rawDest != nil || rawIP != nil) && len(p.current.Probes) == 0 {
		p.current.addProbe(Probe{DestName: dest, DestIP: ip})
	}
}

// addProbe appends probe, filling an unresolved name or address from the
// probe before it.
func (h *Hop) addProbe(probe Probe) {
	if n := len(h.Probes); n > 0 {
		prev := h.Probes[n-1]
		if probe.DestName == nil {
			probe.DestName = prev.DestName
		}
		if probe.DestIP == nil {
			probe.DestIP = prev.DestIP
		}
	}
	h.Probes = append(h.Probes, probe)
}

// parseRTT reads one round-trip column. "<1" is read as the integer after
// the sign, "*" is a timeout and anything else is decimal milliseconds.
func parseRTT(text string) *float64 {
	if text == "" || text == "*" {
		return nil
	}
	if strings.HasPrefix(text, "<") {
		n, err := strconv.Atoi(text[1:])
		if err != nil {
			return nil
		}
		v := float64(n)
		return &v
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &v
}

func normalizeDest(s *string) *string {
	if s == nil {
		return nil
	}
	if *s == requestTimedOut {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// splitLines splits on \n, \r\n and \r.
func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	return strings.Split(raw, "\n")
}
