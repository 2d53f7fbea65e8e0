// Package ping parses the summary printed by the operating system ping
// utility and runs it through a command.Runner.
//
// Windows and POSIX (Linux, macOS, BSD, BusyBox) output is recognized. Values
// are kept as the text the tool printed; NotAvailable marks timing fields
// for runs where the tool printed no round-trip summary.
package ping

import (
	"strconv"
	"strings"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/textmatch"
)

// NotAvailable is the value of timing fields when the output has no
// round-trip summary, for example when every reply was an error.
const NotAvailable = "NA"

// number is a round-trip figure; some builds print whole milliseconds.
const number = `\d+(?:\.\d+)?`

var (
	hostMatcher = textmatch.MustRegexp("host", `(?i)ping(?:ing)? (?P<host>[a-zA-Z0-9.\-]+)`)

	// Packet counts, tried in order.
	resultMatchers = textmatch.List{
		textmatch.MustRegexp("posix",
			`(?P<sent>\d+) packets transmitted, (?P<received>\d+) (?:packets )?received,`+
				`(?: \+\d+ (?:duplicates|errors),)* (?P<loss>\d+\.?\d*)% packet loss`),
		textmatch.MustRegexp("windows",
			`Sent = (?P<sent>\d+), Received = (?P<received>\d+), Lost = \d+ \((?P<loss>\d+\.?\d*)% loss`),
	}

	// Round-trip summary, tried in order. Windows and BusyBox print no jitter.
	timingMatchers = textmatch.List{
		textmatch.MustRegexp("posix",
			`(?P<min>`+number+`)/(?P<avg>`+number+`)/(?P<max>`+number+`)/(?P<jitter>`+number+`) ?ms`),
		textmatch.MustRegexp("windows",
			`Minimum = (?P<min>\d+\.?\d*)ms, Maximum = (?P<max>\d+\.?\d*)ms, Average = (?P<avg>\d+\.?\d*)ms`),
		textmatch.MustRegexp("busybox",
			`min/avg/max = (?P<min>`+number+`)/(?P<avg>`+number+`)/(?P<max>`+number+`)`),
	}
)

// Parse converts raw ping output into a Result. It fails with a ParseError
// embedding the raw text when no host or packet summary can be found.
//
// Counts are reported exactly as the tool printed them. Windows counts
// "Destination host unreachable" replies as received, so a fully
// unreachable host can show 0% loss; this is kept as is.
func Parse(raw string) (*Result, error) {
	hostFields, ok := hostMatcher.TryMatch(raw)
	if !ok {
		return nil, errors.NewParseError("ping", raw)
	}

	counts, _, ok := resultMatchers.First(raw)
	if !ok {
		return nil, errors.NewParseError("ping", raw)
	}

	sent, err := strconv.Atoi(counts["sent"])
	if err != nil {
		return nil, errors.NewParseError("ping", raw)
	}
	received, err := strconv.Atoi(counts["received"])
	if err != nil {
		return nil, errors.NewParseError("ping", raw)
	}

	result := &Result{
		Host:       hostFields["host"],
		Sent:       sent,
		Received:   received,
		PacketLoss: counts["loss"],
	}

	timing, _, ok := timingMatchers.First(raw)
	if !ok {
		na := NotAvailable
		result.Min, result.Avg, result.Max = NotAvailable, NotAvailable, NotAvailable
		result.Jitter = &na
		return result, nil
	}

	result.Min = timing["min"]
	result.Avg = timing["avg"]
	result.Max = timing["max"]
	result.Jitter = timing.Ptr("jitter")

	return result, nil
}

// Millis converts a timing field to a number. It returns false for
// NotAvailable and for text that is not a number.
func Millis(field string) (float64, bool) {
	if field == "" || field == NotAvailable {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
