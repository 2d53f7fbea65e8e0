package ping

import (
	"strconv"
	"strings"
)

// Result is the structured form of one ping run.
type Result struct {
	Host       string  `json:"host"`
	Sent       int     `json:"sent"`
	Received   int     `json:"received"`
	PacketLoss string  `json:"packet_loss"`
	Min        string  `json:"min_ping"`
	Avg        string  `json:"avg_ping"`
	Max        string  `json:"max_ping"`
	Jitter     *string `json:"jitter,omitempty"`

	// Set by Pinger, not by Parse.
	Dest       string `json:"dest,omitempty"`
	ReturnCode int    `json:"return_code"`
	Output     string `json:"output,omitempty"`
	Message    string `json:"message,omitempty"`
}

// DefaultFormat prints every field in a fixed order.
const DefaultFormat = "%h,%s,%r,%p,%m,%a,%M,%j"

// Format expands a format string. Interpreted sequences:
//
//	%h  host name or IP address
//	%s  packets sent
//	%r  packets received
//	%p  packet loss
//	%m  minimum ping in milliseconds
//	%a  average ping in milliseconds
//	%M  maximum ping in milliseconds
//	%j  jitter in milliseconds, NA when not reported
//	%%  a literal percent sign
func (r *Result) Format(format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'h':
			b.WriteString(r.Host)
		case 's':
			b.WriteString(strconv.Itoa(r.Sent))
		case 'r':
			b.WriteString(strconv.Itoa(r.Received))
		case 'p':
			b.WriteString(r.PacketLoss)
		case 'm':
			b.WriteString(r.Min)
		case 'a':
			b.WriteString(r.Avg)
		case 'M':
			b.WriteString(r.Max)
		case 'j':
			b.WriteString(r.JitterText())
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

// JitterText returns the jitter or NotAvailable when the tool did not report one.
func (r *Result) JitterText() string {
	if r.Jitter == nil {
		return NotAvailable
	}
	return *r.Jitter
}

// Destination implements sweep.Backfiller.
func (r *Result) Destination() string {
	return r.Dest
}

// SetDestination implements sweep.Backfiller.
func (r *Result) SetDestination(dest string) {
	r.Dest = dest
}
