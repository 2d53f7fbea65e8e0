package traceroute

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// HopRecord is one row of a flattened trace, suitable for tables and
// line-oriented JSON.
type HopRecord struct {
	Hop      int      `json:"hop"`
	RTT      []string `json:"rtt"`
	IP       []string `json:"ip"`
	Name     []string `json:"name"`
	DestIP   *string  `json:"dest_ip"`
	DestHost *string  `json:"dest_host"`
	RunID    string   `json:"run_id"`
}

// Flatten turns trace into one record per hop that has probes. Hops are
// renumbered from 1 and every record shares a newly generated run ID.
func Flatten(trace *Trace) []HopRecord {
	return FlattenWithID(trace, uuid.NewString())
}

// FlattenWithID is Flatten with a caller supplied run ID.
func FlattenWithID(trace *Trace, runID string) []HopRecord {
	records := []HopRecord{}
	if trace == nil {
		return records
	}

	n := 0
	for _, hop := range trace.Hops {
		if len(hop.Probes) == 0 {
			continue
		}
		n++

		rec := HopRecord{
			Hop:      n,
			RTT:      []string{},
			IP:       []string{},
			Name:     []string{},
			DestIP:   trace.DestIP,
			DestHost: trace.DestName,
			RunID:    runID,
		}
		for _, probe := range hop.Probes {
			if probe.RTT != nil {
				rec.RTT = append(rec.RTT, strconv.FormatFloat(*probe.RTT, 'f', -1, 64))
			}
			if probe.DestIP != nil {
				rec.IP = append(rec.IP, *probe.DestIP)
			}
			if probe.DestName != nil {
				rec.Name = append(rec.Name, *probe.DestName)
			}
		}
		records = append(records, rec)
	}
	return records
}

// Label names the first responder of the hop as "ip(name)", or just the
// address when the name is the address or unknown.
func (r HopRecord) Label() string {
	if len(r.IP) == 0 {
		if len(r.Name) == 0 {
			return "*"
		}
		return r.Name[0]
	}
	label := r.IP[0]
	if len(r.Name) > 0 && r.Name[0] != r.IP[0] {
		label += "(" + r.Name[0] + ")"
	}
	return label
}

// Summary joins the labels of records into a single route description.
func Summary(records []HopRecord) string {
	labels := make([]string, 0, len(records))
	for _, r := range records {
		labels = append(labels, r.Label())
	}
	return strings.Join(labels, ", ")
}
