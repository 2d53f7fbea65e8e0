package traceroute

// Probe is one round-trip measurement within a hop. RTT is nil for a
// timed-out probe; DestName and DestIP are nil when the tool printed no
// responder for it.
type Probe struct {
	RTT      *float64 `json:"rtt"`
	DestName *string  `json:"dest"`
	DestIP   *string  `json:"dest_ip"`
}

// Hop is one TTL step toward the destination. Number is nil only when the
// first recognized line of the output carried no hop number.
type Hop struct {
	Number *int    `json:"number"`
	Probes []Probe `json:"probes"`
}

// Trace is a parsed traceroute run, hops in output order.
type Trace struct {
	DestName *string `json:"dest"`
	DestIP   *string `json:"dest_ip"`
	Hops     []*Hop  `json:"hops"`
}
