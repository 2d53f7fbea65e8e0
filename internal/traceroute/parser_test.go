package traceroute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/netdiag/internal/errors"
)

const windowsTrace = `Tracing route to att.com [144.160.155.43] over a maximum of 30 hops:

  1    18 ms    <1 ms    <1 ms  10.0.0.1
  2    14 ms    14 ms    14 ms  192.168.1.254
  3     *        *        *     Request timed out.
  4    34 ms    34 ms    47 ms  71.145.65.194
  5     *        *       44 ms  71.145.64.128
  6    40 ms    36 ms    38 ms  12.83.43.45
  7   107 ms    84 ms    83 ms  gar2.placa.ip.att.net [12.122.110.5]
  8    86 ms    86 ms    86 ms  12.91.205.18
  9    87 ms    73 ms    73 ms  att.com [144.160.155.43]

Trace complete.`

const windowsUnreachableTrace = "Tracing route to att.com [144.160.36.42]    \n" + `over a maximum of 30 hops:

  1    <1 ms    <1 ms    <1 ms  10.0.0.1
  2    15 ms    14 ms    14 ms  192.168.1.254
  3     *        *        *     Request timed out.
  4    34 ms    33 ms    33 ms  71.145.65.194
  5    43 ms    58 ms    92 ms  12.83.43.49
  6    88 ms    66 ms    90 ms  ggr1.chail.ip.att.net [12.122.132.181]
  7   125 ms    42 ms    41 ms  12.249.81.194
  8  att.com [144.160.36.42]  reports: Destination protocol unreachable.

Trace complete.`

const osxOddTrace = `
traceroute: Warning: att.com has multiple addresses; using 144.160.36.42
traceroute to att.com (144.160.36.42), 64 hops max, 52 byte packets
 1  win-ad.demo.net (10.0.0.1)  1.709 ms  1.024 ms  0.743 ms
 2  192.168.1.254 (192.168.1.254)  15.484 ms  16.503 ms  15.885 ms
 3  162-235-240-3.lightspeed.cicril.sbcglobal.net (162.235.240.3)  35.881 ms  36.367 ms  35.004 ms
 4  71.145.65.194 (71.145.65.194)  35.976 ms  35.911 ms  36.732 ms
 5  12.83.43.49 (12.83.43.49)  38.070 ms
    12.83.43.53 (12.83.43.53)  38.454 ms
    12.83.43.49 (12.83.43.49)  39.049 ms
 6  ggr1.chail.ip.att.net (12.122.132.181)  36.673 ms  36.318 ms  36.972 ms
 7  12.249.81.194 (12.249.81.194)  43.967 ms  43.266 ms  43.693 ms
 8  my.atttest.com (144.160.36.42)  45.424 ms !N  44.528 ms !N  44.779 ms !N
`

const osxTrace = `traceroute to google.com (216.58.192.238), 64 hops max, 52 byte packets
 1  10.0.0.1 (10.0.0.1)  1.450 ms  0.967 ms  0.842 ms
 2  192.168.1.254 (192.168.1.254)  15.996 ms  15.873 ms  17.041 ms
 3  162-235-240-3.lightspeed.cicril.sbcglobal.net (162.235.240.3)  39.095 ms  35.661 ms  35.715 ms
 4  71.145.65.194 (71.145.65.194)  37.061 ms  37.974 ms  36.744 ms
 5  12.83.43.53 (12.83.43.53)  36.973 ms
    12.83.43.49 (12.83.43.49)  39.475 ms
    12.83.43.53 (12.83.43.53)  38.859 ms
 6  12.123.159.53 (12.123.159.53)  38.333 ms  38.525 ms  38.821 ms
 7  12.247.252.10 (12.247.252.10)  38.299 ms  40.987 ms *
 8  108.170.243.193 (108.170.243.193)  37.973 ms  37.021 ms *
 9  216.239.42.113 (216.239.42.113)  37.602 ms
    216.239.42.111 (216.239.42.111)  37.130 ms  38.387 ms
10  ord30s26-in-f14.1e100.net (216.58.192.238)  37.836 ms  38.070 ms  37.424 ms`

const linuxTrace = `
traceroute to edgecastcdn.net (72.21.81.13), 30 hops max, 38 byte packets
 1  *  *
 2  *  *
 3  *  *
 4  10.251.11.32 (10.251.11.32)  3574.616 ms  0.153 ms
 5  10.251.10.2 (10.251.10.2)  465.821 ms  2500.031 ms
 6  172.18.68.206 (172.18.68.206)  170.197 ms  78.979 ms
 7  172.18.59.165 (172.18.59.165)  151.123 ms  525.177 ms
 8  172.18.59.170 (172.18.59.170)  150.909 ms  172.18.59.174 (172.18.59.174)  62.591 ms
 9  172.18.75.5 (172.18.75.5)  123.078 ms  68.847 ms
10  12.91.11.5 (12.91.11.5)  79.834 ms  556.366 ms
11  cr2.ptdor.ip.att.net (12.123.157.98)  245.606 ms  83.038 ms
12  cr81.st0wa.ip.att.net (12.122.5.197)  80.078 ms  96.588 ms
13  gar1.omhne.ip.att.net (12.122.82.17)  363.800 ms  12.122.111.9 (12.122.111.9)  72.113 ms
14  206.111.7.89.ptr.us.xo.net (206.111.7.89)  188.965 ms  270.203 ms
15  xe-0-6-0-5.r04.sttlwa01.us.ce.gin.ntt.net (129.250.196.230)  706.390 ms  ae-6.r21.sttlwa01.us.bb.gin.ntt.net (129.250.5.44)  118.042 ms
16  xe-9-3-2-0.co1-96c-1b.ntwk.msn.net (207.46.47.85)  675.110 ms  72.21.81.13 (72.21.81.13)  82.306 ms

`

// probeWant describes the expected fields of one probe. A negative rtt means
// the probe timed out.
type probeWant struct {
	rtt  float64
	dest string
	ip   string
}

func assertProbe(t *testing.T, got Probe, want probeWant) {
	t.Helper()

	if want.rtt < 0 {
		assert.Nil(t, got.RTT)
	} else if assert.NotNil(t, got.RTT) {
		assert.InDelta(t, want.rtt, *got.RTT, 1e-9)
	}

	if want.dest == "" {
		assert.Nil(t, got.DestName)
	} else if assert.NotNil(t, got.DestName) {
		assert.Equal(t, want.dest, *got.DestName)
	}

	if want.ip == "" {
		assert.Nil(t, got.DestIP)
	} else if assert.NotNil(t, got.DestIP) {
		assert.Equal(t, want.ip, *got.DestIP)
	}
}

func assertHop(t *testing.T, hop *Hop, number int, probes ...probeWant) {
	t.Helper()

	require.NotNil(t, hop.Number)
	assert.Equal(t, number, *hop.Number)
	require.Len(t, hop.Probes, len(probes))
	for i, want := range probes {
		assertProbe(t, hop.Probes[i], want)
	}
}

func assertDest(t *testing.T, trace *Trace, name, ip string) {
	t.Helper()

	require.NotNil(t, trace.DestName)
	require.NotNil(t, trace.DestIP)
	assert.Equal(t, name, *trace.DestName)
	assert.Equal(t, ip, *trace.DestIP)
}

func TestParseWindows(t *testing.T) {
	trace, err := Parse(windowsTrace, true)
	require.NoError(t, err)

	assertDest(t, trace, "att.com", "144.160.155.43")
	require.Len(t, trace.Hops, 9)

	assertHop(t, trace.Hops[0], 1,
		probeWant{18, "10.0.0.1", "10.0.0.1"},
		probeWant{1, "10.0.0.1", "10.0.0.1"},
		probeWant{1, "10.0.0.1", "10.0.0.1"},
	)
	assertHop(t, trace.Hops[2], 3,
		probeWant{rtt: -1},
		probeWant{rtt: -1},
		probeWant{rtt: -1},
	)
	assertHop(t, trace.Hops[4], 5,
		probeWant{-1, "71.145.64.128", "71.145.64.128"},
		probeWant{-1, "71.145.64.128", "71.145.64.128"},
		probeWant{44, "71.145.64.128", "71.145.64.128"},
	)
	assertHop(t, trace.Hops[6], 7,
		probeWant{107, "gar2.placa.ip.att.net", "12.122.110.5"},
		probeWant{84, "gar2.placa.ip.att.net", "12.122.110.5"},
		probeWant{83, "gar2.placa.ip.att.net", "12.122.110.5"},
	)
}

func TestParseWindowsUnreachable(t *testing.T) {
	trace, err := Parse(windowsUnreachableTrace, true)
	require.NoError(t, err)

	assertDest(t, trace, "att.com", "144.160.36.42")
	require.Len(t, trace.Hops, 8)

	assertHop(t, trace.Hops[0], 1,
		probeWant{1, "10.0.0.1", "10.0.0.1"},
		probeWant{1, "10.0.0.1", "10.0.0.1"},
		probeWant{1, "10.0.0.1", "10.0.0.1"},
	)
	assertHop(t, trace.Hops[2], 3,
		probeWant{rtt: -1},
		probeWant{rtt: -1},
		probeWant{rtt: -1},
	)

	// The error report line has no timing columns, so it yields a single
	// probe carrying only the responder.
	assertHop(t, trace.Hops[7], 8,
		probeWant{-1, "att.com", "144.160.36.42"},
	)
}

func TestParseOSXOddities(t *testing.T) {
	trace, err := Parse(osxOddTrace, true)
	require.NoError(t, err)

	assertDest(t, trace, "att.com", "144.160.36.42")
	require.Len(t, trace.Hops, 8)

	assertHop(t, trace.Hops[0], 1,
		probeWant{1.709, "win-ad.demo.net", "10.0.0.1"},
		probeWant{1.024, "win-ad.demo.net", "10.0.0.1"},
		probeWant{0.743, "win-ad.demo.net", "10.0.0.1"},
	)
	assertHop(t, trace.Hops[7], 8,
		probeWant{45.424, "my.atttest.com", "144.160.36.42"},
		probeWant{44.528, "my.atttest.com", "144.160.36.42"},
		probeWant{44.779, "my.atttest.com", "144.160.36.42"},
	)
}

func TestParseOSX(t *testing.T) {
	trace, err := Parse(osxTrace, true)
	require.NoError(t, err)

	assertDest(t, trace, "google.com", "216.58.192.238")
	require.Len(t, trace.Hops, 10)

	assertHop(t, trace.Hops[0], 1,
		probeWant{1.45, "10.0.0.1", "10.0.0.1"},
		probeWant{0.967, "10.0.0.1", "10.0.0.1"},
		probeWant{0.842, "10.0.0.1", "10.0.0.1"},
	)
	assertHop(t, trace.Hops[2], 3,
		probeWant{39.095, "162-235-240-3.lightspeed.cicril.sbcglobal.net", "162.235.240.3"},
		probeWant{35.661, "162-235-240-3.lightspeed.cicril.sbcglobal.net", "162.235.240.3"},
		probeWant{35.715, "162-235-240-3.lightspeed.cicril.sbcglobal.net", "162.235.240.3"},
	)

	// Continuation lines without a hop number belong to the hop above.
	assertHop(t, trace.Hops[4], 5,
		probeWant{36.973, "12.83.43.53", "12.83.43.53"},
		probeWant{39.475, "12.83.43.49", "12.83.43.49"},
		probeWant{38.859, "12.83.43.53", "12.83.43.53"},
	)

	// A trailing "*" is a timed-out probe from the same responder.
	assertHop(t, trace.Hops[6], 7,
		probeWant{38.299, "12.247.252.10", "12.247.252.10"},
		probeWant{40.987, "12.247.252.10", "12.247.252.10"},
		probeWant{-1, "12.247.252.10", "12.247.252.10"},
	)

	assertHop(t, trace.Hops[8], 9,
		probeWant{37.602, "216.239.42.113", "216.239.42.113"},
		probeWant{37.130, "216.239.42.111", "216.239.42.111"},
		probeWant{38.387, "216.239.42.111", "216.239.42.111"},
	)
}

func TestParseLinux(t *testing.T) {
	trace, err := Parse(linuxTrace, true)
	require.NoError(t, err)

	assertDest(t, trace, "edgecastcdn.net", "72.21.81.13")
	require.Len(t, trace.Hops, 16)

	assertHop(t, trace.Hops[0], 1,
		probeWant{rtt: -1},
		probeWant{rtt: -1},
	)
	assertHop(t, trace.Hops[3], 4,
		probeWant{3574.616, "10.251.11.32", "10.251.11.32"},
		probeWant{0.153, "10.251.11.32", "10.251.11.32"},
	)

	// Several responders on one line stay in one hop.
	assertHop(t, trace.Hops[7], 8,
		probeWant{150.909, "172.18.59.170", "172.18.59.170"},
		probeWant{62.591, "172.18.59.174", "172.18.59.174"},
	)
	assertHop(t, trace.Hops[14], 15,
		probeWant{706.390, "xe-0-6-0-5.r04.sttlwa01.us.ce.gin.ntt.net", "129.250.196.230"},
		probeWant{118.042, "ae-6.r21.sttlwa01.us.bb.gin.ntt.net", "129.250.5.44"},
	)
}

func TestParseUnreachableAnnotations(t *testing.T) {
	output := "traceroute to 10.0.0.1 (10.0.0.1), 30 hops max, 60 byte packets\n" +
		" 1  192.168.1.1 (192.168.1.1)  0.5 ms  0.4 ms  0.4 ms\n" +
		" 2  10.0.0.1 (10.0.0.1)  1.0 ms !N  2.0 ms !H 3.0 ms\n" +
		" 3  10.0.0.1 (10.0.0.1)  4.0 ms !X  5.0 ms !P  6.0 ms !<10>\n"

	trace, err := Parse(output, true)
	require.NoError(t, err)
	require.Len(t, trace.Hops, 3)

	assertHop(t, trace.Hops[1], 2,
		probeWant{1.0, "10.0.0.1", "10.0.0.1"},
		probeWant{2.0, "10.0.0.1", "10.0.0.1"},
		probeWant{3.0, "10.0.0.1", "10.0.0.1"},
	)
	assertHop(t, trace.Hops[2], 3,
		probeWant{4.0, "10.0.0.1", "10.0.0.1"},
		probeWant{5.0, "10.0.0.1", "10.0.0.1"},
		probeWant{6.0, "10.0.0.1", "10.0.0.1"},
	)
}

func TestParseKeepsFirstHeader(t *testing.T) {
	output := "traceroute to first.example (10.0.0.1), 30 hops max\n" +
		"traceroute to second.example (10.0.0.2), 30 hops max\n" +
		" 1  10.0.0.1 (10.0.0.1)  0.5 ms\n"

	trace, err := Parse(output, true)
	require.NoError(t, err)
	assertDest(t, trace, "first.example", "10.0.0.1")
	require.Len(t, trace.Hops, 1)
}

func TestParseHeaderOnly(t *testing.T) {
	trace, err := Parse("traceroute to example.com (93.184.216.34), 30 hops max, 60 byte packets\n", false)
	require.NoError(t, err)
	assertDest(t, trace, "example.com", "93.184.216.34")
	assert.Empty(t, trace.Hops)
}

func TestParseUnexpectedInput(t *testing.T) {
	output := "traceroute to example.com (93.184.216.34), 30 hops max\n" +
		"no route here\n" +
		" 1  10.0.0.1 (10.0.0.1)  0.5 ms\n"

	_, err := Parse(output, true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeUnexpectedInput))
	assert.Contains(t, err.Error(), "no route here")

	trace, err := Parse(output, false)
	require.NoError(t, err)
	require.Len(t, trace.Hops, 1)
}

func TestParseUnableToParse(t *testing.T) {
	for _, output := range []string{"", "\n\n", "traceroute: unknown host nowhere"} {
		trace, err := Parse(output, false)
		require.Error(t, err, "output %q", output)
		assert.Nil(t, trace)
		assert.True(t, errors.IsCode(err, errors.CodeUnableToParse))
	}
}

func TestParseLineEndings(t *testing.T) {
	output := "traceroute to google.com (216.58.192.238), 64 hops max\r\n" +
		" 1  10.0.0.1 (10.0.0.1)  1.450 ms  0.967 ms\r\n" +
		" 2  192.168.1.254 (192.168.1.254)  15.996 ms\r"

	trace, err := Parse(output, true)
	require.NoError(t, err)
	require.Len(t, trace.Hops, 2)
	assertHop(t, trace.Hops[1], 2, probeWant{15.996, "192.168.1.254", "192.168.1.254"})
}

func TestParseRTT(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		null bool
	}{
		{"<1", 1, false},
		{"<10", 10, false},
		{"18", 18, false},
		{"0.743", 0.743, false},
		{"*", 0, true},
		{"", 0, true},
		{"<x", 0, true},
		{"**", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseRTT(tt.in)
			if tt.null {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestAddProbeCarriesForwardResponder(t *testing.T) {
	name, ip := "router.example", "10.1.1.1"
	hop := &Hop{}
	hop.addProbe(Probe{DestName: &name, DestIP: &ip})
	hop.addProbe(Probe{})

	require.Len(t, hop.Probes, 2)
	assert.Equal(t, &name, hop.Probes[1].DestName)
	assert.Equal(t, &ip, hop.Probes[1].DestIP)
}
