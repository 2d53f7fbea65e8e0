package lookup

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/netdiag/internal/errors"
)

var zone = map[uint16][]string{
	dns.TypeNS:   {"example.test. 300 IN NS ns1.example.test.", "example.test. 300 IN NS ns2.example.test."},
	dns.TypeA:    {"example.test. 300 IN A 192.0.2.10"},
	dns.TypeAAAA: {"example.test. 300 IN AAAA 2001:db8::10"},
	dns.TypeMX:   {"example.test. 300 IN MX 10 mail.example.test."},
}

// startDNS serves zone for example.test, a PTR for 192.0.2.10 and NXDOMAIN
// for everything else. It returns the server address and a query counter.
func startDNS(t *testing.T) (string, *int32) {
	t.Helper()

	var queries int32
	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		atomic.AddInt32(&queries, 1)
		m := new(dns.Msg)
		m.SetReply(req)

		q := req.Question[0]
		switch q.Name {
		case "example.test.":
			for _, text := range zone[q.Qtype] {
				rr, err := dns.NewRR(text)
				if err == nil {
					m.Answer = append(m.Answer, rr)
				}
			}
		case "10.2.0.192.in-addr.arpa.":
			rr, _ := dns.NewRR("10.2.0.192.in-addr.arpa. 300 IN PTR host.example.test.")
			m.Answer = append(m.Answer, rr)
		default:
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String(), &queries
}

func TestResolverForward(t *testing.T) {
	addr, _ := startDNS(t)
	r := NewResolver(ResolverConfig{Servers: []string{addr}, Timeout: time.Second}, nil)

	result, err := r.Lookup(context.Background(), "example.test", "")
	require.NoError(t, err)

	assert.Equal(t, "example.test", result.Query)
	assert.Equal(t, []string{addr}, result.Server)
	assert.Equal(t, []string{"ns1.example.test.", "ns2.example.test."}, result.NS)
	assert.Equal(t, []string{"192.0.2.10"}, result.A)
	assert.Equal(t, []string{"2001:db8::10"}, result.AAAA)
	assert.Equal(t, []string{"10 mail.example.test."}, result.MX)
	assert.Empty(t, result.Host)
}

func TestResolverReverse(t *testing.T) {
	addr, _ := startDNS(t)
	r := NewResolver(ResolverConfig{Servers: []string{addr}, Timeout: time.Second}, nil)

	result, err := r.Lookup(context.Background(), "192.0.2.10", "")
	require.NoError(t, err)
	assert.Equal(t, "host.example.test.", result.Host)
	assert.Empty(t, result.Server)
	assert.Empty(t, result.A)

	// An address without a PTR record is not an error.
	result, err = r.Lookup(context.Background(), "192.0.2.99", "")
	require.NoError(t, err)
	assert.Empty(t, result.Host)
}

func TestResolverServerOverride(t *testing.T) {
	addr, _ := startDNS(t)
	r := NewResolver(ResolverConfig{Servers: []string{"127.0.0.1:1"}, Timeout: 200 * time.Millisecond}, nil)

	result, err := r.Lookup(context.Background(), "example.test", addr)
	require.NoError(t, err)
	assert.Equal(t, []string{addr}, result.Server)
	assert.Equal(t, []string{"192.0.2.10"}, result.A)
}

func TestResolverCachesAnswers(t *testing.T) {
	addr, queries := startDNS(t)
	r := NewResolver(ResolverConfig{Servers: []string{addr}, Timeout: time.Second}, nil)

	_, err := r.Lookup(context.Background(), "example.test", "")
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(queries))

	_, err = r.Lookup(context.Background(), "EXAMPLE.test", "")
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(queries))
}

func TestResolverErrors(t *testing.T) {
	addr, _ := startDNS(t)
	r := NewResolver(ResolverConfig{Servers: []string{addr}, Timeout: time.Second}, nil)

	_, err := r.Lookup(context.Background(), "  ", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))

	_, err = r.Lookup(context.Background(), "missing.test", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeLookupFailed))
}

func TestNormalizeServers(t *testing.T) {
	assert.Equal(t,
		[]string{"8.8.8.8:53", "127.0.0.1:5353", "[2001:db8::1]:53"},
		normalizeServers([]string{"8.8.8.8", " ", "127.0.0.1:5353", "2001:db8::1"}),
	)
}
