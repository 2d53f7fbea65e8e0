// Package lookup answers name-service questions about a host: DNS records
// through a configurable resolver and registration data through RDAP.
package lookup

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/projectdiscovery/gcache"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
)

const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 5 * time.Minute
	DefaultDNSPort   = "53"

	resolvConf = "/etc/resolv.conf"
)

// NSLookupResult lists the records found for a query. Reverse lookups fill
// Host; forward lookups fill the record lists and Server.
type NSLookupResult struct {
	Query  string   `json:"query"`
	Host   string   `json:"host,omitempty"`
	Server []string `json:"server,omitempty"`
	NS     []string `json:"ns,omitempty"`
	A      []string `json:"a,omitempty"`
	AAAA   []string `json:"aaaa,omitempty"`
	MX     []string `json:"mx,omitempty"`
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Servers are queried in order until one answers. Entries without a
	// port use port 53. Empty means the servers in /etc/resolv.conf.
	Servers   []string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// Resolver performs DNS lookups and caches the answers.
type Resolver struct {
	client  *dns.Client
	servers []string
	cache   gcache.Cache[string, []string]
	metrics metrics.Recorder
	logger  *logging.Logger
}

// NewResolver returns a Resolver for cfg.
func NewResolver(cfg ResolverConfig, rec metrics.Recorder) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	servers := cfg.Servers
	if len(servers) == 0 {
		servers = systemServers()
	}

	return &Resolver{
		client:  &dns.Client{Timeout: cfg.Timeout},
		servers: normalizeServers(servers),
		cache: gcache.New[string, []string](cfg.CacheSize).
			LRU().
			Expiration(cfg.CacheTTL).
			Build(),
		metrics: metrics.OrNop(rec),
		logger:  logging.Default().WithComponent("nslookup"),
	}
}

func systemServers() []string {
	conf, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil || len(conf.Servers) == 0 {
		return []string{"127.0.0.1"}
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, net.JoinHostPort(s, conf.Port))
	}
	return servers
}

func normalizeServers(servers []string) []string {
	out := make([]string, 0, len(servers))
	for _, s := range servers {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(strings.Trim(s, "[]"), DefaultDNSPort)
		}
		out = append(out, s)
	}
	return out
}

// Servers returns the servers queried when Lookup is given none.
func (r *Resolver) Servers() []string {
	return append([]string(nil), r.servers...)
}

// Lookup resolves host. An IP address gets a PTR query; anything else gets
// NS, A, AAAA and MX queries. A non-empty server replaces the configured
// servers for this call.
func (r *Resolver) Lookup(ctx context.Context, host, server string) (*NSLookupResult, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, errors.NewLookupError(errors.CodeValidation, "the host cannot be empty", host)
	}

	servers := r.servers
	if server != "" {
		servers = normalizeServers([]string{server})
	}

	result, err := r.lookup(ctx, host, servers)
	status := "success"
	if err != nil {
		status = "failed"
		r.logger.Warn("DNS lookup failed", "query", host, "error", err)
	}
	r.metrics.IncrementLookups("nslookup", status)
	return result, err
}

func (r *Resolver) lookup(ctx context.Context, host string, servers []string) (*NSLookupResult, error) {
	result := &NSLookupResult{Query: host}

	if addr, err := netip.ParseAddr(host); err == nil {
		reverse, err := dns.ReverseAddr(addr.String())
		if err != nil {
			return nil, errors.WrapLookupError("invalid address", host, err)
		}
		names, err := r.records(ctx, reverse, dns.TypePTR, servers)
		if err != nil && !isNXDomain(err) {
			return nil, err
		}
		if len(names) > 0 {
			result.Host = names[0]
		}
		return result, nil
	}

	result.Server = servers
	name := dns.Fqdn(host)
	for _, q := range []struct {
		qtype uint16
		dst   *[]string
	}{
		{dns.TypeNS, &result.NS},
		{dns.TypeA, &result.A},
		{dns.TypeAAAA, &result.AAAA},
		{dns.TypeMX, &result.MX},
	} {
		values, err := r.records(ctx, name, q.qtype, servers)
		if err != nil {
			return nil, err
		}
		*q.dst = values
	}
	return result, nil
}

type nxDomainError struct{ name string }

func (e *nxDomainError) Error() string { return fmt.Sprintf("%s: no such domain", e.name) }

func isNXDomain(err error) bool {
	var nx *nxDomainError
	return stderrors.As(err, &nx)
}

// records returns the answers of type qtype for name, from the cache when
// possible.
func (r *Resolver) records(ctx context.Context, name string, qtype uint16, servers []string) ([]string, error) {
	key := strings.Join(servers, ",") + "|" + dns.TypeToString[qtype] + "|" + strings.ToLower(name)
	if cached, err := r.cache.Get(key); err == nil {
		return cached, nil
	}

	msg := new(dns.Msg)
	msg.SetQuestion(name, qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range servers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}

		switch in.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			return nil, errors.WrapLookupError("no such domain", name, &nxDomainError{name: name})
		default:
			return nil, errors.NewLookupError(errors.CodeLookupFailed,
				"server answered "+dns.RcodeToString[in.Rcode], name)
		}

		values := answerValues(in.Answer, qtype)
		_ = r.cache.Set(key, values)
		return values, nil
	}

	if lastErr == nil {
		return nil, errors.NewLookupError(errors.CodeConfiguration, "no DNS servers configured", name)
	}
	return nil, errors.WrapLookupError("no DNS server answered", name, lastErr)
}

func answerValues(answers []dns.RR, qtype uint16) []string {
	var values []string
	for _, rr := range answers {
		if rr.Header().Rrtype != qtype {
			continue
		}
		switch rec := rr.(type) {
		case *dns.A:
			values = append(values, rec.A.String())
		case *dns.AAAA:
			values = append(values, rec.AAAA.String())
		case *dns.NS:
			values = append(values, rec.Ns)
		case *dns.MX:
			values = append(values, fmt.Sprintf("%d %s", rec.Preference, rec.Mx))
		case *dns.PTR:
			values = append(values, rec.Ptr)
		}
	}
	return values
}
