package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
)

// DefaultRDAPURL is a bootstrap service that redirects each query to the
// registry responsible for it.
const DefaultRDAPURL = "https://rdap.org"

const maxRDAPBody = 4 << 20

// Whois fetches registration data over RDAP and flattens it.
type Whois struct {
	BaseURL    string
	HTTPClient *http.Client
	Metrics    metrics.Recorder
	Logger     *logging.Logger
}

// NewWhois returns a Whois querying baseURL, or DefaultRDAPURL when empty.
func NewWhois(baseURL string, timeout time.Duration) *Whois {
	if baseURL == "" {
		baseURL = DefaultRDAPURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Whois{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Metrics: metrics.Nop{},
		Logger:  logging.Default().WithComponent("whois"),
	}
}

// Lookup queries registration data for target: an IP network lookup when
// target is an address and a domain lookup otherwise. The response is
// flattened with blanks dropped, a query field is added when the registry
// did not echo one, and the raw document is kept last under "raw".
func (w *Whois) Lookup(ctx context.Context, target string) (*Fields, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.NewLookupError(errors.CodeValidation, "the host cannot be empty", target)
	}

	fields, err := w.lookup(ctx, target)
	status := "success"
	if err != nil {
		status = "failed"
		if w.Logger != nil {
			w.Logger.Warn("Whois lookup failed", "query", target, "error", err)
		}
	}
	metrics.OrNop(w.Metrics).IncrementLookups("whois", status)
	return fields, err
}

func (w *Whois) lookup(ctx context.Context, target string) (*Fields, error) {
	kind := "domain"
	if addr, err := netip.ParseAddr(target); err == nil {
		kind = "ip"
		target = addr.String()
	}
	endpoint := fmt.Sprintf("%s/%s/%s", w.BaseURL, kind, url.PathEscape(target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, errors.WrapLookupError("failed to build RDAP request", target, err)
	}
	req.Header.Set("Accept", "application/rdap+json, application/json")

	client := w.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.WrapLookupError("RDAP request failed", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRDAPBody))
	if err != nil {
		return nil, errors.WrapLookupError("failed to read RDAP response", target, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NewLookupError(errors.CodeLookupFailed, "no registration data found", target)
	case resp.StatusCode >= http.StatusBadRequest:
		msg := fmt.Sprintf("RDAP server returned %d", resp.StatusCode)
		if title := gjson.GetBytes(body, "title"); title.Exists() {
			msg += ": " + title.String()
		}
		return nil, errors.NewLookupError(errors.CodeLookupFailed, msg, target)
	}

	if !gjson.ValidBytes(body) {
		return nil, errors.NewLookupError(errors.CodeLookupFailed, "RDAP response is not valid JSON", target)
	}

	doc := gjson.ParseBytes(body)
	fields := Flatten(doc, true)
	if _, ok := fields.Get("query"); !ok {
		fields.Set("query", target)
	}
	fields.Set("raw", string(body))
	fields.MoveToEnd("raw")
	return fields, nil
}

// SummaryRules shorten the most useful RDAP attributes.
var SummaryRules = []Rule{
	{Pattern: "nameservers.*.ldhName", Key: "nameservers"},
	{Pattern: "ldhName", Key: "domain"},
	{Pattern: "handle", Key: "handle"},
	{Pattern: "startAddress", Key: "start_address"},
	{Pattern: "endAddress", Key: "end_address"},
	{Pattern: "name", Key: "name"},
	{Pattern: "country", Key: "country"},
	{Pattern: "events.*.eventDate", Key: "event_dates"},
	{Pattern: "entities.*.roles", Key: "entity_roles"},
	{Pattern: "status", Key: "status"},
}

// Summarize keeps only the fields matched by SummaryRules, renamed.
func Summarize(fields *Fields) *Fields {
	compiled, _ := compileRules(SummaryRules)
	out := NewFields()
	for _, key := range fields.Keys() {
		name, ok := translateKey(key, compiled)
		if !ok {
			continue
		}
		value, _ := fields.Get(key)
		existing, _ := out.Get(name)
		out.Set(name, MergeValues(existing, value))
	}
	return out
}
