package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/netdiag/internal/errors"
)

const rdapDomain = `{
  "objectClassName": "domain",
  "handle": "2336799_DOMAIN_COM-VRSN",
  "ldhName": "EXAMPLE.COM",
  "status": ["client delete prohibited", "client transfer prohibited"],
  "nameservers": [
    {"objectClassName": "nameserver", "ldhName": "A.IANA-SERVERS.NET"},
    {"objectClassName": "nameserver", "ldhName": "B.IANA-SERVERS.NET"}
  ],
  "events": [
    {"eventAction": "registration", "eventDate": "1995-08-14T04:00:00Z"},
    {"eventAction": "expiration", "eventDate": "2026-08-13T04:00:00Z"}
  ],
  "remarks": []
}`

const rdapIP = `{
  "objectClassName": "ip network",
  "handle": "NET-192-0-2-0-1",
  "startAddress": "192.0.2.0",
  "endAddress": "192.0.2.255",
  "name": "TEST-NET-1",
  "country": null
}`

func rdapServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/domain/example.com", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rdap+json")
		_, _ = w.Write([]byte(rdapDomain))
	})
	mux.HandleFunc("/ip/192.0.2.1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rdapIP))
	})
	mux.HandleFunc("/domain/broken.test", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"handle": `))
	})
	mux.HandleFunc("/domain/limited.test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"title": "Rate limit exceeded"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWhoisDomain(t *testing.T) {
	srv := rdapServer(t)
	w := NewWhois(srv.URL+"/", time.Second)

	fields, err := w.Lookup(context.Background(), "example.com")
	require.NoError(t, err)

	v, _ := fields.Get("ldhName")
	assert.Equal(t, "EXAMPLE.COM", v)
	v, _ = fields.Get("nameservers.1.ldhName")
	assert.Equal(t, "B.IANA-SERVERS.NET", v)
	v, _ = fields.Get("status")
	assert.Equal(t, []string{"client delete prohibited", "client transfer prohibited"}, v)
	v, _ = fields.Get("query")
	assert.Equal(t, "example.com", v)

	_, ok := fields.Get("remarks")
	assert.False(t, ok, "blank values are dropped")

	keys := fields.Keys()
	assert.Equal(t, "raw", keys[len(keys)-1])
	v, _ = fields.Get("raw")
	assert.Equal(t, rdapDomain, v)
}

func TestWhoisIP(t *testing.T) {
	srv := rdapServer(t)
	w := NewWhois(srv.URL, time.Second)

	fields, err := w.Lookup(context.Background(), "192.0.2.1")
	require.NoError(t, err)

	v, _ := fields.Get("startAddress")
	assert.Equal(t, "192.0.2.0", v)
	_, ok := fields.Get("country")
	assert.False(t, ok)
}

func TestWhoisErrors(t *testing.T) {
	srv := rdapServer(t)
	w := NewWhois(srv.URL, time.Second)

	tests := []struct {
		target string
		code   errors.ErrorCode
	}{
		{"", errors.CodeValidation},
		{"unknown.test", errors.CodeLookupFailed},
		{"broken.test", errors.CodeLookupFailed},
		{"limited.test", errors.CodeLookupFailed},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			_, err := w.Lookup(context.Background(), tt.target)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), err.Error())
		})
	}

	_, err := w.Lookup(context.Background(), "limited.test")
	assert.Contains(t, err.Error(), "Rate limit exceeded")
}

func TestSummarize(t *testing.T) {
	srv := rdapServer(t)
	fields, err := NewWhois(srv.URL, time.Second).Lookup(context.Background(), "example.com")
	require.NoError(t, err)

	summary := Summarize(fields)
	v, _ := summary.Get("domain")
	assert.Equal(t, "EXAMPLE.COM", v)
	v, _ = summary.Get("nameservers")
	assert.Equal(t, []any{"A.IANA-SERVERS.NET", "B.IANA-SERVERS.NET"}, v)
	v, _ = summary.Get("event_dates")
	assert.Equal(t, []any{"1995-08-14T04:00:00Z", "2026-08-13T04:00:00Z"}, v)
	_, ok := summary.Get("raw")
	assert.False(t, ok)
}
