// Package speedtesttest provides an in-process speed test server for tests.
package speedtesttest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// Server serves latency.txt, random<N>x<N>.jpg and upload.php under
// /speedtest and counts what it was asked for.
type Server struct {
	*httptest.Server

	Latency   atomic.Int64
	Downloads atomic.Int64
	Uploaded  atomic.Int64
}

// NewServer starts a Server that is closed when t ends. Every image is
// served as imageSize bytes.
func NewServer(t testing.TB, imageSize int) *Server {
	t.Helper()
	s := &Server{}
	image := strings.Repeat("x", imageSize)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /speedtest/latency.txt", func(w http.ResponseWriter, r *http.Request) {
		s.Latency.Add(1)
		_, _ = io.WriteString(w, "test=test\n")
	})
	mux.HandleFunc("GET /speedtest/{image}", func(w http.ResponseWriter, r *http.Request) {
		var edge int
		if _, err := fmt.Sscanf(r.PathValue("image"), "random%dx", &edge); err != nil {
			http.NotFound(w, r)
			return
		}
		s.Downloads.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = io.WriteString(w, image)
	})
	mux.HandleFunc("POST /speedtest/upload.php", func(w http.ResponseWriter, r *http.Request) {
		n, _ := io.Copy(io.Discard, r.Body)
		s.Uploaded.Add(n)
		_, _ = fmt.Fprintf(w, "size=%d", n)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// HostPort returns the host:port the server listens on.
func (s *Server) HostPort() string {
	return strings.TrimPrefix(s.URL, "http://")
}

// ServerList returns a server list document naming each of urls.
func ServerList(urls ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<settings>\n<servers>\n")
	for i, u := range urls {
		fmt.Fprintf(&b, `<server url="%s" lat="0" lon="0" name="Test %d" country="Nowhere" cc="NW" sponsor="Test" id="%d" host="%s" />`+"\n",
			u, i+1, i+1, strings.TrimPrefix(strings.TrimSuffix(u, "/speedtest/upload.php"), "http://"))
	}
	b.WriteString("</servers>\n</settings>\n")
	return b.String()
}
