// Package speedtest measures latency and throughput against servers that
// speak the speedtest.net HTTP protocol. A server exposes latency.txt,
// random<N>x<N>.jpg images and an upload.php sink under one path, usually
// /speedtest.
package speedtest

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/metrics"
)

// DefaultServerListURL lists public servers, closest to the caller first.
const DefaultServerListURL = "https://www.speedtest.net/speedtest-servers-static.php"

const (
	defaultRuns       = 1
	defaultStreams    = 2
	defaultCandidates = 5
	defaultTimeout    = time.Minute

	maxServerList = 8 << 20
	payloadChars  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

var (
	// Edge lengths of the images fetched by one download run.
	downloadSizes = []int{350, 500, 750, 1000, 1500, 2000, 2500, 3000, 3500, 4000}

	// Body sizes posted by one upload run.
	uploadSizes = []int{256 << 10, 512 << 10, 1 << 20, 2 << 20, 4 << 20}
)

// Result is one measurement. Ping is in milliseconds, Download and Upload
// in bits per second.
type Result struct {
	Ping             float64 `json:"ping"`
	Download         float64 `json:"download"`
	DownloadReadable string  `json:"download_readable"`
	Upload           float64 `json:"upload"`
	UploadReadable   string  `json:"upload_readable"`
	Server           string  `json:"server"`
}

// Server is one entry of the public server list.
type Server struct {
	ID      string `xml:"id,attr" json:"id"`
	Name    string `xml:"name,attr" json:"name"`
	Country string `xml:"country,attr" json:"country"`
	Sponsor string `xml:"sponsor,attr" json:"sponsor"`
	Host    string `xml:"host,attr" json:"host"`
	URL     string `xml:"url,attr" json:"url"`
}

type serverList struct {
	Servers []Server `xml:"servers>server"`
}

// Config holds Tester settings. Zero values select the defaults.
type Config struct {
	ServerListURL string
	Runs          int
	Streams       int
	Candidates    int
	Timeout       time.Duration
}

// Tester runs measurements. Runs repeats every transfer set, Streams bounds
// the transfers in flight and Candidates is how many listed servers are
// compared when none is named.
type Tester struct {
	HTTPClient    *http.Client
	ServerListURL string
	Runs          int
	Streams       int
	Candidates    int
	Metrics       metrics.Recorder
	Logger        *logging.Logger
}

// NewTester returns a Tester for cfg.
func NewTester(cfg Config) *Tester {
	if cfg.ServerListURL == "" {
		cfg.ServerListURL = DefaultServerListURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Tester{
		HTTPClient:    &http.Client{Timeout: cfg.Timeout},
		ServerListURL: cfg.ServerListURL,
		Runs:          orDefault(cfg.Runs, defaultRuns),
		Streams:       orDefault(cfg.Streams, defaultStreams),
		Candidates:    orDefault(cfg.Candidates, defaultCandidates),
		Metrics:       metrics.Nop{},
		Logger:        logging.Default().WithComponent("speedtest"),
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Run measures latency, download and upload rates against server, given as
// host, host:port or an http(s) URL. An empty server selects the listed
// server with the lowest latency.
func (t *Tester) Run(ctx context.Context, server string) (*Result, error) {
	start := time.Now()
	result, err := t.run(ctx, server)

	status := "success"
	if err != nil {
		status = "failed"
		if t.Logger != nil {
			t.Logger.Warn("Speed test failed", "server", server, "error", err)
		}
	}
	metrics.OrNop(t.Metrics).RecordToolRun("speedtest", status, time.Since(start))
	return result, err
}

func (t *Tester) run(ctx context.Context, server string) (*Result, error) {
	var (
		base *url.URL
		err  error
	)
	if strings.TrimSpace(server) == "" {
		base, err = t.ChooseServer(ctx)
	} else {
		base, err = ServerURL(server)
	}
	if err != nil {
		return nil, err
	}

	latency, err := t.Ping(ctx, base)
	if err != nil {
		return nil, err
	}
	down, err := t.Download(ctx, base)
	if err != nil {
		return nil, err
	}
	up, err := t.Upload(ctx, base)
	if err != nil {
		return nil, err
	}

	if t.Logger != nil {
		t.Logger.Info("Speed test completed",
			"server", base.Host, "ping_ms", latency, "download_bps", down, "upload_bps", up)
	}
	return &Result{
		Ping:             round2(latency),
		Download:         round2(down),
		DownloadReadable: Readable(down),
		Upload:           round2(up),
		UploadReadable:   Readable(up),
		Server:           base.Host,
	}, nil
}

// ServerURL turns a server given as host, host:port or URL into the base
// URL of its speed test files. A bare host gets http and /speedtest; an
// upload.php URL from the server list is cut back to its directory.
func ServerURL(server string) (*url.URL, error) {
	s := strings.TrimSpace(server)
	if s == "" {
		return nil, errors.NewValidationError("server", "the server cannot be empty", server)
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.NewValidationError("server", "must be host[:port] or an http URL", server)
	}
	u.Path = strings.TrimSuffix(u.Path, "/upload.php")
	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = "/speedtest"
	}
	u.RawPath, u.RawQuery, u.Fragment = "", "", ""
	return u, nil
}

// Servers fetches the public server list.
func (t *Tester) Servers(ctx context.Context) ([]Server, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.ServerListURL, http.NoBody)
	if err != nil {
		return nil, errors.WrapSpeedTestError("failed to build server list request", "", err)
	}
	resp, err := t.client().Do(req)
	if err != nil {
		return nil, errors.WrapSpeedTestError("failed to fetch server list", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewSpeedTestError(
			fmt.Sprintf("server list returned %d", resp.StatusCode), "")
	}

	var list serverList
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxServerList)).Decode(&list); err != nil {
		return nil, errors.WrapSpeedTestError("invalid server list", "", err)
	}
	return list.Servers, nil
}

// ChooseServer compares the latency of the first Candidates listed servers
// and returns the base URL of the fastest one.
func (t *Tester) ChooseServer(ctx context.Context) (*url.URL, error) {
	servers, err := t.Servers(ctx)
	if err != nil {
		return nil, err
	}

	var (
		best     *url.URL
		bestTime = math.Inf(1)
		tried    int
	)
	for _, s := range servers {
		if tried >= orDefault(t.Candidates, defaultCandidates) {
			break
		}
		base, err := ServerURL(s.URL)
		if err != nil {
			continue
		}
		tried++

		latency, err := t.latency(ctx, base, 1)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.WrapSpeedTestError("server selection interrupted", "", ctx.Err())
			}
			if t.Logger != nil {
				t.Logger.Debug("Skipping unreachable speed test server", "server", base.Host, "error", err)
			}
			continue
		}
		if latency < bestTime {
			best, bestTime = base, latency
		}
	}

	if best == nil {
		return nil, errors.NewSpeedTestError("no reachable speed test server", "")
	}
	return best, nil
}

// Ping returns the mean time in milliseconds to fetch latency.txt, over
// Runs requests.
func (t *Tester) Ping(ctx context.Context, base *url.URL) (float64, error) {
	return t.latency(ctx, base, orDefault(t.Runs, defaultRuns))
}

func (t *Tester) latency(ctx context.Context, base *url.URL, runs int) (float64, error) {
	var total time.Duration
	for range runs {
		start := time.Now()
		if _, err := t.get(ctx, base, "latency.txt"); err != nil {
			return 0, err
		}
		total += time.Since(start)
	}
	return float64(total) / float64(time.Millisecond) / float64(runs), nil
}

// Download fetches every image size Runs times and returns the rate in
// bits per second.
func (t *Tester) Download(ctx context.Context, base *url.URL) (float64, error) {
	var jobs []transfer
	for range orDefault(t.Runs, defaultRuns) {
		for _, size := range downloadSizes {
			name := fmt.Sprintf("random%dx%d.jpg", size, size)
			jobs = append(jobs, func(ctx context.Context) (int64, error) {
				return t.get(ctx, base, name)
			})
		}
	}
	return t.measure(ctx, jobs)
}

// Upload posts every body size Runs times and returns the rate in bits per
// second.
func (t *Tester) Upload(ctx context.Context, base *url.URL) (float64, error) {
	payload := uploadPayload(uploadSizes[len(uploadSizes)-1])

	var jobs []transfer
	for range orDefault(t.Runs, defaultRuns) {
		for _, size := range uploadSizes {
			body := payload[:size]
			jobs = append(jobs, func(ctx context.Context) (int64, error) {
				return t.post(ctx, base, "upload.php", body)
			})
		}
	}
	return t.measure(ctx, jobs)
}

// transfer moves one file and returns the bytes moved.
type transfer func(ctx context.Context) (int64, error)

// measure runs jobs on up to Streams connections and returns the combined
// rate in bits per second.
func (t *Tester) measure(ctx context.Context, jobs []transfer) (float64, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(orDefault(t.Streams, defaultStreams))

	var moved atomic.Int64
	start := time.Now()
	for _, job := range jobs {
		g.Go(func() error {
			n, err := job(gctx)
			moved.Add(n)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		return 0, nil
	}
	return float64(moved.Load()) * 8 / elapsed, nil
}

func (t *Tester) get(ctx context.Context, base *url.URL, name string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(base, name), http.NoBody)
	if err != nil {
		return 0, errors.WrapSpeedTestError("failed to build request", base.Host, err)
	}
	return t.do(req, base)
}

func (t *Tester) post(ctx context.Context, base *url.URL, name string, body []byte) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(base, name), bytes.NewReader(body))
	if err != nil {
		return 0, errors.WrapSpeedTestError("failed to build request", base.Host, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if _, err := t.do(req, base); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

// do sends req and drains the response, returning the body length.
func (t *Tester) do(req *http.Request, base *url.URL) (int64, error) {
	resp, err := t.client().Do(req)
	if err != nil {
		return 0, errors.WrapSpeedTestError(req.Method+" "+req.URL.Path+" failed", base.Host, err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return n, errors.WrapSpeedTestError("transfer interrupted", base.Host, err)
	}
	if resp.StatusCode != http.StatusOK {
		return n, errors.NewSpeedTestError(
			fmt.Sprintf("%s %s returned %d", req.Method, req.URL.Path, resp.StatusCode), base.Host)
	}
	return n, nil
}

func (t *Tester) client() *http.Client {
	if t.HTTPClient == nil {
		return http.DefaultClient
	}
	return t.HTTPClient
}

// endpoint names a file under base, with a query that defeats caches.
func endpoint(base *url.URL, name string) string {
	u := base.JoinPath(name)
	u.RawQuery = "x=" + strconv.FormatInt(time.Now().UnixNano(), 36)
	return u.String()
}

// uploadPayload is a form body of exactly size bytes.
func uploadPayload(size int) []byte {
	buf := make([]byte, size)
	n := copy(buf, "content1=")
	for i := n; i < size; i++ {
		buf[i] = payloadChars[i%len(payloadChars)]
	}
	return buf
}

// Readable formats a rate in bits per second with SI prefixes, for
// example "93.42 Mbps".
func Readable(bps float64) string {
	value, prefix := humanize.ComputeSI(bps)
	return strconv.FormatFloat(value, 'f', 2, 64) + " " + prefix + "bps"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
