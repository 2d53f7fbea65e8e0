package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anstrom/netdiag/internal/command"
	"github.com/anstrom/netdiag/internal/command/mocks"
	"github.com/anstrom/netdiag/internal/config"
	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/services"
	"github.com/anstrom/netdiag/internal/speedtest"
	"github.com/anstrom/netdiag/internal/speedtest/speedtesttest"
	"github.com/anstrom/netdiag/internal/wol"
)

func busyboxOutput(host string) string {
	return fmt.Sprintf(`PING %[1]s (%[1]s): 56 data bytes
64 bytes from %[1]s: seq=0 ttl=64 time=0.076 ms

--- %[1]s ping statistics ---
1 packets transmitted, 1 packets received, 0%% packet loss
round-trip min/avg/max = 0.076/0.076/0.076 ms
`, host)
}

// pingRunner answers every ping with a successful busybox run.
func pingRunner(t *testing.T) *mocks.MockRunner {
	t.Helper()
	runner := mocks.NewMockRunner(gomock.NewController(t))
	runner.EXPECT().
		Run(gomock.Any(), "ping", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, args ...string) (command.Output, error) {
			return command.Output{Text: busyboxOutput(args[len(args)-1])}, nil
		}).
		AnyTimes()
	return runner
}

func newTestDiagnostics(t *testing.T, runner command.Runner, mutate func(*config.Config)) *services.Diagnostics {
	t.Helper()
	cfg := config.Default()
	cfg.Lookup.Servers = []string{"127.0.0.1:1"}
	if mutate != nil {
		mutate(cfg)
	}
	if runner == nil {
		runner = mocks.NewMockRunner(gomock.NewController(t))
	}
	d := services.NewDiagnostics(cfg, services.Deps{Runner: runner})
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func post(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func TestDiagnosticsPing(t *testing.T) {
	h := NewDiagnosticsHandler(newTestDiagnostics(t, pingRunner(t), nil), createTestLogger(), 0)

	w := post(t, h.Ping, `{"dest":"10.0.0.0/30","count":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Dest    string `json:"dest"`
		Results []struct {
			Dest   string `json:"dest"`
			AvgMS  string `json:"avg_ping"`
			Output string `json:"output"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "10.0.0.0/30", resp.Dest)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "10.0.0.1", resp.Results[0].Dest)
	assert.Equal(t, "10.0.0.2", resp.Results[1].Dest)
	assert.Equal(t, "0.076", resp.Results[0].AvgMS)
}

func TestDiagnosticsPingErrors(t *testing.T) {
	h := NewDiagnosticsHandler(newTestDiagnostics(t, nil, nil), createTestLogger(), 0)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing dest", `{"count":1}`, "VALIDATION"},
		{"count too high", `{"dest":"a","count":500}`, "VALIDATION"},
		{"block too large", `{"dest":"10.0.0.0/16"}`, "DESTINATION_TOO_LARGE"},
		{"option as destination", `{"dest":"-fq"}`, "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h.Ping, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w.Body).Code)
		})
	}
}

func TestDiagnosticsTracerouteMissingTool(t *testing.T) {
	runner := mocks.NewMockRunner(gomock.NewController(t))
	runner.EXPECT().
		Run(gomock.Any(), gomock.Any(), "example.com").
		Return(command.Output{}, errors.ErrCommandNotFound("traceroute", nil))

	h := NewDiagnosticsHandler(newTestDiagnostics(t, runner, nil), createTestLogger(), 0)
	w := post(t, h.Traceroute, `{"host":"example.com"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "COMMAND_NOT_FOUND", decodeError(t, w.Body).Code)
}

func TestDiagnosticsPortScan(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	h := NewDiagnosticsHandler(newTestDiagnostics(t, nil, nil), createTestLogger(), 0)

	w := post(t, h.PortScan, fmt.Sprintf(`{"host":"127.0.0.1","ports":"%d"}`, port))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report services.PortScanReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, []int{port}, report.Open)

	w = post(t, h.PortScan, `{"host":"127.0.0.1","ports":"0-10"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_RANGE", decodeError(t, w.Body).Code)
}

func TestDiagnosticsWhois(t *testing.T) {
	rdap := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/domain/missing.test" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"ldhName":"EXAMPLE.TEST","status":["active"]}`))
	}))
	defer rdap.Close()

	d := newTestDiagnostics(t, nil, func(c *config.Config) { c.Lookup.RDAPURL = rdap.URL })
	h := NewDiagnosticsHandler(d, createTestLogger(), 0)

	w := post(t, h.Whois, `{"target":"example.test","summary":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "EXAMPLE.TEST", summary["domain"])
	assert.Contains(t, summary, "status")
	assert.NotContains(t, summary, "raw")

	w = post(t, h.Whois, `{"target":"missing.test"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "LOOKUP_FAILED", decodeError(t, w.Body).Code)
}

func TestDiagnosticsSpeedTest(t *testing.T) {
	srv := speedtesttest.NewServer(t, 128)
	h := NewDiagnosticsHandler(newTestDiagnostics(t, nil, nil), createTestLogger(), 0)

	w := post(t, h.SpeedTest, fmt.Sprintf(`{"server":%q,"runs":2}`, srv.HostPort()))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result speedtest.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, srv.HostPort(), result.Server)
	assert.NotEmpty(t, result.UploadReadable)
	assert.Equal(t, int64(2), srv.Latency.Load())

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"url instead of host", `{"server":"http://10.0.0.1/speedtest"}`, http.StatusBadRequest, "VALIDATION"},
		{"option as server", `{"server":"-x"}`, http.StatusBadRequest, "VALIDATION"},
		{"too many runs", `{"server":"10.0.0.1","runs":50}`, http.StatusBadRequest, "VALIDATION"},
		{"unreachable", `{"server":"127.0.0.1:1"}`, http.StatusBadGateway, "SPEEDTEST_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h.SpeedTest, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decodeError(t, w.Body).Code)
		})
	}
}

func TestDiagnosticsNSLookupValidation(t *testing.T) {
	h := NewDiagnosticsHandler(newTestDiagnostics(t, nil, nil), createTestLogger(), 0)
	w := post(t, h.NSLookup, `{"server":"1.1.1.1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiagnosticsWakeOnLAN(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	port := conn.LocalAddr().(*net.UDPAddr).Port

	d := newTestDiagnostics(t, nil, func(c *config.Config) {
		c.WakeOnLAN.Hosts = wol.Hosts{{Name: "nas", MACAddress: "00:11:22:33:44:55"}}
	})
	h := NewDiagnosticsHandler(d, createTestLogger(), 0)

	w := post(t, h.WakeOnLAN, fmt.Sprintf(`{"host":"nas","ip_address":"127.0.0.1","port":%d}`, port))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result wol.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, wol.SuccessMessage, result.Message)
	assert.Equal(t, "00:11:22:33:44:55", result.MACAddress)

	w = post(t, h.WakeOnLAN, `{"host":"printer"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w.Body).Message, "No MAC address was provided")

	w = post(t, h.WakeOnLAN, `{"mac_address":"00:11:22:33:44:55","ip_address":"not-an-ip"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
