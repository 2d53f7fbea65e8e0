package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/wol"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "valid yaml config",
			file: "config.yaml",
			content: `
ping:
  count: 4
scanning:
  default_ports: "22,80-90"
  timeout: 2s
wake_on_lan:
  hosts:
    - name: nas
      mac_address: "00:11:22:33:44:55"
      ip_address: 192.168.1.20
      port: 9
speed_test:
  server: speed.example:8080
  runs: 3
`,
			check: func(t *testing.T, c *Config) {
				if c.SpeedTest.Server != "speed.example:8080" || c.SpeedTest.Runs != 3 {
					t.Errorf("SpeedTest = %+v, want server speed.example:8080 and 3 runs", c.SpeedTest)
				}
				if c.SpeedTest.Streams != 2 {
					t.Errorf("SpeedTest.Streams = %d, want the default 2", c.SpeedTest.Streams)
				}
				if c.Ping.Count != 4 {
					t.Errorf("Ping.Count = %d, want 4", c.Ping.Count)
				}
				if c.Scanning.Timeout != 2*time.Second {
					t.Errorf("Scanning.Timeout = %v, want 2s", c.Scanning.Timeout)
				}
				if c.Scanning.Concurrency != 100 {
					t.Errorf("Scanning.Concurrency = %d, want the default 100", c.Scanning.Concurrency)
				}
				host, ok := c.WakeOnLAN.Hosts.LookupHost("nas")
				if !ok || host.MACAddress != "00:11:22:33:44:55" {
					t.Errorf("LookupHost(nas) = %+v, %v", host, ok)
				}
			},
		},
		{
			name:    "valid json config",
			file:    "config.json",
			content: `{"tcp_ping": {"port": 443, "count": 3, "timeout": "500ms"}, "api": {"port": 9090}}`,
			check: func(t *testing.T, c *Config) {
				if c.TCPPing.Port != 443 || c.TCPPing.Timeout != 500*time.Millisecond {
					t.Errorf("TCPPing = %+v", c.TCPPing)
				}
				if c.GetAPIAddress() != "127.0.0.1:9090" {
					t.Errorf("GetAPIAddress() = %s", c.GetAPIAddress())
				}
			},
		},
		{
			name:    "invalid yaml syntax",
			file:    "config.yaml",
			content: "ping:\n  count: [",
			wantErr: true,
		},
		{
			name:    "invalid json syntax",
			file:    "config.json",
			content: `{"ping": {"count": 3}`,
			wantErr: true,
		},
		{
			name:    "fails validation",
			file:    "config.yaml",
			content: "sweep:\n  ping_cap: 0\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeConfig(t, tt.file, tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Sweep.PingCap != 1024 || c.Sweep.TCPPingCap != 100 {
		t.Errorf("unexpected sweep caps: %+v", c.Sweep)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"ping count", func(c *Config) { c.Ping.Count = 0 }, "ping.count"},
		{"scan timeout", func(c *Config) { c.Scanning.Timeout = 0 }, "scanning.timeout"},
		{"tcp ping port", func(c *Config) { c.TCPPing.Port = 70000 }, "tcp_ping.port"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"rdap url", func(c *Config) { c.Lookup.RDAPURL = "not a url" }, "lookup.rdap_url"},
		{"tls cert", func(c *Config) { c.API.TLS.Enabled = true }, "api.tls.cert_file"},
		{"auth without keys", func(c *Config) { c.API.AuthEnabled = true }, "api.api_keys"},
		{"short api key", func(c *Config) { c.API.APIKeys = []string{"short"} }, "api.api_keys[0]"},
		{"rate limit window", func(c *Config) { c.API.RateLimit.Window = 0 }, "api.rate_limit.window"},
		{"default ports", func(c *Config) { c.Scanning.DefaultPorts = "22,http" }, "scanning.default_ports"},
		{"speed test runs", func(c *Config) { c.SpeedTest.Runs = 0 }, "speed_test.runs"},
		{"speed test list", func(c *Config) { c.SpeedTest.ServerListURL = "" }, "speed_test.server_list_url"},
		{
			"wol mac",
			func(c *Config) { c.WakeOnLAN.Hosts = wol.Hosts{{Name: "nas", MACAddress: "nope"}} },
			"wake_on_lan.hosts[0].mac_address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)

			err := c.Validate()
			if err == nil {
				t.Fatal("Validate() expected an error")
			}
			if !errors.IsCode(err, errors.CodeValidation) {
				t.Errorf("expected VALIDATION code, got %v", err)
			}
			cerr, ok := err.(*errors.ConfigError)
			if !ok {
				t.Fatalf("expected *errors.ConfigError, got %T", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "netdiag.yaml")

	c := Default()
	c.Lookup.Servers = []string{"1.1.1.1"}
	if err := c.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Lookup.Servers) != 1 || loaded.Lookup.Servers[0] != "1.1.1.1" {
		t.Errorf("Lookup.Servers = %v", loaded.Lookup.Servers)
	}
	if loaded.Traceroute.Timeout != 3*time.Minute {
		t.Errorf("Traceroute.Timeout = %v", loaded.Traceroute.Timeout)
	}
}

func TestLogConfig(t *testing.T) {
	c := Default()
	c.Logging.Format = "json"
	lc := c.LogConfig()
	if lc.Format != "json" || lc.Level != "info" || lc.Output != "stderr" {
		t.Errorf("LogConfig() = %+v", lc)
	}
}
