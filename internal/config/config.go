// Package config loads and validates netdiag configuration from YAML or
// JSON files.
package config

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/anstrom/netdiag/internal/errors"
	"github.com/anstrom/netdiag/internal/logging"
	"github.com/anstrom/netdiag/internal/portset"
	"github.com/anstrom/netdiag/internal/speedtest"
	"github.com/anstrom/netdiag/internal/sweep"
	"github.com/anstrom/netdiag/internal/wol"
)

const (
	configDirPerm  = 0750
	configFilePerm = 0600
)

// Config represents the complete netdiag configuration
type Config struct {
	Ping       PingConfig       `yaml:"ping" json:"ping"`
	Traceroute TracerouteConfig `yaml:"traceroute" json:"traceroute"`
	Scanning   ScanningConfig   `yaml:"scanning" json:"scanning"`
	TCPPing    TCPPingConfig    `yaml:"tcp_ping" json:"tcp_ping"`
	Sweep      SweepConfig      `yaml:"sweep" json:"sweep"`
	Lookup     LookupConfig     `yaml:"lookup" json:"lookup"`
	WakeOnLAN  WakeOnLANConfig  `yaml:"wake_on_lan" json:"wake_on_lan"`
	SpeedTest  SpeedTestConfig  `yaml:"speed_test" json:"speed_test"`
	API        APIConfig        `yaml:"api" json:"api"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// PingConfig holds settings for the system ping utility
type PingConfig struct {
	// Echo requests per run
	Count int `yaml:"count" json:"count" validate:"min=1,max=100"`

	// Upper bound for one run
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"min=0"`
}

// TracerouteConfig holds settings for the system traceroute utility
type TracerouteConfig struct {
	// Fail on output lines that match no known format
	Strict bool `yaml:"strict" json:"strict"`

	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"min=0"`
}

// ScanningConfig holds TCP port scan settings
type ScanningConfig struct {
	// Ports scanned when a request names none
	DefaultPorts string `yaml:"default_ports" json:"default_ports" validate:"required"`

	// Connection attempts in flight per scan
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"min=1,max=4096"`

	// Timeout of a single connection attempt
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`

	// Connection attempts per second, zero for unlimited
	RateLimit int `yaml:"rate_limit" json:"rate_limit" validate:"min=0"`

	// Scans allowed to run at the same time
	MaxConcurrentScans int `yaml:"max_concurrent_scans" json:"max_concurrent_scans" validate:"min=1"`
}

// TCPPingConfig holds TCP ping settings
type TCPPingConfig struct {
	Port    int           `yaml:"port" json:"port" validate:"min=1,max=65535"`
	Count   int           `yaml:"count" json:"count" validate:"min=1,max=100"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// SweepConfig holds the caps applied when a destination is a network
type SweepConfig struct {
	PingCap     int `yaml:"ping_cap" json:"ping_cap" validate:"min=1"`
	TCPPingCap  int `yaml:"tcp_ping_cap" json:"tcp_ping_cap" validate:"min=1"`
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"min=1,max=256"`
}

// LookupConfig holds DNS and RDAP settings
type LookupConfig struct {
	// DNS servers, empty for the system resolvers
	Servers  []string      `yaml:"servers" json:"servers" validate:"dive,required"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl" validate:"min=0"`

	// RDAP bootstrap service
	RDAPURL string `yaml:"rdap_url" json:"rdap_url" validate:"required,url"`
}

// WakeOnLANConfig holds the hosts table used to resolve names
type WakeOnLANConfig struct {
	Hosts wol.Hosts `yaml:"hosts" json:"hosts" validate:"dive"`
}

// SpeedTestConfig holds bandwidth test settings
type SpeedTestConfig struct {
	// Server used when a request names none, empty to pick the closest listed one
	Server        string `yaml:"server" json:"server"`
	ServerListURL string `yaml:"server_list_url" json:"server_list_url" validate:"required,url"`

	// Times each transfer set is repeated
	Runs int `yaml:"runs" json:"runs" validate:"min=1,max=10"`

	// Transfers in flight at once
	Streams int `yaml:"streams" json:"streams" validate:"min=1,max=16"`

	// Listed servers compared when choosing one
	Candidates int `yaml:"candidates" json:"candidates" validate:"min=1,max=50"`

	// Timeout of a single HTTP request
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// APIConfig holds API server settings
type APIConfig struct {
	// Enable API server
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Listen address
	ListenAddr string `yaml:"listen_addr" json:"listen_addr" validate:"required_if=Enabled true"`

	// Listen port
	Port int `yaml:"port" json:"port" validate:"required_if=Enabled true,min=0,max=65535"`

	TLS TLSConfig `yaml:"tls" json:"tls"`

	// CORS settings
	CORS CORSConfig `yaml:"cors" json:"cors"`

	// API key authentication
	AuthEnabled bool     `yaml:"auth_enabled" json:"auth_enabled"`
	APIKeys     []string `yaml:"api_keys" json:"api_keys" validate:"required_if=AuthEnabled true,dive,min=16"`

	// Per-client rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Request timeout
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" validate:"min=0"`

	// Maximum request size
	MaxRequestSize int64 `yaml:"max_request_size" json:"max_request_size" validate:"min=0"`
}

// TLSConfig holds TLS settings
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	CertFile string `yaml:"cert_file" json:"cert_file" validate:"required_if=Enabled true"`
	KeyFile  string `yaml:"key_file" json:"key_file" validate:"required_if=Enabled true"`
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Requests int           `yaml:"requests" json:"requests" validate:"required_if=Enabled true,min=0"`
	Window   time.Duration `yaml:"window" json:"window" validate:"required_if=Enabled true,min=0"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" json:"allowed_headers"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output" validate:"required"`

	// Enable request logging for API
	RequestLogging bool `yaml:"request_logging" json:"request_logging"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Ping: PingConfig{
			Count:   1,
			Timeout: 30 * time.Second,
		},
		Traceroute: TracerouteConfig{
			Strict:  false,
			Timeout: 3 * time.Minute,
		},
		Scanning: ScanningConfig{
			DefaultPorts:       "22,80,443,3389",
			Concurrency:        100,
			Timeout:            5 * time.Second,
			RateLimit:          0,
			MaxConcurrentScans: 4,
		},
		TCPPing: TCPPingConfig{
			Port:    80,
			Count:   1,
			Timeout: time.Second,
		},
		Sweep: SweepConfig{
			PingCap:     sweep.DefaultPingCap,
			TCPPingCap:  sweep.DefaultTCPPingCap,
			Concurrency: 1,
		},
		Lookup: LookupConfig{
			Timeout:  5 * time.Second,
			CacheTTL: 5 * time.Minute,
			RDAPURL:  "https://rdap.org",
		},
		SpeedTest: SpeedTestConfig{
			ServerListURL: speedtest.DefaultServerListURL,
			Runs:          1,
			Streams:       2,
			Candidates:    5,
			Timeout:       time.Minute,
		},
		API: APIConfig{
			Enabled:    true,
			ListenAddr: "127.0.0.1",
			Port:       8080,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
			},
			RateLimit: RateLimitConfig{
				Enabled:  true,
				Requests: 60,
				Window:   time.Minute,
			},
			RequestTimeout: 5 * time.Minute,
			MaxRequestSize: 1024 * 1024, // 1MB
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			Output:         "stderr",
			RequestLogging: true,
		},
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - path comes from the operator
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to read config file", err)
	}

	// JSON is a subset of YAML, so one decoder serves both extensions.
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration,
			fmt.Sprintf("failed to parse %s config", formatName(path)), err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func formatName(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "JSON"
	default:
		return "YAML"
	}
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, configFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validate = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the configuration. The first failing field is
// reported as a VALIDATION ConfigError naming the field's YAML path.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) || len(verrs) == 0 {
			return errors.WrapConfigError(errors.CodeValidation, "invalid configuration", err)
		}
		fe := verrs[0]
		return errors.NewConfigFieldError(errors.CodeValidation,
			fmt.Sprintf("failed %q validation", fe.Tag()), yamlPath(fe.Namespace()), fe.Value())
	}

	if _, err := portset.ParsePorts(c.Scanning.DefaultPorts); err != nil {
		return errors.NewConfigFieldError(errors.CodeValidation, err.Error(),
			"scanning.default_ports", c.Scanning.DefaultPorts)
	}

	return nil
}

// yamlPath strips the root struct name from a validator namespace such as
// Config.api.tls.cert_file.
func yamlPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}

// GetAPIAddress returns the full API address
func (c *Config) GetAPIAddress() string {
	return net.JoinHostPort(c.API.ListenAddr, strconv.Itoa(c.API.Port))
}

// IsAPIEnabled returns true if API server is enabled
func (c *Config) IsAPIEnabled() bool {
	return c.API.Enabled
}

// GetLogOutput returns the log output destination
func (c *Config) GetLogOutput() string {
	return c.Logging.Output
}

// LogConfig converts the logging section for logging.New.
func (c *Config) LogConfig() logging.Config {
	return logging.Config{
		Level:  logging.LogLevel(c.Logging.Level),
		Format: logging.LogFormat(c.Logging.Format),
		Output: c.Logging.Output,
	}
}
