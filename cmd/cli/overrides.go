package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/anstrom/netdiag/internal/config"
	"github.com/anstrom/netdiag/internal/errors"
)

type setter func(value interface{}) error

// overridesFor maps the viper keys that may be overridden from the
// environment, as NETDIAG_<SECTION>_<KEY>, to the fields of cfg.
func overridesFor(cfg *config.Config) map[string]setter {
	return map[string]setter{
		"ping.count":                    setInt(&cfg.Ping.Count),
		"ping.timeout":                  setDuration(&cfg.Ping.Timeout),
		"traceroute.strict":             setBool(&cfg.Traceroute.Strict),
		"traceroute.timeout":            setDuration(&cfg.Traceroute.Timeout),
		"scanning.default_ports":        setString(&cfg.Scanning.DefaultPorts),
		"scanning.concurrency":          setInt(&cfg.Scanning.Concurrency),
		"scanning.timeout":              setDuration(&cfg.Scanning.Timeout),
		"scanning.rate_limit":           setInt(&cfg.Scanning.RateLimit),
		"scanning.max_concurrent_scans": setInt(&cfg.Scanning.MaxConcurrentScans),
		"tcp_ping.port":                 setInt(&cfg.TCPPing.Port),
		"tcp_ping.count":                setInt(&cfg.TCPPing.Count),
		"tcp_ping.timeout":              setDuration(&cfg.TCPPing.Timeout),
		"sweep.ping_cap":                setInt(&cfg.Sweep.PingCap),
		"sweep.tcp_ping_cap":            setInt(&cfg.Sweep.TCPPingCap),
		"sweep.concurrency":             setInt(&cfg.Sweep.Concurrency),
		"lookup.servers":                setStrings(&cfg.Lookup.Servers),
		"lookup.timeout":                setDuration(&cfg.Lookup.Timeout),
		"lookup.rdap_url":               setString(&cfg.Lookup.RDAPURL),
		"speed_test.server":             setString(&cfg.SpeedTest.Server),
		"speed_test.server_list_url":    setString(&cfg.SpeedTest.ServerListURL),
		"speed_test.runs":               setInt(&cfg.SpeedTest.Runs),
		"speed_test.streams":            setInt(&cfg.SpeedTest.Streams),
		"speed_test.timeout":            setDuration(&cfg.SpeedTest.Timeout),
		"api.listen_addr":               setString(&cfg.API.ListenAddr),
		"api.port":                      setInt(&cfg.API.Port),
		"api.auth_enabled":              setBool(&cfg.API.AuthEnabled),
		"api.api_keys":                  setStrings(&cfg.API.APIKeys),
		"api.rate_limit.enabled":        setBool(&cfg.API.RateLimit.Enabled),
		"api.rate_limit.requests":       setInt(&cfg.API.RateLimit.Requests),
		"api.rate_limit.window":         setDuration(&cfg.API.RateLimit.Window),
		"api.request_timeout":           setDuration(&cfg.API.RequestTimeout),
		"logging.level":                 setString(&cfg.Logging.Level),
		"logging.format":                setString(&cfg.Logging.Format),
		"logging.output":                setString(&cfg.Logging.Output),
		"logging.request_logging":       setBool(&cfg.Logging.RequestLogging),
	}
}

// applyOverrides copies every key v knows about into cfg. Values from the
// config file read by v are already in cfg and are applied again unchanged.
func applyOverrides(cfg *config.Config, v *viper.Viper) error {
	for key, set := range overridesFor(cfg) {
		_ = v.BindEnv(key)
		if !v.IsSet(key) {
			continue
		}
		if err := set(v.Get(key)); err != nil {
			envName := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
			return errors.WrapConfigError(errors.CodeConfiguration,
				fmt.Sprintf("invalid value for %s (%s)", key, envName), err)
		}
	}
	return nil
}

func setString(dst *string) setter {
	return func(value interface{}) (err error) {
		*dst, err = cast.ToStringE(value)
		return err
	}
}

func setInt(dst *int) setter {
	return func(value interface{}) (err error) {
		*dst, err = cast.ToIntE(value)
		return err
	}
}

func setBool(dst *bool) setter {
	return func(value interface{}) (err error) {
		*dst, err = cast.ToBoolE(value)
		return err
	}
}

func setDuration(dst *time.Duration) setter {
	return func(value interface{}) (err error) {
		*dst, err = cast.ToDurationE(value)
		return err
	}
}

// setStrings accepts a list or a comma separated string.
func setStrings(dst *[]string) setter {
	return func(value interface{}) error {
		if s, ok := value.(string); ok {
			var out []string
			for _, part := range strings.Split(s, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			*dst = out
			return nil
		}
		list, err := cast.ToStringSliceE(value)
		if err != nil {
			return err
		}
		*dst = list
		return nil
	}
}
