package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hamed0406/downtimebench/internal/probe"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. BENCH_CHECK_INTERVAL.
const EnvPrefix = "BENCH"

type Config struct {
	TargetsFile   string        `json:"target-urls"`
	CheckInterval time.Duration `json:"check-interval"`
	CheckTimeout  time.Duration `json:"timeout"`
	LogDir        string        `json:"log-dir"`
	LogLevel      string        `json:"log-level"`
	StatusAddr    string        `json:"status-addr"` // empty disables the status server
	StatusKeys    []string      `json:"status-keys"`
	UserAgent     string        `json:"user-agent"`
}

// Flags returns the command line flags understood by Load.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("benchmarker", pflag.ContinueOnError)
	flags.String("target-urls", "", "path to the YAML targets file")
	flags.String("check-interval", "1s", "time between monitoring rounds (bare numbers are seconds)")
	flags.String("timeout", "5s", "per-check timeout (bare numbers are seconds)")
	flags.String("log-dir", "logs", "directory for the JSON log file")
	flags.String("log-level", LogLevelInfo, "log level: debug, info, warn, error")
	flags.String("status-addr", "", "serve live status on host:port (disabled when empty)")
	flags.StringSlice("status-keys", nil, "API keys accepted by the status server")
	flags.String("user-agent", probe.DefaultUserAgent, "User-Agent header for http checks")
	return flags
}

// LoadDotEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load resolves settings from parsed flags, then BENCH_* environment
// variables, then defaults, and validates the result.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	interval, err := parseSeconds(v.GetString("check-interval"))
	if err != nil {
		return Config{}, fmt.Errorf("check-interval: %w", err)
	}
	timeout, err := parseSeconds(v.GetString("timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("timeout: %w", err)
	}

	cfg := Config{
		TargetsFile:   v.GetString("target-urls"),
		CheckInterval: interval,
		CheckTimeout:  timeout,
		LogDir:        v.GetString("log-dir"),
		LogLevel:      strings.ToLower(v.GetString("log-level")),
		StatusAddr:    v.GetString("status-addr"),
		StatusKeys:    splitKeys(v.GetStringSlice("status-keys")),
		UserAgent:     v.GetString("user-agent"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TargetsFile, validation.Required),
		validation.Field(&c.CheckInterval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.CheckTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.LogDir, validation.Required),
		validation.Field(&c.LogLevel,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
		validation.Field(&c.StatusAddr, validation.By(validateHostPort)),
		validation.Field(&c.UserAgent, validation.Required),
	)
}

// parseSeconds accepts Go durations ("500ms", "2s") and bare numbers, which
// are read as seconds.
func parseSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}

// splitKeys flattens comma lists coming from the environment and drops blanks.
func splitKeys(in []string) []string {
	var out []string
	for _, s := range in {
		for _, k := range strings.Split(s, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
	}
	return out
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if addr == "" {
		return nil
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}
	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}
	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}
	return nil
}
