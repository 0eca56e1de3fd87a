// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

// Package config loads server configuration from an optional YAML file
// and command-line flags. Flags set explicitly on the command line take
// precedence over file values, which take precedence over defaults.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the full server configuration.
type Config struct {
	Listen         string        `koanf:"listen"`
	MetricsListen  string        `koanf:"metrics_listen"`
	DatabaseURL    string        `koanf:"database_url"`
	LogFormat      string        `koanf:"log_format"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	SessionTTL     time.Duration `koanf:"session_ttl"`
	SecureCookies  bool          `koanf:"secure_cookies"`
}

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Listen:         ":8080",
		MetricsListen:  ":9090",
		LogFormat:      "json",
		RequestTimeout: 10 * time.Second,
		SessionTTL:     24 * time.Hour,
		SecureCookies:  true,
	}
}

// RegisterFlags adds configuration flags to the given flag set. The
// flag names mirror the koanf keys with dashes instead of underscores.
func RegisterFlags(flags *pflag.FlagSet) {
	def := Default()
	flags.String("listen", def.Listen, "address for the API server")
	flags.String("metrics-listen", def.MetricsListen, "address for the metrics server")
	flags.String("database-url", "", "PostgreSQL connection URL")
	flags.String("log-format", def.LogFormat, "log output format (json or text)")
	flags.Duration("request-timeout", def.RequestTimeout, "per-request handler deadline")
	flags.Duration("session-ttl", def.SessionTTL, "lifetime of issued sessions")
	flags.Bool("secure-cookies", def.SecureCookies, "mark session cookies Secure")
}

// Load builds a Config from the file at path (if non-empty) and the
// given flag set. A missing file is an error only when path was set
// explicitly.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, oops.Code("CONFIG_FILE_MISSING").
				With("path", path).
				Wrapf(err, "config file not readable")
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_PARSE_FAILED").
				With("path", path).
				Wrapf(err, "parsing config file")
		}
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrapf(err, "loading flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrapf(err, "decoding config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database_url is required")
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("listen", c.Listen).
			Wrapf(err, "invalid listen address")
	}
	if _, _, err := net.SplitHostPort(c.MetricsListen); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("metrics_listen", c.MetricsListen).
			Wrapf(err, "invalid metrics_listen address")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log_format must be json or text")
	}
	if c.RequestTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("request_timeout must be positive")
	}
	if c.SessionTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session_ttl must be positive")
	}
	return nil
}

func flagKey(name string) string {
	key := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '-' {
			key[i] = '_'
		} else {
			key[i] = name[i]
		}
	}
	return string(key)
}

var _ fmt.Stringer = (*Config)(nil)

// String renders the configuration for startup logs with the database
// URL elided.
func (c *Config) String() string {
	return fmt.Sprintf("listen=%s metrics_listen=%s log_format=%s request_timeout=%s session_ttl=%s secure_cookies=%t",
		c.Listen, c.MetricsListen, c.LogFormat, c.RequestTimeout, c.SessionTTL, c.SecureCookies)
}
