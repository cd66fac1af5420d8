// Package config loads runtime configuration for the forum CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. Command-line flags, which override earlier values.
package config

import "time"

// Config holds runtime settings for the forum CLI.
//
// Fields:
//   - ServerAddr: host:port of the forum server; both the UDP control
//     commands and the TCP file transfers target this address.
//   - RequestTimeout: how long to wait for each UDP response attempt.
//   - MaxRetries: number of UDP send attempts before giving up.
type Config struct {
	ServerAddr     string
	RequestTimeout time.Duration
	MaxRetries     int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "127.0.0.1:8888"
	c.RequestTimeout = 1 * time.Second
	c.MaxRetries = 6
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
