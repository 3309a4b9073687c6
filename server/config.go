package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the server's TOML configuration. Everything has a working
// default, so the server runs with no config file at all; flags override
// whatever the file says.
type Config struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`

	// Document names this document, used for the Redis channel. One
	// server process coordinates exactly one document.
	Document string `toml:"document"`

	// Content seeds the document text at revision 0.
	Content string `toml:"content"`

	// AdaptiveAck delays acks while only one participant is present;
	// AckDelayMS is that delay in milliseconds.
	AdaptiveAck bool `toml:"adaptive_ack"`
	AckDelayMS  int  `toml:"ack_delay_ms"`

	// ResyncDelayMS is the pause before a forced resync snapshot, in
	// milliseconds.
	ResyncDelayMS int `toml:"resync_delay_ms"`

	// RedisAddr enables mirroring session events to Redis when set.
	RedisAddr string `toml:"redis_addr"`

	// PostgresURL enables the Postgres transcript recorder when set.
	PostgresURL string `toml:"postgres_url"`

	// Debug enables verbose logging.
	Debug bool `toml:"debug"`
}

// defaultConfig returns the configuration used when no file is given.
func defaultConfig() Config {
	return Config{
		Addr:     ":8080",
		Document: "default",
	}
}

// loadConfig reads a TOML config file. An empty path returns the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ackDelay returns the configured ack delay, or 0 to use the session
// default.
func (c Config) ackDelay() time.Duration {
	return time.Duration(c.AckDelayMS) * time.Millisecond
}

// resyncDelay returns the configured resync delay, or 0 to use the
// session default.
func (c Config) resyncDelay() time.Duration {
	return time.Duration(c.ResyncDelayMS) * time.Millisecond
}
