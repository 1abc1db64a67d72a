package config

import (
	"fmt"
	"net"
	"time"
)

const (
	// Redis defaults
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisTimeout = 5 * time.Second
)

// Config holds the complete application configuration.
type Config struct {
	Redis    RedisConfig
	Export   ExportConfig
	Settings SettingsConfig
}

// RedisConfig identifies the scraped server.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	Timeout  time.Duration
}

// Validate applies defaults and validates Redis configuration.
func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		c.Addr = DefaultRedisAddr
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultRedisTimeout
	}

	host, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return fmt.Errorf("invalid redis address %q: %w", c.Addr, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("invalid redis address %q: host and port are required", c.Addr)
	}

	return nil
}
