package storage

import "time"

// Config holds item-lock backend configuration
type Config struct {
	Type          string        // "local" or "redis"
	KeyPrefix     string        // Redis key prefix, e.g. "rental:lock:"
	TTL           time.Duration // Redis lock expiry, guards against crashed holders
	RetryInterval time.Duration // Redis polling interval while waiting
}

func (c Config) withDefaults() Config {
	if c.KeyPrefix == "" {
		c.KeyPrefix = "rental:lock:"
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 25 * time.Millisecond
	}
	return c
}
