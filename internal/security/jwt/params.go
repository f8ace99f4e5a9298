package jwtutil

import (
	"os"
	"strconv"
	"sync"
	"time"
)

type Config struct {
	Secret    []byte
	ClockSkew time.Duration
}

var (
	cfgOnce sync.Once
	cfg     Config
)

// config loads lazily so tests can set AUTH_JWT_SECRET before first use.
func config() Config {
	cfgOnce.Do(func() {
		cfg = Config{
			Secret:    []byte(os.Getenv("AUTH_JWT_SECRET")),
			ClockSkew: time.Duration(parseInt("AUTH_CLOCK_SKEW_SEC", 60)) * time.Second,
		}
	})
	return cfg
}

func parseInt(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// DefaultAccessTTL reads AUTH_ACCESS_TTL (e.g. "15m").
func DefaultAccessTTL() time.Duration {
	if v := parseDuration("AUTH_ACCESS_TTL", "15m"); v > 0 {
		return v
	}
	return 15 * time.Minute
}

// DefaultRefreshTTL reads AUTH_REFRESH_TTL (e.g. "720h").
func DefaultRefreshTTL() time.Duration {
	if v := parseDuration("AUTH_REFRESH_TTL", "720h"); v > 0 {
		return v
	}
	return 720 * time.Hour
}

func parseDuration(key, def string) time.Duration {
	s := def
	if v := os.Getenv(key); v != "" {
		s = v
	}
	d, _ := time.ParseDuration(s)
	return d
}
