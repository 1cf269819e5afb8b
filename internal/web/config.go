package web

import (
	"fmt"
	"time"

	"github.com/postal-lookup/internal/config"
)

// Config holds the HTTP server settings.
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// CORSOrigin is the Access-Control-Allow-Origin value. Empty disables
	// the CORS headers entirely.
	CORSOrigin string

	// RateLimitRPS and RateLimitBurst configure the per-client token
	// bucket. RPS <= 0 disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// MaxBatchItems caps one batch search request.
	MaxBatchItems int
}

// DefaultConfig returns the settings used when the environment is silent.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigin:      "*",
		RateLimitRPS:    20,
		RateLimitBurst:  40,
		MaxBatchItems:   50,
	}
}

// ConfigFromEnv layers environment overrides onto the defaults.
func ConfigFromEnv() Config {
	c := DefaultConfig()
	c.Host = config.GetEnv("HTTP_HOST", c.Host)
	c.Port = config.GetEnvInt("PORT", c.Port)
	c.ReadTimeout = time.Duration(config.GetEnvInt("HTTP_READ_TIMEOUT_SEC", int(c.ReadTimeout.Seconds()))) * time.Second
	c.WriteTimeout = time.Duration(config.GetEnvInt("HTTP_WRITE_TIMEOUT_SEC", int(c.WriteTimeout.Seconds()))) * time.Second
	c.IdleTimeout = time.Duration(config.GetEnvInt("HTTP_IDLE_TIMEOUT_SEC", int(c.IdleTimeout.Seconds()))) * time.Second
	c.ShutdownTimeout = time.Duration(config.GetEnvInt("HTTP_SHUTDOWN_TIMEOUT_SEC", int(c.ShutdownTimeout.Seconds()))) * time.Second
	c.CORSOrigin = config.GetEnv("CORS_ORIGIN", c.CORSOrigin)
	c.RateLimitRPS = config.GetEnvFloat("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = config.GetEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.MaxBatchItems = config.GetEnvInt("MAX_BATCH_ITEMS", c.MaxBatchItems)
	return c
}

// Addr renders the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
