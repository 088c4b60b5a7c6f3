package ratelimit

import (
	"net/http"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// NewConfig builds the service configuration: pipeline runs are limited to
// runsPerHour with the given burst, everything else shares a lenient default.
func NewConfig(enabled bool, runsPerHour, runBurst int) *Config {
	if !enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(runsPerHour, runBurst),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific configurations.
func DefaultEndpointConfigs(runsPerHour, runBurst int) []EndpointConfig {
	return []EndpointConfig{
		// Each run fans out to several generation calls
		{Path: "/pipeline/run", Method: http.MethodPost, Limit: runsPerHour, Window: time.Hour, Burst: runBurst},
		// Guards secret verification against brute force
		{Path: "/auth/token", Method: http.MethodPost, Limit: 30, Window: time.Minute, Burst: 5},
	}
}
