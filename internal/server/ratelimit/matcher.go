package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited is returned for endpoints that are never rate limited.
var unlimited = &EndpointConfig{}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Paths ending in "/" match by prefix (e.g., "/generation/download/" matches "/generation/download/pdf").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Liveness probes and CORS preflights are never limited
	if (path == "/health" && method == http.MethodGet) || method == http.MethodOptions {
		return unlimited
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}
