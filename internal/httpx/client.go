// Package httpx builds the tuned HTTP clients the gateway uses to talk to
// the origin.
package httpx

import (
	"net/http"
	"time"
)

// Default client settings.
const (
	DefaultTimeout               = 30 * time.Second
	DefaultMaxIdleConns          = 100
	DefaultMaxIdleConnsPerHost   = 10
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultResponseHeaderTimeout = 30 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
)

// NewClient creates an HTTP client with keep-alive pooling and the given
// overall request timeout. Zero means DefaultTimeout. Redirects are
// followed (the net/http default).
func NewClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:          DefaultMaxIdleConns,
			MaxIdleConnsPerHost:   DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:       DefaultIdleConnTimeout,
			ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
			TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		},
	}
}
