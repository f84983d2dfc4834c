package tool

import (
	"net"
	"net/http"
	"time"
)

var (
	DefaultProbeTimeout = 5 * time.Second
)

// NewHTTPClient creates the client used for uploads and downloads.
// A zero timeout leaves the transfer unbounded.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// NewDetectHTTPClient creates the client used by the liveness probe. It never keeps
// connections around, so every probe observes the service fresh.
func NewDetectHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			DisableKeepAlives: true,
		},
	}
}
