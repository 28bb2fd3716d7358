// Package httpc provides the shared HTTP client used for voice API
// calls. Use this instead of http.DefaultClient so every outbound call
// carries timeouts.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a whole request. Transcription uploads a few
// seconds of audio and waits for inference, so this is generous.
const DefaultTimeout = 30 * time.Second

const (
	connectTimeout  = 10 * time.Second
	idleConnTimeout = 90 * time.Second
)

// Client is the shared HTTP client.
var Client = &http.Client{
	Timeout: DefaultTimeout,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
	},
}

// Do performs an HTTP request with the shared client.
func Do(req *http.Request) (*http.Response, error) {
	return Client.Do(req)
}
