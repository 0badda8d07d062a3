// Package hook is the client's one construction override point: anything
// that needs to customise how the library dials out (a corporate proxy, a
// custom TLS config, a test double) passes a Hook to client.NewClient. Fields
// left nil fall back to the defaults below, which honour the standard proxy
// environment variables.
package hook

import (
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Hook overrides the transports the client uses. A nil field on a Hook
// means "use the default for that field".
type Hook struct {
	HTTPClient *http.Client
	Dialer     *websocket.Dialer
}

// DefaultHTTPClient builds the client's REST transport: a 30s timeout and,
// when HTTPS_PROXY/HTTP_PROXY (or lowercase) is set, a proxying transport.
func DefaultHTTPClient() *http.Client {
	client := &http.Client{Timeout: 30 * time.Second}
	if proxy := proxyFromEnv(); proxy != nil {
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
	}
	return client
}

// DefaultDialer builds the client's WebSocket transport.
func DefaultDialer() *websocket.Dialer {
	return &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Proxy:            http.ProxyFromEnvironment,
	}
}

// Resolve applies h (which may be nil or partially populated) over the
// defaults, returning the http.Client and Dialer the client should use.
func Resolve(h *Hook) (*http.Client, *websocket.Dialer) {
	httpClient := DefaultHTTPClient()
	dialer := DefaultDialer()
	if h == nil {
		return httpClient, dialer
	}
	if h.HTTPClient != nil {
		httpClient = h.HTTPClient
	}
	if h.Dialer != nil {
		dialer = h.Dialer
	}
	return httpClient, dialer
}

func proxyFromEnv() *url.URL {
	for _, name := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
		if raw := os.Getenv(name); raw != "" {
			if u, err := url.Parse(raw); err == nil {
				return u
			}
		}
	}
	return nil
}
