// Package client is the library's facade: one Client owns the REST
// dispatcher and knows how to stand up a streaming Session.
package client

import (
	"context"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"polygongo/config"
	"polygongo/hook"
	"polygongo/polygonerr"
	"polygongo/rest"
	"polygongo/stream"
	"polygongo/wire"
)

// ApiInfo bundles the three things a session or REST call needs to reach
// the service: where REST lives, where streaming lives, and the
// credential both surfaces authenticate with.
type ApiInfo struct {
	APIURL    string
	StreamURL string
	APIKey    string
}

// Client is the library's entry point. Construct with NewClient, issue REST
// calls with Issue, and open a streaming session with Subscribe.
type Client struct {
	info     ApiInfo
	dialer   *websocket.Dialer
	dispatch *rest.Dispatcher
	metrics  *stream.Metrics
	log      zerolog.Logger
}

// NewClient builds a Client from explicit ApiInfo. Use FromConfig to build
// one from the environment instead. restMetrics may be nil (REST latency
// simply goes unrecorded).
func NewClient(info ApiInfo, h *hook.Hook, metrics *stream.Metrics, restMetrics *rest.Metrics, log zerolog.Logger) *Client {
	httpClient, dialer := hook.Resolve(h)
	return &Client{
		info:   info,
		dialer: dialer,
		dispatch: &rest.Dispatcher{
			HTTPClient: httpClient,
			BaseURL:    info.APIURL,
			APIKey:     info.APIKey,
			Metrics:    restMetrics,
		},
		metrics: metrics,
		log:     log,
	}
}

// FromConfig builds a Client from an already-loaded config.Config.
func FromConfig(cfg *config.Config, h *hook.Hook, metrics *stream.Metrics, restMetrics *rest.Metrics, log zerolog.Logger) *Client {
	return NewClient(ApiInfo{APIURL: cfg.APIURL, StreamURL: cfg.StreamURL, APIKey: cfg.APIKey}, h, metrics, restMetrics, log)
}

// Issue dispatches one REST call through the client's shared transport and
// credential. Multiple calls may run concurrently against the same Client.
func Issue[In any, Out any, E any](ctx context.Context, c *Client, ep rest.Endpoint[In, Out, E], in In) (Out, error) {
	return rest.Issue[In, Out, E](ctx, c.dispatch, ep, in)
}

// Subscribe normalises subs, derives the per-session streaming URL (scheme
// forced to wss, path forced to /stocks), dials, drives the handshake and
// returns a live Session.
func (c *Client) Subscribe(ctx context.Context, subs ...wire.Subscription) (*stream.Session, error) {
	if c.info.APIKey == "" {
		return nil, polygonerr.ErrMissingCredential
	}

	streamURL, err := c.streamURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := c.dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		c.metrics.RecordConnection(false)
		return nil, polygonerr.NewTransportError("dial", err)
	}
	c.metrics.RecordConnection(true)

	normalized := wire.Normalize(subs...)
	surplus, err := stream.Handshake(conn, c.info.APIKey, normalized, c.log)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return stream.NewSession(conn, surplus, c.metrics, c.log), nil
}

func (c *Client) streamURL() (string, error) {
	u, err := url.Parse(c.info.StreamURL)
	if err != nil {
		return "", &polygonerr.URLError{Raw: c.info.StreamURL, Err: err}
	}
	u.Scheme = "wss"
	u.Path = "/stocks"
	return u.String(), nil
}
