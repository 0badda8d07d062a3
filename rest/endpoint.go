package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"polygongo/polygonerr"
)

// Endpoint describes one REST call: how to build the request from In, and
// how to interpret the response as either Out or the endpoint's own error
// type E. AuthenticationFailed (401) and RateLimitExceeded (429) are always
// handled by the Dispatcher before Accepts/Reject are consulted, so
// endpoints never need to special-case them.
type Endpoint[In any, Out any, E any] interface {
	Method() string
	Path(in In) string
	Query(in In) url.Values
	Body(in In) ([]byte, error)

	// Accepts reports whether status should be decoded as Out.
	Accepts(status int) bool

	// Reject decodes body as the endpoint's error type for a rejected
	// status. ok is false when status has no mapping, in which case the
	// Dispatcher returns an *polygonerr.UnexpectedStatusError instead.
	Reject(status int, body []byte) (value E, ok bool)
}

// Dispatcher holds the transport and credential shared by every endpoint
// call issued against one client. Metrics may be left nil (no-op).
type Dispatcher struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Metrics    *Metrics
}

// Issue builds, sends and decodes one request for ep against in.
func Issue[In any, Out any, E any](ctx context.Context, d *Dispatcher, ep Endpoint[In, Out, E], in In) (Out, error) {
	var zero Out
	start := time.Now()
	statusCode := 0
	defer func() { d.Metrics.observe(ep.Method(), statusLabel(statusCode), time.Since(start)) }()

	reqURL, err := buildURL[In, Out, E](d, ep, in)
	if err != nil {
		return zero, polygonerr.NewTransportRequestError[E](err)
	}

	reqBody, err := ep.Body(in)
	if err != nil {
		return zero, polygonerr.NewTransportRequestError[E](err)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method(), reqURL, bytes.NewReader(reqBody))
	if err != nil {
		return zero, polygonerr.NewTransportRequestError[E](polygonerr.NewTransportError("build request", err))
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return zero, polygonerr.NewTransportRequestError[E](polygonerr.NewTransportError("do", err))
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, polygonerr.NewTransportRequestError[E](polygonerr.NewTransportError("read body", err))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return zero, polygonerr.NewTransportRequestError[E](polygonerr.ErrAuthenticationFailed)
	case http.StatusTooManyRequests:
		return zero, polygonerr.NewTransportRequestError[E](polygonerr.ErrRateLimitExceeded)
	}

	if ep.Accepts(resp.StatusCode) {
		var out Out
		if err := json.Unmarshal(body, &out); err != nil {
			return zero, polygonerr.NewTransportRequestError[E](polygonerr.NewDecodeError("response body", err))
		}
		return out, nil
	}

	if e, ok := ep.Reject(resp.StatusCode, body); ok {
		return zero, polygonerr.NewEndpointRequestError[E](e)
	}

	return zero, polygonerr.NewTransportRequestError[E](&polygonerr.UnexpectedStatusError{
		StatusCode: resp.StatusCode,
		Body:       body,
	})
}

func buildURL[In any, Out any, E any](d *Dispatcher, ep Endpoint[In, Out, E], in In) (string, error) {
	base, err := url.Parse(d.BaseURL)
	if err != nil {
		return "", &polygonerr.URLError{Raw: d.BaseURL, Err: err}
	}
	base.Path = ep.Path(in)

	q := ep.Query(in)
	if q == nil {
		q = url.Values{}
	}
	q.Set("apiKey", d.APIKey)
	base.RawQuery = q.Encode()

	return base.String(), nil
}
