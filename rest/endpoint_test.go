package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polygongo/polygonerr"
)

func newDispatcher(t *testing.T, handler http.HandlerFunc) *Dispatcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Dispatcher{HTTPClient: srv.Client(), BaseURL: srv.URL, APIKey: "test-key"}
}

func TestIssue_AcceptedStatusDecodesEnvelope(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		assert.Equal(t, "/v2/reference/tickers/MSFT", r.URL.Path)
		w.Write([]byte(`{"status":"OK","results":{"ticker":"MSFT","name":"Microsoft Corp","market":"stocks","locale":"us","primary_exchange":"XNAS","active":true}}`))
	})

	out, err := Issue[TickerDetailsInput, TickerDetailsResult, EndpointError](
		context.Background(), d, TickerDetailsEndpoint{}, TickerDetailsInput{Symbol: "MSFT"})
	require.NoError(t, err)

	detail, err := out.Into()
	require.NoError(t, err)
	assert.Equal(t, "MSFT", detail.Ticker)
}

func TestIssue_RejectedStatusDecodesEndpointError(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"NOT_FOUND","error":"ticker not found"}`))
	})

	_, err := Issue[TickerDetailsInput, TickerDetailsResult, EndpointError](
		context.Background(), d, TickerDetailsEndpoint{}, TickerDetailsInput{Symbol: "ZZZZ"})
	require.Error(t, err)

	var reqErr *polygonerr.RequestError[EndpointError]
	require.ErrorAs(t, err, &reqErr)
	require.NotNil(t, reqErr.Endpoint)
	assert.Equal(t, "ticker not found", reqErr.Endpoint.Message)
}

func TestIssue_AuthenticationFailedIsShared(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := Issue[TickerDetailsInput, TickerDetailsResult, EndpointError](
		context.Background(), d, TickerDetailsEndpoint{}, TickerDetailsInput{Symbol: "MSFT"})
	require.Error(t, err)
	assert.ErrorIs(t, err, polygonerr.ErrAuthenticationFailed)
}

func TestIssue_RateLimitExceededIsShared(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := Issue[TickerDetailsInput, TickerDetailsResult, EndpointError](
		context.Background(), d, TickerDetailsEndpoint{}, TickerDetailsInput{Symbol: "MSFT"})
	require.Error(t, err)
	assert.ErrorIs(t, err, polygonerr.ErrRateLimitExceeded)
}

func TestIssue_RecordsRESTLatencyMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"OK","results":{"ticker":"MSFT"}}`))
	})
	d.Metrics = m

	_, err := Issue[TickerDetailsInput, TickerDetailsResult, EndpointError](
		context.Background(), d, TickerDetailsEndpoint{}, TickerDetailsInput{Symbol: "MSFT"})
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	var histogram *dto.Histogram
	for _, mf := range families {
		if mf.GetName() != "polygon_rest_request_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "status" && label.GetValue() == "200" {
					histogram = metric.GetHistogram()
				}
			}
		}
	}
	require.NotNil(t, histogram, "expected a recorded sample for status 200")
	assert.EqualValues(t, 1, histogram.GetSampleCount())
}

func TestIssue_QuotesEndpointBuildsFilterQuery(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/quotes/AAPL", r.URL.Path)
		assert.Equal(t, "1609459200000000000", r.URL.Query().Get("timestamp.gte"))
		assert.Equal(t, "asc", r.URL.Query().Get("order"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"status":"OK","results":[{"T":"AAPL","bid_exchange_id":1,"bid_price":"132.1","bid_size":3,"ask_exchange_id":2,"ask_price":"132.15","ask_size":5,"participant_timestamp":1609459200000000000}]}`))
	})

	out, err := Issue[QuotesInput, QuotesResult, EndpointError](context.Background(), d, QuotesEndpoint{}, QuotesInput{
		Symbol: "AAPL", Comparator: ComparatorGTE, Timestamp: 1609459200000000000, Order: "asc", Limit: 10,
	})
	require.NoError(t, err)

	quotes, err := out.Into()
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "AAPL", quotes[0].Symbol)
	assert.EqualValues(t, 5, quotes[0].AskSize.Int64)
}

func TestIssue_UnmappedStatusIsUnexpectedStatusError(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := Issue[TickerDetailsInput, TickerDetailsResult, EndpointError](
		context.Background(), d, TickerDetailsEndpoint{}, TickerDetailsInput{Symbol: "MSFT"})
	require.Error(t, err)

	var reqErr *polygonerr.RequestError[EndpointError]
	require.ErrorAs(t, err, &reqErr)
	var statusErr *polygonerr.UnexpectedStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

// TestIssue_TransportFailureIsWrapped injects a connection-level failure that
// httptest cannot otherwise produce (the handler never runs) by patching
// (*http.Client).Do, and checks Issue wraps it rather than leaking it raw.
func TestIssue_TransportFailureIsWrapped(t *testing.T) {
	d := newDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run when the transport itself fails")
	})

	patches := gomonkey.ApplyMethod(reflect.TypeOf(d.HTTPClient), "Do",
		func(_ *http.Client, _ *http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset by peer")
		})
	defer patches.Reset()

	_, err := Issue[TickerDetailsInput, TickerDetailsResult, EndpointError](
		context.Background(), d, TickerDetailsEndpoint{}, TickerDetailsInput{Symbol: "MSFT"})
	require.Error(t, err)

	var reqErr *polygonerr.RequestError[EndpointError]
	require.ErrorAs(t, err, &reqErr)
	var transportErr *polygonerr.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "do", transportErr.Op)
}
