package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"polygongo/hook"
	"polygongo/rest"
	"polygongo/stream"
	"polygongo/wire"
)

func TestClient_Subscribe_EndToEnd(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		write := func(msg string) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		}
		write(`[{"ev":"status","status":"connected","message":"Connected Successfully"}]`)
		_, _, _ = conn.ReadMessage()
		write(`[{"ev":"status","status":"auth_success","message":"authenticated"}]`)
		_, _, _ = conn.ReadMessage()
		write(`[{"ev":"status","status":"success","message":"subscribed to T.MSFT"}]`)
		write(`[{"ev":"T","sym":"MSFT","x":4,"p":"372.42","s":100,"t":1610000000000}]`)
	}))
	defer srv.Close()

	// Subscribe forces the wss scheme, so the fake server speaks TLS and the
	// dialer trusts its certificate.
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	dialer := &websocket.Dialer{TLSClientConfig: srv.Client().Transport.(*http.Transport).TLSClientConfig}
	c := NewClient(ApiInfo{APIURL: srv.URL, StreamURL: wsURL, APIKey: "test-key"},
		&hook.Hook{Dialer: dialer}, stream.NewMetrics(prometheus.NewRegistry()),
		rest.NewMetrics(prometheus.NewRegistry()), zerolog.Nop())

	session, err := c.Subscribe(context.Background(), wire.NewSubscription(wire.Trades, "MSFT"))
	require.NoError(t, err)
	defer session.Close()

	select {
	case ev := <-session.Events():
		require.Equal(t, "MSFT", ev.Trade.Symbol)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestClient_Subscribe_MissingCredential(t *testing.T) {
	c := NewClient(ApiInfo{APIURL: "https://example.test"}, nil, stream.NewMetrics(prometheus.NewRegistry()),
		rest.NewMetrics(prometheus.NewRegistry()), zerolog.Nop())
	_, err := c.Subscribe(context.Background())
	require.Error(t, err)
}

func TestClient_Issue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		w.Write([]byte(`{"status":"OK","results":{"ticker":"MSFT","name":"Microsoft Corp","market":"stocks","locale":"us","primary_exchange":"XNAS","active":true}}`))
	}))
	defer srv.Close()

	c := NewClient(ApiInfo{APIURL: srv.URL, APIKey: "test-key"}, nil, stream.NewMetrics(prometheus.NewRegistry()),
		rest.NewMetrics(prometheus.NewRegistry()), zerolog.Nop())
	out, err := Issue[rest.TickerDetailsInput, rest.TickerDetailsResult, rest.EndpointError](
		context.Background(), c, rest.TickerDetailsEndpoint{}, rest.TickerDetailsInput{Symbol: "MSFT"})
	require.NoError(t, err)

	detail, err := out.Into()
	require.NoError(t, err)
	require.Equal(t, "MSFT", detail.Ticker)
}
