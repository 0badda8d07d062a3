// Command polygondemo connects to Polygon's streaming API, subscribes to a
// handful of symbols and prints decoded events as they arrive, while
// exposing the client's Prometheus metrics on /metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"polygongo/client"
	"polygongo/config"
	"polygongo/internal/xlog"
	"polygongo/rest"
	"polygongo/stream"
	"polygongo/wire"
)

func main() {
	log := xlog.New(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	metrics := stream.NewMetrics(prometheus.DefaultRegisterer)
	restMetrics := rest.NewMetrics(prometheus.DefaultRegisterer)
	c := client.FromConfig(cfg, nil, metrics, restMetrics, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go serveMetrics(log)

	session, err := c.Subscribe(ctx,
		wire.NewSubscription(wire.Trades, "MSFT"),
		wire.NewSubscription(wire.Quotes, "AAPL"),
		wire.NewSubscription(wire.MinuteAggregates, wire.AllSymbols),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("subscribe")
	}
	defer session.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-session.Events():
			if !ok {
				return
			}
			fmt.Printf("%s %s\n", ev.Kind, ev.Symbol())
		case err, ok := <-session.Errors():
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("stream error")
		}
	}
}

func serveMetrics(log zerolog.Logger) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{})))
	if err := router.Run(":9090"); err != nil {
		log.Error().Err(err).Msg("metrics server")
	}
}
