package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/jonato1/blueaird/blueair"
	"github.com/jonato1/blueaird/internal/bridge"
	"github.com/jonato1/blueaird/internal/config"
	"github.com/jonato1/blueaird/internal/server"
)

func main() {
	configPath := flag.String("config", envOrDefault("BLUEAIRD_CONFIG", config.DefaultPath), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	client, err := blueair.NewClient(blueair.Config{
		Username:       cfg.Account.Username,
		Password:       cfg.Account.Password,
		Region:         cfg.Account.Region,
		ValidityWindow: cfg.ValidityWindow(),
	})
	if err != nil {
		log.Fatalf("new client: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(blueair.MetricsCollectors()...)
	registry.MustRegister(blueair.NewMetricsCollector(client))
	registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "blueaird_build_info",
		Help: "Build information",
	}, func() float64 { return 1 }))

	httpMux := http.NewServeMux()
	httpMux.HandleFunc("/health", server.HealthHandler)
	httpMux.Handle("/metrics", server.MetricsHandler(registry))
	httpMux.Handle("/dashboards/", server.DashboardsHandler(map[string][]byte{
		"/dashboards/blueair-overview.json": blueair.DashboardJSON,
	}))

	httpServer := server.NewHTTPServer(cfg.Core.HTTPAddr, httpMux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		return httpServer.Shutdown(context.Background())
	})

	if cfg.MQTT != nil {
		b, err := bridge.New(client, bridge.Options{
			Broker:       cfg.MQTT.Broker,
			ClientID:     cfg.MQTT.ClientID,
			Username:     cfg.MQTT.Username,
			Password:     cfg.MQTT.Password,
			TopicPrefix:  cfg.MQTT.TopicPrefix,
			PollInterval: cfg.PollInterval(),
		})
		if err != nil {
			log.Fatalf("bridge: %v", err)
		}
		group.Go(func() error {
			if err := b.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("serve: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
