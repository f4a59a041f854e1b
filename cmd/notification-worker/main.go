package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/artmarket/exchange/internal/notification"
	"github.com/artmarket/exchange/pkg/idempotency"
	"github.com/artmarket/exchange/pkg/logging"
	"github.com/artmarket/exchange/pkg/metrics"
	"github.com/artmarket/exchange/pkg/shutdown"
	"github.com/artmarket/exchange/pkg/tracing"
)

func main() {
	log := logging.New("notification-worker")
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	kafkaAddr := env("KAFKA_ADDR", "localhost:9092")
	redisAddr := env("REDIS_ADDR", "localhost:6379")
	otlpURL := env("OTLP_URL", "http://localhost:4318")
	inTopic := env("IN_TOPIC", "transaction.events")
	metricsAddr := env("METRICS_ADDR", ":9102")

	tp, err := tracing.Init(ctx, "notification-worker", otlpURL, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	idem := idempotency.NewStore(rdb, 10*time.Minute)
	m := metrics.NewCommitMetrics(prometheus.DefaultRegisterer)

	consumer := notification.NewConsumer(log, []string{kafkaAddr}, inTopic, "notification-worker", idem, m)

	go func() {
		http.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			log.Error("metrics server error", "err", err)
		}
	}()

	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("notification-worker shutdown")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
