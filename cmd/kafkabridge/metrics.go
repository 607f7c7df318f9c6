// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"github.com/xmidt-org/kafkabridge"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// metrics holds the registry shared by the kprom hook and the bridge
// counters fed from kafkabridge.Stats.
type metrics struct {
	registry *prometheus.Registry
	kafka    *kprom.Metrics

	delivered prometheus.Gauge
	failed    prometheus.Gauge
	received  prometheus.Gauge
	buffered  prometheus.Gauge
}

func newMetrics(namespace string) *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gauge := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      name,
			Help:      help,
		})
		reg.MustRegister(g)
		return g
	}

	return &metrics{
		registry:  reg,
		kafka:     kprom.NewMetrics(namespace, kprom.Registerer(reg), kprom.Gatherer(reg)),
		delivered: gauge("delivered_records", "Records acknowledged by the brokers."),
		failed:    gauge("failed_records", "Records whose delivery failed."),
		received:  gauge("received_records", "Records returned by the consumer."),
		buffered:  gauge("buffered_records", "Records waiting for delivery."),
	}
}

// hooks returns the franz-go hooks to install on the bridge clients.
func (m *metrics) hooks() []kgo.Hook {
	return []kgo.Hook{m.kafka}
}

// observe is the kafkabridge stats listener.
func (m *metrics) observe(s *kafkabridge.Stats) {
	m.delivered.Set(float64(s.Delivered))
	m.failed.Set(float64(s.Failed))
	m.received.Set(float64(s.Received))
	m.buffered.Set(float64(s.BufferedRecords))
}

func (m *metrics) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// serve runs the metrics endpoint until ctx is done.
func (m *metrics) serve(ctx context.Context, addr string, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
