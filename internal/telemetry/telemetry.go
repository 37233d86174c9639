// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry holds the otel metric instruments shared by the server
// dispatcher, the client transport and the push notifier.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ScopeName is the instrumentation scope used for meters and tracers.
const ScopeName = "github.com/go-a2a/a2a"

var (
	rpcRequests    metric.Int64Counter
	rpcErrors      metric.Int64Counter
	rpcLatency     metric.Float64Histogram
	clientAttempts metric.Int64Counter
	streamLagged   metric.Int64Counter
	pushDeliveries metric.Int64Counter
	pushDropped    metric.Int64Counter
)

var metricOnce sync.Once

// initMetrics resolves the instruments against the global meter provider on first use,
// so a provider installed by main before serving is honored.
func initMetrics() {
	metricOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(ScopeName)
		var err error

		rpcRequests, err = m.Int64Counter("a2a.rpc.requests",
			metric.WithDescription("Count of dispatched JSON-RPC requests"),
		)
		if err != nil {
			otel.Handle(err)
			rpcRequests = noop.Int64Counter{}
		}

		rpcErrors, err = m.Int64Counter("a2a.rpc.errors",
			metric.WithDescription("Count of JSON-RPC requests answered with an error"),
		)
		if err != nil {
			otel.Handle(err)
			rpcErrors = noop.Int64Counter{}
		}

		rpcLatency, err = m.Float64Histogram("a2a.rpc.duration",
			metric.WithDescription("Handler latency"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
			rpcLatency = noop.Float64Histogram{}
		}

		clientAttempts, err = m.Int64Counter("a2a.client.attempts",
			metric.WithDescription("Outbound call attempts, including retries"),
		)
		if err != nil {
			otel.Handle(err)
			clientAttempts = noop.Int64Counter{}
		}

		streamLagged, err = m.Int64Counter("a2a.stream.lagged",
			metric.WithDescription("Events skipped by lagging stream subscribers"),
		)
		if err != nil {
			otel.Handle(err)
			streamLagged = noop.Int64Counter{}
		}

		pushDeliveries, err = m.Int64Counter("a2a.push.deliveries",
			metric.WithDescription("Webhook delivery outcomes"),
		)
		if err != nil {
			otel.Handle(err)
			pushDeliveries = noop.Int64Counter{}
		}

		pushDropped, err = m.Int64Counter("a2a.push.dropped",
			metric.WithDescription("Webhook notices dropped because the queue was full"),
		)
		if err != nil {
			otel.Handle(err)
			pushDropped = noop.Int64Counter{}
		}
	})
}

// RecordRequest records one dispatched request. code is zero on success.
func RecordRequest(ctx context.Context, method string, code int, elapsed time.Duration) {
	initMetrics()
	attrs := metric.WithAttributes(attribute.String("a2a.method", method))
	rpcRequests.Add(ctx, 1, attrs)
	rpcLatency.Record(ctx, elapsed.Seconds(), attrs)
	if code != 0 {
		rpcErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("a2a.method", method),
			attribute.Int("a2a.error_code", code),
		))
	}
}

// RecordAttempt records one outbound call attempt.
func RecordAttempt(ctx context.Context, transport string, retry bool) {
	initMetrics()
	clientAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("a2a.transport", transport),
		attribute.Bool("a2a.retry", retry),
	))
}

// RecordLag records n events skipped by a slow subscriber.
func RecordLag(ctx context.Context, n uint64) {
	initMetrics()
	streamLagged.Add(ctx, int64(n))
}

// RecordDelivery records a finished webhook delivery.
func RecordDelivery(ctx context.Context, event string, ok bool) {
	initMetrics()
	pushDeliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("a2a.push.event", event),
		attribute.Bool("a2a.push.ok", ok),
	))
}

// RecordDropped records a webhook notice dropped on a full queue.
func RecordDropped(ctx context.Context, event string) {
	initMetrics()
	pushDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("a2a.push.event", event)))
}
