// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package push delivers task change notifications to registered webhooks.
package push

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-json-experiment/json"
	"golang.org/x/sync/errgroup"

	"github.com/go-a2a/a2a"
	"github.com/go-a2a/a2a/internal/netguard"
	"github.com/go-a2a/a2a/internal/telemetry"
	"github.com/go-a2a/a2a/server/task"
)

// Defaults for a [Notifier].
const (
	DefaultQueueSize = 256
	DefaultWorkers   = 4
)

// RetryPolicy controls webhook redelivery.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	// Timeout bounds each delivery attempt.
	Timeout time.Duration
}

// DefaultRetryPolicy returns 5 retries starting at 1s, doubling up to 60s,
// with a 30s per attempt timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      5,
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxInterval:     time.Minute,
		Timeout:         30 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(p.MaxRetries, 0))), ctx)
}

type delivery struct {
	taskID  string
	event   a2a.PushEvent
	url     string
	auth    *a2a.PushAuthentication
	payload []byte
}

// Notifier queues webhook deliveries and sends them from a worker pool.
type Notifier struct {
	store   task.PushConfigStore
	client  *http.Client
	policy  RetryPolicy
	queue   chan delivery
	workers int
	agentID a2a.AgentID
	logger  *slog.Logger
}

// Option configures a [Notifier].
type Option func(*Notifier)

// WithHTTPClient sets the [*http.Client] used for deliveries. The default
// client refuses private and loopback destinations when it dials.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		n.client = c
	}
}

// WithRetryPolicy overrides [DefaultRetryPolicy].
func WithRetryPolicy(p RetryPolicy) Option {
	return func(n *Notifier) {
		n.policy = p
	}
}

// WithQueueSize sets how many deliveries may wait before new ones are dropped.
func WithQueueSize(size int) Option {
	return func(n *Notifier) {
		if size > 0 {
			n.queue = make(chan delivery, size)
		}
	}
}

// WithWorkers sets the number of concurrent senders.
func WithWorkers(workers int) Option {
	return func(n *Notifier) {
		if workers > 0 {
			n.workers = workers
		}
	}
}

// WithAgentID stamps payloads with the sending agent's id.
func WithAgentID(id a2a.AgentID) Option {
	return func(n *Notifier) {
		n.agentID = id
	}
}

// WithLogger sets the [*slog.Logger] for the notifier.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// NewNotifier returns a notifier reading webhook configs from store.
func NewNotifier(store task.PushConfigStore, opts ...Option) *Notifier {
	n := &Notifier{
		store:   store,
		client:  netguard.NewHTTPClient(0),
		policy:  DefaultRetryPolicy(),
		queue:   make(chan delivery, DefaultQueueSize),
		workers: DefaultWorkers,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Store returns the config store the notifier reads from.
func (n *Notifier) Store() task.PushConfigStore { return n.store }

// Notify queues ev for every config of t subscribed to it. It never blocks:
// deliveries that do not fit in the queue are dropped.
func (n *Notifier) Notify(ctx context.Context, ev a2a.PushEvent, t *a2a.Task) {
	configs, err := n.store.List(ctx, t.ID)
	if err != nil {
		n.logger.ErrorContext(ctx, "list push configs", slog.String("task_id", t.ID), slog.Any("error", err))
		return
	}

	var payload []byte
	for _, cfg := range configs {
		pc := cfg.PushNotificationConfig
		if !pc.Subscribes(ev) {
			continue
		}
		if payload == nil {
			payload, err = json.Marshal(&a2a.WebhookPayload{
				Event:     ev,
				Task:      t,
				Timestamp: time.Now().UTC(),
				AgentID:   n.agentID,
			})
			if err != nil {
				n.logger.ErrorContext(ctx, "encode webhook payload", slog.String("task_id", t.ID), slog.Any("error", err))
				return
			}
		}

		d := delivery{taskID: t.ID, event: ev, url: pc.URL, auth: pc.Authentication, payload: payload}
		select {
		case n.queue <- d:
		default:
			telemetry.RecordDropped(ctx, string(ev))
			n.logger.WarnContext(ctx, "webhook queue full, dropping notification",
				slog.String("task_id", t.ID), slog.String("event", string(ev)), slog.String("config_id", pc.ID))
		}
	}
}

// Run sends queued deliveries until ctx is done. Deliveries still queued
// at that point are discarded.
func (n *Notifier) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for range n.workers {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case d := <-n.queue:
					n.deliver(ctx, d)
				}
			}
		})
	}
	return g.Wait()
}

func (n *Notifier) deliver(ctx context.Context, d delivery) {
	err := backoff.RetryNotify(func() error {
		return n.post(ctx, d)
	}, n.policy.backOff(ctx), func(err error, delay time.Duration) {
		n.logger.DebugContext(ctx, "retrying webhook", slog.String("task_id", d.taskID), slog.Duration("delay", delay), slog.Any("error", err))
	})

	telemetry.RecordDelivery(ctx, string(d.event), err == nil)
	if err != nil && ctx.Err() == nil {
		n.logger.WarnContext(ctx, "webhook delivery failed",
			slog.String("task_id", d.taskID), slog.String("event", string(d.event)), slog.Any("error", err))
	}
}

// StatusError is returned for a webhook answering with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether the delivery is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func (n *Notifier) post(ctx context.Context, d delivery) error {
	if n.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.policy.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(d.payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", a2a.ContentTypeJSON)
	req.Header.Set("User-Agent", "go-a2a/"+a2a.Version)
	if a := d.auth; a != nil {
		switch a.Type {
		case a2a.PushAuthBearer:
			req.Header.Set("Authorization", "Bearer "+a.Token)
		case a2a.PushAuthCustomHeaders:
			for k, v := range a.Headers {
				req.Header.Set(k, v)
			}
		}
	}

	resp, err := n.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, netguard.ErrBlocked) {
			return backoff.Permanent(err)
		}
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	serr := &StatusError{StatusCode: resp.StatusCode}
	if serr.Temporary() {
		return serr
	}
	return backoff.Permanent(serr)
}
