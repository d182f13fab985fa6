// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

package approval

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Sweeper periodically expires pending approvals that passed their deadline.
type Sweeper struct {
	store    Store
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepTimeout bounds each sweep. Zero disables the bound.
func WithSweepTimeout(d time.Duration) SweeperOption {
	return func(s *Sweeper) { s.timeout = d }
}

// WithSweeperLogger overrides the default logger.
func WithSweeperLogger(l *slog.Logger) SweeperOption {
	return func(s *Sweeper) { s.logger = l }
}

// NewSweeper builds a sweeper over the given store. An interval of zero
// disables sweeping.
func NewSweeper(store Store, interval time.Duration, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:    store,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the sweep loop. Calling Start on a running sweeper restarts it.
func (s *Sweeper) Start() {
	if s.interval <= 0 || s.store == nil {
		s.logger.Info("approval.sweeper.disabled", slog.Duration("interval", s.interval))
		return
	}
	if s.cancel != nil {
		s.Stop()
	}
	initSweepMetrics()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.logger.Info("approval.sweeper.start", slog.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("approval.sweeper.stop")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop halts the sweep loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	if s.done != nil {
		<-s.done
	}
	s.cancel = nil
	s.done = nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx := ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		sweepCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	sweepCtx, span := otel.Tracer("agentic/approval").Start(sweepCtx, "approval.sweep")
	defer span.End()

	start := time.Now()
	expired, err := s.store.ExpireApprovals(sweepCtx)
	durationMs := float64(time.Since(start).Seconds() * 1000)
	sweepCounter.Add(ctx, 1)
	sweepLatencyMs.Record(ctx, durationMs)
	if err != nil {
		sweepErrorCounter.Add(ctx, 1)
		span.RecordError(err)
		s.logger.Warn("approval.sweep.error",
			slog.Float64("duration_ms", durationMs),
			slog.String("error", err.Error()),
		)
		return
	}
	if expired > 0 {
		expiredCounter.Add(ctx, int64(expired))
	}
	span.SetAttributes(attribute.Int("expired", expired))
	s.logger.Info("approval.sweep.complete",
		slog.Int("expired", expired),
		slog.Float64("duration_ms", durationMs),
	)
}

var (
	sweepMetricsOnce  sync.Once
	sweepCounter      metric.Int64Counter
	sweepErrorCounter metric.Int64Counter
	expiredCounter    metric.Int64Counter
	sweepLatencyMs    metric.Float64Histogram
)

func initSweepMetrics() {
	sweepMetricsOnce.Do(func() {
		meter := otel.Meter("agentic/approval")
		sweepCounter, _ = meter.Int64Counter("agentic.approval.sweep.count")
		sweepErrorCounter, _ = meter.Int64Counter("agentic.approval.sweep.error.count")
		expiredCounter, _ = meter.Int64Counter("agentic.approval.expired.count")
		sweepLatencyMs, _ = meter.Float64Histogram("agentic.approval.sweep.latency_ms")
	})
}
