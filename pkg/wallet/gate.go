// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

package wallet

import (
	"context"
	"log/slog"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
)

// Gate inspects transactions and notifies a human approver when one exceeds
// policy. The gate is stateless: it never records, retries, or retracts a
// notification.
type Gate struct {
	threshold float64
	currency  string
	notifier  Notifier
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithThreshold sets the amount above which approval is required.
// The boundary is exclusive: a transaction exactly at the threshold passes.
func WithThreshold(threshold float64) GateOption {
	return func(g *Gate) {
		g.threshold = threshold
	}
}

// WithCurrency sets the currency the gate watches.
func WithCurrency(currency string) GateOption {
	return func(g *Gate) {
		if currency != "" {
			g.currency = currency
		}
	}
}

// NewGate creates a gate over the notifier. Defaults: threshold 10,
// currency USDC.
func NewGate(notifier Notifier, opts ...GateOption) *Gate {
	g := &Gate{threshold: 10, currency: "USDC", notifier: notifier}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// VerifyTransaction returns true when a human-approval notification was
// sent, meaning the action is gated pending approval. It returns false, and
// takes no action, for transactions at or under the threshold or in another
// currency.
//
// A notifier failure is fatal for this verification and propagates as a
// notifier-delivery error: failing to notify is failing to gate.
func (g *Gate) VerifyTransaction(ctx context.Context, tx Transaction) (bool, error) {
	amount := tx.AmountValue()
	if tx.Currency != g.currency || amount <= g.threshold {
		return false, nil
	}

	if err := g.notifier.NotifyTransactionForApproval(ctx, tx); err != nil {
		return false, errors.New(errors.CodeNotifierDelivery, "approval notification failed", err).
			WithContext("transaction_id", tx.ID).
			WithContext("amount", amount).
			WithContext("currency", tx.Currency)
	}

	slog.InfoContext(ctx, "transaction gated for human approval",
		slog.String("transaction_id", tx.ID),
		slog.Float64("amount", amount),
		slog.String("currency", tx.Currency),
	)
	return true, nil
}

// Threshold returns the configured gate threshold.
func (g *Gate) Threshold() float64 { return g.threshold }

// Currency returns the configured gate currency.
func (g *Gate) Currency() string { return g.currency }
