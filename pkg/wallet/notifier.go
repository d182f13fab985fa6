// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

package wallet

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Notifier delivers a human-approval alert for a gated transaction. The
// only contract is delivered-or-error: the gate never retries, because a
// silently lost notification is a silently lost gate.
type Notifier interface {
	NotifyTransactionForApproval(ctx context.Context, tx Transaction) error
}

// ConsoleNotifier writes approval requests to an operator channel
// (stdout by default).
type ConsoleNotifier struct {
	out io.Writer
}

// ConsoleNotifierOption configures the console notifier.
type ConsoleNotifierOption func(*ConsoleNotifier)

// WithNotifierOutput sets the output writer.
func WithNotifierOutput(w io.Writer) ConsoleNotifierOption {
	return func(n *ConsoleNotifier) {
		if w != nil {
			n.out = w
		}
	}
}

// NewConsoleNotifier creates a console-based notifier.
func NewConsoleNotifier(opts ...ConsoleNotifierOption) *ConsoleNotifier {
	n := &ConsoleNotifier{out: os.Stdout}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NotifyTransactionForApproval implements Notifier.
func (n *ConsoleNotifier) NotifyTransactionForApproval(_ context.Context, tx Transaction) error {
	_, err := fmt.Fprintf(n.out, "\nApproval required for transaction %s: %.2f %s to %s\n",
		tx.ID, tx.AmountValue(), tx.Currency, tx.Recipient)
	if err != nil {
		return fmt.Errorf("write approval notification: %w", err)
	}
	return nil
}

// RecorderNotifier records every delivered transaction. Test double.
type RecorderNotifier struct {
	mu    sync.Mutex
	calls []Transaction
	fail  error
}

// NewRecorderNotifier creates a recorder; a non-nil fail error makes every
// delivery fail with it.
func NewRecorderNotifier(fail error) *RecorderNotifier {
	return &RecorderNotifier{fail: fail}
}

// NotifyTransactionForApproval implements Notifier.
func (n *RecorderNotifier) NotifyTransactionForApproval(_ context.Context, tx Transaction) error {
	if n.fail != nil {
		return n.fail
	}
	n.mu.Lock()
	n.calls = append(n.calls, tx)
	n.mu.Unlock()
	return nil
}

// Calls returns a snapshot of delivered transactions.
func (n *RecorderNotifier) Calls() []Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Transaction(nil), n.calls...)
}
