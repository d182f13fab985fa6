// Copyright 2026 © The Agentic Infrastructure Authors
// SPDX-License-Identifier: Apache-2.0

package wallet

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/milkesa2013/Agentic-Infrastructure/pkg/errors"
)

func TestGateExclusiveBoundary(t *testing.T) {
	notifier := NewRecorderNotifier(nil)
	gate := NewGate(notifier, WithThreshold(10), WithCurrency("USDC"))

	// Exactly at the threshold: no notification.
	gated, err := gate.VerifyTransaction(context.Background(), Transaction{ID: "t1", Amount: 10.0, Currency: "USDC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gated {
		t.Errorf("amount == threshold must not require approval")
	}
	if len(notifier.Calls()) != 0 {
		t.Errorf("notifier must not be called at the boundary")
	}

	// Just above the threshold: exactly one notification.
	gated, err = gate.VerifyTransaction(context.Background(), Transaction{ID: "t2", Amount: 10.01, Currency: "USDC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gated {
		t.Errorf("amount just above threshold must require approval")
	}
	calls := notifier.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(calls))
	}
	if calls[0].ID != "t2" {
		t.Errorf("notifier must receive the original transaction, got %+v", calls[0])
	}
}

func TestGateCurrencyMismatch(t *testing.T) {
	notifier := NewRecorderNotifier(nil)
	gate := NewGate(notifier)

	gated, err := gate.VerifyTransaction(context.Background(), Transaction{Amount: 1000.0, Currency: "EUR"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gated || len(notifier.Calls()) != 0 {
		t.Errorf("non-matching currency must never trigger notification")
	}
}

func TestGateAmountCoercion(t *testing.T) {
	tests := []struct {
		name   string
		amount any
		gated  bool
	}{
		{"float above", 11.0, true},
		{"int above", 11, true},
		{"string numeric above", "11", true},
		{"string garbage", "eleven", false},
		{"absent", nil, false},
		{"struct", struct{}{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := NewRecorderNotifier(nil)
			gate := NewGate(notifier)
			gated, err := gate.VerifyTransaction(context.Background(), Transaction{Amount: tt.amount, Currency: "USDC"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gated != tt.gated {
				t.Errorf("amount %v: expected gated=%v, got %v", tt.amount, tt.gated, gated)
			}
		})
	}
}

func TestGateNotifierFailurePropagates(t *testing.T) {
	cause := stderrors.New("smtp down")
	gate := NewGate(NewRecorderNotifier(cause))

	gated, err := gate.VerifyTransaction(context.Background(), Transaction{ID: "t3", Amount: 50.0, Currency: "USDC"})
	if err == nil {
		t.Fatalf("notifier failure must propagate")
	}
	if gated {
		t.Errorf("a failed notification is not a successful gate")
	}
	ae := errors.AsAgenticError(err)
	if ae.Code != errors.CodeNotifierDelivery {
		t.Errorf("expected notifier-delivery code, got %v", ae.Code)
	}
	if !stderrors.Is(err, cause) {
		t.Errorf("expected cause preserved in chain")
	}
}

func TestInMemoryProviderTransfer(t *testing.T) {
	provider := NewInMemoryProvider(map[string]float64{"USDC": 100})

	ref, err := provider.Transfer(context.Background(), Transaction{Amount: 40.0, Currency: "USDC"})
	if err != nil || ref == "" {
		t.Fatalf("expected transfer to succeed, got ref=%q err=%v", ref, err)
	}

	balances, _ := provider.Balance(context.Background())
	if balances["USDC"] != 60 {
		t.Errorf("expected balance 60 after transfer, got %v", balances["USDC"])
	}

	if _, err := provider.Transfer(context.Background(), Transaction{Amount: 1000.0, Currency: "USDC"}); err == nil {
		t.Errorf("expected insufficient balance error")
	}
}
