package wallet

import (
	"context"
	"fmt"
	"sync"
)

// Provider is the custody adapter contract. Concrete implementations wrap
// an external wallet service; the pipeline treats them as black boxes
// returning success or failure.
type Provider interface {
	// Initialize prepares the wallet and returns its address.
	Initialize(ctx context.Context) (string, error)
	// Balance returns current balances keyed by asset symbol.
	Balance(ctx context.Context) (map[string]float64, error)
	// Transfer executes a transfer and returns a provider transaction ref.
	Transfer(ctx context.Context, tx Transaction) (string, error)
	// EstimateGas estimates the cost of executing the transaction.
	EstimateGas(ctx context.Context, tx Transaction) (float64, error)
}

// InMemoryProvider is a balance-ledger fake for tests and dry runs.
type InMemoryProvider struct {
	mu       sync.Mutex
	address  string
	balances map[string]float64
	seq      int
}

// NewInMemoryProvider creates a provider with the given starting balances.
func NewInMemoryProvider(balances map[string]float64) *InMemoryProvider {
	copied := make(map[string]float64, len(balances))
	for k, v := range balances {
		copied[k] = v
	}
	return &InMemoryProvider{address: "0xlocal", balances: copied}
}

// Initialize implements Provider.
func (p *InMemoryProvider) Initialize(_ context.Context) (string, error) {
	return p.address, nil
}

// Balance implements Provider.
func (p *InMemoryProvider) Balance(_ context.Context) (map[string]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]float64, len(p.balances))
	for k, v := range p.balances {
		out[k] = v
	}
	return out, nil
}

// Transfer implements Provider. It fails when the balance cannot cover the
// amount.
func (p *InMemoryProvider) Transfer(_ context.Context, tx Transaction) (string, error) {
	amount := tx.AmountValue()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balances[tx.Currency] < amount {
		return "", fmt.Errorf("insufficient %s balance: have %.2f, need %.2f", tx.Currency, p.balances[tx.Currency], amount)
	}
	p.balances[tx.Currency] -= amount
	p.seq++
	return fmt.Sprintf("tx-%04d", p.seq), nil
}

// EstimateGas implements Provider with a flat estimate.
func (p *InMemoryProvider) EstimateGas(_ context.Context, _ Transaction) (float64, error) {
	return 0.0001, nil
}
