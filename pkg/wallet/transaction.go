// Package wallet provides the transaction gate that blocks economically
// sensitive transfers behind a human-approval notification, plus the
// external wallet-provider contract.
package wallet

import (
	"encoding/json"
	"strconv"
)

// Transaction is an economic transfer under inspection. Amount is kept
// loosely typed because transactions arrive from JSON payloads assembled by
// upstream agents; everything except amount and currency is opaque to the
// gate.
type Transaction struct {
	ID        string         `json:"id,omitempty"`
	Recipient string         `json:"recipient,omitempty"`
	Amount    any            `json:"amount"`
	Currency  string         `json:"currency"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AmountValue coerces the amount to a float64. Absent or non-numeric
// amounts coerce to zero, which sits below any positive gate threshold: a
// malformed amount is treated as a zero-value transfer, not blocked.
func (t Transaction) AmountValue() float64 {
	switch v := t.Amount.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}
