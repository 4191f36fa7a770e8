package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// OrderRequest asks the gateway to open an order for a payment
type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the gateway's view of an order
type Order struct {
	ID          string     `json:"id"`
	AmountMinor int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Receipt     string     `json:"receipt"`
	Status      string     `json:"status"`
	Notes       OrderNotes `json:"notes"`
}

// OrderNotes are the key/value notes on an order. Razorpay sends an empty
// array instead of an object when an order has no notes.
type OrderNotes map[string]string

func (n *OrderNotes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("order notes: %w", err)
		}
		*n = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("order notes: %w", err)
	}
	notes := make(OrderNotes, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			s = string(v)
		}
		notes[k] = s
	}
	*n = notes
	return nil
}

// PaymentGateway is the external payment processor
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	KeyID() string
}

// Order note keys used to recover context in the webhook
const (
	NoteSettlementID = "settlementId"
	NoteCustomerID   = "customerId"
	NotePaymentID    = "paymentId"
	NoteType         = "type"
	NoteTypeInterest = "monthly_interest"
)
