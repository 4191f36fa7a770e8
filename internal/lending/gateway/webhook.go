package gateway

import (
	"encoding/json"
	"fmt"
)

// WebhookEvent is the subset of a Razorpay webhook body that reconciliation reads
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentEntity is payload.payment.entity
type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
	Receipt string `json:"receipt"`
}

// ParseWebhook decodes an already authenticated webhook body
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %w", err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("webhook body has no event")
	}
	return &event, nil
}
