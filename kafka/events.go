package kafka

import "time"

// LendingEvent is published after a lending transaction commits
type LendingEvent struct {
	EventID       string     `json:"event_id"`
	EventType     string     `json:"event_type"`
	ApplicationID string     `json:"application_id,omitempty"`
	SettlementID  string     `json:"settlement_id,omitempty"`
	PaymentID     string     `json:"payment_id,omitempty"`
	CustomerID    string     `json:"customer_id"`
	OwnerID       string     `json:"owner_id,omitempty"`
	Amount        string     `json:"amount,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	Gateway       string     `json:"gateway,omitempty"`
	NextDueDate   *time.Time `json:"next_due_date,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Key partitions events so that one settlement's events stay ordered
func (e LendingEvent) Key() string {
	if e.SettlementID != "" {
		return "settlement_" + e.SettlementID
	}
	return "application_" + e.ApplicationID
}

// Event types
const (
	EventTypeSettlementCreated   = "settlement.created"
	EventTypeApplicationRejected = "application.rejected"
	EventTypePaymentSucceeded    = "payment.succeeded"
	EventTypeSettlementClosed    = "settlement.closed"
)

// Kafka topics
const (
	TopicLendingEvents = "lending-events"
)
