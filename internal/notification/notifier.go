// Package notification turns lending events into customer and owner messages.
package notification

import (
	"context"
	"fmt"

	"github.com/tair/goldlink/kafka"
	"github.com/tair/goldlink/pkg/logger"
)

// Audience of a notification
const (
	RecipientCustomer = "CUSTOMER"
	RecipientOwner    = "OWNER"
)

// Notification is one message to one user
type Notification struct {
	EventID       string
	EventType     string
	RecipientID   string
	RecipientRole string
	Subject       string
	Body          string
}

// Sink delivers notifications
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the structured log
type LogSink struct{}

func (LogSink) Deliver(ctx context.Context, n Notification) error {
	logger.Info(ctx).
		Str("event_id", n.EventID).
		Str("event_type", n.EventType).
		Str("recipient_id", n.RecipientID).
		Str("recipient_role", n.RecipientRole).
		Str("subject", n.Subject).
		Msg(n.Body)
	return nil
}

// Registrar is satisfied by *kafka.Consumer
type Registrar interface {
	RegisterHandler(eventType string, handler kafka.EventHandler)
}

// Notifier builds messages per event type
type Notifier struct {
	sink Sink
}

// NewNotifier creates a notifier delivering to sink
func NewNotifier(sink Sink) *Notifier {
	return &Notifier{sink: sink}
}

// Register subscribes the notifier to every lending event type
func (n *Notifier) Register(r Registrar) {
	r.RegisterHandler(kafka.EventTypeSettlementCreated, n.Handle)
	r.RegisterHandler(kafka.EventTypeApplicationRejected, n.Handle)
	r.RegisterHandler(kafka.EventTypePaymentSucceeded, n.Handle)
	r.RegisterHandler(kafka.EventTypeSettlementClosed, n.Handle)
}

// Handle delivers every message derived from event and stops at the first failure
func (n *Notifier) Handle(ctx context.Context, event kafka.LendingEvent) error {
	for _, msg := range Build(event) {
		if err := n.sink.Deliver(ctx, msg); err != nil {
			return fmt.Errorf("deliver %s to %s: %w", event.EventType, msg.RecipientID, err)
		}
	}
	return nil
}

// Build returns the notifications for event; unknown types yield none
func Build(event kafka.LendingEvent) []Notification {
	customer := func(subject, body string) Notification {
		return Notification{EventID: event.EventID, EventType: event.EventType, RecipientID: event.CustomerID, RecipientRole: RecipientCustomer, Subject: subject, Body: body}
	}
	owner := func(subject, body string) Notification {
		return Notification{EventID: event.EventID, EventType: event.EventType, RecipientID: event.OwnerID, RecipientRole: RecipientOwner, Subject: subject, Body: body}
	}

	switch event.EventType {
	case kafka.EventTypeSettlementCreated:
		return []Notification{
			customer("Application approved",
				fmt.Sprintf("Your application was approved for %s %s. First interest payment is due %s.",
					event.Amount, event.Currency, dueDate(event))),
		}
	case kafka.EventTypeApplicationRejected:
		body := "Your application was rejected."
		if event.Reason != "" {
			body = fmt.Sprintf("Your application was rejected: %s", event.Reason)
		}
		return []Notification{customer("Application rejected", body)}
	case kafka.EventTypePaymentSucceeded:
		return []Notification{
			customer("Payment received",
				fmt.Sprintf("We received %s %s. Your next payment is due %s.", event.Amount, event.Currency, dueDate(event))),
			owner("Interest collected",
				fmt.Sprintf("Settlement %s received %s %s via %s.", event.SettlementID, event.Amount, event.Currency, event.Gateway)),
		}
	case kafka.EventTypeSettlementClosed:
		return []Notification{
			customer("Settlement closed", fmt.Sprintf("Settlement %s has been closed.", event.SettlementID)),
		}
	default:
		return nil
	}
}

func dueDate(event kafka.LendingEvent) string {
	if event.NextDueDate == nil {
		return "soon"
	}
	return event.NextDueDate.Format("2 Jan 2006")
}
