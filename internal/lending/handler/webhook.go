package handler

import (
	"io"
	"net/http"

	"github.com/tair/goldlink/internal/lending/gateway"
	"github.com/tair/goldlink/internal/lending/usecase/command"
	"github.com/tair/goldlink/pkg/logger"
)

// maxWebhookBody caps the signed body read into memory
const maxWebhookBody = 1 << 20

// Webhook handles POST /payments/webhook.
// Once the signature checks out the gateway always gets 200 unless
// reconciliation failed in a way a redelivery could fix.
func (h *LendingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.webhookSecret == "" {
		logger.Error(ctx).Msg("Webhook received but no webhook secret is configured")
		h.metrics.webhook("unconfigured")
		h.respondJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "Webhook not configured"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, Response{Success: false, Error: "Invalid request body"})
		return
	}

	if err := gateway.VerifySignature(h.webhookSecret, body, r.Header.Get(gateway.SignatureHeader)); err != nil {
		logger.Warn(ctx).Err(err).Str("remote_addr", r.RemoteAddr).Msg("Rejected webhook")
		h.metrics.webhook("bad_signature")
		h.respondJSON(w, http.StatusUnauthorized, Response{Success: false, Error: "Invalid signature"})
		return
	}

	event, err := gateway.ParseWebhook(body)
	if err != nil {
		logger.Warn(ctx).Err(err).Msg("Signed webhook body could not be parsed")
		h.metrics.webhook("malformed")
		h.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]bool{"received": true}})
		return
	}

	entity := event.Payload.Payment.Entity
	outcome, err := h.confirmHandler.Handle(ctx, command.ConfirmPaymentCommand{
		Event:            event.Event,
		GatewayPaymentID: entity.ID,
		OrderID:          entity.OrderID,
		AmountMinor:      entity.Amount,
		Receipt:          entity.Receipt,
	})
	if err != nil {
		h.metrics.webhook("error")
		h.respondError(w, r, err)
		return
	}

	h.metrics.webhook(string(outcome))
	h.respondJSON(w, http.StatusOK, Response{Success: true, Data: map[string]bool{"received": true}})
}
