package query

import (
	"context"
	"errors"
	"time"

	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/pkg/apperror"
)

// GetSettlementQuery loads one settlement for one of its parties
type GetSettlementQuery struct {
	SettlementID string
	UserID       string
}

// GetSettlementHandler handles get settlement query
type GetSettlementHandler struct {
	settlements domain.SettlementRepository
	payments    domain.PaymentRepository
	now         func() time.Time
}

// NewGetSettlementHandler creates a new get settlement handler
func NewGetSettlementHandler(settlements domain.SettlementRepository, payments domain.PaymentRepository) *GetSettlementHandler {
	return &GetSettlementHandler{settlements: settlements, payments: payments, now: time.Now}
}

// Handle returns the settlement with its payments newest first
func (h *GetSettlementHandler) Handle(ctx context.Context, q GetSettlementQuery) (*SettlementView, error) {
	s, err := h.settlements.FindByID(ctx, q.SettlementID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("settlement not found")
		}
		return nil, apperror.Internal("failed to load settlement", err)
	}
	if !s.IsParty(q.UserID) {
		return nil, apperror.Authorization("not a party to this settlement")
	}

	payments, err := h.payments.ListBySettlement(ctx, s.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load payments", err)
	}
	s.Payments = payments

	view := newSettlementView(s, h.now())
	return &view, nil
}
