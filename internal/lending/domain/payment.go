package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus values. A payment moves PENDING -> SUCCESS at most once.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
)

// Gateway names stored on payments
const (
	GatewayMock     = "MOCK"
	GatewayRazorpay = "RAZORPAY"
)

// Payment is one attempt to pay a month's interest. Amount is fixed at creation.
type Payment struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SettlementID     string          `json:"settlementId" gorm:"type:varchar(36);not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(18,2);not null"`
	Currency         string          `json:"currency" gorm:"type:varchar(3);not null"`
	Gateway          string          `json:"gateway" gorm:"type:varchar(16);not null"`
	GatewayOrderID   *string         `json:"gatewayOrderId,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	GatewayPaymentID *string         `json:"gatewayPaymentId,omitempty" gorm:"type:varchar(64)"`
	Status           PaymentStatus   `json:"status" gorm:"type:varchar(16);not null;index"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	ReceiptRef       *string         `json:"receiptRef,omitempty" gorm:"type:varchar(64)"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// TableName specifies the table name
func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) IsSettled() bool {
	return p.Status == PaymentSuccess
}

// Confirmation is the gateway evidence applied to a pending payment
type Confirmation struct {
	GatewayPaymentID string
	ReceiptRef       string
	PaidAt           time.Time
}
