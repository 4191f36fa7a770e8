// Package audit keeps the append-only trail of state-changing actions.
//
// Each action has its own metadata type, so the shape of an entry's payload is
// known statically. At the storage boundary the payload becomes an opaque JSON
// document.
package audit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action tags an audit entry
type Action string

const (
	ActionCreateApplication  Action = "CREATE_APPLICATION"
	ActionApproveApplication Action = "APPROVE_APPLICATION"
	ActionRejectApplication  Action = "REJECT_APPLICATION"
	ActionPaymentSuccess     Action = "PAYMENT_SUCCESS"
	ActionCloseSettlement    Action = "CLOSE_SETTLEMENT"
	ActionBootstrapOwner     Action = "BOOTSTRAP_OWNER"
)

// Entity types referenced by entries
const (
	EntityApplication = "Application"
	EntitySettlement  = "Settlement"
	EntityPayment     = "Payment"
	EntityUser        = "User"
)

// Metadata is implemented by one struct per Action
type Metadata interface {
	Action() Action
}

type CreateApplicationMeta struct {
	OwnerID     string  `json:"ownerId"`
	Karat       string  `json:"karat"`
	WeightGrams float64 `json:"weightGrams"`
	PhotoCount  int     `json:"photoCount"`
}

func (CreateApplicationMeta) Action() Action { return ActionCreateApplication }

type ApproveApplicationMeta struct {
	SettlementID           string          `json:"settlementId"`
	PrincipalAmount        decimal.Decimal `json:"principalAmount"`
	InterestRateMonthlyPct decimal.Decimal `json:"interestRateMonthlyPct"`
	NextDueDate            time.Time       `json:"nextDueDate"`
}

func (ApproveApplicationMeta) Action() Action { return ActionApproveApplication }

type RejectApplicationMeta struct {
	Reason string `json:"reason,omitempty"`
}

func (RejectApplicationMeta) Action() Action { return ActionRejectApplication }

type PaymentSuccessMeta struct {
	SettlementID     string          `json:"settlementId"`
	Amount           decimal.Decimal `json:"amount"`
	Gateway          string          `json:"gateway"`
	GatewayPaymentID string          `json:"gatewayPaymentId"`
	OrderID          string          `json:"orderId,omitempty"`
	NextDueDate      time.Time       `json:"nextDueDate"`
}

func (PaymentSuccessMeta) Action() Action { return ActionPaymentSuccess }

type CloseSettlementMeta struct {
	ClosedAt time.Time `json:"closedAt"`
}

func (CloseSettlementMeta) Action() Action { return ActionCloseSettlement }

type BootstrapOwnerMeta struct {
	Email    string `json:"email"`
	Operator string `json:"operator,omitempty"`
}

func (BootstrapOwnerMeta) Action() Action { return ActionBootstrapOwner }

// Entry is one immutable audit record
type Entry struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ActorUserID string    `json:"actorUserId" gorm:"type:varchar(36);not null;index"`
	Action      Action    `json:"action" gorm:"type:varchar(64);not null;index"`
	EntityType  string    `json:"entityType" gorm:"type:varchar(32);not null;index:idx_audit_entity"`
	EntityID    string    `json:"entityId" gorm:"type:varchar(36);not null;index:idx_audit_entity"`
	Meta        string    `json:"meta" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName specifies the table name
func (Entry) TableName() string {
	return "audit_logs"
}
