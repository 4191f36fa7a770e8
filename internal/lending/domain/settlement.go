package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/goldlink/pkg/apperror"
)

// BillingPeriod is the fixed interval between interest due dates
const BillingPeriod = 30 * 24 * time.Hour

// CurrencyINR is the only settlement currency
const CurrencyINR = "INR"

// Monthly rate bounds in percent, both inclusive
var (
	MinMonthlyRatePct = decimal.RequireFromString("0.5")
	MaxMonthlyRatePct = decimal.RequireFromString("5.0")
)

// Stored precision of principal (numeric(18,2)) and rate (numeric(6,3))
const (
	PrincipalScale = 2
	RateScale      = 3
)

// PrincipalLimit is the first principal that no longer fits numeric(18,2)
var PrincipalLimit = decimal.New(1, 16)

// SettlementStatus values
type SettlementStatus string

const (
	SettlementActive SettlementStatus = "ACTIVE"
	SettlementClosed SettlementStatus = "CLOSED"
)

// Settlement is the loan created once per approved application.
// Principal and rate never change after creation.
type Settlement struct {
	ID              string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ApplicationID   string           `json:"applicationId" gorm:"type:varchar(36);not null;uniqueIndex"`
	CustomerID      string           `json:"customerId" gorm:"type:varchar(36);not null;index"`
	OwnerID         string           `json:"ownerId" gorm:"type:varchar(36);not null;index"`
	PrincipalAmount decimal.Decimal  `json:"principalAmount" gorm:"type:numeric(18,2);not null"`
	MonthlyRatePct  decimal.Decimal  `json:"interestRateMonthlyPct" gorm:"type:numeric(6,3);not null"`
	NextDueDate     time.Time        `json:"nextDueDate" gorm:"not null"`
	Status          SettlementStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	ClosedAt        *time.Time       `json:"closedAt,omitempty"`
	Version         int64            `json:"-" gorm:"not null;default:1"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`

	Payments []Payment `json:"payments,omitempty" gorm:"foreignKey:SettlementID"`
}

// TableName specifies the table name
func (Settlement) TableName() string {
	return "settlements"
}

// InterestDue is one month's obligation
type InterestDue struct {
	// Exact is principal * rate / 100 without rounding
	Exact decimal.Decimal `json:"exact"`
	// Rounded is Exact rounded half-up to paise
	Rounded decimal.Decimal `json:"rounded"`
	// Minor is Rounded in paise, as submitted to the gateway
	Minor int64 `json:"minor"`
}

// ValidateTerms checks principal and monthly rate at approval
func ValidateTerms(principal, monthlyRatePct decimal.Decimal) error {
	if !principal.IsPositive() {
		return apperror.Validation("principalAmount must be greater than 0")
	}
	if principal.GreaterThanOrEqual(PrincipalLimit) {
		return apperror.Validation("principalAmount is too large")
	}
	if !principal.Equal(principal.Truncate(PrincipalScale)) {
		return apperror.Validation("principalAmount must have at most 2 decimal places")
	}
	if monthlyRatePct.LessThan(MinMonthlyRatePct) || monthlyRatePct.GreaterThan(MaxMonthlyRatePct) {
		return apperror.Validation("interestRateMonthlyPct must be between 0.5 and 5.0")
	}
	if !monthlyRatePct.Equal(monthlyRatePct.Truncate(RateScale)) {
		return apperror.Validation("interestRateMonthlyPct must have at most 3 decimal places")
	}
	return nil
}

// NewSettlement opens an ACTIVE settlement for an approved application
func NewSettlement(id string, app *Application, principal, monthlyRatePct decimal.Decimal, now time.Time) *Settlement {
	return &Settlement{
		ID:              id,
		ApplicationID:   app.ID,
		CustomerID:      app.CustomerID,
		OwnerID:         app.OwnerID,
		PrincipalAmount: principal,
		MonthlyRatePct:  monthlyRatePct,
		NextDueDate:     now.Add(BillingPeriod),
		Status:          SettlementActive,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// MonthlyInterestDue computes principal * rate / 100
func (s *Settlement) MonthlyInterestDue() InterestDue {
	exact := s.PrincipalAmount.Mul(s.MonthlyRatePct).Div(decimal.NewFromInt(100))
	// Round is half away from zero, which is half-up for positive amounts
	rounded := exact.Round(2)
	return InterestDue{
		Exact:   exact,
		Rounded: rounded,
		Minor:   rounded.Shift(2).IntPart(),
	}
}

// IsOverdue reports now > nextDueDate
func (s *Settlement) IsOverdue(now time.Time) bool {
	return now.After(s.NextDueDate)
}

func (s *Settlement) IsActive() bool {
	return s.Status == SettlementActive
}

// NextDueAfterPayment is the due date one billing period after the current one,
// or after now when no due date is set
func (s *Settlement) NextDueAfterPayment(now time.Time) time.Time {
	base := s.NextDueDate
	if base.IsZero() {
		base = now
	}
	return base.Add(BillingPeriod)
}

// AdvanceDueDate moves the due date forward one billing period.
// Only payment reconciliation calls this.
func (s *Settlement) AdvanceDueDate(now time.Time) error {
	if !s.IsActive() {
		return apperror.Conflict("settlement is closed")
	}
	s.NextDueDate = s.NextDueAfterPayment(now)
	s.UpdatedAt = now
	return nil
}

// Close is the terminal transition
func (s *Settlement) Close(now time.Time) error {
	if !s.IsActive() {
		return apperror.Conflict("settlement is already closed")
	}
	s.Status = SettlementClosed
	s.ClosedAt = &now
	s.UpdatedAt = now
	return nil
}

// IsParty reports whether userID is the customer or owner of the settlement
func (s *Settlement) IsParty(userID string) bool {
	return s.CustomerID == userID || s.OwnerID == userID
}
