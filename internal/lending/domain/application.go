package domain

import (
	"net/url"
	"strings"
	"time"

	userdomain "github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
)

// Karat is the purity grade of pledged gold
type Karat string

const (
	Karat22 Karat = "22K"
	Karat24 Karat = "24K"
)

// Valid reports whether k is a supported grade
func (k Karat) Valid() bool {
	return k == Karat22 || k == Karat24
}

// ApplicationStatus values. PENDING is the only non-terminal state.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

// Application is a customer's pledge request addressed to one owner
type Application struct {
	ID              string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID      string            `json:"customerId" gorm:"type:varchar(36);not null;index"`
	OwnerID         string            `json:"ownerId" gorm:"type:varchar(36);not null;index"`
	Karat           Karat             `json:"karat" gorm:"type:varchar(8);not null"`
	WeightGrams     float64           `json:"weightGrams" gorm:"not null"`
	Photos          []string          `json:"photos" gorm:"serializer:json;type:text;not null"`
	Notes           string            `json:"notes,omitempty"`
	Status          ApplicationStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	DecidedAt       *time.Time        `json:"decidedAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`

	Customer   *userdomain.User `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Owner      *userdomain.User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Settlement *Settlement      `json:"settlement,omitempty" gorm:"foreignKey:ApplicationID"`
}

// TableName specifies the table name
func (Application) TableName() string {
	return "applications"
}

// IsPending reports whether a decision can still be taken
func (a *Application) IsPending() bool {
	return a.Status == ApplicationPending
}

// ValidateSubmission checks the customer-supplied fields of a new application
func ValidateSubmission(ownerID string, karat Karat, weightGrams float64, photos []string) error {
	if strings.TrimSpace(ownerID) == "" {
		return apperror.Validation("ownerId is required")
	}
	if !karat.Valid() {
		return apperror.Validation("karat must be 22K or 24K")
	}
	if !(weightGrams > 0) {
		return apperror.Validation("weightGrams must be greater than 0")
	}
	if len(photos) == 0 {
		return apperror.Validation("at least one photo is required")
	}
	for _, p := range photos {
		if !isWellFormedURL(p) {
			return apperror.Validation("photos must be absolute http(s) URLs")
		}
	}
	return nil
}

func isWellFormedURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// CheckDecision enforces that actingOwnerID may decide a pending application
func (a *Application) CheckDecision(actingOwnerID string) error {
	if a.OwnerID != actingOwnerID {
		return apperror.Authorization("application is addressed to another owner")
	}
	if !a.IsPending() {
		return apperror.Conflict("application is already " + string(a.Status))
	}
	return nil
}
