package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Role is fixed at account creation
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleOwner    Role = "OWNER"
)

// ErrUserNotFound is returned by repositories when no row matches
var ErrUserNotFound = errors.New("user not found")

// User represents a customer or an owner (jeweler)
type User struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string    `json:"name" gorm:"not null"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone          string    `json:"phone,omitempty"`
	PasswordHash   string    `json:"-" gorm:"not null"`
	Role           Role      `json:"role" gorm:"type:varchar(16);not null;index"`
	CompanyName    string    `json:"companyName,omitempty"`
	CompanyAddress string    `json:"companyAddress,omitempty"`
	CompanyRanks   string    `json:"companyRanks,omitempty"`
	Quality        string    `json:"quality,omitempty"`
	Achievements   string    `json:"achievements,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRepository defines the contract for user data access
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByRole(ctx context.Context, role Role) ([]User, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Count(ctx context.Context) (int64, error)
}
