package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/propshare/backend/internal/domain/shared"
)

// InvestorStatus represents the status of an investor account
type InvestorStatus string

const (
	InvestorStatusActive      InvestorStatus = "active"
	InvestorStatusSuspended   InvestorStatus = "suspended"
	InvestorStatusDeactivated InvestorStatus = "deactivated"
)

// Password cost for bcrypt
const bcryptCost = 12

// Investor is an account that can fund intents and hold property shares.
// KYC state is owned by a separate collaborator; this aggregate only
// carries what payment flows need.
type Investor struct {
	shared.BaseAggregateRoot
	Email        string         `gorm:"size:200;not null;uniqueIndex"`
	PasswordHash string         `gorm:"size:100;not null"`
	DisplayName  string         `gorm:"size:200"`
	Status       InvestorStatus `gorm:"size:16;not null"`
	LastLoginAt  *time.Time     `gorm:""`
}

// TableName returns the table name for GORM
func (Investor) TableName() string {
	return "investors"
}

// NewInvestor creates an active investor account
func NewInvestor(email, password, displayName string) (*Investor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &Investor{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      passwordHash,
		DisplayName:       strings.TrimSpace(displayName),
		Status:            InvestorStatusActive,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (i *Investor) VerifyPassword(password string) bool {
	return verifyPassword(i.PasswordHash, password)
}

// RecordLoginSuccess records a successful login
func (i *Investor) RecordLoginSuccess() {
	now := time.Now()
	i.LastLoginAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()
}

// CanLogin returns true if the account may authenticate
func (i *Investor) CanLogin() bool {
	return i.Status == InvestorStatusActive
}

// Suspend blocks the account from logging in
func (i *Investor) Suspend() error {
	if i.Status != InvestorStatusActive {
		return shared.ErrInvalidState
	}
	i.Status = InvestorStatusSuspended
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// Validation functions

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}
	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasNumber {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}
