package identity

import (
	"time"

	"github.com/google/uuid"
)

// RegisterInput contains the input for investor registration
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// LoginInput contains the input for investor login
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult contains the result of a successful registration or login
type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	TokenType   string
	Investor    InvestorInfo
}

// InvestorInfo contains basic account information returned to the client
type InvestorInfo struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

// LogoutInput contains the input for investor logout
type LogoutInput struct {
	TokenJTI string
	TokenTTL time.Duration
}
