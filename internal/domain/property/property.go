package property

import (
	"github.com/propshare/backend/internal/domain/shared"
)

// Property is the inventory side of a tokenized real-estate asset. The
// catalog collaborator owns the descriptive fields; this service only ever
// moves AvailableTokens, and only through the repository's conditional
// decrement. No other code path may write it, because the invariant
// 0 <= available_tokens <= total_tokens must hold under concurrent
// settlement across replicated instances.
type Property struct {
	shared.BaseAggregateRoot
	Name            string `gorm:"size:255;not null"`
	TotalTokens     int64  `gorm:"not null"`
	AvailableTokens int64  `gorm:"not null"`
	TokenPrice      int64  `gorm:"not null"`
	Currency        string `gorm:"size:3;not null"`
}

// TableName returns the table name for GORM
func (Property) TableName() string {
	return "properties"
}

// NewProperty lists a property with its full token supply available
func NewProperty(name string, totalTokens, tokenPrice int64, currency string) (*Property, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property name cannot be empty")
	}
	if totalTokens <= 0 {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Total tokens must be positive")
	}
	if tokenPrice <= 0 {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Token price must be positive")
	}
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a 3-letter code")
	}

	return &Property{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		TotalTokens:       totalTokens,
		AvailableTokens:   totalTokens,
		TokenPrice:        tokenPrice,
		Currency:          currency,
	}, nil
}

// CanFulfill reports whether the property currently has enough sellable
// tokens. Advisory only: the authoritative check is the store-level
// conditional decrement at settlement time.
func (p *Property) CanFulfill(tokenAmount int64) bool {
	return tokenAmount > 0 && p.AvailableTokens >= tokenAmount
}

// SoldTokens is the number of tokens held by investors
func (p *Property) SoldTokens() int64 {
	return p.TotalTokens - p.AvailableTokens
}
