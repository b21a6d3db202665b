package identity

import (
	"context"

	"github.com/google/uuid"
)

// InvestorRepository defines the interface for investor account persistence
type InvestorRepository interface {
	// FindByID finds an investor by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Investor, error)

	// FindByEmail finds an investor by email (lowercased)
	FindByEmail(ctx context.Context, email string) (*Investor, error)

	// Create inserts a new investor account
	Create(ctx context.Context, investor *Investor) error

	// Save updates an investor account
	Save(ctx context.Context, investor *Investor) error
}
