package property

import (
	"context"

	"github.com/google/uuid"
	"github.com/propshare/backend/internal/domain/shared"
)

// PropertyRepository defines the interface for property inventory persistence
type PropertyRepository interface {
	// FindByID finds a property by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Property, error)

	// FindAll lists properties
	FindAll(ctx context.Context, filter shared.Filter) ([]Property, error)

	// Create inserts a new property listing
	Create(ctx context.Context, p *Property) error

	// DeductAvailableTokens atomically decrements available_tokens by
	// tokenAmount, guarded by available_tokens >= tokenAmount in the same
	// statement. Returns shared.ErrInsufficientInventory when the guard
	// fails and shared.ErrNotFound when the property does not exist. This
	// is the only write path for available_tokens.
	DeductAvailableTokens(ctx context.Context, propertyID uuid.UUID, tokenAmount int64) error
}

// ShareRepository defines the interface for investor position persistence
type ShareRepository interface {
	// FindByUserAndProperty finds an investor's position in a property
	FindByUserAndProperty(ctx context.Context, userID, propertyID uuid.UUID) (*Share, error)

	// FindAllForUser lists an investor's positions
	FindAllForUser(ctx context.Context, userID uuid.UUID) ([]Share, error)

	// AddToPosition upserts the (userID, propertyID) position, incrementing
	// tokens_owned by tokenAmount and cost_basis by costBasis in a single
	// conflict-safe statement. Returns the resulting position.
	AddToPosition(ctx context.Context, userID, propertyID uuid.UUID, tokenAmount, costBasis int64) (*Share, error)
}
