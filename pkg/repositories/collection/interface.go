package collection

import (
	"context"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// Repository defines the interface for card ownership data operations
type Repository interface {
	// NextToken consumes and returns the user's next display token. Tokens
	// are monotonic from 1 and never reused, even when the save that
	// follows them fails.
	NextToken(ctx context.Context, userID string) (int64, error)

	// SaveOwnedCard durably records a pack-open outcome and returns the
	// storage-assigned record ID
	SaveOwnedCard(ctx context.Context, card *entities.OwnedCard) (string, error)

	// ListOwned retrieves the user's most recent ownership records
	ListOwned(ctx context.Context, userID string, limit int) ([]*entities.OwnedCard, error)

	// Close releases any underlying resources
	Close() error
}
