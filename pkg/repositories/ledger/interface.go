package ledger

import (
	"context"
	"time"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// Repository defines the interface for monthly points data operations
type Repository interface {
	// GetEntry retrieves the points entry for (user, month, scope)
	GetEntry(ctx context.Context, userID string, month time.Time, scope string) (*entities.PointsEntry, error)

	// Credit adds delta to the (user, month, scope) bucket, creating it at
	// zero first if needed, and returns the new balance
	Credit(ctx context.Context, userID string, month time.Time, scope string, delta int64) (int64, error)

	// TrySpend atomically debits cost from the bucket if the balance covers
	// it. It reports whether the debit was granted and the balance after
	// the call; a denied spend mutates nothing.
	TrySpend(ctx context.Context, userID string, month time.Time, scope string, cost int64) (bool, int64, error)

	// Leaderboard returns the top entries for (month, scope) ordered by
	// points descending
	Leaderboard(ctx context.Context, month time.Time, scope string, limit int) ([]*entities.LeaderboardRow, error)

	// Close releases any underlying resources
	Close() error
}
