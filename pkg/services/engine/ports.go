package engine

import (
	"context"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// DrawResolver resolves a winning card from a pack. The local resolver
// satisfies this; the remote-authority path bypasses it for the winning
// draw but still uses PickCard for reel decoys.
type DrawResolver interface {
	Resolve(pack *entities.Pack, mode entities.OpenMode) (*entities.DrawResult, error)
	PickCard(pack *entities.Pack) (*entities.Card, error)
}

// PointsLedger is the engine's view of the monthly points service
type PointsLedger interface {
	Credit(ctx context.Context, userID string, delta int64, scope string) (int64, error)
	TrySpend(ctx context.Context, userID string, cost int64, scope string) (bool, int64, error)
}

// CardStore is the engine's view of ownership storage
type CardStore interface {
	NextToken(ctx context.Context, userID string) (int64, error)
	SaveOwnedCard(ctx context.Context, card *entities.OwnedCard) (string, error)
}

// HistoryLog records opens locally for display purposes. Optional; append
// failures are logged, never surfaced.
type HistoryLog interface {
	Append(ctx context.Context, record *entities.OwnedCard) error
}

// Severity classifies a status update for UI binding
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityPending Severity = "pending"
	SeverityError   Severity = "error"
)

// Status is one user-facing status transition
type Status struct {
	Text     string
	Severity Severity
}

// StatusFunc receives status transitions as the engine moves through an open
type StatusFunc func(Status)
