package ledger

import (
	"context"
	"time"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_ledger_service
type LedgerService interface {
	Credit(ctx context.Context, userID string, delta int64, scope string) (int64, error)
	TrySpend(ctx context.Context, userID string, cost int64, scope string) (bool, int64, error)
	Balance(ctx context.Context, userID string, scope string) (int64, error)
	Leaderboard(ctx context.Context, scope string, month time.Time, limit int) ([]*entities.LeaderboardRow, error)
}
