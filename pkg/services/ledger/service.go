package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fadedpez/vaultspin/pkg/entities"
	ledgerRepo "github.com/fadedpez/vaultspin/pkg/repositories/ledger"
)

var (
	ErrNonPositiveDelta = errors.New("points delta must be positive")
	ErrNonPositiveCost  = errors.New("points cost must be positive")
)

// DefaultLeaderboardLimit caps leaderboard queries at the top 100
const DefaultLeaderboardLimit = 100

// Service handles monthly points business logic. Every balance lives in a
// (user, month, scope) bucket; scope is "ALL" or a pack key.
type Service struct {
	repo ledgerRepo.Repository
	now  func() time.Time
}

// NewService creates a new ledger service
func NewService(repo ledgerRepo.Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// NewServiceWithClock creates a ledger service with a fixed clock, for tests
// and month-boundary audits
func NewServiceWithClock(repo ledgerRepo.Repository, now func() time.Time) *Service {
	return &Service{repo: repo, now: now}
}

// Credit adds delta points to the user's current-month bucket for the scope
// and returns the new balance
func (s *Service) Credit(ctx context.Context, userID string, delta int64, scope string) (int64, error) {
	if delta <= 0 {
		return 0, ErrNonPositiveDelta
	}

	balance, err := s.repo.Credit(ctx, userID, s.now(), scope, delta)
	if err != nil {
		return 0, fmt.Errorf("error crediting %d points to %s/%s: %w", delta, userID, scope, err)
	}

	log.Printf("[LEDGER] Credited %d points to user %s scope %s (balance now %d)", delta, userID, scope, balance)
	return balance, nil
}

// TrySpend is the pre-flight gate for free opens: it debits cost from the
// current-month bucket only if the balance covers it. Denied spends leave
// the bucket untouched and report the shortfall balance.
func (s *Service) TrySpend(ctx context.Context, userID string, cost int64, scope string) (bool, int64, error) {
	if cost <= 0 {
		return false, 0, ErrNonPositiveCost
	}

	granted, remaining, err := s.repo.TrySpend(ctx, userID, s.now(), scope, cost)
	if err != nil {
		return false, 0, fmt.Errorf("error spending %d points for %s/%s: %w", cost, userID, scope, err)
	}

	if !granted {
		log.Printf("[LEDGER] Denied spend of %d points for user %s scope %s (balance %d)", cost, userID, scope, remaining)
	}
	return granted, remaining, nil
}

// Balance returns the user's current-month balance for the scope; a missing
// bucket reads as zero
func (s *Service) Balance(ctx context.Context, userID string, scope string) (int64, error) {
	entry, err := s.repo.GetEntry(ctx, userID, s.now(), scope)
	if err != nil {
		if errors.Is(err, ledgerRepo.ErrEntryNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("error getting balance for %s/%s: %w", userID, scope, err)
	}
	return entry.Points, nil
}

// Leaderboard returns the top users for the scope and month. A zero month
// means the current month; a non-positive limit uses the default.
func (s *Service) Leaderboard(ctx context.Context, scope string, month time.Time, limit int) ([]*entities.LeaderboardRow, error) {
	if month.IsZero() {
		month = s.now()
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	rows, err := s.repo.Leaderboard(ctx, month, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying leaderboard for %s: %w", scope, err)
	}
	return rows, nil
}
