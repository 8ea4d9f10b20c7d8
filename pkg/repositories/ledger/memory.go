package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

var (
	ErrEntryNotFound = errors.New("points entry not found")
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	entries map[string]*entities.PointsEntry
	mu      sync.RWMutex
}

// NewMemoryRepository creates a new in-memory points repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]*entities.PointsEntry),
	}
}

func bucketKey(userID string, month time.Time, scope string) string {
	return fmt.Sprintf("%s|%s|%s", userID, entities.MonthStart(month).Format("2006-01-02"), scope)
}

// GetEntry retrieves the points entry for (user, month, scope)
func (r *MemoryRepository) GetEntry(ctx context.Context, userID string, month time.Time, scope string) (*entities.PointsEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[bucketKey(userID, month, scope)]
	if !exists {
		return nil, ErrEntryNotFound
	}

	// Return a copy to prevent concurrent modification
	entryCopy := *entry
	return &entryCopy, nil
}

// Credit adds delta to the bucket, creating it if needed
func (r *MemoryRepository) Credit(ctx context.Context, userID string, month time.Time, scope string, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := bucketKey(userID, month, scope)
	entry, exists := r.entries[key]
	if !exists {
		entry = &entities.PointsEntry{
			UserID: userID,
			Month:  entities.MonthStart(month),
			Scope:  scope,
		}
		r.entries[key] = entry
	}

	entry.Points += delta
	entry.Updated = time.Now()
	return entry.Points, nil
}

// TrySpend atomically debits cost if the balance covers it
func (r *MemoryRepository) TrySpend(ctx context.Context, userID string, month time.Time, scope string, cost int64) (bool, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[bucketKey(userID, month, scope)]
	if !exists || entry.Points < cost {
		var remaining int64
		if exists {
			remaining = entry.Points
		}
		return false, remaining, nil
	}

	entry.Points -= cost
	entry.Updated = time.Now()
	return true, entry.Points, nil
}

// Leaderboard returns the top entries for (month, scope)
func (r *MemoryRepository) Leaderboard(ctx context.Context, month time.Time, scope string, limit int) ([]*entities.LeaderboardRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	monthStart := entities.MonthStart(month)

	var rows []*entities.LeaderboardRow
	for _, entry := range r.entries {
		if entry.Scope != scope || !entry.Month.Equal(monthStart) {
			continue
		}
		rows = append(rows, &entities.LeaderboardRow{
			UserID: entry.UserID,
			Points: entry.Points,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].UserID < rows[j].UserID
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for i, row := range rows {
		row.Rank = i + 1
	}

	return rows, nil
}

// Close releases any underlying resources
func (r *MemoryRepository) Close() error {
	return nil
}
