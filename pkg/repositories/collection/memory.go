package collection

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	records map[string][]*entities.OwnedCard
	tokens  map[string]int64
	mu      sync.Mutex
}

// NewMemoryRepository creates a new in-memory collection repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[string][]*entities.OwnedCard),
		tokens:  make(map[string]int64),
	}
}

// NextToken consumes and returns the user's next display token
func (r *MemoryRepository) NextToken(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[userID]++
	return r.tokens[userID], nil
}

// SaveOwnedCard records a pack-open outcome
func (r *MemoryRepository) SaveOwnedCard(ctx context.Context, card *entities.OwnedCard) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cardCopy := *card
	if cardCopy.ID == "" {
		cardCopy.ID = uuid.New().String()
	}
	if cardCopy.OpenedAt.IsZero() {
		cardCopy.OpenedAt = time.Now()
	}

	// newest first, matching list order
	r.records[card.UserID] = append([]*entities.OwnedCard{&cardCopy}, r.records[card.UserID]...)

	return cardCopy.ID, nil
}

// ListOwned retrieves the user's most recent ownership records
func (r *MemoryRepository) ListOwned(ctx context.Context, userID string, limit int) ([]*entities.OwnedCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.records[userID]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	result := make([]*entities.OwnedCard, 0, len(records))
	for _, rec := range records {
		recCopy := *rec
		result = append(result, &recCopy)
	}
	return result, nil
}

// Close releases any underlying resources
func (r *MemoryRepository) Close() error {
	return nil
}
