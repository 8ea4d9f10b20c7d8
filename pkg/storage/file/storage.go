package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fadedpez/vaultspin/pkg/entities"
	"github.com/fadedpez/vaultspin/pkg/storage"
)

// Storage implements file-based storage for the open-history journal
type Storage struct {
	path    string
	mu      sync.RWMutex
	opens   map[string][]*entities.OwnedCard // userID -> opens, newest first
	options *storage.Options
}

// New creates a new file storage instance
func New(options *storage.Options) (*Storage, error) {
	if options == nil {
		options = storage.NewOptions()
	}

	s := &Storage{
		path:    options.Path,
		opens:   make(map[string][]*entities.OwnedCard),
		options: options,
	}

	// Load existing history from file
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load open history: %w", err)
	}

	// Start cleanup goroutine if enabled
	if options.AutoCleanup {
		go s.cleanupRoutine()
	}

	return s, nil
}

// Append records one completed open
func (s *Storage) Append(ctx context.Context, record *entities.OwnedCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	if recordCopy.OpenedAt.IsZero() {
		recordCopy.OpenedAt = time.Now()
	}

	s.opens[record.UserID] = append([]*entities.OwnedCard{&recordCopy}, s.opens[record.UserID]...)

	return s.save()
}

// Recent returns the user's most recent opens, newest first
func (s *Storage) Recent(ctx context.Context, userID string, limit int) ([]*entities.OwnedCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	opens, ok := s.opens[userID]
	if !ok {
		return nil, storage.ErrNoHistory
	}

	if limit > 0 && len(opens) > limit {
		opens = opens[:limit]
	}

	result := make([]*entities.OwnedCard, 0, len(opens))
	for _, open := range opens {
		openCopy := *open
		result = append(result, &openCopy)
	}
	return result, nil
}

// CleanupOld removes opens older than maxAge
func (s *Storage) CleanupOld(ctx context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for userID, opens := range s.opens {
		kept := opens[:0]
		for _, open := range opens {
			if now.Sub(open.OpenedAt) <= maxAge {
				kept = append(kept, open)
			}
		}
		if len(kept) == 0 {
			delete(s.opens, userID)
		} else {
			s.opens[userID] = kept
		}
	}

	return s.save()
}

// Helper functions

func (s *Storage) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, &s.opens)
}

func (s *Storage) save() error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(s.opens)
	if err != nil {
		return fmt.Errorf("failed to marshal open history: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (s *Storage) cleanupRoutine() {
	ticker := time.NewTicker(s.options.MaxAge / 4)
	defer ticker.Stop()

	for range ticker.C {
		if err := s.CleanupOld(context.Background(), s.options.MaxAge); err != nil {
			fmt.Printf("Error cleaning up open history: %v\n", err)
		}
	}
}
