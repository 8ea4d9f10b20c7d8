package storage

import (
	"context"
	"errors"
	"time"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// Common storage errors
var (
	ErrNoHistory = errors.New("no open history for user")
)

// Store defines the interface for the local open-history journal. It backs
// the recent-opens display and is strictly supplementary to the collection
// repository: losing it loses no ownership.
type Store interface {
	// Append records one completed open
	Append(ctx context.Context, record *entities.OwnedCard) error

	// Recent returns the user's most recent opens, newest first
	Recent(ctx context.Context, userID string, limit int) ([]*entities.OwnedCard, error)

	// CleanupOld removes opens older than maxAge
	CleanupOld(ctx context.Context, maxAge time.Duration) error
}

// Options represents history storage configuration options
type Options struct {
	Path        string
	MaxAge      time.Duration
	AutoCleanup bool
}

// NewOptions creates a new Options with default values
func NewOptions() *Options {
	return &Options{
		Path:        "history.json",
		MaxAge:      30 * 24 * time.Hour,
		AutoCleanup: true,
	}
}
