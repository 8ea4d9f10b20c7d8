package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/fadedpez/vaultspin/pkg/repositories/collection"
	"github.com/fadedpez/vaultspin/pkg/storage"
)

// MaintenanceScheduler runs the background housekeeping the open-history
// pipeline needs: pruning expired archive indices and trimming the local
// history journal.
type MaintenanceScheduler struct {
	scheduler  *Scheduler
	archive    *collection.ElasticsearchRepository
	history    storage.Store
	historyAge time.Duration
}

// MaintenanceOption configures the scheduler
type MaintenanceOption func(*MaintenanceScheduler)

// WithArchive enables archive index pruning
func WithArchive(archive *collection.ElasticsearchRepository) MaintenanceOption {
	return func(m *MaintenanceScheduler) {
		m.archive = archive
	}
}

// WithHistory enables local history trimming at the given retention
func WithHistory(history storage.Store, maxAge time.Duration) MaintenanceOption {
	return func(m *MaintenanceScheduler) {
		m.history = history
		m.historyAge = maxAge
	}
}

// NewMaintenanceScheduler creates a maintenance scheduler for the configured
// targets. A scheduler with no targets is valid and does nothing.
func NewMaintenanceScheduler(opts ...MaintenanceOption) *MaintenanceScheduler {
	m := &MaintenanceScheduler{
		scheduler:  NewScheduler(),
		historyAge: 30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start registers and starts the maintenance tasks
func (m *MaintenanceScheduler) Start(ctx context.Context) {
	if m.archive != nil {
		// weekly is plenty; indices rotate monthly
		m.scheduler.AddTask("archive_index_pruning", 7*24*time.Hour, m.pruneArchive)
	}
	if m.history != nil {
		m.scheduler.AddTask("history_trimming", 24*time.Hour, m.trimHistory)
	}

	m.scheduler.Start(ctx)
	log.Println("[SCHEDULER] Maintenance scheduler started")
}

// Stop stops the maintenance scheduler
func (m *MaintenanceScheduler) Stop() {
	m.scheduler.Stop()
	log.Println("[SCHEDULER] Maintenance scheduler stopped")
}

// pruneArchive deletes archive indices past their retention period
func (m *MaintenanceScheduler) pruneArchive(ctx context.Context) error {
	return m.archive.PruneExpiredIndices(ctx)
}

// trimHistory drops journal entries older than the retention period
func (m *MaintenanceScheduler) trimHistory(ctx context.Context) error {
	return m.history.CleanupOld(ctx, m.historyAge)
}
