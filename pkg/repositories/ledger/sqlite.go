package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// SQLite table schemas
const (
	createPointsTableSQL = `
	CREATE TABLE IF NOT EXISTS user_points_monthly (
		user_id TEXT NOT NULL,
		month TEXT NOT NULL,
		scope TEXT NOT NULL,
		points INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, month, scope)
	)`

	createPointsIndexSQL = `
	CREATE INDEX IF NOT EXISTS idx_points_month_scope ON user_points_monthly(month, scope, points DESC)
	`
)

const monthFormat = "2006-01-02"

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite points repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := db.Exec(createPointsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating points table: %w", err)
	}

	if _, err := db.Exec(createPointsIndexSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating points index: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// GetEntry retrieves the points entry for (user, month, scope)
func (r *SQLiteRepository) GetEntry(ctx context.Context, userID string, month time.Time, scope string) (*entities.PointsEntry, error) {
	query := `SELECT user_id, month, scope, points, updated_at FROM user_points_monthly
		WHERE user_id = ? AND month = ? AND scope = ?`

	var entry entities.PointsEntry
	var monthStr, updatedAt string

	err := r.db.QueryRowContext(ctx, query, userID, entities.MonthStart(month).Format(monthFormat), scope).Scan(
		&entry.UserID,
		&monthStr,
		&entry.Scope,
		&entry.Points,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("error getting points entry: %w", err)
	}

	entry.Month, err = time.ParseInLocation(monthFormat, monthStr, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("error parsing month '%s': %w", monthStr, err)
	}
	entry.Updated = parseTimestamp(updatedAt)

	return &entry, nil
}

// Credit adds delta to the bucket, creating it if needed
func (r *SQLiteRepository) Credit(ctx context.Context, userID string, month time.Time, scope string, delta int64) (int64, error) {
	monthStr := entities.MonthStart(month).Format(monthFormat)
	now := time.Now().Format("2006-01-02 15:04:05")

	query := `
		INSERT INTO user_points_monthly (user_id, month, scope, points, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, month, scope) DO UPDATE SET
			points = points + ?,
			updated_at = ?
	`

	_, err := r.db.ExecContext(ctx, query, userID, monthStr, scope, delta, now, delta, now)
	if err != nil {
		return 0, fmt.Errorf("error crediting points: %w", err)
	}

	var balance int64
	err = r.db.QueryRowContext(ctx,
		`SELECT points FROM user_points_monthly WHERE user_id = ? AND month = ? AND scope = ?`,
		userID, monthStr, scope,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("error reading balance after credit: %w", err)
	}

	return balance, nil
}

// TrySpend atomically debits cost if the balance covers it. The gated UPDATE
// makes the balance check and the debit one statement, so the bucket can
// never go negative.
func (r *SQLiteRepository) TrySpend(ctx context.Context, userID string, month time.Time, scope string, cost int64) (bool, int64, error) {
	monthStr := entities.MonthStart(month).Format(monthFormat)
	now := time.Now().Format("2006-01-02 15:04:05")

	query := `
		UPDATE user_points_monthly
		SET points = points - ?,
			updated_at = ?
		WHERE user_id = ? AND month = ? AND scope = ? AND points >= ?
	`

	result, err := r.db.ExecContext(ctx, query, cost, now, userID, monthStr, scope, cost)
	if err != nil {
		return false, 0, fmt.Errorf("error spending points: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("error getting rows affected: %w", err)
	}

	var balance int64
	err = r.db.QueryRowContext(ctx,
		`SELECT points FROM user_points_monthly WHERE user_id = ? AND month = ? AND scope = ?`,
		userID, monthStr, scope,
	).Scan(&balance)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, 0, fmt.Errorf("error reading balance after spend: %w", err)
	}

	return rowsAffected > 0, balance, nil
}

// Leaderboard returns the top entries for (month, scope)
func (r *SQLiteRepository) Leaderboard(ctx context.Context, month time.Time, scope string, limit int) ([]*entities.LeaderboardRow, error) {
	query := `
		SELECT user_id, points
		FROM user_points_monthly
		WHERE month = ? AND scope = ?
		ORDER BY points DESC, user_id ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, entities.MonthStart(month).Format(monthFormat), scope, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying leaderboard: %w", err)
	}
	defer rows.Close()

	var result []*entities.LeaderboardRow
	rank := 0
	for rows.Next() {
		rank++
		row := &entities.LeaderboardRow{Rank: rank}
		if err := rows.Scan(&row.UserID, &row.Points); err != nil {
			return nil, fmt.Errorf("error scanning leaderboard row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %w", err)
	}

	return result, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// parseTimestamp tolerates the formats SQLite may hand back
func parseTimestamp(s string) time.Time {
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		time.RFC3339,
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
