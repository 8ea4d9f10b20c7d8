package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// SQLite table schemas
const (
	createOwnedCardsTableSQL = `
	CREATE TABLE IF NOT EXISTS owned_cards (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		token_id INTEGER NOT NULL,
		pack_key TEXT NOT NULL,
		card_id TEXT NOT NULL,
		card_name TEXT,
		image_ref TEXT,
		rarity TEXT NOT NULL,
		value INTEGER NOT NULL DEFAULT 0,
		opened_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

	createTokenCountersTableSQL = `
	CREATE TABLE IF NOT EXISTS token_counters (
		user_id TEXT PRIMARY KEY,
		next_token INTEGER NOT NULL DEFAULT 1
	)`

	createOwnedCardsIndexSQL = `
	CREATE INDEX IF NOT EXISTS idx_owned_cards_user ON owned_cards(user_id, opened_at DESC)
	`
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite collection repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	for _, stmt := range []string{createOwnedCardsTableSQL, createTokenCountersTableSQL, createOwnedCardsIndexSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("error creating collection schema: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// NextToken consumes and returns the user's next display token. The counter
// advances inside one transaction so a token is never handed out twice.
func (r *SQLiteRepository) NextToken(ctx context.Context, userID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting token transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	err = tx.QueryRowContext(ctx, `SELECT next_token FROM token_counters WHERE user_id = ?`, userID).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		next = 1
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO token_counters (user_id, next_token) VALUES (?, 2)`, userID); err != nil {
			return 0, fmt.Errorf("error initializing token counter: %w", err)
		}
	} else if err != nil {
		return 0, fmt.Errorf("error reading token counter: %w", err)
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE token_counters SET next_token = next_token + 1 WHERE user_id = ?`, userID); err != nil {
			return 0, fmt.Errorf("error advancing token counter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing token counter: %w", err)
	}

	return next, nil
}

// SaveOwnedCard records a pack-open outcome
func (r *SQLiteRepository) SaveOwnedCard(ctx context.Context, card *entities.OwnedCard) (string, error) {
	id := card.ID
	if id == "" {
		id = uuid.New().String()
	}
	openedAt := card.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now()
	}

	query := `
		INSERT INTO owned_cards (
			id, user_id, token_id, pack_key, card_id, card_name, image_ref, rarity, value, opened_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		id,
		card.UserID,
		card.TokenID,
		card.PackKey,
		card.CardID,
		card.CardName,
		card.ImageRef,
		card.Rarity,
		card.Value,
		openedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return "", fmt.Errorf("error saving owned card: %w", err)
	}

	return id, nil
}

// ListOwned retrieves the user's most recent ownership records
func (r *SQLiteRepository) ListOwned(ctx context.Context, userID string, limit int) ([]*entities.OwnedCard, error) {
	query := `
		SELECT id, user_id, token_id, pack_key, card_id, card_name, image_ref, rarity, value, opened_at
		FROM owned_cards
		WHERE user_id = ?
		ORDER BY opened_at DESC, token_id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying owned cards: %w", err)
	}
	defer rows.Close()

	var records []*entities.OwnedCard
	for rows.Next() {
		var rec entities.OwnedCard
		var openedAt string

		err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.TokenID,
			&rec.PackKey,
			&rec.CardID,
			&rec.CardName,
			&rec.ImageRef,
			&rec.Rarity,
			&rec.Value,
			&openedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning owned card row: %w", err)
		}

		rec.OpenedAt = parseTimestamp(openedAt)
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owned card rows: %w", err)
	}

	return records, nil
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
