package entities

import "time"

// OwnedCard represents a durably recorded pack-open outcome
type OwnedCard struct {
	ID       string // storage-assigned identifier
	UserID   string
	TokenID  int64 // local display token, monotonic per user
	PackKey  string
	CardID   string
	CardName string
	ImageRef string
	Rarity   Rarity
	Value    int64 // estimated value in euro cents at open time
	OpenedAt time.Time
}
