package entities

import "time"

// ScopeAll is the global points scope; every other scope is a pack key
const ScopeAll = "ALL"

// PointsEntry represents a monthly points balance for one (user, scope) pair
type PointsEntry struct {
	UserID  string
	Month   time.Time // first of month, UTC
	Scope   string
	Points  int64
	Updated time.Time
}

// LeaderboardRow is one entry of a monthly leaderboard query
type LeaderboardRow struct {
	Rank   int
	UserID string
	Points int64
}

// MonthStart normalizes a time to the first of its month in UTC. The points
// ledger buckets every balance by this value.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
