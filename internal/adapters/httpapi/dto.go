package httpapi

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// OpenRequest asks for one pack open
type OpenRequest struct {
	PackKey string `json:"packKey"`
	Mode    string `json:"mode"`
}

// CardResponse is the wire shape of a card
type CardResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageRef string `json:"image,omitempty"`
	Rarity   string `json:"rarityTier"`
	Value    int64  `json:"estimatedValue"`
}

// ReceiptResponse is the outcome of a completed open
type ReceiptResponse struct {
	Card     CardResponse `json:"card"`
	PackKey  string       `json:"packKey"`
	Mode     string       `json:"mode"`
	TokenID  int64        `json:"tokenId,omitempty"`
	RecordID string       `json:"recordId,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// StateResponse reports the engine lifecycle state and, in the Result state,
// the receipt on display
type StateResponse struct {
	State  string           `json:"state"`
	Result *ReceiptResponse `json:"result,omitempty"`
}

// SkipResponse reports whether a spin was skipped
type SkipResponse struct {
	Skipped bool `json:"skipped"`
}

// PackResponse is one catalog entry
type PackResponse struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Icon       string `json:"icon,omitempty"`
	Theme      string `json:"theme,omitempty"`
	PriceCents int64  `json:"priceCents"`
	CardCount  int    `json:"cardCount"`
}

// PointsResponse is one scope balance
type PointsResponse struct {
	Scope   string `json:"scope"`
	Balance int64  `json:"balance"`
}

// LeaderboardRowResponse is one leaderboard entry
type LeaderboardRowResponse struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Points int64  `json:"points"`
}

// LeaderboardResponse is a scoped monthly leaderboard
type LeaderboardResponse struct {
	Scope string                   `json:"scope"`
	Rows  []LeaderboardRowResponse `json:"rows"`
}

// OwnedCardResponse is one collection record
type OwnedCardResponse struct {
	TokenID  int64  `json:"tokenId"`
	PackKey  string `json:"packKey"`
	CardID   string `json:"cardId"`
	CardName string `json:"cardName"`
	ImageRef string `json:"image,omitempty"`
	Rarity   string `json:"rarityTier"`
	Value    int64  `json:"estimatedValue"`
	OpenedAt string `json:"openedAt"`
}

// DrawRequest asks the authoritative endpoint for one draw
type DrawRequest struct {
	PackKey string `json:"packKey"`
	Mode    string `json:"mode"`
}

// DrawResponse is the authoritative draw payload, matching what remote
// clients resolve against their own catalogs
type DrawResponse struct {
	CardID  string `json:"cardId"`
	PackKey string `json:"packKey"`
	Rarity  string `json:"rarityTier"`
	Value   int64  `json:"estimatedValue"`
	Mode    string `json:"mode"`
}
