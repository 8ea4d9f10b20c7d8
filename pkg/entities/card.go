package entities

import "fmt"

// Rarity represents a card's draw tier
type Rarity string

const (
	RarityHidden    Rarity = "HIDDEN"
	RarityEpic      Rarity = "EPIC"
	RarityUltra     Rarity = "ULTRA"
	RarityLegendary Rarity = "LEGENDARY"
)

// DrawOrder lists rarities in draw priority, most exclusive first.
// The resolver evaluates tier thresholds in exactly this order.
var DrawOrder = []Rarity{RarityLegendary, RarityUltra, RarityEpic, RarityHidden}

// IsValid reports whether the rarity is one of the four known tiers
func (r Rarity) IsValid() bool {
	switch r {
	case RarityHidden, RarityEpic, RarityUltra, RarityLegendary:
		return true
	}
	return false
}

// Card represents a collectible card in a pack's roster
type Card struct {
	ID       string
	Name     string
	ImageRef string
	Value    int64 // estimated value in euro cents
	Rarity   Rarity
}

// NewCard creates a new card
func NewCard(id, name, imageRef string, value int64, rarity Rarity) *Card {
	return &Card{
		ID:       id,
		Name:     name,
		ImageRef: imageRef,
		Value:    value,
		Rarity:   rarity,
	}
}

// String returns the string representation of the card
func (c *Card) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Rarity)
}
