package entities

// Pack represents a purchasable booster offering one random card per open
type Pack struct {
	Key        string
	Name       string
	Icon       string
	Theme      string
	PriceCents int64 // pack price in euro cents
	Cards      []*Card
}

// PoolFor returns the cards in the pack sharing the given rarity
func (p *Pack) PoolFor(rarity Rarity) []*Card {
	var pool []*Card
	for _, c := range p.Cards {
		if c.Rarity == rarity {
			pool = append(pool, c)
		}
	}
	return pool
}

// HasCard reports whether the pack's roster contains the card ID
func (p *Pack) HasCard(cardID string) bool {
	for _, c := range p.Cards {
		if c.ID == cardID {
			return true
		}
	}
	return false
}
