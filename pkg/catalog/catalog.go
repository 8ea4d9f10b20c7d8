package catalog

import (
	"errors"
	"fmt"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

var (
	ErrPackNotFound = errors.New("pack not found")
	ErrEmptyCatalog = errors.New("catalog has no packs")
)

// Catalog is the static registry of packs and their card rosters. It is
// immutable once built; the engine resolves remote card IDs against it.
type Catalog struct {
	packs map[string]*entities.Pack
	keys  []string
	cards map[string]*entities.Card
}

// New builds a catalog from the given packs, indexing every card by ID
func New(packs []*entities.Pack) (*Catalog, error) {
	if len(packs) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		packs: make(map[string]*entities.Pack),
		cards: make(map[string]*entities.Card),
	}

	for _, p := range packs {
		if err := validatePack(p); err != nil {
			return nil, fmt.Errorf("pack %q: %w", p.Key, err)
		}
		if _, exists := c.packs[p.Key]; exists {
			return nil, fmt.Errorf("duplicate pack key %q", p.Key)
		}
		c.packs[p.Key] = p
		c.keys = append(c.keys, p.Key)

		for _, card := range p.Cards {
			if _, exists := c.cards[card.ID]; exists {
				return nil, fmt.Errorf("duplicate card id %q", card.ID)
			}
			c.cards[card.ID] = card
		}
	}

	return c, nil
}

// GetPack returns the pack for the given key
func (c *Catalog) GetPack(key string) (*entities.Pack, error) {
	pack, ok := c.packs[key]
	if !ok {
		return nil, ErrPackNotFound
	}
	return pack, nil
}

// Keys returns the pack keys in catalog order
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// AllCards returns the ID index over every card in every pack
func (c *Catalog) AllCards() map[string]*entities.Card {
	return c.cards
}

// Card looks up a single card by ID across all packs
func (c *Catalog) Card(id string) (*entities.Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

// validatePack checks the invariants every offered pack must hold
func validatePack(p *entities.Pack) error {
	if p.Key == "" {
		return errors.New("missing key")
	}
	if len(p.Cards) == 0 {
		return errors.New("empty roster")
	}

	seen := make(map[string]bool, len(p.Cards))
	hasHidden := false
	for _, card := range p.Cards {
		if card.ID == "" {
			return errors.New("card with empty id")
		}
		if seen[card.ID] {
			return fmt.Errorf("duplicate card id %q in roster", card.ID)
		}
		seen[card.ID] = true

		if !card.Rarity.IsValid() {
			return fmt.Errorf("card %q has unknown rarity %q", card.ID, card.Rarity)
		}
		if card.Rarity == entities.RarityHidden {
			hasHidden = true
		}
	}

	// The hidden pool is the draw catch-all; a purchasable pack without one
	// could fail resolution at the till.
	if p.PriceCents > 0 && !hasHidden {
		return errors.New("purchasable pack has an empty hidden pool")
	}

	return nil
}
