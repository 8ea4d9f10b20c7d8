package resolver

import (
	"errors"
	"fmt"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

var (
	ErrEmptyPools  = errors.New("pack has no drawable cards")
	ErrInvalidOdds = errors.New("tier odds must each be in [0,1)")
)

// Odds holds the per-tier draw probabilities. They are cumulative,
// non-overlapping thresholds evaluated in draw priority order; whatever
// mass remains falls to the hidden pool.
type Odds struct {
	Legendary float64
	Ultra     float64
	Epic      float64
}

// DefaultOdds returns the reference policy: 1/5000 legendary, 1/50 ultra,
// 1/20 epic
func DefaultOdds() Odds {
	return Odds{
		Legendary: 1.0 / 5000,
		Ultra:     1.0 / 50,
		Epic:      1.0 / 20,
	}
}

func (o Odds) validate() error {
	for _, p := range []float64{o.Legendary, o.Ultra, o.Epic} {
		if p < 0 || p >= 1 {
			return ErrInvalidOdds
		}
	}
	if o.Legendary+o.Ultra+o.Epic >= 1 {
		return ErrInvalidOdds
	}
	return nil
}

// Service draws a single winning card from a pack under tiered odds
type Service struct {
	odds Odds
	rng  RandomSource
}

// New creates a resolver with the given odds. A nil rng uses the
// crypto-backed default.
func New(odds Odds, rng RandomSource) (*Service, error) {
	if err := odds.validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Service{odds: odds, rng: rng}, nil
}

// Resolve draws the winning card for one open of the pack. The result is
// authoritative from this moment; animation never changes it.
func (s *Service) Resolve(pack *entities.Pack, mode entities.OpenMode) (*entities.DrawResult, error) {
	card, err := s.PickCard(pack)
	if err != nil {
		return nil, err
	}

	return &entities.DrawResult{
		Card:    card,
		Rarity:  card.Rarity,
		Value:   card.Value,
		PackKey: pack.Key,
		Mode:    mode,
	}, nil
}

// PickCard performs one tiered draw from the pack's roster. An empty
// higher-priority pool is skipped without redistributing its probability
// mass; the draw falls through to the next populated tier.
func (s *Service) PickCard(pack *entities.Pack) (*entities.Card, error) {
	legendary := pack.PoolFor(entities.RarityLegendary)
	ultra := pack.PoolFor(entities.RarityUltra)
	epic := pack.PoolFor(entities.RarityEpic)
	hidden := pack.PoolFor(entities.RarityHidden)

	r := s.rng.Float64()

	threshold := s.odds.Legendary
	if len(legendary) > 0 && r < threshold {
		return s.pickFrom(legendary), nil
	}
	threshold += s.odds.Ultra
	if len(ultra) > 0 && r < threshold {
		return s.pickFrom(ultra), nil
	}
	threshold += s.odds.Epic
	if len(epic) > 0 && r < threshold {
		return s.pickFrom(epic), nil
	}

	// hidden is the catch-all pool; without it the draw has nowhere to land
	if len(hidden) > 0 {
		return s.pickFrom(hidden), nil
	}

	return nil, fmt.Errorf("pack %q: %w", pack.Key, ErrEmptyPools)
}

// pickFrom draws uniformly from a non-empty pool
func (s *Service) pickFrom(pool []*entities.Card) *entities.Card {
	idx := int(s.rng.Float64() * float64(len(pool)))
	if idx >= len(pool) {
		idx = len(pool) - 1
	}
	return pool[idx]
}
