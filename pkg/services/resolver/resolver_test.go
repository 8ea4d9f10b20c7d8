package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// scriptedRNG replays a fixed sequence of values, repeating the last one
type scriptedRNG struct {
	values []float64
	pos    int
}

func (s *scriptedRNG) Float64() float64 {
	if s.pos >= len(s.values) {
		return s.values[len(s.values)-1]
	}
	v := s.values[s.pos]
	s.pos++
	return v
}

func fullPack() *entities.Pack {
	return &entities.Pack{
		Key:        "TEST",
		Name:       "Test Pack",
		PriceCents: 2499,
		Cards: []*entities.Card{
			{ID: "h1", Name: "Hidden One", Value: 550, Rarity: entities.RarityHidden},
			{ID: "h2", Name: "Hidden Two", Value: 400, Rarity: entities.RarityHidden},
			{ID: "e1", Name: "Epic One", Value: 6000, Rarity: entities.RarityEpic},
			{ID: "e2", Name: "Epic Two", Value: 7000, Rarity: entities.RarityEpic},
			{ID: "u1", Name: "Ultra One", Value: 13500, Rarity: entities.RarityUltra},
			{ID: "l1", Name: "Legendary One", Value: 135000, Rarity: entities.RarityLegendary},
		},
	}
}

func TestTierFrequenciesConverge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping million-draw frequency audit in short mode")
	}

	svc, err := New(DefaultOdds(), NewSeededRNG(42))
	require.NoError(t, err)

	pack := fullPack()
	const draws = 1_000_000

	counts := make(map[entities.Rarity]int)
	for i := 0; i < draws; i++ {
		card, err := svc.PickCard(pack)
		require.NoError(t, err)
		counts[card.Rarity]++
	}

	// Legendary expectation is 200; allow generous sampling noise
	assert.InDelta(t, float64(draws)/5000, float64(counts[entities.RarityLegendary]), 60)
	assert.InDelta(t, float64(draws)/50, float64(counts[entities.RarityUltra]), 1000)
	assert.InDelta(t, float64(draws)/20, float64(counts[entities.RarityEpic]), 2000)

	expectedHidden := float64(draws) * (1 - 1.0/5000 - 1.0/50 - 1.0/20)
	assert.InDelta(t, expectedHidden, float64(counts[entities.RarityHidden]), 3000)
}

func TestForcedLegendaryDraw(t *testing.T) {
	// r=0 lands below every threshold, so the legendary pool wins
	svc, err := New(DefaultOdds(), &scriptedRNG{values: []float64{0, 0}})
	require.NoError(t, err)

	result, err := svc.Resolve(fullPack(), entities.ModePaid)
	require.NoError(t, err)

	assert.Equal(t, "l1", result.Card.ID)
	assert.Equal(t, entities.RarityLegendary, result.Rarity)
	assert.Equal(t, int64(135000), result.Value)
	assert.Equal(t, "TEST", result.PackKey)
	assert.Equal(t, entities.ModePaid, result.Mode)
}

func TestEmptyLegendaryPoolFallsThroughToUltra(t *testing.T) {
	pack := fullPack()
	var cards []*entities.Card
	for _, c := range pack.Cards {
		if c.Rarity != entities.RarityLegendary {
			cards = append(cards, c)
		}
	}
	pack.Cards = cards

	// r below the legendary threshold must not error and must not
	// redistribute mass: it falls through to the ultra pool.
	svc, err := New(DefaultOdds(), &scriptedRNG{values: []float64{0.0001, 0.5}})
	require.NoError(t, err)

	card, err := svc.PickCard(pack)
	require.NoError(t, err)
	assert.Equal(t, entities.RarityUltra, card.Rarity)
}

func TestEmptyPoolDoesNotRedistributeMass(t *testing.T) {
	pack := fullPack()
	var cards []*entities.Card
	for _, c := range pack.Cards {
		if c.Rarity != entities.RarityLegendary {
			cards = append(cards, c)
		}
	}
	pack.Cards = cards

	// Just above the legendary+ultra threshold: with no legendary pool the
	// outcome is identical to the full pack, i.e. the epic tier.
	r := 1.0/5000 + 1.0/50 + 0.001
	svc, err := New(DefaultOdds(), &scriptedRNG{values: []float64{r, 0}})
	require.NoError(t, err)

	card, err := svc.PickCard(pack)
	require.NoError(t, err)
	assert.Equal(t, entities.RarityEpic, card.Rarity)
}

func TestResolveFailsWithoutCatchAllPool(t *testing.T) {
	pack := &entities.Pack{
		Key: "EMPTY",
		Cards: []*entities.Card{
			{ID: "e1", Name: "Epic", Rarity: entities.RarityEpic},
		},
	}

	// r beyond the epic threshold lands in the missing hidden pool
	svc, err := New(DefaultOdds(), &scriptedRNG{values: []float64{0.9}})
	require.NoError(t, err)

	_, err = svc.Resolve(pack, entities.ModePaid)
	assert.ErrorIs(t, err, ErrEmptyPools)
}

func TestUniformPickStaysInBounds(t *testing.T) {
	// a value of almost 1.0 must clamp to the last pool entry
	svc, err := New(DefaultOdds(), &scriptedRNG{values: []float64{0.99, 0.999999}})
	require.NoError(t, err)

	card, err := svc.PickCard(fullPack())
	require.NoError(t, err)
	assert.Equal(t, entities.RarityHidden, card.Rarity)
}

func TestNewRejectsInvalidOdds(t *testing.T) {
	_, err := New(Odds{Legendary: -0.1}, nil)
	assert.ErrorIs(t, err, ErrInvalidOdds)

	_, err = New(Odds{Legendary: 0.5, Ultra: 0.4, Epic: 0.2}, nil)
	assert.ErrorIs(t, err, ErrInvalidOdds)
}

func TestSeededRNGIsReplicable(t *testing.T) {
	a := NewSeededRNG(7)
	b := NewSeededRNG(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestRemoteResultValidate(t *testing.T) {
	good := &RemoteResult{CardID: "c", PackKey: "FIRE", Rarity: entities.RarityEpic, Mode: entities.ModePaid}
	assert.NoError(t, good.Validate())

	assert.Error(t, (&RemoteResult{PackKey: "FIRE", Rarity: entities.RarityEpic, Mode: entities.ModePaid}).Validate())
	assert.Error(t, (&RemoteResult{CardID: "c", Rarity: entities.RarityEpic, Mode: entities.ModePaid}).Validate())
	assert.Error(t, (&RemoteResult{CardID: "c", PackKey: "FIRE", Rarity: "MYTHIC", Mode: entities.ModePaid}).Validate())
	assert.Error(t, (&RemoteResult{CardID: "c", PackKey: "FIRE", Rarity: entities.RarityEpic, Mode: "gifted"}).Validate())
}
