package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fadedpez/vaultspin/internal/types"
	"github.com/fadedpez/vaultspin/pkg/catalog"
	"github.com/fadedpez/vaultspin/pkg/entities"
	collectionRepo "github.com/fadedpez/vaultspin/pkg/repositories/collection"
	ledgerRepo "github.com/fadedpez/vaultspin/pkg/repositories/ledger"
	ledgerSvc "github.com/fadedpez/vaultspin/pkg/services/ledger"
	"github.com/fadedpez/vaultspin/pkg/services/reel"
	"github.com/fadedpez/vaultspin/pkg/services/resolver"
	"github.com/fadedpez/vaultspin/pkg/storage"
)

// scriptedRNG replays a fixed sequence of draws, repeating the last value
type scriptedRNG struct {
	values []float64
	i      int
}

func (s *scriptedRNG) Float64() float64 {
	if s.i < len(s.values) {
		v := s.values[s.i]
		s.i++
		return v
	}
	return s.values[len(s.values)-1]
}

// countingResolver wraps the real resolver and counts winning draws
type countingResolver struct {
	inner    *resolver.Service
	mu       sync.Mutex
	resolves int
}

func (c *countingResolver) Resolve(pack *entities.Pack, mode entities.OpenMode) (*entities.DrawResult, error) {
	c.mu.Lock()
	c.resolves++
	c.mu.Unlock()
	return c.inner.Resolve(pack, mode)
}

func (c *countingResolver) PickCard(pack *entities.Pack) (*entities.Card, error) {
	return c.inner.PickCard(pack)
}

func (c *countingResolver) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolves
}

// failingStore accepts tokens but refuses to persist cards
type failingStore struct {
	tokens int64
}

func (f *failingStore) NextToken(ctx context.Context, userID string) (int64, error) {
	f.tokens++
	return f.tokens, nil
}

func (f *failingStore) SaveOwnedCard(ctx context.Context, card *entities.OwnedCard) (string, error) {
	return "", errors.New("disk full")
}

// scriptedRemote returns a canned server draw
type scriptedRemote struct {
	result *resolver.RemoteResult
	err    error
}

func (s *scriptedRemote) OpenPack(ctx context.Context, packKey string, mode entities.OpenMode) (*resolver.RemoteResult, error) {
	return s.result, s.err
}

// statusRecorder collects status transitions
type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *statusRecorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.statuses))
	for i, s := range r.statuses {
		out[i] = s.Text
	}
	return out
}

type countingSound struct {
	mu    sync.Mutex
	plays int
}

func (c *countingSound) Play() {
	c.mu.Lock()
	c.plays++
	c.mu.Unlock()
}

func (c *countingSound) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plays
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New([]*entities.Pack{
		{
			Key:        "FIRE",
			Name:       "Fire",
			PriceCents: 599,
			Cards: []*entities.Card{
				{ID: "salameche", Name: "Salameche", Rarity: entities.RarityHidden, Value: 50},
				{ID: "magmar", Name: "Magmar", Rarity: entities.RarityHidden, Value: 120},
				{ID: "dracaufeu", Name: "Dracaufeu", Rarity: entities.RarityLegendary, Value: 629900},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

type fixture struct {
	engine     *Engine
	resolver   *countingResolver
	ledger     *ledgerSvc.Service
	ledgerRepo *ledgerRepo.MemoryRepository
	store      *collectionRepo.MemoryRepository
	statuses   *statusRecorder
	legendary  *countingSound
}

// newFixture wires an engine over in-memory storage with a scripted draw
// sequence and a fast headless spin
func newFixture(t *testing.T, rngValues []float64, mod func(*Config, *Deps)) *fixture {
	t.Helper()

	res, err := resolver.New(resolver.DefaultOdds(), &scriptedRNG{values: rngValues})
	require.NoError(t, err)

	f := &fixture{
		resolver:   &countingResolver{inner: res},
		ledgerRepo: ledgerRepo.NewMemoryRepository(),
		store:      collectionRepo.NewMemoryRepository(),
		statuses:   &statusRecorder{},
		legendary:  &countingSound{},
	}
	f.ledger = ledgerSvc.NewService(f.ledgerRepo)

	animator := reel.NewAnimator(reel.Config{
		Layout:        reel.Layout{StepPx: 10, ViewportPx: 100},
		SpinDuration:  20 * time.Millisecond,
		SkipDuration:  5 * time.Millisecond,
		FrameInterval: 2 * time.Millisecond,
		TickMinGap:    time.Millisecond,
	}, nil, nil, nil)

	cfg := DefaultConfig()
	deps := Deps{
		Catalog:  testCatalog(t),
		Resolver: f.resolver,
		Animator: animator,
		Sounds:   &reel.SoundBank{Legendary: f.legendary},
		Ledger:   f.ledger,
		Store:    f.store,
		OnStatus: f.statuses.record,
	}
	if mod != nil {
		mod(&cfg, &deps)
	}

	engine, err := New(cfg, deps)
	require.NoError(t, err)
	f.engine = engine
	return f
}

func TestPaidOpenSettlesAndCreditsBothScopes(t *testing.T) {
	f := newFixture(t, []float64{0.5}, nil)
	ctx := context.Background()

	receipt, err := f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModePaid)
	require.NoError(t, err)

	assert.Equal(t, entities.StateResult, f.engine.State())
	assert.Equal(t, int64(1), receipt.TokenID)
	assert.NotEmpty(t, receipt.RecordID)
	assert.Empty(t, receipt.Warnings)
	assert.Equal(t, entities.ModePaid, receipt.Draw.Mode)
	assert.Equal(t, "FIRE", receipt.Draw.PackKey)

	all, err := f.ledger.Balance(ctx, "user1", entities.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, int64(25), all)

	scoped, err := f.ledger.Balance(ctx, "user1", "FIRE")
	require.NoError(t, err)
	assert.Equal(t, int64(25), scoped)

	records, err := f.store.ListOwned(ctx, "user1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, receipt.Draw.Card.ID, records[0].CardID)

	require.NoError(t, f.engine.CloseResult())
	assert.Equal(t, entities.StateIdle, f.engine.State())
}

func TestOpenRejectedWhileBusy(t *testing.T) {
	f := newFixture(t, []float64{0.5}, func(cfg *Config, deps *Deps) {
		deps.Animator = reel.NewAnimator(reel.Config{
			Layout:        reel.Layout{StepPx: 10, ViewportPx: 100},
			SpinDuration:  200 * time.Millisecond,
			SkipDuration:  5 * time.Millisecond,
			FrameInterval: 2 * time.Millisecond,
			TickMinGap:    time.Millisecond,
		}, nil, nil, nil)
	})
	ctx := context.Background()

	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, firstErr = f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModePaid)
	}()

	require.Eventually(t, func() bool {
		return f.engine.State() == entities.StateOpening
	}, time.Second, time.Millisecond)

	_, err := f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModePaid)
	assert.True(t, types.IsEngineError(err, types.ErrEngineBusy))

	<-done
	require.NoError(t, firstErr)

	// the rejected open must leave no trace: one draw, one token, one credit
	assert.Equal(t, 1, f.resolver.count())
	records, err := f.store.ListOwned(ctx, "user1", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	all, err := f.ledger.Balance(ctx, "user1", entities.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, int64(25), all)
}

func TestFreeOpenDeniedBeforeResolution(t *testing.T) {
	f := newFixture(t, []float64{0.5}, nil)
	ctx := context.Background()

	_, err := f.ledger.Credit(ctx, "user1", 2000, entities.ScopeAll)
	require.NoError(t, err)

	_, err = f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModeFree)
	assert.True(t, types.IsEngineError(err, types.ErrInsufficientBalance))
	assert.Equal(t, entities.StateIdle, f.engine.State())

	// nothing downstream of the gate may have run
	assert.Equal(t, 0, f.resolver.count())
	token, err := f.store.NextToken(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), token)

	balance, err := f.ledger.Balance(ctx, "user1", entities.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), balance)
}

func TestFreeOpenDebitsCostAndSkipsReward(t *testing.T) {
	f := newFixture(t, []float64{0.5}, nil)
	ctx := context.Background()

	_, err := f.ledger.Credit(ctx, "user1", 2500, entities.ScopeAll)
	require.NoError(t, err)

	receipt, err := f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModeFree)
	require.NoError(t, err)
	assert.Equal(t, entities.ModeFree, receipt.Draw.Mode)
	assert.Equal(t, int64(1), receipt.TokenID)

	// free opens spend the cost and earn nothing back
	all, err := f.ledger.Balance(ctx, "user1", entities.ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, int64(0), all)

	scoped, err := f.ledger.Balance(ctx, "user1", "FIRE")
	require.NoError(t, err)
	assert.Equal(t, int64(0), scoped)
}

func TestSettlementFailureKeepsReveal(t *testing.T) {
	store := &failingStore{}
	f := newFixture(t, []float64{0.5}, func(cfg *Config, deps *Deps) {
		deps.Store = store
	})
	ctx := context.Background()

	receipt, err := f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModePaid)
	require.NoError(t, err)

	// the card stays on screen; the failure surfaces as a warning
	assert.Equal(t, entities.StateResult, f.engine.State())
	assert.NotEmpty(t, receipt.Warnings)
	assert.Empty(t, receipt.RecordID)
	assert.Equal(t, int64(1), receipt.TokenID)

	// the token was consumed despite the failed save
	assert.Equal(t, int64(1), store.tokens)
}

func TestRemoteDrawResolvedAgainstCatalog(t *testing.T) {
	f := newFixture(t, []float64{0.5}, func(cfg *Config, deps *Deps) {
		deps.Remote = &scriptedRemote{result: &resolver.RemoteResult{
			CardID:  "dracaufeu",
			PackKey: "FIRE",
			Rarity:  entities.RarityLegendary,
			Mode:    entities.ModePaid,
		}}
	})
	ctx := context.Background()

	receipt, err := f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModePaid)
	require.NoError(t, err)

	// the catalog entry, not the wire payload, is the source of truth
	assert.Equal(t, "dracaufeu", receipt.Draw.Card.ID)
	assert.Equal(t, entities.RarityLegendary, receipt.Draw.Rarity)
	assert.Equal(t, int64(629900), receipt.Draw.Value)

	// the local resolver only supplied decoys
	assert.Equal(t, 0, f.resolver.count())
}

func TestRemoteCardUnknownToCatalogFailsOpen(t *testing.T) {
	f := newFixture(t, []float64{0.5}, func(cfg *Config, deps *Deps) {
		deps.Remote = &scriptedRemote{result: &resolver.RemoteResult{
			CardID:  "mewtwo",
			PackKey: "FIRE",
			Rarity:  entities.RarityLegendary,
			Mode:    entities.ModePaid,
		}}
	})
	ctx := context.Background()

	_, err := f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModePaid)
	assert.True(t, types.IsEngineError(err, types.ErrCatalogMismatch))
	assert.Equal(t, entities.StateIdle, f.engine.State())

	records, err := f.store.ListOwned(ctx, "user1", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLegendaryDrawPlaysCue(t *testing.T) {
	// r=0 lands in the legendary threshold; decoys use the repeated value
	f := newFixture(t, []float64{0, 0, 0.5}, nil)
	ctx := context.Background()

	receipt, err := f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModePaid)
	require.NoError(t, err)

	assert.Equal(t, entities.RarityLegendary, receipt.Draw.Rarity)
	assert.Equal(t, 1, f.legendary.count())
	assert.Contains(t, f.statuses.texts(), "LEGENDARY! Dracaufeu")
}

func TestUnknownPackFailsOpen(t *testing.T) {
	f := newFixture(t, []float64{0.5}, nil)

	_, err := f.engine.OpenPack(context.Background(), "user1", "WATER", entities.ModePaid)
	assert.True(t, types.IsEngineError(err, types.ErrPackNotFound))
	assert.Equal(t, entities.StateIdle, f.engine.State())
}

func TestCloseResultRequiresResultState(t *testing.T) {
	f := newFixture(t, []float64{0.5}, nil)

	err := f.engine.CloseResult()
	assert.True(t, types.IsEngineError(err, types.ErrInvalidState))
}

func TestSkipSpinIsNoopWhenIdle(t *testing.T) {
	f := newFixture(t, []float64{0.5}, nil)
	assert.False(t, f.engine.SkipSpin())
}

func TestHistoryReceivesSettledOpen(t *testing.T) {
	history := storage.NewMockStore(t)
	history.On("Append", mock.Anything, mock.AnythingOfType("*entities.OwnedCard")).Return(nil)

	f := newFixture(t, []float64{0.5}, func(cfg *Config, deps *Deps) {
		deps.History = history
	})

	receipt, err := f.engine.OpenPack(context.Background(), "user1", "FIRE", entities.ModePaid)
	require.NoError(t, err)
	assert.Empty(t, receipt.Warnings)

	history.AssertCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestHistoryFailureIsSilent(t *testing.T) {
	history := storage.NewMockStore(t)
	history.On("Append", mock.Anything, mock.Anything).Return(errors.New("journal unwritable"))

	f := newFixture(t, []float64{0.5}, func(cfg *Config, deps *Deps) {
		deps.History = history
	})

	receipt, err := f.engine.OpenPack(context.Background(), "user1", "FIRE", entities.ModePaid)
	require.NoError(t, err)

	// a history journal failure is not a settlement warning
	assert.Empty(t, receipt.Warnings)
	assert.Equal(t, entities.StateResult, f.engine.State())
}

func TestResultAccessor(t *testing.T) {
	f := newFixture(t, []float64{0.5}, nil)
	ctx := context.Background()

	_, ok := f.engine.Result()
	assert.False(t, ok)

	receipt, err := f.engine.OpenPack(ctx, "user1", "FIRE", entities.ModePaid)
	require.NoError(t, err)

	got, ok := f.engine.Result()
	require.True(t, ok)
	assert.Equal(t, receipt, got)

	require.NoError(t, f.engine.CloseResult())
	_, ok = f.engine.Result()
	assert.False(t, ok)
}
