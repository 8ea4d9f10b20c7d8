package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fadedpez/vaultspin/internal/logging"
	"github.com/fadedpez/vaultspin/internal/types"
	"github.com/fadedpez/vaultspin/pkg/catalog"
	"github.com/fadedpez/vaultspin/pkg/entities"
	"github.com/fadedpez/vaultspin/pkg/services/reel"
	"github.com/fadedpez/vaultspin/pkg/services/resolver"
)

// Config tunes the engine's economy and timing
type Config struct {
	PaidRewardPoints int64         // points credited per paid open
	FreeOpenCost     int64         // points debited before a free open
	ReelLength       int           // cards in the decorative strip
	SettleTimeout    time.Duration // budget for post-reveal persistence
	RemoteTimeout    time.Duration // budget for a server-authoritative draw
}

// DefaultConfig returns the reference economy: 25 points per paid open,
// 2500 points per free open
func DefaultConfig() Config {
	return Config{
		PaidRewardPoints: 25,
		FreeOpenCost:     2500,
		ReelLength:       reel.DefaultLength,
		SettleTimeout:    5 * time.Second,
		RemoteTimeout:    10 * time.Second,
	}
}

// Deps carries the engine's collaborators. Catalog, Resolver, Animator,
// Ledger, and Store are required; the rest are optional.
type Deps struct {
	Catalog  *catalog.Catalog
	Resolver DrawResolver
	Remote   resolver.RemoteDraw // non-nil switches draws to server authority
	Animator *reel.Animator
	Sounds   *reel.SoundBank
	Ledger   PointsLedger
	Store    CardStore
	History  HistoryLog
	Logger   *logging.Logger
	OnStatus StatusFunc
}

// Receipt is what one completed open produced. Warnings record settlement
// steps that failed after the reveal; the reveal itself is never retracted.
type Receipt struct {
	Draw     *entities.DrawResult
	TokenID  int64
	RecordID string
	Warnings []string
}

// Engine runs the pack-opening lifecycle: Idle -> Opening -> Result -> Idle.
// The outcome is fixed at resolution; the reel spin is decorative. Opens are
// single-flight, so a second OpenPack while one is in progress is rejected
// without side effects.
type Engine struct {
	cfg      Config
	catalog  *catalog.Catalog
	resolver DrawResolver
	remote   resolver.RemoteDraw
	animator *reel.Animator
	sounds   *reel.SoundBank
	ledger   PointsLedger
	store    CardStore
	history  HistoryLog
	logger   *logging.Logger
	onStatus StatusFunc

	mu      sync.Mutex
	state   entities.EngineState
	receipt *Receipt
}

// New creates an engine from its config and dependencies
func New(cfg Config, deps Deps) (*Engine, error) {
	if deps.Catalog == nil {
		return nil, errors.New("engine requires a catalog")
	}
	if deps.Resolver == nil {
		return nil, errors.New("engine requires a resolver")
	}
	if deps.Animator == nil {
		return nil, errors.New("engine requires an animator")
	}
	if deps.Ledger == nil {
		return nil, errors.New("engine requires a points ledger")
	}
	if deps.Store == nil {
		return nil, errors.New("engine requires a card store")
	}

	if cfg.ReelLength <= 0 {
		cfg.ReelLength = reel.DefaultLength
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = DefaultConfig().SettleTimeout
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = DefaultConfig().RemoteTimeout
	}

	sounds := deps.Sounds
	if sounds == nil {
		sounds = &reel.SoundBank{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default
	}

	return &Engine{
		cfg:      cfg,
		catalog:  deps.Catalog,
		resolver: deps.Resolver,
		remote:   deps.Remote,
		animator: deps.Animator,
		sounds:   sounds,
		ledger:   deps.Ledger,
		store:    deps.Store,
		history:  deps.History,
		logger:   logger,
		onStatus: deps.OnStatus,
		state:    entities.StateIdle,
	}, nil
}

// State returns the engine's current lifecycle state
func (e *Engine) State() entities.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsBusy reports whether an open is in progress or awaiting dismissal
func (e *Engine) IsBusy() bool {
	return e.State() != entities.StateIdle
}

// Result returns the receipt of the open currently on display
func (e *Engine) Result() (*Receipt, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != entities.StateResult || e.receipt == nil {
		return nil, false
	}
	return e.receipt, true
}

// OpenPack runs one full open and blocks until the reveal. On success the
// engine holds the Result state until CloseResult; on any error before the
// reveal it returns to Idle with no card granted.
func (e *Engine) OpenPack(ctx context.Context, userID, packKey string, mode entities.OpenMode) (*Receipt, error) {
	if userID == "" {
		return nil, types.NewEngineError(types.ErrInvalidState, "open requires a user")
	}
	if !mode.IsValid() {
		return nil, types.NewEngineError(types.ErrInvalidState, fmt.Sprintf("unsupported open mode %q", mode))
	}

	e.mu.Lock()
	if e.state != entities.StateIdle {
		e.mu.Unlock()
		return nil, types.NewEngineError(types.ErrEngineBusy, "an open is already in progress")
	}
	e.state = entities.StateOpening
	e.receipt = nil
	e.mu.Unlock()

	receipt, err := e.open(ctx, userID, packKey, mode)

	e.mu.Lock()
	if err != nil {
		e.state = entities.StateIdle
		e.mu.Unlock()
		e.logger.LogError(err)
		e.emit(Status{Text: "Open failed", Severity: SeverityError})
		return nil, err
	}
	e.state = entities.StateResult
	e.receipt = receipt
	e.mu.Unlock()

	return receipt, nil
}

// open is the Opening-state pipeline: gate, resolve, spin, settle
func (e *Engine) open(ctx context.Context, userID, packKey string, mode entities.OpenMode) (*Receipt, error) {
	pack, err := e.catalog.GetPack(packKey)
	if err != nil {
		return nil, types.WrapError(types.ErrPackNotFound, fmt.Sprintf("pack %q is not offered", packKey), err)
	}

	// free opens debit up front; a denied debit never reaches resolution
	if mode == entities.ModeFree {
		e.emit(Status{Text: "Redeeming points...", Severity: SeverityPending})
		granted, remaining, err := e.ledger.TrySpend(ctx, userID, e.cfg.FreeOpenCost, entities.ScopeAll)
		if err != nil {
			return nil, types.WrapError(types.ErrPointsFailed, "could not check the points balance", err)
		}
		if !granted {
			e.emit(Status{
				Text:     fmt.Sprintf("Not enough points: %d of %d", remaining, e.cfg.FreeOpenCost),
				Severity: SeverityError,
			})
			return nil, types.NewEngineError(types.ErrInsufficientBalance,
				fmt.Sprintf("free open needs %d points, balance is %d", e.cfg.FreeOpenCost, remaining))
		}
	}

	e.emit(Status{Text: fmt.Sprintf("Opening %s pack...", pack.Name), Severity: SeverityPending})

	draw, err := e.resolveDraw(ctx, pack, mode)
	if err != nil {
		return nil, err
	}

	seq, err := reel.BuildSequence(draw.Card, pack, e.resolver, e.cfg.ReelLength)
	if err != nil {
		return nil, types.WrapError(types.ErrResolutionFailed, "could not build the reel strip", err)
	}

	if err := e.animator.Play(ctx, seq); err != nil {
		return nil, types.WrapError(types.ErrInternalError, "spin interrupted", err)
	}

	e.reveal(draw)

	return e.settle(ctx, userID, draw), nil
}

// resolveDraw picks the winning card, either locally or under server
// authority. A remote card ID that does not resolve against the local
// catalog is a hard mismatch; the open fails rather than showing a card the
// client cannot vouch for.
func (e *Engine) resolveDraw(ctx context.Context, pack *entities.Pack, mode entities.OpenMode) (*entities.DrawResult, error) {
	if e.remote == nil {
		draw, err := e.resolver.Resolve(pack, mode)
		if err != nil {
			return nil, types.WrapError(types.ErrResolutionFailed, fmt.Sprintf("draw from pack %q failed", pack.Key), err)
		}
		return draw, nil
	}

	rctx, cancel := context.WithTimeout(ctx, e.cfg.RemoteTimeout)
	defer cancel()

	result, err := e.remote.OpenPack(rctx, pack.Key, mode)
	if err != nil {
		return nil, types.WrapError(types.ErrNetworkError, "server draw failed", err)
	}

	card, ok := e.catalog.Card(result.CardID)
	if !ok || !pack.HasCard(result.CardID) {
		return nil, types.NewEngineError(types.ErrCatalogMismatch,
			fmt.Sprintf("server drew card %q which is not in pack %q", result.CardID, pack.Key))
	}

	value := result.Value
	if value == 0 {
		value = card.Value
	}

	return &entities.DrawResult{
		Card:    card,
		Rarity:  card.Rarity,
		Value:   value,
		PackKey: pack.Key,
		Mode:    mode,
	}, nil
}

// reveal plays the outcome cues once the reel has settled
func (e *Engine) reveal(draw *entities.DrawResult) {
	e.playCue(e.sounds.Reveal)
	if draw.Rarity == entities.RarityLegendary {
		e.playCue(e.sounds.Legendary)
		e.emit(Status{Text: fmt.Sprintf("LEGENDARY! %s", draw.Card.Name), Severity: SeverityOK})
		return
	}
	e.emit(Status{Text: fmt.Sprintf("You got %s", draw.Card.Name), Severity: SeverityOK})
}

// settle persists the outcome and credits rewards. The card is already on
// screen, so nothing here fails the open: each failed step becomes a
// warning on the receipt instead.
func (e *Engine) settle(ctx context.Context, userID string, draw *entities.DrawResult) *Receipt {
	sctx, cancel := context.WithTimeout(ctx, e.cfg.SettleTimeout)
	defer cancel()

	receipt := &Receipt{Draw: draw}

	token, err := e.store.NextToken(sctx, userID)
	if err != nil {
		receipt.Warnings = append(receipt.Warnings, "display token could not be assigned")
		e.logger.LogError(types.WrapError(types.ErrPersistenceFailed, "token counter failed", err))
	} else {
		receipt.TokenID = token
	}

	record := &entities.OwnedCard{
		UserID:   userID,
		TokenID:  receipt.TokenID,
		PackKey:  draw.PackKey,
		CardID:   draw.Card.ID,
		CardName: draw.Card.Name,
		ImageRef: draw.Card.ImageRef,
		Rarity:   draw.Rarity,
		Value:    draw.Value,
		OpenedAt: time.Now(),
	}

	if id, err := e.store.SaveOwnedCard(sctx, record); err != nil {
		receipt.Warnings = append(receipt.Warnings, "card could not be saved to the collection")
		e.logger.LogError(types.WrapError(types.ErrPersistenceFailed, "saving owned card failed", err))
	} else {
		receipt.RecordID = id
		record.ID = id
	}

	if draw.Mode == entities.ModePaid && e.cfg.PaidRewardPoints > 0 {
		for _, scope := range []string{entities.ScopeAll, draw.PackKey} {
			if _, err := e.ledger.Credit(sctx, userID, e.cfg.PaidRewardPoints, scope); err != nil {
				receipt.Warnings = append(receipt.Warnings, fmt.Sprintf("points for scope %s were not credited", scope))
				e.logger.LogError(types.WrapError(types.ErrPointsFailed, "crediting open reward failed", err))
			}
		}
	}

	if e.history != nil {
		if err := e.history.Append(sctx, record); err != nil {
			e.logger.Warn("open history append failed: %v", err)
		}
	}

	if len(receipt.Warnings) > 0 {
		e.emit(Status{Text: "Card revealed, but some bookkeeping failed", Severity: SeverityError})
	}

	return receipt
}

// SkipSpin short-circuits the current spin to its settled frame. Returns
// false when there is nothing to skip.
func (e *Engine) SkipSpin() bool {
	return e.animator.Skip()
}

// CloseResult dismisses the result on display and returns the engine to
// Idle, ready for the next open
func (e *Engine) CloseResult() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != entities.StateResult {
		return types.NewEngineError(types.ErrInvalidState,
			fmt.Sprintf("no result to close in state %s", e.state))
	}
	e.state = entities.StateIdle
	e.receipt = nil
	return nil
}

// emit forwards a status transition to the UI callback, if one is bound
func (e *Engine) emit(s Status) {
	if e.onStatus != nil {
		e.onStatus(s)
	}
}

// playCue fires a sound handle, tolerating absent wiring
func (e *Engine) playCue(h reel.SoundHandle) {
	if h != nil {
		h.Play()
	}
}
