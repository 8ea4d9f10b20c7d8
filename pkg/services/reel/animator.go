package reel

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"
)

var (
	ErrAlreadyPlaying = errors.New("a spin is already playing")
)

// Layout describes the strip geometry the animator needs to aim the reel:
// how wide one card slot is and how wide the viewport is. The cursor sits at
// the viewport's horizontal center.
type Layout struct {
	StepPx     float64
	ViewportPx float64
}

// Config tunes the spin
type Config struct {
	Layout        Layout
	SpinDuration  time.Duration // natural deceleration length
	SkipDuration  time.Duration // fast settle used by Skip
	FrameInterval time.Duration // tick-loop sampling rate
	TickMinGap    time.Duration // minimum gap between tick sounds
	JitterPx      float64       // final offset jitter amplitude (+/-)
}

// DefaultConfig returns the reference timings
func DefaultConfig() Config {
	return Config{
		Layout:        Layout{StepPx: 192, ViewportPx: 960},
		SpinDuration:  4 * time.Second,
		SkipDuration:  420 * time.Millisecond,
		FrameInterval: 16 * time.Millisecond,
		TickMinGap:    58 * time.Millisecond,
		JitterPx:      3,
	}
}

// jitterSource matches the resolver RandomSource; redeclared here so the
// animator doesn't depend on the resolver package
type jitterSource interface {
	Float64() float64
}

// Animator drives the timed deceleration of a reel sequence and the tick
// sounds synchronized with it. One animation at a time; Skip short-circuits
// the decorative duration without changing the final offset.
type Animator struct {
	cfg       Config
	presenter Presenter
	sounds    *SoundBank
	rng       jitterSource

	mu        sync.Mutex
	playing   bool
	skipCh    chan struct{}
	skipped   bool
	lastFinal float64
}

// NewAnimator creates an animator. A nil presenter degrades to the headless
// null presenter; a nil sound bank stays silent.
func NewAnimator(cfg Config, presenter Presenter, sounds *SoundBank, rng jitterSource) *Animator {
	if presenter == nil {
		presenter = NullPresenter{}
	}
	if sounds == nil {
		sounds = &SoundBank{}
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 16 * time.Millisecond
	}
	if cfg.SpinDuration <= 0 {
		cfg.SpinDuration = DefaultConfig().SpinDuration
	}
	if cfg.SkipDuration <= 0 {
		cfg.SkipDuration = DefaultConfig().SkipDuration
	}
	return &Animator{cfg: cfg, presenter: presenter, sounds: sounds, rng: rng}
}

// TargetOffset computes the translate needed to center the stop-index card
// under the viewport cursor, before jitter
func (a *Animator) TargetOffset(stopIndex int) float64 {
	step := a.cfg.Layout.StepPx
	cursorX := a.cfg.Layout.ViewportPx / 2
	targetCenter := float64(stopIndex)*step + step/2
	return -(targetCenter - cursorX)
}

// FinalOffset returns the settled translate of the most recent spin
func (a *Animator) FinalOffset() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastFinal
}

// Playing reports whether a spin is in flight
func (a *Animator) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

// Play renders the sequence and blocks until the animation settles, either
// naturally or through Skip. The final offset is fixed before the first
// frame; skipping reuses it, so both paths settle pixel-equal.
func (a *Animator) Play(ctx context.Context, seq *Sequence) error {
	a.mu.Lock()
	if a.playing {
		a.mu.Unlock()
		return ErrAlreadyPlaying
	}

	jitter := 0.0
	if a.rng != nil && a.cfg.JitterPx > 0 {
		jitter = a.rng.Float64()*2*a.cfg.JitterPx - a.cfg.JitterPx
	}
	final := a.TargetOffset(seq.StopIndex) - jitter

	a.playing = true
	a.skipped = false
	a.skipCh = make(chan struct{})
	a.lastFinal = final
	skipCh := a.skipCh
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.playing = false
		a.mu.Unlock()
	}()

	a.presenter.RenderSequence(seq)
	play(a.sounds.PackOpen)
	a.presenter.SetTransform(final, a.cfg.SpinDuration)

	start := time.Now()
	duration := a.cfg.SpinDuration

	frames := time.NewTicker(a.cfg.FrameInterval)
	defer frames.Stop()
	settle := time.NewTimer(duration)
	defer settle.Stop()

	ticks := newTickPlayer(a.sounds, a.cfg.TickMinGap)
	lastIndex := -1

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-skipCh:
			// same final offset, shorter settle
			skipCh = nil
			a.presenter.SetTransform(final, a.cfg.SkipDuration)
			if !settle.Stop() {
				<-settle.C
			}
			settle.Reset(a.cfg.SkipDuration)
			start = time.Now()
			duration = a.cfg.SkipDuration

		case now := <-frames.C:
			idx := a.indexUnderCursor(final, start, now, duration)
			if idx != lastIndex {
				lastIndex = idx
				ticks.tick(now)
			}

		case <-settle.C:
			return nil
		}
	}
}

// Skip short-circuits the current spin to its settled state. Returns false
// when nothing is playing or the spin was already skipped.
func (a *Animator) Skip() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.playing || a.skipped {
		return false
	}
	a.skipped = true
	close(a.skipCh)
	return true
}

// indexUnderCursor interpolates the eased transform at the given instant and
// maps it back to the sequence index currently under the viewport cursor
func (a *Animator) indexUnderCursor(final float64, start, now time.Time, duration time.Duration) int {
	p := float64(now.Sub(start)) / float64(duration)
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	// ease-out cubic approximates the CSS deceleration curve
	eased := 1 - math.Pow(1-p, 3)

	offset := -final * eased // distance scrolled so far
	step := a.cfg.Layout.StepPx
	if step <= 0 {
		return 0
	}
	cursorX := a.cfg.Layout.ViewportPx / 2
	return int(math.Floor((offset + cursorX) / step))
}
