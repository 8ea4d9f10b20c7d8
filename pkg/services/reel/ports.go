package reel

import "time"

// Presenter is the capability-checked presentation port. The engine runs
// headless when only the null implementation is wired, so every method must
// be safe to call in any order.
type Presenter interface {
	// RenderSequence lays out the reel strip at offset zero
	RenderSequence(seq *Sequence)

	// SetTransform animates the strip to the given horizontal offset over
	// the duration
	SetTransform(offsetPx float64, duration time.Duration)
}

// NullPresenter is the no-op presenter for headless and test contexts
type NullPresenter struct{}

func (NullPresenter) RenderSequence(*Sequence)            {}
func (NullPresenter) SetTransform(float64, time.Duration) {}

// SoundHandle is one pre-loaded audio clip
type SoundHandle interface {
	Play()
}

// SoundBank holds the clips the open sequence uses. Nil handles are skipped,
// so a silent deployment just leaves the bank empty.
type SoundBank struct {
	PackOpen  SoundHandle
	Reveal    SoundHandle
	Legendary SoundHandle
	TickA     SoundHandle
	TickB     SoundHandle
}

// play fires a handle if it is present
func play(h SoundHandle) {
	if h != nil {
		h.Play()
	}
}

// tickPlayer fires reel ticks, alternating two handles so overlapping ticks
// don't cut each other off, rate-limited to avoid machine-gunning
type tickPlayer struct {
	a, b     SoundHandle
	flip     bool
	minGap   time.Duration
	lastTick time.Time
}

func newTickPlayer(bank *SoundBank, minGap time.Duration) *tickPlayer {
	return &tickPlayer{a: bank.TickA, b: bank.TickB, minGap: minGap}
}

func (t *tickPlayer) tick(now time.Time) {
	if now.Sub(t.lastTick) < t.minGap {
		return
	}
	t.lastTick = now

	h := t.a
	if t.flip {
		h = t.b
	}
	t.flip = !t.flip
	play(h)
}
