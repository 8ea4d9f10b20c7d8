package reel

import (
	"errors"
	"fmt"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

// DefaultLength is the reference reel size
const DefaultLength = 60

// minStopIndex keeps the winner deep enough into the strip that the spin
// has visible travel
const minStopIndex = 20

var ErrNilWinner = errors.New("sequence needs a winning card")

// CardPicker draws one decoy card from a pack. The resolver satisfies this,
// so decoys reuse the real draw logic even though they are cosmetic.
type CardPicker interface {
	PickCard(pack *entities.Pack) (*entities.Card, error)
}

// Sequence is the decorative strip of cards shown during a spin. The card at
// StopIndex is the true winner; everything else is a decoy. It is never a
// source of truth for the outcome.
type Sequence struct {
	Cards     []*entities.Card
	StopIndex int
}

// Winner returns the card the reel settles on
func (s *Sequence) Winner() *entities.Card {
	return s.Cards[s.StopIndex]
}

// BuildSequence generates a reel of the given length ending at the winner.
// Decoys are independent draws from the pack roster; repeats are fine.
func BuildSequence(winner *entities.Card, pack *entities.Pack, picker CardPicker, length int) (*Sequence, error) {
	if winner == nil {
		return nil, ErrNilWinner
	}
	if length <= 0 {
		length = DefaultLength
	}

	cards := make([]*entities.Card, length)
	for i := range cards {
		decoy, err := picker.PickCard(pack)
		if err != nil {
			return nil, fmt.Errorf("building decoy %d: %w", i, err)
		}
		cards[i] = decoy
	}

	stop := length - 10
	if stop < minStopIndex {
		stop = minStopIndex
	}
	if stop >= length {
		stop = length - 1
	}
	cards[stop] = winner

	return &Sequence{Cards: cards, StopIndex: stop}, nil
}
