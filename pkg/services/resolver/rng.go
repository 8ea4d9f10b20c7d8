package resolver

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource abstracts the uniform draw so resolution is testable and
// replayable. Float64 must return values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// cryptoRNG is the default source; paid draws should not be predictable
// from process state.
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		return rand.Float64()
	}

	// top 53 bits give a uniform double in [0,1)
	u := binary.BigEndian.Uint64(buf[:]) >> 11
	return float64(u) / (1 << 53)
}

// DefaultRNG returns the crypto-backed random source
func DefaultRNG() RandomSource { return cryptoRNG{} }

// seededRNG is a replicable source for tests and frequency audits
type seededRNG struct{ r *rand.Rand }

// NewSeededRNG returns a deterministic random source seeded with the value
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }
