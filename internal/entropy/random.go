// Package entropy provides the random sources behind rescue selection and item
// loss. Callers take a Source so tests can script exact draws.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
	"sync"
)

// Source yields random draws.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
}

// Seeded is a deterministic Source backed by math/rand.
type Seeded struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeeded creates a deterministic source.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

// Float64 implements Source.
func (s *Seeded) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Intn implements Source.
func (s *Seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Crypto draws from crypto/rand. The zero value is ready to use.
type Crypto struct{}

// Float64 implements Source.
func (Crypto) Float64() float64 {
	return cryptoRandFloat()
}

// Intn implements Source.
func (Crypto) Intn(n int) int {
	return scale(cryptoRandFloat(), n)
}

// Sequence replays a fixed list of floats, wrapping around when exhausted.
// Intn(n) maps the next float onto [0, n).
type Sequence struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

// NewSequence creates a Sequence over the given values.
func NewSequence(values ...float64) *Sequence {
	return &Sequence{values: values}
}

// Float64 implements Source.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

// Intn implements Source.
func (s *Sequence) Intn(n int) int {
	return scale(s.Float64(), n)
}

// Drawn returns how many values have been consumed.
func (s *Sequence) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func scale(f float64, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(f * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
