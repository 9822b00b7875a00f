package match

import (
	rand "math/rand/v2"
	"sync"

	"github.com/lox/rpsvision/internal/gesture"
)

// MoveSource picks the computer's move
type MoveSource interface {
	Next() gesture.Gesture
}

// PredictionReader exposes the latest classified gesture
type PredictionReader interface {
	Gesture() gesture.Gesture
}

// PredictionFunc adapts a function into a PredictionReader
type PredictionFunc func() gesture.Gesture

// Gesture calls f
func (f PredictionFunc) Gesture() gesture.Gesture { return f() }

// RandomMoves draws uniformly from rock, paper and scissors
type RandomMoves struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomMoves creates a move source backed by rng
func NewRandomMoves(rng *rand.Rand) *RandomMoves {
	return &RandomMoves{rng: rng}
}

// Next implements MoveSource
func (r *RandomMoves) Next() gesture.Gesture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gesture.Playable[r.rng.IntN(len(gesture.Playable))]
}

// FixedMoves replays a sequence of moves, wrapping around at the end
type FixedMoves struct {
	mu    sync.Mutex
	moves []gesture.Gesture
	next  int
}

// NewFixedMoves creates a move source replaying moves
func NewFixedMoves(moves ...gesture.Gesture) *FixedMoves {
	return &FixedMoves{moves: moves}
}

// Next implements MoveSource
func (f *FixedMoves) Next() gesture.Gesture {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.moves) == 0 {
		return gesture.Unknown
	}
	g := f.moves[f.next%len(f.moves)]
	f.next++
	return g
}
