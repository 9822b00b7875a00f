package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 16; i++ {
		assert.Equal(t, a.IntN(3), b.IntN(3))
	}
}

func TestNewDiffersBySeed(t *testing.T) {
	a, b := New(1), New(2)
	same := true
	for i := 0; i < 16; i++ {
		if a.Uint64() != b.Uint64() {
			same = false
		}
	}
	assert.False(t, same)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, int64(7), Resolve(7))
	assert.NotZero(t, Resolve(0))
}
