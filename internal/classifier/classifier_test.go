package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/rpsvision/internal/camera"
)

func TestTop(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok := Top(nil)
		assert.False(t, ok)
	})

	t.Run("ordered input returns first", func(t *testing.T) {
		p, ok := Top([]Prediction{{"rock", 0.9}, {"paper", 0.1}})
		require.True(t, ok)
		assert.Equal(t, "rock", p.Label)
	})

	t.Run("unordered input returns best", func(t *testing.T) {
		p, ok := Top([]Prediction{{"none", 0.2}, {"scissors", 0.7}, {"paper", 0.1}})
		require.True(t, ok)
		assert.Equal(t, "scissors", p.Label)
	})

	t.Run("ties keep earliest", func(t *testing.T) {
		p, _ := Top([]Prediction{{"paper", 0.5}, {"rock", 0.5}})
		assert.Equal(t, "paper", p.Label)
	})
}

func TestScripted(t *testing.T) {
	boom := errors.New("boom")
	s := NewScripted(Label("rock"), Fail(boom), Label("paper"))
	ctx := context.Background()

	preds, err := s.Predict(ctx, camera.Frame{})
	require.NoError(t, err)
	assert.Equal(t, "rock", preds[0].Label)

	_, err = s.Predict(ctx, camera.Frame{})
	assert.ErrorIs(t, err, boom)

	for range 3 {
		preds, err = s.Predict(ctx, camera.Frame{})
		require.NoError(t, err)
		assert.Equal(t, "paper", preds[0].Label, "last step repeats")
	}
	assert.Equal(t, 5, s.Calls())
}

func TestScriptedEmptyAndCancelled(t *testing.T) {
	s := NewScripted()
	preds, err := s.Predict(context.Background(), camera.Frame{})
	require.NoError(t, err)
	assert.Empty(t, preds)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Predict(ctx, camera.Frame{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManual(t *testing.T) {
	m := NewManual()
	preds, err := m.Predict(context.Background(), camera.Frame{})
	require.NoError(t, err)
	assert.Equal(t, "none", preds[0].Label)

	m.Set("scissors")
	preds, _ = m.Predict(context.Background(), camera.Frame{})
	assert.Equal(t, "scissors", preds[0].Label)
}

func TestCycle(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	c := NewCycle(clock, time.Second, "rock", "paper", "scissors")

	label := func() string {
		preds, err := c.Predict(ctx, camera.Frame{})
		require.NoError(t, err)
		require.Len(t, preds, 1)
		return preds[0].Label
	}

	assert.Equal(t, "rock", label())
	clock.Advance(999 * time.Millisecond).MustWait(ctx)
	assert.Equal(t, "rock", label())
	clock.Advance(time.Millisecond).MustWait(ctx)
	assert.Equal(t, "paper", label())
	clock.Advance(2 * time.Second).MustWait(ctx)
	assert.Equal(t, "rock", label(), "wraps around")

	empty := NewCycle(clock, 0)
	preds, err := empty.Predict(ctx, camera.Frame{})
	require.NoError(t, err)
	assert.Empty(t, preds)
}
