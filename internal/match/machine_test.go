package match

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/rpsvision/internal/gesture"
	"github.com/lox/rpsvision/internal/randutil"
)

// heldGesture is a prediction reader tests can change between commits
type heldGesture struct {
	g atomic.Int64
}

func hold(g gesture.Gesture) *heldGesture {
	h := &heldGesture{}
	h.set(g)
	return h
}

func (h *heldGesture) set(g gesture.Gesture)     { h.g.Store(int64(g)) }
func (h *heldGesture) Gesture() gesture.Gesture { return gesture.Gesture(h.g.Load()) }

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("match-%d", n)
	}
}

func newTestMachine(preds PredictionReader, computer ...gesture.Gesture) *Machine {
	return NewMachine(preds, log.New(io.Discard),
		WithMoveSource(NewFixedMoves(computer...)),
		WithIDGenerator(sequentialIDs()),
	)
}

// play commits and advances one round with the given moves
func play(t *testing.T, m *Machine, h *heldGesture, user gesture.Gesture) RoundRecord {
	t.Helper()
	h.set(user)
	rec, err := m.CommitMove()
	require.NoError(t, err)
	require.NoError(t, m.State().Check())
	_, err = m.AdvanceRound()
	require.NoError(t, err)
	require.NoError(t, m.State().Check())
	return rec
}

func TestNewMachineInitialState(t *testing.T) {
	m := newTestMachine(hold(gesture.Unknown), gesture.Rock)
	s := m.State()

	assert.Equal(t, "match-1", s.ID)
	assert.Equal(t, 1, s.CurrentRound)
	assert.Zero(t, s.UserScore)
	assert.Zero(t, s.ComputerScore)
	assert.Equal(t, AwaitingMove, s.Phase)
	assert.Equal(t, NoResult, s.Result)
	assert.Nil(t, s.LastRound)
	assert.Equal(t, gesture.Unknown, s.LastComputerMove())
	_, ok := s.LastOutcome()
	assert.False(t, ok)
	assert.NoError(t, s.Check())
}

func TestCommitResolvesRound(t *testing.T) {
	tests := []struct {
		user, computer gesture.Gesture
		outcome        gesture.Outcome
		userScore      int
		computerScore  int
	}{
		{gesture.Rock, gesture.Scissors, gesture.Win, 1, 0},
		{gesture.Paper, gesture.Paper, gesture.Draw, 0, 0},
		{gesture.Scissors, gesture.Rock, gesture.Lose, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.user.String()+"_vs_"+tt.computer.String(), func(t *testing.T) {
			m := newTestMachine(hold(tt.user), tt.computer)

			rec, err := m.CommitMove()
			require.NoError(t, err)
			assert.Equal(t, RoundRecord{Round: 1, UserMove: tt.user, ComputerMove: tt.computer, Outcome: tt.outcome}, rec)

			s := m.State()
			assert.Equal(t, RoundResolved, s.Phase)
			assert.Equal(t, tt.userScore, s.UserScore)
			assert.Equal(t, tt.computerScore, s.ComputerScore)
			assert.Equal(t, tt.computer, s.LastComputerMove())
			outcome, ok := s.LastOutcome()
			require.True(t, ok)
			assert.Equal(t, tt.outcome, outcome)
			assert.Len(t, s.History, 1)
		})
	}
}

func TestCommitWithUnknownGestureIsRejected(t *testing.T) {
	bus := NewEventBus()
	var events []Event
	bus.Subscribe(SubscriberFunc(func(e Event) { events = append(events, e) }))

	h := hold(gesture.Unknown)
	m := NewMachine(h, log.New(io.Discard),
		WithMoveSource(NewFixedMoves(gesture.Rock)),
		WithEventBus(bus),
		WithIDGenerator(sequentialIDs()))
	before := m.State()

	_, err := m.CommitMove()
	require.ErrorIs(t, err, ErrGestureNotRecognized)
	assert.Equal(t, before, m.State(), "rejected commit must not mutate state")

	require.Len(t, events, 1)
	assert.Equal(t, EventTypeCommitRejected, events[0].Type)
	assert.ErrorIs(t, events[0].Err, ErrGestureNotRecognized)

	// Still rejected in a later round
	h.set(gesture.Rock)
	_, err = m.CommitMove()
	require.NoError(t, err)
	_, err = m.AdvanceRound()
	require.NoError(t, err)

	h.set(gesture.Unknown)
	before = m.State()
	_, err = m.CommitMove()
	require.ErrorIs(t, err, ErrGestureNotRecognized)
	assert.Equal(t, before, m.State())
}

func TestCommitOutsideAwaitingMove(t *testing.T) {
	h := hold(gesture.Rock)
	m := newTestMachine(h, gesture.Scissors)

	_, err := m.CommitMove()
	require.NoError(t, err)

	before := m.State()
	_, err = m.CommitMove()
	require.ErrorIs(t, err, ErrInvalidPhase)
	assert.NotErrorIs(t, err, ErrMatchEnded)
	assert.Equal(t, before, m.State())
}

func TestAdvanceRequiresResolvedRound(t *testing.T) {
	m := newTestMachine(hold(gesture.Rock), gesture.Rock)
	before := m.State()

	_, err := m.AdvanceRound()
	require.ErrorIs(t, err, ErrInvalidPhase)
	assert.Equal(t, before, m.State())
}

func TestAdvanceClearsLastRound(t *testing.T) {
	m := newTestMachine(hold(gesture.Rock), gesture.Scissors)
	_, err := m.CommitMove()
	require.NoError(t, err)

	s, err := m.AdvanceRound()
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentRound)
	assert.Equal(t, AwaitingMove, s.Phase)
	assert.Nil(t, s.LastRound)
	assert.Equal(t, gesture.Unknown, s.LastComputerMove())
	assert.Equal(t, 1, s.UserScore, "scores carry across rounds")
	assert.Len(t, s.History, 1)
}

func TestFullMatchAggregatesScores(t *testing.T) {
	// Lose round one, win rounds two and three
	h := hold(gesture.Unknown)
	m := newTestMachine(h, gesture.Paper, gesture.Scissors, gesture.Paper)

	assert.Equal(t, gesture.Lose, play(t, m, h, gesture.Rock).Outcome)
	assert.Equal(t, gesture.Win, play(t, m, h, gesture.Rock).Outcome)
	assert.Equal(t, gesture.Win, play(t, m, h, gesture.Scissors).Outcome)

	s := m.State()
	assert.Equal(t, MatchEnded, s.Phase)
	assert.Equal(t, UserWins, s.Result)
	assert.Equal(t, 2, s.UserScore)
	assert.Equal(t, 1, s.ComputerScore)
	assert.Equal(t, 3, s.CurrentRound)
	assert.Len(t, s.History, 3)
	assert.NotNil(t, s.LastRound, "final round stays visible on the result screen")
}

func TestFinalResults(t *testing.T) {
	tests := []struct {
		name     string
		user     []gesture.Gesture
		computer []gesture.Gesture
		want     Result
	}{
		{
			name:     "computer wins",
			user:     []gesture.Gesture{gesture.Rock, gesture.Rock, gesture.Rock},
			computer: []gesture.Gesture{gesture.Paper, gesture.Rock, gesture.Rock},
			want:     ComputerWins,
		},
		{
			name:     "all draws",
			user:     []gesture.Gesture{gesture.Rock, gesture.Paper, gesture.Scissors},
			computer: []gesture.Gesture{gesture.Rock, gesture.Paper, gesture.Scissors},
			want:     Tie,
		},
		{
			name:     "one win one loss one draw",
			user:     []gesture.Gesture{gesture.Rock, gesture.Rock, gesture.Paper},
			computer: []gesture.Gesture{gesture.Scissors, gesture.Paper, gesture.Paper},
			want:     Tie,
		},
		{
			name:     "single win and two draws",
			user:     []gesture.Gesture{gesture.Paper, gesture.Paper, gesture.Paper},
			computer: []gesture.Gesture{gesture.Paper, gesture.Rock, gesture.Paper},
			want:     UserWins,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := hold(gesture.Unknown)
			m := newTestMachine(h, tt.computer...)
			for _, g := range tt.user {
				play(t, m, h, g)
			}
			s := m.State()
			assert.Equal(t, MatchEnded, s.Phase)
			assert.Equal(t, tt.want, s.Result)
		})
	}
}

func TestDrawsConsumeRounds(t *testing.T) {
	h := hold(gesture.Unknown)
	m := newTestMachine(h, gesture.Rock)

	play(t, m, h, gesture.Rock)
	assert.Equal(t, 2, m.State().CurrentRound)
	play(t, m, h, gesture.Rock)
	play(t, m, h, gesture.Rock)
	assert.Equal(t, MatchEnded, m.State().Phase)
}

func TestEndedMatchIsTerminal(t *testing.T) {
	h := hold(gesture.Unknown)
	m := newTestMachine(h, gesture.Scissors)
	for range Rounds {
		play(t, m, h, gesture.Rock)
	}
	ended := m.State()

	h.set(gesture.Paper)
	_, err := m.CommitMove()
	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.ErrorIs(t, err, ErrMatchEnded)

	_, err = m.AdvanceRound()
	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.ErrorIs(t, err, ErrMatchEnded)

	assert.Equal(t, ended, m.State())
}

func TestResetFromAnyState(t *testing.T) {
	setups := map[string]func(*Machine, *heldGesture){
		"fresh": func(*Machine, *heldGesture) {},
		"resolved": func(m *Machine, h *heldGesture) {
			h.set(gesture.Rock)
			_, _ = m.CommitMove()
		},
		"mid match": func(m *Machine, h *heldGesture) {
			h.set(gesture.Rock)
			_, _ = m.CommitMove()
			_, _ = m.AdvanceRound()
		},
		"ended": func(m *Machine, h *heldGesture) {
			h.set(gesture.Rock)
			for range Rounds {
				_, _ = m.CommitMove()
				_, _ = m.AdvanceRound()
			}
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			h := hold(gesture.Unknown)
			m := newTestMachine(h, gesture.Scissors)
			setup(m, h)
			oldID := m.State().ID

			s := m.Reset()
			assert.NotEqual(t, oldID, s.ID)
			assert.Equal(t, 1, s.CurrentRound)
			assert.Zero(t, s.UserScore)
			assert.Zero(t, s.ComputerScore)
			assert.Equal(t, AwaitingMove, s.Phase)
			assert.Equal(t, NoResult, s.Result)
			assert.Nil(t, s.LastRound)
			assert.Empty(t, s.History)
			assert.Equal(t, s, m.State())
		})
	}
}

func TestResetDoesNotTouchPredictions(t *testing.T) {
	h := hold(gesture.Paper)
	m := newTestMachine(h, gesture.Rock)
	m.Reset()
	assert.Equal(t, gesture.Paper, h.Gesture())
}

func TestCommitSnapshotsGestureOnce(t *testing.T) {
	var reads atomic.Int32
	preds := PredictionFunc(func() gesture.Gesture {
		if reads.Add(1) == 1 {
			return gesture.Rock
		}
		return gesture.Paper
	})
	m := newTestMachine(preds, gesture.Scissors)

	rec, err := m.CommitMove()
	require.NoError(t, err)
	assert.Equal(t, gesture.Rock, rec.UserMove)
	assert.Equal(t, gesture.Win, rec.Outcome)
	assert.Equal(t, int32(1), reads.Load())
}

func TestConcurrentCommitsResolveOnce(t *testing.T) {
	m := newTestMachine(hold(gesture.Rock), gesture.Scissors)

	var wg sync.WaitGroup
	var ok atomic.Int32
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.CommitMove(); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	s := m.State()
	assert.Equal(t, 1, s.UserScore)
	assert.Len(t, s.History, 1)
}

func TestScoresStayBoundedWithRandomMoves(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		rng := randutil.New(seed)
		h := hold(gesture.Unknown)
		m := NewMachine(h, log.New(io.Discard), WithMoveSource(NewRandomMoves(randutil.New(seed+1000))))

		for range Rounds {
			h.set(gesture.Playable[rng.IntN(3)])
			_, err := m.CommitMove()
			require.NoError(t, err)
			s := m.State()
			require.NoError(t, s.Check(), "seed %d", seed)
			require.LessOrEqual(t, s.UserScore+s.ComputerScore, Rounds)
			_, err = m.AdvanceRound()
			require.NoError(t, err)
			require.NoError(t, m.State().Check(), "seed %d", seed)
		}
		require.Equal(t, MatchEnded, m.State().Phase)
	}
}

func TestSeededMovesAreReproducible(t *testing.T) {
	a := NewRandomMoves(randutil.New(7))
	b := NewRandomMoves(randutil.New(7))
	for range 20 {
		g := a.Next()
		assert.True(t, g.Valid())
		assert.Equal(t, g, b.Next())
	}
}

func TestEventsFollowTransitions(t *testing.T) {
	mClock := quartz.NewMock(t)
	bus := NewEventBus()
	var events []Event
	sub := SubscriberFunc(func(e Event) { events = append(events, e) })
	bus.Subscribe(sub)

	h := hold(gesture.Rock)
	m := NewMachine(h, log.New(io.Discard),
		WithMoveSource(NewFixedMoves(gesture.Scissors)),
		WithEventBus(bus),
		WithClock(mClock),
		WithIDGenerator(sequentialIDs()))

	for range Rounds {
		_, err := m.CommitMove()
		require.NoError(t, err)
		_, err = m.AdvanceRound()
		require.NoError(t, err)
	}
	m.Reset()

	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
		assert.Equal(t, mClock.Now(), e.Timestamp)
	}
	assert.Equal(t, []EventType{
		EventTypeRoundResolved, EventTypeRoundAdvanced,
		EventTypeRoundResolved, EventTypeRoundAdvanced,
		EventTypeRoundResolved, EventTypeMatchEnded,
		EventTypeMatchReset,
	}, types)

	ended := events[5].State
	assert.Equal(t, UserWins, ended.Result)
	assert.Equal(t, 3, ended.UserScore)
	assert.Equal(t, "match-2", events[6].State.ID)
}

func TestSnapshotsAreCopies(t *testing.T) {
	m := newTestMachine(hold(gesture.Rock), gesture.Scissors)
	_, err := m.CommitMove()
	require.NoError(t, err)

	s := m.State()
	s.LastRound.Outcome = gesture.Lose
	s.History[0].UserMove = gesture.Paper
	s.UserScore = 99

	fresh := m.State()
	assert.Equal(t, gesture.Win, fresh.LastRound.Outcome)
	assert.Equal(t, gesture.Rock, fresh.History[0].UserMove)
	assert.Equal(t, 1, fresh.UserScore)
}
