package match

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/lox/rpsvision/internal/gesture"
	"github.com/lox/rpsvision/internal/randutil"
)

var (
	// ErrGestureNotRecognized rejects a commit while the prediction is
	// Unknown. The user can simply try again.
	ErrGestureNotRecognized = errors.New("gesture not recognized, try again")
	// ErrInvalidPhase means an operation was attempted in a phase that does
	// not allow it. Correct UI wiring never triggers it.
	ErrInvalidPhase = errors.New("operation not allowed in current phase")
	// ErrMatchEnded accompanies ErrInvalidPhase once the match is over.
	ErrMatchEnded = errors.New("match has ended")
)

// Machine is the match state machine. All methods are safe for concurrent
// use; each transition is atomic.
type Machine struct {
	predictions PredictionReader
	moves       MoveSource
	bus         EventBus
	clock       quartz.Clock
	logger      *log.Logger
	newID       func() string

	mu    sync.Mutex
	state State

	// emitMu serialises transitions together with their events, so events
	// arrive in transition order. Subscribers may read State but must not
	// call the transition methods.
	emitMu sync.Mutex
}

// Option configures a Machine
type Option func(*Machine)

// WithMoveSource sets where the computer's moves come from
func WithMoveSource(src MoveSource) Option {
	return func(m *Machine) { m.moves = src }
}

// WithEventBus publishes transitions on bus
func WithEventBus(bus EventBus) Option {
	return func(m *Machine) { m.bus = bus }
}

// WithClock sets the clock used for event timestamps
func WithClock(clock quartz.Clock) Option {
	return func(m *Machine) { m.clock = clock }
}

// WithIDGenerator overrides how match IDs are generated
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) { m.newID = fn }
}

// NewMachine creates a machine reading the user's move from predictions
func NewMachine(predictions PredictionReader, logger *log.Logger, opts ...Option) *Machine {
	m := &Machine{
		predictions: predictions,
		logger:      logger.WithPrefix("match"),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.moves == nil {
		m.moves = NewRandomMoves(randutil.New(randutil.Resolve(0)))
	}
	if m.bus == nil {
		m.bus = NewEventBus()
	}
	if m.clock == nil {
		m.clock = quartz.NewReal()
	}
	m.state = newState(m.newID())
	return m
}

// State returns a snapshot of the match
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// EventBus returns the bus transitions are published on
func (m *Machine) EventBus() EventBus {
	return m.bus
}

// CommitMove locks in the current gesture as the user's move, draws the
// computer's move and resolves the round. The gesture is read exactly once,
// so later predictions cannot change this round's outcome.
func (m *Machine) CommitMove() (RoundRecord, error) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()

	if m.state.Phase != AwaitingMove {
		err := m.phaseError("commit")
		m.mu.Unlock()
		return RoundRecord{}, err
	}

	userMove := m.predictions.Gesture()
	if !userMove.Valid() {
		snapshot := m.state.Clone()
		m.mu.Unlock()
		m.logger.Debug("Commit rejected", "round", snapshot.CurrentRound, "gesture", userMove)
		m.publish(EventTypeCommitRejected, snapshot, ErrGestureNotRecognized)
		return RoundRecord{}, ErrGestureNotRecognized
	}

	computerMove := m.moves.Next()
	if !computerMove.Valid() {
		m.mu.Unlock()
		m.logger.Error("Move source produced an unplayable move", "move", computerMove)
		return RoundRecord{}, fmt.Errorf("move source produced %s", computerMove)
	}

	rec := RoundRecord{
		Round:        m.state.CurrentRound,
		UserMove:     userMove,
		ComputerMove: computerMove,
		Outcome:      gesture.Judge(userMove, computerMove),
	}
	switch rec.Outcome {
	case gesture.Win:
		m.state.UserScore++
	case gesture.Lose:
		m.state.ComputerScore++
	}
	m.state.LastRound = &rec
	m.state.History = append(m.state.History, rec)
	m.state.Phase = RoundResolved

	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.logger.Info("Round resolved",
		"match", snapshot.ID,
		"round", rec.Round,
		"user", rec.UserMove,
		"computer", rec.ComputerMove,
		"outcome", rec.Outcome,
		"score", fmt.Sprintf("%d-%d", snapshot.UserScore, snapshot.ComputerScore))
	m.publish(EventTypeRoundResolved, snapshot, nil)

	return rec, nil
}

// AdvanceRound moves a resolved round on to the next one, or ends the
// match after the final round. The final result compares cumulative
// scores; draws count as played rounds.
func (m *Machine) AdvanceRound() (State, error) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()

	if m.state.Phase != RoundResolved {
		err := m.phaseError("advance")
		m.mu.Unlock()
		return State{}, err
	}

	eventType := EventTypeRoundAdvanced
	if m.state.CurrentRound < Rounds {
		m.state.CurrentRound++
		m.state.LastRound = nil
		m.state.Phase = AwaitingMove
	} else {
		m.state.Result = finalResult(m.state.UserScore, m.state.ComputerScore)
		m.state.Phase = MatchEnded
		eventType = EventTypeMatchEnded
	}

	snapshot := m.state.Clone()
	m.mu.Unlock()

	if eventType == EventTypeMatchEnded {
		m.logger.Info("Match ended",
			"match", snapshot.ID,
			"result", snapshot.Result,
			"score", fmt.Sprintf("%d-%d", snapshot.UserScore, snapshot.ComputerScore))
	} else {
		m.logger.Debug("Round advanced", "match", snapshot.ID, "round", snapshot.CurrentRound)
	}
	m.publish(eventType, snapshot, nil)

	return snapshot, nil
}

// Reset discards the current match and starts a fresh one
func (m *Machine) Reset() State {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	previous := m.state.ID
	m.state = newState(m.newID())
	snapshot := m.state.Clone()
	m.mu.Unlock()

	m.logger.Info("Match reset", "previous", previous, "match", snapshot.ID)
	m.publish(EventTypeMatchReset, snapshot, nil)

	return snapshot
}

// phaseError must be called with mu held
func (m *Machine) phaseError(op string) error {
	phase := m.state.Phase
	m.logger.Error("Invalid match transition", "op", op, "phase", phase, "match", m.state.ID)
	if phase == MatchEnded {
		return fmt.Errorf("%s in %s: %w: %w", op, phase, ErrInvalidPhase, ErrMatchEnded)
	}
	return fmt.Errorf("%s in %s: %w", op, phase, ErrInvalidPhase)
}

func (m *Machine) publish(t EventType, s State, err error) {
	m.bus.Publish(Event{
		Type:      t,
		State:     s,
		Err:       err,
		Timestamp: m.clock.Now("match", "event"),
	})
}
