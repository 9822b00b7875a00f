// Package inference runs the continuous gesture-classification loop.
//
// The loop samples the current camera frame, asks the classifier for a
// label and publishes the result as a State snapshot. It is the only writer
// of that state; the match machine reads it when the user commits a move.
// At most one classification is ever in flight.
package inference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/rpsvision/internal/camera"
	"github.com/lox/rpsvision/internal/classifier"
	"github.com/lox/rpsvision/internal/gesture"
)

// ErrAlreadyRunning is returned by Run when the loop is already scheduled
var ErrAlreadyRunning = errors.New("inference loop already running")

// State is a snapshot of the latest prediction
type State struct {
	Gesture    gesture.Gesture
	Label      string
	Confidence float64
	InFlight   bool

	ConsecutiveFailures int
	Degraded            bool
	LastError           string

	Ticks     uint64
	UpdatedAt time.Time
}

// Loop keeps State up to date with the user's current hand gesture
type Loop struct {
	source     camera.Source
	classifier classifier.Classifier
	clock      quartz.Clock
	logger     *log.Logger
	cfg        Config

	inFlight     atomic.Bool
	running      atomic.Bool
	sourceClosed atomic.Bool

	mu    sync.RWMutex
	state State

	subMu       sync.Mutex
	subscribers map[int]func(State)
	nextSubID   int

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// New creates a loop reading frames from source and labels from c
func New(source camera.Source, c classifier.Classifier, clock quartz.Clock, logger *log.Logger, cfg Config) *Loop {
	return &Loop{
		source:      source,
		classifier:  c,
		clock:       clock,
		logger:      logger.WithPrefix("inference"),
		cfg:         cfg.withDefaults(),
		subscribers: make(map[int]func(State)),
	}
}

// Current returns the latest prediction snapshot
func (l *Loop) Current() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Gesture returns the latest predicted gesture
func (l *Loop) Gesture() gesture.Gesture {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Gesture
}

// Subscribe registers fn to receive the snapshot produced by every tick.
// fn runs on the loop goroutine and must not block. The returned function
// removes the subscription.
func (l *Loop) Subscribe(fn func(State)) func() {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn

	return func() {
		l.subMu.Lock()
		delete(l.subscribers, id)
		l.subMu.Unlock()
	}
}

// Tick performs one classification. It returns false without doing
// anything if a classification is already in flight.
func (l *Loop) Tick(ctx context.Context) bool {
	if !l.inFlight.CompareAndSwap(false, true) {
		return false
	}

	l.notify(l.attempt(ctx))
	return true
}

// attempt runs one classification with the in-flight flag held
func (l *Loop) attempt(ctx context.Context) State {
	defer l.inFlight.Store(false)

	l.mu.Lock()
	l.state.InFlight = true
	l.mu.Unlock()

	g, top, err := l.classify(ctx)
	return l.record(ctx, g, top, err)
}

func (l *Loop) classify(ctx context.Context) (gesture.Gesture, classifier.Prediction, error) {
	frame, err := l.source.Frame()
	if errors.Is(err, camera.ErrClosed) {
		l.sourceClosed.Store(true)
	}
	if err != nil {
		return gesture.Unknown, classifier.Prediction{}, err
	}

	callCtx := ctx
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	preds, err := l.classifier.Predict(callCtx, frame)
	if err != nil {
		return gesture.Unknown, classifier.Prediction{}, err
	}

	top, ok := classifier.Top(preds)
	if !ok {
		return gesture.Unknown, classifier.Prediction{}, nil
	}
	return gesture.FromLabel(top.Label), top, nil
}

func (l *Loop) record(ctx context.Context, g gesture.Gesture, top classifier.Prediction, err error) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := &l.state
	s.InFlight = false
	s.Ticks++
	s.UpdatedAt = l.clock.Now("inference", "record")

	switch {
	case err != nil && (ctx.Err() != nil || errors.Is(err, camera.ErrClosed)):
		// Shutting down; the failure says nothing about the classifier
		s.Gesture = gesture.Unknown
	case err != nil:
		s.Gesture = gesture.Unknown
		s.Label = ""
		s.Confidence = 0
		s.ConsecutiveFailures++
		s.LastError = err.Error()
		l.logger.Debug("Classification failed", "error", err, "consecutive", s.ConsecutiveFailures)
		if !s.Degraded && s.ConsecutiveFailures >= l.cfg.DegradedAfter {
			s.Degraded = true
			l.logger.Warn("Classifier degraded", "consecutive_failures", s.ConsecutiveFailures, "error", err)
		}
	default:
		if s.Degraded {
			l.logger.Info("Classifier recovered", "after_failures", s.ConsecutiveFailures)
		}
		s.Gesture = g
		s.Label = top.Label
		s.Confidence = top.Confidence
		s.ConsecutiveFailures = 0
		s.Degraded = false
		s.LastError = ""
	}
	return *s
}

func (l *Loop) notify(s State) {
	l.subMu.Lock()
	subs := make([]func(State), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subs = append(subs, fn)
	}
	l.subMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Run ticks until ctx is cancelled, Stop is called or the frame source is
// released. Each tick is scheduled one interval after the previous one
// completes, or after the backoff delay while the classifier keeps
// failing. All three are clean stops and return nil.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.cancelMu.Lock()
	if !l.running.CompareAndSwap(false, true) {
		l.cancelMu.Unlock()
		return ErrAlreadyRunning
	}
	l.cancel = cancel
	l.cancelMu.Unlock()
	defer l.running.Store(false)

	l.logger.Info("Inference loop started", "interval", l.cfg.Interval)
	defer l.logger.Info("Inference loop stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}
		l.Tick(ctx)
		if l.sourceClosed.Load() {
			l.logger.Info("Frame source released, stopping")
			return nil
		}

		delay := l.cfg.Delay(l.Current().ConsecutiveFailures)
		timer := l.clock.NewTimer(delay, "inference", "next")
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Stop ends a running loop. It is safe to call when not running.
func (l *Loop) Stop() {
	l.cancelMu.Lock()
	defer l.cancelMu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
}

// Running reports whether Run is active
func (l *Loop) Running() bool {
	return l.running.Load()
}
