package classifier

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/lox/rpsvision/internal/camera"
)

// Step is one scripted classifier answer
type Step struct {
	Predictions []Prediction
	Err         error
}

// Label returns a step answering label with full confidence
func Label(label string) Step {
	return Step{Predictions: []Prediction{{Label: label, Confidence: 1}}}
}

// Fail returns a step that fails with err
func Fail(err error) Step {
	return Step{Err: err}
}

// Scripted replays a fixed sequence of answers. Once the script is
// exhausted the last step repeats.
type Scripted struct {
	mu    sync.Mutex
	steps []Step
	next  int
	calls int
}

// NewScripted creates a classifier that answers with steps in order
func NewScripted(steps ...Step) *Scripted {
	return &Scripted{steps: steps}
}

// Predict implements Classifier
func (s *Scripted) Predict(ctx context.Context, _ camera.Frame) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.steps) == 0 {
		return nil, nil
	}
	step := s.steps[s.next]
	if s.next < len(s.steps)-1 {
		s.next++
	}
	return step.Predictions, step.Err
}

// Calls returns how many times Predict has been invoked
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Manual answers with whatever label was last set. The demo CLI binds it to
// keys so a match can be played without a real model.
type Manual struct {
	mu    sync.RWMutex
	label string
}

// NewManual creates a manual classifier answering "none"
func NewManual() *Manual {
	return &Manual{label: "none"}
}

// Set changes the label returned from now on
func (m *Manual) Set(label string) {
	m.mu.Lock()
	m.label = label
	m.mu.Unlock()
}

// Predict implements Classifier
func (m *Manual) Predict(ctx context.Context, _ camera.Frame) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return []Prediction{{Label: m.label, Confidence: 1}}, nil
}

// Cycle rotates through labels on a fixed period. The model-server command
// serves it so the remote path can be exercised without a trained model.
type Cycle struct {
	clock  quartz.Clock
	period time.Duration
	labels []string
	start  time.Time
}

// NewCycle starts cycling labels from now, holding each for period
func NewCycle(clock quartz.Clock, period time.Duration, labels ...string) *Cycle {
	if period <= 0 {
		period = time.Second
	}
	return &Cycle{clock: clock, period: period, labels: labels, start: clock.Now()}
}

// Predict implements Classifier
func (c *Cycle) Predict(ctx context.Context, _ camera.Frame) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(c.labels) == 0 {
		return nil, nil
	}
	n := int(c.clock.Now().Sub(c.start) / c.period)
	return []Prediction{{Label: c.labels[n%len(c.labels)], Confidence: 1}}, nil
}
