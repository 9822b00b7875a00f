// Package classifier defines the contract with the external gesture model
// and provides adapters for it.
//
// A classifier receives the current camera frame and returns scored labels
// ordered best first. Callers only ever look at the top label and translate
// it with gesture.FromLabel.
package classifier

import (
	"context"

	"github.com/lox/rpsvision/internal/camera"
)

// Prediction is a single scored label
type Prediction struct {
	Label      string  `msgpack:"label"`
	Confidence float64 `msgpack:"confidence"`
}

// Classifier predicts hand-gesture labels for a frame. Implementations may
// block until the model answers and must honour ctx cancellation.
type Classifier interface {
	Predict(ctx context.Context, frame camera.Frame) ([]Prediction, error)
}

// Func adapts a plain function into a Classifier
type Func func(ctx context.Context, frame camera.Frame) ([]Prediction, error)

// Predict calls f
func (f Func) Predict(ctx context.Context, frame camera.Frame) ([]Prediction, error) {
	return f(ctx, frame)
}

// Top returns the highest-confidence prediction. Ties keep the earliest
// entry, so an already ordered slice yields its first element.
func Top(preds []Prediction) (Prediction, bool) {
	if len(preds) == 0 {
		return Prediction{}, false
	}
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}
	return best, true
}
