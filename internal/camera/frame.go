// Package camera models the frame source the inference loop samples and the
// session setup that must succeed before any match can begin.
package camera

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoFrame is returned by a source that has not produced a frame yet.
	ErrNoFrame = errors.New("no frame available")
	// ErrClosed is returned by a source after it has been released.
	ErrClosed = errors.New("camera source closed")
	// ErrPermissionDenied is the cause used when the user refuses camera access.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrUnavailable is the cause used when no camera device can be opened.
	ErrUnavailable = errors.New("camera unavailable")
)

// Frame is a single captured image. Data is shared between readers and
// must be treated as immutable once published.
type Frame struct {
	Seq        uint64
	Width      int
	Height     int
	Format     string
	Data       []byte
	CapturedAt time.Time
}

// Source yields the most recent frame on demand
type Source interface {
	// Frame returns the current frame without blocking
	Frame() (Frame, error)
	// Close releases the underlying device
	Close() error
}

// SetupError reports that the camera session could not be started. It is
// fatal to the session: no match may begin.
type SetupError struct {
	Cause error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("camera setup failed: %v", e.Cause)
}

func (e *SetupError) Unwrap() error { return e.Cause }
