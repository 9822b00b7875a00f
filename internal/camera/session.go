package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// State is the setup state of a camera session
type State int

const (
	Idle State = iota
	Acquiring
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Acquiring:
		return "acquiring"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "invalid"
	}
}

// ErrAlreadyOpen is returned when Open is called on a session that is
// acquiring or ready.
var ErrAlreadyOpen = errors.New("camera session already open")

// Opener acquires a frame source, for example by asking the OS for the
// camera device and waiting for the first frame.
type Opener func(ctx context.Context) (Source, error)

// Session gates everything downstream of the camera on a successful setup.
// Inference must not start until Ready is closed.
type Session struct {
	opener Opener
	logger *log.Logger

	mu     sync.Mutex
	state  State
	source Source
	err    error
	ready  chan struct{}
}

// NewSession creates an idle session that acquires its source with opener
func NewSession(opener Opener, logger *log.Logger) *Session {
	return &Session{
		opener: opener,
		logger: logger.WithPrefix("camera"),
		ready:  make(chan struct{}),
	}
}

// Open acquires the source. Failures are returned as *SetupError and move
// the session to Failed; a failed session may be opened again.
func (s *Session) Open(ctx context.Context) (Source, error) {
	s.mu.Lock()
	switch s.state {
	case Acquiring, Ready:
		s.mu.Unlock()
		return nil, ErrAlreadyOpen
	}
	s.state = Acquiring
	s.err = nil
	s.mu.Unlock()

	s.logger.Debug("Acquiring camera")
	src, err := s.opener(ctx)
	if err == nil && src == nil {
		err = fmt.Errorf("opener returned no source: %w", ErrUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		setupErr := &SetupError{Cause: err}
		s.state = Failed
		s.err = setupErr
		s.logger.Error("Camera setup failed", "error", err)
		return nil, setupErr
	}

	s.state = Ready
	s.source = src
	close(s.ready)
	s.logger.Info("Camera ready")
	return src, nil
}

// State returns the current setup state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the setup error of a failed session, or nil
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Ready returns a channel that is closed once the session reaches Ready
func (s *Session) Ready() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Source returns the acquired source, or nil unless the session is Ready
func (s *Session) Source() Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Close releases the source and returns the session to Idle
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		s.state = Idle
		return nil
	}

	var err error
	if s.source != nil {
		err = s.source.Close()
	}
	s.source = nil
	s.state = Idle
	s.ready = make(chan struct{})
	s.logger.Info("Camera released")
	return err
}
