package camera

import (
	"context"
	"time"

	"github.com/coder/quartz"
)

// Synthetic produces moving test-pattern frames at a fixed rate. It stands
// in for a real device in demos and tests.
type Synthetic struct {
	Width  int
	Height int
	FPS    int
	Clock  quartz.Clock
}

type syntheticSource struct {
	*Mailbox
	cancel context.CancelFunc
	waiter quartz.Waiter
}

// Open starts the frame generator. The first frame is published before
// Open returns so the source is immediately readable.
func (s Synthetic) Open(ctx context.Context) (Source, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, ErrUnavailable
	}
	clock := s.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	fps := s.FPS
	if fps <= 0 {
		fps = 30
	}

	mb := NewMailbox()
	var n uint64
	publish := func() error {
		mb.Publish(Frame{
			Width:      s.Width,
			Height:     s.Height,
			Format:     "gray8",
			Data:       testPattern(s.Width, s.Height, n),
			CapturedAt: clock.Now("camera", "synthetic"),
		})
		n++
		return nil
	}
	_ = publish()

	// The generator outlives the setup context; Close stops it.
	tickCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	interval := time.Second / time.Duration(fps)
	waiter := clock.TickerFunc(tickCtx, interval, publish, "camera", "synthetic")

	return &syntheticSource{Mailbox: mb, cancel: cancel, waiter: waiter}, nil
}

func (s *syntheticSource) Close() error {
	s.cancel()
	_ = s.waiter.Wait()
	return s.Mailbox.Close()
}

// testPattern renders a diagonal gradient shifted by n
func testPattern(w, h int, n uint64) []byte {
	data := make([]byte, w*h)
	shift := int(n % 256)
	for y := range h {
		for x := range w {
			data[y*w+x] = byte((x + y + shift) % 256)
		}
	}
	return data
}
