package camera

import (
	"sync"
)

// Mailbox is a single-slot, latest-frame-only Source. Publishing never
// blocks; a frame that was never read is overwritten and counted as dropped.
type Mailbox struct {
	mu       sync.Mutex
	frame    *Frame
	consumed bool
	seq      uint64
	drops    uint64
	closed   bool
}

// MailboxStats reports publish and drop counters
type MailboxStats struct {
	Published uint64
	Drops     uint64
}

// NewMailbox creates an empty mailbox
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Publish stores f as the current frame and assigns its sequence number.
// Frames published after Close are discarded.
func (m *Mailbox) Publish(f Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if m.frame != nil && !m.consumed {
		m.drops++
	}
	m.seq++
	f.Seq = m.seq
	m.frame = &f
	m.consumed = false
}

// Frame returns the latest published frame
func (m *Mailbox) Frame() (Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Frame{}, ErrClosed
	}
	if m.frame == nil {
		return Frame{}, ErrNoFrame
	}
	m.consumed = true
	return *m.frame, nil
}

// Stats returns a snapshot of the mailbox counters
func (m *Mailbox) Stats() MailboxStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MailboxStats{Published: m.seq, Drops: m.drops}
}

// Close releases the mailbox. It is idempotent.
func (m *Mailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.frame = nil
	return nil
}
