package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lox/rpsvision/internal/camera"
)

// ErrModel wraps an error reported by the model server itself
var ErrModel = errors.New("model error")

// Remote talks to an external model server over a WebSocket connection.
// Requests are serialised: at most one is outstanding per Remote. The
// connection is dialled on first use and redialled after a transport error.
type Remote struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
}

// NewRemote creates a client for the model server at serverURL. http and
// https schemes are rewritten to ws and wss.
func NewRemote(serverURL string, logger *log.Logger) (*Remote, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported classifier URL scheme %q", u.Scheme)
	}

	return &Remote{
		url:    u.String(),
		dialer: websocket.DefaultDialer,
		logger: logger.WithPrefix("classifier").With("url", u.String()),
	}, nil
}

// Predict implements Classifier
func (r *Remote) Predict(ctx context.Context, frame camera.Frame) ([]Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}

	r.nextID++
	req := Request{
		ID:     r.nextID,
		Width:  frame.Width,
		Height: frame.Height,
		Format: frame.Format,
		Data:   frame.Data,
	}
	payload, err := msgpack.Marshal(&req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	} else {
		_ = conn.SetWriteDeadline(time.Time{})
	}
	_ = conn.SetReadDeadline(time.Time{})

	// Unblock the read below when ctx ends
	rc := &readCanceller{conn: conn}
	stop := context.AfterFunc(ctx, rc.cancel)
	defer func() {
		if !stop() {
			rc.finish()
		}
	}()

	if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
		return nil, r.fail(ctx, fmt.Errorf("failed to send frame: %w", err))
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, r.fail(ctx, fmt.Errorf("failed to read prediction: %w", err))
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		var resp Response
		if err := msgpack.Unmarshal(data, &resp); err != nil {
			return nil, r.fail(ctx, fmt.Errorf("failed to decode prediction: %w", err))
		}
		if resp.ID != req.ID {
			// Late answer to a request we already gave up on
			r.logger.Debug("Discarding stale response", "id", resp.ID, "want", req.ID)
			continue
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrModel, resp.Error)
		}
		return resp.Predictions, nil
	}
}

func (r *Remote) connect(ctx context.Context) (*websocket.Conn, error) {
	if r.conn != nil {
		return r.conn, nil
	}
	r.logger.Debug("Connecting to model server")
	conn, _, err := r.dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to classifier: %w", err)
	}
	r.conn = conn
	return conn, nil
}

// fail drops the connection so the next call redials. Errors caused by
// ctx ending are reported as the context error.
func (r *Remote) fail(ctx context.Context, err error) error {
	if r.conn != nil {
		_ = r.conn.Close()
		r.conn = nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Close closes the connection if one is open
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	_ = r.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := r.conn.Close()
	r.conn = nil
	return err
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// readCanceller interrupts one request's read. Once finish returns, a late
// cancel is a no-op, so it cannot disturb the next request on the same
// connection.
type readCanceller struct {
	mu   sync.Mutex
	conn readDeadliner
	done bool
}

func (c *readCanceller) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.done {
		_ = c.conn.SetReadDeadline(time.Now())
	}
}

func (c *readCanceller) finish() {
	c.mu.Lock()
	c.done = true
	c.mu.Unlock()
}
