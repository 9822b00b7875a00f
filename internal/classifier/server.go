package classifier

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lox/rpsvision/internal/camera"
)

// Handler serves a Classifier using the same wire protocol Remote speaks.
// It lets a local model, or a stand-in, be exposed to another process.
type Handler struct {
	classifier Classifier
	logger     *log.Logger
	upgrader   websocket.Upgrader
}

// NewHandler wraps c in an HTTP handler that upgrades to WebSocket
func NewHandler(c Classifier, logger *log.Logger) *Handler {
	return &Handler{
		classifier: c,
		logger:     logger.WithPrefix("model-server"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("Connection closed", "error", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		resp := h.handle(ctx, data)
		out, err := msgpack.Marshal(&resp)
		if err != nil {
			h.logger.Error("Failed to encode response", "error", err)
			return
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
			h.logger.Debug("Write failed", "error", err)
			return
		}
	}
}

func (h *Handler) handle(ctx context.Context, data []byte) Response {
	var req Request
	if err := msgpack.Unmarshal(data, &req); err != nil {
		return Response{Error: "malformed request"}
	}

	frame := camera.Frame{
		Seq:    req.ID,
		Width:  req.Width,
		Height: req.Height,
		Format: req.Format,
		Data:   req.Data,
	}
	preds, err := h.classifier.Predict(ctx, frame)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Predictions: preds}
}
