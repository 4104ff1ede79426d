package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tokenagg/internal/application/port"
	"tokenagg/internal/domain/model"
)

// Subscriber is the part of the live monitor the websocket layer drives.
type Subscriber interface {
	Subscribe(ctx context.Context, ch port.Channel, query string, window model.Window) error
	Unsubscribe(id string) bool
	Disconnect(id string)
}

type inFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type subscribeRequest struct {
	Query  string `json:"query"`
	Period string `json:"period"`
	Window string `json:"window"`
}

func (r subscribeRequest) window() model.Window {
	p := r.Period
	if p == "" {
		p = r.Window
	}
	w, _ := model.ParseWindow(p)
	return w
}

type Handler struct {
	monitor  Subscriber
	metrics  port.Metrics
	upgrader websocket.Upgrader
}

// NewHandler serves websocket clients against m. metrics may be nil.
func NewHandler(m Subscriber, metrics port.Metrics) *Handler {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &Handler{
		monitor: m,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	c := newClient(conn, h.metrics)
	log.Info().Str("conn", c.id).Str("remote", r.RemoteAddr).Msg("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go c.writePump()
	h.readPump(ctx, c)

	h.monitor.Disconnect(c.id)
	c.close()
	log.Info().Str("conn", c.id).Msg("client disconnected")
}

func (h *Handler) readPump(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("conn", c.id).Msg("websocket read failed")
			}
			return
		}
		h.dispatch(ctx, c, msg)
	}
}

func (h *Handler) dispatch(ctx context.Context, c *client, msg []byte) {
	var f inFrame
	if err := json.Unmarshal(msg, &f); err != nil {
		_ = c.Emit(model.EventPriceError, model.PriceError{Message: "invalid message"})
		return
	}

	switch f.Event {
	case model.EventSubscribe:
		var req subscribeRequest
		if len(f.Data) > 0 {
			if err := json.Unmarshal(f.Data, &req); err != nil {
				_ = c.Emit(model.EventPriceError, model.PriceError{Message: "invalid subscribe payload"})
				return
			}
		}
		w := req.window()
		if err := h.monitor.Subscribe(ctx, c, req.Query, w); err != nil {
			_ = c.Emit(model.EventPriceError, model.PriceError{Query: req.Query, Window: w, Message: err.Error()})
		}

	case model.EventUnsubscribe:
		h.monitor.Unsubscribe(c.id)

	default:
		log.Debug().Str("conn", c.id).Str("event", f.Event).Msg("ignoring unknown event")
	}
}
