package notify

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/me/mesas/pkg/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 32
)

// Hub is the live broadcast channel: every connected websocket listener
// receives every published message.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*listener]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
	closed   bool
}

type listener struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (l *listener) close() {
	l.once.Do(func() { close(l.send) })
}

// NewHub creates an empty hub. checkOrigin may be nil to accept any origin.
func NewHub(checkOrigin func(r *http.Request) bool, logger *slog.Logger) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		clients: make(map[*listener]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.With("component", "broadcast-hub"),
	}
}

// ServeHTTP upgrades the request and registers the socket as a listener.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	l := &listener{conn: conn, send: make(chan []byte, clientSendSize)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[l] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("listener connected", "remote", r.RemoteAddr, "listeners", count)

	go h.writePump(l)
	go h.readPump(l)
}

// Publish queues payload for every listener. Listeners whose buffer is full
// are disconnected.
func (h *Hub) Publish(payload []byte) (delivered, dropped int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for l := range h.clients {
		select {
		case l.send <- payload:
			delivered++
		default:
			dropped++
			delete(h.clients, l)
			l.close()
		}
	}
	return delivered, dropped
}

// Listeners returns the number of connected sockets.
func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every listener and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for l := range h.clients {
		delete(h.clients, l)
		l.close()
	}
}

func (h *Hub) remove(l *listener) {
	h.mu.Lock()
	if _, ok := h.clients[l]; ok {
		delete(h.clients, l)
		l.close()
	}
	h.mu.Unlock()
}

// readPump discards inbound frames and detects disconnects.
func (h *Hub) readPump(l *listener) {
	defer func() {
		h.remove(l)
		l.conn.Close()
	}()
	l.conn.SetReadLimit(512)
	l.conn.SetReadDeadline(time.Now().Add(pongWait))
	l.conn.SetPongHandler(func(string) error {
		return l.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := l.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(l *listener) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		l.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-l.send:
			l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				l.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := l.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("listener write failed", "error", err)
				h.remove(l)
				return
			}
		case <-ticker.C:
			l.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(l)
				return
			}
		}
	}
}

// Broadcast sends every event verbatim to all hub listeners, ignoring
// the event's recipient list.
type Broadcast struct {
	hub    atomic.Pointer[Hub]
	logger *slog.Logger
}

// NewBroadcast creates the strategy. hub may be nil and attached later.
func NewBroadcast(hub *Hub, logger *slog.Logger) *Broadcast {
	b := &Broadcast{logger: logger.With("component", "notifier", "strategy", StrategyBroadcast)}
	if hub != nil {
		b.hub.Store(hub)
	}
	return b
}

// Attach connects the strategy to a live hub.
func (b *Broadcast) Attach(hub *Hub) {
	b.hub.Store(hub)
}

func (b *Broadcast) Name() string { return StrategyBroadcast }

func (b *Broadcast) Send(ctx context.Context, ev model.Event) (model.DeliveryReport, error) {
	hub := b.hub.Load()
	if hub == nil {
		return model.DeliveryReport{}, ErrChannelNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return model.DeliveryReport{}, err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return model.DeliveryReport{}, err
	}
	delivered, dropped := hub.Publish(payload)
	report := model.DeliveryReport{
		Attempted: delivered + dropped,
		Delivered: delivered,
		Failed:    dropped,
	}
	if dropped > 0 {
		report.Failures = append(report.Failures, model.DeliveryFailure{Error: "listener buffer full, disconnected"})
	}
	b.logger.Debug("event broadcast", "kind", ev.Kind, "listeners", delivered, "dropped", dropped)
	return report, nil
}
