package application

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ChannelRequests is the channel realtime request updates are broadcast
// on. Delivery is best-effort: a slow or gone consumer is dropped, never
// waited on.
const ChannelRequests = "requests"

type HubOptions struct {
	Logger      *logrus.Logger
	CheckOrigin func(r *http.Request) bool
}

// Hub fans broadcast messages out to connected websocket clients grouped
// by channel.
type Hub struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	channels map[string]map[*connection]struct{}
}

type connection struct {
	ws   *websocket.Conn
	send chan []byte
}

func NewHub(opts *HubOptions) *Hub {
	return &Hub{
		logger: opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		channels: make(map[string]map[*connection]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.WithError(err).Warn("websocket upgrade failed")
		}
		return
	}

	conn := &connection{ws: ws, send: make(chan []byte, 16)}
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = ChannelRequests
	}
	h.join(channel, conn)

	go h.writeLoop(conn)
	go h.readLoop(channel, conn)
}

// Broadcast sends payload to every connection subscribed to channel.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.channels[channel] {
		select {
		case conn.send <- payload:
		default:
			// Consumer is not keeping up; skip rather than block the
			// publishing transaction path.
		}
	}
}

// ConnectionCount reports the number of subscribers on a channel.
func (h *Hub) ConnectionCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) join(channel string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*connection]struct{})
	}
	h.channels[channel][conn] = struct{}{}
}

func (h *Hub) leave(channel string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.channels[channel], conn)
	close(conn.send)
}

func (h *Hub) writeLoop(conn *connection) {
	for payload := range conn.send {
		if err := conn.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (h *Hub) readLoop(channel string, conn *connection) {
	defer func() {
		h.leave(channel, conn)
		_ = conn.ws.Close()
	}()
	for {
		// Clients only listen; reads exist to detect disconnects.
		if _, _, err := conn.ws.ReadMessage(); err != nil {
			return
		}
	}
}
