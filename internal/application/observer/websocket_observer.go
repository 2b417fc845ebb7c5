package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/campaignflow/engine/internal/infrastructure/logger"
)

// WebSocketObserver fans events out to connected operator dashboards. It
// never blocks step execution: a slow or disconnected client simply misses
// events dropped off its buffered channel.
type WebSocketObserver struct {
	logger     *logger.Logger
	filter     EventFilter
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
	clients    map[*wsClient]struct{}
	bufferSize int
}

type wsClient struct {
	conn *websocket.Conn
	send chan Event
}

// NewWebSocketObserver builds an observer ready to accept connections via
// its Handler method.
func NewWebSocketObserver(l *logger.Logger, bufferSize int) *WebSocketObserver {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	return &WebSocketObserver{
		logger:     l,
		clients:    make(map[*wsClient]struct{}),
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Name implements Observer.
func (o *WebSocketObserver) Name() string { return "websocket" }

// Filter implements Observer.
func (o *WebSocketObserver) Filter() EventFilter { return o.filter }

// OnEvent implements Observer.
func (o *WebSocketObserver) OnEvent(ctx context.Context, event Event) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for c := range o.clients {
		select {
		case c.send <- event:
		default:
			// client too slow, drop the event rather than block the engine
		}
	}
	return nil
}

// Handler upgrades an HTTP request to a WebSocket connection and streams
// events to it until the client disconnects.
func (o *WebSocketObserver) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := o.upgrader.Upgrade(w, r, nil)
	if err != nil {
		o.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan Event, o.bufferSize)}
	o.mu.Lock()
	o.clients[client] = struct{}{}
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.clients, client)
		o.mu.Unlock()
		conn.Close()
	}()

	for event := range client.send {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// ClientCount returns the number of currently connected dashboard clients.
func (o *WebSocketObserver) ClientCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.clients)
}
