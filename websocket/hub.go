package websocket

import (
	"encoding/json/v2"
	"sync"
)

// Hub manages multiple endpoints for broadcasting.
//
// Hub provides a central point for managing WebSocket endpoints and
// broadcasting messages to all of them simultaneously.
//
// Thread-safe operations allow concurrent endpoint registration,
// unregistration, and broadcasting from multiple goroutines.
//
// Example Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Close()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//	    ep, _ := websocket.Upgrade(w, r, nil)
//	    hub.Register(ep)
//	})
type Hub struct {
	// Endpoint management
	endpoints map[*Endpoint]bool

	// Channels for event loop
	register   chan *Endpoint
	unregister chan *Endpoint
	broadcast  chan broadcastMessage

	// Lifecycle management
	done   chan struct{}
	closed bool
	wg     sync.WaitGroup

	// Thread-safety for endpoints map and closed flag
	mu sync.RWMutex
}

// broadcastMessage carries one queued broadcast and whether it must go
// out as a text frame (BroadcastText/BroadcastJSON) or binary
// (Broadcast) — the opcode distinction matters on the wire even though
// the Hub's own API only deals in bytes.
type broadcastMessage struct {
	data []byte
	text bool
}

// NewHub creates a new Hub.
//
// The Hub must be started by calling Run() in a goroutine:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Close()
func NewHub() *Hub {
	return &Hub{
		endpoints:  make(map[*Endpoint]bool),
		register:   make(chan *Endpoint),
		unregister: make(chan *Endpoint),
		broadcast:  make(chan broadcastMessage, 256), // Buffered for performance
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's event loop. It blocks and should be called in a
// goroutine; it exits when Close() is called.
func (h *Hub) Run() {
	h.wg.Add(1)
	defer h.wg.Done()

	for {
		select {
		case ep := <-h.register:
			h.mu.Lock()
			h.endpoints[ep] = true
			h.mu.Unlock()

		case ep := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.endpoints[ep]; ok {
				delete(h.endpoints, ep)
				_ = ep.Close(CloseNormalClosure, "")
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for ep := range h.endpoints {
				// The send itself is non-blocking; a slow or dead endpoint
				// can never stall the broadcast loop.
				go func(ep *Endpoint, msg broadcastMessage) {
					handler := SendHandlerFunc(func(r SendResult) {
						if !r.OK() {
							h.Unregister(ep)
						}
					})
					if msg.text {
						ep.SendStringByCompletion(string(msg.data), handler)
					} else {
						ep.SendBytesByCompletion(msg.data, handler)
					}
				}(ep, msg)
			}
			h.mu.RUnlock()

		case <-h.done:
			return
		}
	}
}

// Register adds an endpoint to the Hub. Typically called right after a
// successful Upgrade. Thread-safe.
func (h *Hub) Register(ep *Endpoint) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	h.mu.RUnlock()

	h.register <- ep
}

// Unregister removes an endpoint from the Hub and closes it. Safe to
// call multiple times for the same endpoint (no-op after first call).
// Thread-safe.
func (h *Hub) Unregister(ep *Endpoint) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	h.mu.RUnlock()

	h.unregister <- ep
}

// Broadcast queues message for delivery to every registered endpoint as
// a binary frame. Non-blocking: returns immediately, delivery happens
// asynchronously in the event loop. Thread-safe.
func (h *Hub) Broadcast(message []byte) {
	h.enqueue(broadcastMessage{data: message})
}

// BroadcastText sends a text message to all registered endpoints.
func (h *Hub) BroadcastText(text string) {
	h.enqueue(broadcastMessage{data: []byte(text), text: true})
}

// BroadcastJSON marshals v to JSON and broadcasts it as a text message.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.enqueue(broadcastMessage{data: data, text: true})
	return nil
}

func (h *Hub) enqueue(msg broadcastMessage) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	h.mu.RUnlock()

	h.broadcast <- msg
}

// EndpointCount returns the number of currently registered endpoints.
// Thread-safe.
func (h *Hub) EndpointCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.endpoints)
}

// Close stops the Hub and closes all registered endpoints. Safe to call
// multiple times (no-op after first call).
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	close(h.done)
	h.wg.Wait()

	h.mu.Lock()
	for ep := range h.endpoints {
		_ = ep.Close(CloseGoingAway, "")
	}
	h.endpoints = make(map[*Endpoint]bool)
	h.mu.Unlock()

	close(h.register)
	close(h.unregister)
	close(h.broadcast)

	return nil
}
