package server

import (
	"sync"
	"sync/atomic"
)

// Registry maintains the set of active clients. Connections share nothing
// with one another; the registry only tracks lifecycle.
type Registry struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	logger     *WebSocketLogger
	mu         sync.RWMutex
	stopChan   chan struct{}
	stopOnce   sync.Once
	isRunning  int32
}

// NewRegistry creates a new Registry
func NewRegistry() *Registry {
	return &Registry{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		logger:     NewWebSocketLogger(),
		stopChan:   make(chan struct{}),
	}
}

// Run starts the Registry
func (r *Registry) Run() {
	atomic.StoreInt32(&r.isRunning, 1)
	defer atomic.StoreInt32(&r.isRunning, 0)

	for {
		select {
		case client := <-r.register:
			r.handleRegister(client)

		case client := <-r.unregister:
			r.handleUnregister(client)

		case <-r.stopChan:
			return
		}
	}
}

func (r *Registry) handleRegister(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[client.connID] = client
	r.logger.Info("client connected", client.connID, client.remoteAddr)

	go client.writePump()
	go client.readPump()
}

func (r *Registry) handleUnregister(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[client.connID]; ok {
		delete(r.clients, client.connID)
		close(client.outbound)
		client.conn.Close()
		r.logger.Info("client disconnected", client.connID, client.remoteAddr)
	}
}

// Count reports the number of active connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Running reports whether the Run loop is active.
func (r *Registry) Running() bool {
	return atomic.LoadInt32(&r.isRunning) == 1
}

// Stop shuts down the Registry and drops every live connection.
// Safe to call more than once.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)

		r.mu.Lock()
		defer r.mu.Unlock()

		for _, client := range r.clients {
			// Closing the socket ends the pumps; cleanup runs on unregister.
			client.conn.Close()
		}
		r.clients = make(map[string]*Client)
	})
}
