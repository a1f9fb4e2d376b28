// Package sse pushes file changes below the root to connected browsers as
// Server-Sent Events.
//
// Changes are not forwarded one by one. fsnotify reports an editor save as a
// burst of writes (and sometimes a delete plus create), so the broker collects
// changes per path for one window and then sends a single fs.* event per path,
// followed by one tree.updated when the batch added or removed entries.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Change kinds accepted by PublishChange.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Event types written to the stream.
const (
	EventTreeUpdated = "tree.updated"
	eventPrefix      = "fs."
)

// DefaultWindow is used when NewBroker gets a non-positive window.
const DefaultWindow = 2 * time.Second

const clientBuffer = 64

// Broker fans batched changes out to subscribed clients. It is safe for
// concurrent use.
type Broker struct {
	window time.Duration

	mu      sync.Mutex
	clients map[chan []byte]struct{}
	batch   batch
	timer   *time.Timer
	closed  bool
}

// batch holds the merged change per path in first-seen order.
type batch struct {
	order []string
	kinds map[string]string
}

func (b *batch) add(kind, path string) {
	if b.kinds == nil {
		b.kinds = make(map[string]string)
	}
	prev, seen := b.kinds[path]
	if !seen {
		b.order = append(b.order, path)
		b.kinds[path] = kind
		return
	}
	switch {
	case prev == KindCreated && kind == KindDeleted:
		// Never visible to clients.
		delete(b.kinds, path)
	case prev == KindCreated:
		// Writes to a new file keep it new.
	case prev == KindDeleted && kind == KindCreated:
		// Replaced in place, as atomic saves do.
		b.kinds[path] = KindUpdated
	default:
		b.kinds[path] = kind
	}
}

// NewBroker creates a broker that coalesces changes over window.
func NewBroker(window time.Duration) *Broker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Broker{
		window:  window,
		clients: make(map[chan []byte]struct{}),
	}
}

// PublishChange records a change to the root-relative path. Unknown kinds
// are ignored. The change reaches clients when the current window closes.
func (b *Broker) PublishChange(kind, path string) {
	switch kind {
	case KindCreated, KindUpdated, KindDeleted:
	default:
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.batch.add(kind, path)
	if b.timer == nil {
		b.timer = time.AfterFunc(b.window, b.flush)
	}
}

// flush sends the pending batch and opens a new window.
func (b *Broker) flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timer = nil
	pending := b.batch
	b.batch = batch{}
	if b.closed {
		return
	}

	structural := false
	sent := make(map[string]struct{}, len(pending.order))
	for _, path := range pending.order {
		kind, ok := pending.kinds[path]
		if !ok {
			continue
		}
		if _, dup := sent[path]; dup {
			continue
		}
		sent[path] = struct{}{}
		if kind != KindUpdated {
			structural = true
		}
		b.broadcast(eventPrefix+kind, map[string]string{"path": path})
	}
	if structural {
		b.broadcast(EventTreeUpdated, struct{}{})
	}
}

// broadcast must be called with mu held. Clients whose buffer is full miss
// the message rather than stall the others.
func (b *Broker) broadcast(typ string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", typ, payload))
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe registers a client. The channel is closed by Unsubscribe or
// Close; after Close it is returned already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// Close drops pending changes and disconnects every client. It is idempotent.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	for ch := range b.clients {
		close(ch)
	}
	clear(b.clients)
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Comment line so clients see the stream open before the first change.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
