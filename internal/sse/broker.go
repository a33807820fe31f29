// Package sse implements a Server-Sent Events broker that fans note store
// changes out to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// IndexUpdated is emitted at most once per throttle interval after a change.
const IndexUpdated = "index.updated"

const (
	clientBuffer     = 64
	defaultThrottle  = 2 * time.Second
	defaultKeepAlive = 25 * time.Second
)

// Event is one SSE frame: Type becomes the event name, Data the JSON payload.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// frame renders e in text/event-stream form.
func frame(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("sse: encode %s: %w", e.Type, err)
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", e.Type, payload), nil
}

// outgoing is an event on its way to the loop. Store changes also arm the
// index.updated throttle.
type outgoing struct {
	event  Event
	change bool
}

// Option configures a Broker.
type Option func(*Broker)

// WithKeepAlive sets how often an idle stream receives a comment line.
func WithKeepAlive(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.keepAlive = d
		}
	}
}

// Broker owns the set of connected clients. Only the loop goroutine touches
// that set; everything else talks to it over channels.
type Broker struct {
	throttle  time.Duration
	keepAlive time.Duration

	join   chan chan []byte
	leave  chan chan []byte
	events chan outgoing
	count  chan chan int

	stop    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker that emits index.updated at most once per throttle.
func NewBroker(throttle time.Duration, opts ...Option) *Broker {
	if throttle <= 0 {
		throttle = defaultThrottle
	}
	b := &Broker{
		throttle:  throttle,
		keepAlive: defaultKeepAlive,
		join:      make(chan chan []byte),
		leave:     make(chan chan []byte),
		events:    make(chan outgoing, 256),
		count:     make(chan chan int),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastIndex time.Time

	send := func(e Event) {
		msg, err := frame(e)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// slow client, drop
			}
		}
	}

	for {
		select {
		case <-b.stop:
			for ch := range clients {
				close(ch)
			}
			return
		case ch := <-b.join:
			clients[ch] = struct{}{}
		case ch := <-b.leave:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}
		case out := <-b.events:
			send(out.event)
			if out.change {
				if now := time.Now(); now.Sub(lastIndex) >= b.throttle {
					lastIndex = now
					send(Event{Type: IndexUpdated, Data: map[string]string{}})
				}
			}
		case reply := <-b.count:
			reply <- len(clients)
		}
	}
}

func (b *Broker) enqueue(out outgoing) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- out:
	case <-b.stopped:
	}
}

// Close stops the loop and closes every client channel. It is idempotent.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed on Unsubscribe
// or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	reply := make(chan int, 1)
	select {
	case b.count <- reply:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends e to every client as is.
func (b *Broker) Publish(e Event) {
	b.enqueue(outgoing{event: e})
}

// PublishChange announces a store change as {"id": id} (empty when id is ""),
// followed by a throttled index.updated. It satisfies noteservice.Publisher.
func (b *Broker) PublishChange(kind, id string) {
	data := map[string]string{}
	if id != "" {
		data["id"] = id
	}
	b.enqueue(outgoing{event: Event{Type: kind, Data: data}, change: true})
}

// ServeHTTP streams events to one client until the request ends or the
// broker closes. Idle streams get a comment line every keep-alive interval.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	tick := time.NewTicker(b.keepAlive)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
